package app

import (
	"sync"

	"github.com/vk/flowrungo/internal/scheduler"
)

// statusTracker keeps the last progress snapshot for the status webserver.
// It is the only state in the app read from another goroutine.
type statusTracker struct {
	mu sync.Mutex

	running      bool
	flowsTotal   int
	flowsDone    int
	jobsTotal    int
	resultsSoFar int
	current      scheduler.Progress
}

// statusSnapshot is the JSON body served at /status.
type statusSnapshot struct {
	Running        bool `json:"running"`
	FlowsTotal     int  `json:"flows_total"`
	FlowsCompleted int  `json:"flows_completed"`
	JobsTotal      int  `json:"jobs_total"`
	Results        int  `json:"results"`

	CurrentFlow       int `json:"current_flow"`
	CurrentDispatched int `json:"current_dispatched"`
	CurrentCompleted  int `json:"current_completed"`
	CurrentTotal      int `json:"current_total"`
}

func (t *statusTracker) begin(flows, jobs int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.flowsTotal = flows
	t.jobsTotal = jobs
}

func (t *statusTracker) observe(p scheduler.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = p
}

func (t *statusTracker) flowDone(resultCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flowsDone++
	t.resultsSoFar += resultCount
}

func (t *statusTracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

func (t *statusTracker) snapshot() statusSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return statusSnapshot{
		Running:           t.running,
		FlowsTotal:        t.flowsTotal,
		FlowsCompleted:    t.flowsDone,
		JobsTotal:         t.jobsTotal,
		Results:           t.resultsSoFar,
		CurrentFlow:       t.current.FlowID,
		CurrentDispatched: t.current.Dispatched,
		CurrentCompleted:  t.current.Completed,
		CurrentTotal:      t.current.Total,
	}
}
