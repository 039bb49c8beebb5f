package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/flowrungo/internal/jobservice"
)

// FakeJobService is an in-memory jobservice.Client for scheduler and app
// tests. Dispatched handles sit in a pending set until a WaitForAny call
// "finishes" them; how many finish per call is configurable, which lets
// tests shape wave boundaries precisely.
//
// All methods are safe for concurrent use, though the scheduler under test
// drives them from a single goroutine.
type FakeJobService struct {
	mu sync.Mutex

	// CompletePerWait is how many pending handles each WaitForAny call
	// reports terminal. Zero means one.
	CompletePerWait int

	// TerminalState is the state completed handles report. Empty means
	// "completed".
	TerminalState jobservice.JobState

	// ExecuteErrFor makes Execute fail for the given program paths.
	ExecuteErrFor map[string]error

	executed       []jobservice.ExecuteSpec
	executeCounts  map[string]int
	pending        []string
	outstanding    int
	maxOutstanding int
	waitCalls      int
	completed      []string
	events         []string
	seq            int
	clock          time.Time
}

var _ jobservice.Client = (*FakeJobService)(nil)

// NewFakeJobService returns a fake where every WaitForAny call completes one
// pending handle successfully.
func NewFakeJobService() *FakeJobService {
	return &FakeJobService{
		executeCounts: make(map[string]int),
		clock:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Execute implements jobservice.Client.
func (f *FakeJobService) Execute(ctx context.Context, spec jobservice.ExecuteSpec) (jobservice.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Failed attempts count too, so tests can assert there was no retry.
	f.executeCounts[spec.Path+"|"+spec.Name]++
	if err, ok := f.ExecuteErrFor[spec.Path]; ok {
		return jobservice.Handle{}, err
	}

	f.seq++
	uri := fmt.Sprintf("/jobs/%d", f.seq)
	f.executed = append(f.executed, spec)
	f.pending = append(f.pending, uri)
	f.events = append(f.events, "execute "+spec.Path)
	f.outstanding++
	if f.outstanding > f.maxOutstanding {
		f.maxOutstanding = f.outstanding
	}
	return jobservice.Handle{URI: uri, MonitorLink: uri + "/monitor"}, nil
}

// WaitForAny implements jobservice.Client. It finishes the oldest pending
// handles among those the caller is waiting on.
func (f *FakeJobService) WaitForAny(ctx context.Context, handles []string) ([]jobservice.HandleStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.waitCalls++
	if len(handles) == 0 {
		return nil, fmt.Errorf("fake service: WaitForAny called with no handles")
	}

	waiting := make(map[string]bool, len(handles))
	for _, h := range handles {
		if !f.isPending(h) {
			return nil, fmt.Errorf("fake service: waiting on unknown or finished handle %s", h)
		}
		waiting[h] = true
	}

	n := f.CompletePerWait
	if n <= 0 {
		n = 1
	}
	state := f.TerminalState
	if state == "" {
		state = jobservice.StateCompleted
	}

	var statuses []jobservice.HandleStatus
	remaining := f.pending[:0:0]
	for _, uri := range f.pending {
		if len(statuses) < n && waiting[uri] {
			f.clock = f.clock.Add(time.Second)
			statuses = append(statuses, jobservice.HandleStatus{URI: uri, State: state, Timestamp: f.clock})
			f.completed = append(f.completed, uri)
			f.events = append(f.events, "complete "+uri)
			f.outstanding--
			continue
		}
		remaining = append(remaining, uri)
	}
	f.pending = remaining

	if len(statuses) == 0 {
		return nil, fmt.Errorf("fake service: no pending handle matched the wait set")
	}
	return statuses, nil
}

func (f *FakeJobService) isPending(uri string) bool {
	for _, p := range f.pending {
		if p == uri {
			return true
		}
	}
	return false
}

// MaxOutstanding reports the highest number of simultaneously outstanding
// handles the fake ever saw.
func (f *FakeJobService) MaxOutstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxOutstanding
}

// Executed returns every accepted submission in dispatch order.
func (f *FakeJobService) Executed() []jobservice.ExecuteSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]jobservice.ExecuteSpec(nil), f.executed...)
}

// ExecuteCount reports how many times a path/name pair was attempted,
// including attempts that failed via ExecuteErrFor.
func (f *FakeJobService) ExecuteCount(path, name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executeCounts[path+"|"+name]
}

// WaitCalls reports how many WaitForAny calls the fake served.
func (f *FakeJobService) WaitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waitCalls
}

// CompletionOrder returns handle URIs in the order they were finished.
func (f *FakeJobService) CompletionOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.completed...)
}

// Events returns the interleaved trace of dispatches and completions, each
// entry "execute <path>" or "complete <uri>".
func (f *FakeJobService) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// Outstanding reports how many handles are currently pending.
func (f *FakeJobService) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding
}
