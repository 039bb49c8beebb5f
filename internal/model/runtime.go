package model

import "fmt"

// JobRuntimeState is the scheduler's per-job bookkeeping while a flow runs.
// One is created for every JobRecord when its flow starts and discarded when
// the flow terminates.
type JobRuntimeState struct {
	// Record is the immutable input row this state belongs to.
	Record *JobRecord

	// HandleURI is the remote handle returned by dispatch. Empty until the
	// job leaves Pending.
	HandleURI string

	// ParamString is the encoded argument string, computed once before the
	// flow starts.
	ParamString string

	// Status is the job's position in its one-way lifecycle.
	Status JobStatus
}

// FlowState tracks one flow's execution. Invariants: Concurrency equals the
// number of jobs with Status == StatusDispatched, CompletedCount the number
// with Status == StatusCompleted. The flow is terminal when CompletedCount
// reaches len(Jobs).
type FlowState struct {
	FlowID         int
	Jobs           []*JobRuntimeState
	Concurrency    int
	CompletedCount int
}

// Done reports whether every job of the flow has reached a terminal state.
func (f *FlowState) Done() bool {
	return f.CompletedCount == len(f.Jobs)
}

// MarkDispatched records a successful dispatch of job js.
func (f *FlowState) MarkDispatched(js *JobRuntimeState, handleURI string) {
	if js.Status != StatusPending {
		panic(fmt.Sprintf("dispatching job %q twice (status %s)", js.Record.Name, js.Status))
	}
	js.HandleURI = handleURI
	js.Status = StatusDispatched
	f.Concurrency++
}

// MarkCompleted records that job js reached a terminal remote state.
func (f *FlowState) MarkCompleted(js *JobRuntimeState) {
	if js.Status != StatusDispatched {
		panic(fmt.Sprintf("completing job %q that was never dispatched (status %s)", js.Record.Name, js.Status))
	}
	js.Status = StatusCompleted
	f.Concurrency--
	f.CompletedCount++
}
