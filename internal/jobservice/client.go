// Package jobservice defines the contract with the remote job-execution
// service and provides its HTTP implementation. The scheduler only depends
// on the Client interface, so tests drive it with in-memory fakes.
package jobservice

import (
	"context"
	"time"
)

// JobState is a remote job's state as reported by the service.
type JobState string

const (
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCanceled  JobState = "canceled"
)

// Terminal reports whether a job in state s can never transition again.
func (s JobState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCanceled:
		return true
	}
	return false
}

// Handle references a dispatched remote job.
type Handle struct {
	// URI is the opaque identifier used to poll the job.
	URI string
	// MonitorLink points a human at the service's monitoring page.
	MonitorLink string
}

// HandleStatus is one entry of a WaitForAny response.
type HandleStatus struct {
	URI       string
	State     JobState
	Timestamp time.Time
}

// ExecuteSpec describes one job submission.
type ExecuteSpec struct {
	// Path is the program to run.
	Path string
	// Name is the human-readable label the submission carries.
	Name string
	// Context names the execution context the job runs under.
	Context string
	// ParamString is the pre-encoded argument object, or empty.
	ParamString string
}

// Client is the minimal surface of the remote job-execution service the
// scheduler needs.
type Client interface {
	// Execute submits the described job and returns its handle. It returns
	// as soon as the service accepts the job; it does not wait for the job
	// to finish.
	Execute(ctx context.Context, spec ExecuteSpec) (Handle, error)

	// WaitForAny blocks until at least one of the given handles reaches a
	// terminal state, then returns every handle of the set that is
	// terminal at that point. Handles still running are not included.
	WaitForAny(ctx context.Context, handles []string) ([]HandleStatus, error)
}
