package model

import "fmt"

// JobStatus is the local lifecycle of one job within its flow. Transitions
// are strictly Pending -> Dispatched -> Completed; Completed is terminal.
type JobStatus int

const (
	StatusPending = JobStatus(iota)
	StatusDispatched
	StatusCompleted
)

func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDispatched:
		return "dispatched"
	case StatusCompleted:
		return "completed"
	}
	panic(fmt.Sprintf("unknown JobStatus: %d", int(s)))
}
