package scheduler

import "fmt"

// phase labels where the wave loop currently is, for logging.
type phase int

const (
	phaseIdle = phase(iota)
	phaseAdmitting
	phasePolling
	phaseDraining
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseAdmitting:
		return "admitting"
	case phasePolling:
		return "polling"
	case phaseDraining:
		return "draining"
	case phaseDone:
		return "done"
	}
	panic(fmt.Sprintf("unknown phase: %d", int(p)))
}
