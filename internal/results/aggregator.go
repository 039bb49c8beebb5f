// Package results accumulates per-job result rows across flows and writes
// the run's output table.
package results

import (
	"github.com/vk/flowrungo/internal/model"
)

// Aggregator collects result rows. Flows are appended in execution order and
// each flow's rows arrive already ordered by completion, so the final table
// is completion order within ascending flow order. No deduplication happens:
// the scheduler produces exactly one row per job by construction.
type Aggregator struct {
	rows []model.JobResult
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AppendFlow adds one finished flow's rows to the output table.
func (a *Aggregator) AppendFlow(rows []model.JobResult) {
	a.rows = append(a.rows, rows...)
}

// Rows returns the accumulated table.
func (a *Aggregator) Rows() []model.JobResult {
	return a.rows
}

// Len reports the number of accumulated rows.
func (a *Aggregator) Len() int {
	return len(a.rows)
}
