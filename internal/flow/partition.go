// Package flow groups the validated job table into its execution plan:
// flows in ascending flow-id order, each preserving the input row order of
// its jobs as the dispatch priority.
package flow

import (
	"sort"

	"github.com/vk/flowrungo/internal/model"
)

// Flow is one ordered group of jobs sharing a flow id.
type Flow struct {
	ID      int
	Records []*model.JobRecord
}

// Partition groups records by flow id. Flows come back in ascending id
// order; within a flow, records keep their input order. Records are assumed
// validated by the loader. An empty input yields an empty plan.
func Partition(records []*model.JobRecord) []Flow {
	byID := make(map[int][]*model.JobRecord)
	ids := make([]int, 0)
	for _, rec := range records {
		if _, seen := byID[rec.FlowID]; !seen {
			ids = append(ids, rec.FlowID)
		}
		byID[rec.FlowID] = append(byID[rec.FlowID], rec)
	}
	sort.Ints(ids)

	flows := make([]Flow, 0, len(ids))
	for _, id := range ids {
		flows = append(flows, Flow{ID: id, Records: byID[id]})
	}
	return flows
}
