package model

import (
	"github.com/zclconf/go-cty/cty"
)

// DefaultContext is substituted when a job block leaves its execution
// context blank.
const DefaultContext = "default execution context"

// Param is one extra key/value parameter of a job record. Parameters keep
// their source order from the job-table file, so a slice of pairs is used
// instead of a map.
type Param struct {
	Key   string
	Value cty.Value
}

// JobRecord is one row of the input job table. It is immutable once loaded.
type JobRecord struct {
	// FlowID assigns the record to a flow. Flows execute in ascending
	// FlowID order, one after another.
	FlowID int

	// Name is the human-readable label of the job block.
	Name string

	// Context is the remote execution context the job runs under.
	Context string

	// ProgramPath points at the program the remote service should run.
	ProgramPath string

	// ExtraParams holds every attribute of the record's params block, in
	// source order. The three control fields above never appear here.
	ExtraParams []Param

	// Source records where the block was declared, for error messages.
	Source string
}
