package model

import "time"

// JobResult is one row of the run's output table, produced exactly once per
// JobRecord when the remote service reports it terminal.
type JobResult struct {
	ProgramPath string    `json:"program_path"`
	HandleURI   string    `json:"handle_uri"`
	State       string    `json:"state"`
	Timestamp   time.Time `json:"timestamp"`
	ParamString string    `json:"param_string"`
	FlowID      int       `json:"flow_id"`
}
