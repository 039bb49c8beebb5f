// Package schema defines the gohcl structures for the job-table file format.
// It is purely declarative; translation into the model types and all
// validation live in the jobtable loader.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// ParamsBlock captures the free-form attributes of a job's `params` block.
// The attribute names and values are passed through to the remote service
// untouched, so the body is kept raw here.
type ParamsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Job represents a `job` block from a user's job-table file: one row of the
// input job table.
//
//	job "load_customers" {
//	  flow    = 1
//	  program = "/Public/jobs/load_customers"
//	  context = "batch compute"
//	  params {
//	    region = "emea"
//	    limit  = 100
//	  }
//	}
type Job struct {
	Name    string       `hcl:"name,label"`
	Flow    int          `hcl:"flow"`
	Program string       `hcl:"program"`
	Context string       `hcl:"context,optional"`
	Params  *ParamsBlock `hcl:"params,block"`
}

// JobTable is the top-level structure of a job-table file, containing all
// job blocks declared in it.
type JobTable struct {
	Jobs []*Job   `hcl:"job,block"`
	Body hcl.Body `hcl:",remain"`
}
