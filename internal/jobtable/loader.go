// Package jobtable loads and validates the input job table from HCL files.
// It translates the raw schema blocks into model.JobRecord values, applying
// defaults and rejecting malformed rows before anything is dispatched.
package jobtable

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowrungo/internal/ctxlog"
	"github.com/vk/flowrungo/internal/fsutil"
	"github.com/vk/flowrungo/internal/model"
	"github.com/vk/flowrungo/internal/schema"
)

// jobFileExtension is the suffix job-table files must carry when a directory
// is given.
const jobFileExtension = ".hcl"

// ValidationError reports malformed job-table input. The run aborts before
// any job is dispatched when one is returned.
type ValidationError struct {
	// Source names the offending file, and where known the job block.
	Source string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job table: %s: %s", e.Source, e.Detail)
}

// Loader parses job-table files into model records.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader returns a Loader ready for use.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every job-table file under path (a single .hcl file or a
// directory searched recursively) and returns the validated records in
// declaration order. An input with no job blocks at all is legal and yields
// an empty slice; the caller treats it as a no-op run.
func (l *Loader) Load(ctx context.Context, path string) ([]*model.JobRecord, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.CollectFiles(path, jobFileExtension)
	if err != nil {
		return nil, fmt.Errorf("locating job-table files: %w", err)
	}
	logger.Debug("Collected job-table files.", "path", path, "count", len(files))

	var records []*model.JobRecord
	for _, file := range files {
		fileRecords, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}
	logger.Debug("Job table loaded.", "records", len(records))
	return records, nil
}

// loadFile parses one file and translates its job blocks.
func (l *Loader) loadFile(file string) ([]*model.JobRecord, error) {
	hclFile, diags := l.parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, &ValidationError{Source: file, Detail: diags.Error()}
	}

	var table schema.JobTable
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &table); diags.HasErrors() {
		return nil, &ValidationError{Source: file, Detail: diags.Error()}
	}

	records := make([]*model.JobRecord, 0, len(table.Jobs))
	for _, job := range table.Jobs {
		rec, err := l.translateJob(file, job)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// translateJob converts a decoded job block into a model record, applying
// the context default and extracting the params block in source order.
func (l *Loader) translateJob(file string, job *schema.Job) (*model.JobRecord, error) {
	source := fmt.Sprintf("%s: job %q", file, job.Name)

	if job.Program == "" {
		return nil, &ValidationError{Source: source, Detail: "program must not be empty"}
	}

	execContext := job.Context
	if execContext == "" {
		execContext = model.DefaultContext
	}

	params, err := extractParams(source, job.Params)
	if err != nil {
		return nil, err
	}

	return &model.JobRecord{
		FlowID:      job.Flow,
		Name:        job.Name,
		Context:     execContext,
		ProgramPath: job.Program,
		ExtraParams: params,
		Source:      source,
	}, nil
}

// extractParams evaluates every attribute of the params block and orders
// them by source position, which makes the record's parameter order (and
// therefore its encoded argument string) deterministic across runs.
func extractParams(source string, block *schema.ParamsBlock) ([]model.Param, error) {
	if block == nil {
		return nil, nil
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, &ValidationError{Source: source, Detail: diags.Error()}
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	params := make([]model.Param, 0, len(ordered))
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, &ValidationError{Source: source, Detail: diags.Error()}
		}
		params = append(params, model.Param{Key: attr.Name, Value: val})
	}
	return params, nil
}
