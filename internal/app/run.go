package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/flowrungo/internal/ctxlog"
	"github.com/vk/flowrungo/internal/flow"
	"github.com/vk/flowrungo/internal/model"
	"github.com/vk/flowrungo/internal/results"
	"github.com/vk/flowrungo/internal/scheduler"
)

// Run executes the whole batch: load and validate the job table, partition
// it into flows, run every flow to completion in order, and write the
// aggregated result table.
//
// When a flow aborts mid-run, the results of flows that already finished are
// still written before the error is returned.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	started := time.Now()

	if a.config.StatusPort > 0 {
		a.startStatusServer(a.config.StatusPort)
	}

	records, err := a.loader.Load(ctx, a.config.JobsPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.logger.Warn("Job table is empty, nothing to run.", "path", a.config.JobsPath)
		return a.writeOutput(nil)
	}

	flows := flow.Partition(records)
	a.logger.Info("Job table partitioned.", "jobs", len(records), "flows", len(flows))
	a.status.begin(len(flows), len(records))
	defer a.status.finish()

	sched, err := scheduler.New(a.client, a.config.MaxConcurrency, scheduler.WithProgress(a.status.observe))
	if err != nil {
		return err
	}

	agg := results.NewAggregator()
	for _, fl := range flows {
		flowResults, err := sched.RunFlow(ctx, fl)
		if err != nil {
			a.logger.Error("Flow aborted, stopping the run.", "flow", fl.ID, "retainedResults", agg.Len(), "error", err)
			if agg.Len() > 0 {
				if werr := a.writeOutput(agg.Rows()); werr != nil {
					a.logger.Error("Failed to write retained results.", "error", werr)
				}
			}
			return fmt.Errorf("flow %d: %w", fl.ID, err)
		}
		agg.AppendFlow(flowResults)
		a.status.flowDone(len(flowResults))
	}

	if err := a.writeOutput(agg.Rows()); err != nil {
		return err
	}
	a.logger.Info("Run finished.", "jobs", agg.Len(), "flows", len(flows),
		"output", a.config.OutputPath, "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// writeOutput writes the result table in the configured format.
func (a *App) writeOutput(rows []model.JobResult) error {
	format, err := results.ParseFormat(a.config.OutputFormat)
	if err != nil {
		return err
	}
	if err := results.WriteFile(a.config.OutputPath, format, rows); err != nil {
		return err
	}
	a.logger.Debug("Output table written.", "path", a.config.OutputPath, "format", string(format), "rows", len(rows))
	return nil
}
