package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/flowrungo/internal/ctxlog"
	"github.com/vk/flowrungo/internal/flow"
	"github.com/vk/flowrungo/internal/jobservice"
	"github.com/vk/flowrungo/internal/model"
	"github.com/vk/flowrungo/internal/paramenc"
)

// DefaultMaxConcurrency is the per-flow dispatch ceiling when none is
// configured.
const DefaultMaxConcurrency = 8

// DispatchError reports that the execution call failed for a specific job.
// It aborts the whole run; dispatch is never retried.
type DispatchError struct {
	ProgramPath string
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatching %s: %v", e.ProgramPath, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Progress is a point-in-time snapshot of a flow's execution, delivered to
// the optional progress callback after every phase that changes counts.
type Progress struct {
	FlowID     int
	Total      int
	Dispatched int
	Completed  int
}

// Scheduler executes flows one at a time. It is not safe for concurrent use;
// the run loop owns it.
type Scheduler struct {
	client         jobservice.Client
	maxConcurrency int

	// onProgress, when set, observes flow progress. It must not block.
	onProgress func(Progress)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithProgress installs a progress observer.
func WithProgress(fn func(Progress)) Option {
	return func(s *Scheduler) { s.onProgress = fn }
}

// New builds a Scheduler dispatching through client with the given
// concurrency ceiling.
func New(client jobservice.Client, maxConcurrency int, opts ...Option) (*Scheduler, error) {
	if client == nil {
		return nil, fmt.Errorf("scheduler: client must not be nil")
	}
	if maxConcurrency <= 0 {
		return nil, fmt.Errorf("scheduler: max concurrency must be positive, got %d", maxConcurrency)
	}
	s := &Scheduler{client: client, maxConcurrency: maxConcurrency}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunFlow executes every job of fl to its terminal state and returns their
// result rows in the order completions were observed. On any error the
// flow's partial results are discarded.
func (s *Scheduler) RunFlow(ctx context.Context, fl flow.Flow) ([]model.JobResult, error) {
	ctx = ctxlog.With(ctx, "flow", fl.ID)
	logger := ctxlog.FromContext(ctx)

	state, err := newFlowState(fl)
	if err != nil {
		return nil, err
	}
	logger.Info("Flow starting.", "jobs", len(state.Jobs), "maxConcurrency", s.maxConcurrency)

	results := make([]model.JobResult, 0, len(state.Jobs))
	phase := phaseIdle
	logger.Debug("Flow state initialized.", "phase", phase.String())

	for !state.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		phase = phaseAdmitting
		logger.Debug("Admitting pending jobs.", "phase", phase.String(), "outstanding", state.Concurrency)
		if err := s.admit(ctx, state); err != nil {
			return nil, err
		}
		s.reportProgress(state)

		phase = phasePolling
		logger.Debug("Waiting for outstanding jobs.", "phase", phase.String(), "outstanding", state.Concurrency)
		terminal, err := s.client.WaitForAny(ctx, dispatchedHandles(state))
		if err != nil {
			return nil, fmt.Errorf("waiting for flow %d jobs: %w", fl.ID, err)
		}

		phase = phaseDraining
		drained, err := s.drain(ctx, state, terminal, &results)
		if err != nil {
			return nil, err
		}
		logger.Debug("Wave drained.", "phase", phase.String(), "drained", drained,
			"completed", state.CompletedCount, "remaining", len(state.Jobs)-state.CompletedCount)
		s.reportProgress(state)
	}

	phase = phaseDone
	logger.Info("Flow finished.", "phase", phase.String(), "results", len(results))
	return results, nil
}

// newFlowState builds the runtime table for a flow, computing each job's
// parameter string exactly once.
func newFlowState(fl flow.Flow) (*model.FlowState, error) {
	state := &model.FlowState{FlowID: fl.ID, Jobs: make([]*model.JobRuntimeState, 0, len(fl.Records))}
	for _, rec := range fl.Records {
		paramString, err := paramenc.Encode(rec.ExtraParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Source, err)
		}
		state.Jobs = append(state.Jobs, &model.JobRuntimeState{
			Record:      rec,
			ParamString: paramString,
			Status:      model.StatusPending,
		})
	}
	return state, nil
}

// admit performs one full admission scan: every pending job, in priority
// order, is dispatched while capacity remains. The scan always reaches the
// end of the job list so that a later pending job can claim capacity freed
// by an earlier completion.
func (s *Scheduler) admit(ctx context.Context, state *model.FlowState) error {
	logger := ctxlog.FromContext(ctx)
	for _, js := range state.Jobs {
		if state.Concurrency >= s.maxConcurrency {
			return nil
		}
		if js.Status != model.StatusPending {
			continue
		}

		handle, err := s.client.Execute(ctx, jobservice.ExecuteSpec{
			Path:        js.Record.ProgramPath,
			Name:        js.Record.Name,
			Context:     js.Record.Context,
			ParamString: js.ParamString,
		})
		if err != nil {
			return &DispatchError{ProgramPath: js.Record.ProgramPath, Err: err}
		}
		state.MarkDispatched(js, handle.URI)
		logger.Debug("Job dispatched.", "job", js.Record.Name, "uri", handle.URI,
			"monitor", handle.MonitorLink, "outstanding", state.Concurrency)
	}
	return nil
}

// drain applies the terminal statuses reported by a poll: each matching job
// is marked completed and its result row appended in arrival order.
func (s *Scheduler) drain(ctx context.Context, state *model.FlowState, terminal []jobservice.HandleStatus, results *[]model.JobResult) (int, error) {
	logger := ctxlog.FromContext(ctx)

	byURI := make(map[string]*model.JobRuntimeState, state.Concurrency)
	for _, js := range state.Jobs {
		if js.Status == model.StatusDispatched {
			byURI[js.HandleURI] = js
		}
	}

	drained := 0
	for _, st := range terminal {
		js, ok := byURI[st.URI]
		if !ok {
			// The service answered for a handle we are not waiting on.
			// Nothing of ours is lost, so log and move on.
			logger.Warn("Ignoring terminal state for unknown handle.", "uri", st.URI, "state", string(st.State))
			continue
		}
		state.MarkCompleted(js)
		delete(byURI, st.URI)
		*results = append(*results, model.JobResult{
			ProgramPath: js.Record.ProgramPath,
			HandleURI:   js.HandleURI,
			State:       string(st.State),
			Timestamp:   st.Timestamp,
			ParamString: js.ParamString,
			FlowID:      state.FlowID,
		})
		logger.Debug("Job completed.", "job", js.Record.Name, "uri", st.URI, "state", string(st.State))
		drained++
	}

	if drained == 0 {
		return 0, fmt.Errorf("flow %d: wait returned %d statuses but none matched an outstanding handle",
			state.FlowID, len(terminal))
	}
	return drained, nil
}

// dispatchedHandles lists the handles currently outstanding, in job order.
func dispatchedHandles(state *model.FlowState) []string {
	handles := make([]string, 0, state.Concurrency)
	for _, js := range state.Jobs {
		if js.Status == model.StatusDispatched {
			handles = append(handles, js.HandleURI)
		}
	}
	return handles
}

// reportProgress delivers a snapshot to the observer, when one is set.
func (s *Scheduler) reportProgress(state *model.FlowState) {
	if s.onProgress == nil {
		return
	}
	s.onProgress(Progress{
		FlowID:     state.FlowID,
		Total:      len(state.Jobs),
		Dispatched: state.Concurrency,
		Completed:  state.CompletedCount,
	})
}
