package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowrungo/internal/ctxlog"
	"github.com/vk/flowrungo/internal/flow"
	"github.com/vk/flowrungo/internal/jobservice"
	"github.com/vk/flowrungo/internal/model"
	"github.com/vk/flowrungo/internal/testutil"
)

func makeFlow(id int, n int) flow.Flow {
	fl := flow.Flow{ID: id}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("job%d", i)
		fl.Records = append(fl.Records, &model.JobRecord{
			FlowID:      id,
			Name:        name,
			Context:     model.DefaultContext,
			ProgramPath: "/jobs/" + name,
			Source:      "test: job " + name,
		})
	}
	return fl
}

func TestNew_RejectsBadArguments(t *testing.T) {
	_, err := New(nil, 4)
	require.Error(t, err)

	_, err = New(testutil.NewFakeJobService(), 0)
	require.Error(t, err)

	_, err = New(testutil.NewFakeJobService(), -3)
	require.Error(t, err)
}

func TestRunFlow_CompletesEveryJob(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 4)
	require.NoError(t, err)

	results, err := sched.RunFlow(context.Background(), makeFlow(1, 10))
	require.NoError(t, err)

	assert.Len(t, results, 10)
	for _, r := range results {
		assert.Equal(t, 1, r.FlowID)
		assert.Equal(t, "completed", r.State)
		assert.NotEmpty(t, r.HandleURI)
		assert.False(t, r.Timestamp.IsZero())
	}
}

func TestRunFlow_NeverExceedsConcurrencyCeiling(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 4)
	require.NoError(t, err)

	_, err = sched.RunFlow(context.Background(), makeFlow(1, 20))
	require.NoError(t, err)

	assert.Equal(t, 4, fake.MaxOutstanding())
}

func TestRunFlow_DispatchesEachJobExactlyOnce(t *testing.T) {
	fake := testutil.NewFakeJobService()
	// Completing three per wait frees capacity in bursts, which would expose
	// a scheduler that re-dispatches jobs it already admitted.
	fake.CompletePerWait = 3
	sched, err := New(fake, 5)
	require.NoError(t, err)

	fl := makeFlow(1, 17)
	_, err = sched.RunFlow(context.Background(), fl)
	require.NoError(t, err)

	for _, rec := range fl.Records {
		assert.Equal(t, 1, fake.ExecuteCount(rec.ProgramPath, rec.Name),
			"job %s must be dispatched exactly once", rec.Name)
	}
}

func TestRunFlow_DispatchFollowsPriorityOrder(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 2)
	require.NoError(t, err)

	fl := makeFlow(1, 6)
	_, err = sched.RunFlow(context.Background(), fl)
	require.NoError(t, err)

	executed := fake.Executed()
	require.Len(t, executed, 6)
	for i, spec := range executed {
		assert.Equal(t, fl.Records[i].ProgramPath, spec.Path)
	}
}

// Two jobs, ceiling of one: the second dispatch must strictly follow the
// first job's observed completion.
func TestRunFlow_SerialWhenCeilingIsOne(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 1)
	require.NoError(t, err)

	_, err = sched.RunFlow(context.Background(), makeFlow(1, 2))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"execute /jobs/job0",
		"complete /jobs/1",
		"execute /jobs/job1",
		"complete /jobs/2",
	}, fake.Events())
	assert.Equal(t, 1, fake.MaxOutstanding())
}

func TestRunFlow_ResultsArriveInCompletionOrder(t *testing.T) {
	fake := testutil.NewFakeJobService()
	fake.CompletePerWait = 2
	sched, err := New(fake, 8)
	require.NoError(t, err)

	results, err := sched.RunFlow(context.Background(), makeFlow(3, 7))
	require.NoError(t, err)

	uris := make([]string, 0, len(results))
	for _, r := range results {
		uris = append(uris, r.HandleURI)
	}
	assert.Equal(t, fake.CompletionOrder(), uris)
}

func TestRunFlow_PassesContextAndParams(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 8)
	require.NoError(t, err)

	fl := flow.Flow{ID: 1, Records: []*model.JobRecord{{
		FlowID:      1,
		Name:        "report",
		Context:     "nightly batch",
		ProgramPath: "/jobs/report",
		ExtraParams: []model.Param{
			{Key: "day", Value: cty.StringVal("monday")},
			{Key: "rows", Value: cty.NumberIntVal(42)},
		},
	}}}

	results, err := sched.RunFlow(context.Background(), fl)
	require.NoError(t, err)

	executed := fake.Executed()
	require.Len(t, executed, 1)
	assert.Equal(t, "nightly batch", executed[0].Context)
	assert.Equal(t, `{"day":"monday","rows":42}`, executed[0].ParamString)
	assert.Equal(t, `{"day":"monday","rows":42}`, results[0].ParamString)
}

func TestRunFlow_DispatchFailureIsFatal(t *testing.T) {
	fake := testutil.NewFakeJobService()
	boom := errors.New("service said no")
	fake.ExecuteErrFor = map[string]error{"/jobs/job3": boom}
	sched, err := New(fake, 2)
	require.NoError(t, err)

	_, err = sched.RunFlow(context.Background(), makeFlow(1, 6))
	require.Error(t, err)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "/jobs/job3", derr.ProgramPath)
	assert.ErrorIs(t, err, boom)

	// No retry: the failing job was attempted exactly once.
	assert.Equal(t, 1, fake.ExecuteCount("/jobs/job3", "job3"))
}

func TestRunFlow_FailedRemoteStateStillProducesResult(t *testing.T) {
	fake := testutil.NewFakeJobService()
	fake.TerminalState = jobservice.StateFailed
	sched, err := New(fake, 4)
	require.NoError(t, err)

	results, err := sched.RunFlow(context.Background(), makeFlow(1, 3))
	require.NoError(t, err)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "failed", r.State)
	}
}

func TestRunFlow_EmptyFlowIsImmediatelyDone(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 4)
	require.NoError(t, err)

	results, err := sched.RunFlow(context.Background(), flow.Flow{ID: 9})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, fake.WaitCalls())
}

func TestRunFlow_CanceledContextStopsTheLoop(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sched.RunFlow(ctx, makeFlow(1, 5))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunFlow_DebugLogsTraceEveryPhase(t *testing.T) {
	fake := testutil.NewFakeJobService()
	sched, err := New(fake, 2)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs,
		&slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err = sched.RunFlow(ctx, makeFlow(4, 3))
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "flow=4")
	for _, phase := range []string{"admitting", "polling", "draining", "done"} {
		assert.Contains(t, out, "phase="+phase)
	}
}

func TestRunFlow_ProgressSnapshotsRespectCeiling(t *testing.T) {
	fake := testutil.NewFakeJobService()
	var snapshots []Progress
	sched, err := New(fake, 3, WithProgress(func(p Progress) {
		snapshots = append(snapshots, p)
	}))
	require.NoError(t, err)

	_, err = sched.RunFlow(context.Background(), makeFlow(2, 9))
	require.NoError(t, err)

	require.NotEmpty(t, snapshots)
	for _, p := range snapshots {
		assert.LessOrEqual(t, p.Dispatched, 3)
		assert.Equal(t, 2, p.FlowID)
		assert.Equal(t, 9, p.Total)
	}
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, 9, last.Completed)
	assert.Equal(t, 0, last.Dispatched)
}
