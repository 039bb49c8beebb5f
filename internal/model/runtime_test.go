package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlowState(n int) *FlowState {
	fs := &FlowState{FlowID: 1}
	for i := 0; i < n; i++ {
		fs.Jobs = append(fs.Jobs, &JobRuntimeState{
			Record: &JobRecord{FlowID: 1, Name: "j", ProgramPath: "/jobs/j"},
			Status: StatusPending,
		})
	}
	return fs
}

func TestFlowState_Counters(t *testing.T) {
	fs := newFlowState(2)
	assert.False(t, fs.Done())

	fs.MarkDispatched(fs.Jobs[0], "/jobs/1")
	assert.Equal(t, 1, fs.Concurrency)
	assert.Equal(t, StatusDispatched, fs.Jobs[0].Status)
	assert.Equal(t, "/jobs/1", fs.Jobs[0].HandleURI)

	fs.MarkCompleted(fs.Jobs[0])
	assert.Equal(t, 0, fs.Concurrency)
	assert.Equal(t, 1, fs.CompletedCount)
	assert.False(t, fs.Done())

	fs.MarkDispatched(fs.Jobs[1], "/jobs/2")
	fs.MarkCompleted(fs.Jobs[1])
	assert.True(t, fs.Done())
}

func TestFlowState_DoubleDispatchPanics(t *testing.T) {
	fs := newFlowState(1)
	fs.MarkDispatched(fs.Jobs[0], "/jobs/1")
	require.Panics(t, func() { fs.MarkDispatched(fs.Jobs[0], "/jobs/1") })
}

func TestFlowState_CompletingUndispatchedJobPanics(t *testing.T) {
	fs := newFlowState(1)
	require.Panics(t, func() { fs.MarkCompleted(fs.Jobs[0]) })
}

func TestFlowState_CompletedIsTerminal(t *testing.T) {
	fs := newFlowState(1)
	fs.MarkDispatched(fs.Jobs[0], "/jobs/1")
	fs.MarkCompleted(fs.Jobs[0])
	require.Panics(t, func() { fs.MarkCompleted(fs.Jobs[0]) })
	require.Panics(t, func() { fs.MarkDispatched(fs.Jobs[0], "/jobs/1") })
}

func TestJobStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "dispatched", StatusDispatched.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Panics(t, func() { _ = JobStatus(42).String() })
}
