package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workflowmodels "versify/internal/domain/models/workflow"
)

func newTestRecord(taskID string) *workflowmodels.TaskRecord {
	return &workflowmodels.TaskRecord{
		TaskID:    taskID,
		Status:    workflowmodels.TaskPending,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := New(time.Hour)

	ok := r.Create(newTestRecord("t1"))
	require.True(t, ok)

	rec := r.Get("t1")
	require.NotNil(t, rec)
	assert.Equal(t, "t1", rec.TaskID)
	assert.Equal(t, workflowmodels.TaskPending, rec.Status)
}

func TestRegistry_CreateRejectsDuplicateID(t *testing.T) {
	r := New(time.Hour)
	require.True(t, r.Create(newTestRecord("t1")))
	assert.False(t, r.Create(newTestRecord("t1")))
}

func TestRegistry_GetUnknownReturnsNil(t *testing.T) {
	r := New(time.Hour)
	assert.Nil(t, r.Get("missing"))
}

func TestRegistry_UpdateStepPreservesOtherKeys(t *testing.T) {
	r := New(time.Hour)
	r.Create(newTestRecord("t1"))

	r.UpdateStep("t1", "initial_translation", workflowmodels.StepRunning)
	r.UpdateStep("t1", "editor_review", workflowmodels.StepPending)

	rec := r.Get("t1")
	require.Len(t, rec.StepStates, 2)
	assert.Equal(t, workflowmodels.StepRunning, rec.StepStates["initial_translation"])
	assert.Equal(t, workflowmodels.StepPending, rec.StepStates["editor_review"])

	r.UpdateStep("t1", "initial_translation", workflowmodels.StepCompleted)
	rec = r.Get("t1")
	assert.Equal(t, workflowmodels.StepCompleted, rec.StepStates["initial_translation"])
	assert.Equal(t, workflowmodels.StepPending, rec.StepStates["editor_review"])
}

func TestRegistry_UpdateProgressNeverRegresses(t *testing.T) {
	r := New(time.Hour)
	r.Create(newTestRecord("t1"))

	r.UpdateProgress("t1", 50, "editor_review")
	r.UpdateProgress("t1", 20, "initial_translation")

	rec := r.Get("t1")
	assert.Equal(t, 50, rec.ProgressPercent)
	assert.Equal(t, "initial_translation", rec.CurrentStepName)
}

func TestRegistry_TerminalStateIsAbsorbing(t *testing.T) {
	r := New(time.Hour)
	r.Create(newTestRecord("t1"))

	r.Finish("t1", &workflowmodels.WorkflowResult{TaskID: "t1"}, nil, workflowmodels.TaskCompleted)
	r.UpdateStatus("t1", workflowmodels.TaskRunning)
	r.UpdateProgress("t1", 99, "ignored")

	rec := r.Get("t1")
	assert.Equal(t, workflowmodels.TaskCompleted, rec.Status)
	assert.NotNil(t, rec.FinishedAt)
}

func TestRegistry_FinishIsIdempotent(t *testing.T) {
	r := New(time.Hour)
	r.Create(newTestRecord("t1"))

	r.Finish("t1", nil, &workflowmodels.TaskError{Kind: "first", Message: "m1"}, workflowmodels.TaskFailed)
	firstFinishedAt := r.Get("t1").FinishedAt

	r.Finish("t1", nil, &workflowmodels.TaskError{Kind: "second", Message: "m2"}, workflowmodels.TaskCancelled)

	rec := r.Get("t1")
	assert.Equal(t, workflowmodels.TaskFailed, rec.Status)
	assert.Equal(t, "first", rec.Error.Kind)
	assert.Equal(t, *firstFinishedAt, *rec.FinishedAt)
}

func TestRegistry_CancelRequested(t *testing.T) {
	r := New(time.Hour)
	r.Create(newTestRecord("t1"))

	assert.False(t, r.IsCancelRequested("t1"))
	ok := r.SetCancelRequested("t1")
	assert.True(t, ok)
	assert.True(t, r.IsCancelRequested("t1"))

	r.Finish("t1", nil, nil, workflowmodels.TaskCancelled)
	ok = r.SetCancelRequested("t1")
	assert.False(t, ok, "cannot request cancellation on a terminal task")
}

func TestRegistry_ListFiltersByStatus(t *testing.T) {
	r := New(time.Hour)
	r.Create(newTestRecord("running"))
	r.Create(newTestRecord("done"))
	r.UpdateStatus("running", workflowmodels.TaskRunning)
	r.Finish("done", nil, nil, workflowmodels.TaskCompleted)

	running := workflowmodels.TaskRunning
	results := r.List(Filter{Status: &running})
	require.Len(t, results, 1)
	assert.Equal(t, "running", results[0].TaskID)

	assert.Len(t, r.List(Filter{}), 2)
}

func TestRegistry_GCRemovesOnlyStaleTerminalTasks(t *testing.T) {
	r := New(time.Minute)
	r.Create(newTestRecord("stale"))
	r.Create(newTestRecord("fresh"))
	r.Create(newTestRecord("pending"))

	r.Finish("stale", nil, nil, workflowmodels.TaskCompleted)
	r.Finish("fresh", nil, nil, workflowmodels.TaskCompleted)

	removed := r.GC(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 2, removed, "both terminal tasks are stale relative to a +2m clock")

	assert.Nil(t, r.Get("stale"))
	assert.Nil(t, r.Get("fresh"))
	assert.NotNil(t, r.Get("pending"), "non-terminal tasks are never collected")
}

func TestRegistry_StartCleanupStopsOnContextCancel(t *testing.T) {
	r := New(time.Millisecond)
	r.Create(newTestRecord("t1"))
	r.Finish("t1", nil, nil, workflowmodels.TaskCompleted)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.StartCleanup(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return r.Count() == 0
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartCleanup did not exit after context cancellation")
	}
}

func TestRegistry_LRUEvictsUnderCapacityPressure(t *testing.T) {
	r := NewWithCapacity(time.Hour, 2, nil)

	require.True(t, r.Create(newTestRecord("t1")))
	require.True(t, r.Create(newTestRecord("t2")))
	require.True(t, r.Create(newTestRecord("t3")))

	assert.Equal(t, 2, r.Count(), "capacity of 2 evicts the oldest entry regardless of TTL")
	assert.Nil(t, r.Get("t1"), "t1 was the least recently used when t3 was added")
	assert.NotNil(t, r.Get("t2"))
	assert.NotNil(t, r.Get("t3"))
}
