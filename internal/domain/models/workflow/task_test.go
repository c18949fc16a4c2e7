package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_IsTerminal(t *testing.T) {
	cases := map[TaskStatus]bool{
		TaskPending:   false,
		TaskRunning:   false,
		TaskCompleted: true,
		TaskFailed:    true,
		TaskCancelled: true,
	}
	for status, want := range cases {
		assert.Equal(t, want, status.IsTerminal(), "status %s", status)
	}
}

func TestProgressEventKind_IsTerminal(t *testing.T) {
	cases := map[ProgressEventKind]bool{
		EventHeartbeat:     false,
		EventStepFailed:    false,
		EventTaskCompleted: true,
		EventTaskFailed:    true,
		EventTaskCancelled: true,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.IsTerminal(), "kind %s", kind)
	}
}

func TestTaskRecord_CancelRequestedRoundTrips(t *testing.T) {
	tr := &TaskRecord{}
	assert.False(t, tr.CancelRequested())
	tr.SetCancelRequested(true)
	assert.True(t, tr.CancelRequested())
}

func TestTaskError_ErrorFormatsKindAndMessage(t *testing.T) {
	err := &TaskError{Kind: "validation", Message: "bad input"}
	assert.Equal(t, "validation: bad input", err.Error())
}

func TestTaskRecord_Clone_CopiesMutableFieldsIndependently(t *testing.T) {
	finishedAt := time.Now()
	original := &TaskRecord{
		TaskID:     "task-1",
		Status:     TaskCompleted,
		StepStates: map[string]StepStatus{"initial_translation": StepCompleted},
		Warnings:   []string{"slow provider"},
		FinishedAt: &finishedAt,
	}

	clone := original.Clone()
	clone.StepStates["initial_translation"] = StepFailed
	clone.Warnings[0] = "mutated"

	assert.Equal(t, StepCompleted, original.StepStates["initial_translation"])
	assert.Equal(t, "slow provider", original.Warnings[0])
	assert.Equal(t, original.TaskID, clone.TaskID)
}

func TestTaskRecord_Clone_NilReceiverReturnsNil(t *testing.T) {
	var tr *TaskRecord
	assert.Nil(t, tr.Clone())
}
