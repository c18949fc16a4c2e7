package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workflowmodels "versify/internal/domain/models/workflow"
	sqliteworkflow "versify/internal/repository/sqlite/workflow"
	"versify/internal/workflow/langmap"
)

func newTestSink(t *testing.T) (*Sink, *sqliteworkflow.Repository) {
	t.Helper()

	repo, err := sqliteworkflow.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	txMgr := sqliteworkflow.NewTransactionManager(repo)

	langs, err := langmap.Load()
	require.NoError(t, err)

	return NewSink(repo, txMgr, langs), repo
}

func sampleResult() *workflowmodels.WorkflowResult {
	return &workflowmodels.WorkflowResult{
		TaskID: "task-1",
		Input: workflowmodels.TranslationJobInput{
			PoemID:     "poem-1",
			SourceLang: "Chinese",
			TargetLang: "English",
			Mode:       workflowmodels.ModeNonReasoning,
		},
		Mode:      workflowmodels.ModeNonReasoning,
		FinalText: "This is a complete translated poem with enough text.",
		Steps: []workflowmodels.StepResult{
			{
				Name:         "initial_translation",
				Kind:         workflowmodels.StepInitialTranslation,
				Status:       workflowmodels.StepCompleted,
				RawResponse:  "<translation>draft</translation>",
				TokensTotal:  50,
				ModelInfo:    workflowmodels.ModelInfo{Provider: "anthropic", Model: "claude-haiku-4-5-20251001"},
			},
			{
				Name:         "revised_translation",
				Kind:         workflowmodels.StepRevisedTranslation,
				Status:       workflowmodels.StepCompleted,
				RawResponse:  "<translation>final</translation>",
				TokensTotal:  60,
				ModelInfo:    workflowmodels.ModelInfo{Provider: "anthropic", Model: "claude-haiku-4-5-20251001"},
			},
		},
		TotalTokensPrompt:   80,
		TotalTokensComplete: 30,
		TotalDurationMS:     1500,
	}
}

func TestSink_PersistWritesTranslationAiLogAndSteps(t *testing.T) {
	sink, _ := newTestSink(t)

	artifact, err := sink.Persist(t.Context(), sampleResult())

	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, "zh", artifact.SourceLang, "language names are normalized to canonical codes")
	assert.Equal(t, "en", artifact.TargetLang)
	assert.Equal(t, "ai", artifact.TranslatorType)
	assert.Equal(t, "anthropic/claude-haiku-4-5-20251001", artifact.TranslatorInfo, "translator info reflects the last executed step's model")
}

func TestSink_PersistRejectsTooShortFinalText(t *testing.T) {
	sink, _ := newTestSink(t)

	result := sampleResult()
	result.FinalText = "short"

	artifact, err := sink.Persist(t.Context(), result)

	require.NoError(t, err)
	assert.Nil(t, artifact, "sub-threshold final text must be a silent no-op, not an error")
}

func TestSink_PersistLeavesRepoUsableAfterCommit(t *testing.T) {
	sink, repo := newTestSink(t)

	result := sampleResult()
	artifact, err := sink.Persist(t.Context(), result)
	require.NoError(t, err)

	// A second poem lookup through the same repo confirms the shared
	// connection survived the transaction commit.
	_, err = repo.GetPoem(t.Context(), "nonexistent")
	require.Error(t, err)
	assert.NotEmpty(t, artifact.ID)
}
