package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedPoem(t *testing.T, repo *Repository, id string) *workflowmodels.Poem {
	t.Helper()
	poem := &workflowmodels.Poem{
		ID:             id,
		OriginalText:   "Roses are red",
		SourceLanguage: "en",
		Title:          "Untitled",
		PoetName:       "Anonymous",
	}
	require.NoError(t, repo.SeedPoem(context.Background(), poem))
	return poem
}

func TestRepository_GetPoem_ReturnsSeededRow(t *testing.T) {
	repo := newTestRepo(t)
	seedPoem(t, repo, "poem-1")

	got, err := repo.GetPoem(context.Background(), "poem-1")
	require.NoError(t, err)
	assert.Equal(t, "Roses are red", got.OriginalText)
	assert.Equal(t, "en", got.SourceLanguage)
}

func TestRepository_GetPoem_UnknownIDReturnsNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetPoem(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRepository_CreateTranslation_AssignsGeneratedID(t *testing.T) {
	repo := newTestRepo(t)
	seedPoem(t, repo, "poem-1")

	artifact := &workflowmodels.TranslationArtifact{
		PoemID:             "poem-1",
		SourceLang:         "en",
		TargetLang:         "fr",
		TranslatorType:     "llm",
		FinalText:          "Les roses sont rouges",
		TranslatedTitle:    "Sans titre",
		TranslatedPoetName: "Anonyme",
	}
	require.NoError(t, repo.CreateTranslation(context.Background(), artifact))
	assert.NotEmpty(t, artifact.ID)
}

func TestRepository_CreateAiLogAndWorkflowStep_LinkToTranslation(t *testing.T) {
	repo := newTestRepo(t)
	seedPoem(t, repo, "poem-1")

	artifact := &workflowmodels.TranslationArtifact{
		PoemID:     "poem-1",
		SourceLang: "en",
		TargetLang: "fr",
		FinalText:  "Les roses sont rouges",
	}
	require.NoError(t, repo.CreateTranslation(context.Background(), artifact))

	aiLog := &workflowmodels.AiLogRow{
		TranslationID: artifact.ID,
		ModelName:     "claude-haiku-4-5-20251001",
		Mode:          workflowmodels.ModeNonReasoning,
	}
	require.NoError(t, repo.CreateAiLog(context.Background(), aiLog))
	assert.NotEmpty(t, aiLog.ID)

	step := &workflowmodels.WorkflowStepRow{
		TranslationID: artifact.ID,
		AiLogID:       aiLog.ID,
		StepOrder:     1,
		StepType:      workflowmodels.StepInitialTranslation,
		Content:       "draft translation",
	}
	require.NoError(t, repo.CreateWorkflowStep(context.Background(), step))
	assert.NotEmpty(t, step.ID)
}

func TestTransactionManager_ExecTx_RollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	seedPoem(t, repo, "poem-1")
	tm := NewTransactionManager(repo)

	boom := errors.New("boom")
	err := tm.ExecTx(context.Background(), func(ctx context.Context) error {
		artifact := &workflowmodels.TranslationArtifact{
			PoemID:     "poem-1",
			SourceLang: "en",
			TargetLang: "fr",
			FinalText:  "rolled back",
		}
		if err := repo.CreateTranslation(ctx, artifact); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var n int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM translations").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestTransactionManager_ExecTx_CommitsOnSuccess(t *testing.T) {
	repo := newTestRepo(t)
	seedPoem(t, repo, "poem-1")
	tm := NewTransactionManager(repo)

	var artifactID string
	err := tm.ExecTx(context.Background(), func(ctx context.Context) error {
		artifact := &workflowmodels.TranslationArtifact{
			PoemID:     "poem-1",
			SourceLang: "en",
			TargetLang: "fr",
			FinalText:  "committed",
		}
		if err := repo.CreateTranslation(ctx, artifact); err != nil {
			return err
		}
		artifactID = artifact.ID
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, artifactID)

	var n int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM translations").Scan(&n))
	assert.Equal(t, 1, n)
}
