package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	workflowmodels "versify/internal/domain/models/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPool spins up a disposable postgres container seeded with
// testdata/schema.sql, grounded in codeready-toolchain-tarsy's
// test/util/database.go testcontainers setup (same postgres.Run +
// WithInitScripts + log-based wait strategy, generalized from ent's
// schema migration to this package's plain SQL fixture).
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("versify_test"),
		postgres.WithUsername("versify"),
		postgres.WithPassword("versify"),
		postgres.WithInitScripts("testdata/schema.sql"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	return pool
}

func TestRepository_GetPoemAndCreateTranslationRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	tables := NewTableNames("")
	repo := NewRepository(pool, tables, discardLogger())

	_, err := pool.Exec(ctx,
		`INSERT INTO poems (id, original_text, source_language, title, poet_name) VALUES ($1, $2, $3, $4, $5)`,
		"poem-1", "床前明月光", "Chinese", "静夜思", "李白",
	)
	require.NoError(t, err)

	poem, err := repo.GetPoem(ctx, "poem-1")
	require.NoError(t, err)
	require.Equal(t, "床前明月光", poem.OriginalText)
	require.Equal(t, "静夜思", poem.Title)

	_, err = repo.GetPoem(ctx, "missing")
	require.Error(t, err)

	translation := &workflowmodels.TranslationArtifact{
		PoemID:             "poem-1",
		SourceLang:         "Chinese",
		TargetLang:         "English",
		FinalText:          "Bright moonlight before my bed",
		TranslatedTitle:    "Quiet Night Thoughts",
		TranslatedPoetName: "Li Bai",
		TranslatorType:     "llm",
		TranslatorInfo:     "anthropic:claude-haiku-4-5-20251001",
	}
	require.NoError(t, repo.CreateTranslation(ctx, translation))
	require.NotEmpty(t, translation.ID)
	require.False(t, translation.CreatedAt.IsZero())

	promptTokens, completionTokens := 120, 80
	aiLog := &workflowmodels.AiLogRow{
		TranslationID:  translation.ID,
		ModelName:      "claude-haiku-4-5-20251001",
		Mode:           workflowmodels.ModeNonReasoning,
		TokenUsageJSON: `{"prompt":120,"completion":80}`,
		CostInfoJSON:   `{"usd":0.002}`,
		RuntimeSeconds: 4.2,
		Notes:          "integration test",
	}
	require.NoError(t, repo.CreateAiLog(ctx, aiLog))
	require.NotEmpty(t, aiLog.ID)

	step := &workflowmodels.WorkflowStepRow{
		TranslationID:      translation.ID,
		AiLogID:            aiLog.ID,
		StepOrder:          1,
		StepType:           workflowmodels.StepInitialTranslation,
		Content:            "Moonlight before my bed",
		ModelInfoJSON:      `{"provider":"anthropic","model":"claude-haiku-4-5-20251001"}`,
		TokensUsed:         200,
		PromptTokens:       &promptTokens,
		CompletionTokens:   &completionTokens,
		DurationSeconds:    1.1,
		TranslatedTitle:    "Quiet Night Thoughts",
		TranslatedPoetName: "Li Bai",
	}
	require.NoError(t, repo.CreateWorkflowStep(ctx, step))
	require.NotEmpty(t, step.ID)
	require.False(t, step.Timestamp.IsZero())
}
