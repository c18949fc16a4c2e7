package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
	workflowrepo "versify/internal/domain/repositories/workflow"
)

// Repository implements workflowrepo.Repository over postgres, following
// the teacher's PostgresChatRepository shape: one struct per concern,
// constructed with a pool + table names + logger, every query routed
// through getExecutor so it transparently joins a caller's transaction.
type Repository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewRepository creates a new postgres-backed workflow repository.
func NewRepository(pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) workflowrepo.Repository {
	return &Repository{pool: pool, tables: tables, logger: logger}
}

// GetPoem resolves a poem by id.
func (r *Repository) GetPoem(ctx context.Context, poemID string) (*workflowmodels.Poem, error) {
	query := fmt.Sprintf(`
		SELECT id, original_text, source_language, title, poet_name
		FROM %s
		WHERE id = $1
	`, r.tables.Poems)

	var poem workflowmodels.Poem
	executor := getExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, poemID).Scan(
		&poem.ID,
		&poem.OriginalText,
		&poem.SourceLanguage,
		&poem.Title,
		&poem.PoetName,
	)
	if err != nil {
		if isNoRowsError(err) {
			return nil, fmt.Errorf("poem %s: %w", poemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get poem: %w", err)
	}

	return &poem, nil
}

// CreateTranslation inserts the final translation row.
func (r *Repository) CreateTranslation(ctx context.Context, t *workflowmodels.TranslationArtifact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (poem_id, source_language, target_language, translated_text,
			translated_poem_title, translated_poet_name, translator_type, translator_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, created_at
	`, r.tables.Translations)

	executor := getExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		t.PoemID,
		t.SourceLang,
		t.TargetLang,
		t.FinalText,
		t.TranslatedTitle,
		t.TranslatedPoetName,
		t.TranslatorType,
		t.TranslatorInfo,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create translation: %w", err)
	}

	return nil
}

// CreateAiLog inserts the aggregate metrics row for a translation.
func (r *Repository) CreateAiLog(ctx context.Context, log *workflowmodels.AiLogRow) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (translation_id, model_name, workflow_mode, token_usage_json,
			cost_info_json, runtime_seconds, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.tables.AiLogs)

	executor := getExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		log.TranslationID,
		log.ModelName,
		string(log.Mode),
		log.TokenUsageJSON,
		log.CostInfoJSON,
		log.RuntimeSeconds,
		log.Notes,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("create ai log: %w", err)
	}

	return nil
}

// CreateWorkflowStep inserts one executed-step row.
func (r *Repository) CreateWorkflowStep(ctx context.Context, step *workflowmodels.WorkflowStepRow) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (translation_id, ai_log_id, step_order, step_type, content, notes,
			model_info_json, tokens_used, prompt_tokens, completion_tokens, duration_seconds,
			cost, translated_title, translated_poet_name, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		RETURNING id, timestamp
	`, r.tables.TranslationWorkflowSteps)

	executor := getExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		step.TranslationID,
		step.AiLogID,
		step.StepOrder,
		string(step.StepType),
		step.Content,
		step.Notes,
		step.ModelInfoJSON,
		step.TokensUsed,
		step.PromptTokens,
		step.CompletionTokens,
		step.DurationSeconds,
		step.Cost,
		step.TranslatedTitle,
		step.TranslatedPoetName,
	).Scan(&step.ID, &step.Timestamp)
	if err != nil {
		return fmt.Errorf("create workflow step: %w", err)
	}

	return nil
}
