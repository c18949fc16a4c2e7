// Package workflow is a pure-Go, file-or-memory backed implementation of
// domain/repositories/workflow.Repository, used by the persistence-sink
// unit tests and this package's own tests that need a real relational round trip
// without a Postgres container. Grounded in aladin2907-overhuman's use
// of modernc.org/sqlite as a dependency-free database/sql driver.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
	workflowrepo "versify/internal/domain/repositories/workflow"
)

const schema = `
CREATE TABLE IF NOT EXISTS poems (
	id TEXT PRIMARY KEY,
	original_text TEXT NOT NULL,
	source_language TEXT NOT NULL,
	title TEXT,
	poet_name TEXT
);

CREATE TABLE IF NOT EXISTS translations (
	id TEXT PRIMARY KEY,
	poem_id TEXT NOT NULL,
	source_language TEXT NOT NULL,
	target_language TEXT NOT NULL,
	translated_text TEXT NOT NULL,
	translated_poem_title TEXT,
	translated_poet_name TEXT,
	translator_type TEXT NOT NULL,
	translator_info TEXT,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS ai_logs (
	id TEXT PRIMARY KEY,
	translation_id TEXT NOT NULL,
	model_name TEXT NOT NULL,
	workflow_mode TEXT NOT NULL,
	token_usage_json TEXT,
	cost_info_json TEXT,
	runtime_seconds REAL,
	notes TEXT
);

CREATE TABLE IF NOT EXISTS translation_workflow_steps (
	id TEXT PRIMARY KEY,
	translation_id TEXT NOT NULL,
	ai_log_id TEXT NOT NULL,
	step_order INTEGER NOT NULL,
	step_type TEXT NOT NULL,
	content TEXT,
	notes TEXT,
	model_info_json TEXT,
	tokens_used INTEGER,
	prompt_tokens INTEGER,
	completion_tokens INTEGER,
	duration_seconds REAL,
	cost REAL,
	translated_title TEXT,
	translated_poet_name TEXT,
	timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// Repository is an in-process sqlite-backed implementation of
// workflowrepo.Repository, suitable for unit tests or a single-node
// local-dev deployment.
type Repository struct {
	db *sql.DB
}

// Open creates (or opens) a sqlite database at dsn (":memory:" for
// ephemeral tests) and ensures the schema exists.
func Open(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite only supports one writer at a time; serialize access so
	// concurrent tasks don't hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ctxExecer returns the transaction bound to ctx if ExecTx put one
// there, otherwise r's plain database handle.
func (r *Repository) ctxExecer(ctx context.Context) execer {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// newID generates a row id the same way every other repository in this
// module does, so ids are interchangeable across postgres and sqlite.
func newID() string { return uuid.New().String() }

// SeedPoem inserts a poem directly, bypassing the Repository interface.
// Test-only helper: the core never writes poems.
func (r *Repository) SeedPoem(ctx context.Context, poem *workflowmodels.Poem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO poems (id, original_text, source_language, title, poet_name) VALUES (?, ?, ?, ?, ?)`,
		poem.ID, poem.OriginalText, poem.SourceLanguage, poem.Title, poem.PoetName,
	)
	return err
}

func (r *Repository) GetPoem(ctx context.Context, poemID string) (*workflowmodels.Poem, error) {
	var poem workflowmodels.Poem
	err := r.ctxExecer(ctx).QueryRowContext(ctx,
		`SELECT id, original_text, source_language, title, poet_name FROM poems WHERE id = ?`,
		poemID,
	).Scan(&poem.ID, &poem.OriginalText, &poem.SourceLanguage, &poem.Title, &poem.PoetName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("poem %s: %w", poemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get poem: %w", err)
	}
	return &poem, nil
}

func (r *Repository) CreateTranslation(ctx context.Context, t *workflowmodels.TranslationArtifact) error {
	id := t.ID
	if id == "" {
		id = newID()
	}
	_, err := r.ctxExecer(ctx).ExecContext(ctx,
		`INSERT INTO translations (id, poem_id, source_language, target_language, translated_text,
			translated_poem_title, translated_poet_name, translator_type, translator_info)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.PoemID, t.SourceLang, t.TargetLang, t.FinalText,
		t.TranslatedTitle, t.TranslatedPoetName, t.TranslatorType, t.TranslatorInfo,
	)
	if err != nil {
		return fmt.Errorf("create translation: %w", err)
	}
	t.ID = id
	return nil
}

func (r *Repository) CreateAiLog(ctx context.Context, log *workflowmodels.AiLogRow) error {
	id := log.ID
	if id == "" {
		id = newID()
	}
	_, err := r.ctxExecer(ctx).ExecContext(ctx,
		`INSERT INTO ai_logs (id, translation_id, model_name, workflow_mode, token_usage_json,
			cost_info_json, runtime_seconds, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, log.TranslationID, log.ModelName, string(log.Mode), log.TokenUsageJSON,
		log.CostInfoJSON, log.RuntimeSeconds, log.Notes,
	)
	if err != nil {
		return fmt.Errorf("create ai log: %w", err)
	}
	log.ID = id
	return nil
}

func (r *Repository) CreateWorkflowStep(ctx context.Context, step *workflowmodels.WorkflowStepRow) error {
	id := step.ID
	if id == "" {
		id = newID()
	}
	_, err := r.ctxExecer(ctx).ExecContext(ctx,
		`INSERT INTO translation_workflow_steps (id, translation_id, ai_log_id, step_order, step_type,
			content, notes, model_info_json, tokens_used, prompt_tokens, completion_tokens,
			duration_seconds, cost, translated_title, translated_poet_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, step.TranslationID, step.AiLogID, step.StepOrder, string(step.StepType),
		step.Content, step.Notes, step.ModelInfoJSON, step.TokensUsed, step.PromptTokens,
		step.CompletionTokens, step.DurationSeconds, step.Cost, step.TranslatedTitle, step.TranslatedPoetName,
	)
	if err != nil {
		return fmt.Errorf("create workflow step: %w", err)
	}
	step.ID = id
	return nil
}

// TransactionManager implements workflowrepo.TransactionManager using a
// single sql.Tx; sqlite has no concept of nested transactions so ExecTx
// must not be called re-entrantly against the same Repository.
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager creates a transaction manager bound to r's
// database handle.
func NewTransactionManager(r *Repository) workflowrepo.TransactionManager {
	return &TransactionManager{db: r.db}
}

type txKeyType struct{}

var txKey = txKeyType{}

func (tm *TransactionManager) ExecTx(ctx context.Context, fn workflowrepo.TxFn) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
