// Package workflow defines the narrow persistence contract the workflow
// core depends on. The core never imports a concrete driver; postgres
// (internal/repository/postgres/workflow) and sqlite
// (internal/repository/sqlite/workflow) both satisfy it.
package workflow

import (
	"context"

	workflowmodels "versify/internal/domain/models/workflow"
)

// Repository is the narrow CRUD PersistenceSink needs. It intentionally
// excludes anything the spec calls out as out of scope (search, admin,
// migrations): callers that need more than this belong to a different
// layer entirely.
type Repository interface {
	// GetPoem resolves a poem by id. Returns domain.ErrNotFound if absent.
	GetPoem(ctx context.Context, poemID string) (*workflowmodels.Poem, error)

	// CreateTranslation inserts the final translation row and fills in
	// the generated ID and CreatedAt.
	CreateTranslation(ctx context.Context, t *workflowmodels.TranslationArtifact) error

	// CreateAiLog inserts the aggregate metrics row keyed to a translation.
	CreateAiLog(ctx context.Context, log *workflowmodels.AiLogRow) error

	// CreateWorkflowStep inserts one executed-step row.
	CreateWorkflowStep(ctx context.Context, step *workflowmodels.WorkflowStepRow) error
}

// TxFn is a unit of work run inside a single transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs fn inside one transaction; if fn returns an
// error the whole unit rolls back (spec invariant 6: all-or-nothing).
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
