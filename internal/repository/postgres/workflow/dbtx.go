// Package workflow is the postgres-backed implementation of
// domain/repositories/workflow.Repository, grounded in the teacher's
// internal/repository/postgres package (pgx pool + context-scoped
// transactions + PgBouncer-aware exec mode).
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	workflowrepo "versify/internal/domain/repositories/workflow"
)

// dbtx is implemented by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

type txContextKey string

const txKey txContextKey = "versify_workflow_pgx_tx"

func setTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func getTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

func getExecutor(ctx context.Context, pool *pgxpool.Pool) dbtx {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return pool
}

func isNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// TransactionManager implements workflowrepo.TransactionManager.
// PersistenceSink is the only caller: it opens exactly one transaction
// per task (spec section 5, "Shared resources").
type TransactionManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransactionManager creates a new transaction manager bound to pool.
func NewTransactionManager(pool *pgxpool.Pool, logger *slog.Logger) workflowrepo.TransactionManager {
	return &TransactionManager{pool: pool, logger: logger}
}

// ExecTx runs fn with a transaction bound to ctx. Any error returned by
// fn rolls back the whole unit; fn returning nil commits it.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn workflowrepo.TxFn) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			tm.logger.Warn("rollback failed", "error", rbErr)
		}
	}()

	if err := fn(setTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CreateConnectionPool creates a pgx pool, auto-detecting Supabase's
// transaction-pooler port (6543) the way the teacher's connection setup
// does, since CacheStatement mode breaks under PgBouncer.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// TableNames holds the (possibly env-prefixed) table names this
// repository writes to.
type TableNames struct {
	Translations             string
	AiLogs                   string
	TranslationWorkflowSteps string
	Poems                    string
}

// NewTableNames builds prefixed table names, e.g. prefix "dev_" yields
// "dev_translations".
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Translations:             prefix + "translations",
		AiLogs:                   prefix + "ai_logs",
		TranslationWorkflowSteps: prefix + "translation_workflow_steps",
		Poems:                    prefix + "poems",
	}
}
