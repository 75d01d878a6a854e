package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "registrar/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// defaultTimeout bounds a transaction when the caller set no deadline.
const defaultTimeout = 5 * time.Second

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner binds Run to a database handle so services can depend on a
// RunInTx collaborator without holding the *sql.DB themselves.
type Runner struct {
	db *sql.DB
}

// NewRunner constructs a Runner over db.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// RunInTx executes fn inside a transaction on the bound database.
func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, fn)
}

// Run executes fn inside a transaction. The transaction is stashed in the
// context passed to fn, so any store whose writes go through From joins it.
// fn returning an error rolls everything back.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	return sqlTx.Commit()
}
