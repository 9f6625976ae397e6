package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// DB owns the connection pool and hands out one transaction per atomic unit.
type DB struct {
	pool      *sql.DB
	isolation sql.IsolationLevel
}

func NewDB(pool *sql.DB, isolation sql.IsolationLevel) *DB {
	return &DB{pool: pool, isolation: isolation}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", err)
	}
	return tx, nil
}

// WithTx runs fn in a transaction at the configured isolation level and
// commits only if fn succeeds. The transaction is rolled back on every other
// exit path. Returned errors are classified into the domain taxonomy.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, &sql.TxOptions{Isolation: d.isolation})
	if err != nil {
		return domain.Classify(fmt.Errorf("WithTx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return domain.Classify(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Classify(fmt.Errorf("WithTx: commit: %w", err))
	}
	return nil
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
