package db

import (
	"context"
	"database/sql"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// PoolAdapter adapts *sql.DB to implement the mstools.DBConnection interface.
// Go's method sets do not allow covariant returns, so *sql.DB cannot satisfy
// DBConnection directly: QueryRowContext returns the concrete *sql.Row.
//
// Thread-Safety: Safe for concurrent use (*sql.DB is thread-safe).
type PoolAdapter struct {
	db *sql.DB
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(db *sql.DB) mstools.DBConnection {
	return &PoolAdapter{db: db}
}

// ExecContext executes a statement without returning any rows.
func (p *PoolAdapter) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

// QueryRowContext executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRowContext(ctx context.Context, query string, args ...any) mstools.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Verify PoolAdapter implements DBConnection at compile time
var _ mstools.DBConnection = (*PoolAdapter)(nil)
