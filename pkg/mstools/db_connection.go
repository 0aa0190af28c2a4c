package mstools

import (
	"context"
	"database/sql"
)

// DBConnection abstracts database operations needed by DatabaseManager.
// This interface decouples the public API from driver-specific types while
// providing the essential operations for database management.
//
// Thread-Safety: Implementations should follow their underlying handle's
// thread-safety guarantees. *sql.DB backed implementations are safe for
// concurrent use.
type DBConnection interface {
	// ExecContext executes a statement without returning any rows.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// QueryRowContext executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRowContext(ctx context.Context, query string, args ...any) Row
}

// Row represents a single row returned by QueryRowContext.
// This interface decouples from *sql.Row.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}
