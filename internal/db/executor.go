package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// SessionExecutor runs T-SQL batches on a single pinned connection.
//
// Batches from one script must share a session: SET options, temporary
// tables and SET IDENTITY_INSERT state do not cross connections. The
// executor therefore holds one *sql.Conn for its whole life instead of
// borrowing from the pool per batch.
type SessionExecutor struct {
	conn *sql.Conn
}

// NewSessionExecutor pins a dedicated session from the pool.
// The caller owns the executor and must Close it to release the session.
func NewSessionExecutor(ctx context.Context, db *sql.DB) (*SessionExecutor, error) {
	if db == nil {
		panic("db cannot be nil")
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pin session: %w", err)
	}
	return &SessionExecutor{conn: conn}, nil
}

// ExecuteBatch runs one batch on the pinned session.
//
// Ordinary SQL failures (syntax errors, missing objects, constraint
// violations) come back as ok=false with the engine's message so that the
// scheduler can retry them on a later pass. A non-nil error means the
// session itself is unusable or the context was cancelled; the enclosing
// stage must stop.
func (e *SessionExecutor) ExecuteBatch(ctx context.Context, batchText string) (bool, string, error) {
	_, err := e.conn.ExecContext(ctx, batchText)
	if err == nil {
		return true, "", nil
	}

	if ctx.Err() != nil {
		return false, "", ctx.Err()
	}

	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		// Severity 20 and above terminates the connection on the server
		// side; the session is gone along with its state.
		if sqlErr.Class >= 20 {
			return false, "", fmt.Errorf("session terminated by severity %d error: %w", sqlErr.Class, err)
		}
		return false, formatBatchError(sqlErr), nil
	}

	// Anything that is not an engine error on a live context is a
	// transport failure: bad connection, broken pipe, driver fault.
	return false, "", fmt.Errorf("session failure: %w", err)
}

// Close releases the pinned session back to the pool.
func (e *SessionExecutor) Close() error {
	return e.conn.Close()
}

// formatBatchError renders a batch failure the way the engine reports it,
// keeping the error number and batch-relative line for diagnosis.
func formatBatchError(sqlErr mssql.Error) string {
	if sqlErr.LineNo > 0 {
		return fmt.Sprintf("Msg %d, Line %d: %s", sqlErr.Number, sqlErr.LineNo, sqlErr.Message)
	}
	return fmt.Sprintf("Msg %d: %s", sqlErr.Number, sqlErr.Message)
}

var _ mstools.BatchExecutor = (*SessionExecutor)(nil)
