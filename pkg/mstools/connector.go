package mstools

import (
	"context"
	"database/sql"
)

// Connector is a unified interface for establishing database connections.
// Different implementations handle various authentication methods
// (standard credentials, Entra ID tokens, Cloud SQL dialing).
type Connector interface {
	// Connect opens a database handle and verifies it with a ping.
	// The returned handle should be closed by the caller when done.
	Connect(ctx context.Context) (*sql.DB, error)
}
