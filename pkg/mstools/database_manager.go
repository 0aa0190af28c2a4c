package mstools

import "context"

// DatabaseManager defines the interface for database management operations
// performed against a server's management database (typically "master").
// Implementations are stateless; thread safety depends on the injected DBConnection.
type DatabaseManager interface {
	// Exists checks if a database exists on the server.
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)

	// Create creates a new database.
	Create(ctx context.Context, conn DBConnection, dbName string) error

	// Drop drops the specified database.
	Drop(ctx context.Context, conn DBConnection, dbName string) error

	// TerminateConnections forces all sessions off the specified database by
	// switching it to SINGLE_USER with ROLLBACK IMMEDIATE. This is required
	// before dropping a database that has active connections.
	TerminateConnections(ctx context.Context, conn DBConnection, dbName string) error
}
