// Package manager provides database management operations for SQL Server.
//
// The manager package offers high-level operations for managing SQL Server
// databases:
//   - Checking database existence
//   - Creating new databases
//   - Dropping existing databases
//   - Terminating active connections
//
// All operations quote database names with bracket identifiers (]-escaped),
// preventing SQL injection while handling names with spaces, quotes, or
// special characters.
//
// # Example Usage
//
//	mgr := manager.New()
//
//	// Check if database exists
//	exists, err := mgr.Exists(ctx, conn, "mydb")
//
//	// Create a new database
//	err = mgr.Create(ctx, conn, "mydb")
//
//	// Drop a database (kick active sessions first)
//	err = mgr.TerminateConnections(ctx, conn, "mydb")
//	err = mgr.Drop(ctx, conn, "mydb")
//
// # Thread Safety
//
// Manager is stateless; thread safety depends on the injected DBConnection.
package manager
