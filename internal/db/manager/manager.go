package manager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

const queryDatabaseExists = "SELECT CASE WHEN DB_ID(@p1) IS NULL THEN 0 ELSE 1 END"

// Manager implements database lifecycle operations using the DBConnection
// abstraction. Stateless; thread safety depends on the injected DBConnection.
type Manager struct{}

// New creates a new DatabaseManager instance.
func New() mstools.DatabaseManager {
	return &Manager{}
}

// Exists checks if a database exists.
func (m *Manager) Exists(ctx context.Context, conn mstools.DBConnection, dbName string) (bool, error) {
	var exists int
	err := conn.QueryRowContext(ctx, queryDatabaseExists, sql.Named("p1", dbName)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists == 1, nil
}

// Create creates a new database.
func (m *Manager) Create(ctx context.Context, conn mstools.DBConnection, dbName string) error {
	query := fmt.Sprintf("CREATE DATABASE %s", QuoteIdentifier(dbName))
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Drop drops the specified database.
func (m *Manager) Drop(ctx context.Context, conn mstools.DBConnection, dbName string) error {
	query := fmt.Sprintf("DROP DATABASE %s", QuoteIdentifier(dbName))
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", dbName, err)
	}
	return nil
}

// TerminateConnections kicks every session off the database by cycling it
// through SINGLE_USER. ROLLBACK IMMEDIATE aborts in-flight transactions so
// the switch cannot block behind an open session; MULTI_USER restores
// normal access for the subsequent drop or deploy.
func (m *Manager) TerminateConnections(ctx context.Context, conn mstools.DBConnection, dbName string) error {
	quoted := QuoteIdentifier(dbName)

	singleUser := fmt.Sprintf("ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE", quoted)
	if _, err := conn.ExecContext(ctx, singleUser); err != nil {
		return fmt.Errorf("failed to terminate connections to database %q: %w", dbName, err)
	}

	multiUser := fmt.Sprintf("ALTER DATABASE %s SET MULTI_USER", quoted)
	if _, err := conn.ExecContext(ctx, multiUser); err != nil {
		return fmt.Errorf("failed to restore multi-user mode on database %q: %w", dbName, err)
	}

	return nil
}

// QuoteIdentifier wraps a SQL Server identifier in brackets, escaping any
// closing brackets inside the name.
func QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Verify Manager implements the DatabaseManager interface at compile time
var _ mstools.DatabaseManager = (*Manager)(nil)
