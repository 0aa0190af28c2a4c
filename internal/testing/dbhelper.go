// Package testing provides helpers for integration tests that need a live
// SQL Server: connection acquisition, scratch database lifecycle and
// pre-wired service instances.
package testing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/db/manager"
	"github.com/sozezzo/MSTools/internal/services"
	"github.com/sozezzo/MSTools/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartSQLServer(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test server connection string.
// Priority: MSTOOLS_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("MSTOOLS_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("MSTOOLS_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// NewTestCloner creates a CloneService wired for testing: the standard
// connector factory and a force-approving test approver.
func NewTestCloner(t *testing.T) *services.CloneService {
	t.Helper()

	return services.NewCloneService(
		db.NewConnector,
		&ForceApprover{},
		manager.New(),
		slog.New(slog.DiscardHandler),
	)
}

// NewTestDeployer creates a DeployService wired for testing.
func NewTestDeployer(t *testing.T) *services.DeployService {
	t.Helper()

	return services.NewDeployService(db.NewConnector, slog.New(slog.DiscardHandler))
}

// NewTestComparer creates a CompareService wired for testing.
func NewTestComparer(t *testing.T) *services.CompareService {
	t.Helper()

	return services.NewCompareService(db.NewConnector, slog.New(slog.DiscardHandler))
}

// ForceApprover is a test approver that always approves overwrite requests.
type ForceApprover struct{}

// RequestApproval always returns true (auto-approves).
func (a *ForceApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	return true, nil
}

// CreateTestDB creates a test database with the given name.
// Returns a cleanup function that should be called with t.Cleanup().
func CreateTestDB(t *testing.T, connString, dbName string) func() {
	t.Helper()

	ctx := context.Background()

	pool := openPool(t, connString)
	defer pool.Close()

	if _, err := pool.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE [%s]", dbName)); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Logf("✓ Created test database %s", dbName)

	return func() {
		CleanupTestDB(t, connString, dbName)
	}
}

// CleanupTestDB drops the test database, disconnecting any remaining
// sessions first. Safe to call for databases that no longer exist.
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Logf("Warning: failed to parse connection string for cleanup: %v", err)
		return
	}
	connector, err := db.NewConnector(config)
	if err != nil {
		t.Logf("Warning: failed to create connector for cleanup: %v", err)
		return
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		t.Logf("Warning: failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	drop := fmt.Sprintf(
		"IF DB_ID(N'%[1]s') IS NOT NULL BEGIN "+
			"ALTER DATABASE [%[1]s] SET SINGLE_USER WITH ROLLBACK IMMEDIATE; "+
			"DROP DATABASE [%[1]s]; END", dbName)
	if _, err := pool.ExecContext(ctx, drop); err != nil {
		t.Logf("Warning: failed to drop database %s: %v", dbName, err)
	} else {
		t.Logf("✓ Cleaned up database %s", dbName)
	}
}

// GetTestPool opens a connection pool to the specified database for testing.
// The pool is automatically closed when the test completes.
func GetTestPool(t *testing.T, connString, dbName string) *sql.DB {
	t.Helper()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	config.Database = dbName

	pool := openPool(t, db.BuildConnectionString(config))
	t.Cleanup(func() { pool.Close() })
	return pool
}

func openPool(t *testing.T, connString string) *sql.DB {
	t.Helper()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	connector, err := db.NewConnector(config)
	if err != nil {
		t.Fatalf("Failed to create connector: %v", err)
	}

	pool, err := connector.Connect(context.Background())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return pool
}
