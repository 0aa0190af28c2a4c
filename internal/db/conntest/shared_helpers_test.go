//go:build conntest || azure

package conntest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/db/manager"
	"github.com/sozezzo/MSTools/internal/services"
)

type forceApprover struct{}

func (a *forceApprover) RequestApproval(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func nullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestCloner(t *testing.T) *services.CloneService {
	t.Helper()
	return services.NewCloneService(db.NewConnector, &forceApprover{}, manager.New(), nullLogger())
}

func newTestDeployer(t *testing.T) *services.DeployService {
	t.Helper()
	return services.NewDeployService(db.NewConnector, nullLogger())
}

func newTestComparer(t *testing.T) *services.CompareService {
	t.Helper()
	return services.NewCompareService(db.NewConnector, nullLogger())
}

// connStringForDB rewrites the database of a connection string, keeping every
// other parameter.
func connStringForDB(t *testing.T, base, dbName string) string {
	t.Helper()
	config, err := db.ParseConnectionString(base)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	config.Database = dbName
	return db.BuildConnectionString(config)
}

func openPool(t *testing.T, connStr string) *sql.DB {
	t.Helper()

	config, err := db.ParseConnectionString(connStr)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}

	connector, err := db.NewConnector(config)
	if err != nil {
		t.Fatalf("create connector: %v", err)
	}

	pool, err := connector.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func execStatements(t *testing.T, pool *sql.DB, statements []string) {
	t.Helper()
	ctx := context.Background()
	for _, stmt := range statements {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func createDatabase(t *testing.T, mgmtConnStr, dbName string) {
	t.Helper()
	pool := openPool(t, mgmtConnStr)
	execStatements(t, pool, []string{fmt.Sprintf("CREATE DATABASE [%s]", dbName)})
}

// cleanupDB drops the database if it exists, kicking out any remaining
// sessions first. Safe to call for databases that were never created.
func cleanupDB(t *testing.T, mgmtConnStr, dbName string) {
	t.Helper()
	ctx := context.Background()

	config, err := db.ParseConnectionString(mgmtConnStr)
	if err != nil {
		t.Logf("cleanup: parse connection string: %v", err)
		return
	}
	connector, err := db.NewConnector(config)
	if err != nil {
		t.Logf("cleanup: create connector: %v", err)
		return
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		t.Logf("cleanup: failed to connect: %v", err)
		return
	}
	defer pool.Close()

	drop := fmt.Sprintf(
		"IF DB_ID(N'%[1]s') IS NOT NULL BEGIN "+
			"ALTER DATABASE [%[1]s] SET SINGLE_USER WITH ROLLBACK IMMEDIATE; "+
			"DROP DATABASE [%[1]s]; END", dbName)
	if _, err := pool.ExecContext(ctx, drop); err != nil {
		t.Logf("cleanup: failed to drop %s: %v", dbName, err)
	}
}
