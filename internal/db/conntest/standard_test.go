//go:build conntest

package conntest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/testinfra"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

func TestStandardConnection_UserPassword(t *testing.T) {
	config := parseStdConnString(t)
	pool := connectWithConfig(t, config)
	pingSucceeds(t, pool)

	version := queryVersion(t, pool)
	assert.Contains(t, version, "Microsoft SQL Server")
}

func TestStandardConnection_WrongPassword(t *testing.T) {
	config := parseStdConnString(t)
	config.Password = "definitely-wrong-password"

	connector, err := db.NewConnector(config)
	require.NoError(t, err)

	_, err = connector.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "login",
		"error should mention the failed login: %v", err)
}

// seedStatements builds a small schema touching every stage of a clone run:
// identity columns, a default, a foreign key, a nonclustered index, a view
// and a procedure, plus a few rows for the data stage.
var seedStatements = []string{
	`CREATE TABLE dbo.customers (
		id INT IDENTITY(1,1) NOT NULL,
		name NVARCHAR(100) NOT NULL,
		created_at DATETIME2 NOT NULL CONSTRAINT df_customers_created DEFAULT SYSUTCDATETIME(),
		CONSTRAINT pk_customers PRIMARY KEY (id)
	)`,
	`CREATE TABLE dbo.orders (
		id INT IDENTITY(1,1) NOT NULL,
		customer_id INT NOT NULL,
		total DECIMAL(12,2) NOT NULL,
		CONSTRAINT pk_orders PRIMARY KEY (id),
		CONSTRAINT fk_orders_customers FOREIGN KEY (customer_id) REFERENCES dbo.customers (id)
	)`,
	`CREATE NONCLUSTERED INDEX ix_orders_customer ON dbo.orders (customer_id)`,
	`INSERT INTO dbo.customers (name) VALUES (N'Alice'), (N'Bob'), (N'Carla')`,
	`INSERT INTO dbo.orders (customer_id, total) VALUES (1, 10.50), (2, 99.99)`,
	`CREATE VIEW dbo.v_order_totals AS
		SELECT c.name, SUM(o.total) AS total
		FROM dbo.customers AS c
		JOIN dbo.orders AS o ON o.customer_id = c.id
		GROUP BY c.name`,
	`CREATE PROCEDURE dbo.usp_customer_count AS SELECT COUNT(*) AS n FROM dbo.customers`,
}

func TestStandardConnection_CloneEndToEnd(t *testing.T) {
	ctx := context.Background()
	const sourceDB = "mstools_conntest_source"
	const targetDB = "mstools_conntest_copy"

	t.Cleanup(func() {
		cleanupDB(t, stdContainer.ConnString, sourceDB)
		cleanupDB(t, stdContainer.ConnString, targetDB)
	})

	createDatabase(t, stdContainer.ConnString, sourceDB)
	sourceConnStr := connStringForDB(t, stdContainer.ConnString, sourceDB)
	execStatements(t, openPool(t, sourceConnStr), seedStatements)

	cloner := newTestCloner(t)
	run, err := cloner.Clone(ctx, mstools.CloneConfig{
		SourceConnectionString:      sourceConnStr,
		DestinationConnectionString: connStringForDB(t, stdContainer.ConnString, targetDB),
		DatabaseName:                targetDB,
		ManagementDatabase:          testinfra.ManagementDB,
		IncludeData:                 true,
		Overwrite:                   true,
		Force:                       true,
	})
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.True(t, run.Succeeded(), "failed stages: %+v", run.FailedStages())

	target := openPool(t, connStringForDB(t, stdContainer.ConnString, targetDB))

	var tables int
	require.NoError(t, target.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sys.tables").Scan(&tables))
	assert.Equal(t, 2, tables)

	var customers int
	require.NoError(t, target.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dbo.customers").Scan(&customers))
	assert.Equal(t, 3, customers, "data stage should have copied the rows")

	report, err := newTestComparer(t).Compare(ctx, mstools.CompareConfig{
		SourceConnectionString:      sourceConnStr,
		DestinationConnectionString: connStringForDB(t, stdContainer.ConnString, targetDB),
		IncludeRowCounts:            true,
	})
	require.NoError(t, err)
	assert.True(t, report.InSync(), "discrepancies: %+v", report.Issues)

	var nextID int
	require.NoError(t, target.QueryRowContext(ctx,
		"INSERT INTO dbo.customers (name) OUTPUT INSERTED.id VALUES (N'Dave')").Scan(&nextID))
	assert.Equal(t, 4, nextID, "identity seed should continue after copied rows")
}

func TestStandardConnection_DeployScript(t *testing.T) {
	ctx := context.Background()
	const scratchDB = "mstools_conntest_deploy"

	t.Cleanup(func() { cleanupDB(t, stdContainer.ConnString, scratchDB) })
	createDatabase(t, stdContainer.ConnString, scratchDB)

	// The view's batch comes first and fails on pass one because views do
	// not defer name resolution; pass two picks it up after the table
	// exists. This is the convergence loop working against a live engine.
	script := `CREATE VIEW dbo.v_numbers AS SELECT n FROM dbo.numbers;
GO
CREATE TABLE dbo.numbers (n INT NOT NULL);
GO
INSERT INTO dbo.numbers (n) VALUES (1), (2), (3);
`
	scriptPath := filepath.Join(t.TempDir(), "replay.sql")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0644))

	outcome, err := newTestDeployer(t).Deploy(ctx, mstools.DeployConfig{
		DestinationConnectionString: connStringForDB(t, stdContainer.ConnString, scratchDB),
		ScriptPath:                  scriptPath,
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.TotalBatches)
	assert.Equal(t, 2, outcome.PassesUsed, "the out-of-order view needs a second pass")
	assert.Empty(t, outcome.FailedBatches)

	pool := openPool(t, connStringForDB(t, stdContainer.ConnString, scratchDB))
	var total int
	require.NoError(t, pool.QueryRowContext(ctx,
		"SELECT SUM(n) FROM dbo.v_numbers").Scan(&total))
	assert.Equal(t, 6, total)
}
