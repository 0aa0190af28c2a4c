// Package testinfra starts disposable SQL Server instances for integration
// and connection tests. Everything here requires a working Docker daemon.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	SQLServerImage    = "mcr.microsoft.com/mssql/server:2022-latest"
	SQLServerUser     = "sa"
	SQLServerPassword = "MSTools!Str0ngPass"

	// ManagementDB exists on every instance and is where the tests create
	// and drop their scratch databases from.
	ManagementDB = "master"
)

// SQLServerContainer wraps the testcontainers SQL Server module together
// with the URL-form connection string the tests dial.
type SQLServerContainer struct {
	*mssql.MSSQLServerContainer
	ConnString string
}

// StartSQLServer starts a throwaway SQL Server instance and waits until the
// engine has finished recovery.
//
// The stock image generates a self-signed TLS certificate on first boot, so
// encrypted connections work without mounting anything into the container.
// Certificate verification against that self-signed certificate is expected
// to fail; the encryption tests rely on exactly that.
func StartSQLServer(ctx context.Context) (*SQLServerContainer, error) {
	ctr, err := mssql.Run(ctx,
		SQLServerImage,
		mssql.WithAcceptEULA(),
		mssql.WithPassword(SQLServerPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Recovery is complete.").
				WithStartupTimeout(3*time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start sql server: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "database="+ManagementDB)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &SQLServerContainer{MSSQLServerContainer: ctr, ConnString: connStr}, nil
}
