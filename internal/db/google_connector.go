package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	gcpmssql "cloud.google.com/go/cloudsqlconn/sqlserver/mssql"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// driverSeq makes each registered Cloud SQL driver name unique.
// database/sql panics on duplicate driver registration, and a clone run
// registers one driver per side (source and destination).
var driverSeq atomic.Int64

// GoogleCloudSQLConnector implements the Connector interface for Cloud SQL
// for SQL Server using the Cloud SQL Go Connector.
//
// The connector handles dialing, TLS and instance discovery. Cloud SQL for
// SQL Server does not support IAM database authentication, so a database
// username and password are still required.
//
// Implements io.Closer; the caller must call Close() after the pool is
// closed to release the Cloud SQL dialer resources.
type GoogleCloudSQLConnector struct {
	config   *mstools.ConnectionConfig
	instance string
	cleanup  func() error
}

// NewGoogleCloudSQLConnector creates a connector for Cloud SQL for SQL Server.
// instance is the instance connection name in format: project:region:instance
func NewGoogleCloudSQLConnector(config *mstools.ConnectionConfig, instance string) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
	}
}

// Connect opens a connection pool through the Cloud SQL Go Connector.
//
// After the pool is closed, the caller must call Close() on this connector
// to release the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*sql.DB, error) {
	driverName := fmt.Sprintf("cloudsql-sqlserver-%d", driverSeq.Add(1))

	cleanup, err := gcpmssql.RegisterDriver(driverName)
	if err != nil {
		return nil, fmt.Errorf("failed to register Cloud SQL driver: %w", err)
	}

	// The Cloud SQL driver routes dialing through the cloudsql parameter;
	// the host component of the DSN is ignored.
	dialConfig := *c.config
	dialConfig.Host = "localhost"
	dialConfig.Port = 0
	dialConfig.Instance = ""
	if dialConfig.AdditionalParams == nil {
		dialConfig.AdditionalParams = make(map[string]string)
	}
	dialConfig.AdditionalParams["cloudsql"] = c.instance

	db, err := sql.Open(driverName, BuildConnectionString(&dialConfig))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to open Cloud SQL connection: %w", err)
	}

	configurePool(db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		cleanup()
		return nil, wrapConnectionError(err, c.instance, 0, c.config.Database)
	}

	c.cleanup = cleanup
	return db, nil
}

// Close releases the Cloud SQL dialer resources.
// Must be called after the connection pool returned by Connect() is closed.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.cleanup != nil {
		err := c.cleanup()
		c.cleanup = nil
		return err
	}
	return nil
}
