package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/sozezzo/MSTools/internal/retry"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// Connection pool configuration constants
const (
	// DefaultMaxOpenConns limits concurrent connections. Clone runs drive a
	// single pinned session, so a handful covers management queries too.
	DefaultMaxOpenConns = 5

	// DefaultMaxIdleConns keeps a couple of connections warm between stages.
	DefaultMaxIdleConns = 2

	// DefaultConnMaxIdleTime keeps connections alive during long clone runs
	// to avoid reconnection overhead.
	DefaultConnMaxIdleTime = 30 * time.Minute
)

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxIdleTime(DefaultConnMaxIdleTime)
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *mstools.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Retry behavior uses mstools defaults: DefaultRetryMaxAttempts attempts,
// exponential backoff starting at DefaultRetryInitialDelay, max DefaultRetryMaxDelay.
func NewStandardConnector(config *mstools.ConnectionConfig) *StandardConnector {
	classifier := retry.NewSQLServerErrorClassifier()
	strategy := retry.NewExponentialBackoff(mstools.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(mstools.DefaultRetryInitialDelay),
		retry.WithMaxDelay(mstools.DefaultRetryMaxDelay),
	)

	return &StandardConnector{
		config:        config,
		retryExecutor: retry.NewExecutor(classifier, strategy),
	}
}

// Connect opens a connection pool using standard authentication with
// automatic retry on transient failures.
func (c *StandardConnector) Connect(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		connector, err := mssql.NewConnector(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		db = sql.OpenDB(connector)
		configurePool(db)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return db, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *mstools.ConnectionConfig) (mstools.Connector, error) {
	switch config.AuthMethod {
	case mstools.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case mstools.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	case mstools.AuthMethodGoogleCloudSQL:
		return newGoogleConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, mstools.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - SQL Server is not running (check: sqlcmd -S %s,%d -Q "SELECT 1")
  - TCP/IP protocol is disabled in SQL Server Configuration Manager
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %w`, host, err)

	// Checked before "login failed": the server reports a missing database as
	// `Cannot open database "x" requested by the login. The login failed.`
	case strings.Contains(errStr, "cannot open database"):
		return fmt.Errorf(`cannot open database "%s"

Possible causes:
  - Database does not exist on the server
  - Database is offline or in single-user mode
  - Login has no permission on the database

For clone destinations, use --overwrite to let mstools create it.

Original error: %w`, database, err)

	case strings.Contains(errStr, "login failed") || strings.Contains(errStr, "login error"):
		return fmt.Errorf(`login failed for database "%s"

Possible causes:
  - Wrong password (check $SQLCMDPASSWORD)
  - Wrong username
  - Server only allows Windows authentication (enable mixed mode)
  - User has no access to the database

Original error: %w`, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Named instance without the SQL Browser service running (port unknown)

Original error: %w`, addr, err)

	case strings.Contains(errStr, "certificate") || strings.Contains(errStr, "tls") || strings.Contains(errStr, "ssl"):
		return fmt.Errorf(`TLS connection error

Possible causes:
  - Server certificate is self-signed (try trustservercertificate=true)
  - Certificate verification failed
  - Server forces encryption but encrypt=disable was requested

Original error: %w`, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Cloud SQL for
// SQL Server. The Cloud SQL connector handles dialing and TLS; SQL Server
// instances still authenticate with a database username and password.
func newGoogleConnector(config *mstools.ConnectionConfig) (mstools.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("google Cloud SQL auth requires an instance connection name (project:region:instance)")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("google Cloud SQL auth requires a database username")
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID
// token provider. Explicit credentials (tenant, client, secret) select
// Service Principal auth; otherwise the DefaultAzureCredential chain runs.
func newAzureConnector(config *mstools.ConnectionConfig) (mstools.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure"), nil
}
