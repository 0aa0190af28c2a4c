package db

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/sozezzo/MSTools/internal/retry"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived OAuth tokens (Azure Entra ID).
//
// The driver invokes the token provider for every new physical connection,
// so token refresh over a long clone run is automatic. No password is ever
// placed in the connection string.
type TokenBasedConnector struct {
	config        *mstools.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for
// authentication. providerName is used in error messages (e.g., "Azure").
func NewTokenBasedConnector(config *mstools.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	classifier := retry.NewSQLServerErrorClassifier()
	strategy := retry.NewExponentialBackoff(mstools.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(mstools.DefaultRetryInitialDelay),
		retry.WithMaxDelay(mstools.DefaultRetryMaxDelay),
	)

	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: retry.NewExecutor(classifier, strategy),
		providerName:  providerName,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB

	// Token auth replaces the password; strip it from the DSN.
	configNoPassword := *c.config
	configNoPassword.Password = ""
	connStr := BuildConnectionString(&configNoPassword)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		connector, err := mssql.NewAccessTokenConnector(connStr, func() (string, error) {
			// The driver calls back without a context; connection dial
			// timeouts still bound the overall attempt.
			token, _, err := c.tokenProvider.GetToken(context.Background())
			if err != nil {
				return "", fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
			}
			return token, nil
		})
		if err != nil {
			return fmt.Errorf("failed to create %s token connector: %w", c.providerName, err)
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
