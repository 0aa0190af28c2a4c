package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
// This interface enables testability (mock providers) and future extensibility
// (other identity platforms can implement the same interface).
type TokenProvider interface {
	// GetToken acquires an OAuth token for database authentication.
	// The token is presented as the access token when connecting to
	// cloud-hosted SQL Server. Returns the token string and its expiry time.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String returns a human-readable description for logging.
	// Should NOT include secrets. Example: "AzureServicePrincipal(tenant=xxx, client=yyy)"
	String() string
}

// AzureSQLScope is the OAuth scope for Azure SQL Database and SQL Server
// with Entra ID authentication. Azure AD issues tokens against this resource
// identifier for database access.
const AzureSQLScope = "https://database.windows.net/.default"
