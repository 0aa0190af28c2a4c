package services

import (
	"fmt"
	"strings"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// authOptions carries the run-level authentication settings that apply on
// top of a parsed connection string.
type authOptions struct {
	method         mstools.AuthMethod
	azureTenantID  string
	azureClientID  string
	azureSecret    string
	googleInstance string
}

// parseEndpoint parses a connection string and applies the run's
// authentication settings to the result.
func parseEndpoint(connStr string, auth authOptions) (*mstools.ConnectionConfig, error) {
	connConfig, err := db.ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v: %w", err, mstools.ErrInvalidConfig)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "mstools"
	}

	connConfig.AuthMethod = auth.method
	connConfig.AzureTenantID = auth.azureTenantID
	connConfig.AzureClientID = auth.azureClientID
	connConfig.AzureClientSecret = auth.azureSecret
	connConfig.GoogleInstance = auth.googleInstance
	return connConfig, nil
}

// sameServer reports whether two endpoints address the same SQL Server
// instance. The data stage reads the source database by name from the
// destination session, which only works within one instance.
func sameServer(a, b *mstools.ConnectionConfig) bool {
	if a.AuthMethod == mstools.AuthMethodGoogleCloudSQL || b.AuthMethod == mstools.AuthMethodGoogleCloudSQL {
		return a.GoogleInstance != "" && a.GoogleInstance == b.GoogleInstance
	}
	return strings.EqualFold(a.Host, b.Host) && a.Port == b.Port && strings.EqualFold(a.Instance, b.Instance)
}
