package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	mssql "github.com/microsoft/go-mssqldb"
)

// SQL Server error numbers for transient conditions.
// See: https://learn.microsoft.com/en-us/azure/azure-sql/database/troubleshoot-common-errors-issues
const (
	// Engine-level retry candidates
	sqlCodeDeadlockVictim     = 1205
	sqlCodeCannotOpenDatabase = 4060

	// Azure SQL resource governance
	sqlCodeSessionLimitReached   = 10928
	sqlCodeResourceLimitReached  = 10929
	sqlCodeServiceErrorEncounter = 40197
	sqlCodeServiceBusy           = 40501
	sqlCodeDatabaseUnavailable   = 40613
	sqlCodeNotEnoughResources    = 49918
	sqlCodeTooManyCreateRequests = 49919
	sqlCodeTooManyOperations     = 49920

	// Transport and socket failures surfaced as engine errors
	sqlCodeSemaphoreTimeout    = 121
	sqlCodeTransportFailure    = 233
	sqlCodeConnectionInitError = 64
	sqlCodeConnectionAborted   = 10053
	sqlCodeConnectionReset     = 10054
	sqlCodeConnectionTimedOut  = 10060
	sqlCodeHostNotFound        = 11001
)

// SQLServerErrorClassifier implements ErrorClassifier for SQL Server errors.
type SQLServerErrorClassifier struct{}

// NewSQLServerErrorClassifier creates a new SQL Server error classifier.
func NewSQLServerErrorClassifier() *SQLServerErrorClassifier {
	return &SQLServerErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *SQLServerErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check for SQL Server engine errors first: they carry a definitive
	// error number. A recognized fatal number (bad login, syntax error)
	// must not be rescued by the looser string matching below.
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return c.isTransientSQLError(sqlErr)
	}

	if c.isNetworkError(err) {
		return true
	}

	if c.isConnectionError(err) {
		return true
	}

	return false
}

// isTransientSQLError checks SQL Server error numbers for transient conditions.
func (c *SQLServerErrorClassifier) isTransientSQLError(sqlErr mssql.Error) bool {
	switch sqlErr.Number {
	// Engine-level retry candidates
	case sqlCodeDeadlockVictim,
		sqlCodeCannotOpenDatabase:
		return true

	// Azure SQL resource governance: the service asks the client to retry
	case sqlCodeSessionLimitReached,
		sqlCodeResourceLimitReached,
		sqlCodeServiceErrorEncounter,
		sqlCodeServiceBusy,
		sqlCodeDatabaseUnavailable,
		sqlCodeNotEnoughResources,
		sqlCodeTooManyCreateRequests,
		sqlCodeTooManyOperations:
		return true

	// Transport and socket failures
	case sqlCodeSemaphoreTimeout,
		sqlCodeTransportFailure,
		sqlCodeConnectionInitError,
		sqlCodeConnectionAborted,
		sqlCodeConnectionReset,
		sqlCodeConnectionTimedOut,
		sqlCodeHostNotFound:
		return true
	}

	return false
}

// isNetworkError checks for network-level errors.
func (c *SQLServerErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}

		if opErr.Err != nil {
			// Connection refused (server not ready yet)
			if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
				return true
			}

			// Connection reset by peer
			if errors.Is(opErr.Err, syscall.ECONNRESET) {
				return true
			}

			// Network unreachable
			if errors.Is(opErr.Err, syscall.ENETUNREACH) {
				return true
			}

			// Host unreachable
			if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
				return true
			}
		}
	}

	return false
}

// isConnectionError checks for connection-related errors by message text.
// The driver does not wrap every handshake failure in a typed error, so a
// pattern list catches the remainder.
func (c *SQLServerErrorClassifier) isConnectionError(err error) bool {
	errMsg := strings.ToLower(err.Error())

	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"connection was forcibly closed",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"unexpected eof",
		"transport-level error",
		"is not currently available",
		"please retry the connection later",
		"server is not ready",
		"context deadline exceeded", // may be transient if caused by an external timeout
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
