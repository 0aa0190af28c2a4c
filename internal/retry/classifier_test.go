package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	mssql "github.com/microsoft/go-mssqldb"
)

func TestSQLServerErrorClassifier_NilError(t *testing.T) {
	classifier := NewSQLServerErrorClassifier()

	if classifier.IsTransient(nil) {
		t.Error("nil error must not be transient")
	}
}

func TestSQLServerErrorClassifier_EngineErrors(t *testing.T) {
	classifier := NewSQLServerErrorClassifier()

	tests := []struct {
		name      string
		number    int32
		transient bool
	}{
		{name: "deadlock victim", number: 1205, transient: true},
		{name: "cannot open database", number: 4060, transient: true},
		{name: "session limit reached", number: 10928, transient: true},
		{name: "resource limit reached", number: 10929, transient: true},
		{name: "service error", number: 40197, transient: true},
		{name: "service busy", number: 40501, transient: true},
		{name: "database unavailable", number: 40613, transient: true},
		{name: "not enough resources", number: 49918, transient: true},
		{name: "too many create requests", number: 49919, transient: true},
		{name: "too many operations", number: 49920, transient: true},
		{name: "semaphore timeout", number: 121, transient: true},
		{name: "transport failure", number: 233, transient: true},
		{name: "connection init error", number: 64, transient: true},
		{name: "connection aborted", number: 10053, transient: true},
		{name: "connection reset", number: 10054, transient: true},
		{name: "connection timed out", number: 10060, transient: true},
		{name: "host not found", number: 11001, transient: true},

		{name: "login failed", number: 18456, transient: false},
		{name: "syntax error", number: 102, transient: false},
		{name: "invalid object name", number: 208, transient: false},
		{name: "object already exists", number: 2714, transient: false},
		{name: "foreign key violation", number: 547, transient: false},
		{name: "permission denied", number: 229, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mssql.Error{Number: tt.number, Message: tt.name}
			if got := classifier.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient(error %d) = %v, want %v", tt.number, got, tt.transient)
			}
		})
	}
}

func TestSQLServerErrorClassifier_WrappedEngineError(t *testing.T) {
	classifier := NewSQLServerErrorClassifier()

	inner := mssql.Error{Number: 40613, Message: "Database is not currently available"}
	wrapped := fmt.Errorf("failed to connect: %w", inner)

	if !classifier.IsTransient(wrapped) {
		t.Error("wrapped transient engine error must stay transient")
	}
}

func TestSQLServerErrorClassifier_EngineNumberWinsOverMessage(t *testing.T) {
	classifier := NewSQLServerErrorClassifier()

	// A fatal error number must not be rescued by transient-looking text
	// in its message.
	err := mssql.Error{Number: 102, Message: "Incorrect syntax near 'connection refused'"}
	if classifier.IsTransient(err) {
		t.Error("syntax error must be fatal regardless of message text")
	}
}

func TestSQLServerErrorClassifier_NetworkErrors(t *testing.T) {
	classifier := NewSQLServerErrorClassifier()

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{
			name:      "connection refused",
			err:       &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			transient: true,
		},
		{
			name:      "connection reset",
			err:       &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
			transient: true,
		},
		{
			name:      "network unreachable",
			err:       &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ENETUNREACH},
			transient: true,
		},
		{
			name:      "dns timeout",
			err:       &net.DNSError{Err: "lookup timeout", Name: "db.example.com", IsTimeout: true},
			transient: true,
		},
		{
			name:      "permanent dns failure",
			err:       &net.DNSError{Err: "no such record", Name: "db.example.com"},
			transient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.transient)
			}
		})
	}
}

func TestSQLServerErrorClassifier_MessagePatterns(t *testing.T) {
	classifier := NewSQLServerErrorClassifier()

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{
			name:      "dial refused",
			err:       errors.New("dial tcp 127.0.0.1:1433: connect: connection refused"),
			transient: true,
		},
		{
			name:      "transport-level error",
			err:       errors.New("A transport-level error has occurred when receiving results from the server"),
			transient: true,
		},
		{
			name:      "azure retry hint",
			err:       errors.New("Database 'app' on server 'srv' is not currently available. Please retry the connection later."),
			transient: true,
		},
		{
			name:      "io timeout",
			err:       errors.New("read tcp 10.0.0.5:49213->10.0.0.9:1433: i/o timeout"),
			transient: true,
		},
		{
			name:      "context deadline",
			err:       errors.New("context deadline exceeded"),
			transient: true,
		},
		{
			name:      "login failure",
			err:       errors.New("Login failed for user 'sa'"),
			transient: false,
		},
		{
			name:      "plain error",
			err:       errors.New("something else went wrong"),
			transient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient(%q) = %v, want %v", tt.err, got, tt.transient)
			}
		})
	}
}
