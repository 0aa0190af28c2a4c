package db

import (
	"errors"
	"strings"
	"testing"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		host         string
		port         int
		database     string
		wantContains string
	}{
		{
			name:         "connection refused",
			errMsg:       "dial tcp 127.0.0.1:1433: connection refused",
			host:         "127.0.0.1",
			port:         1433,
			database:     "mydb",
			wantContains: "connection refused to 127.0.0.1:1433",
		},
		{
			name:         "actively refused (Windows)",
			errMsg:       "dial tcp 127.0.0.1:1433: connectex: No connection could be made because the target machine actively refused it",
			host:         "127.0.0.1",
			port:         1433,
			database:     "mydb",
			wantContains: "connection refused to 127.0.0.1:1433",
		},
		{
			name:         "no such host",
			errMsg:       "dial tcp: lookup badhost.example.com: no such host",
			host:         "badhost.example.com",
			port:         1433,
			database:     "mydb",
			wantContains: `cannot resolve host "badhost.example.com"`,
		},
		{
			name:         "login failed",
			errMsg:       "mssql: login error: Login failed for user 'sa'",
			host:         "localhost",
			port:         1433,
			database:     "testdb",
			wantContains: `login failed for database "testdb"`,
		},
		{
			name:         "cannot open database",
			errMsg:       "mssql: Cannot open database \"nope\" requested by the login. The login failed.",
			host:         "localhost",
			port:         1433,
			database:     "nope",
			wantContains: `cannot open database "nope"`,
		},
		{
			name:         "timeout",
			errMsg:       "dial tcp 10.0.0.1:1433: i/o timeout",
			host:         "10.0.0.1",
			port:         1433,
			database:     "mydb",
			wantContains: "connection timed out to 10.0.0.1:1433",
		},
		{
			name:         "certificate error",
			errMsg:       "TLS Handshake failed: x509: certificate signed by unknown authority",
			host:         "localhost",
			port:         1433,
			database:     "mydb",
			wantContains: "TLS connection error",
		},
		{
			name:         "unknown error falls through",
			errMsg:       "some unexpected driver fault",
			host:         "localhost",
			port:         1433,
			database:     "mydb",
			wantContains: "failed to connect to database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := errors.New(tt.errMsg)
			wrapped := wrapConnectionError(original, tt.host, tt.port, tt.database)

			if !strings.Contains(wrapped.Error(), tt.wantContains) {
				t.Errorf("Expected %q in error, got:\n%s", tt.wantContains, wrapped.Error())
			}

			// The original error must stay reachable for errors.Is checks.
			if !errors.Is(wrapped, original) {
				t.Errorf("Expected wrapped error to preserve the original")
			}
		})
	}
}

func TestWrapConnectionError_MentionsCannotOpenGuidance(t *testing.T) {
	err := wrapConnectionError(
		errors.New("mssql: Cannot open database \"clone_target\" requested by the login"),
		"localhost", 1433, "clone_target",
	)

	if !strings.Contains(err.Error(), "--overwrite") {
		t.Errorf("Expected clone guidance in error, got:\n%s", err.Error())
	}
}

func TestNewConnector_UnsupportedAuthMethod(t *testing.T) {
	config := &mstools.ConnectionConfig{
		Host:       "localhost",
		Port:       1433,
		AuthMethod: mstools.AuthMethod(99),
	}

	_, err := NewConnector(config)
	if err == nil {
		t.Fatal("Expected error for unsupported auth method")
	}
	if !errors.Is(err, mstools.ErrUnsupportedAuthMethod) {
		t.Errorf("Expected ErrUnsupportedAuthMethod, got %v", err)
	}
}

func TestNewConnector_SelectsStandardConnector(t *testing.T) {
	config := &mstools.ConnectionConfig{
		Host:       "localhost",
		Port:       1433,
		Username:   "sa",
		AuthMethod: mstools.AuthMethodStandard,
	}

	connector, err := NewConnector(config)
	if err != nil {
		t.Fatalf("NewConnector failed: %v", err)
	}
	if _, ok := connector.(*StandardConnector); !ok {
		t.Errorf("Expected *StandardConnector, got %T", connector)
	}
}

func TestNewConnector_GoogleRequiresInstance(t *testing.T) {
	config := &mstools.ConnectionConfig{
		Host:       "localhost",
		Username:   "sa",
		AuthMethod: mstools.AuthMethodGoogleCloudSQL,
	}

	_, err := NewConnector(config)
	if err == nil {
		t.Fatal("Expected error for missing instance connection name")
	}
	if !strings.Contains(err.Error(), "project:region:instance") {
		t.Errorf("Expected instance format hint, got %v", err)
	}
}

func TestNewConnector_GoogleSelectsCloudSQLConnector(t *testing.T) {
	config := &mstools.ConnectionConfig{
		Username:       "sqlserver",
		Password:       "pw",
		Database:       "app",
		AuthMethod:     mstools.AuthMethodGoogleCloudSQL,
		GoogleInstance: "proj:us-central1:inst",
	}

	connector, err := NewConnector(config)
	if err != nil {
		t.Fatalf("NewConnector failed: %v", err)
	}
	if _, ok := connector.(*GoogleCloudSQLConnector); !ok {
		t.Errorf("Expected *GoogleCloudSQLConnector, got %T", connector)
	}
}
