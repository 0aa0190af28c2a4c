package manager_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/sozezzo/MSTools/internal/db/manager"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// mockDBConnection is a test double for mstools.DBConnection
type mockDBConnection struct {
	execFunc     func(ctx context.Context, query string, args ...any) (sql.Result, error)
	queryRowFunc func(ctx context.Context, query string, args ...any) mstools.Row
}

func (m *mockDBConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, query, args...)
	}
	return mockResult{}, nil
}

func (m *mockDBConnection) QueryRowContext(ctx context.Context, query string, args ...any) mstools.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, query, args...)
	}
	return &mockRow{}
}

// mockRow is a test double for mstools.Row
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFunc != nil {
		return m.scanFunc(dest...)
	}
	return nil
}

type mockResult struct{}

func (mockResult) LastInsertId() (int64, error) { return 0, nil }
func (mockResult) RowsAffected() (int64, error) { return 0, nil }

func TestManager_Create_QuotesSpecialCharsInName(t *testing.T) {
	testCases := []struct {
		name     string
		dbName   string
		expected string
	}{
		{"plain name", "mydb", "CREATE DATABASE [mydb]"},
		{"name with spaces", "my database", "CREATE DATABASE [my database]"},
		{"name with closing bracket", "my]db", "CREATE DATABASE [my]]db]"},
		{"name with semicolon", "my;db", "CREATE DATABASE [my;db]"},
		{"name with dash", "my-db", "CREATE DATABASE [my-db]"},
		{"injection attempt", "x]; DROP DATABASE master; --", "CREATE DATABASE [x]]; DROP DATABASE master; --]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mgr := manager.New()

			var executedSQL string
			mockConn := &mockDBConnection{
				execFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
					executedSQL = query
					return mockResult{}, nil
				},
			}

			if err := mgr.Create(context.Background(), mockConn, tc.dbName); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			if executedSQL != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, executedSQL)
			}
		})
	}
}

func TestManager_Create_PropagatesError(t *testing.T) {
	mgr := manager.New()
	execErr := errors.New("permission denied")

	mockConn := &mockDBConnection{
		execFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			return nil, execErr
		},
	}

	err := mgr.Create(context.Background(), mockConn, "mydb")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, execErr) {
		t.Errorf("Expected wrapped exec error, got %v", err)
	}
	if !strings.Contains(err.Error(), "mydb") {
		t.Errorf("Expected error to name the database, got %v", err)
	}
}

func TestManager_Drop_QuotesName(t *testing.T) {
	mgr := manager.New()

	var executedSQL string
	mockConn := &mockDBConnection{
		execFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			executedSQL = query
			return mockResult{}, nil
		},
	}

	if err := mgr.Drop(context.Background(), mockConn, "my]db"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	if executedSQL != "DROP DATABASE [my]]db]" {
		t.Errorf("Unexpected SQL: %q", executedSQL)
	}
}

func TestManager_Exists(t *testing.T) {
	testCases := []struct {
		name     string
		dbID     int
		expected bool
	}{
		{"database exists", 1, true},
		{"database missing", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mgr := manager.New()

			var capturedQuery string
			mockConn := &mockDBConnection{
				queryRowFunc: func(ctx context.Context, query string, args ...any) mstools.Row {
					capturedQuery = query
					return &mockRow{
						scanFunc: func(dest ...any) error {
							*(dest[0].(*int)) = tc.dbID
							return nil
						},
					}
				},
			}

			exists, err := mgr.Exists(context.Background(), mockConn, "mydb")
			if err != nil {
				t.Fatalf("Exists failed: %v", err)
			}
			if exists != tc.expected {
				t.Errorf("Expected exists=%v, got %v", tc.expected, exists)
			}
			if !strings.Contains(capturedQuery, "DB_ID") {
				t.Errorf("Expected DB_ID lookup, got %q", capturedQuery)
			}
		})
	}
}

func TestManager_Exists_PropagatesError(t *testing.T) {
	mgr := manager.New()
	scanErr := errors.New("connection lost")

	mockConn := &mockDBConnection{
		queryRowFunc: func(ctx context.Context, query string, args ...any) mstools.Row {
			return &mockRow{
				scanFunc: func(dest ...any) error { return scanErr },
			}
		},
	}

	_, err := mgr.Exists(context.Background(), mockConn, "mydb")
	if !errors.Is(err, scanErr) {
		t.Errorf("Expected wrapped scan error, got %v", err)
	}
}

func TestManager_TerminateConnections_CyclesSingleUser(t *testing.T) {
	mgr := manager.New()

	var statements []string
	mockConn := &mockDBConnection{
		execFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			statements = append(statements, query)
			return mockResult{}, nil
		},
	}

	if err := mgr.TerminateConnections(context.Background(), mockConn, "mydb"); err != nil {
		t.Fatalf("TerminateConnections failed: %v", err)
	}

	if len(statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %v", len(statements), statements)
	}
	if statements[0] != "ALTER DATABASE [mydb] SET SINGLE_USER WITH ROLLBACK IMMEDIATE" {
		t.Errorf("Unexpected first statement: %q", statements[0])
	}
	if statements[1] != "ALTER DATABASE [mydb] SET MULTI_USER" {
		t.Errorf("Unexpected second statement: %q", statements[1])
	}
}

func TestManager_TerminateConnections_PropagatesError(t *testing.T) {
	mgr := manager.New()
	execErr := errors.New("database is in use")

	mockConn := &mockDBConnection{
		execFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			return nil, execErr
		},
	}

	err := mgr.TerminateConnections(context.Background(), mockConn, "mydb")
	if !errors.Is(err, execErr) {
		t.Errorf("Expected wrapped exec error, got %v", err)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"plain", "[plain]"},
		{"with space", "[with space]"},
		{"with]bracket", "[with]]bracket]"},
		{"]]", "[]]]]]"},
		{"", "[]"},
	}

	for _, tc := range testCases {
		if got := manager.QuoteIdentifier(tc.input); got != tc.expected {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
