package services

import (
	"context"
	"database/sql"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

type mockConnector struct {
	db  *sql.DB
	err error
}

func (m *mockConnector) Connect(_ context.Context) (*sql.DB, error) {
	return m.db, m.err
}

type mockApprover struct {
	approved bool
	err      error
	requests int
}

func (m *mockApprover) RequestApproval(_ context.Context, _ string) (bool, error) {
	m.requests++
	return m.approved, m.err
}

// mockDatabaseManager records the order of lifecycle calls so tests can
// assert the overwrite sequence, not just its end state.
type mockDatabaseManager struct {
	existsResult bool
	existsErr    error
	createErr    error
	dropErr      error
	terminateErr error
	calls        []string
}

func (m *mockDatabaseManager) Exists(_ context.Context, _ mstools.DBConnection, _ string) (bool, error) {
	m.calls = append(m.calls, "exists")
	return m.existsResult, m.existsErr
}

func (m *mockDatabaseManager) Create(_ context.Context, _ mstools.DBConnection, _ string) error {
	m.calls = append(m.calls, "create")
	return m.createErr
}

func (m *mockDatabaseManager) Drop(_ context.Context, _ mstools.DBConnection, _ string) error {
	m.calls = append(m.calls, "drop")
	return m.dropErr
}

func (m *mockDatabaseManager) TerminateConnections(_ context.Context, _ mstools.DBConnection, _ string) error {
	m.calls = append(m.calls, "terminate")
	return m.terminateErr
}

type mockDBConnection struct{}

func (m *mockDBConnection) ExecContext(_ context.Context, _ string, _ ...any) (sql.Result, error) {
	return nil, nil
}

func (m *mockDBConnection) QueryRowContext(_ context.Context, _ string, _ ...any) mstools.Row {
	return &mockRow{}
}

type mockRow struct{}

func (m *mockRow) Scan(_ ...any) error { return nil }
