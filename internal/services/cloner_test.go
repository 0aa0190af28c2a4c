package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

func validDeps() (
	func(*mstools.ConnectionConfig) (mstools.Connector, error),
	mstools.Approver,
	mstools.DatabaseManager,
	*slog.Logger,
) {
	connFactory := func(_ *mstools.ConnectionConfig) (mstools.Connector, error) {
		return &mockConnector{}, nil
	}
	return connFactory, &mockApprover{}, &mockDatabaseManager{}, slog.New(slog.DiscardHandler)
}

func validConfig() mstools.CloneConfig {
	return mstools.CloneConfig{
		SourceConnectionString:      "sqlserver://sa:pw@dbhost:1433?database=ProdDB",
		DestinationConnectionString: "sqlserver://sa:pw@db2.example.com:1433",
		DatabaseName:                "ProdDB_Clone",
	}
}

func newTestService(
	dbMgr *mockDatabaseManager,
	approver *mockApprover,
	mgmtConn managementConnFunc,
) *CloneService {
	cf, _, _, lg := validDeps()
	if dbMgr == nil {
		dbMgr = &mockDatabaseManager{}
	}
	if approver == nil {
		approver = &mockApprover{}
	}
	svc := NewCloneService(cf, approver, dbMgr, lg)
	if mgmtConn != nil {
		svc.mgmtConnector = mgmtConn
	}
	return svc
}

func noop() {}

func successfulMgmtConn() managementConnFunc {
	return func(_ context.Context, _ *mstools.ConnectionConfig, _ string) (mstools.DBConnection, func(), error) {
		return &mockDBConnection{}, noop, nil
	}
}

func failingMgmtConn(err error) managementConnFunc {
	return func(_ context.Context, _ *mstools.ConnectionConfig, _ string) (mstools.DBConnection, func(), error) {
		return nil, nil, err
	}
}

func TestNewCloneService_NilDeps(t *testing.T) {
	cf, ap, dm, lg := validDeps()

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil connectorFactory", func() { NewCloneService(nil, ap, dm, lg) }},
		{"nil approver", func() { NewCloneService(cf, nil, dm, lg) }},
		{"nil dbManager", func() { NewCloneService(cf, ap, nil, lg) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestNewCloneService_NilLoggerAllowed(t *testing.T) {
	cf, ap, dm, _ := validDeps()
	svc := NewCloneService(cf, ap, dm, nil)
	if svc.logger == nil {
		t.Fatal("Expected a discard logger, got nil")
	}
}

func TestClone_InvalidConfig(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx := context.Background()

	missingSource := validConfig()
	missingSource.SourceConnectionString = ""

	missingDest := validConfig()
	missingDest.DestinationConnectionString = ""

	missingName := validConfig()
	missingName.DatabaseName = ""

	forceWithoutOverwrite := validConfig()
	forceWithoutOverwrite.Force = true

	negativePasses := validConfig()
	negativePasses.MaxPasses = -1

	tests := []struct {
		name   string
		config mstools.CloneConfig
	}{
		{"missing SourceConnectionString", missingSource},
		{"missing DestinationConnectionString", missingDest},
		{"missing DatabaseName", missingName},
		{"force without overwrite", forceWithoutOverwrite},
		{"negative max passes", negativePasses},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := svc.Clone(ctx, tt.config)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, mstools.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got: %v", err)
			}
			if run != nil {
				t.Error("Expected nil run for invalid configuration")
			}
		})
	}
}

func TestClone_SourceMustNameDatabase(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	config := validConfig()
	config.SourceConnectionString = "sqlserver://sa:pw@dbhost:1433"

	_, err := svc.Clone(context.Background(), config)
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
	if !strings.Contains(err.Error(), "must name a database") {
		t.Errorf("Expected database requirement in message, got: %v", err)
	}
}

func TestClone_DataCopyRequiresSameServer(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	config := validConfig()
	config.IncludeData = true // source dbhost, destination db2.example.com

	_, err := svc.Clone(context.Background(), config)
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
	if !strings.Contains(err.Error(), "same server") {
		t.Errorf("Expected same-server requirement in message, got: %v", err)
	}
}

func TestClone_DataCopySameServerPasses(t *testing.T) {
	// Same host: the guard must not trip. The run then proceeds to the
	// overwrite workflow, which is cut off by a failing management conn.
	sentinel := errors.New("stop here")
	svc := newTestService(nil, nil, failingMgmtConn(sentinel))

	config := validConfig()
	config.IncludeData = true
	config.DestinationConnectionString = "sqlserver://sa:pw@DBHOST:1433"

	_, err := svc.Clone(context.Background(), config)
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected the management connection error, got: %v", err)
	}
}

func TestClone_RejectsCloningOntoSource(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	config := validConfig()
	config.DestinationConnectionString = "sqlserver://sa:pw@dbhost:1433"
	config.DatabaseName = "proddb" // source database, different case

	_, err := svc.Clone(context.Background(), config)
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
	if !strings.Contains(err.Error(), "same database") {
		t.Errorf("Expected same-database rejection in message, got: %v", err)
	}
}

func TestClone_BadStageOverrideStopsBeforeDestination(t *testing.T) {
	mgr := &mockDatabaseManager{}
	svc := newTestService(mgr, nil, successfulMgmtConn())

	config := validConfig()
	config.StageOverrides = []mstools.StageOverride{{Name: "indexs", MaxPasses: 10}}

	run, err := svc.Clone(context.Background(), config)
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
	if run != nil {
		t.Error("Expected nil run for a bad stage override")
	}
	if len(mgr.calls) != 0 {
		t.Errorf("Expected no lifecycle calls before override validation, got %v", mgr.calls)
	}
}

func TestClone_OverwriteDenied(t *testing.T) {
	mgr := &mockDatabaseManager{existsResult: true}
	approver := &mockApprover{approved: false}
	svc := newTestService(mgr, approver, successfulMgmtConn())

	config := validConfig()
	config.Overwrite = true

	run, err := svc.Clone(context.Background(), config)
	if !errors.Is(err, mstools.ErrApprovalDenied) {
		t.Fatalf("Expected ErrApprovalDenied, got: %v", err)
	}
	if run != nil {
		t.Error("Expected nil run when the overwrite is denied")
	}
	if approver.requests != 1 {
		t.Errorf("Expected exactly one approval request, got %d", approver.requests)
	}
	if !reflect.DeepEqual(mgr.calls, []string{"exists"}) {
		t.Errorf("Expected no lifecycle calls after denial, got %v", mgr.calls)
	}
}

func TestClone_EnsureExistsRunsBeforeConnecting(t *testing.T) {
	mgr := &mockDatabaseManager{existsResult: true}
	connectorErr := errors.New("dial failed")
	cf := func(_ *mstools.ConnectionConfig) (mstools.Connector, error) {
		return nil, connectorErr
	}
	svc := NewCloneService(cf, &mockApprover{}, mgr, slog.New(slog.DiscardHandler))
	svc.mgmtConnector = successfulMgmtConn()

	_, err := svc.Clone(context.Background(), validConfig())
	if !errors.Is(err, connectorErr) {
		t.Fatalf("Expected the source connection error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "connecting to source") {
		t.Errorf("Expected source connection context in message, got: %v", err)
	}
	if !reflect.DeepEqual(mgr.calls, []string{"exists"}) {
		t.Errorf("Expected destination existence check before connecting, got %v", mgr.calls)
	}
}

func TestValidateOverwriteTarget(t *testing.T) {
	tests := []struct {
		name         string
		targetDB     string
		managementDB string
		wantErr      bool
	}{
		{"management database", "master", "master", true},
		{"management database different case", "Master", "master", true},
		{"custom management database", "ops", "ops", true},
		{"system database master", "master", "ops", true},
		{"system database model", "model", "master", true},
		{"system database msdb", "MSDB", "master", true},
		{"system database tempdb", "tempdb", "master", true},
		{"ordinary database", "ProdDB_Clone", "master", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOverwriteTarget(tt.targetDB, tt.managementDB)
			if tt.wantErr {
				if !errors.Is(err, mstools.ErrInvalidConfig) {
					t.Errorf("Expected ErrInvalidConfig, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestHandleOverwrite_CreatesWhenMissing(t *testing.T) {
	mgr := &mockDatabaseManager{existsResult: false}
	approver := &mockApprover{approved: true}
	svc := newTestService(mgr, approver, successfulMgmtConn())

	config := validConfig()
	config.Overwrite = true

	if err := svc.handleOverwrite(context.Background(), &mstools.ConnectionConfig{}, config); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if approver.requests != 0 {
		t.Errorf("Creating a missing database must not require approval, got %d requests", approver.requests)
	}
	if !reflect.DeepEqual(mgr.calls, []string{"exists", "create"}) {
		t.Errorf("Expected exists then create, got %v", mgr.calls)
	}
}

func TestHandleOverwrite_DropSequence(t *testing.T) {
	mgr := &mockDatabaseManager{existsResult: true}
	approver := &mockApprover{approved: true}
	svc := newTestService(mgr, approver, successfulMgmtConn())

	config := validConfig()
	config.Overwrite = true

	if err := svc.handleOverwrite(context.Background(), &mstools.ConnectionConfig{}, config); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"exists", "terminate", "drop", "create"}
	if !reflect.DeepEqual(mgr.calls, want) {
		t.Errorf("Expected %v, got %v", want, mgr.calls)
	}
}

func TestHandleOverwrite_ApprovalError(t *testing.T) {
	approvalErr := errors.New("stdin closed")
	mgr := &mockDatabaseManager{existsResult: true}
	svc := newTestService(mgr, &mockApprover{err: approvalErr}, successfulMgmtConn())

	config := validConfig()
	config.Overwrite = true

	err := svc.handleOverwrite(context.Background(), &mstools.ConnectionConfig{}, config)
	if !errors.Is(err, approvalErr) {
		t.Fatalf("Expected approval error, got: %v", err)
	}
	if !reflect.DeepEqual(mgr.calls, []string{"exists"}) {
		t.Errorf("Expected no lifecycle calls after approval error, got %v", mgr.calls)
	}
}

func TestHandleOverwrite_TerminateFails(t *testing.T) {
	terminateErr := errors.New("SINGLE_USER switch blocked")
	mgr := &mockDatabaseManager{existsResult: true, terminateErr: terminateErr}
	svc := newTestService(mgr, &mockApprover{approved: true}, successfulMgmtConn())

	config := validConfig()
	config.Overwrite = true

	err := svc.handleOverwrite(context.Background(), &mstools.ConnectionConfig{}, config)
	if !errors.Is(err, terminateErr) {
		t.Fatalf("Expected terminate error, got: %v", err)
	}
	if !reflect.DeepEqual(mgr.calls, []string{"exists", "terminate"}) {
		t.Errorf("The drop must not run after a failed terminate, got %v", mgr.calls)
	}
}

func TestHandleOverwrite_RejectsSystemTarget(t *testing.T) {
	mgr := &mockDatabaseManager{}
	svc := newTestService(mgr, nil, successfulMgmtConn())

	config := validConfig()
	config.Overwrite = true
	config.DatabaseName = "msdb"

	err := svc.handleOverwrite(context.Background(), &mstools.ConnectionConfig{}, config)
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
	if len(mgr.calls) != 0 {
		t.Errorf("The server must not be touched for a rejected target, got %v", mgr.calls)
	}
}

func TestEnsureDatabaseExists(t *testing.T) {
	t.Run("creates when missing", func(t *testing.T) {
		mgr := &mockDatabaseManager{existsResult: false}
		svc := newTestService(mgr, nil, successfulMgmtConn())

		if err := svc.ensureDatabaseExists(context.Background(), &mstools.ConnectionConfig{}, validConfig()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !reflect.DeepEqual(mgr.calls, []string{"exists", "create"}) {
			t.Errorf("Expected exists then create, got %v", mgr.calls)
		}
	})

	t.Run("no-op when present", func(t *testing.T) {
		mgr := &mockDatabaseManager{existsResult: true}
		svc := newTestService(mgr, nil, successfulMgmtConn())

		if err := svc.ensureDatabaseExists(context.Background(), &mstools.ConnectionConfig{}, validConfig()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !reflect.DeepEqual(mgr.calls, []string{"exists"}) {
			t.Errorf("Expected only the existence check, got %v", mgr.calls)
		}
	})

	t.Run("management connection failure", func(t *testing.T) {
		mgmtErr := errors.New("login failed")
		svc := newTestService(nil, nil, failingMgmtConn(mgmtErr))

		err := svc.ensureDatabaseExists(context.Background(), &mstools.ConnectionConfig{}, validConfig())
		if !errors.Is(err, mgmtErr) {
			t.Fatalf("Expected management connection error, got: %v", err)
		}
	})
}

func TestResolveScriptDir(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	t.Run("explicit directory is created and kept", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "scripts")
		config := validConfig()
		config.ScriptDir = dir

		got, cleanup, err := svc.resolveScriptDir(config)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != dir {
			t.Errorf("Expected %s, got %s", dir, got)
		}
		cleanup()
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("Explicit script directory must survive cleanup: %v", err)
		}
	})

	t.Run("temporary directory is removed", func(t *testing.T) {
		got, cleanup, err := svc.resolveScriptDir(validConfig())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := os.Stat(got); err != nil {
			t.Fatalf("Expected the temporary directory to exist: %v", err)
		}
		cleanup()
		if _, err := os.Stat(got); !os.IsNotExist(err) {
			t.Errorf("Expected the temporary directory to be removed, stat err: %v", err)
		}
	})

	t.Run("temporary directory kept with KeepScripts", func(t *testing.T) {
		config := validConfig()
		config.KeepScripts = true

		got, cleanup, err := svc.resolveScriptDir(config)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		defer os.RemoveAll(got)
		cleanup()
		if _, err := os.Stat(got); err != nil {
			t.Errorf("KeepScripts must preserve the directory: %v", err)
		}
	})
}
