// Package services wires the engine packages into the operations the CLI
// exposes: cloning a database, generating its stage scripts, and comparing
// two catalogs after the fact.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/pipeline"
	"github.com/sozezzo/MSTools/internal/scripter"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

type managementConnFunc func(ctx context.Context, connConfig *mstools.ConnectionConfig, dbName string) (mstools.DBConnection, func(), error)

// CloneService implements the Cloner interface.
// Thread-Safety: NOT safe for concurrent Clone() calls on the same instance.
// Create separate instances for concurrent clones.
type CloneService struct {
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error)
	approver         mstools.Approver
	dbManager        mstools.DatabaseManager
	logger           *slog.Logger
	mgmtConnector    managementConnFunc
}

// NewCloneService creates a new CloneService with all dependencies injected.
//
// Panic vs. Error Boundary Rationale:
//   - Panics on nil dependencies: These are programmer errors that should fail loudly
//     at application startup, not during request handling. Fail-fast at construction
//     time prevents cryptic nil pointer dereferences deep in call stacks.
//   - Returns errors for runtime conditions: Configuration validation, connection failures,
//     and approval outcomes are recoverable runtime conditions that should be handled
//     by the caller, not panics.
//
// A nil logger discards log entries.
func NewCloneService(
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error),
	approver mstools.Approver,
	dbManager mstools.DatabaseManager,
	logger *slog.Logger,
) *CloneService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	svc := &CloneService{
		connectorFactory: connectorFactory,
		approver:         approver,
		dbManager:        dbManager,
		logger:           logger,
	}
	svc.mgmtConnector = svc.defaultMgmtConnector
	return svc
}

// Clone executes a clone run using the provided configuration.
// This method orchestrates the workflow by calling smaller, focused methods:
// prepare the destination database, connect both sides, then hand the stage
// sequence to the pipeline. The returned PipelineRun is nil only when the
// run never started; once stages execute it is returned even on error.
func (s *CloneService) Clone(ctx context.Context, config mstools.CloneConfig) (*mstools.PipelineRun, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	srcConfig, err := parseEndpoint(config.SourceConnectionString, authOptions{
		method:         config.AuthMethod,
		azureTenantID:  config.AzureTenantID,
		azureClientID:  config.AzureClientID,
		azureSecret:    config.AzureClientSecret,
		googleInstance: config.GoogleSourceInstance,
	})
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if srcConfig.Database == "" {
		return nil, fmt.Errorf("source connection string must name a database: %w", mstools.ErrInvalidConfig)
	}

	dstConfig, err := parseEndpoint(config.DestinationConnectionString, authOptions{
		method:         config.AuthMethod,
		azureTenantID:  config.AzureTenantID,
		azureClientID:  config.AzureClientID,
		azureSecret:    config.AzureClientSecret,
		googleInstance: config.GoogleDestinationInstance,
	})
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	if config.IncludeData && !sameServer(srcConfig, dstConfig) {
		return nil, fmt.Errorf(
			"data copy requires source and destination on the same server: "+
				"the generated INSERT statements read the source database by name: %w",
			mstools.ErrInvalidConfig)
	}
	if strings.EqualFold(srcConfig.Database, config.DatabaseName) && sameServer(srcConfig, dstConfig) {
		return nil, fmt.Errorf("source and destination are the same database %q: %w",
			config.DatabaseName, mstools.ErrInvalidConfig)
	}

	scriptDir, cleanupScripts, err := s.resolveScriptDir(config)
	if err != nil {
		return nil, err
	}
	defer cleanupScripts()

	// Build the stage sequence up front so a bad override fails before the
	// destination database is created or dropped.
	maxPasses := config.MaxPasses
	if maxPasses <= 0 {
		maxPasses = mstools.DefaultMaxPasses
	}
	stages, err := mstools.ApplyStageOverrides(
		mstools.DefaultStages(scriptDir, config.IncludeData, maxPasses), config.StageOverrides)
	if err != nil {
		return nil, err
	}

	if err := s.prepareDestination(ctx, dstConfig, config); err != nil {
		return nil, err
	}

	sourceDB, err := s.connect(ctx, srcConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to source: %w", err)
	}
	defer sourceDB.Close()

	targetConfig := *dstConfig
	targetConfig.Database = config.DatabaseName
	destDB, err := s.connect(ctx, &targetConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to destination: %w", err)
	}
	defer destDB.Close()

	generator := scripter.NewGenerator(sourceDB, srcConfig.Database, s.logger)
	pipe := pipeline.New(generator, s.logger)

	factory := func(ctx context.Context) (mstools.BatchExecutor, func() error, error) {
		exec, err := db.NewSessionExecutor(ctx, destDB)
		if err != nil {
			return nil, nil, err
		}
		return exec, exec.Close, nil
	}

	run, err := pipe.Run(ctx, srcConfig.Database, config.DatabaseName, stages, factory)
	if err != nil {
		return run, err
	}
	if !run.Succeeded() {
		return run, fmt.Errorf("%d of %d stages finished with failing batches: %w",
			len(run.FailedStages()), len(run.Stages), mstools.ErrExecutionFailed)
	}
	return run, nil
}

// prepareDestination brings the destination database into a deployable
// state: dropped and recreated under the overwrite workflow, or created
// when missing otherwise.
func (s *CloneService) prepareDestination(ctx context.Context, connConfig *mstools.ConnectionConfig, config mstools.CloneConfig) error {
	if config.Overwrite {
		if err := s.handleOverwrite(ctx, connConfig, config); err != nil {
			return fmt.Errorf("overwrite workflow failed: %w", err)
		}
		return nil
	}
	if err := s.ensureDatabaseExists(ctx, connConfig, config); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}
	return nil
}

func validateOverwriteTarget(targetDB, managementDB string) error {
	if strings.EqualFold(targetDB, managementDB) {
		return fmt.Errorf(
			"cannot overwrite database %q: it is the management database mstools connects to for server-level operations: %w",
			targetDB, mstools.ErrInvalidConfig)
	}
	if mstools.IsSystemDatabase(targetDB) {
		return fmt.Errorf(
			"cannot overwrite database %q: SQL Server system databases cannot be dropped: %w",
			targetDB, mstools.ErrInvalidConfig)
	}
	return nil
}

// handleOverwrite handles the database drop and recreate workflow.
func (s *CloneService) handleOverwrite(ctx context.Context, connConfig *mstools.ConnectionConfig, config mstools.CloneConfig) error {
	managementDB := config.ManagementDatabase
	if managementDB == "" {
		managementDB = mstools.DefaultManagementDB
	}

	if err := validateOverwriteTarget(config.DatabaseName, managementDB); err != nil {
		return err
	}

	s.logger.Debug("connecting to management database", "database", managementDB)
	dbConn, cleanup, err := s.mgmtConnector(ctx, connConfig, managementDB)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := s.dbManager.Exists(ctx, dbConn, config.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		s.logger.Info("destination database does not exist, creating", "database", config.DatabaseName)
		if err := s.dbManager.Create(ctx, dbConn, config.DatabaseName); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		return nil
	}

	s.logger.Debug("destination database exists, requesting approval for overwrite", "database", config.DatabaseName)
	approved, err := s.approver.RequestApproval(ctx, config.DatabaseName)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return mstools.ErrApprovalDenied
	}

	s.logger.Debug("terminating connections", "database", config.DatabaseName)
	if err := s.dbManager.TerminateConnections(ctx, dbConn, config.DatabaseName); err != nil {
		return fmt.Errorf("failed to terminate connections: %w", err)
	}

	s.logger.Debug("dropping database", "database", config.DatabaseName)
	if err := s.dbManager.Drop(ctx, dbConn, config.DatabaseName); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}

	s.logger.Debug("creating database", "database", config.DatabaseName)
	if err := s.dbManager.Create(ctx, dbConn, config.DatabaseName); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	s.logger.Info("destination database recreated", "database", config.DatabaseName)
	return nil
}

// ensureDatabaseExists ensures the destination database exists, creating it if necessary.
func (s *CloneService) ensureDatabaseExists(ctx context.Context, connConfig *mstools.ConnectionConfig, config mstools.CloneConfig) error {
	managementDB := config.ManagementDatabase
	if managementDB == "" {
		managementDB = mstools.DefaultManagementDB
	}

	dbConn, cleanup, err := s.mgmtConnector(ctx, connConfig, managementDB)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := s.dbManager.Exists(ctx, dbConn, config.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		s.logger.Info("destination database does not exist, creating", "database", config.DatabaseName)
		if err := s.dbManager.Create(ctx, dbConn, config.DatabaseName); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	} else {
		s.logger.Debug("destination database already exists", "database", config.DatabaseName)
	}

	return nil
}

// resolveScriptDir picks the directory stage scripts are written to and
// returns the cleanup that runs after the clone. An explicit directory is
// always kept; a temporary one is removed unless KeepScripts is set.
func (s *CloneService) resolveScriptDir(config mstools.CloneConfig) (string, func(), error) {
	if config.ScriptDir != "" {
		if err := os.MkdirAll(config.ScriptDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("creating script directory %s: %w", config.ScriptDir, err)
		}
		return config.ScriptDir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "mstools-scripts-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temporary script directory: %w", err)
	}
	if config.KeepScripts {
		s.logger.Info("stage scripts will be kept", "dir", dir)
		return dir, func() {}, nil
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("could not remove temporary script directory", "dir", dir, "error", err)
		}
	}, nil
}

func (s *CloneService) connect(ctx context.Context, connConfig *mstools.ConnectionConfig) (*sql.DB, error) {
	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	return connector.Connect(ctx)
}

func (s *CloneService) defaultMgmtConnector(ctx context.Context, connConfig *mstools.ConnectionConfig, dbName string) (mstools.DBConnection, func(), error) {
	mgmtConfig := *connConfig
	mgmtConfig.Database = dbName

	pool, err := s.connect(ctx, &mgmtConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to management database: %w", err)
	}

	cleanup := func() {
		if err := pool.Close(); err != nil {
			s.logger.Warn("closing management connection failed", "error", err)
		}
	}
	return db.NewPoolAdapter(pool), cleanup, nil
}

// Verify CloneService implements the Cloner interface at compile time
var _ mstools.Cloner = (*CloneService)(nil)
