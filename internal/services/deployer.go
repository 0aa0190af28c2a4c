package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/scheduler"
	"github.com/sozezzo/MSTools/internal/splitter"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// DeployService implements the Deployer interface: it replays one existing
// script file against a destination database with the retry engine. This is
// the remediation path after a clone that left batches failing: edit the kept
// stage script and deploy just that file.
type DeployService struct {
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error)
	logger           *slog.Logger
}

// NewDeployService creates a new DeployService. Panics on a nil connector
// factory (programmer error, same boundary as NewCloneService). A nil logger
// discards log entries.
func NewDeployService(
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error),
	logger *slog.Logger,
) *DeployService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DeployService{
		connectorFactory: connectorFactory,
		logger:           logger,
	}
}

// Deploy splits the configured script into batches and runs them against the
// destination database. The returned outcome is populated whenever execution
// started, including catastrophic failures and runs that ended with failing
// batches.
func (s *DeployService) Deploy(ctx context.Context, config mstools.DeployConfig) (*mstools.DeploymentOutcome, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
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
	if dstConfig.Database == "" {
		return nil, fmt.Errorf("destination connection string must name a database: %w", mstools.ErrInvalidConfig)
	}

	content, err := os.ReadFile(config.ScriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("script %s does not exist: %w", config.ScriptPath, mstools.ErrScriptMissing)
		}
		return nil, fmt.Errorf("reading script %s: %w", config.ScriptPath, err)
	}

	batches, err := splitter.New().Split(string(content))
	if err != nil {
		return nil, fmt.Errorf("splitting script %s: %w", config.ScriptPath, err)
	}
	if len(batches) == 0 {
		s.logger.Info("script contains no batches, nothing to deploy", "script", config.ScriptPath)
		return &mstools.DeploymentOutcome{Success: true}, nil
	}

	pool, err := s.connect(ctx, dstConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to destination: %w", err)
	}
	defer pool.Close()

	exec, err := db.NewSessionExecutor(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if err := exec.Close(); err != nil {
			s.logger.Warn("closing session failed", "error", err)
		}
	}()

	maxPasses := config.MaxPasses
	if maxPasses <= 0 {
		maxPasses = mstools.DefaultMaxPasses
	}

	s.logger.Info("deploying script",
		"script", config.ScriptPath,
		"database", dstConfig.Database,
		"batches", len(batches),
		"max_passes", maxPasses)

	outcome, err := scheduler.New(s.logger).Run(ctx, batches, exec, maxPasses)
	if err != nil {
		return &outcome, err
	}
	if !outcome.Success {
		return &outcome, fmt.Errorf("%d of %d batches still failing after %d passes: %w",
			len(outcome.FailedBatches), outcome.TotalBatches, outcome.PassesUsed, mstools.ErrExecutionFailed)
	}
	return &outcome, nil
}

func (s *DeployService) connect(ctx context.Context, connConfig *mstools.ConnectionConfig) (*sql.DB, error) {
	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	return connector.Connect(ctx)
}

// Verify DeployService implements the Deployer interface at compile time
var _ mstools.Deployer = (*DeployService)(nil)
