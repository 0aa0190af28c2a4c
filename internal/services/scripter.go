package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sozezzo/MSTools/internal/scripter"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// ScriptService generates the full stage script set from a source database
// without touching any destination. The output is the exact script sequence
// a clone run would deploy, which makes it useful for review, versioning,
// and deferred manual deployment.
type ScriptService struct {
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error)
	logger           *slog.Logger
}

// NewScriptService creates a new ScriptService. A nil connectorFactory is a
// programmer error and panics; a nil logger discards log entries.
func NewScriptService(
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error),
	logger *slog.Logger,
) *ScriptService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScriptService{connectorFactory: connectorFactory, logger: logger}
}

// GenerateScripts writes one script per stage into the configured output
// directory and returns the paths in stage order. On error the returned
// slice holds the scripts written before the failure.
func (s *ScriptService) GenerateScripts(ctx context.Context, config mstools.ScriptConfig) ([]string, error) {
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

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", config.OutputDir, err)
	}

	connector, err := s.connectorFactory(srcConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	sourceDB, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to source: %w", err)
	}
	defer sourceDB.Close()

	generator := scripter.NewGenerator(sourceDB, srcConfig.Database, s.logger)

	var paths []string
	for _, stage := range mstools.DefaultStages(config.OutputDir, config.IncludeData, mstools.DefaultMaxPasses) {
		path, err := generator.Generate(ctx, stage)
		if err != nil {
			return paths, fmt.Errorf("generating %s script: %w", stage.Name, err)
		}
		paths = append(paths, path)
		s.logger.Info("stage script written", "stage", stage.Name, "path", path)
	}

	s.logger.Info("script generation finished", "database", srcConfig.Database, "scripts", len(paths))
	return paths, nil
}
