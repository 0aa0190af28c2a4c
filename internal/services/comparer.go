package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/sozezzo/MSTools/internal/compare"
	"github.com/sozezzo/MSTools/internal/report"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// CompareService implements the Comparer interface. It connects to both
// databases, takes catalog snapshots and reports every source object the
// destination is missing or renders differently.
type CompareService struct {
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error)
	logger           *slog.Logger
}

// NewCompareService creates a new CompareService. A nil connectorFactory is
// a programmer error and panics; a nil logger discards log entries.
func NewCompareService(
	connectorFactory func(*mstools.ConnectionConfig) (mstools.Connector, error),
	logger *slog.Logger,
) *CompareService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CompareService{connectorFactory: connectorFactory, logger: logger}
}

// Compare examines both databases and reports every discrepancy.
// A non-empty issue list is not an error; the report carries it.
func (s *CompareService) Compare(ctx context.Context, config mstools.CompareConfig) (*mstools.CompareReport, error) {
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
	if dstConfig.Database == "" {
		return nil, fmt.Errorf("destination connection string must name a database: %w", mstools.ErrInvalidConfig)
	}

	srcDB, err := s.connect(ctx, srcConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to source: %w", err)
	}
	defer srcDB.Close()

	dstDB, err := s.connect(ctx, dstConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to destination: %w", err)
	}
	defer dstDB.Close()

	comparator := compare.New(srcDB, dstDB, srcConfig.Database, dstConfig.Database, s.logger)
	rep, err := comparator.Compare(ctx, config.IncludeRowCounts)
	if err != nil {
		return nil, err
	}

	if config.HTMLReportPath != "" {
		if err := report.WriteCompareHTML(config.HTMLReportPath, rep); err != nil {
			return rep, err
		}
		s.logger.Info("html report written", "path", config.HTMLReportPath)
	}

	return rep, nil
}

func (s *CompareService) connect(ctx context.Context, connConfig *mstools.ConnectionConfig) (*sql.DB, error) {
	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	return connector.Connect(ctx)
}

// Verify CompareService implements the Comparer interface at compile time
var _ mstools.Comparer = (*CompareService)(nil)
