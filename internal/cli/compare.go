package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/report"
	"github.com/sozezzo/MSTools/internal/services"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two database schemas",
	Long: `Compare examines a source and a destination database and reports every
object the destination is missing or renders differently.

Run it after a clone to verify convergence: tables, indexes, constraints and
programmable objects are matched by case-insensitive name, definitions by
normalized text. A clean comparison exits 0; discrepancies exit 1.

Compare takes both endpoints as connection strings; there are no granular
flags because it never builds a server from defaults.

Examples:
  # Verify a finished clone
  mstools compare \
    --source "sqlserver://sa@prod:1433?database=AppDB" \
    --destination "sqlserver://sa@staging:1433?database=AppDB_Copy"

  # Include row counts (slower, catches data drift)
  mstools compare --source $SRC --destination $DST --row-counts

  # Keep an HTML report next to the console summary
  mstools compare --source $SRC --destination $DST --html-report compare.html`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

type compareFlagValues struct {
	source, destination string
	azure               azureFlagValues
	googleSource        string
	googleDestination   string
	rowCounts           bool
	htmlReport          string
	timeout             time.Duration
}

var compareFlags compareFlagValues

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareFlags.source, "source", "",
		"Source connection string (URI or ADO.NET format). Must name a database.\n"+
			"Precedence: --source > $MSTOOLS_SOURCE > mstools.yaml source")
	compareCmd.Flags().StringVar(&compareFlags.destination, "destination", "",
		"Destination connection string (URI or ADO.NET format). Must name a database.\n"+
			"Precedence: --destination > $MSTOOLS_DESTINATION > mstools.yaml destination")

	compareFlags.azure.register(compareCmd)
	compareCmd.Flags().StringVar(&compareFlags.googleSource, "google-source-instance", "",
		"Cloud SQL instance connection name for the source (project:region:instance)")
	compareCmd.Flags().StringVar(&compareFlags.googleDestination, "google-destination-instance", "",
		"Cloud SQL instance connection name for the destination (project:region:instance)")

	compareCmd.Flags().BoolVar(&compareFlags.rowCounts, "row-counts", false,
		"Also compare per-table row counts")
	compareCmd.Flags().StringVar(&compareFlags.htmlReport, "html-report", "",
		"Write an HTML comparison report to this file")
	compareCmd.Flags().DurationVar(&compareFlags.timeout, "timeout", mstools.DefaultTimeout,
		"Catastrophic failure protection timeout for the whole comparison")
}

// buildCompareConfig builds a CompareConfig from CLI flags, environment
// variables and mstools.yaml. Extracted from runCompare for testability.
func buildCompareConfig(cmd *cobra.Command, logger *slog.Logger) (mstools.CompareConfig, error) {
	projectCfg, err := loadProjectConfig()
	if err != nil {
		return mstools.CompareConfig{}, err
	}

	srcString, err := requireSourceString(compareFlags.source, projectCfg)
	if err != nil {
		return mstools.CompareConfig{}, err
	}

	dstString := destinationConnString(compareFlags.destination, projectCfg)
	if dstString == "" {
		return mstools.CompareConfig{}, fmt.Errorf("destination connection is required\n"+
			"Provide via:\n"+
			"  1. --destination flag: --destination \"sqlserver://sa@staging?database=AppDB_Copy\"\n"+
			"  2. Environment variable: export MSTOOLS_DESTINATION=\"sqlserver://...\"\n"+
			"  3. mstools.yaml destination entry: %w", mstools.ErrInvalidConfig)
	}

	srcEndpoint, err := resolveEndpoint(srcString, nil, compareFlags.azure.flags(),
		&db.GoogleFlags{Instance: compareFlags.googleSource}, projectCfg, "source")
	if err != nil {
		return mstools.CompareConfig{}, err
	}

	dstEndpoint, err := resolveEndpoint(dstString, nil, compareFlags.azure.flags(),
		&db.GoogleFlags{Instance: compareFlags.googleDestination}, projectCfg, "destination")
	if err != nil {
		return mstools.CompareConfig{}, err
	}

	logEndpoint(logger, "source", srcEndpoint)
	logEndpoint(logger, "destination", dstEndpoint)

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, compareFlags.timeout)
	if err != nil {
		return mstools.CompareConfig{}, err
	}

	return mstools.CompareConfig{
		SourceConnectionString:      srcEndpoint.ConnString(),
		DestinationConnectionString: dstEndpoint.ConnString(),
		IncludeRowCounts:            compareFlags.rowCounts,
		HTMLReportPath:              compareFlags.htmlReport,
		Timeout:                     timeout,
		Verbose:                     getVerboseFlag(cmd),
		AuthMethod:                  dstEndpoint.Config.AuthMethod,
		AzureTenantID:               dstEndpoint.Config.AzureTenantID,
		AzureClientID:               dstEndpoint.Config.AzureClientID,
		AzureClientSecret:           dstEndpoint.Config.AzureClientSecret,
		GoogleSourceInstance:        compareFlags.googleSource,
		GoogleDestinationInstance:   compareFlags.googleDestination,
	}, nil
}

func runCompare(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)

	config, err := buildCompareConfig(cmd, logger)
	if err != nil {
		return err
	}

	comparer := services.NewCompareService(db.NewConnector, logger)

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	rep, err := comparer.Compare(ctx, config)
	if rep != nil {
		report.WriteCompareSummary(os.Stdout, rep)
	}
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}
	if !rep.InSync() {
		return fmt.Errorf("%d discrepancies found", len(rep.Issues))
	}
	return nil
}
