package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/internal/services"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Generate stage scripts from a source database",
	Long: `Script writes the per-stage SQL scripts a clone run would deploy,
without connecting to any destination.

The output directory receives one GO-delimited script per stage
(001_tables.sql, 030_constraints.sql, ...), in deployment order. Use the
scripts for review, version control, or deferred deployment with
'mstools deploy'.

The granular flags (-S, -U, -d) describe the SOURCE server here, since script
has no destination.

Examples:
  # Script AppDB into ./scripts
  mstools script --source "sqlserver://sa@prod:1433?database=AppDB" -o ./scripts

  # Same thing with granular flags
  mstools script -S prod -U sa -d AppDB -o ./scripts

  # Include INSERT statements for table data
  mstools script -S prod -U sa -d AppDB -o ./scripts --include-data`,
	Args: cobra.NoArgs,
	RunE: runScript,
}

type scriptFlagValues struct {
	source       string
	server       serverFlags
	azure        azureFlagValues
	googleSource string
	outputDir    string
	includeData  bool
	timeout      time.Duration
}

var scriptFlags scriptFlagValues

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().StringVar(&scriptFlags.source, "source", "",
		"Source connection string (URI or ADO.NET format). Must name a database.\n"+
			"Precedence: --source > $MSTOOLS_SOURCE > mstools.yaml source")

	scriptFlags.server.register(scriptCmd, "source")
	scriptFlags.server.registerDatabase(scriptCmd,
		"Source database name (required unless named in the connection string)")

	scriptFlags.azure.register(scriptCmd)
	scriptCmd.Flags().StringVar(&scriptFlags.googleSource, "google-source-instance", "",
		"Cloud SQL instance connection name for the source (project:region:instance)")

	scriptCmd.Flags().StringVarP(&scriptFlags.outputDir, "output", "o", "scripts",
		"Directory for the generated stage scripts (created if missing)")
	scriptCmd.Flags().BoolVar(&scriptFlags.includeData, "include-data", false,
		"Also script table data as INSERT statements")
	scriptCmd.Flags().DurationVar(&scriptFlags.timeout, "timeout", mstools.DefaultTimeout,
		"Catastrophic failure protection timeout for the whole run")

	_ = scriptCmd.RegisterFlagCompletionFunc("output", completeDirectories)
}

// buildScriptConfig builds a ScriptConfig from CLI flags, environment
// variables and mstools.yaml. Extracted from runScript for testability.
func buildScriptConfig(cmd *cobra.Command, logger *slog.Logger) (mstools.ScriptConfig, error) {
	projectCfg, err := loadProjectConfig()
	if err != nil {
		return mstools.ScriptConfig{}, err
	}

	// The source may be a full connection string or built from the granular
	// flags; the string form only falls back to the environment and
	// mstools.yaml when no granular flags compete with it.
	srcString := scriptFlags.source
	if srcString == "" && scriptFlags.server.granular().IsEmpty() {
		srcString = sourceConnString("", projectCfg)
	}

	srcEndpoint, err := resolveEndpoint(srcString, scriptFlags.server.granular(), scriptFlags.azure.flags(),
		&db.GoogleFlags{Instance: scriptFlags.googleSource}, projectCfg, "source")
	if err != nil {
		return mstools.ScriptConfig{}, err
	}

	sourceDB, err := resolveSourceDatabase(scriptFlags.server.database, srcEndpoint.Config.Database)
	if err != nil {
		return mstools.ScriptConfig{}, err
	}
	srcEndpoint.Config.Database = sourceDB

	logEndpoint(logger, "source", srcEndpoint)

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, scriptFlags.timeout)
	if err != nil {
		return mstools.ScriptConfig{}, err
	}

	includeData := scriptFlags.includeData
	if projectCfg != nil && !cmd.Flags().Changed("include-data") {
		includeData = projectCfg.Clone.IncludeData
	}

	return mstools.ScriptConfig{
		SourceConnectionString: srcEndpoint.ConnString(),
		OutputDir:              scriptFlags.outputDir,
		IncludeData:            includeData,
		Timeout:                timeout,
		Verbose:                getVerboseFlag(cmd),
		AuthMethod:             srcEndpoint.Config.AuthMethod,
		AzureTenantID:          srcEndpoint.Config.AzureTenantID,
		AzureClientID:          srcEndpoint.Config.AzureClientID,
		AzureClientSecret:      srcEndpoint.Config.AzureClientSecret,
		GoogleSourceInstance:   scriptFlags.googleSource,
	}, nil
}

// resolveSourceDatabase applies database precedence for commands that read a
// source server: the -d flag wins over the connection string.
func resolveSourceDatabase(flagDatabase, connConfigDatabase string) (string, error) {
	sourceDB := flagDatabase
	if sourceDB == "" {
		sourceDB = connConfigDatabase
	}
	if sourceDB == "" {
		return "", fmt.Errorf("source database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag: mstools script -S prod -U sa -d AppDB\n"+
			"  2. Connection string: --source \"sqlserver://sa@prod?database=AppDB\"\n"+
			"  3. Environment variable: export MSTOOLS_SOURCE=\"sqlserver://...\": %w",
			mstools.ErrInvalidConfig)
	}
	return sourceDB, nil
}

func runScript(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)

	config, err := buildScriptConfig(cmd, logger)
	if err != nil {
		return err
	}

	scripterSvc := services.NewScriptService(db.NewConnector, logger)

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	paths, err := scripterSvc.GenerateScripts(ctx, config)
	for _, p := range paths {
		fmt.Fprintln(os.Stdout, p)
	}
	if err != nil {
		return fmt.Errorf("script generation failed: %w", err)
	}
	return nil
}
