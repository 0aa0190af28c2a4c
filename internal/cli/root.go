package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sozezzo/MSTools/internal/logging"
)

const asciiLogo = ` __  __  ____   _____                 _
|  \/  |/ ___| |_   _|  ___    ___  | | ___
| |\/| |\___ \   | |   / _ \  / _ \ | |/ __|
| |  | | ___) |  | |  | (_) || (_) || |\__ \
|_|  |_||____/   |_|   \___/  \___/ |_||___/`

var rootCmd = &cobra.Command{
	Use:   "mstools",
	Short: "SQL Server schema replication toolkit",
	Long: asciiLogo + `

mstools clones a SQL Server database onto another server by scripting every
object category into GO-delimited batch scripts and deploying them with
multi-pass retry: a batch that fails on a forward reference succeeds in a
later pass, after the objects it depends on exist. No dependency graph;
convergence does the ordering.

Exit Codes:
  0  - Success
  1  - General error (clone, deploy or compare failed)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied overwrite approval
  13 - SQL execution failed
  14 - Script not found`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for mstools")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().String("log-file", "", "Mirror log entries to a rotated file")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit log entries as JSON records")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// newLogger builds the run logger from the persistent logging flags.
// Flags resolve to their zero values when a command is invoked outside the
// root (unit tests call the run functions directly).
func newLogger(cmd *cobra.Command) *slog.Logger {
	noColor, _ := cmd.Flags().GetBool("no-color")
	logFile, _ := cmd.Flags().GetString("log-file")
	logJSON, _ := cmd.Flags().GetBool("log-json")

	return logging.New(logging.Options{
		Verbose: getVerboseFlag(cmd),
		NoColor: noColor,
		File:    logFile,
		JSON:    logJSON,
	})
}

// signalContext derives a context that is cancelled by SIGINT or SIGTERM.
// Cancellation is honored between batches only: the statement in flight
// always completes, so an interrupted run never leaves a half-applied batch.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, stopping at the next batch boundary...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
