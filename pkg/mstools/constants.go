package mstools

import (
	"strings"
	"time"
)

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Clone/compare completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to a server
	ExitApprovalDenied  = 12 // User denied overwrite approval
	ExitExecutionFailed = 13 // One or more stages finished with failed batches
	ExitScriptMissing   = 14 // Stage script not found or not generated
)

const (
	// DefaultMaxPasses is the per-stage retry budget: the maximum number of
	// times the scheduler sweeps the still-failing batches of one stage.
	DefaultMaxPasses = 5

	// DefaultTimeout is the catastrophic-failure protection timeout for a
	// whole run. It guards against indefinite hangs, not slow stages: data
	// copies of large tables legitimately run for minutes.
	DefaultTimeout = 30 * time.Minute

	// DefaultForceApprovalCountdown is the countdown duration before force approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first
	// connection retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection retry attempts.
	DefaultRetryMaxAttempts = 3

	// MaxErrorPreviewLength is the maximum number of characters shown
	// in console output when previewing failed SQL batches.
	// This prevents overwhelming the console with large statement errors.
	MaxErrorPreviewLength = 200

	// DefaultManagementDB is the database used for server-level operations
	// (CREATE DATABASE, DROP DATABASE, existence checks).
	DefaultManagementDB = "master"

	// DefaultPort is the default SQL Server TCP port.
	DefaultPort = 1433
)

// systemDatabases are the SQL Server databases that cannot be dropped.
var systemDatabases = []string{"master", "model", "msdb", "tempdb"}

// IsSystemDatabase reports whether name is a SQL Server system database.
// System databases can never be clone destinations. The check is
// case-insensitive because SQL Server identifiers usually are.
func IsSystemDatabase(name string) bool {
	for _, sys := range systemDatabases {
		if strings.EqualFold(name, sys) {
			return true
		}
	}
	return false
}
