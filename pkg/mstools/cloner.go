package mstools

import "context"

// Cloner is the main interface for executing schema clone runs.
// Implementations handle the full workflow: connecting to both servers,
// preparing the destination database, generating per-stage scripts and
// deploying them with retry.
type Cloner interface {
	// Clone executes a clone run using the provided configuration.
	// The returned PipelineRun is complete even on partial failure, so an
	// operator can see exactly which stage and which batches need manual
	// remediation. The error is non-nil when the run could not finish
	// (setup failure, denial, cancellation) or when any stage ended with
	// failed batches.
	Clone(ctx context.Context, config CloneConfig) (*PipelineRun, error)
}

// Comparer is the interface for verifying convergence after a clone.
type Comparer interface {
	// Compare examines both databases and reports every discrepancy.
	// A non-empty issue list is not an error; the report carries it.
	Compare(ctx context.Context, config CompareConfig) (*CompareReport, error)
}

// Deployer replays a single script file against a destination database,
// splitting it into batches and retrying them with the same engine clone
// stages use.
type Deployer interface {
	// Deploy executes the script named in the configuration. The returned
	// outcome is populated even when batches remained failing; the error is
	// non-nil for setup failures, catastrophic execution errors, and runs
	// that ended with failing batches.
	Deploy(ctx context.Context, config DeployConfig) (*DeploymentOutcome, error)
}
