package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and automatically approves after it expires,
// used when the --force flag is provided. The countdown is the operator's last
// chance to Ctrl+C before the destination database is dropped.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) mstools.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval displays a countdown and automatically approves after the countdown.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintf(a.output, "☠️  DANGER: database '%s' will be DROPPED without confirmation.\n", dbName)
	fmt.Fprintln(a.output, "All data in it will be permanently lost.")
	fmt.Fprintln(a.output)

	countdownSeconds := int(mstools.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with database overwrite...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ mstools.Approver = (*ForcedApprover)(nil)
