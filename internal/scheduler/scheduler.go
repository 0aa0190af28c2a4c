// Package scheduler executes an ordered batch list with multi-pass retry
// until every batch succeeds or a no-progress fixpoint is reached.
//
// This is what makes generated clone scripts dependency-tolerant: a batch
// with an unresolved forward reference (a foreign key whose table appears
// later in the script, a view over a not-yet-created view) fails in one
// pass and succeeds in a later one, after the batches it depends on have
// run. No dependency graph is built; convergence does the ordering.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// Scheduler retries failing batches across bounded passes.
//
// Within one Run, batches execute one at a time in original script order
// against a single session. DDL statements are order-dependent and a shared
// session must not be driven concurrently. Cancellation is honored only
// between batch executions, never mid-batch, so a half-applied statement
// cannot corrupt the destination.
type Scheduler struct {
	logger *slog.Logger
}

// New creates a Scheduler. A nil logger discards log entries.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{logger: logger}
}

// Run executes batches with retry and reports the outcome.
//
// Each pass attempts every still-pending batch in original order and never
// stops a pass early on a failure: independent batches behind a failing one
// still get their chance within the same pass. A batch that succeeded is
// never re-executed. After a pass, if the failure count did not shrink,
// further passes cannot help and the run stops. The check compares counts,
// not identities: a pathological script where a different batch fails each
// pass at the same count also stops early.
//
// With maxPasses <= 0 no pass is performed; a non-empty input is then
// reported as a failure with every batch still pending. Empty input is a
// success with zero passes.
//
// The returned error is non-nil only when the run was cut short: the
// context was cancelled between batches, or the executor reported a
// catastrophic failure. Ordinary batch failures are carried in the outcome,
// never in the error.
func (s *Scheduler) Run(ctx context.Context, batches []mstools.Batch, exec mstools.BatchExecutor, maxPasses int) (mstools.DeploymentOutcome, error) {
	if exec == nil {
		panic("exec cannot be nil")
	}

	working := make([]mstools.Batch, len(batches))
	copy(working, batches)

	pending := make([]int, len(working))
	for i := range working {
		pending[i] = i
	}

	pass := 0
	for len(pending) > 0 && pass < maxPasses {
		pass++
		s.logger.Debug("starting pass", "pass", pass, "pending", len(pending))

		var failed []int
		for n, idx := range pending {
			if err := ctx.Err(); err != nil {
				remaining := append(failed, pending[n:]...)
				return buildOutcome(working, remaining, pass), err
			}

			b := &working[idx]
			ok, errMsg, err := exec.ExecuteBatch(ctx, b.Text)
			if err != nil {
				b.Status = mstools.BatchFailed
				b.LastError = err.Error()
				remaining := append(failed, idx)
				remaining = append(remaining, pending[n+1:]...)
				return buildOutcome(working, remaining, pass),
					fmt.Errorf("batch %d (script line %d): %w", b.Index, b.StartLine, err)
			}

			if ok {
				b.Status = mstools.BatchSucceeded
				continue
			}

			b.Status = mstools.BatchFailed
			b.LastError = errMsg
			failed = append(failed, idx)
			s.logger.Debug("batch failed", "pass", pass, "batch_index", b.Index, "error", errMsg)
		}

		if len(failed) == len(pending) {
			pending = failed
			s.logger.Info("no batch recovered this pass, stopping early",
				"pass", pass, "failing", len(pending))
			break
		}

		pending = failed
		if len(pending) > 0 {
			s.logger.Info("pass finished", "pass", pass, "failing", len(pending))
		}
	}

	outcome := buildOutcome(working, pending, pass)
	if outcome.Success {
		s.logger.Debug("all batches succeeded", "passes", pass, "batches", len(working))
	}
	return outcome, nil
}

func buildOutcome(working []mstools.Batch, pending []int, pass int) mstools.DeploymentOutcome {
	failedBatches := make([]mstools.Batch, 0, len(pending))
	for _, idx := range pending {
		failedBatches = append(failedBatches, working[idx])
	}
	return mstools.DeploymentOutcome{
		Success:       len(pending) == 0,
		PassesUsed:    pass,
		TotalBatches:  len(working),
		FailedBatches: failedBatches,
	}
}
