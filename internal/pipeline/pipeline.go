// Package pipeline runs the ordered stage sequence of a clone operation:
// for each stage it materializes the script, splits it into batches, and
// drives the batches through the retry scheduler.
//
// Stage failures do not cascade. Object categories are largely independent,
// so a stage that ends with failing batches (or an unsplittable script)
// is recorded and the next stage still runs; the operator gets the widest
// possible picture of what cloned and what did not. Setup failures are
// different: when a script cannot be generated or read, or no destination
// session can be opened, nothing later can fare better, and the pipeline
// stops there.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sozezzo/MSTools/internal/checksum"
	"github.com/sozezzo/MSTools/internal/scheduler"
	"github.com/sozezzo/MSTools/internal/splitter"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// ExecutorFactory opens a destination session for one stage and returns an
// executor bound to it, plus a release function for the underlying session.
// The pipeline calls the factory once per stage: each stage runs on a fresh
// session, so a session lost in one stage does not poison the next.
type ExecutorFactory func(ctx context.Context) (mstools.BatchExecutor, func() error, error)

// Pipeline executes clone stages in order and aggregates their outcomes
// into a PipelineRun.
//
// Thread-Safety: safe for concurrent Run() calls; all per-run state lives
// on the stack.
type Pipeline struct {
	generator mstools.ScriptGenerator
	splitter  *splitter.Splitter
	scheduler *scheduler.Scheduler
	checksum  checksum.SHA256
	logger    *slog.Logger
}

// New creates a Pipeline. The generator is mandatory; a nil generator is a
// programmer error and panics. A nil logger discards log entries.
func New(generator mstools.ScriptGenerator, logger *slog.Logger) *Pipeline {
	if generator == nil {
		panic("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		generator: generator,
		splitter:  splitter.New(),
		scheduler: scheduler.New(logger),
		checksum:  checksum.New(),
		logger:    logger,
	}
}

// Run executes stages in ascending Order and returns the run record.
//
// The returned PipelineRun is always complete: it holds one StageOutcome per
// attempted stage, in execution order, even when Run also returns an error.
// A non-nil error means the pipeline stopped before attempting every stage —
// a setup failure (script not generated or readable, no session) or a
// cancelled context. Stages that merely finished with failing batches do not
// produce an error; callers inspect run.Succeeded() for that.
//
// Source and destination are display names used for logs and reports only.
func (p *Pipeline) Run(ctx context.Context, source, destination string, stages []mstools.Stage, factory ExecutorFactory) (*mstools.PipelineRun, error) {
	if factory == nil {
		panic("factory cannot be nil")
	}

	run := &mstools.PipelineRun{
		ID:          uuid.New(),
		Source:      source,
		Destination: destination,
		StartedAt:   time.Now(),
	}
	defer func() { run.FinishedAt = time.Now() }()

	ordered := make([]mstools.Stage, len(stages))
	copy(ordered, stages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	p.logger.Info("clone run starting",
		"run_id", run.ID.String(),
		"source", source,
		"destination", destination,
		"stages", len(ordered))

	for _, stage := range ordered {
		outcome, err := p.runStage(ctx, stage, factory)
		run.Stages = append(run.Stages, outcome)
		if err != nil {
			p.logger.Error("clone run stopped early",
				"run_id", run.ID.String(),
				"stage", stage.Name,
				"error", err)
			return run, err
		}
	}

	p.logger.Info("clone run finished",
		"run_id", run.ID.String(),
		"succeeded", run.Succeeded(),
		"stages", len(run.Stages))
	return run, nil
}

// runStage executes a single stage end to end. The returned error is non-nil
// only when the pipeline must stop: generation, read, or session setup
// failed, or the context was cancelled. A stage-local failure (unsplittable
// script, lost session with the context still live, failing batches) is
// carried in the StageOutcome alone.
func (p *Pipeline) runStage(ctx context.Context, stage mstools.Stage, factory ExecutorFactory) (mstools.StageOutcome, error) {
	started := time.Now()
	out := mstools.StageOutcome{Stage: stage}
	log := p.logger.With("stage", stage.Name, "order", stage.Order)

	log.Info("stage starting", "script", stage.ScriptPath, "max_passes", stage.MaxPasses)

	scriptPath, err := p.generator.Generate(ctx, stage)
	if err != nil {
		out.Err = fmt.Errorf("generating %s script: %w", stage.Name, err)
		out.Duration = time.Since(started)
		return out, out.Err
	}

	content, err := os.ReadFile(scriptPath)
	if err != nil {
		out.Err = fmt.Errorf("reading %s script %s: %v: %w", stage.Name, scriptPath, err, mstools.ErrScriptMissing)
		out.Duration = time.Since(started)
		return out, out.Err
	}
	out.Checksum = p.checksum.CalculateNormalized(content)

	batches, err := p.splitter.Split(string(content))
	if err != nil {
		// Malformed script fails the stage, not the run: later stages
		// have their own scripts and may still apply cleanly.
		out.Err = fmt.Errorf("splitting %s script: %w", stage.Name, err)
		out.Duration = time.Since(started)
		log.Error("stage script unusable, continuing with next stage", "error", err)
		return out, nil
	}

	exec, release, err := factory(ctx)
	if err != nil {
		out.Err = fmt.Errorf("opening destination session for %s stage: %w", stage.Name, err)
		out.Duration = time.Since(started)
		return out, out.Err
	}

	outcome, runErr := p.scheduler.Run(ctx, batches, exec, stage.MaxPasses)
	if relErr := release(); relErr != nil {
		log.Warn("session release failed", "error", relErr)
	}

	out.Outcome = outcome
	out.Duration = time.Since(started)
	if runErr != nil {
		out.Err = fmt.Errorf("%s stage cut short: %w", stage.Name, runErr)
		if ctx.Err() != nil {
			// Cancelled between batches: later stages cannot run either.
			return out, out.Err
		}
		// The session died but the run is still live. The next stage gets
		// a fresh session from the factory.
		log.Error("stage aborted, continuing with next stage", "error", runErr)
		return out, nil
	}

	if outcome.Success {
		log.Info("stage succeeded",
			"batches", outcome.TotalBatches,
			"passes", outcome.PassesUsed,
			"duration", out.Duration)
	} else {
		log.Warn("stage finished with failing batches",
			"failing", len(outcome.FailedBatches),
			"batches", outcome.TotalBatches,
			"passes", outcome.PassesUsed)
	}
	return out, nil
}
