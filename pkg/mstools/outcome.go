package mstools

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BatchStatus tracks a batch's progress across retry passes.
type BatchStatus int

const (
	BatchPending   BatchStatus = iota // Not yet attempted, or attempted and still owed a pass
	BatchSucceeded                    // Executed successfully; never re-executed
	BatchFailed                       // Failed in the most recent pass that attempted it
)

// String returns a human-readable string representation of the BatchStatus.
func (s BatchStatus) String() string {
	switch s {
	case BatchPending:
		return "Pending"
	case BatchSucceeded:
		return "Succeeded"
	case BatchFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Batch is one statement group delimited by the "GO" convention: the atomic
// unit of execution and retry. Text and position are immutable; Status and
// LastError change across passes.
type Batch struct {
	// Index is the 0-based position of the batch in the original script.
	Index int

	// Text is the batch body with delimiter lines removed.
	Text string

	// StartLine is the 1-based line in the original script where the batch begins.
	// Used to attribute execution errors back to the source script.
	StartLine int

	// Status is the batch's progress across passes.
	Status BatchStatus

	// LastError holds the error text from the most recent failed attempt.
	LastError string
}

// Stage is one object-category phase of the cloning pipeline.
type Stage struct {
	// Name identifies the object category, e.g. "constraints".
	Name string

	// Order determines execution position. Stages run in ascending order.
	Order int

	// ScriptPath is where the stage's script is materialized by the generator.
	ScriptPath string

	// MaxPasses is the retry budget for this stage's batches.
	MaxPasses int
}

// Stage names, in their canonical execution order. Later stages assume
// earlier ones materialized their target objects: constraints and keys
// reference tables, triggers reference programmables, and so on.
const (
	StageTables        = "tables"
	StageData          = "data"
	StageConstraints   = "constraints"
	StageIndexes       = "indexes"
	StageKeys          = "keys"
	StageProgrammables = "programmables"
	StageUsers         = "users"
)

// DefaultStages returns the canonical stage sequence for a clone run.
// Scripts are materialized under scriptDir. The data stage is included only
// when includeData is set; it runs before constraints and keys so loaded rows
// are not rejected by half-created referential checks. maxPasses applies to
// every stage; zero selects DefaultMaxPasses.
func DefaultStages(scriptDir string, includeData bool, maxPasses int) []Stage {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	names := []string{StageTables}
	if includeData {
		names = append(names, StageData)
	}
	names = append(names, StageConstraints, StageIndexes, StageKeys, StageProgrammables, StageUsers)

	stages := make([]Stage, 0, len(names))
	for i, name := range names {
		stages = append(stages, Stage{
			Name:       name,
			Order:      i + 1,
			ScriptPath: filepath.Join(scriptDir, fmt.Sprintf("%03d_%s.sql", (i+1)*10, name)),
			MaxPasses:  maxPasses,
		})
	}
	return stages
}

// StageOverride adjusts or removes one stage of the default catalog,
// matched by name. Zero MaxPasses keeps the stage's existing budget.
type StageOverride struct {
	Name      string
	MaxPasses int
	Skip      bool
}

// stageNames is the set of valid stage names for override matching.
var stageNames = map[string]bool{
	StageTables:        true,
	StageData:          true,
	StageConstraints:   true,
	StageIndexes:       true,
	StageKeys:          true,
	StageProgrammables: true,
	StageUsers:         true,
}

// ApplyStageOverrides returns a copy of stages with the overrides applied.
// An override naming an unknown stage is an error: a typo must not silently
// leave a stage untouched. An override for a valid stage that is not part of
// this run, like data when the data stage is disabled, is ignored.
func ApplyStageOverrides(stages []Stage, overrides []StageOverride) ([]Stage, error) {
	out := make([]Stage, len(stages))
	copy(out, stages)

	for _, ov := range overrides {
		if !stageNames[ov.Name] {
			return nil, fmt.Errorf("stage override %q does not name a stage: %w", ov.Name, ErrInvalidConfig)
		}

		idx := -1
		for i := range out {
			if out[i].Name == ov.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		if ov.Skip {
			out = append(out[:idx], out[idx+1:]...)
			continue
		}
		if ov.MaxPasses > 0 {
			out[idx].MaxPasses = ov.MaxPasses
		}
	}
	return out, nil
}

// DeploymentOutcome is the result of running one stage's batches through the
// retry scheduler. Immutable after creation.
type DeploymentOutcome struct {
	// Success is true when no batch remained failing.
	Success bool

	// PassesUsed is the number of execution passes performed (0 for empty input).
	PassesUsed int

	// TotalBatches is the number of batches the script split into.
	TotalBatches int

	// FailedBatches holds the batches still failing (or never attempted)
	// when the run ended, in original script order.
	FailedBatches []Batch
}

// StageOutcome pairs a stage with its deployment outcome.
type StageOutcome struct {
	Stage   Stage
	Outcome DeploymentOutcome

	// Checksum is the SHA-256 of the stage script's normalized content.
	// Empty when the script was never materialized.
	Checksum string

	// Duration covers script generation through the last execution pass.
	Duration time.Duration

	// Err is set when the stage was cut short before its batches could be
	// retried to completion: script generation or read failure, a malformed
	// script, a lost session. A stage that merely finished with failed
	// batches has Err == nil and Outcome.Success == false.
	Err error
}

// PipelineRun is the ordered record of all stages executed for one
// source to destination clone operation.
type PipelineRun struct {
	// ID identifies this run in logs and reports.
	ID uuid.UUID

	// Source and Destination are display names (host/database), never
	// full connection strings, so they are safe to log.
	Source      string
	Destination string

	// Stages holds one outcome per attempted stage, in execution order.
	Stages []StageOutcome

	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether every attempted stage completed with all
// batches succeeding and no stage was cut short.
func (r *PipelineRun) Succeeded() bool {
	for _, s := range r.Stages {
		if s.Err != nil || !s.Outcome.Success {
			return false
		}
	}
	return len(r.Stages) > 0
}

// Duration returns the wall-clock time of the whole run.
func (r *PipelineRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStages returns the outcomes of stages that did not fully succeed,
// in execution order.
func (r *PipelineRun) FailedStages() []StageOutcome {
	var failed []StageOutcome
	for _, s := range r.Stages {
		if s.Err != nil || !s.Outcome.Success {
			failed = append(failed, s)
		}
	}
	return failed
}
