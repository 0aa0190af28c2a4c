// Package scripter generates the per-stage T-SQL deployment scripts by
// reading the source database catalog.
//
// Objects are scripted in naive catalog order, one object per batch.
// Scripts are not topologically sorted; cross-object references that land
// out of order fail on their first execution and resolve on a later pass
// when the executor retries failed batches. One object per batch keeps
// that retry granularity: a failed object never drags a healthy one back
// into the retry set.
package scripter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// Generator scripts schema objects from a source database catalog.
type Generator struct {
	db             *sql.DB
	sourceDatabase string
	logger         *slog.Logger
}

var _ mstools.ScriptGenerator = (*Generator)(nil)

// NewGenerator creates a Generator bound to an open source-database
// connection. Panics if db is nil or sourceDatabase is empty; these are
// wiring mistakes, not runtime conditions.
func NewGenerator(db *sql.DB, sourceDatabase string, logger *slog.Logger) *Generator {
	if db == nil {
		panic("scripter: db must not be nil")
	}
	if sourceDatabase == "" {
		panic("scripter: source database name is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{db: db, sourceDatabase: sourceDatabase, logger: logger}
}

// Generate builds the script for one stage and writes it to the stage's
// ScriptPath. Scripts carry no timestamp so identical catalog states
// produce identical checksums.
func (g *Generator) Generate(ctx context.Context, stage mstools.Stage) (string, error) {
	var batches []string
	var err error
	switch stage.Name {
	case mstools.StageTables:
		batches, err = g.buildTables(ctx)
	case mstools.StageData:
		batches, err = g.buildData(ctx)
	case mstools.StageConstraints:
		batches, err = g.buildConstraints(ctx)
	case mstools.StageIndexes:
		batches, err = g.buildIndexes(ctx)
	case mstools.StageKeys:
		batches, err = g.buildKeys(ctx)
	case mstools.StageProgrammables:
		batches, err = g.buildProgrammables(ctx)
	case mstools.StageUsers:
		batches, err = g.buildUsers(ctx)
	default:
		return "", fmt.Errorf("no script builder for stage %q: %w", stage.Name, mstools.ErrInvalidConfig)
	}
	if err != nil {
		return "", fmt.Errorf("scripting %s from %s: %w", stage.Name, g.sourceDatabase, err)
	}

	if len(batches) == 0 {
		batches = []string{fmt.Sprintf("-- no %s objects to script\n", stage.Name)}
	}
	header := fmt.Sprintf("-- %s scripted from %s\n", stage.Name, quote(g.sourceDatabase))
	script := assembleScript(header, batches)

	if err := os.MkdirAll(filepath.Dir(stage.ScriptPath), 0o755); err != nil {
		return "", fmt.Errorf("creating script directory: %w", err)
	}
	if err := os.WriteFile(stage.ScriptPath, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("writing %s script: %w", stage.Name, err)
	}
	g.logger.Debug("stage script written",
		"stage", stage.Name, "path", stage.ScriptPath, "batches", len(batches))
	return stage.ScriptPath, nil
}

// assembleScript joins batches with GO separator lines. The header
// comment rides in the first batch rather than a batch of its own.
func assembleScript(header string, batches []string) string {
	var sb strings.Builder
	sb.WriteString(header)
	for i, batch := range batches {
		if i > 0 {
			sb.WriteString("GO\n")
		}
		sb.WriteString(batch)
		if !strings.HasSuffix(batch, "\n") {
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("GO\n")
	return sb.String()
}

// quote brackets an identifier, doubling any closing brackets.
func quote(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func qualified(schema, name string) string {
	return quote(schema) + "." + quote(name)
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}
