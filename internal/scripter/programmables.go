package scripter

import (
	"context"
	"fmt"
	"strings"
)

// buildProgrammables scripts views, procedures, functions, and triggers
// from sys.sql_modules, each preceded by its recorded SET options.
// CREATE VIEW and friends must be alone in their batch, so the SET
// statements get a batch of their own. SET batches run once; a retried
// definition picks up the session's current options.
func (g *Generator) buildProgrammables(ctx context.Context) ([]string, error) {
	modules, err := g.fetchModules(ctx)
	if err != nil {
		return nil, err
	}

	var batches []string
	for _, m := range modules {
		if !m.Definition.Valid {
			g.logger.Warn("skipping encrypted module",
				"schema", m.Schema, "name", m.Name, "type", strings.TrimSpace(m.Type))
			continue
		}
		batches = append(batches, renderModuleSettings(m))
		batches = append(batches, strings.TrimSpace(m.Definition.String)+"\n")
	}
	return batches, nil
}

func renderModuleSettings(m module) string {
	return fmt.Sprintf("SET ANSI_NULLS %s;\nSET QUOTED_IDENTIFIER %s;\n",
		onOff(m.ANSINulls), onOff(m.QuotedIdentifier))
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
