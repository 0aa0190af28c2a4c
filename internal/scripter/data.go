package scripter

import (
	"context"
	"fmt"
	"strings"
)

// buildData scripts one INSERT ... SELECT per table, pulling rows across
// databases with three-part names. Source and destination must live on
// the same instance for these to run. Foreign keys are not in place yet
// when this stage executes, so table order does not matter.
func (g *Generator) buildData(ctx context.Context) ([]string, error) {
	tables, err := g.fetchTables(ctx)
	if err != nil {
		return nil, err
	}

	var batches []string
	for _, t := range tables {
		batch := renderTableCopy(g.sourceDatabase, t)
		if batch == "" {
			g.logger.Debug("skipping table with no insertable columns",
				"schema", t.Schema, "table", t.Name)
			continue
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// renderTableCopy returns the copy batch for one table, or "" when the
// table has no insertable columns.
func renderTableCopy(sourceDatabase string, t table) string {
	cols := insertableColumns(t)
	if len(cols) == 0 {
		return ""
	}
	list := quoteJoin(cols)
	target := qualified(t.Schema, t.Name)
	source := quote(sourceDatabase) + "." + target

	var sb strings.Builder
	identity := hasIdentityColumn(t)
	if identity {
		fmt.Fprintf(&sb, "SET IDENTITY_INSERT %s ON;\n", target)
	}
	fmt.Fprintf(&sb, "INSERT INTO %s (%s)\nSELECT %s FROM %s;\n", target, list, list, source)
	if identity {
		fmt.Fprintf(&sb, "SET IDENTITY_INSERT %s OFF;\n", target)
	}
	return sb.String()
}

// insertableColumns drops computed and rowversion columns; the engine
// assigns those itself.
func insertableColumns(t table) []string {
	var cols []string
	for _, c := range t.Columns {
		if c.Computed || c.TypeName == "timestamp" || c.TypeName == "rowversion" {
			continue
		}
		cols = append(cols, c.Name)
	}
	return cols
}

func hasIdentityColumn(t table) bool {
	for _, c := range t.Columns {
		if c.Identity {
			return true
		}
	}
	return false
}
