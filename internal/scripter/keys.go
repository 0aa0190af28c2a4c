package scripter

import (
	"context"
	"fmt"
	"strings"
)

// buildKeys scripts foreign keys. Running after the data stage means the
// referenced rows are already in place when the keys are validated.
func (g *Generator) buildKeys(ctx context.Context) ([]string, error) {
	keys, err := g.fetchForeignKeys(ctx)
	if err != nil {
		return nil, err
	}

	batches := make([]string, 0, len(keys))
	for _, fk := range keys {
		batches = append(batches, renderForeignKey(fk))
	}
	return batches, nil
}

// renderForeignKey emits the ADD CONSTRAINT and the re-enable statement
// together; they succeed or retry as one unit.
func renderForeignKey(fk foreignKey) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ALTER TABLE %s WITH CHECK ADD CONSTRAINT %s FOREIGN KEY (%s)\n    REFERENCES %s (%s)",
		qualified(fk.Schema, fk.Table), quote(fk.Name), quoteJoin(fk.Columns),
		qualified(fk.RefSchema, fk.RefTable), quoteJoin(fk.RefColumns))
	if fk.DeleteAction != "NO_ACTION" {
		fmt.Fprintf(&sb, " ON DELETE %s", strings.ReplaceAll(fk.DeleteAction, "_", " "))
	}
	if fk.UpdateAction != "NO_ACTION" {
		fmt.Fprintf(&sb, " ON UPDATE %s", strings.ReplaceAll(fk.UpdateAction, "_", " "))
	}
	sb.WriteString(";\n")
	fmt.Fprintf(&sb, "ALTER TABLE %s CHECK CONSTRAINT %s;\n",
		qualified(fk.Schema, fk.Table), quote(fk.Name))
	return sb.String()
}
