package scripter

import (
	"context"
	"fmt"
	"strings"
)

func (g *Generator) buildIndexes(ctx context.Context) ([]string, error) {
	indexes, err := g.fetchIndexes(ctx)
	if err != nil {
		return nil, err
	}

	batches := make([]string, 0, len(indexes))
	for _, ix := range indexes {
		batches = append(batches, renderIndex(ix))
	}
	return batches, nil
}

func renderIndex(ix index) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if ix.Unique {
		sb.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&sb, "NONCLUSTERED INDEX %s ON %s (%s)",
		quote(ix.Name), qualified(ix.Schema, ix.Table), renderKeyColumns(ix.Columns))
	if len(ix.Included) > 0 {
		fmt.Fprintf(&sb, " INCLUDE (%s)", quoteJoin(ix.Included))
	}
	if ix.Filter != "" {
		fmt.Fprintf(&sb, " WHERE %s", ix.Filter)
	}
	sb.WriteString(";\n")
	return sb.String()
}
