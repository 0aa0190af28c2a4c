package scripter

import (
	"context"
	"fmt"
)

// buildConstraints scripts default, check, and unique constraints. Check
// constraints are added WITH CHECK; rows copied in the data stage came
// from a database that already satisfied them.
func (g *Generator) buildConstraints(ctx context.Context) ([]string, error) {
	defaults, err := g.fetchDefaultConstraints(ctx)
	if err != nil {
		return nil, err
	}
	checks, err := g.fetchCheckConstraints(ctx)
	if err != nil {
		return nil, err
	}
	uniques, err := g.fetchUniqueConstraints(ctx)
	if err != nil {
		return nil, err
	}

	batches := make([]string, 0, len(defaults)+len(checks)+len(uniques))
	for _, d := range defaults {
		batches = append(batches, renderDefaultConstraint(d))
	}
	for _, c := range checks {
		batches = append(batches, renderCheckConstraint(c))
	}
	for _, u := range uniques {
		batches = append(batches, renderUniqueConstraint(u))
	}
	return batches, nil
}

func renderDefaultConstraint(d defaultConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s DEFAULT %s FOR %s;\n",
		qualified(d.Schema, d.Table), quote(d.Name), d.Definition, quote(d.Column))
}

func renderCheckConstraint(c checkConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s WITH CHECK ADD CONSTRAINT %s CHECK %s;\n",
		qualified(c.Schema, c.Table), quote(c.Name), c.Definition)
}

func renderUniqueConstraint(u uniqueConstraint) string {
	kind := "NONCLUSTERED"
	if u.Clustered {
		kind = "CLUSTERED"
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE %s (%s);\n",
		qualified(u.Schema, u.Table), quote(u.Name), kind, renderKeyColumns(u.Columns))
}
