package scripter

import (
	"context"
	"fmt"
	"strings"
)

// buildTables scripts schemas, alias types, and tables. Schemas come
// first because CREATE SCHEMA must be alone in its batch anyway, and
// everything else hangs off one.
func (g *Generator) buildTables(ctx context.Context) ([]string, error) {
	schemas, err := g.fetchSchemas(ctx)
	if err != nil {
		return nil, err
	}
	types, err := g.fetchAliasTypes(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := g.fetchTables(ctx)
	if err != nil {
		return nil, err
	}

	batches := make([]string, 0, len(schemas)+len(types)+len(tables))
	for _, s := range schemas {
		batches = append(batches, renderSchema(s))
	}
	for _, t := range types {
		batches = append(batches, renderAliasType(t))
	}
	for _, t := range tables {
		batches = append(batches, renderTable(t))
	}
	return batches, nil
}

func renderSchema(name string) string {
	return fmt.Sprintf("CREATE SCHEMA %s;\n", quote(name))
}

func renderAliasType(t aliasType) string {
	nullability := "NOT NULL"
	if t.Nullable {
		nullability = "NULL"
	}
	return fmt.Sprintf("CREATE TYPE %s FROM %s %s;\n",
		qualified(t.Schema, t.Name), renderTypeName(t.BaseType, t.MaxLength, t.Precision, t.Scale), nullability)
}

func renderTable(t table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", qualified(t.Schema, t.Name))
	for i, c := range t.Columns {
		sb.WriteString("    ")
		sb.WriteString(renderColumn(c))
		if i < len(t.Columns)-1 || t.PK != nil {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	if t.PK != nil {
		kind := "NONCLUSTERED"
		if t.PK.Clustered {
			kind = "CLUSTERED"
		}
		fmt.Fprintf(&sb, "    CONSTRAINT %s PRIMARY KEY %s (%s)\n",
			quote(t.PK.Name), kind, renderKeyColumns(t.PK.Columns))
	}
	sb.WriteString(");\n")
	return sb.String()
}

func renderColumn(c column) string {
	if c.Computed {
		line := quote(c.Name) + " AS " + c.ComputedDefinition
		if c.Persisted {
			line += " PERSISTED"
		}
		return line
	}
	line := quote(c.Name) + " " + renderTypeName(c.TypeName, c.MaxLength, c.Precision, c.Scale)
	if c.Identity {
		line += fmt.Sprintf(" IDENTITY(%d,%d)", c.Seed, c.Increment)
	}
	if c.Nullable {
		line += " NULL"
	} else {
		line += " NOT NULL"
	}
	return line
}

// renderTypeName renders a type with its length arguments. Unicode types
// report max_length in bytes, twice the declared character count.
func renderTypeName(name string, maxLength, precision, scale int) string {
	switch name {
	case "varchar", "char", "varbinary", "binary":
		if maxLength == -1 {
			return name + "(max)"
		}
		return fmt.Sprintf("%s(%d)", name, maxLength)
	case "nvarchar", "nchar":
		if maxLength == -1 {
			return name + "(max)"
		}
		return fmt.Sprintf("%s(%d)", name, maxLength/2)
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", name, precision, scale)
	case "datetime2", "datetimeoffset", "time":
		return fmt.Sprintf("%s(%d)", name, scale)
	default:
		return name
	}
}

func renderKeyColumns(cols []keyColumn) string {
	parts := make([]string, len(cols))
	for i, kc := range cols {
		dir := " ASC"
		if kc.Descending {
			dir = " DESC"
		}
		parts[i] = quote(kc.Name) + dir
	}
	return strings.Join(parts, ", ")
}
