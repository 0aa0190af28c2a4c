package scripter

import (
	"context"
	"database/sql"
	"fmt"
)

// Catalog row shapes. Fetching and rendering are kept separate so the DDL
// assembly is testable without a server.

type aliasType struct {
	Schema    string
	Name      string
	BaseType  string
	MaxLength int
	Precision int
	Scale     int
	Nullable  bool
}

type column struct {
	Name               string
	TypeName           string
	MaxLength          int
	Precision          int
	Scale              int
	Nullable           bool
	Identity           bool
	Seed               int64
	Increment          int64
	Computed           bool
	ComputedDefinition string
	Persisted          bool
}

type keyColumn struct {
	Name       string
	Descending bool
}

// keyConstraint is a primary key or unique constraint.
type keyConstraint struct {
	Name      string
	Clustered bool
	Columns   []keyColumn
}

type table struct {
	ObjectID int64
	Schema   string
	Name     string
	Columns  []column
	PK       *keyConstraint
}

type defaultConstraint struct {
	Schema     string
	Table      string
	Name       string
	Column     string
	Definition string
}

type checkConstraint struct {
	Schema     string
	Table      string
	Name       string
	Definition string
}

type uniqueConstraint struct {
	Schema string
	Table  string
	keyConstraint
}

type index struct {
	Schema   string
	Table    string
	Name     string
	Unique   bool
	Filter   string
	Columns  []keyColumn
	Included []string
}

type foreignKey struct {
	Schema        string
	Table         string
	Name          string
	RefSchema     string
	RefTable      string
	Columns       []string
	RefColumns    []string
	DeleteAction  string
	UpdateAction  string
}

type module struct {
	Schema           string
	Name             string
	Type             string
	Definition       sql.NullString
	ANSINulls        bool
	QuotedIdentifier bool
}

type user struct {
	Name     string
	AuthType string
}

type roleMember struct {
	Role   string
	Member string
}

func (g *Generator) fetchSchemas(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, querySchemas)
	if err != nil {
		return nil, fmt.Errorf("querying schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		schemas = append(schemas, name)
	}
	return schemas, rows.Err()
}

func (g *Generator) fetchAliasTypes(ctx context.Context) ([]aliasType, error) {
	rows, err := g.db.QueryContext(ctx, queryAliasTypes)
	if err != nil {
		return nil, fmt.Errorf("querying alias types: %w", err)
	}
	defer rows.Close()

	var types []aliasType
	for rows.Next() {
		var t aliasType
		if err := rows.Scan(&t.Schema, &t.Name, &t.BaseType, &t.MaxLength, &t.Precision, &t.Scale, &t.Nullable); err != nil {
			return nil, fmt.Errorf("scanning alias type row: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// fetchTables returns user tables with columns and primary keys attached.
func (g *Generator) fetchTables(ctx context.Context) ([]table, error) {
	rows, err := g.db.QueryContext(ctx, queryTables)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []table
	for rows.Next() {
		var t table
		if err := rows.Scan(&t.ObjectID, &t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns, err := g.fetchColumns(ctx)
	if err != nil {
		return nil, err
	}
	pks, err := g.fetchKeyConstraints(ctx, "PK")
	if err != nil {
		return nil, err
	}

	for i := range tables {
		tables[i].Columns = columns[tables[i].ObjectID]
		if pk, ok := pks[tables[i].ObjectID]; ok && len(pk) > 0 {
			tables[i].PK = &pk[0]
		}
	}
	return tables, nil
}

func (g *Generator) fetchColumns(ctx context.Context) (map[int64][]column, error) {
	rows, err := g.db.QueryContext(ctx, queryColumns)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[int64][]column)
	for rows.Next() {
		var objectID int64
		var c column
		if err := rows.Scan(&objectID, &c.Name, &c.TypeName, &c.MaxLength, &c.Precision, &c.Scale,
			&c.Nullable, &c.Identity, &c.Seed, &c.Increment,
			&c.Computed, &c.ComputedDefinition, &c.Persisted); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		columns[objectID] = append(columns[objectID], c)
	}
	return columns, rows.Err()
}

// fetchKeyConstraints returns PK or UQ constraints grouped by parent table.
func (g *Generator) fetchKeyConstraints(ctx context.Context, kind string) (map[int64][]keyConstraint, error) {
	rows, err := g.db.QueryContext(ctx, queryKeyConstraints, sql.Named("p1", kind))
	if err != nil {
		return nil, fmt.Errorf("querying %s constraints: %w", kind, err)
	}
	defer rows.Close()

	grouped := make(map[int64][]keyConstraint)
	for rows.Next() {
		var objectID int64
		var name, columnName string
		var indexType int
		var descending bool
		if err := rows.Scan(&objectID, &name, &indexType, &columnName, &descending); err != nil {
			return nil, fmt.Errorf("scanning %s constraint row: %w", kind, err)
		}

		list := grouped[objectID]
		if len(list) == 0 || list[len(list)-1].Name != name {
			list = append(list, keyConstraint{Name: name, Clustered: indexType == 1})
		}
		kc := &list[len(list)-1]
		kc.Columns = append(kc.Columns, keyColumn{Name: columnName, Descending: descending})
		grouped[objectID] = list
	}
	return grouped, rows.Err()
}

func (g *Generator) fetchDefaultConstraints(ctx context.Context) ([]defaultConstraint, error) {
	rows, err := g.db.QueryContext(ctx, queryDefaultConstraints)
	if err != nil {
		return nil, fmt.Errorf("querying default constraints: %w", err)
	}
	defer rows.Close()

	var defaults []defaultConstraint
	for rows.Next() {
		var d defaultConstraint
		if err := rows.Scan(&d.Schema, &d.Table, &d.Name, &d.Column, &d.Definition); err != nil {
			return nil, fmt.Errorf("scanning default constraint row: %w", err)
		}
		defaults = append(defaults, d)
	}
	return defaults, rows.Err()
}

func (g *Generator) fetchCheckConstraints(ctx context.Context) ([]checkConstraint, error) {
	rows, err := g.db.QueryContext(ctx, queryCheckConstraints)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints: %w", err)
	}
	defer rows.Close()

	var checks []checkConstraint
	for rows.Next() {
		var c checkConstraint
		if err := rows.Scan(&c.Schema, &c.Table, &c.Name, &c.Definition); err != nil {
			return nil, fmt.Errorf("scanning check constraint row: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// fetchUniqueConstraints resolves UQ constraints against table names.
func (g *Generator) fetchUniqueConstraints(ctx context.Context) ([]uniqueConstraint, error) {
	grouped, err := g.fetchKeyConstraints(ctx, "UQ")
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return nil, nil
	}

	rows, err := g.db.QueryContext(ctx, queryTables)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var uniques []uniqueConstraint
	for rows.Next() {
		var objectID int64
		var schema, name string
		if err := rows.Scan(&objectID, &schema, &name); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		for _, kc := range grouped[objectID] {
			uniques = append(uniques, uniqueConstraint{Schema: schema, Table: name, keyConstraint: kc})
		}
	}
	return uniques, rows.Err()
}

func (g *Generator) fetchIndexes(ctx context.Context) ([]index, error) {
	rows, err := g.db.QueryContext(ctx, queryIndexes)
	if err != nil {
		return nil, fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	var indexes []index
	for rows.Next() {
		var schema, tableName, name, filter, columnName string
		var unique, descending, included bool
		if err := rows.Scan(&schema, &tableName, &name, &unique, &filter, &columnName, &descending, &included); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}

		if len(indexes) == 0 || indexes[len(indexes)-1].Name != name ||
			indexes[len(indexes)-1].Table != tableName || indexes[len(indexes)-1].Schema != schema {
			indexes = append(indexes, index{Schema: schema, Table: tableName, Name: name, Unique: unique, Filter: filter})
		}
		ix := &indexes[len(indexes)-1]
		if included {
			ix.Included = append(ix.Included, columnName)
		} else {
			ix.Columns = append(ix.Columns, keyColumn{Name: columnName, Descending: descending})
		}
	}
	return indexes, rows.Err()
}

func (g *Generator) fetchForeignKeys(ctx context.Context) ([]foreignKey, error) {
	rows, err := g.db.QueryContext(ctx, queryForeignKeys)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var keys []foreignKey
	for rows.Next() {
		var objectID int64
		var fk foreignKey
		var parentColumn, refColumn string
		if err := rows.Scan(&objectID, &fk.Schema, &fk.Table, &fk.Name, &fk.RefSchema, &fk.RefTable,
			&parentColumn, &refColumn, &fk.DeleteAction, &fk.UpdateAction); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}

		if len(keys) == 0 || keys[len(keys)-1].Name != fk.Name ||
			keys[len(keys)-1].Table != fk.Table || keys[len(keys)-1].Schema != fk.Schema {
			keys = append(keys, fk)
		}
		last := &keys[len(keys)-1]
		last.Columns = append(last.Columns, parentColumn)
		last.RefColumns = append(last.RefColumns, refColumn)
	}
	return keys, rows.Err()
}

func (g *Generator) fetchModules(ctx context.Context) ([]module, error) {
	rows, err := g.db.QueryContext(ctx, queryModules)
	if err != nil {
		return nil, fmt.Errorf("querying modules: %w", err)
	}
	defer rows.Close()

	var modules []module
	for rows.Next() {
		var m module
		if err := rows.Scan(&m.Schema, &m.Name, &m.Type, &m.Definition, &m.ANSINulls, &m.QuotedIdentifier); err != nil {
			return nil, fmt.Errorf("scanning module row: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (g *Generator) fetchRoles(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, queryRoles)
	if err != nil {
		return nil, fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning role row: %w", err)
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func (g *Generator) fetchUsers(ctx context.Context) ([]user, error) {
	rows, err := g.db.QueryContext(ctx, queryUsers)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []user
	for rows.Next() {
		var u user
		if err := rows.Scan(&u.Name, &u.AuthType); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (g *Generator) fetchRoleMembers(ctx context.Context) ([]roleMember, error) {
	rows, err := g.db.QueryContext(ctx, queryRoleMembers)
	if err != nil {
		return nil, fmt.Errorf("querying role members: %w", err)
	}
	defer rows.Close()

	var members []roleMember
	for rows.Next() {
		var m roleMember
		if err := rows.Scan(&m.Role, &m.Member); err != nil {
			return nil, fmt.Errorf("scanning role member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
