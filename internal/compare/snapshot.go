package compare

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// snapshot is one database's comparable catalog state: canonical keys
// mapped to normalized definitions.
type snapshot struct {
	tables      map[string]struct{}
	rowCounts   map[string]int64
	constraints map[string]string
	indexes     map[string]string
	modules     map[string]moduleEntry
}

type moduleEntry struct {
	objectType string // "view", "procedure", "function", "trigger"
	definition string // normalized
}

func newSnapshot() *snapshot {
	return &snapshot{
		tables:      make(map[string]struct{}),
		rowCounts:   make(map[string]int64),
		constraints: make(map[string]string),
		indexes:     make(map[string]string),
		modules:     make(map[string]moduleEntry),
	}
}

// objectCount is the number of canonical keys the snapshot covers.
func (s *snapshot) objectCount(includeRowCounts bool) int {
	n := len(s.tables) + len(s.constraints) + len(s.indexes) + len(s.modules)
	if includeRowCounts {
		n += len(s.rowCounts)
	}
	return n
}

func takeSnapshot(ctx context.Context, db *sql.DB, includeRowCounts bool) (*snapshot, error) {
	snap := newSnapshot()
	if err := snap.loadTables(ctx, db); err != nil {
		return nil, err
	}
	if includeRowCounts {
		if err := snap.loadRowCounts(ctx, db); err != nil {
			return nil, err
		}
	}
	if err := snap.loadKeyConstraints(ctx, db); err != nil {
		return nil, err
	}
	if err := snap.loadDefaultConstraints(ctx, db); err != nil {
		return nil, err
	}
	if err := snap.loadCheckConstraints(ctx, db); err != nil {
		return nil, err
	}
	if err := snap.loadForeignKeys(ctx, db); err != nil {
		return nil, err
	}
	if err := snap.loadIndexes(ctx, db); err != nil {
		return nil, err
	}
	if err := snap.loadModules(ctx, db); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *snapshot) loadTables(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareTableColumns)
	if err != nil {
		return fmt.Errorf("querying table columns: %w", err)
	}
	defer rows.Close()

	var parts []string
	flush := func() {
		if len(parts) > 0 {
			s.tables[canonicalKey(parts...)] = struct{}{}
		}
	}
	for rows.Next() {
		var schema, table, column string
		if err := rows.Scan(&schema, &table, &column); err != nil {
			return fmt.Errorf("scanning table column row: %w", err)
		}
		if len(parts) < 2 || parts[0] != schema || parts[1] != table {
			flush()
			parts = []string{schema, table}
		}
		parts = append(parts, column)
	}
	flush()
	return rows.Err()
}

func (s *snapshot) loadRowCounts(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareRowCounts)
	if err != nil {
		return fmt.Errorf("querying row counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table string
		var count int64
		if err := rows.Scan(&schema, &table, &count); err != nil {
			return fmt.Errorf("scanning row count row: %w", err)
		}
		s.rowCounts[canonicalKey(schema, table)] = count
	}
	return rows.Err()
}

func (s *snapshot) loadKeyConstraints(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareKeyConstraints)
	if err != nil {
		return fmt.Errorf("querying key constraints: %w", err)
	}
	defer rows.Close()

	var keyParts []string
	var kind string
	var clustered bool
	var cols []string
	flush := func() {
		if len(keyParts) > 0 {
			s.constraints[canonicalKey(append(keyParts, columnNames(cols)...)...)] =
				keyConstraintDescriptor(kind, clustered, cols)
		}
	}
	for rows.Next() {
		var schema, table, name, kindCode, column string
		var indexType int
		var descending bool
		if err := rows.Scan(&schema, &table, &name, &kindCode, &indexType, &column, &descending); err != nil {
			return fmt.Errorf("scanning key constraint row: %w", err)
		}
		if len(keyParts) != 3 || keyParts[0] != schema || keyParts[1] != table || keyParts[2] != name {
			flush()
			keyParts = []string{schema, table, name}
			kind = strings.TrimSpace(kindCode)
			clustered = indexType == 1
			cols = nil
		}
		cols = append(cols, directedColumn(column, descending))
	}
	flush()
	return rows.Err()
}

func (s *snapshot) loadDefaultConstraints(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareDefaultConstraints)
	if err != nil {
		return fmt.Errorf("querying default constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, name, column, definition string
		if err := rows.Scan(&schema, &table, &name, &column, &definition); err != nil {
			return fmt.Errorf("scanning default constraint row: %w", err)
		}
		s.constraints[canonicalKey(schema, table, name, column)] =
			normalizeDefinition("default " + definition + " for " + column)
	}
	return rows.Err()
}

func (s *snapshot) loadCheckConstraints(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareCheckConstraints)
	if err != nil {
		return fmt.Errorf("querying check constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, name, definition string
		if err := rows.Scan(&schema, &table, &name, &definition); err != nil {
			return fmt.Errorf("scanning check constraint row: %w", err)
		}
		s.constraints[canonicalKey(schema, table, name)] = normalizeDefinition("check " + definition)
	}
	return rows.Err()
}

func (s *snapshot) loadForeignKeys(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareForeignKeys)
	if err != nil {
		return fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var keyParts []string
	var refSchema, refTable, deleteAction, updateAction string
	var cols, refCols []string
	flush := func() {
		if len(keyParts) > 0 {
			s.constraints[canonicalKey(append(keyParts, cols...)...)] =
				foreignKeyDescriptor(cols, refSchema, refTable, refCols, deleteAction, updateAction)
		}
	}
	for rows.Next() {
		var schema, table, name, col, refCol string
		var rs, rt, da, ua string
		if err := rows.Scan(&schema, &table, &name, &rs, &rt, &col, &refCol, &da, &ua); err != nil {
			return fmt.Errorf("scanning foreign key row: %w", err)
		}
		if len(keyParts) != 3 || keyParts[0] != schema || keyParts[1] != table || keyParts[2] != name {
			flush()
			keyParts = []string{schema, table, name}
			refSchema, refTable, deleteAction, updateAction = rs, rt, da, ua
			cols, refCols = nil, nil
		}
		cols = append(cols, col)
		refCols = append(refCols, refCol)
	}
	flush()
	return rows.Err()
}

func (s *snapshot) loadIndexes(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareIndexes)
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	var keyParts []string
	var unique bool
	var filter string
	var keyCols, included []string
	flush := func() {
		if len(keyParts) > 0 {
			s.indexes[canonicalKey(append(keyParts, columnNames(keyCols)...)...)] =
				indexDescriptor(unique, keyCols, included, filter)
		}
	}
	for rows.Next() {
		var schema, table, name, column, f string
		var u, descending, isIncluded bool
		if err := rows.Scan(&schema, &table, &name, &u, &f, &column, &descending, &isIncluded); err != nil {
			return fmt.Errorf("scanning index row: %w", err)
		}
		if len(keyParts) != 3 || keyParts[0] != schema || keyParts[1] != table || keyParts[2] != name {
			flush()
			keyParts = []string{schema, table, name}
			unique, filter = u, f
			keyCols, included = nil, nil
		}
		if isIncluded {
			included = append(included, column)
		} else {
			keyCols = append(keyCols, directedColumn(column, descending))
		}
	}
	flush()
	return rows.Err()
}

func (s *snapshot) loadModules(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, compareModules)
	if err != nil {
		return fmt.Errorf("querying modules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name, typeCode string
		var definition sql.NullString
		if err := rows.Scan(&schema, &name, &typeCode, &definition); err != nil {
			return fmt.Errorf("scanning module row: %w", err)
		}
		if !definition.Valid {
			continue
		}
		s.modules[canonicalKey(schema, name)] = moduleEntry{
			objectType: moduleObjectType(typeCode),
			definition: normalizeDefinition(definition.String),
		}
	}
	return rows.Err()
}

// canonicalKey joins case-folded name parts with "|".
func canonicalKey(parts ...string) string {
	lowered := make([]string, len(parts))
	for i, p := range parts {
		lowered[i] = strings.ToLower(p)
	}
	return strings.Join(lowered, "|")
}

// normalizeDefinition case-folds and collapses whitespace runs so pure
// formatting differences never read as drift.
func normalizeDefinition(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// directedColumn renders a key column with its sort direction.
func directedColumn(name string, descending bool) string {
	if descending {
		return name + " desc"
	}
	return name + " asc"
}

// columnNames strips the direction suffix back off for canonical keys;
// the key carries column order, the descriptor carries direction.
func columnNames(directed []string) []string {
	names := make([]string, len(directed))
	for i, d := range directed {
		names[i] = strings.TrimSuffix(strings.TrimSuffix(d, " asc"), " desc")
	}
	return names
}

func keyConstraintDescriptor(kind string, clustered bool, cols []string) string {
	word := "unique"
	if kind == "PK" {
		word = "primary key"
	}
	placement := "nonclustered"
	if clustered {
		placement = "clustered"
	}
	return normalizeDefinition(word + " " + placement + " (" + strings.Join(cols, ", ") + ")")
}

func foreignKeyDescriptor(cols []string, refSchema, refTable string, refCols []string, deleteAction, updateAction string) string {
	d := "foreign key (" + strings.Join(cols, ", ") + ") references " +
		refSchema + "." + refTable + " (" + strings.Join(refCols, ", ") + ")"
	if deleteAction != "NO_ACTION" {
		d += " on delete " + strings.ReplaceAll(deleteAction, "_", " ")
	}
	if updateAction != "NO_ACTION" {
		d += " on update " + strings.ReplaceAll(updateAction, "_", " ")
	}
	return normalizeDefinition(d)
}

func indexDescriptor(unique bool, keyCols, included []string, filter string) string {
	var d strings.Builder
	if unique {
		d.WriteString("unique ")
	}
	d.WriteString("(" + strings.Join(keyCols, ", ") + ")")
	if len(included) > 0 {
		d.WriteString(" include (" + strings.Join(included, ", ") + ")")
	}
	if filter != "" {
		d.WriteString(" where " + filter)
	}
	return normalizeDefinition(d.String())
}

func moduleObjectType(code string) string {
	switch strings.TrimSpace(code) {
	case "V":
		return "view"
	case "P":
		return "procedure"
	case "FN", "IF", "TF":
		return "function"
	case "TR":
		return "trigger"
	default:
		return "module"
	}
}
