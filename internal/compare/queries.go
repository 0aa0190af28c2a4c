package compare

// Catalog queries for comparison snapshots. These are deliberately
// separate from the scripter's queries: comparison needs identity and
// definition, not enough detail to recreate the object.
const (
	// compareTableColumns returns every user table column in ordinal
	// order; rows collapse client-side into one canonical key per table.
	compareTableColumns = `
		SELECT s.name AS schema_name, t.name AS table_name, c.name AS column_name
		FROM sys.tables AS t
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.columns AS c ON c.object_id = t.object_id
		WHERE t.is_ms_shipped = 0
		ORDER BY s.name, t.name, c.column_id`

	// compareRowCounts sums partition rows over the heap or clustered
	// index. Reading sys.dm_db_partition_stats needs VIEW DATABASE STATE,
	// which is why row counting is opt-in.
	compareRowCounts = `
		SELECT s.name AS schema_name, t.name AS table_name, SUM(ps.row_count) AS row_count
		FROM sys.dm_db_partition_stats AS ps
		JOIN sys.tables AS t ON t.object_id = ps.object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		WHERE ps.index_id IN (0, 1)
		GROUP BY s.name, t.name`

	// compareKeyConstraints returns primary key and unique constraint
	// columns for both kinds in one pass.
	compareKeyConstraints = `
		SELECT s.name AS schema_name, t.name AS table_name, kc.name AS constraint_name,
		       kc.type, i.type AS index_type, c.name AS column_name, ic.is_descending_key
		FROM sys.key_constraints AS kc
		JOIN sys.tables AS t ON t.object_id = kc.parent_object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.indexes AS i
		  ON i.object_id = kc.parent_object_id AND i.index_id = kc.unique_index_id
		JOIN sys.index_columns AS ic
		  ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns AS c
		  ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE ic.key_ordinal > 0
		ORDER BY s.name, t.name, kc.name, ic.key_ordinal`

	compareDefaultConstraints = `
		SELECT s.name AS schema_name, t.name AS table_name,
		       dc.name AS constraint_name, c.name AS column_name, dc.definition
		FROM sys.default_constraints AS dc
		JOIN sys.tables AS t ON t.object_id = dc.parent_object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.columns AS c
		  ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id
		ORDER BY s.name, t.name, dc.name`

	compareCheckConstraints = `
		SELECT s.name AS schema_name, t.name AS table_name,
		       cc.name AS constraint_name, cc.definition
		FROM sys.check_constraints AS cc
		JOIN sys.tables AS t ON t.object_id = cc.parent_object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		ORDER BY s.name, t.name, cc.name`

	compareForeignKeys = `
		SELECT s.name AS schema_name, t.name AS table_name, fk.name AS constraint_name,
		       rs.name AS ref_schema, rt.name AS ref_table,
		       pc.name AS parent_column, rc.name AS ref_column,
		       fk.delete_referential_action_desc, fk.update_referential_action_desc
		FROM sys.foreign_keys AS fk
		JOIN sys.tables AS t ON t.object_id = fk.parent_object_id
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.tables AS rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.schemas AS rs ON rs.schema_id = rt.schema_id
		JOIN sys.foreign_key_columns AS fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns AS pc
		  ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.columns AS rc
		  ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE fk.is_ms_shipped = 0
		ORDER BY s.name, t.name, fk.name, fkc.constraint_column_id`

	compareIndexes = `
		SELECT s.name AS schema_name, t.name AS table_name, i.name AS index_name,
		       i.is_unique, ISNULL(i.filter_definition, '') AS filter_definition,
		       c.name AS column_name, ic.is_descending_key, ic.is_included_column
		FROM sys.indexes AS i
		JOIN sys.tables AS t ON t.object_id = i.object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.index_columns AS ic
		  ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns AS c
		  ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE i.type = 2 AND i.is_primary_key = 0
		  AND i.is_unique_constraint = 0 AND i.is_hypothetical = 0
		ORDER BY s.name, t.name, i.name, ic.is_included_column, ic.key_ordinal, ic.index_column_id`

	// compareModules returns module definitions; encrypted modules come
	// back NULL and are left out of the snapshot on either side.
	compareModules = `
		SELECT s.name AS schema_name, o.name AS object_name, o.type, m.definition
		FROM sys.sql_modules AS m
		JOIN sys.objects AS o ON o.object_id = m.object_id
		JOIN sys.schemas AS s ON s.schema_id = o.schema_id
		WHERE o.is_ms_shipped = 0
		  AND o.type IN ('V', 'P', 'FN', 'IF', 'TF', 'TR')
		ORDER BY s.name, o.name`
)
