package scripter

// Catalog queries for script generation.
// Centralizing queries here keeps SQL separate from Go code. All queries
// read sys.* views only and never touch user tables, so they are safe to
// run against a production source with any isolation level.

const (
	// querySchemas lists user-created schemas. Built-in schemas (dbo, guest,
	// INFORMATION_SCHEMA, sys) occupy ids 1-4 and fixed-role schemas start
	// at 16384; everything between is user-created.
	querySchemas = `
		SELECT s.name
		FROM sys.schemas AS s
		WHERE s.schema_id BETWEEN 5 AND 16383
		ORDER BY s.name`

	// queryAliasTypes lists user-defined alias types with their base type.
	// Table types are skipped; they cannot be expressed as CREATE TYPE FROM.
	queryAliasTypes = `
		SELECT s.name AS schema_name, t.name AS type_name,
		       bt.name AS base_type, t.max_length, t.precision, t.scale,
		       t.is_nullable
		FROM sys.types AS t
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.types AS bt
		  ON bt.user_type_id = t.system_type_id AND bt.is_user_defined = 0
		WHERE t.is_user_defined = 1 AND t.is_table_type = 0
		ORDER BY s.name, t.name`

	// queryTables lists user tables in naive catalog order.
	queryTables = `
		SELECT t.object_id, s.name AS schema_name, t.name AS table_name
		FROM sys.tables AS t
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		WHERE t.is_ms_shipped = 0
		ORDER BY s.name, t.name`

	// queryColumns lists every column of every user table in one round trip;
	// rows are grouped by object_id client-side. Identity seed/increment are
	// sql_variant in the catalog and are cast to bigint for scanning.
	queryColumns = `
		SELECT c.object_id, c.name, ty.name AS type_name,
		       c.max_length, c.precision, c.scale, c.is_nullable, c.is_identity,
		       CAST(ISNULL(ic.seed_value, 1) AS bigint) AS seed_value,
		       CAST(ISNULL(ic.increment_value, 1) AS bigint) AS increment_value,
		       c.is_computed, ISNULL(cc.definition, '') AS computed_definition,
		       ISNULL(cc.is_persisted, 0) AS is_persisted
		FROM sys.columns AS c
		JOIN sys.tables AS t ON t.object_id = c.object_id AND t.is_ms_shipped = 0
		JOIN sys.types AS ty ON ty.user_type_id = c.user_type_id
		LEFT JOIN sys.identity_columns AS ic
		  ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		LEFT JOIN sys.computed_columns AS cc
		  ON cc.object_id = c.object_id AND cc.column_id = c.column_id
		ORDER BY c.object_id, c.column_id`

	// queryKeyConstraints lists primary key and unique constraint columns.
	// The @p1 parameter selects the constraint type: 'PK' or 'UQ'.
	queryKeyConstraints = `
		SELECT kc.parent_object_id, kc.name, i.type,
		       c.name AS column_name, ic.is_descending_key
		FROM sys.key_constraints AS kc
		JOIN sys.indexes AS i
		  ON i.object_id = kc.parent_object_id AND i.index_id = kc.unique_index_id
		JOIN sys.index_columns AS ic
		  ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns AS c
		  ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE kc.type = @p1 AND ic.key_ordinal > 0
		ORDER BY kc.parent_object_id, kc.name, ic.key_ordinal`

	// queryDefaultConstraints lists column defaults with their definitions.
	queryDefaultConstraints = `
		SELECT s.name AS schema_name, t.name AS table_name,
		       dc.name AS constraint_name, c.name AS column_name, dc.definition
		FROM sys.default_constraints AS dc
		JOIN sys.tables AS t ON t.object_id = dc.parent_object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		JOIN sys.columns AS c
		  ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id
		ORDER BY s.name, t.name, dc.name`

	// queryCheckConstraints lists check constraints. Definitions come back
	// already parenthesized.
	queryCheckConstraints = `
		SELECT s.name AS schema_name, t.name AS table_name,
		       cc.name AS constraint_name, cc.definition
		FROM sys.check_constraints AS cc
		JOIN sys.tables AS t ON t.object_id = cc.parent_object_id AND t.is_ms_shipped = 0
		JOIN sys.schemas AS s ON s.schema_id = t.schema_id
		ORDER BY s.name, t.name, cc.name`

	// queryIndexes lists nonclustered index columns. Primary keys and unique
	// constraints are carried by their constraint DDL instead; hypothetical
	// indexes are tuning artifacts and never scripted.
	queryIndexes = `
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

	// queryForeignKeys lists foreign key columns with referential actions.
	queryForeignKeys = `
		SELECT fk.object_id, s.name AS schema_name, t.name AS table_name,
		       fk.name AS constraint_name,
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

	// queryModules lists view/procedure/function/trigger definitions in
	// object_id order, which approximates creation order. Encrypted modules
	// come back with a NULL definition.
	queryModules = `
		SELECT s.name AS schema_name, o.name AS object_name, o.type,
		       m.definition, m.uses_ansi_nulls, m.uses_quoted_identifier
		FROM sys.sql_modules AS m
		JOIN sys.objects AS o ON o.object_id = m.object_id
		JOIN sys.schemas AS s ON s.schema_id = o.schema_id
		WHERE o.is_ms_shipped = 0
		  AND o.type IN ('V', 'P', 'FN', 'IF', 'TF', 'TR')
		ORDER BY o.object_id`

	// queryRoles lists user-created database roles. public is principal 0
	// and fixed roles carry is_fixed_role, so both fall out of the filter.
	queryRoles = `
		SELECT dp.name
		FROM sys.database_principals AS dp
		WHERE dp.type = 'R' AND dp.is_fixed_role = 0 AND dp.principal_id > 4
		ORDER BY dp.name`

	// queryUsers lists database users. Principals 1-4 are dbo, guest,
	// INFORMATION_SCHEMA, and sys.
	queryUsers = `
		SELECT dp.name, dp.authentication_type_desc
		FROM sys.database_principals AS dp
		WHERE dp.type IN ('S', 'U', 'G') AND dp.principal_id > 4
		ORDER BY dp.principal_id`

	// queryRoleMembers lists role memberships for user principals.
	queryRoleMembers = `
		SELECT r.name AS role_name, m.name AS member_name
		FROM sys.database_role_members AS rm
		JOIN sys.database_principals AS r ON r.principal_id = rm.role_principal_id
		JOIN sys.database_principals AS m ON m.principal_id = rm.member_principal_id
		WHERE m.principal_id > 4
		ORDER BY r.name, m.name`
)
