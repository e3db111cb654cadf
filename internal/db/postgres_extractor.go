package db

import (
	"context"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

// PostgresReader reads the schema model from PostgreSQL
type PostgresReader struct {
	client *PostgresClient
	schema string
}

// NewPostgresReader creates a reader for the given PostgreSQL schema
func NewPostgresReader(client *PostgresClient, schemaName string) *PostgresReader {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresReader{
		client: client,
		schema: schemaName,
	}
}

// ReadSchema reads the complete schema for specified tables
// If tables is empty, reads all tables in the schema
func (e *PostgresReader) ReadSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, errors.Annotate(err, "failed to get table names")
	}

	s := &schema.Schema{Name: e.schema}
	for _, tableName := range tableNames {
		table, err := e.readTable(ctx, tableName)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read table %s", tableName)
		}
		s.Tables = append(s.Tables, *table)
	}

	return s, nil
}

// getTableNames returns the list of tables to read
func (e *PostgresReader) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// readTable reads all information for a single table
func (e *PostgresReader) readTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, err := e.readColumns(ctx, tableName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read columns")
	}
	table.Columns = columns

	pk, err := e.readPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read primary key")
	}
	if err := table.SetPrimaryKey(pk, true); err != nil {
		return nil, errors.Trace(err)
	}

	fks, err := e.readForeignKeys(ctx, tableName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read foreign keys")
	}
	table.ForeignKeys = fks

	indexes, err := e.readIndexes(ctx, tableName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read indexes")
	}
	table.Indexes = indexes

	return table, nil
}

// readColumns reads column information for a table. Identity columns and
// columns drawing from a sequence are reported as auto-increment.
func (e *PostgresReader) readColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_identity
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, udtName, nullable, identity string
		var defaultVal *string
		var charMaxLength, precision, scale *int

		if err := rows.Scan(&col.Name, &dataType, &udtName, &nullable, &defaultVal,
			&charMaxLength, &precision, &scale, &identity); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.Type, col.Size, col.Scale = postgresType(dataType, udtName, charMaxLength, precision, scale)

		var fromSequence bool
		col.DefaultValue, fromSequence = normalizeDefault(defaultVal)
		col.AutoIncrement = fromSequence || identity == "YES"

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// postgresType maps information_schema type details to a type code. Arrays
// and user-defined types have no portable equivalent.
func postgresType(dataType, udtName string, charMaxLength, precision, scale *int) (schema.TypeCode, int, int) {
	switch dataType {
	case "ARRAY", "USER-DEFINED":
		return schema.TypeOther, 0, 0
	}
	code, _, _ := typeFromNative(dataType)
	if code == schema.TypeOther {
		code, _, _ = typeFromNative(udtName)
	}
	switch {
	case code.HasSize() && charMaxLength != nil:
		return code, *charMaxLength, 0
	case code.HasPrecision() && precision != nil:
		s := 0
		if scale != nil {
			s = *scale
		}
		return code, *precision, s
	}
	return code, 0, 0
}

// readPrimaryKey reads primary key columns
func (e *PostgresReader) readPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}

	return pk, rows.Err()
}

// readForeignKeys reads foreign keys with their column pairs in key order
func (e *PostgresReader) readForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			ukcu.table_name,
			ukcu.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = rc.constraint_schema
			AND kcu.constraint_name = rc.constraint_name
		JOIN information_schema.key_column_usage ukcu
			ON ukcu.constraint_schema = rc.unique_constraint_schema
			AND ukcu.constraint_name = rc.unique_constraint_name
			AND ukcu.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = $1
			AND kcu.table_name = $2
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var name, local, foreignTable, foreign string
		if err := rows.Scan(&name, &local, &foreignTable, &foreign); err != nil {
			return nil, err
		}
		fks = appendReference(fks, name, local, foreignTable, foreign)
	}

	return fks, rows.Err()
}

// readIndexes reads index information
func (e *PostgresReader) readIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &idx.Columns); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
