package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

// MySQLReader reads the schema model from MySQL
type MySQLReader struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLReader creates a new MySQL schema reader
func NewMySQLReader(client *MySQLClient, schemaName string) *MySQLReader {
	return &MySQLReader{
		client:     client,
		schemaName: schemaName,
	}
}

// ReadSchema reads the complete schema for specified tables
// If tables is empty, reads all tables in the schema
func (e *MySQLReader) ReadSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, errors.Annotate(err, "failed to get table names")
	}

	s := &schema.Schema{Name: e.schemaName}
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
func (e *MySQLReader) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName)
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
func (e *MySQLReader) readTable(ctx context.Context, tableName string) (*schema.Table, error) {
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

// readColumns reads column information for a table
func (e *MySQLReader) readColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var columnType, nullable, extra string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &columnType, &nullable, &defaultVal, &extra); err != nil {
			return nil, err
		}

		col.Type, col.Size, col.Scale = typeFromNative(columnType)
		col.Nullable = nullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		// An empty default means none was declared
		if defaultVal.Valid && defaultVal.String != "" {
			col.DefaultValue, _ = normalizeDefault(&defaultVal.String)
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// readPrimaryKey reads primary key columns
func (e *MySQLReader) readPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
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
func (e *MySQLReader) readForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
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

// readIndexes reads index information. MySQL creates an index for every
// foreign key, which the engine also reports here.
func (e *MySQLReader) readIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			s.index_name,
			s.non_unique = 0 AS is_unique,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index) AS column_names
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
			AND s.index_name != 'PRIMARY'
		GROUP BY s.index_name, s.non_unique
		ORDER BY s.index_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var isUnique int
		var columnNames string

		if err := rows.Scan(&idx.Name, &isUnique, &columnNames); err != nil {
			return nil, err
		}

		idx.IsUnique = isUnique == 1
		idx.Columns = strings.Split(columnNames, ",")

		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
