package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

// SQLiteReader reads the schema model from SQLite
type SQLiteReader struct {
	client *SQLiteClient
}

// NewSQLiteReader creates a new SQLite schema reader
func NewSQLiteReader(client *SQLiteClient) *SQLiteReader {
	return &SQLiteReader{
		client: client,
	}
}

// ReadSchema reads the complete schema for specified tables
// If tables is empty, reads all tables in the database
func (e *SQLiteReader) ReadSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, errors.Annotate(err, "failed to get table names")
	}

	s := &schema.Schema{}
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
func (e *SQLiteReader) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// pragma builds a PRAGMA call with a quoted table or index argument
func pragma(name, arg string) string {
	return fmt.Sprintf(`PRAGMA %s("%s")`, name, strings.ReplaceAll(arg, `"`, `""`))
}

// readTable reads all information for a single table
func (e *SQLiteReader) readTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, pk, err := e.readColumns(ctx, tableName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read columns")
	}
	table.Columns = columns
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

// readColumns reads column information and the primary key in key order.
// Only the single INTEGER PRIMARY KEY column of a table declared with
// AUTOINCREMENT is auto-increment.
func (e *SQLiteReader) readColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	autoIncrement, err := e.hasAutoIncrement(ctx, tableName)
	if err != nil {
		return nil, nil, err
	}

	rows, err := e.client.GetDB().QueryContext(ctx, pragma("table_info", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type keyPart struct {
		name  string
		order int
	}
	var columns []schema.Column
	var keyParts []keyPart

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := schema.Column{
			Name:     name,
			Nullable: notNull == 0,
		}
		col.Type, col.Size, col.Scale = typeFromNative(colType)
		if defaultValue.Valid {
			col.DefaultValue, _ = normalizeDefault(&defaultValue.String)
		}

		if pk > 0 {
			keyParts = append(keyParts, keyPart{name: name, order: pk})
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(keyParts, func(i, j int) bool { return keyParts[i].order < keyParts[j].order })
	pk := make([]string, len(keyParts))
	for i, part := range keyParts {
		pk[i] = part.name
	}

	if autoIncrement && len(pk) == 1 {
		for i := range columns {
			if columns[i].Name == pk[0] && columns[i].Type == schema.TypeInteger {
				columns[i].AutoIncrement = true
				columns[i].Nullable = false
			}
		}
	}

	return columns, pk, nil
}

// hasAutoIncrement reports whether the table was declared with AUTOINCREMENT
func (e *SQLiteReader) hasAutoIncrement(ctx context.Context, tableName string) (bool, error) {
	var ddl sql.NullString
	err := e.client.GetDB().QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&ddl)
	if err == sql.ErrNoRows {
		return false, errors.NotFoundf("table %s", tableName)
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(ddl.String), "AUTOINCREMENT"), nil
}

// readForeignKeys reads foreign keys. SQLite does not keep constraint
// names, so the keys come back unnamed.
func (e *SQLiteReader) readForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("foreign_key_list", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	lastID := -1

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		ref := schema.Reference{Local: fromCol, Foreign: toCol.String}
		if id != lastID {
			fks = append(fks, schema.ForeignKey{ForeignTable: targetTable})
			lastID = id
		}
		fks[len(fks)-1].References = append(fks[len(fks)-1].References, ref)
	}

	return fks, rows.Err()
}

// readIndexes reads index information
func (e *SQLiteReader) readIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("index_list", tableName))
	if err != nil {
		return nil, err
	}

	type indexEntry struct {
		name   string
		unique bool
	}
	var entries []indexEntry
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}

		// Skip auto-generated primary key indexes
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, entry := range entries {
		columns, err := e.readIndexColumns(ctx, entry.name)
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			indexes = append(indexes, schema.Index{
				Name:     entry.name,
				IsUnique: entry.unique,
				Columns:  columns,
			})
		}
	}

	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	return indexes, nil
}

func (e *SQLiteReader) readIndexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("index_info", indexName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}

		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}
