package platform

import "github.com/tordrt/ddlgen/internal/schema"

// NewSQLite returns the SQLite dialect. SQLite can add columns at the end of
// a table and drop them, but cannot change column definitions, primary keys
// or foreign keys of an existing table; those changes are reported as
// unsupported so the caller can rebuild the table.
func NewSQLite() Dialect {
	return &baseDialect{info: &Info{
		Name:               "sqlite",
		IdentifierQuote:    `"`,
		ValueQuote:         "'",
		EscapedChars:       quoteEscapes(),
		StatementDelimiter: ";",
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "BOOLEAN",
			schema.TypeBoolean:       "BOOLEAN",
			schema.TypeTinyInt:       "TINYINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "BIGINT",
			schema.TypeReal:          "REAL",
			schema.TypeFloat:         "FLOAT",
			schema.TypeDouble:        "DOUBLE",
			schema.TypeNumeric:       "NUMERIC",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "TEXT",
			schema.TypeClob:          "TEXT",
			schema.TypeBinary:        "BLOB",
			schema.TypeVarbinary:     "BLOB",
			schema.TypeLongVarbinary: "BLOB",
			schema.TypeBlob:          "BLOB",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "TIMESTAMP",
		},
		DefaultSizes: standardSizes(),
		UnsizedTypes: map[schema.TypeCode]bool{
			schema.TypeBinary:    true,
			schema.TypeVarbinary: true,
		},
		AutoIncrement:          AutoIncrementNative,
		AutoIncrementClause:    "AUTOINCREMENT",
		AutoIncrementInlinePK:  true,
		AddColumnClause:        "ADD COLUMN",
		NotNullAddNeedsDefault: true,
		ColumnChange:           AlterUnsupported,
		DefaultChange:          AlterUnsupported,
		ForeignKeysInline:      true,
	}}
}
