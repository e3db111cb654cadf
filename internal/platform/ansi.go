package platform

import "github.com/tordrt/ddlgen/internal/schema"

// NewANSI returns a dialect that sticks to standard SQL. Auto-increment
// columns get a sequence the application draws values from.
func NewANSI() Dialect {
	return &baseDialect{info: &Info{
		Name:               "ansi",
		IdentifierQuote:    `"`,
		ValueQuote:         "'",
		EscapedChars:       quoteEscapes(),
		StatementDelimiter: ";",
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "BIT",
			schema.TypeBoolean:       "BOOLEAN",
			schema.TypeTinyInt:       "SMALLINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "BIGINT",
			schema.TypeReal:          "REAL",
			schema.TypeFloat:         "FLOAT",
			schema.TypeDouble:        "DOUBLE PRECISION",
			schema.TypeNumeric:       "NUMERIC",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "CLOB",
			schema.TypeClob:          "CLOB",
			schema.TypeBinary:        "BINARY",
			schema.TypeVarbinary:     "VARBINARY",
			schema.TypeLongVarbinary: "BLOB",
			schema.TypeBlob:          "BLOB",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "TIMESTAMP",
		},
		DefaultSizes:         standardSizes(),
		AutoIncrement:        AutoIncrementSequence,
		AddColumnClause:      "ADD COLUMN",
		ColumnChange:         AlterInPlace,
		DefaultChange:        AlterInPlace,
		AlterSyntax:          AlterColumnSyntax,
		AlterTypeClause:      "SET DATA TYPE",
		PrimaryKeyChanges:    true,
		ForeignKeyDropClause: "DROP CONSTRAINT",
	}}
}
