package platform

import "github.com/tordrt/ddlgen/internal/schema"

// NewMaxDB returns the MaxDB (formerly SAP DB) dialect. Column definitions
// and defaults are changed by dropping and re-adding the column.
func NewMaxDB() Dialect {
	return &baseDialect{info: &Info{
		Name:                "maxdb",
		IdentifierQuote:     `"`,
		ValueQuote:          "'",
		EscapedChars:        quoteEscapes(),
		StatementDelimiter:  ";",
		MaxIdentifierLength: 32,
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "BOOLEAN",
			schema.TypeBoolean:       "BOOLEAN",
			schema.TypeTinyInt:       "SMALLINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "FIXED(38,0)",
			schema.TypeReal:          "REAL",
			schema.TypeFloat:         "DOUBLE PRECISION",
			schema.TypeDouble:        "DOUBLE PRECISION",
			schema.TypeNumeric:       "DECIMAL",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "LONG VARCHAR",
			schema.TypeClob:          "LONG",
			schema.TypeBinary:        "LONG BYTE",
			schema.TypeVarbinary:     "LONG BYTE",
			schema.TypeLongVarbinary: "LONG BYTE",
			schema.TypeBlob:          "LONG BYTE",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "TIMESTAMP",
		},
		DefaultSizes: standardSizes(),
		UnsizedTypes: map[schema.TypeCode]bool{
			schema.TypeBinary:    true,
			schema.TypeVarbinary: true,
		},
		AutoIncrement:        AutoIncrementNative,
		AutoIncrementClause:  "DEFAULT SERIAL",
		AddColumnClause:      "ADD",
		ColumnChange:         AlterRecreate,
		DefaultChange:        AlterRecreate,
		PrimaryKeyChanges:    true,
		ForeignKeyDropClause: "DROP FOREIGN KEY",
		IndexDropOnTable:     true,
	}}
}
