package platform

import "github.com/tordrt/ddlgen/internal/schema"

// NewPostgreSQL returns the PostgreSQL dialect. Type changes carry a USING
// cast and auto-increment columns are identity columns.
func NewPostgreSQL() Dialect {
	return &baseDialect{info: &Info{
		Name:                "postgresql",
		IdentifierQuote:     `"`,
		ValueQuote:          "'",
		EscapedChars:        quoteEscapes(),
		StatementDelimiter:  ";",
		MaxIdentifierLength: 63,
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "BOOLEAN",
			schema.TypeBoolean:       "BOOLEAN",
			schema.TypeTinyInt:       "SMALLINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "BIGINT",
			schema.TypeReal:          "REAL",
			schema.TypeFloat:         "DOUBLE PRECISION",
			schema.TypeDouble:        "DOUBLE PRECISION",
			schema.TypeNumeric:       "NUMERIC",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "TEXT",
			schema.TypeClob:          "TEXT",
			schema.TypeBinary:        "BYTEA",
			schema.TypeVarbinary:     "BYTEA",
			schema.TypeLongVarbinary: "BYTEA",
			schema.TypeBlob:          "BYTEA",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "TIMESTAMP",
		},
		DefaultSizes: standardSizes(),
		UnsizedTypes: map[schema.TypeCode]bool{
			schema.TypeBinary:    true,
			schema.TypeVarbinary: true,
		},
		AutoIncrement:              AutoIncrementNative,
		AutoIncrementClause:        "GENERATED BY DEFAULT AS IDENTITY",
		IdentityAdd:                "ADD GENERATED BY DEFAULT AS IDENTITY",
		IdentityDrop:               "DROP IDENTITY IF EXISTS",
		AddColumnClause:            "ADD COLUMN",
		ColumnChange:               AlterInPlace,
		DefaultChange:              AlterInPlace,
		AlterSyntax:                AlterColumnSyntax,
		AlterTypeClause:            "TYPE",
		AlterTypeUsing:             true,
		PrimaryKeyChanges:          true,
		PrimaryKeyConstraintSuffix: "_pkey",
		ForeignKeyDropClause:       "DROP CONSTRAINT",
	}}
}
