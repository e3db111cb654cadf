package platform

import "github.com/tordrt/ddlgen/internal/schema"

// NewMySQL returns the MySQL dialect. Columns are restated in full with
// MODIFY COLUMN and can be added at any position.
func NewMySQL() Dialect {
	return &baseDialect{info: &Info{
		Name:            "mysql",
		IdentifierQuote: "`",
		ValueQuote:      "'",
		EscapedChars: []Escape{
			{From: `\`, To: `\\`},
			{From: "'", To: "''"},
		},
		StatementDelimiter:  ";",
		MaxIdentifierLength: 64,
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "BIT",
			schema.TypeBoolean:       "BOOLEAN",
			schema.TypeTinyInt:       "TINYINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "BIGINT",
			schema.TypeReal:          "FLOAT",
			schema.TypeFloat:         "DOUBLE",
			schema.TypeDouble:        "DOUBLE",
			schema.TypeNumeric:       "DECIMAL",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "MEDIUMTEXT",
			schema.TypeClob:          "LONGTEXT",
			schema.TypeBinary:        "BINARY",
			schema.TypeVarbinary:     "VARBINARY",
			schema.TypeLongVarbinary: "MEDIUMBLOB",
			schema.TypeBlob:          "LONGBLOB",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "DATETIME",
		},
		DefaultSizes:         standardSizes(),
		AutoIncrement:        AutoIncrementNative,
		AutoIncrementClause:  "AUTO_INCREMENT",
		AddColumnClause:      "ADD COLUMN",
		ColumnChange:         AlterInPlace,
		DefaultChange:        AlterInPlace,
		AlterSyntax:          ModifyColumnSyntax,
		ColumnPositioning:    true,
		PrimaryKeyChanges:    true,
		ForeignKeyDropClause: "DROP FOREIGN KEY",
		IndexDropOnTable:     true,
	}}
}
