package platform

import (
	"strconv"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

type db2Dialect struct {
	baseDialect
}

// NewDB2 returns the DB2 dialect. Columns of the primary key cannot be
// altered while the key exists, so the key is dropped and re-added around
// such changes.
func NewDB2() Dialect {
	return &db2Dialect{baseDialect{info: &Info{
		Name:                "db2",
		IdentifierQuote:     `"`,
		ValueQuote:          "'",
		EscapedChars:        quoteEscapes(),
		StatementDelimiter:  ";",
		MaxIdentifierLength: 128,
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "SMALLINT",
			schema.TypeBoolean:       "SMALLINT",
			schema.TypeTinyInt:       "SMALLINT",
			schema.TypeSmallInt:      "SMALLINT",
			schema.TypeInteger:       "INTEGER",
			schema.TypeBigInt:        "BIGINT",
			schema.TypeReal:          "REAL",
			schema.TypeFloat:         "DOUBLE",
			schema.TypeDouble:        "DOUBLE",
			schema.TypeNumeric:       "NUMERIC",
			schema.TypeDecimal:       "DECIMAL",
			schema.TypeChar:          "CHARACTER",
			schema.TypeVarchar:       "VARCHAR",
			schema.TypeLongVarchar:   "LONG VARCHAR",
			schema.TypeClob:          "CLOB",
			schema.TypeBinary:        "BLOB",
			schema.TypeVarbinary:     "BLOB",
			schema.TypeLongVarbinary: "BLOB",
			schema.TypeBlob:          "BLOB",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "TIME",
			schema.TypeTimestamp:     "TIMESTAMP",
		},
		DefaultSizes:                   standardSizes(),
		AutoIncrement:                  AutoIncrementNative,
		AutoIncrementClause:            "GENERATED BY DEFAULT AS IDENTITY",
		IdentityAdd:                    "SET GENERATED BY DEFAULT AS IDENTITY",
		IdentityDrop:                   "DROP IDENTITY",
		AddColumnClause:                "ADD COLUMN",
		ColumnChange:                   AlterInPlace,
		DefaultChange:                  AlterInPlace,
		AlterSyntax:                    AlterColumnSyntax,
		AlterTypeClause:                "SET DATA TYPE",
		AlterPrimaryKeyColumnNeedsDrop: true,
		PrimaryKeyChanges:              true,
		ForeignKeyDropClause:           "DROP CONSTRAINT",
	}}}
}

// NativeDefault stores boolean defaults as 0 or 1
func (d *db2Dialect) NativeDefault(col schema.Column) (string, bool) {
	if col.DefaultValue != nil && (col.Type == schema.TypeBit || col.Type == schema.TypeBoolean) {
		return smallintBoolean(*col.DefaultValue), true
	}
	return d.baseDialect.NativeDefault(col)
}

// CastExpression casts numeric values headed for a VARCHAR column through
// CHAR, since DB2 cannot convert numbers to VARCHAR directly.
func (d *db2Dialect) CastExpression(b *Builder, source, target schema.Column) string {
	if source.Type.IsNumeric() && strings.EqualFold(b.NativeType(target), "VARCHAR") {
		size := schema.EffectiveSize(target, d.info.DefaultSizes)
		return "CAST(" + b.Identifier(source.Name) + " AS CHAR(" + strconv.Itoa(size) + "))"
	}
	return d.baseDialect.CastExpression(b, source, target)
}
