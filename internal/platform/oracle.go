package platform

import (
	"regexp"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

var (
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoTimePattern      = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	isoTimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d{1,9})?$`)
)

type oracleDialect struct {
	baseDialect
}

// NewOracle returns the Oracle dialect. Auto-increment columns are served by
// a sequence and a BEFORE INSERT trigger, and ISO date and time defaults are
// converted to TO_DATE calls.
func NewOracle() Dialect {
	return &oracleDialect{baseDialect{info: &Info{
		Name:                "oracle",
		IdentifierQuote:     `"`,
		ValueQuote:          "'",
		EscapedChars:        quoteEscapes(),
		StatementDelimiter:  ";",
		MaxIdentifierLength: 30,
		NativeTypes: map[schema.TypeCode]string{
			schema.TypeBit:           "NUMBER(1)",
			schema.TypeBoolean:       "NUMBER(1)",
			schema.TypeTinyInt:       "NUMBER(3)",
			schema.TypeSmallInt:      "NUMBER(5)",
			schema.TypeInteger:       "NUMBER(10)",
			schema.TypeBigInt:        "NUMBER(38)",
			schema.TypeReal:          "REAL",
			schema.TypeFloat:         "FLOAT",
			schema.TypeDouble:        "DOUBLE PRECISION",
			schema.TypeNumeric:       "NUMBER",
			schema.TypeDecimal:       "NUMBER",
			schema.TypeChar:          "CHAR",
			schema.TypeVarchar:       "VARCHAR2",
			schema.TypeLongVarchar:   "CLOB",
			schema.TypeClob:          "CLOB",
			schema.TypeBinary:        "RAW",
			schema.TypeVarbinary:     "RAW",
			schema.TypeLongVarbinary: "BLOB",
			schema.TypeBlob:          "BLOB",
			schema.TypeDate:          "DATE",
			schema.TypeTime:          "DATE",
			schema.TypeTimestamp:     "TIMESTAMP",
		},
		DefaultSizes:         standardSizes(),
		AutoIncrement:        AutoIncrementSequenceTrigger,
		AddColumnClause:      "ADD",
		ColumnChange:         AlterInPlace,
		DefaultChange:        AlterInPlace,
		AlterSyntax:          ModifyParensSyntax,
		ConvertsDateDefaults: true,
		PrimaryKeyChanges:    true,
		ForeignKeyDropClause: "DROP CONSTRAINT",
		DropTableSuffix:      " CASCADE CONSTRAINTS",
	}}}
}

// NativeDefault converts boolean defaults to 0 or 1 and ISO formatted date,
// time and timestamp defaults to TO_DATE or TO_TIMESTAMP calls. Any other
// value is passed through.
func (d *oracleDialect) NativeDefault(col schema.Column) (string, bool) {
	if col.DefaultValue == nil {
		return "", false
	}
	value := *col.DefaultValue
	switch col.Type {
	case schema.TypeBit, schema.TypeBoolean:
		return smallintBoolean(value), true
	case schema.TypeDate:
		if isoDatePattern.MatchString(value) {
			return "TO_DATE('" + value + "', 'YYYY-MM-DD')", true
		}
	case schema.TypeTime:
		if isoTimePattern.MatchString(value) {
			return "TO_DATE('" + value + "', 'HH24:MI:SS')", true
		}
	case schema.TypeTimestamp:
		if isoTimestampPattern.MatchString(value) {
			if strings.Contains(value, ".") {
				return "TO_TIMESTAMP('" + value + "', 'YYYY-MM-DD HH24:MI:SS.FF')", true
			}
			return "TO_DATE('" + value + "', 'YYYY-MM-DD HH24:MI:SS')", true
		}
	}
	if strings.HasPrefix(value, "TO_DATE(") || strings.HasPrefix(value, "TO_TIMESTAMP(") {
		return value, true
	}
	return value, false
}
