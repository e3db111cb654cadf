package schema

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// TypeCode is the engine-neutral SQL type of a column
type TypeCode int

const (
	TypeOther TypeCode = iota
	TypeBit
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeReal
	TypeFloat
	TypeDouble
	TypeNumeric
	TypeDecimal
	TypeChar
	TypeVarchar
	TypeLongVarchar
	TypeClob
	TypeBinary
	TypeVarbinary
	TypeLongVarbinary
	TypeBlob
	TypeDate
	TypeTime
	TypeTimestamp
)

var typeNames = map[TypeCode]string{
	TypeOther:         "OTHER",
	TypeBit:           "BIT",
	TypeBoolean:       "BOOLEAN",
	TypeTinyInt:       "TINYINT",
	TypeSmallInt:      "SMALLINT",
	TypeInteger:       "INTEGER",
	TypeBigInt:        "BIGINT",
	TypeReal:          "REAL",
	TypeFloat:         "FLOAT",
	TypeDouble:        "DOUBLE",
	TypeNumeric:       "NUMERIC",
	TypeDecimal:       "DECIMAL",
	TypeChar:          "CHAR",
	TypeVarchar:       "VARCHAR",
	TypeLongVarchar:   "LONGVARCHAR",
	TypeClob:          "CLOB",
	TypeBinary:        "BINARY",
	TypeVarbinary:     "VARBINARY",
	TypeLongVarbinary: "LONGVARBINARY",
	TypeBlob:          "BLOB",
	TypeDate:          "DATE",
	TypeTime:          "TIME",
	TypeTimestamp:     "TIMESTAMP",
}

// String returns the canonical (JDBC style) name of the type
func (t TypeCode) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeCode(%d)", int(t))
}

// ParseTypeCode resolves a canonical type name, ignoring case
func ParseTypeCode(name string) (TypeCode, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for code, n := range typeNames {
		if n == upper {
			return code, nil
		}
	}
	return TypeOther, errors.NotValidf("type %q", name)
}

// IsNumeric reports whether values of this type are printed without quotes
func (t TypeCode) IsNumeric() bool {
	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt,
		TypeReal, TypeFloat, TypeDouble, TypeNumeric, TypeDecimal:
		return true
	}
	return false
}

// IsTextual reports whether the type stores character data
func (t TypeCode) IsTextual() bool {
	switch t {
	case TypeChar, TypeVarchar, TypeLongVarchar, TypeClob:
		return true
	}
	return false
}

// IsDateTime reports whether the type stores dates or times
func (t TypeCode) IsDateTime() bool {
	return t == TypeDate || t == TypeTime || t == TypeTimestamp
}

// HasSize reports whether a size is meaningful for the type
func (t TypeCode) HasSize() bool {
	switch t {
	case TypeChar, TypeVarchar, TypeBinary, TypeVarbinary:
		return true
	}
	return false
}

// HasPrecision reports whether precision and scale are meaningful for the type
func (t TypeCode) HasPrecision() bool {
	return t == TypeNumeric || t == TypeDecimal
}
