package db

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Reader reads the schema model of a live database
type Reader interface {
	// ReadSchema reads the named tables, or every table when tables is empty
	ReadSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

var nativeTypeCodes = map[string]schema.TypeCode{
	"bit":               schema.TypeBit,
	"bool":              schema.TypeBoolean,
	"boolean":           schema.TypeBoolean,
	"tinyint":           schema.TypeTinyInt,
	"smallint":          schema.TypeSmallInt,
	"int2":              schema.TypeSmallInt,
	"smallserial":       schema.TypeSmallInt,
	"mediumint":         schema.TypeInteger,
	"int":               schema.TypeInteger,
	"integer":           schema.TypeInteger,
	"int4":              schema.TypeInteger,
	"serial":            schema.TypeInteger,
	"bigint":            schema.TypeBigInt,
	"int8":              schema.TypeBigInt,
	"bigserial":         schema.TypeBigInt,
	"real":              schema.TypeReal,
	"float4":            schema.TypeReal,
	"float":             schema.TypeFloat,
	"double":            schema.TypeDouble,
	"double precision":  schema.TypeDouble,
	"float8":            schema.TypeDouble,
	"numeric":           schema.TypeNumeric,
	"decimal":           schema.TypeDecimal,
	"char":              schema.TypeChar,
	"character":         schema.TypeChar,
	"bpchar":            schema.TypeChar,
	"varchar":           schema.TypeVarchar,
	"character varying": schema.TypeVarchar,
	"nvarchar":          schema.TypeVarchar,
	"tinytext":          schema.TypeVarchar,
	"text":              schema.TypeClob,
	"mediumtext":        schema.TypeLongVarchar,
	"longtext":          schema.TypeClob,
	"clob":              schema.TypeClob,
	"binary":            schema.TypeBinary,
	"varbinary":         schema.TypeVarbinary,
	"tinyblob":          schema.TypeVarbinary,
	"mediumblob":        schema.TypeLongVarbinary,
	"blob":              schema.TypeBlob,
	"longblob":          schema.TypeBlob,
	"bytea":             schema.TypeBlob,
	"date":              schema.TypeDate,
	"time":              schema.TypeTime,
	"timetz":            schema.TypeTime,
	"timestamp":         schema.TypeTimestamp,
	"timestamptz":       schema.TypeTimestamp,
	"datetime":          schema.TypeTimestamp,
}

// typeFromNative maps an engine type name such as "varchar(50)",
// "decimal(10,2) unsigned" or "timestamp(3) without time zone" to a type code
// with size and scale. Unknown names map to OTHER.
func typeFromNative(native string) (schema.TypeCode, int, int) {
	name := strings.ToLower(strings.TrimSpace(native))
	name = strings.TrimSuffix(name, "[]")
	for _, suffix := range []string{" unsigned", " zerofill", " with time zone", " without time zone"} {
		name = strings.ReplaceAll(name, suffix, "")
	}

	var args []string
	if open := strings.Index(name, "("); open >= 0 {
		if end := strings.Index(name[open:], ")"); end > 0 {
			args = strings.Split(name[open+1:open+end], ",")
			name = strings.TrimSpace(name[:open] + name[open+end+1:])
		}
	}

	code, ok := nativeTypeCodes[name]
	if !ok {
		return schema.TypeOther, 0, 0
	}
	var size, scale int
	if len(args) > 0 {
		size, _ = strconv.Atoi(strings.TrimSpace(args[0]))
	}
	if len(args) > 1 {
		scale, _ = strconv.Atoi(strings.TrimSpace(args[1]))
	}

	// MySQL spells BOOLEAN as tinyint(1)
	if code == schema.TypeTinyInt && size == 1 {
		return schema.TypeBoolean, 0, 0
	}
	switch {
	case code.HasPrecision():
		return code, size, scale
	case code.HasSize():
		return code, size, 0
	}
	return code, 0, 0
}

var castSuffix = regexp.MustCompile(`::[a-zA-Z_][a-zA-Z0-9_ ]*(\(\d+(,\s*\d+)?\))?(\[\])?$`)

// normalizeDefault turns a default as reported by the catalog into the
// plain value the model stores. Casts like 'x'::text, wrapping parentheses
// and quotes are removed. Sequence defaults report the column as
// auto-increment and carry no default.
func normalizeDefault(raw *string) (value *string, autoIncrement bool) {
	if raw == nil {
		return nil, false
	}
	v := strings.TrimSpace(*raw)
	if strings.HasPrefix(strings.ToLower(v), "nextval(") {
		return nil, true
	}
	for {
		stripped := castSuffix.ReplaceAllString(v, "")
		stripped = unwrapParens(stripped)
		if stripped == v {
			break
		}
		v = stripped
	}
	if strings.EqualFold(v, "null") {
		return nil, false
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return &v, false
}

// unwrapParens removes one pair of parentheses enclosing the whole value
func unwrapParens(v string) string {
	if len(v) < 2 || v[0] != '(' || v[len(v)-1] != ')' {
		return v
	}
	depth := 0
	for i, r := range v {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i < len(v)-1 {
				return v
			}
		}
	}
	return strings.TrimSpace(v[1 : len(v)-1])
}

// appendReference adds one column pair to the foreign key it belongs to,
// starting a new key when the constraint differs from the previous row.
func appendReference(fks []schema.ForeignKey, name, local, foreignTable, foreign string) []schema.ForeignKey {
	ref := schema.Reference{Local: local, Foreign: foreign}
	if n := len(fks); n > 0 && fks[n-1].Name == name && fks[n-1].ForeignTable == foreignTable {
		fks[n-1].References = append(fks[n-1].References, ref)
		return fks
	}
	return append(fks, schema.ForeignKey{Name: name, ForeignTable: foreignTable, References: []schema.Reference{ref}})
}
