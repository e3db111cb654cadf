package platform

import (
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Dialect describes one database engine
type Dialect interface {
	// Info returns the static facts about the engine.
	Info() *Info
	// NativeDefault converts the column's default value to the engine's
	// literal syntax. When raw is true the value is printed as is, otherwise
	// the builder decides about quoting.
	NativeDefault(col schema.Column) (value string, raw bool)
	// CastExpression converts the source column's value to the target
	// column's type.
	CastExpression(b *Builder, source, target schema.Column) string
}

// baseDialect implements the behavior shared by most engines. Dialects embed
// it and override the hooks where they differ.
type baseDialect struct {
	info *Info
}

func (d *baseDialect) Info() *Info {
	return d.info
}

// NativeDefault passes the default through unchanged. Boolean values are
// printed without quotes.
func (d *baseDialect) NativeDefault(col schema.Column) (string, bool) {
	if col.DefaultValue == nil {
		return "", false
	}
	value := *col.DefaultValue
	if col.Type == schema.TypeBit || col.Type == schema.TypeBoolean {
		return value, true
	}
	return value, false
}

// CastExpression returns the bare column when nothing about the stored type
// changes and a CAST to the target type otherwise.
func (d *baseDialect) CastExpression(b *Builder, source, target schema.Column) string {
	if strings.EqualFold(b.NativeType(source), b.NativeType(target)) &&
		!schema.SizeChanged(source, target, d.info.DefaultSizes) {
		return b.Identifier(source.Name)
	}
	return "CAST(" + b.Identifier(source.Name) + " AS " + b.SQLType(target) + ")"
}

// smallintBoolean maps a boolean default to 0 or 1 for engines that store
// booleans as small integers. Values it does not recognize are kept.
func smallintBoolean(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "t", "yes", "y", "1":
		return "1"
	case "false", "f", "no", "n", "0":
		return "0"
	}
	return value
}
