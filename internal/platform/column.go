package platform

import (
	"strings"

	"github.com/tordrt/ddlgen/internal/alteration"
	"github.com/tordrt/ddlgen/internal/schema"
)

// alterColumnClauses returns one ALTER COLUMN clause per changed attribute.
// An identity is dropped before anything else changes and added last, once
// the column is NOT NULL and has no default.
func (b *Builder) alterColumnClauses(c *alteration.ColumnDefinitionChange, source, target schema.Column) []string {
	info := b.info
	prefix := "ALTER COLUMN " + b.Identifier(source.Name) + " "
	native := info.AutoIncrement == AutoIncrementNative

	var clauses []string
	if native && source.AutoIncrement && !target.AutoIncrement {
		clauses = append(clauses, prefix+info.IdentityDrop)
	}
	if c.TypeChanged(info.DefaultSizes) {
		clause := prefix + info.AlterTypeClause + " " + b.SQLType(target)
		if info.AlterTypeUsing && source.Type != target.Type {
			clause += " USING " + b.CastExpression(source, target)
		}
		clauses = append(clauses, clause)
	}
	if source.EffectiveNullable() != target.EffectiveNullable() {
		if target.EffectiveNullable() {
			clauses = append(clauses, prefix+"DROP NOT NULL")
		} else {
			clauses = append(clauses, prefix+"SET NOT NULL")
		}
	}
	if schema.DefaultChanged(b.declaredDefault(source), b.declaredDefault(target)) {
		clauses = append(clauses, b.defaultClause(b.declaredDefault(target)))
	}
	if native && target.AutoIncrement && !source.AutoIncrement {
		clauses = append(clauses, prefix+info.IdentityAdd)
	}
	return clauses
}

// declaredDefault returns the column as the engine sees it: native
// auto-increment columns carry no default.
func (b *Builder) declaredDefault(col schema.Column) schema.Column {
	if col.AutoIncrement && b.info.AutoIncrement == AutoIncrementNative {
		col.DefaultValue = nil
	}
	return col
}

func (b *Builder) defaultClause(col schema.Column) string {
	prefix := "ALTER COLUMN " + b.Identifier(col.Name) + " "
	if value, ok := b.DefaultValue(col); ok {
		return prefix + "SET DEFAULT " + value
	}
	return prefix + "DROP DEFAULT"
}

// modifyParens renders MODIFY (column ...). With full set the type is
// restated and nullability is included when it changes; engines reject a
// NOT NULL that is already in place.
func (b *Builder) modifyParens(source, target schema.Column, full bool) string {
	parts := []string{b.Identifier(target.Name)}
	if full {
		parts = append(parts, b.SQLType(target))
	}
	if value, ok := b.DefaultValue(target); ok {
		parts = append(parts, "DEFAULT "+value)
	} else if source.DefaultValue != nil {
		parts = append(parts, "DEFAULT NULL")
	}
	if full && source.EffectiveNullable() != target.EffectiveNullable() {
		if target.EffectiveNullable() {
			parts = append(parts, "NULL")
		} else {
			parts = append(parts, "NOT NULL")
		}
	}
	return "MODIFY (" + strings.Join(parts, " ") + ")"
}
