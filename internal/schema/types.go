package schema

import "strings"

// Schema represents a complete database schema
type Schema struct {
	Name   string
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Column represents a table column
type Column struct {
	Name          string
	Type          TypeCode
	Size          int // 0 means the dialect default
	Scale         int
	Nullable      bool
	DefaultValue  *string
	AutoIncrement bool
	PrimaryKey    bool
}

// ForeignKey represents a foreign key constraint. The name may be empty,
// in which case emitters synthesize one.
type ForeignKey struct {
	Name         string
	ForeignTable string
	References   []Reference
}

// Reference pairs a local column with the column it points to
type Reference struct {
	Local   string
	Foreign string
}

// Index represents a database index
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// NamesEqual compares two identifiers under the given case rule
func NamesEqual(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func normalizeName(name string, caseSensitive bool) string {
	if caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// EffectiveNullable reports whether the column accepts NULL. Auto-increment
// columns never do.
func (c Column) EffectiveNullable() bool {
	return c.Nullable && !c.AutoIncrement
}

// HasDefault reports whether the column declares a default value
func (c Column) HasDefault() bool {
	return c.DefaultValue != nil
}

// LocalColumns returns the local side of the references in order
func (fk ForeignKey) LocalColumns() []string {
	cols := make([]string, len(fk.References))
	for i, ref := range fk.References {
		cols[i] = ref.Local
	}
	return cols
}

// ForeignColumns returns the referenced side of the references in order
func (fk ForeignKey) ForeignColumns() []string {
	cols := make([]string, len(fk.References))
	for i, ref := range fk.References {
		cols[i] = ref.Foreign
	}
	return cols
}

// Key identifies the foreign key by what it references, not by its name
func (fk ForeignKey) Key(caseSensitive bool) string {
	var b strings.Builder
	b.WriteString(normalizeName(fk.ForeignTable, caseSensitive))
	for _, ref := range fk.References {
		b.WriteString("|")
		b.WriteString(normalizeName(ref.Local, caseSensitive))
		b.WriteString(">")
		b.WriteString(normalizeName(ref.Foreign, caseSensitive))
	}
	return b.String()
}

// Key identifies the index by uniqueness and column list, not by its name
func (idx Index) Key(caseSensitive bool) string {
	var b strings.Builder
	if idx.IsUnique {
		b.WriteString("unique")
	} else {
		b.WriteString("plain")
	}
	for _, col := range idx.Columns {
		b.WriteString("|")
		b.WriteString(normalizeName(col, caseSensitive))
	}
	return b.String()
}

// Covers reports whether any of the given columns is part of the index
func (idx Index) Covers(columns []string, caseSensitive bool) bool {
	return containsAny(idx.Columns, columns, caseSensitive)
}

func containsName(names []string, name string, caseSensitive bool) bool {
	for _, n := range names {
		if NamesEqual(n, name, caseSensitive) {
			return true
		}
	}
	return false
}

func containsAny(names, candidates []string, caseSensitive bool) bool {
	for _, c := range candidates {
		if containsName(names, c, caseSensitive) {
			return true
		}
	}
	return false
}

// ContainsName reports whether names holds name under the given case rule
func ContainsName(names []string, name string, caseSensitive bool) bool {
	return containsName(names, name, caseSensitive)
}

// SameNames compares two ordered name lists under the given case rule
func SameNames(a, b []string, caseSensitive bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NamesEqual(a[i], b[i], caseSensitive) {
			return false
		}
	}
	return true
}
