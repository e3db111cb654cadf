package schema

import "sort"

// Clone returns a deep copy of the schema
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Name: s.Name, Tables: make([]Table, len(s.Tables))}
	for i, t := range s.Tables {
		out.Tables[i] = t.Clone()
	}
	return out
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	out := Table{Name: t.Name}
	if t.Columns != nil {
		out.Columns = make([]Column, len(t.Columns))
		for i, col := range t.Columns {
			out.Columns[i] = col.Clone()
		}
	}
	if t.PrimaryKey != nil {
		out.PrimaryKey = append([]string(nil), t.PrimaryKey...)
	}
	for _, fk := range t.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, fk.Clone())
	}
	for _, idx := range t.Indexes {
		out.Indexes = append(out.Indexes, idx.Clone())
	}
	return out
}

// Clone returns a copy that does not share the default value pointer
func (c Column) Clone() Column {
	if c.DefaultValue != nil {
		v := *c.DefaultValue
		c.DefaultValue = &v
	}
	return c
}

// Clone returns a deep copy of the foreign key
func (fk ForeignKey) Clone() ForeignKey {
	fk.References = append([]Reference(nil), fk.References...)
	return fk
}

// Clone returns a deep copy of the index
func (idx Index) Clone() Index {
	idx.Columns = append([]string(nil), idx.Columns...)
	return idx
}

// Equal reports whether two schemas are structurally equal: same tables by
// name, same columns by name, same primary key, and the same foreign keys
// and indexes compared by key. Column order is ignored, like the comparator
// ignores it for surviving columns. Constraint names are ignored because
// they may be synthesized.
func Equal(a, b *Schema, caseSensitive bool) bool {
	if len(a.Tables) != len(b.Tables) {
		return false
	}
	for i := range a.Tables {
		other := b.FindTable(a.Tables[i].Name, caseSensitive)
		if other == nil || !TablesEqual(&a.Tables[i], other, caseSensitive) {
			return false
		}
	}
	return true
}

// TablesEqual compares two tables structurally
func TablesEqual(a, b *Table, caseSensitive bool) bool {
	if !NamesEqual(a.Name, b.Name, caseSensitive) || len(a.Columns) != len(b.Columns) {
		return false
	}
	for _, col := range a.Columns {
		other, _ := b.FindColumn(col.Name, caseSensitive)
		if other == nil || !ColumnsEqual(col, *other, nil) || col.PrimaryKey != other.PrimaryKey {
			return false
		}
	}
	if !SameNames(a.PrimaryKey, b.PrimaryKey, caseSensitive) {
		return false
	}

	fkKeys := func(t *Table) []string {
		keys := make([]string, len(t.ForeignKeys))
		for i, fk := range t.ForeignKeys {
			keys[i] = fk.Key(caseSensitive)
		}
		sort.Strings(keys)
		return keys
	}
	idxKeys := func(t *Table) []string {
		keys := make([]string, len(t.Indexes))
		for i, idx := range t.Indexes {
			keys[i] = idx.Key(caseSensitive)
		}
		sort.Strings(keys)
		return keys
	}
	return SameNames(fkKeys(a), fkKeys(b), true) && SameNames(idxKeys(a), idxKeys(b), true)
}

// ColumnsEqual compares the definitions of two columns, ignoring their
// names and primary key membership. defaultSizes supplies the size used for
// columns that declare none.
func ColumnsEqual(a, b Column, defaultSizes map[TypeCode]int) bool {
	return !DefinitionChanged(a, b, defaultSizes) && !DefaultChanged(a, b)
}

// DefinitionChanged reports a difference in anything but the default value
func DefinitionChanged(a, b Column, defaultSizes map[TypeCode]int) bool {
	if a.Type != b.Type {
		return true
	}
	if SizeChanged(a, b, defaultSizes) {
		return true
	}
	return a.EffectiveNullable() != b.EffectiveNullable() || a.AutoIncrement != b.AutoIncrement
}

// SizeChanged reports a difference in size or scale for types where those matter
func SizeChanged(a, b Column, defaultSizes map[TypeCode]int) bool {
	if a.Type.HasSize() || a.Type.HasPrecision() {
		if EffectiveSize(a, defaultSizes) != EffectiveSize(b, defaultSizes) {
			return true
		}
	}
	return a.Type.HasPrecision() && a.Scale != b.Scale
}

// DefaultChanged reports a difference in the default value
func DefaultChanged(a, b Column) bool {
	if a.DefaultValue == nil || b.DefaultValue == nil {
		return (a.DefaultValue == nil) != (b.DefaultValue == nil)
	}
	return *a.DefaultValue != *b.DefaultValue
}

// EffectiveSize returns the declared size, falling back to the default size
// for the type.
func EffectiveSize(c Column, defaultSizes map[TypeCode]int) int {
	if c.Size > 0 {
		return c.Size
	}
	return defaultSizes[c.Type]
}
