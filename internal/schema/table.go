package schema

import "github.com/juju/errors"

// FindTable returns the table with the given name, or nil
func (s *Schema) FindTable(name string, caseSensitive bool) *Table {
	for i := range s.Tables {
		if NamesEqual(s.Tables[i].Name, name, caseSensitive) {
			return &s.Tables[i]
		}
	}
	return nil
}

// AddTable appends a copy of the table
func (s *Schema) AddTable(t Table) error {
	if s.FindTable(t.Name, true) != nil {
		return errors.AlreadyExistsf("table %s", t.Name)
	}
	s.Tables = append(s.Tables, t.Clone())
	return nil
}

// RemoveTable removes the table with the given name
func (s *Schema) RemoveTable(name string, caseSensitive bool) error {
	for i := range s.Tables {
		if NamesEqual(s.Tables[i].Name, name, caseSensitive) {
			s.Tables = append(s.Tables[:i], s.Tables[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("table %s", name)
}

// ReferencingForeignKeys returns every foreign key of any table that points at
// the named table, paired with the owning table name.
func (s *Schema) ReferencingForeignKeys(table string, caseSensitive bool) []OwnedForeignKey {
	var result []OwnedForeignKey
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			if NamesEqual(fk.ForeignTable, table, caseSensitive) {
				result = append(result, OwnedForeignKey{Table: t.Name, ForeignKey: fk})
			}
		}
	}
	return result
}

// OwnedForeignKey is a foreign key together with the table that declares it
type OwnedForeignKey struct {
	Table      string
	ForeignKey ForeignKey
}

// FindColumn returns the column with the given name and its position
func (t *Table) FindColumn(name string, caseSensitive bool) (*Column, int) {
	for i := range t.Columns {
		if NamesEqual(t.Columns[i].Name, name, caseSensitive) {
			return &t.Columns[i], i
		}
	}
	return nil, -1
}

// AutoIncrementColumns returns the auto-increment columns in table order
func (t *Table) AutoIncrementColumns() []Column {
	var cols []Column
	for _, col := range t.Columns {
		if col.AutoIncrement {
			cols = append(cols, col)
		}
	}
	return cols
}

// InsertColumn inserts a column right after the named column. An empty
// previous name inserts at the front.
func (t *Table) InsertColumn(col Column, previous string, caseSensitive bool) error {
	if existing, _ := t.FindColumn(col.Name, caseSensitive); existing != nil {
		return errors.AlreadyExistsf("column %s in table %s", col.Name, t.Name)
	}
	pos := 0
	if previous != "" {
		_, idx := t.FindColumn(previous, caseSensitive)
		if idx < 0 {
			return errors.NotFoundf("column %s in table %s", previous, t.Name)
		}
		pos = idx + 1
	}
	col.PrimaryKey = containsName(t.PrimaryKey, col.Name, caseSensitive)
	t.Columns = append(t.Columns, Column{})
	copy(t.Columns[pos+1:], t.Columns[pos:])
	t.Columns[pos] = col
	return nil
}

// AppendColumn adds a column at the end of the table
func (t *Table) AppendColumn(col Column, caseSensitive bool) error {
	if existing, _ := t.FindColumn(col.Name, caseSensitive); existing != nil {
		return errors.AlreadyExistsf("column %s in table %s", col.Name, t.Name)
	}
	col.PrimaryKey = containsName(t.PrimaryKey, col.Name, caseSensitive)
	t.Columns = append(t.Columns, col)
	return nil
}

// RemoveColumn drops a column. A column that is still part of the primary
// key cannot be removed.
func (t *Table) RemoveColumn(name string, caseSensitive bool) error {
	_, idx := t.FindColumn(name, caseSensitive)
	if idx < 0 {
		return errors.NotFoundf("column %s in table %s", name, t.Name)
	}
	if containsName(t.PrimaryKey, name, caseSensitive) {
		return errors.NotValidf("removal of primary key column %s from table %s", name, t.Name)
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	return nil
}

// ReplaceColumn swaps the definition of a column in place, keeping its
// position and primary key membership.
func (t *Table) ReplaceColumn(name string, col Column, caseSensitive bool) error {
	existing, _ := t.FindColumn(name, caseSensitive)
	if existing == nil {
		return errors.NotFoundf("column %s in table %s", name, t.Name)
	}
	col.PrimaryKey = existing.PrimaryKey
	*existing = col
	return nil
}

// SetPrimaryKey replaces the primary key and updates the column flags. A nil
// or empty list removes the primary key.
func (t *Table) SetPrimaryKey(columns []string, caseSensitive bool) error {
	for _, name := range columns {
		if col, _ := t.FindColumn(name, caseSensitive); col == nil {
			return errors.NotFoundf("primary key column %s in table %s", name, t.Name)
		}
	}
	if len(columns) == 0 {
		t.PrimaryKey = nil
	} else {
		t.PrimaryKey = append([]string(nil), columns...)
	}
	for i := range t.Columns {
		t.Columns[i].PrimaryKey = containsName(t.PrimaryKey, t.Columns[i].Name, caseSensitive)
	}
	return nil
}

// AddForeignKey appends a foreign key
func (t *Table) AddForeignKey(fk ForeignKey) {
	t.ForeignKeys = append(t.ForeignKeys, fk.Clone())
}

// RemoveForeignKey removes the first foreign key matching fk by name, or by
// key when fk has no name.
func (t *Table) RemoveForeignKey(fk ForeignKey, caseSensitive bool) error {
	for i, existing := range t.ForeignKeys {
		if matchesNamedOrKeyed(existing.Name, fk.Name, existing.Key(caseSensitive), fk.Key(caseSensitive), caseSensitive) {
			t.ForeignKeys = append(t.ForeignKeys[:i], t.ForeignKeys[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("foreign key %s in table %s", fk.Name, t.Name)
}

// AddIndex appends an index
func (t *Table) AddIndex(idx Index) {
	t.Indexes = append(t.Indexes, idx.Clone())
}

// RemoveIndex removes the first index matching idx by name, or by key when
// idx has no name.
func (t *Table) RemoveIndex(idx Index, caseSensitive bool) error {
	for i, existing := range t.Indexes {
		if matchesNamedOrKeyed(existing.Name, idx.Name, existing.Key(caseSensitive), idx.Key(caseSensitive), caseSensitive) {
			t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("index %s in table %s", idx.Name, t.Name)
}

func matchesNamedOrKeyed(existingName, name, existingKey, key string, caseSensitive bool) bool {
	if name != "" && existingName != "" {
		return NamesEqual(existingName, name, caseSensitive) && existingKey == key
	}
	return existingKey == key
}
