package schema

import (
	"fmt"

	"github.com/juju/errors"
)

// ModelError reports a malformed schema model
type ModelError struct {
	Table  string
	Reason string
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Table == "" {
		return "invalid schema model: " + e.Reason
	}
	return fmt.Sprintf("invalid schema model: table %s: %s", e.Table, e.Reason)
}

// Unwrap lets errors.Is(err, errors.NotValid) match.
func (e *ModelError) Unwrap() error {
	return errors.NotValid
}

func modelErrorf(table, format string, args ...any) error {
	return &ModelError{Table: table, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants of the model
func (s *Schema) Validate(caseSensitive bool) error {
	seen := make(map[string]bool)
	for i := range s.Tables {
		t := &s.Tables[i]
		if t.Name == "" {
			return modelErrorf("", "table #%d has no name", i+1)
		}
		key := normalizeName(t.Name, caseSensitive)
		if seen[key] {
			return modelErrorf(t.Name, "duplicate table name")
		}
		seen[key] = true

		if err := t.validate(s, caseSensitive); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) validate(s *Schema, caseSensitive bool) error {
	if len(t.Columns) == 0 {
		return modelErrorf(t.Name, "table has no columns")
	}

	columns := make(map[string]bool)
	for _, col := range t.Columns {
		if col.Name == "" {
			return modelErrorf(t.Name, "column without a name")
		}
		key := normalizeName(col.Name, caseSensitive)
		if columns[key] {
			return modelErrorf(t.Name, "duplicate column %s", col.Name)
		}
		columns[key] = true

		if col.Size < 0 || col.Scale < 0 {
			return modelErrorf(t.Name, "column %s has a negative size or scale", col.Name)
		}
		if col.PrimaryKey && !containsName(t.PrimaryKey, col.Name, caseSensitive) {
			return modelErrorf(t.Name, "column %s is flagged as primary key but is not in the primary key", col.Name)
		}
	}

	for _, name := range t.PrimaryKey {
		col, _ := t.FindColumn(name, caseSensitive)
		if col == nil {
			return modelErrorf(t.Name, "primary key column %s does not exist", name)
		}
		if !col.PrimaryKey {
			return modelErrorf(t.Name, "primary key column %s is not flagged as primary key", name)
		}
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.References) == 0 {
			return modelErrorf(t.Name, "foreign key %s has no references", fk.Name)
		}
		if fk.ForeignTable == "" {
			return modelErrorf(t.Name, "foreign key %s has no foreign table", fk.Name)
		}
		for _, ref := range fk.References {
			if ref.Local == "" || ref.Foreign == "" {
				return modelErrorf(t.Name, "foreign key %s has an incomplete reference", fk.Name)
			}
			if col, _ := t.FindColumn(ref.Local, caseSensitive); col == nil {
				return modelErrorf(t.Name, "foreign key %s uses unknown column %s", fk.Name, ref.Local)
			}
		}
		// The referenced table may live outside the model.
		if foreign := s.FindTable(fk.ForeignTable, caseSensitive); foreign != nil {
			for _, ref := range fk.References {
				if col, _ := foreign.FindColumn(ref.Foreign, caseSensitive); col == nil {
					return modelErrorf(t.Name, "foreign key %s references unknown column %s.%s", fk.Name, fk.ForeignTable, ref.Foreign)
				}
			}
		}
	}

	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			return modelErrorf(t.Name, "index %s has no columns", idx.Name)
		}
		for _, name := range idx.Columns {
			if col, _ := t.FindColumn(name, caseSensitive); col == nil {
				return modelErrorf(t.Name, "index %s uses unknown column %s", idx.Name, name)
			}
		}
	}
	return nil
}
