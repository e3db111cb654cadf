package alteration

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

// AddTableChange creates a table. Foreign keys of the new table travel as
// separate AddForeignKeyChange values so that they can be created once every
// referenced table exists.
type AddTableChange struct {
	Table schema.Table
}

func (c *AddTableChange) change()                {}
func (c *AddTableChange) TableName() string      { return c.Table.Name }
func (c *AddTableChange) Accept(v Visitor) error { return v.VisitAddTable(c) }
func (c *AddTableChange) String() string         { return "add table " + c.Table.Name }

// Apply adds the table to the model
func (c *AddTableChange) Apply(s *schema.Schema, caseSensitive bool) error {
	if s.FindTable(c.Table.Name, caseSensitive) != nil {
		return errors.AlreadyExistsf("table %s", c.Table.Name)
	}
	return s.AddTable(c.Table)
}

// RemoveTableChange drops a table
type RemoveTableChange struct {
	Table schema.Table
}

func (c *RemoveTableChange) change()                {}
func (c *RemoveTableChange) TableName() string      { return c.Table.Name }
func (c *RemoveTableChange) Accept(v Visitor) error { return v.VisitRemoveTable(c) }
func (c *RemoveTableChange) String() string         { return "remove table " + c.Table.Name }

// Apply removes the table from the model
func (c *RemoveTableChange) Apply(s *schema.Schema, caseSensitive bool) error {
	return s.RemoveTable(c.Table.Name, caseSensitive)
}

// AddColumnChange adds a column. Previous names the column the new one
// follows in the desired table (empty for the first position); AtEnd is set
// when every column after the new one is new as well, so appending keeps the
// desired order.
type AddColumnChange struct {
	Table    string
	Column   schema.Column
	Previous string
	AtEnd    bool
}

func (c *AddColumnChange) change()                {}
func (c *AddColumnChange) TableName() string      { return c.Table }
func (c *AddColumnChange) Accept(v Visitor) error { return v.VisitAddColumn(c) }

func (c *AddColumnChange) String() string {
	pos := "at end"
	if !c.AtEnd {
		if c.Previous == "" {
			pos = "first"
		} else {
			pos = "after " + c.Previous
		}
	}
	return fmt.Sprintf("add column %s.%s %s (%s)", c.Table, c.Column.Name, describeType(c.Column), pos)
}

// Apply inserts the column at its intended position
func (c *AddColumnChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	col := c.Column.Clone()
	if c.AtEnd {
		return t.AppendColumn(col, caseSensitive)
	}
	return t.InsertColumn(col, c.Previous, caseSensitive)
}

// RemoveColumnChange drops a column
type RemoveColumnChange struct {
	Table  string
	Column schema.Column
}

func (c *RemoveColumnChange) change()                {}
func (c *RemoveColumnChange) TableName() string      { return c.Table }
func (c *RemoveColumnChange) Accept(v Visitor) error { return v.VisitRemoveColumn(c) }

func (c *RemoveColumnChange) String() string {
	return fmt.Sprintf("remove column %s.%s", c.Table, c.Column.Name)
}

// Apply removes the column from the model
func (c *RemoveColumnChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.RemoveColumn(c.Column.Name, caseSensitive)
}

// ColumnDefinitionChange replaces the definition of a column: type, size,
// nullability, auto-increment and, along with those, the default value.
type ColumnDefinitionChange struct {
	Table  string
	Source schema.Column
	Target schema.Column
}

func (c *ColumnDefinitionChange) change()                {}
func (c *ColumnDefinitionChange) TableName() string      { return c.Table }
func (c *ColumnDefinitionChange) Accept(v Visitor) error { return v.VisitColumnDefinition(c) }

func (c *ColumnDefinitionChange) String() string {
	return fmt.Sprintf("change column %s.%s: %s -> %s", c.Table, c.Source.Name, describeColumn(c.Source), describeColumn(c.Target))
}

// Apply replaces the column definition in place
func (c *ColumnDefinitionChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.ReplaceColumn(c.Source.Name, c.Target.Clone(), caseSensitive)
}

// TypeChanged reports whether the stored type or its size differs
func (c *ColumnDefinitionChange) TypeChanged(defaultSizes map[schema.TypeCode]int) bool {
	return c.Source.Type != c.Target.Type || schema.SizeChanged(c.Source, c.Target, defaultSizes)
}

// ColumnDefaultValueChange changes only the default value of a column. A nil
// NewDefaultValue removes the default.
type ColumnDefaultValueChange struct {
	Table           string
	Column          schema.Column
	NewDefaultValue *string
}

func (c *ColumnDefaultValueChange) change()                {}
func (c *ColumnDefaultValueChange) TableName() string      { return c.Table }
func (c *ColumnDefaultValueChange) Accept(v Visitor) error { return v.VisitColumnDefaultValue(c) }

func (c *ColumnDefaultValueChange) String() string {
	return fmt.Sprintf("change default of %s.%s: %s -> %s", c.Table, c.Column.Name, describeDefault(c.Column.DefaultValue), describeDefault(c.NewDefaultValue))
}

// Apply sets the new default on the column
func (c *ColumnDefaultValueChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	col, _ := t.FindColumn(c.Column.Name, caseSensitive)
	if col == nil {
		return errors.NotFoundf("column %s in table %s", c.Column.Name, c.Table)
	}
	col.DefaultValue = nil
	if c.NewDefaultValue != nil {
		v := *c.NewDefaultValue
		col.DefaultValue = &v
	}
	return nil
}

// Target returns the column as it looks after the change
func (c *ColumnDefaultValueChange) Target() schema.Column {
	col := c.Column.Clone()
	col.DefaultValue = nil
	if c.NewDefaultValue != nil {
		v := *c.NewDefaultValue
		col.DefaultValue = &v
	}
	return col
}

// AddPrimaryKeyChange adds a primary key to a table that has none
type AddPrimaryKeyChange struct {
	Table   string
	Columns []string
}

func (c *AddPrimaryKeyChange) change()                {}
func (c *AddPrimaryKeyChange) TableName() string      { return c.Table }
func (c *AddPrimaryKeyChange) Accept(v Visitor) error { return v.VisitAddPrimaryKey(c) }

func (c *AddPrimaryKeyChange) String() string {
	return fmt.Sprintf("add primary key %s(%s)", c.Table, strings.Join(c.Columns, ", "))
}

// Apply sets the primary key
func (c *AddPrimaryKeyChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.SetPrimaryKey(c.Columns, caseSensitive)
}

// RemovePrimaryKeyChange drops the primary key of a table
type RemovePrimaryKeyChange struct {
	Table   string
	Columns []string
}

func (c *RemovePrimaryKeyChange) change()                {}
func (c *RemovePrimaryKeyChange) TableName() string      { return c.Table }
func (c *RemovePrimaryKeyChange) Accept(v Visitor) error { return v.VisitRemovePrimaryKey(c) }

func (c *RemovePrimaryKeyChange) String() string {
	return fmt.Sprintf("remove primary key %s(%s)", c.Table, strings.Join(c.Columns, ", "))
}

// Apply clears the primary key
func (c *RemovePrimaryKeyChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.SetPrimaryKey(nil, caseSensitive)
}

// PrimaryKeyChange replaces one primary key with another
type PrimaryKeyChange struct {
	Table      string
	OldColumns []string
	NewColumns []string
}

func (c *PrimaryKeyChange) change()                {}
func (c *PrimaryKeyChange) TableName() string      { return c.Table }
func (c *PrimaryKeyChange) Accept(v Visitor) error { return v.VisitPrimaryKey(c) }

func (c *PrimaryKeyChange) String() string {
	return fmt.Sprintf("change primary key %s: (%s) -> (%s)", c.Table, strings.Join(c.OldColumns, ", "), strings.Join(c.NewColumns, ", "))
}

// Apply sets the new primary key
func (c *PrimaryKeyChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.SetPrimaryKey(c.NewColumns, caseSensitive)
}

// Split decomposes the change into a removal and a re-addition
func (c *PrimaryKeyChange) Split() (*RemovePrimaryKeyChange, *AddPrimaryKeyChange) {
	return &RemovePrimaryKeyChange{Table: c.Table, Columns: c.OldColumns},
		&AddPrimaryKeyChange{Table: c.Table, Columns: c.NewColumns}
}

// AddForeignKeyChange adds a foreign key
type AddForeignKeyChange struct {
	Table      string
	ForeignKey schema.ForeignKey
}

func (c *AddForeignKeyChange) change()                {}
func (c *AddForeignKeyChange) TableName() string      { return c.Table }
func (c *AddForeignKeyChange) Accept(v Visitor) error { return v.VisitAddForeignKey(c) }

func (c *AddForeignKeyChange) String() string {
	return "add foreign key " + describeForeignKey(c.Table, c.ForeignKey)
}

// Apply adds the foreign key to its table
func (c *AddForeignKeyChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	t.AddForeignKey(c.ForeignKey)
	return nil
}

// RemoveForeignKeyChange drops a foreign key
type RemoveForeignKeyChange struct {
	Table      string
	ForeignKey schema.ForeignKey
}

func (c *RemoveForeignKeyChange) change()                {}
func (c *RemoveForeignKeyChange) TableName() string      { return c.Table }
func (c *RemoveForeignKeyChange) Accept(v Visitor) error { return v.VisitRemoveForeignKey(c) }

func (c *RemoveForeignKeyChange) String() string {
	return "remove foreign key " + describeForeignKey(c.Table, c.ForeignKey)
}

// Apply removes the foreign key from its table
func (c *RemoveForeignKeyChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.RemoveForeignKey(c.ForeignKey, caseSensitive)
}

// AddIndexChange adds an index
type AddIndexChange struct {
	Table string
	Index schema.Index
}

func (c *AddIndexChange) change()                {}
func (c *AddIndexChange) TableName() string      { return c.Table }
func (c *AddIndexChange) Accept(v Visitor) error { return v.VisitAddIndex(c) }

func (c *AddIndexChange) String() string {
	return "add index " + describeIndex(c.Table, c.Index)
}

// Apply adds the index to its table
func (c *AddIndexChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	t.AddIndex(c.Index)
	return nil
}

// RemoveIndexChange drops an index
type RemoveIndexChange struct {
	Table string
	Index schema.Index
}

func (c *RemoveIndexChange) change()                {}
func (c *RemoveIndexChange) TableName() string      { return c.Table }
func (c *RemoveIndexChange) Accept(v Visitor) error { return v.VisitRemoveIndex(c) }

func (c *RemoveIndexChange) String() string {
	return "remove index " + describeIndex(c.Table, c.Index)
}

// Apply removes the index from its table
func (c *RemoveIndexChange) Apply(s *schema.Schema, caseSensitive bool) error {
	t, err := findTable(s, c.Table, caseSensitive)
	if err != nil {
		return err
	}
	return t.RemoveIndex(c.Index, caseSensitive)
}

func describeType(col schema.Column) string {
	switch {
	case col.Type.HasPrecision() && col.Size > 0:
		return fmt.Sprintf("%s(%d,%d)", col.Type, col.Size, col.Scale)
	case col.Type.HasSize() && col.Size > 0:
		return fmt.Sprintf("%s(%d)", col.Type, col.Size)
	}
	return col.Type.String()
}

func describeColumn(col schema.Column) string {
	parts := []string{describeType(col)}
	if !col.EffectiveNullable() {
		parts = append(parts, "NOT NULL")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTO INCREMENT")
	}
	if col.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+describeDefault(col.DefaultValue))
	}
	return strings.Join(parts, " ")
}

func describeDefault(v *string) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%q", *v)
}

func describeForeignKey(table string, fk schema.ForeignKey) string {
	name := fk.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s on %s(%s) -> %s(%s)", name, table, strings.Join(fk.LocalColumns(), ", "),
		fk.ForeignTable, strings.Join(fk.ForeignColumns(), ", "))
}

func describeIndex(table string, idx schema.Index) string {
	unique := ""
	if idx.IsUnique {
		unique = "unique "
	}
	name := idx.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s%s on %s(%s)", unique, name, table, strings.Join(idx.Columns, ", "))
}
