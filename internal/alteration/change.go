// Package alteration holds the typed catalog of structural differences between
// two schema models and the comparator that detects them.
//
// Every difference is one of a closed set of change types. Consumers that
// need to treat each kind differently implement Visitor; adding a change kind
// adds a Visitor method, so every implementation has to decide how to handle
// it before the code compiles again.
package alteration

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Change is one atomic structural difference concerning a single table
type Change interface {
	// TableName names the table the change belongs to.
	TableName() string
	// Apply performs the change on a working copy of the model.
	Apply(s *schema.Schema, caseSensitive bool) error
	// Accept dispatches to the matching Visitor method.
	Accept(v Visitor) error
	fmt.Stringer

	change()
}

// Visitor handles every kind of change
type Visitor interface {
	VisitAddTable(c *AddTableChange) error
	VisitRemoveTable(c *RemoveTableChange) error
	VisitAddColumn(c *AddColumnChange) error
	VisitRemoveColumn(c *RemoveColumnChange) error
	VisitColumnDefinition(c *ColumnDefinitionChange) error
	VisitColumnDefaultValue(c *ColumnDefaultValueChange) error
	VisitAddPrimaryKey(c *AddPrimaryKeyChange) error
	VisitRemovePrimaryKey(c *RemovePrimaryKeyChange) error
	VisitPrimaryKey(c *PrimaryKeyChange) error
	VisitAddForeignKey(c *AddForeignKeyChange) error
	VisitRemoveForeignKey(c *RemoveForeignKeyChange) error
	VisitAddIndex(c *AddIndexChange) error
	VisitRemoveIndex(c *RemoveIndexChange) error
}

func findTable(s *schema.Schema, name string, caseSensitive bool) (*schema.Table, error) {
	t := s.FindTable(name, caseSensitive)
	if t == nil {
		return nil, errors.NotFoundf("table %s", name)
	}
	return t, nil
}

// ForTable returns the changes that belong to the named table, in order
func ForTable(changes []Change, table string, caseSensitive bool) []Change {
	var result []Change
	for _, c := range changes {
		if schema.NamesEqual(c.TableName(), table, caseSensitive) {
			result = append(result, c)
		}
	}
	return result
}

// TableNames returns the distinct table names in order of first appearance
func TableNames(changes []Change, caseSensitive bool) []string {
	var names []string
	for _, c := range changes {
		if !schema.ContainsName(names, c.TableName(), caseSensitive) {
			names = append(names, c.TableName())
		}
	}
	return names
}
