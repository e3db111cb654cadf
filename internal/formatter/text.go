package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ddlgen/internal/alteration"
)

// TextFormatter formats a change plan as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the changes grouped by table, in the order they were found
func (f *TextFormatter) Format(changes []alteration.Change) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(f.writer, "No changes.")
		return err
	}

	for i, group := range groupByTable(changes) {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		_, _ = fmt.Fprintf(f.writer, "TABLE %s (%s)\n", group.table, plural(len(group.changes), "change"))
		for _, c := range group.changes {
			if _, err := fmt.Fprintf(f.writer, "  %s %s\n", marker(c), c); err != nil {
				return err
			}
		}
	}
	return nil
}

// marker classifies a change as an addition (+), a removal (-) or a
// modification (~)
func marker(c alteration.Change) string {
	switch c.(type) {
	case *alteration.AddTableChange, *alteration.AddColumnChange, *alteration.AddPrimaryKeyChange,
		*alteration.AddForeignKeyChange, *alteration.AddIndexChange:
		return "+"
	case *alteration.RemoveTableChange, *alteration.RemoveColumnChange, *alteration.RemovePrimaryKeyChange,
		*alteration.RemoveForeignKeyChange, *alteration.RemoveIndexChange:
		return "-"
	}
	return "~"
}

// isDestructive reports whether applying the change loses data
func isDestructive(c alteration.Change) bool {
	switch c.(type) {
	case *alteration.RemoveTableChange, *alteration.RemoveColumnChange:
		return true
	}
	return false
}

type tableChanges struct {
	table   string
	changes []alteration.Change
}

func groupByTable(changes []alteration.Change) []tableChanges {
	var groups []tableChanges
	for _, name := range alteration.TableNames(changes, true) {
		groups = append(groups, tableChanges{table: name, changes: alteration.ForTable(changes, name, true)})
	}
	return groups
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
