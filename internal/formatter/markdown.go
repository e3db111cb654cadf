package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ddlgen/internal/alteration"
)

// MarkdownFormatter formats a change plan as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the changes in markdown format
func (f *MarkdownFormatter) Format(changes []alteration.Change) error {
	_, _ = fmt.Fprintln(f.writer, "# Schema Changes")
	_, _ = fmt.Fprintln(f.writer)

	if len(changes) == 0 {
		_, err := fmt.Fprintln(f.writer, "No changes.")
		return err
	}

	groups := groupByTable(changes)
	f.formatSummary(groups)

	for _, group := range groups {
		_, _ = fmt.Fprintf(f.writer, "## %s\n\n", group.table)
		for _, c := range group.changes {
			warning := ""
			if isDestructive(c) {
				warning = " **(destructive)**"
			}
			if _, err := fmt.Fprintf(f.writer, "- `%s` %s%s\n", marker(c), c, warning); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
	return nil
}

// formatSummary writes one table row per changed table
func (f *MarkdownFormatter) formatSummary(groups []tableChanges) {
	_, _ = fmt.Fprintln(f.writer, "| Table | Added | Removed | Modified |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|---|")
	for _, group := range groups {
		counts := map[string]int{}
		for _, c := range group.changes {
			counts[marker(c)]++
		}
		_, _ = fmt.Fprintf(f.writer, "| %s | %d | %d | %d |\n", group.table, counts["+"], counts["-"], counts["~"])
	}
	_, _ = fmt.Fprintln(f.writer)
}
