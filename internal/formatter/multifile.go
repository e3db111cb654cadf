package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/platform"
	"github.com/tordrt/ddlgen/internal/schema"
)

const (
	overviewFile    = "_overview.txt"
	foreignKeysFile = "_foreign_keys.sql"
)

// MultiFileFormatter writes the create script of a schema to a directory,
// one file per table plus the foreign keys in a file of their own
type MultiFileFormatter struct {
	OutputDir string
	builder   *platform.Builder
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string, builder *platform.Builder) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir: outputDir,
		builder:   builder,
	}
}

// Format writes the schema to multiple files and returns their names in the
// order they have to be run
func (f *MultiFileFormatter) Format(s *schema.Schema) ([]string, error) {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, errors.Annotate(err, "failed to create output directory")
	}

	var files []string
	for i := range s.Tables {
		table := &s.Tables[i]
		name := table.Name + ".sql"
		err := f.writeFile(name, func(sink platform.Sink) error {
			return f.builder.CreateTable(table, sink)
		})
		if err != nil {
			return nil, errors.Annotatef(err, "failed to write table file for %s", table.Name)
		}
		files = append(files, name)
	}

	if hasForeignKeys(s) && !f.builder.Info().ForeignKeysInline {
		err := f.writeFile(foreignKeysFile, func(sink platform.Sink) error {
			for i := range s.Tables {
				if err := f.builder.CreateForeignKeys(&s.Tables[i], sink); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, errors.Annotate(err, "failed to write foreign keys")
		}
		files = append(files, foreignKeysFile)
	}

	if err := f.writeOverview(s, files); err != nil {
		return nil, errors.Annotate(err, "failed to write overview")
	}
	return files, nil
}

func (f *MultiFileFormatter) writeFile(name string, emit func(platform.Sink) error) error {
	file, err := os.Create(filepath.Join(f.OutputDir, name))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return emit(platform.NewTextSink(file, f.builder.Info().StatementDelimiter))
}

// writeOverview lists the tables with the tables they reference, and the
// order in which the files have to be run
func (f *MultiFileFormatter) writeOverview(s *schema.Schema, files []string) error {
	file, err := os.Create(filepath.Join(f.OutputDir, overviewFile))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "SCHEMA OVERVIEW (%s)\n", f.builder.Info().Name)
	_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>.sql\n\n")

	for _, table := range s.Tables {
		_, _ = fmt.Fprintf(file, "%s", table.Name)
		if targets := referencedTables(table); len(targets) > 0 {
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ","))
		}
		_, _ = fmt.Fprintf(file, "\n")
	}

	_, _ = fmt.Fprintf(file, "\nRUN ORDER\n")
	for i, name := range files {
		_, _ = fmt.Fprintf(file, "%d. %s\n", i+1, name)
	}
	return nil
}

func referencedTables(table schema.Table) []string {
	var targets []string
	for _, fk := range table.ForeignKeys {
		if !schema.ContainsName(targets, fk.ForeignTable, true) {
			targets = append(targets, fk.ForeignTable)
		}
	}
	return targets
}

func hasForeignKeys(s *schema.Schema) bool {
	for _, t := range s.Tables {
		if len(t.ForeignKeys) > 0 {
			return true
		}
	}
	return false
}
