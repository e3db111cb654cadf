package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tordrt/ddlgen/internal/alteration"
	"github.com/tordrt/ddlgen/internal/platform"
	"github.com/tordrt/ddlgen/internal/schema"
)

func sampleChanges() []alteration.Change {
	active := "active"
	return []alteration.Change{
		&alteration.AddColumnChange{
			Table:  "users",
			Column: schema.Column{Name: "bio", Type: schema.TypeClob, Nullable: true},
			AtEnd:  true,
		},
		&alteration.RemoveColumnChange{Table: "users", Column: schema.Column{Name: "legacy_flag", Type: schema.TypeBoolean}},
		&alteration.ColumnDefaultValueChange{
			Table:           "orders",
			Column:          schema.Column{Name: "status", Type: schema.TypeVarchar, Size: 20},
			NewDefaultValue: &active,
		},
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(&buf).Format(sampleChanges()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	expected := `TABLE users (2 changes)
  + add column users.bio CLOB (at end)
  - remove column users.legacy_flag

TABLE orders (1 change)
  ~ change default of orders.status: none -> "active"
`
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, buf.String())
	}
}

func TestTextFormatterNoChanges(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(&buf).Format(nil); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if buf.String() != "No changes.\n" {
		t.Errorf("Expected 'No changes.', got %q", buf.String())
	}
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf).Format(sampleChanges()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# Schema Changes",
		"| users | 1 | 1 | 0 |",
		"| orders | 0 | 0 | 1 |",
		"## users",
		"- `-` remove column users.legacy_flag **(destructive)**",
		"- `+` add column users.bio CLOB (at end)\n",
		"## orders",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func multiFileSchema() *schema.Schema {
	users := schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger},
			{Name: "email", Type: schema.TypeVarchar, Size: 255},
		},
		Indexes: []schema.Index{{Name: "idx_users_email", Columns: []string{"email"}, IsUnique: true}},
	}
	_ = users.SetPrimaryKey([]string{"id"}, false)
	orders := schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger},
			{Name: "user_id", Type: schema.TypeInteger},
		},
		ForeignKeys: []schema.ForeignKey{{
			Name:         "fk_orders_user",
			ForeignTable: "users",
			References:   []schema.Reference{{Local: "user_id", Foreign: "id"}},
		}},
	}
	_ = orders.SetPrimaryKey([]string{"id"}, false)
	return &schema.Schema{Tables: []schema.Table{users, orders}}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestMultiFileFormatter(t *testing.T) {
	tests := []struct {
		dialect       string
		expectedFiles []string
		fkFile        string
		fkFragment    string
	}{
		{
			dialect:       "postgresql",
			expectedFiles: []string{"users.sql", "orders.sql", "_foreign_keys.sql"},
			fkFile:        "_foreign_keys.sql",
			fkFragment:    `ADD CONSTRAINT "fk_orders_user" FOREIGN KEY ("user_id") REFERENCES "users" ("id");`,
		},
		{
			dialect:       "sqlite",
			expectedFiles: []string{"users.sql", "orders.sql"},
			fkFile:        "orders.sql",
			fkFragment:    `CONSTRAINT "fk_orders_user" FOREIGN KEY ("user_id") REFERENCES "users" ("id")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			dialect, err := platform.Lookup(tt.dialect)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			dir := filepath.Join(t.TempDir(), "ddl")
			files, err := NewMultiFileFormatter(dir, platform.NewBuilder(dialect)).Format(multiFileSchema())
			if err != nil {
				t.Fatalf("Format failed: %v", err)
			}

			if strings.Join(files, ",") != strings.Join(tt.expectedFiles, ",") {
				t.Errorf("Expected files %v, got %v", tt.expectedFiles, files)
			}

			users := readFile(t, dir, "users.sql")
			if !strings.Contains(users, `CREATE TABLE "users"`) || !strings.Contains(users, `CREATE UNIQUE INDEX "idx_users_email"`) {
				t.Errorf("Expected users.sql to create the table and its index, got:\n%s", users)
			}
			if fk := readFile(t, dir, tt.fkFile); !strings.Contains(fk, tt.fkFragment) {
				t.Errorf("Expected %s to contain %q, got:\n%s", tt.fkFile, tt.fkFragment, fk)
			}

			overview := readFile(t, dir, "_overview.txt")
			if !strings.Contains(overview, "orders (references: users)") {
				t.Errorf("Expected overview to list references, got:\n%s", overview)
			}
			if !strings.Contains(overview, "1. users.sql") {
				t.Errorf("Expected overview to list run order, got:\n%s", overview)
			}
		})
	}
}
