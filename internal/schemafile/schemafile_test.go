package schemafile

import (
	"path/filepath"
	"testing"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

const shopYAML = `
name: shop
tables:
  - name: users
    columns:
      - {name: id, type: INTEGER, autoIncrement: true}
      - {name: email, type: varchar, size: 255, nullable: false}
      - {name: status, type: VARCHAR, size: 20, default: active}
    primaryKey: [id]
    indexes:
      - {name: idx_users_email, columns: [email], unique: true}
  - name: orders
    columns:
      - {name: id, type: BIGINT}
      - {name: user_id, type: INTEGER}
      - {name: total, type: NUMERIC, size: 10, scale: 2}
    primaryKey: [id]
    foreignKeys:
      - name: fk_orders_user
        foreignTable: users
        references:
          - {local: user_id, foreign: id}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(shopYAML), false)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Name != "shop" || len(s.Tables) != 2 {
		t.Fatalf("Unexpected schema: %+v", s)
	}

	users := s.FindTable("users", false)
	id, _ := users.FindColumn("id", false)
	if !id.PrimaryKey || id.Nullable || !id.AutoIncrement {
		t.Errorf("Expected id to be a non-null auto-increment key, got %+v", id)
	}
	email, _ := users.FindColumn("email", false)
	if email.Type != schema.TypeVarchar || email.Size != 255 || email.Nullable {
		t.Errorf("Unexpected email column: %+v", email)
	}
	status, _ := users.FindColumn("status", false)
	if !status.Nullable || status.DefaultValue == nil || *status.DefaultValue != "active" {
		t.Errorf("Unexpected status column: %+v", status)
	}
	if len(users.Indexes) != 1 || !users.Indexes[0].IsUnique {
		t.Errorf("Expected one unique index, got %+v", users.Indexes)
	}

	orders := s.FindTable("orders", false)
	total, _ := orders.FindColumn("total", false)
	if total.Type != schema.TypeNumeric || total.Size != 10 || total.Scale != 2 {
		t.Errorf("Unexpected total column: %+v", total)
	}
	if len(orders.ForeignKeys) != 1 || orders.ForeignKeys[0].ForeignTable != "users" {
		t.Errorf("Unexpected foreign keys: %+v", orders.ForeignKeys)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    error
	}{
		{
			name:    "unknown type",
			content: "tables:\n  - name: t\n    columns:\n      - {name: a, type: MONEY}\n",
			kind:    errors.NotValid,
		},
		{
			name:    "missing primary key column",
			content: "tables:\n  - name: t\n    columns:\n      - {name: a, type: INTEGER}\n    primaryKey: [b]\n",
			kind:    errors.NotValid,
		},
		{
			name:    "table without columns",
			content: "tables:\n  - name: t\n    columns: []\n",
			kind:    errors.NotValid,
		},
		{
			name: "foreign key to unknown column",
			content: "tables:\n  - name: t\n    columns:\n      - {name: a, type: INTEGER}\n" +
				"    foreignKeys:\n      - {foreignTable: t, references: [{local: a, foreign: missing}]}\n",
			kind: errors.NotValid,
		},
		{
			name:    "unknown field",
			content: "tables:\n  - name: t\n    colums: []\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), false)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v error, got %v", tt.kind, err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	original, err := Parse([]byte(shopYAML), false)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !schema.Equal(original, loaded, false) {
		t.Errorf("Expected loaded schema to equal the saved one\nsaved:  %+v\nloaded: %+v", original, loaded)
	}
}

func TestFromModelOmitsImplicitNullability(t *testing.T) {
	s, err := Parse([]byte(shopYAML), false)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	f := FromModel(s)
	id := f.Tables[0].Columns[0]
	if id.Nullable != nil {
		t.Errorf("Expected primary key column to omit nullable, got %v", *id.Nullable)
	}
	email := f.Tables[0].Columns[1]
	if email.Nullable == nil || *email.Nullable {
		t.Error("Expected email to be written as not nullable")
	}
	if email.Type != "VARCHAR" {
		t.Errorf("Expected canonical type name VARCHAR, got %s", email.Type)
	}
}
