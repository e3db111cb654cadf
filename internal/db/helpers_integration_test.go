//go:build integration
// +build integration

package db

import (
	"context"
	"strings"
	"testing"

	"github.com/tordrt/ddlgen/internal/alteration"
	"github.com/tordrt/ddlgen/internal/platform"
	"github.com/tordrt/ddlgen/internal/schema"
)

// shopModel is the fixture every engine is populated with
func shopModel() *schema.Schema {
	active := "active"
	return &schema.Schema{Tables: []schema.Table{
		{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger, AutoIncrement: true, PrimaryKey: true},
				{Name: "username", Type: schema.TypeVarchar, Size: 50},
				{Name: "email", Type: schema.TypeVarchar, Size: 100},
				{Name: "status", Type: schema.TypeVarchar, Size: 20, Nullable: true, DefaultValue: &active},
				{Name: "created_at", Type: schema.TypeTimestamp, Nullable: true},
			},
			PrimaryKey: []string{"id"},
			Indexes:    []schema.Index{{Name: "idx_users_username", Columns: []string{"username"}, IsUnique: true}},
		},
		{
			Name: "products",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
				{Name: "name", Type: schema.TypeVarchar, Size: 200},
				{Name: "category", Type: schema.TypeVarchar, Size: 50, Nullable: true},
				{Name: "price", Type: schema.TypeNumeric, Size: 10, Scale: 2},
			},
			PrimaryKey: []string{"id"},
			Indexes:    []schema.Index{{Name: "idx_category", Columns: []string{"category"}}},
		},
		{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
				{Name: "user_id", Type: schema.TypeInteger},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []schema.ForeignKey{{
				Name:         "fk_orders_user",
				ForeignTable: "users",
				References:   []schema.Reference{{Local: "user_id", Foreign: "id"}},
			}},
		},
		{
			Name: "order_items",
			Columns: []schema.Column{
				{Name: "order_id", Type: schema.TypeInteger, PrimaryKey: true},
				{Name: "product_id", Type: schema.TypeInteger, PrimaryKey: true},
				{Name: "quantity", Type: schema.TypeInteger},
			},
			PrimaryKey: []string{"order_id", "product_id"},
			ForeignKeys: []schema.ForeignKey{
				{
					Name:         "fk_items_order",
					ForeignTable: "orders",
					References:   []schema.Reference{{Local: "order_id", Foreign: "id"}},
				},
				{
					Name:         "fk_items_product",
					ForeignTable: "products",
					References:   []schema.Reference{{Local: "product_id", Foreign: "id"}},
				},
			},
		},
	}}
}

// createFixture emits the fixture for the dialect and runs it on the database
func createFixture(t *testing.T, ctx context.Context, database *Database) {
	t.Helper()
	builder := newBuilder(t, database.Dialect)
	if err := builder.CreateSchema(shopModel(), NewExecSink(ctx, database, nil)); err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
}

func newBuilder(t *testing.T, dialect string) *platform.Builder {
	t.Helper()
	d, err := platform.Lookup(dialect)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", dialect, err)
	}
	return platform.NewBuilder(d)
}

// verifyConverged checks that nothing separates the read model from the
// expected one
func verifyConverged(t *testing.T, dialect string, read, expected *schema.Schema) {
	t.Helper()
	d, err := platform.Lookup(dialect)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", dialect, err)
	}
	changes, err := alteration.NewComparator(alteration.WithDefaultSizes(d.Info().DefaultSizes)).Compare(read, expected)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(changes) > 0 {
		var lines []string
		for _, c := range changes {
			lines = append(lines, c.String())
		}
		t.Errorf("Expected no differences, got:\n%s", strings.Join(lines, "\n"))
	}
}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	for _, tableName := range expectedTables {
		if s.FindTable(tableName, true) == nil {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}
