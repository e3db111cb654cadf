//go:build integration
// +build integration

package db

import (
	"context"
	"testing"

	"github.com/tordrt/ddlgen/internal/schema"
)

func TestMySQLReadsCreatedSchema(t *testing.T) {
	ctx := context.Background()
	database := openServer(t, ctx, "MYSQL_TEST_URL")
	createFixture(t, ctx, database)

	s, err := database.ReadSchema(ctx, []string{"users", "products", "orders", "order_items"})
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"users", "products", "orders", "order_items"})

	// MySQL backs every foreign key with an index of its own and reports
	// NUMERIC columns as DECIMAL
	expected := shopModel()
	for i := range expected.Tables {
		expected.Tables[i].Indexes = nil
	}
	price, _ := expected.FindTable("products", true).FindColumn("price", true)
	price.Type = schema.TypeDecimal
	for i := range s.Tables {
		s.Tables[i].Indexes = nil
	}
	verifyConverged(t, "mysql", s, expected)
}
