//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
)

// openServer connects to the database named by the environment variable and
// drops the fixture tables left over from earlier runs.
func openServer(t *testing.T, ctx context.Context, env string) *Database {
	t.Helper()
	url := os.Getenv(env)
	if url == "" {
		t.Skipf("%s not set", env)
	}
	database, err := Open(ctx, url, "")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	builder := newBuilder(t, database.Dialect)
	existing, err := database.ReadSchema(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	for _, name := range []string{"order_items", "orders", "products", "users"} {
		if table := existing.FindTable(name, true); table != nil {
			for _, fk := range table.ForeignKeys {
				_ = database.ExecStatement(ctx, "ALTER TABLE "+builder.Identifier(name)+" DROP CONSTRAINT "+builder.Identifier(fk.Name))
			}
		}
	}
	for _, name := range []string{"order_items", "orders", "products", "users"} {
		if existing.FindTable(name, true) != nil {
			if err := database.ExecStatement(ctx, "DROP TABLE "+builder.Identifier(name)); err != nil {
				t.Fatalf("Failed to drop %s: %v", name, err)
			}
		}
	}
	return database
}

func TestPostgresReadsCreatedSchema(t *testing.T) {
	ctx := context.Background()
	database := openServer(t, ctx, "POSTGRES_TEST_URL")
	createFixture(t, ctx, database)

	s, err := database.ReadSchema(ctx, []string{"users", "products", "orders", "order_items"})
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"users", "products", "orders", "order_items"})
	verifyConverged(t, "postgresql", s, shopModel())
}
