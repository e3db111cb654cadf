package db

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open database")
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "failed to ping database")
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// ExecStatement runs a single DDL statement
func (c *SQLiteClient) ExecStatement(ctx context.Context, stmt string) error {
	_, err := c.db.ExecContext(ctx, stmt)
	return errors.Trace(err)
}
