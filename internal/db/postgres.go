package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/juju/errors"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, errors.Annotate(err, "failed to connect to database")
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, errors.Annotate(err, "failed to ping database")
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// ExecStatement runs a single DDL statement
func (c *PostgresClient) ExecStatement(ctx context.Context, stmt string) error {
	_, err := c.conn.Exec(ctx, stmt)
	return errors.Trace(err)
}
