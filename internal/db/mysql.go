package db

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open database")
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "failed to ping database")
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ExecStatement runs a single DDL statement
func (c *MySQLClient) ExecStatement(ctx context.Context, stmt string) error {
	_, err := c.db.ExecContext(ctx, stmt)
	return errors.Trace(err)
}

// ParseDatabaseName returns the database name of a MySQL DSN
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Annotate(err, "invalid MySQL DSN")
	}
	if cfg.DBName == "" {
		return "", errors.NotValidf("MySQL DSN without database name")
	}
	return cfg.DBName, nil
}
