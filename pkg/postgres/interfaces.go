package postgres

import (
	"context"
	"database/sql"
)

// Client represents a PostgreSQL client interface for testing and abstraction
type Client interface {
	// Connect establishes a connection to the PostgreSQL database
	Connect(ctx context.Context) error

	// Disconnect closes the connection to the PostgreSQL database
	Disconnect() error

	// IsConnected reports whether Connect has succeeded
	IsConnected() bool

	// Exec executes a query without returning any rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query executes a query that returns rows
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// Transaction executes a function within a database transaction
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error

	// Migrate runs schema statements in a single transaction under an
	// advisory lock
	Migrate(ctx context.Context, lockID int64, statements ...string) error

	// HealthCheck performs a health check on the database connection
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
