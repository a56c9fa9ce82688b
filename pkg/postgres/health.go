package postgres

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus represents the health of the Postgres connection
type HealthStatus struct {
	Connected     bool      `json:"connected"`
	ServerVersion string    `json:"server_version,omitempty"`
	Database      string    `json:"database"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HealthCheck pings the database and reads the server version.
// Failures are reported in the status, not as an error.
func (c *PostgresClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Database:  c.config.PostgresDB,
		Timestamp: time.Now(),
	}

	if c.db == nil {
		status.Error = ErrNotConnected.Error()
		return status, nil
	}

	if err := c.db.PingContext(ctx); err != nil {
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return status, nil
	}
	status.Connected = true

	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&status.ServerVersion); err != nil {
		status.Error = fmt.Sprintf("failed to get version: %v", err)
	}

	return status, nil
}
