package checker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saaga0h/paintmix-platform/pkg/postgres"
)

// PostgresChecker validates database state
type PostgresChecker struct {
	client postgres.Client
	logger *slog.Logger
}

// NewPostgresChecker connects the client and returns a checker using it
func NewPostgresChecker(ctx context.Context, client postgres.Client, logger *slog.Logger) (*PostgresChecker, error) {
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresChecker{client: client, logger: logger}, nil
}

// CheckQuery runs a query returning a single value and matches it against
// expected
func (p *PostgresChecker) CheckQuery(ctx context.Context, query string, expected interface{}) (bool, string, interface{}) {
	p.logger.Debug("Executing query", "query", query)

	rows, err := p.client.Query(ctx, query)
	if err != nil {
		return false, fmt.Sprintf("query failed: %v", err), nil
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, fmt.Sprintf("query failed: %v", err), nil
		}
		return false, "query returned no rows", nil
	}

	var result interface{}
	if err := rows.Scan(&result); err != nil {
		return false, fmt.Sprintf("failed to scan result: %v", err), nil
	}
	if b, ok := result.([]byte); ok {
		result = string(b)
	}

	p.logger.Debug("Query result", "actual", result, "expected", expected)

	ok, reason := MatchesExpectation(result, expected)
	return ok, reason, result
}

// Close closes the database connection
func (p *PostgresChecker) Close() error {
	return p.client.Disconnect()
}
