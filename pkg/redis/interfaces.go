package redis

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and HGet when the key or field is missing
var ErrNotFound = errors.New("redis: not found")

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// Set sets a key to a value with an optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key
	Get(ctx context.Context, key string) (string, error)

	// Del removes keys
	Del(ctx context.Context, keys ...string) error

	// HSet sets a field in a hash
	HSet(ctx context.Context, key string, field string, value interface{}) error

	// HSetNX sets a field only if it does not exist yet; reports whether it was set
	HSetNX(ctx context.Context, key string, field string, value interface{}) (bool, error)

	// HGet gets a field from a hash
	HGet(ctx context.Context, key string, field string) (string, error)

	// HGetAll gets all fields from a hash
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// LPush pushes values to the head of a list
	LPush(ctx context.Context, key string, values ...interface{}) error

	// LTrim trims a list to the specified range
	LTrim(ctx context.Context, key string, start, stop int64) error

	// LRange returns a range of elements from a list
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Expire sets a TTL on a key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
