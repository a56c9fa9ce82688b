package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

// CheckRedisExpectation validates a Redis state expectation
func CheckRedisExpectation(ctx context.Context, client redis.Client, exp scenario.Expectation) (bool, string, interface{}) {
	if exp.RedisKey == "" {
		return false, "redis_key is empty", nil
	}

	var (
		value string
		err   error
	)
	switch {
	case exp.RedisField != "":
		value, err = client.HGet(ctx, exp.RedisKey, exp.RedisField)
	case exp.RedisIndex != nil:
		var values []string
		values, err = client.LRange(ctx, exp.RedisKey, *exp.RedisIndex, *exp.RedisIndex)
		if err == nil && len(values) == 0 {
			err = redis.ErrNotFound
		}
		if err == nil {
			value = values[0]
		}
	default:
		value, err = client.Get(ctx, exp.RedisKey)
	}

	if errors.Is(err, redis.ErrNotFound) {
		return false, fmt.Sprintf("%s not found in Redis", describeRedis(exp)), nil
	}
	if err != nil {
		return false, fmt.Sprintf("Redis error: %v", err), nil
	}

	return MatchesStored(value, exp.Expected)
}

func describeRedis(exp scenario.Expectation) string {
	switch {
	case exp.RedisField != "":
		return fmt.Sprintf("key %q field %q", exp.RedisKey, exp.RedisField)
	case exp.RedisIndex != nil:
		return fmt.Sprintf("key %q index %d", exp.RedisKey, *exp.RedisIndex)
	}
	return fmt.Sprintf("key %q", exp.RedisKey)
}
