// Package redistest provides an in-memory redis.Client for tests.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

// Fake is an in-memory redis.Client. TTLs are recorded, not enforced.
type Fake struct {
	mu     sync.Mutex
	values map[string]string
	hashes map[string]map[string]string
	lists  map[string][]string
	TTLs   map[string]time.Duration

	// PingErr, when set, is returned by Ping
	PingErr error
}

var _ redis.Client = (*Fake)(nil)

// New creates an empty fake
func New() *Fake {
	return &Fake{
		values: make(map[string]string),
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][]string),
		TTLs:   make(map[string]time.Duration),
	}
}

func str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func (f *Fake) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = str(value)
	if ttl > 0 {
		f.TTLs[key] = ttl
	}
	return nil
}

func (f *Fake) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("key %s: %w", key, redis.ErrNotFound)
	}
	return v, nil
}

func (f *Fake) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
		delete(f.hashes, k)
		delete(f.lists, k)
		delete(f.TTLs, k)
	}
	return nil
}

func (f *Fake) HSet(ctx context.Context, key string, field string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	f.hashes[key][field] = str(value)
	return nil
}

func (f *Fake) HSetNX(ctx context.Context, key string, field string, value interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	if _, exists := f.hashes[key][field]; exists {
		return false, nil
	}
	f.hashes[key][field] = str(value)
	return true, nil
}

func (f *Fake) HGet(ctx context.Context, key string, field string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.hashes[key][field]
	if !ok {
		return "", fmt.Errorf("hash field %s:%s: %w", key, field, redis.ErrNotFound)
	}
	return v, nil
}

func (f *Fake) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *Fake) LPush(ctx context.Context, key string, values ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.lists[key] = append([]string{str(v)}, f.lists[key]...)
	}
	return nil
}

func (f *Fake) LTrim(ctx context.Context, key string, start, stop int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = slice(f.lists[key], start, stop)
	return nil
}

func (f *Fake) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slice(f.lists[key], start, stop), nil
}

// slice applies Redis inclusive, negative-from-the-end range semantics
func slice(list []string, start, stop int64) []string {
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return []string{}
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out
}

func (f *Fake) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TTLs[key] = ttl
	return nil
}

func (f *Fake) Ping(ctx context.Context) error {
	return f.PingErr
}

func (f *Fake) Close() error {
	return nil
}

// List returns a copy of a list without going through LRange
func (f *Fake) List(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}
