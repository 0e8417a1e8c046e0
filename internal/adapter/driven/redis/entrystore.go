// Package redis implements the EntryStore port on Redis using go-redis.
// Expiry is delegated to Redis key TTLs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryStore)(nil)

// EntryStore is the Redis implementation of the EntryStore port interface.
type EntryStore struct {
	client *goredis.Client
}

// NewEntryStore wraps an existing client. The caller owns the client.
func NewEntryStore(client *goredis.Client) *EntryStore {
	return &EntryStore{client: client}
}

// NewClient parses a redis:// URL and opens a client. It does not dial;
// use Ping to verify connectivity.
func NewClient(rawURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

// Set stores value under key with a TTL, replacing any existing entry.
func (s *EntryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set entry", err)
	}
	return nil
}

// Get returns the value under key. A missing or expired key yields found=false.
func (s *EntryStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get entry", err)
	}
	return val, true, nil
}

// Exists reports whether key is present.
func (s *EntryStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable("check entry", err)
	}
	return n > 0, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *EntryStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return unavailable("delete entry", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *EntryStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("redis %s: %w: %w", op, driven.ErrStoreUnavailable, err)
}
