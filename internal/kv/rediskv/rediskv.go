// Package rediskv keeps session state in Redis so several service instances
// can share it.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "delegate:"

type Config struct {
	Client *redis.Client

	// KeyPrefix is prepended to every key. Default: "delegate:".
	KeyPrefix string
}

type Store struct {
	client    *redis.Client
	keyPrefix string
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("rediskv: redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Store{client: cfg.Client, keyPrefix: cfg.KeyPrefix}, nil
}

// Open dials addr and checks the connection.
func Open(ctx context.Context, addr, keyPrefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rediskv: ping %s: %w", addr, err)
	}
	return New(Config{Client: client, KeyPrefix: keyPrefix})
}

func (s *Store) key(k string) string { return s.keyPrefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rediskv: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value. Redis expires the key itself when ttl is positive.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("rediskv: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("rediskv: del %s: %w", key, err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys on its own.
func (s *Store) DeleteExpired(context.Context) (int64, error) { return 0, nil }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return s.client.Close() }
