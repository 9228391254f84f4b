package cache

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by Update when the key kept changing underneath
// every attempt.
var ErrConflict = errors.New("cache update conflict")

// UpdateFunc receives the stored value and returns its replacement.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the subset of cache behaviour the usecases rely on. RedisClient
// is the production implementation; Memory backs single-node development
// setups and tests.
type Store interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	GetString(ctx context.Context, key string) (string, error)
	// Update rewrites an existing key atomically. A missing key yields
	// ErrMiss and fn is not called.
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error
}

// Locker guards work that must run on one instance at a time.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

var (
	_ Store  = (*RedisClient)(nil)
	_ Store  = (*Memory)(nil)
	_ Locker = (*RedisClient)(nil)
	_ Locker = (*Memory)(nil)
)
