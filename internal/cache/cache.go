// Package cache memoizes computed results. Entries are advisory and may be
// served stale until their TTL or an explicit invalidation.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

type Cache interface {
	// Get decodes the cached value for key into value.
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// InvalidatePrefix removes every key starting with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) error {
	return ErrMiss
}

func (Nop) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (Nop) Delete(context.Context, string) error {
	return nil
}

func (Nop) InvalidatePrefix(context.Context, string) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
