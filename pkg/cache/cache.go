// Package cache is the short-lived query cache in front of listing and
// request reads. Entries expire lazily on read; nothing sweeps them and
// nothing bounds their number. Callers must treat every miss or backend
// error as "go to the database".
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under logical keys.
type Cache interface {
	// Get reports a hit while now <= expiry. A late read evicts the entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites key unconditionally with expiry = now + ttl.
	// A non-positive ttl drops the key instead of storing it.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate removes keys; absent keys are ignored.
	Invalidate(ctx context.Context, keys ...string) error
}

// Nop is a disabled cache: every read misses and writes are discarded.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Invalidate(context.Context, ...string) error              { return nil }
