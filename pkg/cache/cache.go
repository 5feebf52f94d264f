// Package cache stores serialized resolution outcomes.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared store for servers running several instances
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so that every entry point derives identical keys
// for identical requests. A miss is reported as (nil, false, nil), not as an
// error.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a resolution outcome stays valid.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error

	Close() error
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Clear(context.Context) error                              { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
