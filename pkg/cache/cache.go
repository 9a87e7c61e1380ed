// Package cache stores computed layouts keyed by the source they were
// derived from.
//
// Layout is a pure function of the source text, the layout mode and the
// dimensions, so a hash of those is a complete key. [Keyer] builds such keys;
// [Cache] implementations hold the encoded results:
//
//   - [MemoryCache]: bounded in-process cache used by the HTTP server
//   - [FileCache]: on-disk cache used by the CLI between runs
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Default lifetimes.
const (
	// TTLLayout is how long a computed layout stays cached.
	TTLLayout = 24 * time.Hour

	// TTLArtifact is how long a rendered export stays cached.
	TTLArtifact = 24 * time.Hour
)
