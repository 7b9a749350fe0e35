// Package cache provides byte-level caching for measured image sizes and
// rendered collage artifacts.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for multiple server instances
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so the CLI, the server and tests agree on the
// key layout. Image sizes are stable for a given resource and are cached for
// a long time. Layouts are only cached when the caller pinned a seed; an
// unseeded layout is recomputed on every request.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default TTLs per entry kind.
const (
	TTLSize     = 30 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
