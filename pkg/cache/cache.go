// Package cache provides pluggable response caching for HTTP-backed
// dependency sources.
//
// Three backends are available: a file cache for normal CLI use, a Redis
// cache for shared deployments of the HTTP API, and a null cache that
// disables caching entirely. The backend is selected by configuration; all
// callers go through the [Cache] interface.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves data by key. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
