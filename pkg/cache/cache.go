// Package cache stores probe results and rendered artifacts.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so every entry point derives the same key for
// the same input.
package cache

import (
	"context"
	"time"
)

// TTLs for the cached stages.
const (
	// TTLProbe keeps decoded image sizes; keys include the file's mtime and
	// size, so a changed file misses anyway.
	TTLProbe = 30 * 24 * time.Hour

	// TTLLayout keeps computed layouts.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact keeps rendered HTML, SVG, PNG and JSON output.
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
