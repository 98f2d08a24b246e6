// Package cache provides the byte-oriented caches used for upstream API
// responses and computed gallery layouts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory; used by the CLI
//     and by single-instance deployments
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caching disabled
//
// All backends implement [Cache]. Values are opaque bytes; callers marshal
// and unmarshal themselves.
//
// # Keys
//
// A [Keyer] builds keys for each kind of entry so that namespaces never
// collide. [NewScopedKeyer] prefixes every key, which lets several
// deployments share one Redis database.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores opaque values with an optional time-to-live.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil);
	// errors are reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key for a cached upstream response.
	HTTPKey(namespace, key string) string

	// LayoutKey is the key for a computed masonry layout of a gallery page.
	LayoutKey(pageHash string, opts LayoutKeyOpts) string

	// RateKey is the key for a rate limiter bucket.
	RateKey(scope, client string) string
}

// LayoutKeyOpts are the layout parameters that change the result.
type LayoutKeyOpts struct {
	Width       float64 `json:"width"`
	ColumnWidth float64 `json:"column_width"`
	Gap         float64 `json:"gap"`
}

// DefaultKeyer is the stock [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// LayoutKey hashes the options together with the page hash.
func (DefaultKeyer) LayoutKey(pageHash string, opts LayoutKeyOpts) string {
	return digest("layout", pageHash, pixels(opts.Width), pixels(opts.ColumnWidth), pixels(opts.Gap))
}

// RateKey returns "rate:<scope>:<client>".
func (DefaultKeyer) RateKey(scope, client string) string {
	return fmt.Sprintf("rate:%s:%s", scope, client)
}
