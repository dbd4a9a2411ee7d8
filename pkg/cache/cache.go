// Package cache stores registry responses between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entries under the user cache directory (the default)
//   - [RedisCache]: a shared Redis instance, for CI fleets that want one cache
//   - [NullCache]: stores nothing, used by --no-cache and in tests
//
// [Open] picks the backend from a [Config]. Values are opaque bytes; callers
// marshal their own payloads.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// DefaultTTL is how long registry responses stay fresh when no TTL is
// configured.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss with ok=false and a nil error. An expired entry is a
// miss. A ttl of zero in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry this cache owns.
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Dir is the FileCache directory. Empty means [DefaultDir].
	Dir string
	// RedisURL, when set, selects RedisCache (redis://host:port/db).
	RedisURL string
	// Disabled selects NullCache.
	Disabled bool
}

// DefaultDir returns the per-user cache directory for groupsync.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "groupsync"), nil
}

// Open returns the backend described by cfg.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch {
	case cfg.Disabled:
		return NewNullCache(), nil
	case cfg.RedisURL != "":
		return NewRedisCache(ctx, cfg.RedisURL, DefaultRedisPrefix)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	return NewFileCache(dir)
}
