// Package cache stores build artifacts between runs.
//
// A [Cache] maps string keys to byte slices with an optional time-to-live.
// Three backends are provided:
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [RedisCache]: a shared Redis server, for the HTTP API
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that every caller derives the same key
// for the same design options:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(designHash, cache.ArtifactKeyOpts{Format: "gds", ExportType: "static"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache is a byte store with expiry.
type Cache interface {
	// Get returns the data stored under key. A missing or expired entry is
	// reported as a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// DefaultTTL is the lifetime of cached artifacts.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultDir returns the picforge cache directory, honouring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "picforge"), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "picforge"), nil
}

// Open returns the cache for url: "" or a directory path selects a
// FileCache (the default directory when empty), "redis://" and "rediss://"
// URLs select a RedisCache, and "none" disables caching.
func Open(ctx context.Context, url string) (Cache, error) {
	switch {
	case url == "none":
		return Disabled("cache-url is none"), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		c, err := NewRedisCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	dir := url
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	c, err := NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return c, nil
}
