package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. It stands in for a cache that was switched off
// or could not be reached; Reason says which.
type NullCache struct {
	Reason string
}

// Disabled returns a NullCache that records why caching is off.
func Disabled(reason string) *NullCache {
	return &NullCache{Reason: reason}
}

// IsDisabled reports whether c is a NullCache, and its reason.
func IsDisabled(c Cache) (reason string, ok bool) {
	nc, ok := c.(*NullCache)
	if !ok {
		return "", false
	}
	return nc.Reason, true
}

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

var _ Cache = (*NullCache)(nil)
