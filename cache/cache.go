// Package cache provides the TTL cache that sits in front of the upstream
// flavor source. Values are stored as bytes; the generic Read and Write
// helpers serialize typed values with msgpack so every caller works on its
// own copy.
package cache

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the byte-level caching contract used by the resolvers.
type Cache interface {
	// Read returns the value stored under key and its expiration. The
	// boolean is false when the key is absent or expired.
	Read(ctx context.Context, key string) ([]byte, time.Time, bool)

	// Write stores val under key, replacing any previous value, and returns
	// the expiration it was given. When the store declines the value the
	// returned expiration is the current time and the boolean is false.
	Write(ctx context.Context, key string, val []byte) (time.Time, bool)

	// Statistics counts live keys per prefix. Prefixes and keys are compared
	// trimmed and lower-cased; the returned map is keyed by the normalized
	// prefix.
	Statistics(prefixes []string) map[string]int

	Close() error
}

// CachedAsset is a value together with the instant it stops being fresh.
type CachedAsset[T any] struct {
	Data    T
	Expires time.Time
}

// Expired reports whether the asset is stale at now.
func (a CachedAsset[T]) Expired(now time.Time) bool {
	return !now.Before(a.Expires)
}

// Read decodes the value stored under key into a T. A decode failure is
// reported as a miss.
func Read[T any](ctx context.Context, c Cache, key string) (CachedAsset[T], bool) {
	var out CachedAsset[T]
	raw, expires, ok := c.Read(ctx, key)
	if !ok {
		return out, false
	}
	if err := msgpack.Unmarshal(raw, &out.Data); err != nil {
		return CachedAsset[T]{}, false
	}
	out.Expires = expires
	return out, true
}

// Write encodes v and stores it under key. If v cannot be encoded or the
// cache declines it, the returned asset carries v and expires immediately.
func Write[T any](ctx context.Context, c Cache, key string, v T) CachedAsset[T] {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return CachedAsset[T]{Data: v, Expires: time.Now()}
	}
	expires, _ := c.Write(ctx, key, raw)
	return CachedAsset[T]{Data: v, Expires: expires}
}

// Earliest returns the earliest of the given expirations. It returns the
// zero time when called with none.
func Earliest(times ...time.Time) time.Time {
	var min time.Time
	for i, t := range times {
		if i == 0 || t.Before(min) {
			min = t
		}
	}
	return min
}
