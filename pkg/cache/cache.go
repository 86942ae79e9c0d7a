// Package cache provides a generic key-value cache with TTL support and
// two backends: a process-local in-memory map and Redis. The session
// subsystem composes one of each as its primary and fallback stores; the
// analytics handlers use it to memoize expensive summary queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache.
//
// TTL semantics for Set:
//   - positive: the entry expires after the duration
//   - zero: the backend's default TTL applies
//   - negative: the entry never expires
type Cache[V any] interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (V, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Has reports whether a key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases backend resources.
	Close() error
}

// Marshaler converts values to and from bytes for backends that store
// byte payloads (Redis).
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// RawBytes stores []byte values verbatim. Use it when other consumers
// read the backend directly and must see the payload unwrapped.
type RawBytes struct{}

func (RawBytes) Marshal(v []byte) ([]byte, error)      { return v, nil }
func (RawBytes) Unmarshal(data []byte) ([]byte, error) { return data, nil }

var _ Marshaler[[]byte] = RawBytes{}

var sfGroup singleflight.Group

type computed[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet returns the cached value for key, or computes it with fn on a
// miss. Concurrent misses for the same key are deduplicated through
// singleflight so fn runs once.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := sfGroup.Do(key, func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return computed[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := v.(computed[V])

	// Best-effort write-back; a failed Set only costs a recompute later.
	_ = c.Set(ctx, key, r.val, r.ttl)

	return r.val, nil
}
