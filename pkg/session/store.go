package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mandalbook/mandalbook/pkg/cache"
)

// Key returns the storage key for a festival's session slot. Exactly one
// session is active per festival code per device, so the key carries no
// session ID.
func Key(festivalCode string) string {
	return "session:" + festivalCode
}

// Store is the persistence boundary for session records. Implementations
// return ErrNotFound from Get when no record exists for the key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CacheStore adapts a byte cache into a session Store. An optional prefix
// scopes keys to one device so multiple devices can share a backend.
type CacheStore struct {
	cache  cache.Cache[[]byte]
	prefix string
	ttl    time.Duration
}

// Session records only need to survive until the next IST midnight plus
// slack for the rolling-window fallback; two days covers both.
const recordTTL = 48 * time.Hour

// NewCacheStore wraps a byte cache as a session Store.
func NewCacheStore(c cache.Cache[[]byte], prefix string) *CacheStore {
	return &CacheStore{cache: c, prefix: prefix, ttl: recordTTL}
}

func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.cache.Get(ctx, s.scoped(key))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *CacheStore) Set(ctx context.Context, key string, value []byte) error {
	return s.cache.Set(ctx, s.scoped(key), value, s.ttl)
}

func (s *CacheStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, s.scoped(key))
}

func (s *CacheStore) scoped(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Resilient composes a primary and a fallback store so a session survives
// a single-store failure. Writes go to both stores; reads try the primary
// and then the fallback, mirroring a fallback hit back to the primary.
//
// This is the unit that owns the storage-redundancy policy; the read-skip
// window that papers over delayed write visibility lives in Manager,
// which also owns the in-memory copy the window returns.
type Resilient struct {
	primary  Store
	fallback Store
	log      *slog.Logger
}

// ResilientOption configures a Resilient store.
type ResilientOption func(*Resilient)

// WithResilientLogger sets the logger for partial-failure reporting.
func WithResilientLogger(l *slog.Logger) ResilientOption {
	return func(r *Resilient) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResilient composes primary and fallback stores.
func NewResilient(primary, fallback Store, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		primary:  primary,
		fallback: fallback,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get reads the record for key, preferring the primary store. A record
// found only in the fallback is rewritten to the primary so subsequent
// reads take the fast path. Returns ErrNotFound when neither store has
// the record; a non-miss error is returned only when both stores failed.
func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	data, primaryErr := r.primary.Get(ctx, key)
	if primaryErr == nil {
		return data, nil
	}

	data, fallbackErr := r.fallback.Get(ctx, key)
	if fallbackErr == nil {
		// Mirror back, best effort.
		if err := r.primary.Set(ctx, key, data); err != nil {
			r.log.WarnContext(ctx, "failed to mirror session record to primary store",
				slog.String("key", key), slog.Any("error", err))
		}
		return data, nil
	}

	if errors.Is(primaryErr, ErrNotFound) || errors.Is(fallbackErr, ErrNotFound) {
		return nil, ErrNotFound
	}
	return nil, errors.Join(primaryErr, fallbackErr)
}

// Set writes the record to both stores. The write fails only when neither
// store accepted it; a single-store failure is logged and tolerated.
func (r *Resilient) Set(ctx context.Context, key string, value []byte) error {
	primaryErr := r.primary.Set(ctx, key, value)
	fallbackErr := r.fallback.Set(ctx, key, value)

	if primaryErr != nil && fallbackErr != nil {
		return errors.Join(primaryErr, fallbackErr)
	}
	if primaryErr != nil {
		r.log.WarnContext(ctx, "primary session store write failed",
			slog.String("key", key), slog.Any("error", primaryErr))
	}
	if fallbackErr != nil {
		r.log.WarnContext(ctx, "fallback session store write failed",
			slog.String("key", key), slog.Any("error", fallbackErr))
	}
	return nil
}

// Primary exposes the primary store so write verification can read past
// the fallback. The composed Get cannot surface a failed primary write:
// the fallback answers and the mirror-back quietly repairs the primary.
func (r *Resilient) Primary() Store {
	return r.primary
}

// Delete removes the record from both stores unconditionally.
func (r *Resilient) Delete(ctx context.Context, key string) error {
	return errors.Join(
		r.primary.Delete(ctx, key),
		r.fallback.Delete(ctx, key),
	)
}

var (
	_ Store = (*CacheStore)(nil)
	_ Store = (*Resilient)(nil)
)
