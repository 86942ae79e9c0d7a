package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry[V any] struct {
	expiresAt time.Time // zero value = never expires
	value     V
}

func (e memEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-memory cache with TTL-based expiration. A background
// janitor removes expired entries so abandoned keys do not accumulate
// between reads.
type Memory[V any] struct {
	items      map[string]memEntry[V]
	defaultTTL time.Duration
	done       chan struct{}
	mu         sync.RWMutex
	closed     bool
}

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

// WithDefaultTTL sets the expiration applied when Set is called with a
// zero TTL. Default: 1 hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.defaultTTL = d
	}
}

// WithCleanupInterval sets how often the janitor removes expired entries.
// Zero disables the janitor. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.cleanupInterval = d
	}
}

// NewMemory creates a new in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := &memoryConfig{
		defaultTTL:      time.Hour,
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Memory[V]{
		items:      make(map[string]memEntry[V]),
		defaultTTL: cfg.defaultTTL,
		done:       make(chan struct{}),
	}

	if cfg.cleanupInterval > 0 {
		go m.janitor(cfg.cleanupInterval)
	}

	return m
}

// Get retrieves a value by key.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, ErrNotFound
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores a value with the given TTL.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.items[key] = memEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes a key.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.items, key)
	return nil
}

// Has reports whether a key exists and has not expired.
func (m *Memory[V]) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Close stops the janitor goroutine. Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, e := range m.items {
				if e.expired(now) {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
