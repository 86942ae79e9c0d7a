package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a cache backed by Redis. Values are serialized with the
// configured Marshaler (JSON by default). All keys are namespaced under
// the configured prefix so unrelated consumers can share one database.
type Redis[V any] struct {
	client     redis.UniversalClient
	marshaler  Marshaler[V]
	prefix     string
	defaultTTL time.Duration
}

// RedisOption configures the Redis-backed cache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix     string
	defaultTTL time.Duration
}

// WithPrefix namespaces all keys under prefix.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// WithRedisDefaultTTL sets the expiration applied when Set is called with
// a zero TTL. Default: 1 hour.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.defaultTTL = d
	}
}

// NewRedis creates a Redis-backed cache. The client should come from
// pkg/redis.Open; its lifecycle stays with the caller, so Close here is a
// no-op. A nil Marshaler selects JSON serialization.
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...RedisOption) *Redis[V] {
	cfg := &redisConfig{defaultTTL: time.Hour}
	for _, opt := range opts {
		opt(cfg)
	}

	if m == nil {
		m = jsonMarshaler[V]{}
	}

	return &Redis[V]{
		client:     client,
		marshaler:  m,
		prefix:     cfg.prefix,
		defaultTTL: cfg.defaultTTL,
	}
}

// Get retrieves a value by key.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}

	return r.marshaler.Unmarshal(data)
}

// Set stores a value with the given TTL.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = r.defaultTTL
	}
	// Negative TTL means "never expires"; Redis expresses that as 0.
	redisTTL := max(ttl, 0)

	return r.client.Set(ctx, r.key(key), data, redisTTL).Err()
}

// Delete removes a key.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Has reports whether a key exists.
func (r *Redis[V]) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close is a no-op; the Redis client is managed by the caller.
func (r *Redis[V]) Close() error {
	return nil
}

func (r *Redis[V]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

var _ Cache[any] = (*Redis[any])(nil)
