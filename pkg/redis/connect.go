package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option configures a Redis connection.
type Option func(*options)

type options struct {
	poolSize      int
	minIdleConns  int
	maxIdleTime   time.Duration
	maxActiveTime time.Duration
	retryAttempts int
	retryInterval time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
	dialTimeout   time.Duration
}

func defaultOptions() *options {
	return &options{
		poolSize:      10,
		minIdleConns:  5,
		maxIdleTime:   10 * time.Minute,
		maxActiveTime: 30 * time.Minute,
		retryAttempts: 3,
		retryInterval: 5 * time.Second,
		readTimeout:   3 * time.Second,
		writeTimeout:  3 * time.Second,
		dialTimeout:   5 * time.Second,
	}
}

// WithPoolSize sets the maximum number of pooled connections. Default: 10.
func WithPoolSize(n int) Option {
	return func(o *options) { o.poolSize = n }
}

// WithMinIdleConns sets the minimum idle connections kept warm. Default: 5.
func WithMinIdleConns(n int) Option {
	return func(o *options) { o.minIdleConns = n }
}

// WithMaxIdleTime sets how long an idle connection may live. Default: 10m.
func WithMaxIdleTime(d time.Duration) Option {
	return func(o *options) { o.maxIdleTime = d }
}

// WithMaxActiveTime sets the total lifetime of a connection. Default: 30m.
func WithMaxActiveTime(d time.Duration) Option {
	return func(o *options) { o.maxActiveTime = d }
}

// WithRetry sets startup retry behavior. Default: 3 attempts, 5s base
// interval with linear backoff.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithReadTimeout sets the read deadline. Default: 3s.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) { o.readTimeout = d }
}

// WithWriteTimeout sets the write deadline. Default: 3s.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// WithDialTimeout sets the connection establishment deadline. Default: 5s.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// Open creates a Redis client from a redis:// or rediss:// URL and
// verifies connectivity before returning. Session records tolerate a
// Redis outage (the store falls back to memory), so a failed Open should
// surface at startup rather than be masked later.
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	redisOpts.PoolSize = o.poolSize
	redisOpts.MinIdleConns = o.minIdleConns
	redisOpts.ConnMaxIdleTime = o.maxIdleTime
	redisOpts.ConnMaxLifetime = o.maxActiveTime
	redisOpts.ReadTimeout = o.readTimeout
	redisOpts.WriteTimeout = o.writeTimeout
	redisOpts.DialTimeout = o.dialTimeout

	return connect(ctx, redisOpts, o.retryAttempts, o.retryInterval)
}

func connect(ctx context.Context, opts *redis.Options, attempts int, interval time.Duration) (redis.UniversalClient, error) {
	attempts = max(attempts, 1)

	for i := range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * interval):
		}
	}

	return nil, ErrConnectionFailed
}
