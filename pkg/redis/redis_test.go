package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/redis"
)

func TestOpen_InvalidURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Open(ctx, "")
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Open(ctx, "http://localhost:6379")
		require.ErrorIs(t, err, redis.ErrFailedToParseURL)
	})

	t.Run("malformed URL", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Open(ctx, "redis://host:port:extra")
		require.ErrorIs(t, err, redis.ErrFailedToParseURL)
	})
}

func TestOpen_UnreachableServer(t *testing.T) {
	t.Parallel()

	// Port 1 on localhost refuses connections. One attempt with a short
	// dial timeout keeps the test fast.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := redis.Open(ctx, "redis://127.0.0.1:1/0",
		redis.WithRetry(1, 10*time.Millisecond),
		redis.WithDialTimeout(100*time.Millisecond),
	)
	require.ErrorIs(t, err, redis.ErrConnectionFailed)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	check := redis.Healthcheck(nil)
	require.ErrorIs(t, check(context.Background()), redis.ErrHealthcheckFailed)
}
