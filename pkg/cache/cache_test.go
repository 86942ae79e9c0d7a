package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/cache"
)

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 42, val)
	})

	t.Run("expired key is gone", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative TTL never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0), cache.WithDefaultTTL(time.Millisecond))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", -1))

		time.Sleep(5 * time.Millisecond)

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("zero TTL uses default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0), cache.WithDefaultTTL(time.Millisecond))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", 0))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestMemory_DeleteHas(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string](cache.WithCleanupInterval(0))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

	has, err := c.Has(ctx, "key")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, c.Delete(ctx, "key"))
	require.NoError(t, c.Delete(ctx, "key")) // deleting a missing key is fine

	has, err = c.Has(ctx, "key")
	require.NoError(t, err)
	require.False(t, has)
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close()) // idempotent

	require.ErrorIs(t, c.Set(context.Background(), "key", "value", time.Minute), cache.ErrClosed)
	require.ErrorIs(t, c.Delete(context.Background(), "key"), cache.ErrClosed)
}

func TestMemory_Janitor(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string](cache.WithCleanupInterval(5 * time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))

	require.Eventually(t, func() bool {
		has, _ := c.Has(ctx, "key")
		return !has
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[int](cache.WithCleanupInterval(0))
	defer c.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i%10))
			_ = c.Set(ctx, key, i, time.Minute)
			_, _ = c.Get(ctx, key)
		}()
	}
	wg.Wait()
}

func TestGetOrSet(t *testing.T) {
	t.Parallel()

	t.Run("computes on miss and caches", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		var calls atomic.Int32

		fn := func(ctx context.Context) (string, time.Duration, error) {
			calls.Add(1)
			return "computed", time.Minute, nil
		}

		val, err := cache.GetOrSet(ctx, c, "key", fn)
		require.NoError(t, err)
		require.Equal(t, "computed", val)

		val, err = cache.GetOrSet(ctx, c, "key", fn)
		require.NoError(t, err)
		require.Equal(t, "computed", val)
		require.Equal(t, int32(1), calls.Load(), "second call must hit the cache")
	})

	t.Run("error is not cached", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		wantErr := errors.New("compute failed")

		_, err := cache.GetOrSet(ctx, c, "err-key", func(ctx context.Context) (string, time.Duration, error) {
			return "", 0, wantErr
		})
		require.ErrorIs(t, err, wantErr)

		_, err = c.Get(ctx, "err-key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}
