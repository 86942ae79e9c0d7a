package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/cache"
	"github.com/mandalbook/mandalbook/pkg/session"
)

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "session:GANESH24", session.Key("GANESH24"))
}

func TestCacheStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewMemory[[]byte](cache.WithCleanupInterval(0))
	defer c.Close()

	store := session.NewCacheStore(c, "device:d1")

	_, err := store.Get(ctx, "session:GANESH24")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Set(ctx, "session:GANESH24", []byte("record")))

	data, err := store.Get(ctx, "session:GANESH24")
	require.NoError(t, err)
	require.Equal(t, []byte("record"), data)

	// Keys are scoped per device: another prefix sees nothing.
	other := session.NewCacheStore(c, "device:d2")
	_, err = other.Get(ctx, "session:GANESH24")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "session:GANESH24"))
	_, err = store.Get(ctx, "session:GANESH24")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestResilient_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("prefers primary", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		fallback := newMemStore()
		require.NoError(t, primary.Set(ctx, "k", []byte("from-primary")))
		require.NoError(t, fallback.Set(ctx, "k", []byte("from-fallback")))

		r := session.NewResilient(primary, fallback)

		data, err := r.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("from-primary"), data)
	})

	t.Run("falls back and mirrors", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		fallback := newMemStore()
		require.NoError(t, fallback.Set(ctx, "k", []byte("record")))

		r := session.NewResilient(primary, fallback)

		data, err := r.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("record"), data)

		// The fallback hit is rewritten to the primary store.
		mirrored, err := primary.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("record"), mirrored)
	})

	t.Run("miss in both is ErrNotFound", func(t *testing.T) {
		t.Parallel()

		r := session.NewResilient(newMemStore(), newMemStore())

		_, err := r.Get(ctx, "k")
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("primary error still served by fallback", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		primary.getErr = errors.New("primary offline")
		fallback := newMemStore()
		require.NoError(t, fallback.Set(ctx, "k", []byte("record")))

		r := session.NewResilient(primary, fallback)

		data, err := r.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("record"), data)
	})

	t.Run("both erroring returns the errors", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		primary.getErr = errors.New("primary offline")
		fallback := newMemStore()
		fallback.getErr = errors.New("fallback offline")

		r := session.NewResilient(primary, fallback)

		_, err := r.Get(ctx, "k")
		require.Error(t, err)
		require.NotErrorIs(t, err, session.ErrNotFound)
	})
}

func TestResilient_Set(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes to both stores", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		fallback := newMemStore()
		r := session.NewResilient(primary, fallback)

		require.NoError(t, r.Set(ctx, "k", []byte("record")))

		for _, s := range []*memStore{primary, fallback} {
			data, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("record"), data)
		}
	})

	t.Run("tolerates a single-store failure", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		primary.setErr = errors.New("primary full")
		fallback := newMemStore()
		r := session.NewResilient(primary, fallback)

		require.NoError(t, r.Set(ctx, "k", []byte("record")))

		data, err := fallback.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("record"), data)
	})

	t.Run("fails only when both stores fail", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		primary.setErr = errors.New("primary full")
		fallback := newMemStore()
		fallback.setErr = errors.New("fallback full")
		r := session.NewResilient(primary, fallback)

		require.Error(t, r.Set(ctx, "k", []byte("record")))
	})
}

func TestResilient_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	primary := newMemStore()
	fallback := newMemStore()
	require.NoError(t, primary.Set(ctx, "k", []byte("record")))
	require.NoError(t, fallback.Set(ctx, "k", []byte("record")))

	r := session.NewResilient(primary, fallback)

	require.NoError(t, r.Delete(ctx, "k"))
	require.Zero(t, primary.len())
	require.Zero(t, fallback.len())
}

func TestManager_CorruptRecoveryThroughResilient(t *testing.T) {
	t.Parallel()

	// Garbage in both stores, then a load: nil session and no trace left
	// in either store afterwards.
	ctx := context.Background()
	primary := newMemStore()
	fallback := newMemStore()
	key := session.Key("GANESH24")
	require.NoError(t, primary.Set(ctx, key, []byte("���garbage")))
	require.NoError(t, fallback.Set(ctx, key, []byte("���garbage")))

	m := session.NewManager(session.NewResilient(primary, fallback), "GANESH24")

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, primary.len())
	require.Zero(t, fallback.len())
}
