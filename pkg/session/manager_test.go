package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/localdate"
	"github.com/mandalbook/mandalbook/pkg/session"
)

// memStore is an in-memory Store for tests. Error injection covers the
// fail-safe and propagation branches.
type memStore struct {
	mu      sync.Mutex
	records map[string][]byte
	getErr  error
	setErr  error
	delErr  error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.records[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	return data, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.records[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.records, key)
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// fixedClock is a settable time source.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var ist = localdate.IST()

func visitorAt(loginTime time.Time) *session.Session {
	return &session.Session{
		Kind:          session.KindVisitor,
		FestivalID:    "fest-1",
		FestivalCode:  "GANESH24",
		VisitorName:   "Asha",
		AdminID:       "admin-1",
		AdminCode:     "A01",
		AdminName:     "Ramesh",
		PasswordLabel: "building-a",
		PasswordID:    "pw-1",
		LoginTime:     loginTime.UTC().Format(time.RFC3339),
		SessionID:     "sess-1",
		DeviceID:      "device-1",
	}
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	want := visitorAt(clock.Now())
	require.NoError(t, m.Save(ctx, want))

	// Move past the read-skip window so Load hits storage.
	clock.Advance(3 * time.Second)

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestManager_LoadNoSession(t *testing.T) {
	t.Parallel()

	m := session.NewManager(newMemStore(), "GANESH24")

	got, err := m.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestManager_GracePeriod(t *testing.T) {
	t.Parallel()

	// Saved at 23:59:59 IST, loaded at 00:00:01 IST the next day: a
	// different calendar day, but inside the 30-second grace window.
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 23, 59, 59, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))

	clock.Set(time.Date(2024, time.January, 16, 0, 0, 1, 0, ist))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got, "session inside the grace window must survive the midnight boundary")
}

func TestManager_DailyExpiry(t *testing.T) {
	t.Parallel()

	t.Run("different IST calendar day expires before 24h", func(t *testing.T) {
		t.Parallel()

		// Logged in at 23:50 IST, loaded at 00:10 IST: 20 minutes of
		// wall-clock time but a different IST calendar day.
		ctx := context.Background()
		store := newMemStore()
		clock := &fixedClock{now: time.Date(2024, time.January, 15, 23, 50, 0, 0, ist)}
		m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

		require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))

		clock.Set(time.Date(2024, time.January, 16, 0, 10, 0, 0, ist))

		got, err := m.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, got)
		require.Zero(t, store.len(), "expired session must be purged from storage")
	})

	t.Run("evening login still valid after IST midnight plus grace elapsed elsewhere same day", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newMemStore()
		clock := &fixedClock{now: time.Date(2024, time.January, 15, 10, 0, 0, 0, ist)}
		m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

		require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))

		// Ten hours later, same IST day.
		clock.Set(time.Date(2024, time.January, 15, 20, 0, 0, 0, ist))

		got, err := m.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
	})

	t.Run("spec scenario: 18:00 login gone at 00:05 next day", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newMemStore()
		clock := &fixedClock{now: time.Date(2024, time.January, 15, 18, 0, 0, 0, ist)}
		m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

		require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))

		clock.Set(time.Date(2024, time.January, 16, 0, 5, 0, 0, ist))

		got, err := m.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, got)
		require.Zero(t, store.len())
	})
}

func TestManager_RollingWindowFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 23, 50, 0, 0, time.UTC)}
	// nil location selects the 24-hour rolling window.
	m := session.NewManager(store, "GANESH24",
		session.WithClock(clock.Now),
		session.WithLocation(nil),
	)

	require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))

	// Crossing midnight does not matter without a calendar; 20 minutes
	// is well inside 24 hours.
	clock.Advance(20 * time.Minute)
	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	// 24 hours after login the window closes.
	clock.Advance(24 * time.Hour)
	got, err = m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestManager_CorruptRecordPurged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, session.Key("GANESH24"), []byte("{not json")))

	m := session.NewManager(store, "GANESH24")

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, store.len(), "corrupt record must be purged")
}

func TestManager_UnknownKindPurged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Set(ctx, session.Key("GANESH24"),
		[]byte(`{"type":"moderator","festivalCode":"GANESH24","sessionId":"x"}`)))

	m := session.NewManager(store, "GANESH24")

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, store.len())
}

func TestManager_LoginTimeRepair(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	require.NoError(t, store.Set(ctx, session.Key("GANESH24"),
		[]byte(`{"type":"admin","festivalId":"fest-1","festivalCode":"GANESH24","adminId":"admin-1","loginTime":"garbage","sessionId":"sess-2"}`)))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	loginAt, ok := got.LoginAt()
	require.True(t, ok, "login time must be repaired to a parseable timestamp")
	require.Equal(t, clock.Now().UTC().Truncate(time.Second), loginAt)

	// The repair is rewritten to storage.
	data, err := store.Get(ctx, session.Key("GANESH24"))
	require.NoError(t, err)
	var repaired session.Session
	require.NoError(t, json.Unmarshal(data, &repaired))
	_, ok = repaired.LoginAt()
	require.True(t, ok)
}

func TestManager_ReadSkipWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	sess := visitorAt(clock.Now())
	require.NoError(t, m.Save(ctx, sess))

	// Clobber storage; a load inside the window must not notice, since
	// it returns the in-memory copy to dodge delayed write visibility.
	require.NoError(t, store.Delete(ctx, session.Key("GANESH24")))

	clock.Advance(time.Second)
	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sess, got)

	// Past the window the storage truth wins.
	clock.Advance(2 * time.Second)
	got, err = m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestManager_StorageReadErrorFailsSafe(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.getErr = errors.New("storage offline")
	m := session.NewManager(store, "GANESH24")

	got, err := m.Load(context.Background())
	require.NoError(t, err, "read errors fail safe to logged-out, never to an error")
	require.Nil(t, got)
}

func TestManager_SaveErrorPropagates(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.setErr = errors.New("storage full")
	m := session.NewManager(store, "GANESH24")

	err := m.Save(context.Background(), visitorAt(time.Now()))
	require.ErrorIs(t, err, session.ErrSaveFailed)
}

func TestManager_SaveNormalizesLoginTime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	sess := visitorAt(clock.Now())
	sess.LoginTime = "not-a-timestamp"
	require.NoError(t, m.Save(ctx, sess))

	loginAt, ok := sess.LoginAt()
	require.True(t, ok)
	require.Equal(t, clock.Now().UTC().Truncate(time.Second), loginAt)
}

func TestManager_SaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	m := session.NewManager(newMemStore(), "GANESH24")

	require.ErrorIs(t, m.Save(context.Background(), nil), session.ErrInvalidRecord)

	bad := visitorAt(time.Now())
	bad.Kind = "moderator"
	require.ErrorIs(t, m.Save(context.Background(), bad), session.ErrInvalidRecord)
}

func TestManager_LogoutIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))
	require.NoError(t, m.Logout(ctx))
	require.Zero(t, store.len())

	// Second logout is a no-op.
	require.NoError(t, m.Logout(ctx))
	require.Zero(t, store.len())

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestManager_LogoutClearsSkipWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}
	m := session.NewManager(store, "GANESH24", session.WithClock(clock.Now))

	require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))
	require.NoError(t, m.Logout(ctx))

	// Even inside the skip window a logged-out manager returns nothing.
	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestManager_VerifyReadsPrimaryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, time.January, 15, 12, 0, 0, 0, ist)}

	t.Run("failed primary write is reported", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		primary.setErr = errors.New("primary store down")
		fallback := newMemStore()

		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))

		m := session.NewManager(
			session.NewResilient(primary, fallback),
			"GANESH24",
			session.WithClock(clock.Now),
			session.WithLogger(log),
		)

		// The fallback accepted the write, so the save succeeds; the
		// broken primary must still show up in the logs.
		require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))
		require.Equal(t, 1, fallback.len())
		require.Contains(t, buf.String(), "session write verification failed")
	})

	t.Run("healthy primary stays quiet", func(t *testing.T) {
		t.Parallel()

		primary := newMemStore()
		fallback := newMemStore()

		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))

		m := session.NewManager(
			session.NewResilient(primary, fallback),
			"GANESH24",
			session.WithClock(clock.Now),
			session.WithLogger(log),
		)

		require.NoError(t, m.Save(ctx, visitorAt(clock.Now())))
		require.NotContains(t, buf.String(), "verification failed")
	})
}
