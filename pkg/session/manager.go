package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mandalbook/mandalbook/pkg/localdate"
)

const (
	// graceWindow accepts freshly created sessions unconditionally. A
	// session written moments ago on a slow device can otherwise look
	// like it is "from yesterday" around the midnight boundary.
	graceWindow = 30 * time.Second

	// saveSkipWindow short-circuits loads right after a save. Storage
	// writes are not always immediately readable (observed on mobile
	// browsers), so a load inside this window returns the in-memory copy.
	saveSkipWindow = 2 * time.Second

	// rollingWindow replaces the calendar-day check when no reference
	// timezone is available.
	rollingWindow = 24 * time.Hour
)

// Manager owns the session lifecycle for one festival-code context: it
// loads, saves, expires and destroys the single active session for that
// code. Construct one per device+festival view and tear it down with the
// view; the grace-window and read-skip state it carries is instance
// state, never package state.
type Manager struct {
	store        Store
	festivalCode string
	key          string
	loc          *time.Location
	now          func() time.Time
	log          *slog.Logger

	mu         sync.Mutex
	current    *Session
	lastSaveAt time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLocation sets the reference timezone for daily expiry. Passing nil
// selects the 24-hour rolling-window fallback used when no timezone
// database is available.
func WithLocation(loc *time.Location) ManagerOption {
	return func(m *Manager) {
		m.loc = loc
	}
}

// NewManager creates a session manager for the given festival code.
// Daily expiry is anchored to Indian Standard Time unless overridden.
func NewManager(store Store, festivalCode string, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:        store,
		festivalCode: festivalCode,
		key:          Key(festivalCode),
		loc:          localdate.IST(),
		now:          time.Now,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FestivalCode returns the festival code this manager is bound to.
func (m *Manager) FestivalCode() string {
	return m.festivalCode
}

// Load returns the active session for the festival code, or nil when none
// exists. It applies, in order: the post-save read-skip window, corrupt
// and unknown-kind purging, login-time repair, the 30-second grace
// period, and the daily expiry boundary. Storage read errors fail safe to
// "no session"; a stale identity must never survive a broken store.
func (m *Manager) Load(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if m.current != nil && !m.lastSaveAt.IsZero() && now.Sub(m.lastSaveAt) < saveSkipWindow {
		return m.current, nil
	}

	data, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.WarnContext(ctx, "session read failed, treating as logged out",
				slog.String("festival_code", m.festivalCode), slog.Any("error", err))
		}
		m.current = nil
		return nil, nil
	}

	sess, err := decode(data)
	if err != nil {
		m.purge(ctx)
		return nil, nil
	}

	loginAt, ok := sess.LoginAt()
	if !ok {
		// Repair in place rather than discarding an otherwise valid
		// session, and rewrite so the repair sticks.
		sess.LoginTime = now.UTC().Format(time.RFC3339)
		loginAt = now
		if repaired, err := encode(sess); err == nil {
			if err := m.store.Set(ctx, m.key, repaired); err != nil {
				m.log.WarnContext(ctx, "failed to rewrite repaired session",
					slog.String("festival_code", m.festivalCode), slog.Any("error", err))
			}
		}
	}

	if now.Sub(loginAt) >= graceWindow && m.expired(loginAt, now) {
		m.purge(ctx)
		return nil, nil
	}

	m.current = sess
	return sess, nil
}

// expired reports whether a session that began at loginAt has crossed the
// daily expiry boundary by now.
func (m *Manager) expired(loginAt, now time.Time) bool {
	if m.loc == nil {
		return now.Sub(loginAt) >= rollingWindow
	}
	return localdate.At(loginAt, m.loc) != localdate.At(now, m.loc)
}

// Save persists the session to both stores and records the save instant
// for the read-skip window. The login time is normalized first so a
// stored record always carries a parseable timestamp. Persistence errors
// are returned: a login that silently fails to stick confuses the user
// far more than a visible error.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess == nil || !sess.Kind.Valid() {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if _, ok := sess.LoginAt(); !ok {
		sess.LoginTime = now.UTC().Format(time.RFC3339)
	}

	data, err := encode(sess)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	if err := m.store.Set(ctx, m.key, data); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	m.verify(ctx, data)

	m.current = sess
	m.lastSaveAt = now
	return nil
}

// primaryReader is implemented by composed stores whose Get falls back
// and mirrors. Verification must read the primary directly: the composed
// read would mask a failed primary write by answering from the fallback.
type primaryReader interface {
	Primary() Store
}

// verify confirms the store now returns the written bytes, reading the
// primary directly when the store exposes one. A mismatch is reported
// through the logger but does not fail the save; the record may still be
// readable from the fallback store.
func (m *Manager) verify(ctx context.Context, want []byte) {
	store := m.store
	if pr, ok := store.(primaryReader); ok {
		store = pr.Primary()
	}
	got, err := store.Get(ctx, m.key)
	if err != nil || !bytes.Equal(got, want) {
		m.log.ErrorContext(ctx, "session write verification failed",
			slog.String("festival_code", m.festivalCode),
			slog.String("key", m.key),
			slog.Any("error", errors.Join(ErrVerifyFailed, err)))
	}
}

// Logout removes the session from both stores and clears all in-memory
// state. Calling it without an active session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	m.lastSaveAt = time.Time{}

	return m.store.Delete(ctx, m.key)
}

// purge removes a corrupt or expired record from both stores. Callers
// hold the mutex.
func (m *Manager) purge(ctx context.Context) {
	m.current = nil
	m.lastSaveAt = time.Time{}
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.log.WarnContext(ctx, "failed to purge session record",
			slog.String("festival_code", m.festivalCode), slog.Any("error", err))
	}
}
