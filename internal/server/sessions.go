package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mandalbook/mandalbook/internal/config"
	"github.com/mandalbook/mandalbook/pkg/cache"
	"github.com/mandalbook/mandalbook/pkg/localdate"
	"github.com/mandalbook/mandalbook/pkg/session"
)

const (
	// hubSweepInterval is how often the janitor looks for idle entries.
	hubSweepInterval = 10 * time.Minute

	// hubIdleTTL is how long an entry may go untouched before eviction.
	// Session records outlive the entry in the stores, so an evicted
	// device that returns gets a fresh entry with its session intact.
	hubIdleTTL = time.Hour
)

// SessionHub hands out one session.Manager per device+festival pair and
// supervises the non-visitor ones with a revocation Monitor. Managers
// share a process-local primary cache and a Redis fallback, both scoped
// per device through key prefixes.
//
// Entries are created on demand by any request carrying a device cookie,
// so most of them belong to clients that never log in. Monitors
// therefore start only when a non-visitor session is confirmed, and a
// janitor evicts entries nobody has touched for hubIdleTTL.
type SessionHub struct {
	memory    cache.Cache[[]byte]
	redisC    cache.Cache[[]byte]
	validator *session.Validator
	cfg       config.SessionConfig
	log       *slog.Logger

	// OnForcedLogout, when set, observes every monitor-driven forced
	// logout. Set it before the first request; it feeds the audit trail.
	OnForcedLogout func(festivalCode string, res session.Result)

	mu      sync.Mutex
	entries map[string]*hubEntry
	closed  bool
	done    chan struct{}
}

type hubEntry struct {
	manager  *session.Manager
	monitor  *session.Monitor
	lastSeen time.Time
}

// NewSessionHub builds the hub over the shared Redis client and a fresh
// in-process cache.
func NewSessionHub(rdb goredis.UniversalClient, source session.CredentialSource, cfg config.SessionConfig, log *slog.Logger) *SessionHub {
	h := &SessionHub{
		memory:    cache.NewMemory[[]byte](),
		redisC:    cache.NewRedis[[]byte](rdb, cache.RawBytes{}),
		validator: session.NewValidator(source, session.WithValidatorLogger(log)),
		cfg:       cfg,
		log:       log,
		entries:   make(map[string]*hubEntry),
		done:      make(chan struct{}),
	}
	go h.janitor(hubSweepInterval)
	return h
}

// Manager returns the session manager for one device viewing one
// festival, creating the entry on first use.
func (h *SessionHub) Manager(deviceID, festivalCode string) *session.Manager {
	return h.entry(deviceID, festivalCode).manager
}

// Monitor returns the revocation monitor paired with the manager for the
// device+festival. The monitor is idle until StartMonitoring; its
// on-demand Revalidate works either way.
func (h *SessionHub) Monitor(deviceID, festivalCode string) *session.Monitor {
	return h.entry(deviceID, festivalCode).monitor
}

// StartMonitoring launches the periodic revalidation loop for a
// device+festival known to hold a non-visitor session. Idempotent:
// a monitor that is already running is left alone, so callers invoke it
// on every authenticated request to revive monitors the janitor evicted.
func (h *SessionHub) StartMonitoring(deviceID, festivalCode string) {
	h.entry(deviceID, festivalCode).monitor.Start(context.Background())
}

func (h *SessionHub) entry(deviceID, festivalCode string) *hubEntry {
	key := deviceID + ":" + festivalCode

	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.entries[key]; ok {
		e.lastSeen = time.Now()
		return e
	}

	store := session.NewResilient(
		session.NewCacheStore(h.memory, "device:"+deviceID),
		session.NewCacheStore(h.redisC, "device:"+deviceID),
		session.WithResilientLogger(h.log),
	)

	mgr := session.NewManager(store, festivalCode,
		session.WithLogger(h.log),
		session.WithLocation(localdate.IST()),
	)

	mon := session.NewMonitor(mgr, h.validator,
		session.WithInterval(h.cfg.CheckInterval),
		session.WithInitialDelay(h.cfg.InitialDelay),
		session.WithMonitorLogger(h.log),
		session.WithOnLogout(func(res session.Result) {
			if h.OnForcedLogout != nil {
				h.OnForcedLogout(festivalCode, res)
			}
		}),
	)

	e := &hubEntry{manager: mgr, monitor: mon, lastSeen: time.Now()}
	h.entries[key] = e
	return e
}

// Release stops the monitor for a device+festival and forgets the entry.
// Called after logout; the next login builds a fresh pair.
func (h *SessionHub) Release(deviceID, festivalCode string) {
	key := deviceID + ":" + festivalCode

	h.mu.Lock()
	e, ok := h.entries[key]
	delete(h.entries, key)
	h.mu.Unlock()

	if ok {
		e.monitor.Stop()
	}
}

// Close stops the janitor, every monitor and the in-process cache.
// Suitable as a shutdown hook. Close is idempotent.
func (h *SessionHub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.done)
	entries := h.entries
	h.entries = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, e := range entries {
		e.monitor.Stop()
	}
	return h.memory.Close()
}

func (h *SessionHub) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			h.evictIdle(now.Add(-hubIdleTTL))
		}
	}
}

// evictIdle removes entries untouched since before cutoff, stopping
// their monitors. A monitor evicted under an active admin restarts on
// that admin's next request via StartMonitoring.
func (h *SessionHub) evictIdle(cutoff time.Time) {
	h.mu.Lock()
	var idle []*hubEntry
	for key, e := range h.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(h.entries, key)
		}
	}
	h.mu.Unlock()

	for _, e := range idle {
		e.monitor.Stop()
	}
	if len(idle) > 0 {
		h.log.Debug("evicted idle session entries", slog.Int("count", len(idle)))
	}
}

// size reports the live entry count.
func (h *SessionHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
