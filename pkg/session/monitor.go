package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// defaultInterval is the revalidation cadence for a mounted
	// admin/super-admin session.
	defaultInterval = 30 * time.Second

	// defaultInitialDelay holds off the first check so it does not fire
	// during the immediate post-login render, when backend state may not
	// be consistent yet.
	defaultInitialDelay = 5 * time.Second
)

// Monitor periodically revalidates a non-visitor session against the
// backend for the lifetime of its mount. Visitor sessions are exempt from
// periodic revalidation and rely solely on daily expiry; that asymmetry
// is load-bearing observed behavior, not an oversight to fix.
//
// A soft revocation surfaces through the warning callback and arms a
// delayed forced-logout timer. Dismissing the warning is cosmetic: the
// timer fires at the original deadline regardless. A hard revocation logs
// out immediately with no warning.
type Monitor struct {
	manager   *Manager
	validator *Validator
	log       *slog.Logger

	interval     time.Duration
	initialDelay time.Duration

	onWarning func(Result)
	onLogout  func(Result)

	mu          sync.Mutex
	busy        bool
	warning     *Result
	logoutTimer *time.Timer
	cancel      context.CancelFunc
	done        chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the revalidation cadence. Default: 30 seconds.
func WithInterval(d time.Duration) MonitorOption {
	return func(mo *Monitor) {
		if d > 0 {
			mo.interval = d
		}
	}
}

// WithInitialDelay sets the delay before the first check. Default: 5 seconds.
func WithInitialDelay(d time.Duration) MonitorOption {
	return func(mo *Monitor) {
		if d >= 0 {
			mo.initialDelay = d
		}
	}
}

// WithOnWarning sets the callback invoked when a soft revocation arms the
// warning banner.
func WithOnWarning(fn func(Result)) MonitorOption {
	return func(mo *Monitor) {
		mo.onWarning = fn
	}
}

// WithOnLogout sets the callback invoked after a forced logout, immediate
// or delayed.
func WithOnLogout(fn func(Result)) MonitorOption {
	return func(mo *Monitor) {
		mo.onLogout = fn
	}
}

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(mo *Monitor) {
		if l != nil {
			mo.log = l
		}
	}
}

// NewMonitor creates a revocation monitor over the manager's session.
func NewMonitor(manager *Manager, validator *Validator, opts ...MonitorOption) *Monitor {
	mo := &Monitor{
		manager:      manager,
		validator:    validator,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval:     defaultInterval,
		initialDelay: defaultInitialDelay,
	}
	for _, opt := range opts {
		opt(mo)
	}
	return mo
}

// Start launches the revalidation loop. It runs until Stop is called or
// ctx is cancelled. Start is a no-op if the monitor is already running.
func (mo *Monitor) Start(ctx context.Context) {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	if mo.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	mo.cancel = cancel
	mo.done = make(chan struct{})

	go mo.run(runCtx)
}

// Stop cancels the loop and any armed timers. It corresponds to the view
// unmounting: orphaned timers must not keep validating a session that is
// no longer displayed. Stop is idempotent and waits for the loop to exit.
func (mo *Monitor) Stop() {
	mo.mu.Lock()
	cancel := mo.cancel
	done := mo.done
	mo.cancel = nil
	if mo.logoutTimer != nil {
		mo.logoutTimer.Stop()
		mo.logoutTimer = nil
	}
	mo.warning = nil
	mo.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Warning returns the active soft-revocation result, or nil when no
// banner should be shown.
func (mo *Monitor) Warning() *Result {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	if mo.warning == nil {
		return nil
	}
	w := *mo.warning
	return &w
}

// DismissWarning hides the banner. The scheduled forced logout still
// fires at its original deadline; dismissal never cancels it.
func (mo *Monitor) DismissWarning() {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	mo.warning = nil
}

// Revalidate runs one validation pass immediately, regardless of session
// kind, and applies the same warning/forced-logout sequencing as the
// periodic loop. Page mounts use it to surface revocations (including
// visitor ones, which the periodic loop never checks) without waiting
// for the next tick. Returns nil when no session is active.
func (mo *Monitor) Revalidate(ctx context.Context) *Result {
	sess, err := mo.manager.Load(ctx)
	if err != nil || sess == nil {
		return nil
	}

	res := mo.validator.Validate(ctx, sess)
	if !res.Valid {
		if res.ShowWarning {
			mo.armDelayedLogout(res)
		} else {
			mo.forceLogout(res)
		}
	}
	return &res
}

func (mo *Monitor) run(ctx context.Context) {
	defer close(mo.done)

	select {
	case <-ctx.Done():
		return
	case <-time.After(mo.initialDelay):
	}
	mo.check(ctx)

	ticker := time.NewTicker(mo.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mo.check(ctx)
		}
	}
}

// check runs one validation pass. A busy flag prevents overlapping passes
// when the backend is slow; a tick that arrives mid-flight is skipped
// rather than queued.
func (mo *Monitor) check(ctx context.Context) {
	mo.mu.Lock()
	if mo.busy {
		mo.mu.Unlock()
		return
	}
	mo.busy = true
	mo.mu.Unlock()

	defer func() {
		mo.mu.Lock()
		mo.busy = false
		mo.mu.Unlock()
	}()

	sess, err := mo.manager.Load(ctx)
	if err != nil || sess == nil {
		return
	}
	if sess.Kind == KindVisitor {
		return
	}
	// Never validate a stale session for a different festival than the
	// one this monitor's context is viewing.
	if sess.FestivalCode != mo.manager.FestivalCode() {
		return
	}

	res := mo.validator.Validate(ctx, sess)
	if res.Valid {
		return
	}

	if res.ShowWarning {
		mo.armDelayedLogout(res)
		return
	}

	mo.forceLogout(res)
}

// armDelayedLogout shows the warning and schedules the forced logout. A
// timer armed by an earlier pass keeps its original deadline.
func (mo *Monitor) armDelayedLogout(res Result) {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	if mo.logoutTimer != nil {
		return
	}

	mo.warning = &res
	if mo.onWarning != nil {
		mo.onWarning(res)
	}
	mo.logoutTimer = time.AfterFunc(res.WarningDuration, func() {
		mo.forceLogout(res)
	})
}

func (mo *Monitor) forceLogout(res Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := mo.manager.Logout(ctx); err != nil {
		mo.log.ErrorContext(ctx, "forced logout failed to clear session",
			slog.String("festival_code", mo.manager.FestivalCode()),
			slog.Any("error", err))
	}

	mo.mu.Lock()
	mo.warning = nil
	if mo.logoutTimer != nil {
		mo.logoutTimer.Stop()
		mo.logoutTimer = nil
	}
	mo.mu.Unlock()

	mo.log.Info("session revoked",
		slog.String("festival_code", mo.manager.FestivalCode()),
		slog.String("reason", string(res.Reason)))

	if mo.onLogout != nil {
		mo.onLogout(res)
	}
}
