// Package health serves liveness and readiness probes. Readiness runs
// the named dependency checks (postgres, redis) in parallel under one
// timeout and reports per-check status.
package health

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the healthcheck closures exposed by the db and
// redis packages.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its check.
type Checks map[string]CheckFunc

// Response is the aggregated probe result.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is one dependency's status.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures probe behavior.
type Option func(*config)

// WithTimeout bounds the whole readiness pass. Default: 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed-check reporting.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func runChecks(ctx context.Context, checks Checks, cfg *config) *Response {
	if len(checks) == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make(map[string]Check, len(checks))
		hasError bool
	)

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := Check{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()))
			}

			mu.Lock()
			if result.Status == StatusUnhealthy {
				hasError = true
			}
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusHealthy
	if hasError {
		status = StatusUnhealthy
	}
	return &Response{Status: status, Checks: results}
}
