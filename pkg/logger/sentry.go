package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds error reporting configuration. An empty DSN disables
// Sentry entirely, which is the expected state in local development.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

// NewWithSentry creates a logger that writes to stdout and forwards warn
// and error records to Sentry. Error records additionally open Sentry
// issues. Sentry init failures degrade to stdout-only logging rather than
// blocking startup.
func NewWithSentry(cfg Config, sc SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	base := newBaseHandler(cfg)

	if sc.DSN == "" {
		return slog.New(NewContextHandler(base, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         sc.DSN,
		Environment: sc.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(base).Error("sentry init failed, continuing with stdout only",
			slog.String("error", err.Error()))
		return slog.New(NewContextHandler(base, extractors...))
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(NewContextHandler(newMultiHandler(base, sentryHandler), extractors...))
}
