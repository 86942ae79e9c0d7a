package logger

import (
	"io"
	"log/slog"
	"os"
)

// Config holds logging configuration populated from the environment.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format selects the output encoding: json for deployments, text for
	// local development.
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// New creates a logger writing to stdout. Context extractors run on every
// record and attach request-scoped attributes such as the festival code or
// device ID carried in the request context.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewContextHandler(newBaseHandler(cfg), extractors...))
}

// NewNoop creates a logger that discards everything. Packages accept it as
// the default so logging stays opt-in.
func NewNoop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBaseHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
