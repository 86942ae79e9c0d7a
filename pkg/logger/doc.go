// Package logger builds the application's slog loggers.
//
// Every service component logs through a handler chain assembled here:
// a stdout handler (JSON in deployments, text locally), an optional Sentry
// handler for warn/error records, and a context decorator that stamps each
// record with request-scoped attributes like the request ID, festival code
// and device ID.
//
// Handlers are assembled once at startup:
//
//	log := logger.NewWithSentry(cfg.Log, cfg.Sentry,
//	    server.RequestIDExtractor,
//	    server.FestivalCodeExtractor,
//	    server.DeviceIDExtractor,
//	)
//
// Packages that take a *slog.Logger default to NewNoop so logging never
// becomes a hard dependency in tests.
package logger
