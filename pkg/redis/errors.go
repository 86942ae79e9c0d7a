package redis

import "errors"

// Sentinels for connection setup and probing. Open and Healthcheck join
// the driver's error alongside, so callers branch with errors.Is and
// still see the underlying cause in logs.
var (
	// ErrEmptyConnectionURL rejects a blank REDIS_URL before the driver
	// gets a chance to misinterpret it.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")

	// ErrFailedToParseURL covers URLs with the wrong scheme or shape.
	ErrFailedToParseURL = errors.New("redis: failed to parse connection URL")

	// ErrConnectionFailed is returned when the retry budget is exhausted
	// without a successful ping. Startup treats it as fatal: without the
	// fallback store, a process restart would drop every session.
	ErrConnectionFailed = errors.New("redis: failed to establish connection")

	// ErrHealthcheckFailed marks the readiness probe's redis check.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
