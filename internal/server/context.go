package server

import (
	"context"
	"log/slog"

	"github.com/mandalbook/mandalbook/pkg/session"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	deviceIDKey
	festivalCodeKey
	sessionKey
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request's correlation ID, if set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceIDKey, id)
}

// DeviceID returns the browser-scoped device identifier, if set.
func DeviceID(ctx context.Context) string {
	id, _ := ctx.Value(deviceIDKey).(string)
	return id
}

func withFestivalCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, festivalCodeKey, code)
}

// FestivalCode returns the festival code the request addresses, if any.
func FestivalCode(ctx context.Context) string {
	code, _ := ctx.Value(festivalCodeKey).(string)
	return code
}

func withSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the authenticated session placed by the
// auth middleware, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// Extractors feed the logger's context decorator so every record carries
// the request's correlation attributes.

func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := RequestID(ctx); id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}

func DeviceIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := DeviceID(ctx); id != "" {
		return slog.String("device_id", id), true
	}
	return slog.Attr{}, false
}

func FestivalCodeExtractor(ctx context.Context) (slog.Attr, bool) {
	if code := FestivalCode(ctx); code != "" {
		return slog.String("festival_code", code), true
	}
	return slog.Attr{}, false
}
