package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandalbook/mandalbook/pkg/session"
)

// deviceCookie identifies a browser across visits. Session records are
// scoped per device so two browsers on one network never share state.
const deviceCookie = "mb_device"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

// deviceIDMiddleware assigns a stable per-browser identifier via cookie,
// minting one on first contact. A cookie that fails signature
// verification is treated as absent and replaced.
func (s *Server) deviceIDMiddleware(next http.Handler) http.Handler {
	maxAge := int((365 * 24 * time.Hour).Seconds())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := s.cookies.Get(r, deviceCookie)
		if err != nil || deviceID == "" {
			deviceID = uuid.NewString()
			s.cookies.Set(w, deviceCookie, deviceID, maxAge)
		}
		next.ServeHTTP(w, r.WithContext(withDeviceID(r.Context(), deviceID)))
	})
}

// festivalCodeMiddleware lifts the {code} route param into the context
// so handlers and the logger see it uniformly.
func festivalCodeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := chi.URLParam(r, "code"); code != "" {
			r = r.WithContext(withFestivalCode(r.Context(), code))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		s.log.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path))
				respondError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requireSuperPassword guards the festival-creation surface, which has
// no festival to scope a session to. The caller proves itself with the
// super-admin password in a header instead.
func (s *Server) requireSuperPassword(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pass := r.Header.Get("X-Super-Password")
		if pass == "" || bcrypt.CompareHashAndPassword([]byte(s.superHash), []byte(pass)) != nil {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession loads the device's session for the addressed festival
// and rejects requests whose session kind is not in allowed. The loaded
// session rides the context for handlers.
func (s *Server) requireSession(allowed ...session.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			mgr := s.sessions.Manager(DeviceID(ctx), FestivalCode(ctx))
			sess, err := mgr.Load(ctx)
			if err != nil || sess == nil {
				respondError(w, http.StatusUnauthorized, "not logged in")
				return
			}

			permitted := false
			for _, kind := range allowed {
				if sess.Kind == kind {
					permitted = true
					break
				}
			}
			if !permitted {
				respondError(w, http.StatusForbidden, "insufficient role")
				return
			}

			// Keep periodic revalidation alive across hub evictions.
			if sess.Kind != session.KindVisitor {
				s.sessions.StartMonitoring(DeviceID(ctx), FestivalCode(ctx))
			}

			next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
		})
	}
}
