package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandalbook/mandalbook/pkg/cookie"
	"github.com/mandalbook/mandalbook/pkg/logger"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("master-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	return &Server{
		log:       logger.NewNoop(),
		superHash: string(hash),
		cookies:   cookie.New(),
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("propagates incoming header", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-Id", "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "req-42", seen)
		require.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	})

	t.Run("mints one when absent", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		require.NotEmpty(t, seen)
		require.Equal(t, seen, rec.Header().Get("X-Request-Id"))
	})
}

func TestDeviceIDMiddleware(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	var seen string
	h := s.deviceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceID(r.Context())
	}))

	t.Run("mints cookie on first contact", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		require.NotEmpty(t, seen)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, deviceCookie, cookies[0].Name)
		require.Equal(t, seen, cookies[0].Value)
		require.True(t, cookies[0].HttpOnly)
	})

	t.Run("reuses existing cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: deviceCookie, Value: "known-device"})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "known-device", seen)
		require.Empty(t, rec.Result().Cookies())
	})
}

func TestRequireSuperPassword(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := s.requireSuperPassword(next)

	t.Run("missing header rejected", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/festivals", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/api/festivals", nil)
		req.Header.Set("X-Super-Password", "guess")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct password passes through", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/api/festivals", nil)
		req.Header.Set("X-Super-Password", "master-secret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}
