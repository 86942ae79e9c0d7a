package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound = errors.New("cookie: not found")
	ErrBadSig   = errors.New("cookie: invalid signature")
)

// Manager writes and reads cookies with shared attribute defaults. With
// a secret configured, values are HMAC-signed so a tampered cookie reads
// as absent rather than as someone else's identity.
type Manager struct {
	secret   []byte
	secure   bool
	sameSite http.SameSite
}

// Option configures the Manager.
type Option func(*Manager)

// WithSecret enables signing. Secrets shorter than 32 bytes are ignored.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if len(secret) >= 32 {
			m.secret = []byte(secret)
		}
	}
}

// WithSecure marks cookies Secure. Enable behind TLS.
func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// New creates a cookie Manager. Cookies default to HttpOnly, SameSite
// Lax and path "/".
func New(opts ...Option) *Manager {
	m := &Manager{sameSite: http.SameSiteLaxMode}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set writes a cookie, signing the value when a secret is configured.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	if m.secret != nil {
		value = m.sign(value)
	}
	http.SetCookie(w, m.cookie(name, value, maxAge))
}

// Get reads a cookie, verifying the signature when a secret is
// configured. A missing cookie returns ErrNotFound; a cookie whose
// signature does not verify returns ErrBadSig.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	if m.secret == nil {
		return c.Value, nil
	}
	return m.verify(c.Value)
}

// Delete removes a cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

// sign encodes value as base64(value).base64(hmac-sha256(value)).
func (m *Manager) sign(value string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString([]byte(value)) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(raw string) (string, error) {
	encValue, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}

	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", ErrBadSig
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(value)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	}
}
