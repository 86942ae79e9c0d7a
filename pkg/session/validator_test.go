package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/session"
)

// stubSource is a scriptable CredentialSource.
type stubSource struct {
	admins    map[string]session.AdminStatus
	passwords map[string]session.PasswordStatus // by password ID
	byLabel   map[string]session.PasswordStatus // by festivalID|adminID|label
	err       error

	labelLookups int
	idLookups    int
}

func newStubSource() *stubSource {
	return &stubSource{
		admins:    make(map[string]session.AdminStatus),
		passwords: make(map[string]session.PasswordStatus),
		byLabel:   make(map[string]session.PasswordStatus),
	}
}

func (s *stubSource) AdminStatus(_ context.Context, adminID string) (session.AdminStatus, error) {
	if s.err != nil {
		return session.AdminStatus{}, s.err
	}
	st, ok := s.admins[adminID]
	if !ok {
		return session.AdminStatus{}, session.ErrCredentialNotFound
	}
	return st, nil
}

func (s *stubSource) PasswordStatusByID(_ context.Context, passwordID string) (session.PasswordStatus, error) {
	s.idLookups++
	if s.err != nil {
		return session.PasswordStatus{}, s.err
	}
	st, ok := s.passwords[passwordID]
	if !ok {
		return session.PasswordStatus{}, session.ErrCredentialNotFound
	}
	return st, nil
}

func (s *stubSource) PasswordStatusByLabel(_ context.Context, festivalID, adminID, label string) (session.PasswordStatus, error) {
	s.labelLookups++
	if s.err != nil {
		return session.PasswordStatus{}, s.err
	}
	st, ok := s.byLabel[festivalID+"|"+adminID+"|"+label]
	if !ok {
		return session.PasswordStatus{}, session.ErrCredentialNotFound
	}
	return st, nil
}

func adminSession() *session.Session {
	return &session.Session{
		Kind:         session.KindAdmin,
		FestivalID:   "fest-1",
		FestivalCode: "GANESH24",
		AdminID:      "admin-1",
		AdminCode:    "A01",
		AdminName:    "Ramesh",
		LoginTime:    time.Now().UTC().Format(time.RFC3339),
		SessionID:    "sess-a",
	}
}

func TestValidator_SuperAdminAlwaysValid(t *testing.T) {
	t.Parallel()

	v := session.NewValidator(newStubSource())

	res := v.Validate(context.Background(), &session.Session{
		Kind:         session.KindSuperAdmin,
		FestivalID:   "fest-1",
		FestivalCode: "GANESH24",
		SessionID:    "sess-s",
	})
	require.True(t, res.Valid)
}

func TestValidator_Admin(t *testing.T) {
	t.Parallel()

	t.Run("active admin is valid", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.admins["admin-1"] = session.AdminStatus{Active: true}
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), adminSession())
		require.True(t, res.Valid)
	})

	t.Run("deactivated admin is a hard revocation", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.admins["admin-1"] = session.AdminStatus{Active: false}
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), adminSession())
		require.False(t, res.Valid)
		require.Equal(t, session.ReasonAdminDeactivated, res.Reason)
		require.False(t, res.ShowWarning, "admin deactivation must take effect without delay")
	})

	t.Run("missing admin row is a hard revocation", func(t *testing.T) {
		t.Parallel()

		v := session.NewValidator(newStubSource())

		res := v.Validate(context.Background(), adminSession())
		require.False(t, res.Valid)
		require.Equal(t, session.ReasonAdminDeactivated, res.Reason)
		require.False(t, res.ShowWarning)
	})

	t.Run("lookup error fails open", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.err = errors.New("backend unreachable")
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), adminSession())
		require.True(t, res.Valid, "a transient backend error must not lock out a legitimate user")
	})
}

func TestValidator_Visitor(t *testing.T) {
	t.Parallel()

	loginAt := time.Now().Add(-time.Hour)

	t.Run("active password under active admin is valid", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.passwords["pw-1"] = session.PasswordStatus{AdminID: "admin-1", Active: true, UpdatedAt: loginAt.Add(-time.Hour)}
		src.admins["admin-1"] = session.AdminStatus{Active: true}
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), visitorAt(loginAt))
		require.True(t, res.Valid)
		require.Equal(t, 1, src.idLookups)
		require.Zero(t, src.labelLookups, "password ID lookup must be preferred")
	})

	t.Run("deactivated password is a soft revocation", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.passwords["pw-1"] = session.PasswordStatus{AdminID: "admin-1", Active: false}
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), visitorAt(loginAt))
		require.False(t, res.Valid)
		require.Equal(t, session.ReasonPasswordDeactivated, res.Reason)
		require.True(t, res.ShowWarning)
		require.Equal(t, 5*time.Minute, res.WarningDuration)
		require.NotEmpty(t, res.Message)
	})

	t.Run("missing password row is a soft revocation", func(t *testing.T) {
		t.Parallel()

		v := session.NewValidator(newStubSource())

		res := v.Validate(context.Background(), visitorAt(loginAt))
		require.False(t, res.Valid)
		require.Equal(t, session.ReasonPasswordDeactivated, res.Reason)
		require.True(t, res.ShowWarning)
	})

	t.Run("rotated password is a hard revocation", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.passwords["pw-1"] = session.PasswordStatus{
			AdminID:   "admin-1",
			Active:    true,
			UpdatedAt: loginAt.Add(30 * time.Minute), // changed after login
		}
		src.admins["admin-1"] = session.AdminStatus{Active: true}
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), visitorAt(loginAt))
		require.False(t, res.Valid)
		require.Equal(t, session.ReasonPasswordDeactivated, res.Reason)
		require.False(t, res.ShowWarning, "a changed password must invalidate old sessions immediately")
	})

	t.Run("owning admin inactive is a soft revocation", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.passwords["pw-1"] = session.PasswordStatus{AdminID: "admin-1", Active: true, UpdatedAt: loginAt.Add(-time.Hour)}
		src.admins["admin-1"] = session.AdminStatus{Active: false}
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), visitorAt(loginAt))
		require.False(t, res.Valid)
		require.Equal(t, session.ReasonAdminDeactivated, res.Reason)
		require.True(t, res.ShowWarning)
		require.Equal(t, 5*time.Minute, res.WarningDuration)
	})

	t.Run("legacy session without password ID uses label lookup", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.byLabel["fest-1|admin-1|building-a"] = session.PasswordStatus{AdminID: "admin-1", Active: true, UpdatedAt: loginAt.Add(-time.Hour)}
		src.admins["admin-1"] = session.AdminStatus{Active: true}
		v := session.NewValidator(src)

		legacy := visitorAt(loginAt)
		legacy.PasswordID = ""

		res := v.Validate(context.Background(), legacy)
		require.True(t, res.Valid)
		require.Zero(t, src.idLookups)
		require.Equal(t, 1, src.labelLookups)
	})

	t.Run("lookup error fails open", func(t *testing.T) {
		t.Parallel()

		src := newStubSource()
		src.err = errors.New("backend unreachable")
		v := session.NewValidator(src)

		res := v.Validate(context.Background(), visitorAt(loginAt))
		require.True(t, res.Valid)
	})
}
