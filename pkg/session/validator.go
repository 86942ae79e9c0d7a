package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Reason identifies why a session was revoked.
type Reason string

const (
	ReasonAdminDeactivated    Reason = "admin_deactivated"
	ReasonPasswordDeactivated Reason = "password_deactivated"
)

// WarningDuration is the grace window granted before a soft revocation
// forces logout.
const WarningDuration = 5 * time.Minute

// Result is the outcome of one revocation check. A soft revocation sets
// ShowWarning with a countdown duration; a hard revocation leaves
// ShowWarning unset and must take effect immediately.
type Result struct {
	Valid           bool
	Reason          Reason
	Message         string
	ShowWarning     bool
	WarningDuration time.Duration
}

// AdminStatus is the credential state of an admin account.
type AdminStatus struct {
	Active    bool
	UpdatedAt time.Time
}

// PasswordStatus is the credential state of a visitor password row,
// including the admin who owns it.
type PasswordStatus struct {
	AdminID   string
	Active    bool
	UpdatedAt time.Time
}

// CredentialSource answers whether the credential behind a session is
// still honorable. The backend credential tables are the single source of
// truth for revocation; there is no server-side session table.
//
// Lookups return ErrCredentialNotFound when the row definitively does not
// exist. Any other error is treated as transient by the validator.
type CredentialSource interface {
	AdminStatus(ctx context.Context, adminID string) (AdminStatus, error)
	PasswordStatusByID(ctx context.Context, passwordID string) (PasswordStatus, error)
	PasswordStatusByLabel(ctx context.Context, festivalID, adminID, label string) (PasswordStatus, error)
}

// Validator checks whether a live session's underlying credential has
// been deactivated or rotated since login.
//
// The immediate-vs-delayed policy is a table to reproduce, not re-derive:
// admin deactivation and password rotation are hard (a changed credential
// must not be honored for another second), while deactivating a visitor
// password or its owning admin is soft (the visitor gets a courtesy
// window before forced logout).
type Validator struct {
	source       CredentialSource
	log          *slog.Logger
	warnDuration time.Duration
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the validator's logger.
func WithValidatorLogger(l *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// WithWarningDuration overrides the soft-revocation grace window.
// Intended for tests; production keeps the 5-minute default.
func WithWarningDuration(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.warnDuration = d
		}
	}
}

// NewValidator creates a revocation validator over the given source.
func NewValidator(source CredentialSource, opts ...ValidatorOption) *Validator {
	v := &Validator{
		source:       source,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		warnDuration: WarningDuration,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the session's underlying credential. Unexpected lookup
// errors fail open: a transient backend error must never lock out a
// legitimate user, so the cost of briefly missing a revocation is
// accepted over spurious logouts.
func (v *Validator) Validate(ctx context.Context, sess *Session) Result {
	switch sess.Kind {
	case KindSuperAdmin:
		// There is no deactivation mechanism for the super-admin
		// identity itself.
		return Result{Valid: true}

	case KindAdmin:
		return v.validateAdmin(ctx, sess)

	case KindVisitor:
		return v.validateVisitor(ctx, sess)

	default:
		// Unreachable through Manager.Load, which purges unknown kinds.
		v.log.WarnContext(ctx, "validate called with unknown session kind",
			slog.String("kind", string(sess.Kind)))
		return Result{Valid: true}
	}
}

func (v *Validator) validateAdmin(ctx context.Context, sess *Session) Result {
	status, err := v.source.AdminStatus(ctx, sess.AdminID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return hardRevocation(ReasonAdminDeactivated, "Your admin account has been removed.")
		}
		return v.failOpen(ctx, sess, err)
	}
	if !status.Active {
		// Admin deactivation is security-sensitive: no warning, no delay.
		return hardRevocation(ReasonAdminDeactivated, "Your admin access has been deactivated.")
	}
	return Result{Valid: true}
}

func (v *Validator) validateVisitor(ctx context.Context, sess *Session) Result {
	status, err := v.lookupPassword(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return v.softRevocation(ReasonPasswordDeactivated, "Your access password has been deactivated. You will be logged out shortly.")
		}
		return v.failOpen(ctx, sess, err)
	}

	if !status.Active {
		return v.softRevocation(ReasonPasswordDeactivated, "Your access password has been deactivated. You will be logged out shortly.")
	}

	// A rotated password invalidates every session created under the old
	// value immediately; honoring it any longer would be a security hole.
	if loginAt, ok := sess.LoginAt(); ok && status.UpdatedAt.After(loginAt) {
		return hardRevocation(ReasonPasswordDeactivated, "Your access password has changed.")
	}

	adminID := status.AdminID
	if adminID == "" {
		adminID = sess.AdminID
	}
	adminStatus, err := v.source.AdminStatus(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return v.softRevocation(ReasonAdminDeactivated, "The admin who granted your access is no longer active. You will be logged out shortly.")
		}
		return v.failOpen(ctx, sess, err)
	}
	if !adminStatus.Active {
		return v.softRevocation(ReasonAdminDeactivated, "The admin who granted your access is no longer active. You will be logged out shortly.")
	}

	return Result{Valid: true}
}

// lookupPassword prefers the stable password ID; sessions created before
// password IDs existed carry only the festival+admin+label tuple.
func (v *Validator) lookupPassword(ctx context.Context, sess *Session) (PasswordStatus, error) {
	if sess.PasswordID != "" {
		return v.source.PasswordStatusByID(ctx, sess.PasswordID)
	}
	return v.source.PasswordStatusByLabel(ctx, sess.FestivalID, sess.AdminID, sess.PasswordLabel)
}

func (v *Validator) failOpen(ctx context.Context, sess *Session, err error) Result {
	v.log.WarnContext(ctx, "credential lookup failed, keeping session valid",
		slog.String("kind", string(sess.Kind)),
		slog.String("festival_code", sess.FestivalCode),
		slog.Any("error", err))
	return Result{Valid: true}
}

func hardRevocation(reason Reason, message string) Result {
	return Result{Reason: reason, Message: message}
}

func (v *Validator) softRevocation(reason Reason, message string) Result {
	return Result{
		Reason:          reason,
		Message:         message,
		ShowWarning:     true,
		WarningDuration: v.warnDuration,
	}
}
