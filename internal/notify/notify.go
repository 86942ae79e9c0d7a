// Package notify sends transactional email to admins when the
// super-admin changes their credentials. Delivery is strictly fail-soft:
// the credential mutation has already committed and a mail outage must
// not roll it back or surface as a request error.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v3"

	"github.com/mandalbook/mandalbook/internal/config"
)

// Notifier emails admins about account changes. A nil Resend client
// (no API key configured) turns every send into a logged no-op.
type Notifier struct {
	client *resend.Client
	from   string
	log    *slog.Logger
}

func New(cfg config.EmailConfig, log *slog.Logger) *Notifier {
	n := &Notifier{from: cfg.FromAddress, log: log}
	if cfg.ResendAPIKey != "" {
		n.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return n
}

// AdminDeactivated tells an admin their access was switched off. Their
// live sessions are already being force-logged-out client-side; the mail
// is the human-facing counterpart.
func (n *Notifier) AdminDeactivated(ctx context.Context, to, adminName, festivalName string) {
	n.send(ctx, to, "Your admin access has been deactivated",
		fmt.Sprintf("Hi %s,\n\nYour admin access for %s has been deactivated by the organizer. If you believe this is a mistake, please contact them directly.\n", adminName, festivalName))
}

// PasswordRotated tells an admin their password was changed, which
// signed them out everywhere.
func (n *Notifier) PasswordRotated(ctx context.Context, to, adminName, festivalName string) {
	n.send(ctx, to, "Your admin password was changed",
		fmt.Sprintf("Hi %s,\n\nYour admin password for %s was changed. All of your active sessions have been signed out. Use the new password to log in again.\n", adminName, festivalName))
}

func (n *Notifier) send(ctx context.Context, to, subject, body string) {
	if n.client == nil || to == "" {
		n.log.DebugContext(ctx, "email disabled, skipping notification",
			slog.String("subject", subject))
		return
	}

	_, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		n.log.ErrorContext(ctx, "failed to send notification email",
			slog.String("subject", subject),
			slog.Any("error", err))
	}
}
