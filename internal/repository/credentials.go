package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandalbook/mandalbook/pkg/session"
)

// Credentials implements session.CredentialSource on top of the admins
// and visitor_passwords tables. The credential rows are the only source
// of revocation truth; there is no session table to consult.
type Credentials struct {
	pool *pgxpool.Pool
}

func NewCredentials(pool *pgxpool.Pool) *Credentials {
	return &Credentials{pool: pool}
}

var _ session.CredentialSource = (*Credentials)(nil)

func (c *Credentials) AdminStatus(ctx context.Context, adminID string) (session.AdminStatus, error) {
	var st session.AdminStatus
	err := c.pool.QueryRow(ctx, `
		SELECT is_active, updated_at FROM admins WHERE id = $1`,
		adminID,
	).Scan(&st.Active, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.AdminStatus{}, session.ErrCredentialNotFound
		}
		return session.AdminStatus{}, err
	}
	return st, nil
}

func (c *Credentials) PasswordStatusByID(ctx context.Context, passwordID string) (session.PasswordStatus, error) {
	var st session.PasswordStatus
	err := c.pool.QueryRow(ctx, `
		SELECT admin_id, is_active, updated_at FROM visitor_passwords WHERE id = $1`,
		passwordID,
	).Scan(&st.AdminID, &st.Active, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.PasswordStatus{}, session.ErrCredentialNotFound
		}
		return session.PasswordStatus{}, err
	}
	return st, nil
}

// PasswordStatusByLabel serves sessions from before password rows had
// stable IDs, which identify the credential by its owning admin and
// label.
func (c *Credentials) PasswordStatusByLabel(ctx context.Context, festivalID, adminID, label string) (session.PasswordStatus, error) {
	var st session.PasswordStatus
	err := c.pool.QueryRow(ctx, `
		SELECT admin_id, is_active, updated_at FROM visitor_passwords
		WHERE festival_id = $1 AND admin_id = $2 AND label = $3`,
		festivalID, adminID, label,
	).Scan(&st.AdminID, &st.Active, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.PasswordStatus{}, session.ErrCredentialNotFound
		}
		return session.PasswordStatus{}, err
	}
	return st, nil
}
