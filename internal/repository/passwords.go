package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// PasswordRepo persists the shared visitor passwords admins hand out.
type PasswordRepo struct {
	pool *pgxpool.Pool
}

func NewPasswordRepo(pool *pgxpool.Pool) *PasswordRepo {
	return &PasswordRepo{pool: pool}
}

// Create inserts a labeled visitor password owned by an admin.
func (r *PasswordRepo) Create(ctx context.Context, festivalID, adminID, label, password string) (*VisitorPassword, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p := &VisitorPassword{
		ID:           uuid.NewString(),
		FestivalID:   festivalID,
		AdminID:      adminID,
		Label:        label,
		PasswordHash: string(hash),
		Active:       true,
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO visitor_passwords (id, festival_id, admin_id, label, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.FestivalID, p.AdminID, p.Label, p.PasswordHash, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return p, nil
}

// ListByAdmin returns an admin's visitor passwords.
func (r *PasswordRepo) ListByAdmin(ctx context.Context, adminID string) ([]VisitorPassword, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, festival_id, admin_id, label, password_hash, is_active, created_at, updated_at
		FROM visitor_passwords
		WHERE admin_id = $1
		ORDER BY label`,
		adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VisitorPassword
	for rows.Next() {
		var p VisitorPassword
		if err := rows.Scan(&p.ID, &p.FestivalID, &p.AdminID, &p.Label, &p.PasswordHash,
			&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// VerifyVisitorLogin matches a plaintext password against every active
// visitor password of the festival. The password space per festival is
// tiny (a handful of labeled groups), so the bcrypt comparison loop stays
// cheap.
func (r *PasswordRepo) VerifyVisitorLogin(ctx context.Context, festivalID, password string) (*VisitorPassword, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, festival_id, admin_id, label, password_hash, is_active, created_at, updated_at
		FROM visitor_passwords
		WHERE festival_id = $1 AND is_active`,
		festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p VisitorPassword
		if err := rows.Scan(&p.ID, &p.FestivalID, &p.AdminID, &p.Label, &p.PasswordHash,
			&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil {
			return &p, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrInvalidCredentials
}

// SetActive deactivates or reinstates a visitor password. Deactivation is
// the server-side trigger for the visitors' delayed logout.
func (r *PasswordRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visitor_passwords SET is_active = $2, updated_at = now()
		WHERE id = $1`,
		id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns one visitor password row.
func (r *PasswordRepo) GetByID(ctx context.Context, id string) (*VisitorPassword, error) {
	var p VisitorPassword
	err := r.pool.QueryRow(ctx, `
		SELECT id, festival_id, admin_id, label, password_hash, is_active, created_at, updated_at
		FROM visitor_passwords WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.FestivalID, &p.AdminID, &p.Label, &p.PasswordHash,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
