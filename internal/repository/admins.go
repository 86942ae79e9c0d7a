package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// AdminRepo persists committee admins.
type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

// Create inserts an admin with a bcrypt-hashed password. The code is the
// short login handle shown on the festival's access card; email is
// optional and only used for credential-change notifications.
func (r *AdminRepo) Create(ctx context.Context, festivalID, code, name, email, password string) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	a := &Admin{
		ID:           uuid.NewString(),
		FestivalID:   festivalID,
		Code:         strings.ToUpper(strings.TrimSpace(code)),
		Name:         name,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Active:       true,
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, festival_id, code, name, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		a.ID, a.FestivalID, a.Code, a.Name, a.Email, a.PasswordHash, a.Active,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return a, nil
}

const adminColumns = `id, festival_id, code, name, email, password_hash, is_active, created_at, updated_at`

// GetByID returns one admin.
func (r *AdminRepo) GetByID(ctx context.Context, id string) (*Admin, error) {
	return r.scanOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

// ListByFestival returns a festival's admins ordered by code.
func (r *AdminRepo) ListByFestival(ctx context.Context, festivalID string) ([]Admin, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE festival_id = $1
		ORDER BY code`,
		festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.ID, &a.FestivalID, &a.Code, &a.Name, &a.Email,
			&a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// VerifyLogin checks an admin code+password pair for a festival. A wrong
// code and a wrong password are indistinguishable to the caller.
func (r *AdminRepo) VerifyLogin(ctx context.Context, festivalID, code, password string) (*Admin, error) {
	a, err := r.scanOne(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE festival_id = $1 AND code = $2 AND is_active`,
		festivalID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// SetActive deactivates or reinstates an admin. Deactivation is the
// server-side trigger for hard revocation of that admin's live sessions.
func (r *AdminRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE admins SET is_active = $2, updated_at = now()
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

// RotatePassword replaces the admin's password. The updated_at bump is
// what invalidates sessions created under the old password.
func (r *AdminRepo) RotatePassword(ctx context.Context, id, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE admins SET password_hash = $2, updated_at = now()
		WHERE id = $1`,
		id, string(hash))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AdminRepo) scanOne(ctx context.Context, query string, args ...any) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.FestivalID, &a.Code, &a.Name, &a.Email,
		&a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
