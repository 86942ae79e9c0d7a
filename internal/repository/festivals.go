package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FestivalRepo persists festivals.
type FestivalRepo struct {
	pool *pgxpool.Pool
}

func NewFestivalRepo(pool *pgxpool.Pool) *FestivalRepo {
	return &FestivalRepo{pool: pool}
}

// Create inserts a festival. Codes are normalized to upper case so
// "ganesh24" and "GANESH24" address the same festival.
func (r *FestivalRepo) Create(ctx context.Context, code, name string, year int) (*Festival, error) {
	f := &Festival{
		ID:     uuid.NewString(),
		Code:   strings.ToUpper(strings.TrimSpace(code)),
		Name:   name,
		Year:   year,
		Active: true,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO festivals (id, code, name, year, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		f.ID, f.Code, f.Name, f.Year, f.Active,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return f, nil
}

// GetByCode returns the festival addressed by its public code.
func (r *FestivalRepo) GetByCode(ctx context.Context, code string) (*Festival, error) {
	var f Festival
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, name, year, active, created_at, updated_at
		FROM festivals
		WHERE code = $1`,
		strings.ToUpper(strings.TrimSpace(code)),
	).Scan(&f.ID, &f.Code, &f.Name, &f.Year, &f.Active, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// List returns festivals newest first.
func (r *FestivalRepo) List(ctx context.Context) ([]Festival, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, year, active, created_at, updated_at
		FROM festivals
		ORDER BY year DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Festival
	for rows.Next() {
		var f Festival
		if err := rows.Scan(&f.ID, &f.Code, &f.Name, &f.Year, &f.Active, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update changes the festival's display name and year.
func (r *FestivalRepo) Update(ctx context.Context, id, name string, year int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE festivals SET name = $2, year = $3, updated_at = now()
		WHERE id = $1`,
		id, name, year)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive opens or closes a festival for logins.
func (r *FestivalRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE festivals SET active = $2, updated_at = now()
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
