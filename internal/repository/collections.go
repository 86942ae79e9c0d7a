package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollectionRepo persists donation records.
type CollectionRepo struct {
	pool *pgxpool.Pool
}

func NewCollectionRepo(pool *pgxpool.Pool) *CollectionRepo {
	return &CollectionRepo{pool: pool}
}

// CollectionInput carries the fields an admin submits for a donation.
type CollectionInput struct {
	DonorName   string
	AmountPaise int64
	Mode        string
	Note        string
	CollectedBy string
	CollectedAt time.Time
}

func (r *CollectionRepo) Create(ctx context.Context, festivalID string, in CollectionInput) (*Collection, error) {
	c := &Collection{
		ID:          uuid.NewString(),
		FestivalID:  festivalID,
		DonorName:   in.DonorName,
		AmountPaise: in.AmountPaise,
		Mode:        in.Mode,
		Note:        in.Note,
		CollectedBy: in.CollectedBy,
		CollectedAt: in.CollectedAt,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO collections (id, festival_id, donor_name, amount_paise, mode, note, collected_by, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		c.ID, c.FestivalID, c.DonorName, c.AmountPaise, c.Mode, c.Note, c.CollectedBy, c.CollectedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByFestival returns a festival's collections, newest first.
func (r *CollectionRepo) ListByFestival(ctx context.Context, festivalID string) ([]Collection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, festival_id, donor_name, amount_paise, mode, note, collected_by, collected_at, created_at
		FROM collections
		WHERE festival_id = $1
		ORDER BY collected_at DESC, created_at DESC`,
		festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.FestivalID, &c.DonorName, &c.AmountPaise, &c.Mode,
			&c.Note, &c.CollectedBy, &c.CollectedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CollectionRepo) Update(ctx context.Context, id string, in CollectionInput) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE collections
		SET donor_name = $2, amount_paise = $3, mode = $4, note = $5, collected_at = $6
		WHERE id = $1`,
		id, in.DonorName, in.AmountPaise, in.Mode, in.Note, in.CollectedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CollectionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one collection record.
func (r *CollectionRepo) Get(ctx context.Context, id string) (*Collection, error) {
	var c Collection
	err := r.pool.QueryRow(ctx, `
		SELECT id, festival_id, donor_name, amount_paise, mode, note, collected_by, collected_at, created_at
		FROM collections WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.FestivalID, &c.DonorName, &c.AmountPaise, &c.Mode,
		&c.Note, &c.CollectedBy, &c.CollectedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
