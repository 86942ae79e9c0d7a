package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MediaRepo persists gallery rows; the bytes themselves live in object
// storage under StorageKey.
type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

func (r *MediaRepo) Insert(ctx context.Context, festivalID, storageKey, url, contentType, caption, uploadedBy string) (*MediaItem, error) {
	m := &MediaItem{
		ID:          uuid.NewString(),
		FestivalID:  festivalID,
		StorageKey:  storageKey,
		URL:         url,
		ContentType: contentType,
		Caption:     caption,
		UploadedBy:  uploadedBy,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO media_items (id, festival_id, storage_key, url, content_type, caption, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		m.ID, m.FestivalID, m.StorageKey, m.URL, m.ContentType, m.Caption, m.UploadedBy,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByFestival returns gallery items newest first.
func (r *MediaRepo) ListByFestival(ctx context.Context, festivalID string) ([]MediaItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, festival_id, storage_key, url, content_type, caption, uploaded_by, created_at
		FROM media_items
		WHERE festival_id = $1
		ORDER BY created_at DESC`,
		festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MediaItem
	for rows.Next() {
		var m MediaItem
		if err := rows.Scan(&m.ID, &m.FestivalID, &m.StorageKey, &m.URL,
			&m.ContentType, &m.Caption, &m.UploadedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns one media row.
func (r *MediaRepo) Get(ctx context.Context, id string) (*MediaItem, error) {
	var m MediaItem
	err := r.pool.QueryRow(ctx, `
		SELECT id, festival_id, storage_key, url, content_type, caption, uploaded_by, created_at
		FROM media_items WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.FestivalID, &m.StorageKey, &m.URL,
		&m.ContentType, &m.Caption, &m.UploadedBy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MediaRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
