package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepo persists the audit trail. Inserts arrive through the
// background job queue so request latency never pays for bookkeeping.
type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Insert(ctx context.Context, festivalID, actor, actorRole, action, detail string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (id, festival_id, actor, actor_role, action, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), festivalID, actor, actorRole, action, detail)
	return err
}

// ListRecent returns the newest entries for a festival.
func (r *ActivityRepo) ListRecent(ctx context.Context, festivalID string, limit int) ([]ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, festival_id, actor, actor_role, action, detail, created_at
		FROM activity_log
		WHERE festival_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		festivalID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.FestivalID, &e.Actor, &e.ActorRole,
			&e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
