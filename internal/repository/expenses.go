package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpenseRepo persists expense records.
type ExpenseRepo struct {
	pool *pgxpool.Pool
}

func NewExpenseRepo(pool *pgxpool.Pool) *ExpenseRepo {
	return &ExpenseRepo{pool: pool}
}

// ExpenseInput carries the fields an admin submits for an expense.
type ExpenseInput struct {
	Description string
	AmountPaise int64
	Category    string
	Note        string
	SpentAt     time.Time
}

func (r *ExpenseRepo) Create(ctx context.Context, festivalID string, in ExpenseInput) (*Expense, error) {
	e := &Expense{
		ID:          uuid.NewString(),
		FestivalID:  festivalID,
		Description: in.Description,
		AmountPaise: in.AmountPaise,
		Category:    in.Category,
		Note:        in.Note,
		SpentAt:     in.SpentAt,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, festival_id, description, amount_paise, category, note, spent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		e.ID, e.FestivalID, e.Description, e.AmountPaise, e.Category, e.Note, e.SpentAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByFestival returns a festival's expenses, newest first.
func (r *ExpenseRepo) ListByFestival(ctx context.Context, festivalID string) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, festival_id, description, amount_paise, category, note, spent_at, created_at
		FROM expenses
		WHERE festival_id = $1
		ORDER BY spent_at DESC, created_at DESC`,
		festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.FestivalID, &e.Description, &e.AmountPaise,
			&e.Category, &e.Note, &e.SpentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ExpenseRepo) Update(ctx context.Context, id string, in ExpenseInput) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses
		SET description = $2, amount_paise = $3, category = $4, note = $5, spent_at = $6
		WHERE id = $1`,
		id, in.Description, in.AmountPaise, in.Category, in.Note, in.SpentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ExpenseRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one expense record.
func (r *ExpenseRepo) Get(ctx context.Context, id string) (*Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `
		SELECT id, festival_id, description, amount_paise, category, note, spent_at, created_at
		FROM expenses WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.FestivalID, &e.Description, &e.AmountPaise,
		&e.Category, &e.Note, &e.SpentAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
