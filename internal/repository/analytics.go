package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsRepo computes ledger summaries with SQL aggregation; the
// dashboard never pages raw rows just to add them up.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// Summary is the festival dashboard headline: totals and balance in
// paise plus contribution counts.
type Summary struct {
	CollectedPaise  int64 `json:"collectedPaise"`
	SpentPaise      int64 `json:"spentPaise"`
	BalancePaise    int64 `json:"balancePaise"`
	CollectionCount int64 `json:"collectionCount"`
	ExpenseCount    int64 `json:"expenseCount"`
}

// AmountBucket is one aggregation bucket keyed by day, payment mode or
// expense category.
type AmountBucket struct {
	Key         string `json:"key"`
	AmountPaise int64  `json:"amountPaise"`
	Count       int64  `json:"count"`
}

func (r *AnalyticsRepo) Summary(ctx context.Context, festivalID string) (*Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount_paise) FROM collections WHERE festival_id = $1), 0),
			COALESCE((SELECT SUM(amount_paise) FROM expenses WHERE festival_id = $1), 0),
			(SELECT COUNT(*) FROM collections WHERE festival_id = $1),
			(SELECT COUNT(*) FROM expenses WHERE festival_id = $1)`,
		festivalID,
	).Scan(&s.CollectedPaise, &s.SpentPaise, &s.CollectionCount, &s.ExpenseCount)
	if err != nil {
		return nil, err
	}
	s.BalancePaise = s.CollectedPaise - s.SpentPaise
	return &s, nil
}

// CollectionsPerDay buckets donations by calendar day in the given zone.
// Day boundaries follow the festival's local midnight, the same boundary
// the session expiry uses.
func (r *AnalyticsRepo) CollectionsPerDay(ctx context.Context, festivalID string, loc *time.Location) ([]AmountBucket, error) {
	return r.buckets(ctx, `
		SELECT to_char(collected_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day,
		       SUM(amount_paise), COUNT(*)
		FROM collections
		WHERE festival_id = $1
		GROUP BY day
		ORDER BY day`,
		festivalID, loc.String())
}

// CollectionsByMode buckets donations by payment mode (cash, UPI, ...).
func (r *AnalyticsRepo) CollectionsByMode(ctx context.Context, festivalID string) ([]AmountBucket, error) {
	return r.buckets(ctx, `
		SELECT mode, SUM(amount_paise), COUNT(*)
		FROM collections
		WHERE festival_id = $1
		GROUP BY mode
		ORDER BY SUM(amount_paise) DESC`,
		festivalID)
}

// ExpensesByCategory buckets expenses by category.
func (r *AnalyticsRepo) ExpensesByCategory(ctx context.Context, festivalID string) ([]AmountBucket, error) {
	return r.buckets(ctx, `
		SELECT category, SUM(amount_paise), COUNT(*)
		FROM expenses
		WHERE festival_id = $1
		GROUP BY category
		ORDER BY SUM(amount_paise) DESC`,
		festivalID)
}

// TopDonors returns the largest contributors by summed amount.
func (r *AnalyticsRepo) TopDonors(ctx context.Context, festivalID string, limit int) ([]AmountBucket, error) {
	return r.buckets(ctx, `
		SELECT donor_name, SUM(amount_paise), COUNT(*)
		FROM collections
		WHERE festival_id = $1
		GROUP BY donor_name
		ORDER BY SUM(amount_paise) DESC
		LIMIT $2`,
		festivalID, limit)
}

func (r *AnalyticsRepo) buckets(ctx context.Context, query string, args ...any) ([]AmountBucket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AmountBucket
	for rows.Next() {
		var b AmountBucket
		if err := rows.Scan(&b.Key, &b.AmountPaise, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
