package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mandalbook/mandalbook/internal/repository"
	"github.com/mandalbook/mandalbook/pkg/cache"
)

// inr formats paise with Indian digit grouping (1,23,456.50).
var inr = message.NewPrinter(language.MustParse("en-IN"))

func formatINR(paise int64) string {
	return inr.Sprintf("₹%v", number.Decimal(float64(paise)/100,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

type analyticsResponse struct {
	Summary        *repository.Summary       `json:"summary"`
	SummaryDisplay map[string]string         `json:"summaryDisplay"`
	PerDay         []repository.AmountBucket `json:"perDay"`
	ByMode         []repository.AmountBucket `json:"byMode"`
	ByCategory     []repository.AmountBucket `json:"byCategory"`
	TopDonors      []repository.AmountBucket `json:"topDonors"`
}

// handleAnalytics serves the dashboard summary. Results are memoized for
// a short window; every role sees the same numbers, so the cache is
// keyed per festival only.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	resp, err := cache.GetOrSet(r.Context(), s.analyticsCache, sess.FestivalID,
		func(ctx context.Context) (*analyticsResponse, time.Duration, error) {
			return s.buildAnalytics(ctx, sess.FestivalID)
		})
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) buildAnalytics(ctx context.Context, festivalID string) (*analyticsResponse, time.Duration, error) {
	summary, err := s.analytics.Summary(ctx, festivalID)
	if err != nil {
		return nil, 0, err
	}

	perDay, err := s.analytics.CollectionsPerDay(ctx, festivalID, s.ist)
	if err != nil {
		return nil, 0, err
	}

	byMode, err := s.analytics.CollectionsByMode(ctx, festivalID)
	if err != nil {
		return nil, 0, err
	}

	byCategory, err := s.analytics.ExpensesByCategory(ctx, festivalID)
	if err != nil {
		return nil, 0, err
	}

	topDonors, err := s.analytics.TopDonors(ctx, festivalID, 10)
	if err != nil {
		return nil, 0, err
	}

	resp := &analyticsResponse{
		Summary: summary,
		SummaryDisplay: map[string]string{
			"collected": formatINR(summary.CollectedPaise),
			"spent":     formatINR(summary.SpentPaise),
			"balance":   formatINR(summary.BalancePaise),
		},
		PerDay:     perDay,
		ByMode:     byMode,
		ByCategory: byCategory,
		TopDonors:  topDonors,
	}
	return resp, 30 * time.Second, nil
}
