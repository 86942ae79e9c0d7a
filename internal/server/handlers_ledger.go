package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mandalbook/mandalbook/internal/repository"
	"github.com/mandalbook/mandalbook/pkg/sanitizer"
)

type collectionRequest struct {
	DonorName   string    `json:"donorName"`
	AmountPaise int64     `json:"amountPaise"`
	Mode        string    `json:"mode"`
	Note        string    `json:"note,omitempty"`
	CollectedAt time.Time `json:"collectedAt,omitzero"`
}

func (cr *collectionRequest) validate() string {
	switch {
	case cr.DonorName == "":
		return "donorName required"
	case cr.AmountPaise <= 0:
		return "amountPaise must be positive"
	case cr.Mode == "":
		return "mode required"
	default:
		return ""
	}
}

func (cr *collectionRequest) toInput(collectedBy string) repository.CollectionInput {
	collectedAt := cr.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}
	return repository.CollectionInput{
		DonorName:   sanitizer.Text(cr.DonorName),
		AmountPaise: cr.AmountPaise,
		Mode:        cr.Mode,
		Note:        sanitizer.Note(cr.Note),
		CollectedBy: collectedBy,
		CollectedAt: collectedAt,
	}
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	collections, err := s.collections.ListByFestival(r.Context(), sess.FestivalID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"collections": collections})
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := SessionFromContext(r.Context())

	c, err := s.collections.Create(r.Context(), sess.FestivalID, req.toInput(actorName(sess)))
	if err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "collection.create", c.DonorName)
	respondJSON(w, http.StatusCreated, map[string]any{"collection": c})
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "collectionID")

	// Scope the mutation to the session's festival before touching it.
	existing, err := s.collections.Get(r.Context(), id)
	if err != nil || existing.FestivalID != sess.FestivalID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.collections.Update(r.Context(), id, req.toInput(existing.CollectedBy)); err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "collection.update", req.DonorName)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "collectionID")

	existing, err := s.collections.Get(r.Context(), id)
	if err != nil || existing.FestivalID != sess.FestivalID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.collections.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "collection.delete", existing.DonorName)
	w.WriteHeader(http.StatusNoContent)
}

type expenseRequest struct {
	Description string    `json:"description"`
	AmountPaise int64     `json:"amountPaise"`
	Category    string    `json:"category"`
	Note        string    `json:"note,omitempty"`
	SpentAt     time.Time `json:"spentAt,omitzero"`
}

func (er *expenseRequest) validate() string {
	switch {
	case er.Description == "":
		return "description required"
	case er.AmountPaise <= 0:
		return "amountPaise must be positive"
	case er.Category == "":
		return "category required"
	default:
		return ""
	}
}

func (er *expenseRequest) toInput() repository.ExpenseInput {
	spentAt := er.SpentAt
	if spentAt.IsZero() {
		spentAt = time.Now()
	}
	return repository.ExpenseInput{
		Description: sanitizer.Text(er.Description),
		AmountPaise: er.AmountPaise,
		Category:    er.Category,
		Note:        sanitizer.Note(er.Note),
		SpentAt:     spentAt,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	expenses, err := s.expenses.ListByFestival(r.Context(), sess.FestivalID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := SessionFromContext(r.Context())

	e, err := s.expenses.Create(r.Context(), sess.FestivalID, req.toInput())
	if err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "expense.create", e.Description)
	respondJSON(w, http.StatusCreated, map[string]any{"expense": e})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "expenseID")

	existing, err := s.expenses.Get(r.Context(), id)
	if err != nil || existing.FestivalID != sess.FestivalID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.expenses.Update(r.Context(), id, req.toInput()); err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "expense.update", req.Description)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "expenseID")

	existing, err := s.expenses.Get(r.Context(), id)
	if err != nil || existing.FestivalID != sess.FestivalID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.expenses.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "expense.delete", existing.Description)
	w.WriteHeader(http.StatusNoContent)
}
