package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mandalbook/mandalbook/internal/media"
	"github.com/mandalbook/mandalbook/internal/repository"
	"github.com/mandalbook/mandalbook/pkg/session"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondRepoError maps data-layer sentinels onto HTTP statuses. Unknown
// errors become opaque 500s; details stay in the logs.
func respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, repository.ErrDuplicateCode):
		respondError(w, http.StatusConflict, "code already in use")
	case errors.Is(err, session.ErrSaveFailed):
		respondError(w, http.StatusServiceUnavailable, "session could not be saved")
	case errors.Is(err, media.ErrFileTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, media.ErrUnsupportedType):
		respondError(w, http.StatusUnsupportedMediaType, "file type not allowed")
	case errors.Is(err, media.ErrEmptyFile):
		respondError(w, http.StatusBadRequest, "empty file")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
