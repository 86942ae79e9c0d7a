package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandalbook/mandalbook/internal/media"
	"github.com/mandalbook/mandalbook/pkg/sanitizer"
)

// handleListMedia serves the public showcase gallery. No session needed:
// the gallery is the festival's shop window.
func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	fest, err := s.festivals.GetByCode(r.Context(), FestivalCode(r.Context()))
	if err != nil {
		respondRepoError(w, err)
		return
	}

	items, err := s.media.ListByFestival(r.Context(), fest.ID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"media": items})
}

// handleUploadMedia accepts one multipart file under the "file" field
// plus an optional "caption".
func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := SessionFromContext(ctx)

	if s.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "media storage not configured")
		return
	}

	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	up, err := s.storage.Put(ctx, sess.FestivalCode, file, header.Size)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	item, err := s.media.Insert(ctx, sess.FestivalID, up.Key, up.URL, up.ContentType,
		sanitizer.Text(r.FormValue("caption")), actorName(sess))
	if err != nil {
		// Orphaned object; remove it so the bucket doesn't accumulate
		// rows-less files.
		_ = s.storage.Delete(ctx, up.Key)
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "media.upload", item.URL)
	respondJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := SessionFromContext(ctx)

	item, err := s.media.Get(ctx, chi.URLParam(r, "mediaID"))
	if err != nil || item.FestivalID != sess.FestivalID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.media.Delete(ctx, item.ID); err != nil {
		respondRepoError(w, err)
		return
	}
	// Row first, object second: a dangling object is harmless, a
	// dangling row shows a broken image.
	if s.storage != nil {
		if err := s.storage.Delete(ctx, item.StorageKey); err != nil {
			s.log.WarnContext(ctx, "failed to delete gallery object",
				"key", item.StorageKey, "error", err)
		}
	}

	s.logActivity(r, sess.FestivalID, "media.delete", item.URL)
	w.WriteHeader(http.StatusNoContent)
}
