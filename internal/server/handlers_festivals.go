package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandalbook/mandalbook/internal/jobs"
	"github.com/mandalbook/mandalbook/pkg/sanitizer"
	"github.com/mandalbook/mandalbook/pkg/session"
)

type festivalRequest struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
	Year int    `json:"year"`
}

func (s *Server) handleListFestivals(w http.ResponseWriter, r *http.Request) {
	fests, err := s.festivals.List(r.Context())
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"festivals": fests})
}

func (s *Server) handleGetFestival(w http.ResponseWriter, r *http.Request) {
	fest, err := s.festivals.GetByCode(r.Context(), FestivalCode(r.Context()))
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"festival": fest})
}

func (s *Server) handleCreateFestival(w http.ResponseWriter, r *http.Request) {
	var req festivalRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "code and name required")
		return
	}

	fest, err := s.festivals.Create(r.Context(), req.Code, sanitizer.Text(req.Name), req.Year)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, fest.ID, "festival.create", fest.Code)
	respondJSON(w, http.StatusCreated, map[string]any{"festival": fest})
}

func (s *Server) handleUpdateFestival(w http.ResponseWriter, r *http.Request) {
	var req festivalRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name required")
		return
	}

	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	if err := s.festivals.Update(r.Context(), fest.ID, sanitizer.Text(req.Name), req.Year); err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, fest.ID, "festival.update", req.Name)
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleFestivalStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	fest, err := s.festivals.GetByCode(r.Context(), FestivalCode(r.Context()))
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if err := s.festivals.SetActive(r.Context(), fest.ID, req.Active); err != nil {
		respondRepoError(w, err)
		return
	}

	action := "festival.close"
	if req.Active {
		action = "festival.open"
	}
	s.logActivity(r, fest.ID, action, fest.Code)
	w.WriteHeader(http.StatusNoContent)
}

type adminRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	admins, err := s.admins.ListByFestival(r.Context(), fest.ID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" || req.Name == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "code, name and password required")
		return
	}

	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	admin, err := s.admins.Create(r.Context(), fest.ID, req.Code,
		sanitizer.Text(req.Name), req.Email, req.Password)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, fest.ID, "admin.create", admin.Code)
	respondJSON(w, http.StatusCreated, map[string]any{"admin": admin})
}

// handleAdminStatus deactivates or reinstates an admin. Deactivation
// revokes the admin's live sessions within one monitor cycle and softly
// revokes every visitor session issued under that admin's passwords.
func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	admin, err := s.admins.GetByID(r.Context(), chi.URLParam(r, "adminID"))
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if err := s.admins.SetActive(r.Context(), admin.ID, req.Active); err != nil {
		respondRepoError(w, err)
		return
	}

	if !req.Active {
		fest, ferr := s.festivals.GetByCode(r.Context(), FestivalCode(r.Context()))
		festName := FestivalCode(r.Context())
		if ferr == nil {
			festName = fest.Name
		}
		s.notify.AdminDeactivated(r.Context(), admin.Email, admin.Name, festName)
	}

	action := "admin.deactivate"
	if req.Active {
		action = "admin.reinstate"
	}
	s.logActivity(r, admin.FestivalID, action, admin.Code)
	w.WriteHeader(http.StatusNoContent)
}

type rotatePasswordRequest struct {
	Password string `json:"password"`
}

// handleRotateAdminPassword replaces an admin's password, which hard
// revokes sessions logged in under the old one.
func (s *Server) handleRotateAdminPassword(w http.ResponseWriter, r *http.Request) {
	var req rotatePasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "password required")
		return
	}

	admin, err := s.admins.GetByID(r.Context(), chi.URLParam(r, "adminID"))
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if err := s.admins.RotatePassword(r.Context(), admin.ID, req.Password); err != nil {
		respondRepoError(w, err)
		return
	}

	fest, ferr := s.festivals.GetByCode(r.Context(), FestivalCode(r.Context()))
	festName := FestivalCode(r.Context())
	if ferr == nil {
		festName = fest.Name
	}
	s.notify.PasswordRotated(r.Context(), admin.Email, admin.Name, festName)

	s.logActivity(r, admin.FestivalID, "admin.rotate_password", admin.Code)
	w.WriteHeader(http.StatusNoContent)
}

type visitorPasswordRequest struct {
	Label    string `json:"label"`
	Password string `json:"password"`
}

func (s *Server) handleListPasswords(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	pws, err := s.passwords.ListByAdmin(r.Context(), sess.AdminID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"passwords": pws})
}

func (s *Server) handleCreatePassword(w http.ResponseWriter, r *http.Request) {
	var req visitorPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Label == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "label and password required")
		return
	}

	sess := SessionFromContext(r.Context())

	pw, err := s.passwords.Create(r.Context(), sess.FestivalID, sess.AdminID,
		sanitizer.Text(req.Label), req.Password)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	s.logActivity(r, sess.FestivalID, "password.create", pw.Label)
	respondJSON(w, http.StatusCreated, map[string]any{"password": pw})
}

// handlePasswordStatus deactivates or reinstates a visitor password.
// Deactivation softly revokes the sessions using it: visitors see a
// five-minute warning on their next page load before forced logout.
func (s *Server) handlePasswordStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	sess := SessionFromContext(r.Context())

	pw, err := s.passwords.GetByID(r.Context(), chi.URLParam(r, "passwordID"))
	if err != nil {
		respondRepoError(w, err)
		return
	}
	// Admins manage only their own passwords; the super-admin manages all.
	if sess.Kind == session.KindAdmin && pw.AdminID != sess.AdminID {
		respondError(w, http.StatusForbidden, "not your password")
		return
	}

	if err := s.passwords.SetActive(r.Context(), pw.ID, req.Active); err != nil {
		respondRepoError(w, err)
		return
	}

	action := "password.deactivate"
	if req.Active {
		action = "password.reinstate"
	}
	s.logActivity(r, pw.FestivalID, action, pw.Label)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	entries, err := s.activity.ListRecent(r.Context(), fest.ID, 100)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

// logActivity enqueues an audit entry attributed to the request's
// session, if any.
func (s *Server) logActivity(r *http.Request, festivalID, action, detail string) {
	actor, role := "super_admin", string(session.KindSuperAdmin)
	if sess := SessionFromContext(r.Context()); sess != nil {
		actor, role = actorName(sess), string(sess.Kind)
	}
	s.jobs.LogActivity(r.Context(), jobs.ActivityLogArgs{
		FestivalID: festivalID,
		Actor:      actor,
		ActorRole:  role,
		Action:     action,
		Detail:     detail,
	})
}
