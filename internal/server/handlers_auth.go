package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mandalbook/mandalbook/internal/jobs"
	"github.com/mandalbook/mandalbook/internal/repository"
	"github.com/mandalbook/mandalbook/pkg/sanitizer"
	"github.com/mandalbook/mandalbook/pkg/session"
)

type visitorLoginRequest struct {
	Password    string `json:"password"`
	VisitorName string `json:"visitorName"`
}

func (s *Server) handleVisitorLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req visitorLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "password required")
		return
	}

	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	pw, err := s.passwords.VerifyVisitorLogin(ctx, fest.ID, req.Password)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	admin, err := s.admins.GetByID(ctx, pw.AdminID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	sess := session.NewVisitor(
		fest.ID, fest.Code,
		sanitizer.Text(req.VisitorName),
		admin.ID, admin.Code, admin.Name,
		pw.Label, pw.ID,
		DeviceID(ctx),
	)

	mgr := s.sessions.Manager(DeviceID(ctx), fest.Code)
	if err := mgr.Save(ctx, sess); err != nil {
		respondRepoError(w, err)
		return
	}

	s.jobs.LogActivity(ctx, jobs.ActivityLogArgs{
		FestivalID: fest.ID,
		Actor:      sess.VisitorName,
		ActorRole:  string(session.KindVisitor),
		Action:     "login",
		Detail:     "via password " + pw.Label,
	})

	respondJSON(w, http.StatusOK, map[string]any{"session": sess})
}

type adminLoginRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "code and password required")
		return
	}

	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	admin, err := s.admins.VerifyLogin(ctx, fest.ID, req.Code, req.Password)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	sess := session.NewAdmin(fest.ID, fest.Code, admin.ID, admin.Code, admin.Name)

	mgr := s.sessions.Manager(DeviceID(ctx), fest.Code)
	if err := mgr.Save(ctx, sess); err != nil {
		respondRepoError(w, err)
		return
	}
	s.sessions.StartMonitoring(DeviceID(ctx), fest.Code)

	s.jobs.LogActivity(ctx, jobs.ActivityLogArgs{
		FestivalID: fest.ID,
		Actor:      admin.Name,
		ActorRole:  string(session.KindAdmin),
		Action:     "login",
	})

	respondJSON(w, http.StatusOK, map[string]any{"session": sess})
}

type superLoginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleSuperLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req superLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "password required")
		return
	}

	fest := s.activeFestival(w, r)
	if fest == nil {
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(s.superHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess := session.NewSuperAdmin(fest.ID, fest.Code)

	mgr := s.sessions.Manager(DeviceID(ctx), fest.Code)
	if err := mgr.Save(ctx, sess); err != nil {
		respondRepoError(w, err)
		return
	}
	s.sessions.StartMonitoring(DeviceID(ctx), fest.Code)

	s.jobs.LogActivity(ctx, jobs.ActivityLogArgs{
		FestivalID: fest.ID,
		Actor:      "super_admin",
		ActorRole:  string(session.KindSuperAdmin),
		Action:     "login",
	})

	respondJSON(w, http.StatusOK, map[string]any{"session": sess})
}

// handleGetSession reports the device's session for the festival along
// with a fresh revocation check. Page mounts call this; it is the
// on-demand counterpart of the periodic monitor and the only revocation
// path visitors get.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mon := s.sessions.Monitor(DeviceID(ctx), FestivalCode(ctx))
	mgr := s.sessions.Manager(DeviceID(ctx), FestivalCode(ctx))

	res := mon.Revalidate(ctx)
	if res == nil {
		respondJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}

	// Hard revocations have already cleared the session by now.
	sess, err := mgr.Load(ctx)
	if err != nil || sess == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"session":    nil,
			"validation": res,
		})
		return
	}

	// A revived device (hub entry evicted while idle) gets its periodic
	// revalidation back here.
	if sess.Kind != session.KindVisitor {
		s.sessions.StartMonitoring(DeviceID(ctx), FestivalCode(ctx))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session":    sess,
		"validation": res,
		"warning":    mon.Warning(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID, code := DeviceID(ctx), FestivalCode(ctx)

	mgr := s.sessions.Manager(deviceID, code)
	sess, _ := mgr.Load(ctx)

	if err := mgr.Logout(ctx); err != nil {
		respondRepoError(w, err)
		return
	}
	s.sessions.Release(deviceID, code)

	if sess != nil {
		s.jobs.LogActivity(ctx, jobs.ActivityLogArgs{
			FestivalID: sess.FestivalID,
			Actor:      actorName(sess),
			ActorRole:  string(sess.Kind),
			Action:     "logout",
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// activeFestival resolves {code} to an active festival, writing the
// error response itself and returning nil when it cannot.
func (s *Server) activeFestival(w http.ResponseWriter, r *http.Request) *repository.Festival {
	fest, err := s.festivals.GetByCode(r.Context(), FestivalCode(r.Context()))
	if err != nil {
		respondRepoError(w, err)
		return nil
	}
	if !fest.Active {
		respondError(w, http.StatusForbidden, "festival is closed")
		return nil
	}
	return fest
}

func actorName(sess *session.Session) string {
	switch sess.Kind {
	case session.KindVisitor:
		if sess.VisitorName != "" {
			return sess.VisitorName
		}
		return "visitor"
	case session.KindAdmin:
		return sess.AdminName
	default:
		return "super_admin"
	}
}
