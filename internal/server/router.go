package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandalbook/mandalbook/pkg/health"
	"github.com/mandalbook/mandalbook/pkg/session"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(s.deviceIDMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(s.healthChecks, health.WithLogger(s.log)))

	r.Get("/docs", s.handleDocs)
	r.Get("/docs/{page}", s.handleDocs)

	r.Route("/api/festivals", func(r chi.Router) {
		r.Get("/", s.handleListFestivals)
		r.With(s.requireSuperPassword).Post("/", s.handleCreateFestival)

		r.Route("/{code}", func(r chi.Router) {
			r.Use(festivalCodeMiddleware)

			r.Get("/", s.handleGetFestival)
			r.Get("/media", s.handleListMedia)

			r.Post("/login/visitor", s.handleVisitorLogin)
			r.Post("/login/admin", s.handleAdminLogin)
			r.Post("/login/super", s.handleSuperLogin)
			r.Get("/session", s.handleGetSession)
			r.Delete("/session", s.handleLogout)

			// Ledger reads and analytics are open to every logged-in role;
			// donation transparency is the point.
			r.Group(func(r chi.Router) {
				r.Use(s.requireSession(session.KindVisitor, session.KindAdmin, session.KindSuperAdmin))

				r.Get("/collections", s.handleListCollections)
				r.Get("/expenses", s.handleListExpenses)
				r.Get("/analytics", s.handleAnalytics)
				r.Get("/activity", s.handleListActivity)
			})

			// Ledger writes, visitor passwords and gallery uploads need an
			// admin hand.
			r.Group(func(r chi.Router) {
				r.Use(s.requireSession(session.KindAdmin, session.KindSuperAdmin))

				r.Post("/collections", s.handleCreateCollection)
				r.Put("/collections/{collectionID}", s.handleUpdateCollection)
				r.Delete("/collections/{collectionID}", s.handleDeleteCollection)

				r.Post("/expenses", s.handleCreateExpense)
				r.Put("/expenses/{expenseID}", s.handleUpdateExpense)
				r.Delete("/expenses/{expenseID}", s.handleDeleteExpense)

				r.Get("/passwords", s.handleListPasswords)
				r.Post("/passwords", s.handleCreatePassword)
				r.Put("/passwords/{passwordID}/status", s.handlePasswordStatus)

				r.Post("/media", s.handleUploadMedia)
				r.Delete("/media/{mediaID}", s.handleDeleteMedia)
			})

			// Festival lifecycle and admin management stay with the
			// super-admin.
			r.Group(func(r chi.Router) {
				r.Use(s.requireSession(session.KindSuperAdmin))

				r.Put("/", s.handleUpdateFestival)
				r.Put("/status", s.handleFestivalStatus)

				r.Get("/admins", s.handleListAdmins)
				r.Post("/admins", s.handleCreateAdmin)
				r.Put("/admins/{adminID}/status", s.handleAdminStatus)
				r.Put("/admins/{adminID}/password", s.handleRotateAdminPassword)
			})
		})
	})

	return r
}
