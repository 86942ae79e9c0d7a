package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mandalbook/mandalbook/internal/config"
	"github.com/mandalbook/mandalbook/internal/jobs"
	"github.com/mandalbook/mandalbook/internal/media"
	"github.com/mandalbook/mandalbook/internal/notify"
	"github.com/mandalbook/mandalbook/internal/repository"
	"github.com/mandalbook/mandalbook/pkg/cache"
	"github.com/mandalbook/mandalbook/pkg/cookie"
	"github.com/mandalbook/mandalbook/pkg/db"
	"github.com/mandalbook/mandalbook/pkg/health"
	"github.com/mandalbook/mandalbook/pkg/localdate"
	redispkg "github.com/mandalbook/mandalbook/pkg/redis"
	"github.com/mandalbook/mandalbook/pkg/session"
)

// Server wires the HTTP surface over the repositories, the session hub
// and the supporting services.
type Server struct {
	cfg       config.Config
	log       *slog.Logger
	ist       *time.Location
	superHash string

	sessions *SessionHub
	cookies  *cookie.Manager

	festivals   *repository.FestivalRepo
	admins      *repository.AdminRepo
	passwords   *repository.PasswordRepo
	collections *repository.CollectionRepo
	expenses    *repository.ExpenseRepo
	analytics   *repository.AnalyticsRepo
	activity    *repository.ActivityRepo
	media       *repository.MediaRepo

	storage *media.Storage
	jobs    *jobs.Client
	notify  *notify.Notifier

	analyticsCache cache.Cache[*analyticsResponse]
	healthChecks   health.Checks

	httpServer    *http.Server
	shutdownHooks []func(ctx context.Context) error
}

// Deps carries the shared infrastructure handles New wires together.
type Deps struct {
	Pool    *pgxpool.Pool
	Redis   goredis.UniversalClient
	Storage *media.Storage
	Jobs    *jobs.Client
	Notify  *notify.Notifier
}

func New(cfg config.Config, deps Deps, log *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		ist:       localdate.IST(),
		superHash: cfg.App.SuperAdminHash,

		festivals:   repository.NewFestivalRepo(deps.Pool),
		admins:      repository.NewAdminRepo(deps.Pool),
		passwords:   repository.NewPasswordRepo(deps.Pool),
		collections: repository.NewCollectionRepo(deps.Pool),
		expenses:    repository.NewExpenseRepo(deps.Pool),
		analytics:   repository.NewAnalyticsRepo(deps.Pool),
		activity:    repository.NewActivityRepo(deps.Pool),
		media:       repository.NewMediaRepo(deps.Pool),

		storage: deps.Storage,
		jobs:    deps.Jobs,
		notify:  deps.Notify,

		analyticsCache: cache.NewMemory[*analyticsResponse](),
		healthChecks: health.Checks{
			"postgres": db.Healthcheck(deps.Pool),
			"redis":    redispkg.Healthcheck(deps.Redis),
		},
	}

	s.sessions = NewSessionHub(deps.Redis, repository.NewCredentials(deps.Pool), cfg.Session, log)
	s.sessions.OnForcedLogout = s.auditForcedLogout
	s.cookies = cookie.New(
		cookie.WithSecret(cfg.App.CookieSecret),
		cookie.WithSecure(cfg.App.SecureCookies),
	)

	s.httpServer = &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           s.routes(),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.shutdownHooks = append(s.shutdownHooks,
		s.sessions.Close,
		func(ctx context.Context) error { return s.analyticsCache.Close() },
	)
	return s
}

// OnShutdown registers a hook run during graceful shutdown, after the
// HTTP server has stopped accepting requests.
func (s *Server) OnShutdown(hook func(ctx context.Context) error) {
	s.shutdownHooks = append(s.shutdownHooks, hook)
}

// auditForcedLogout records a monitor-driven revocation in the activity
// log. The monitor knows the festival only by code; resolve it best
// effort and skip silently if the festival is gone.
func (s *Server) auditForcedLogout(festivalCode string, res session.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fest, err := s.festivals.GetByCode(ctx, festivalCode)
	if err != nil {
		return
	}
	s.jobs.LogActivity(ctx, jobs.ActivityLogArgs{
		FestivalID: fest.ID,
		Actor:      "system",
		ActorRole:  "monitor",
		Action:     "session.revoked",
		Detail:     string(res.Reason),
	})
}
