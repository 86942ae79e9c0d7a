package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mandalbook/mandalbook/internal/config"
	"github.com/mandalbook/mandalbook/internal/jobs"
	"github.com/mandalbook/mandalbook/internal/media"
	"github.com/mandalbook/mandalbook/internal/notify"
	"github.com/mandalbook/mandalbook/internal/repository"
	"github.com/mandalbook/mandalbook/internal/server"
	"github.com/mandalbook/mandalbook/migrations"
	"github.com/mandalbook/mandalbook/pkg/db"
	"github.com/mandalbook/mandalbook/pkg/localdate"
	"github.com/mandalbook/mandalbook/pkg/logger"
	"github.com/mandalbook/mandalbook/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "optional YAML file of VAR_NAME: value pairs")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Log, cfg.Sentry,
		server.RequestIDExtractor,
		server.DeviceIDExtractor,
		server.FestivalCodeExtractor,
	)
	log = log.With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env))

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
		pool.Close()
		return err
	}

	rdb, err := redis.Open(ctx, cfg.Redis.URL)
	if err != nil {
		pool.Close()
		return err
	}

	jobsClient, err := jobs.New(pool, rdb,
		repository.NewActivityRepo(pool),
		cfg.Session.SweepSchedule, localdate.IST(), log)
	if err != nil {
		pool.Close()
		return err
	}
	if err := jobsClient.Start(ctx); err != nil {
		pool.Close()
		return err
	}

	// Storage is optional: without it the gallery upload endpoints answer
	// 503 and everything else works.
	var storage *media.Storage
	if cfg.Storage.Bucket != "" {
		storage, err = media.NewStorage(cfg.Storage)
		if err != nil {
			return err
		}
	} else {
		log.Warn("media storage not configured, gallery uploads disabled")
	}

	srv := server.New(cfg, server.Deps{
		Pool:    pool,
		Redis:   rdb,
		Storage: storage,
		Jobs:    jobsClient,
		Notify:  notify.New(cfg.Email, log),
	}, log)

	srv.OnShutdown(jobsClient.Stop)
	srv.OnShutdown(redis.Shutdown(rdb))
	srv.OnShutdown(db.Shutdown(pool))

	return srv.Run(ctx)
}
