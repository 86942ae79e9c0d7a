package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies all pending goose migrations from the embedded
// filesystem. The pgx pool is bridged to database/sql via stdlib; the
// bridge shares the pool's connections, so it must not be closed here.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations embed.FS, table string, log *slog.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log})
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf logs without exiting; goose propagates the failure as an error
// and the caller decides whether startup continues.
func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
