package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"

	"github.com/mandalbook/mandalbook/internal/repository"
)

// Client owns the background queue: audit-trail inserts enqueued by
// request handlers and the nightly session sweep.
type Client struct {
	river *river.Client[pgx.Tx]
	log   *slog.Logger
}

// New builds the river client on the shared pgx pool. sweepSpec is a
// standard five-field cron expression evaluated in loc, so "0 0 * * *"
// fires at the festival timezone's midnight regardless of server zone.
func New(
	pool *pgxpool.Pool,
	rdb goredis.UniversalClient,
	activity *repository.ActivityRepo,
	sweepSpec string,
	loc *time.Location,
	log *slog.Logger,
) (*Client, error) {
	schedule, err := cron.ParseStandard(sweepSpec)
	if err != nil {
		return nil, fmt.Errorf("jobs: invalid sweep schedule %q: %w", sweepSpec, err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &ActivityLogWorker{repo: activity})
	river.AddWorker(workers, &SessionSweepWorker{rdb: rdb, loc: loc, log: log})

	rc, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				zonedSchedule{schedule: schedule, loc: loc},
				func() (river.JobArgs, *river.InsertOpts) {
					return SessionSweepArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: false},
			),
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: create client: %w", err)
	}

	return &Client{river: rc, log: log}, nil
}

// Start begins job processing.
func (c *Client) Start(ctx context.Context) error {
	return c.river.Start(ctx)
}

// Stop drains workers. Suitable as a shutdown hook.
func (c *Client) Stop(ctx context.Context) error {
	return c.river.Stop(ctx)
}

// LogActivity enqueues one audit entry. Audit logging is fail-soft: an
// enqueue error is logged and swallowed so it never fails the request
// that triggered it.
func (c *Client) LogActivity(ctx context.Context, args ActivityLogArgs) {
	if _, err := c.river.Insert(ctx, args, nil); err != nil {
		c.log.ErrorContext(ctx, "failed to enqueue activity log",
			slog.String("action", args.Action),
			slog.Any("error", err))
	}
}

// zonedSchedule evaluates a cron schedule in a fixed location. cron
// computes the next fire time in the location of the time it is handed,
// so pinning is a conversion on the way in.
type zonedSchedule struct {
	schedule cron.Schedule
	loc      *time.Location
}

func (z zonedSchedule) Next(t time.Time) time.Time {
	if z.loc == nil {
		return z.schedule.Next(t)
	}
	return z.schedule.Next(t.In(z.loc))
}
