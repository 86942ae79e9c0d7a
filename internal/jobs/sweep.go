package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"

	"github.com/mandalbook/mandalbook/pkg/localdate"
	"github.com/mandalbook/mandalbook/pkg/session"
)

// SessionSweepArgs triggers one pass over the Redis session keys.
type SessionSweepArgs struct{}

func (SessionSweepArgs) Kind() string { return "session.sweep" }

func (SessionSweepArgs) InsertOpts() river.InsertOpts {
	// Consecutive sweeps are identical; collapse duplicates in the queue.
	return river.InsertOpts{UniqueOpts: river.UniqueOpts{ByArgs: true}}
}

// SessionSweepWorker deletes session records whose login day has passed.
// Clients purge their own expired sessions on next load, and Redis
// entries carry a TTL besides; the sweep keeps the keyspace tidy for
// devices that never come back.
type SessionSweepWorker struct {
	river.WorkerDefaults[SessionSweepArgs]

	rdb redis.UniversalClient
	loc *time.Location
	log *slog.Logger
}

func (w *SessionSweepWorker) Work(ctx context.Context, _ *river.Job[SessionSweepArgs]) error {
	today := localdate.At(time.Now(), w.loc)
	var scanned, removed int

	iter := w.rdb.Scan(ctx, 0, "*session:*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		scanned++

		data, err := w.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var sess session.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			// Corrupt record: clients would purge it on load anyway.
			w.rdb.Del(ctx, key)
			removed++
			continue
		}

		loginAt, ok := sess.LoginAt()
		if !ok || localdate.At(loginAt, w.loc).Before(today) {
			w.rdb.Del(ctx, key)
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	w.log.InfoContext(ctx, "session sweep completed",
		slog.Int("scanned", scanned),
		slog.Int("removed", removed))
	return nil
}
