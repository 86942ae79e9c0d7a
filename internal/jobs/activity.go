package jobs

import (
	"context"

	"github.com/riverqueue/river"

	"github.com/mandalbook/mandalbook/internal/repository"
)

// ActivityLogArgs is the payload for one audit-trail insert.
type ActivityLogArgs struct {
	FestivalID string `json:"festivalId"`
	Actor      string `json:"actor"`
	ActorRole  string `json:"actorRole"`
	Action     string `json:"action"`
	Detail     string `json:"detail,omitempty"`
}

func (ActivityLogArgs) Kind() string { return "activity.log" }

// ActivityLogWorker writes audit entries enqueued by request handlers.
type ActivityLogWorker struct {
	river.WorkerDefaults[ActivityLogArgs]

	repo *repository.ActivityRepo
}

func (w *ActivityLogWorker) Work(ctx context.Context, job *river.Job[ActivityLogArgs]) error {
	a := job.Args
	return w.repo.Insert(ctx, a.FestivalID, a.Actor, a.ActorRole, a.Action, a.Detail)
}
