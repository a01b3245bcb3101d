package tasks

import (
	"context"

	"log/slog"

	"github.com/dokibot/club-assistant/app/notify"
)

// CheckUpdatesTask runs one notification pipeline cycle. Source failures are
// absorbed inside the pipeline, so the task itself never errors and is never
// retried; the next tick simply runs a fresh cycle.
type CheckUpdatesTask struct {
	Task
	pipeline *notify.Pipeline
}

func NewCheckUpdatesTask(pipeline *notify.Pipeline) *CheckUpdatesTask {
	return &CheckUpdatesTask{
		Task:     NewTask(TaskTypeCheckUpdates),
		pipeline: pipeline,
	}
}

func (t *CheckUpdatesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.pipeline.RunCycle(ctx)

	slog.Debug("Task completed", "type", string(t.GetType()), "id", t.GetID(), "duration", t.GetDuration())

	return nil
}
