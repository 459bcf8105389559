package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lysyi3m/world-on-fire/app/ingest"
)

// IngestTask runs one ingestion. It is never retried; the next scheduled run
// picks up whatever this one missed.
type IngestTask struct {
	Task
	pipeline Ingester
	resolver LocationResolver
	cache    NewsCache
	queue    Enqueuer
	running  *atomic.Bool
	Report   *ingest.Report
}

func NewIngestTask(trigger string, pipeline Ingester, resolver LocationResolver, cache NewsCache, queue Enqueuer, running *atomic.Bool) *IngestTask {
	task := &IngestTask{
		Task:     NewTask(TaskTypeIngest, trigger),
		pipeline: pipeline,
		resolver: resolver,
		cache:    cache,
		queue:    queue,
		running:  running,
	}
	task.MaxRetries = 0
	return task
}

func (t *IngestTask) Execute(ctx context.Context) error {
	if t.running != nil {
		defer t.running.Store(false)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.Report = t.pipeline.Run(ctx)

	if t.Report.Saved > 0 {
		if err := t.cache.InvalidateNews(ctx); err != nil {
			slog.Warn("Failed to invalidate news cache", "run_id", t.Report.RunID, "error", err)
		}

		if len(t.Report.Locations) > 0 {
			warm := NewWarmLocationsTask(t.Report.Locations, t.resolver)
			if err := t.queue.EnqueueTask(warm); err != nil {
				slog.Warn("Failed to enqueue WarmLocationsTask", "run_id", t.Report.RunID, "error", err)
			}
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"trigger", t.Subject,
		"run_id", t.Report.RunID,
		"saved", t.Report.Saved,
		"errors", len(t.Report.Errors),
		"duration", t.GetDuration())

	if t.Report.Saved == 0 && t.Report.Total == 0 && len(t.Report.Errors) > 0 {
		return fmt.Errorf("ingestion produced no articles: %s", t.Report.Errors[0])
	}

	return nil
}
