package tasks

import (
	"context"

	"github.com/lysyi3m/world-on-fire/app/cache"
	"github.com/lysyi3m/world-on-fire/app/geo"
	"github.com/lysyi3m/world-on-fire/app/ingest"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to run ingestion in the background.
// Example usage:
//
//	scheduler, err := NewScheduler(pipeline, resolver, cache, "@every 10m", 2)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunIngest(ctx context.Context, trigger string) (*ingest.Report, error)
}

type Enqueuer interface {
	EnqueueTask(task TaskInterface) error
}

type Ingester interface {
	Run(ctx context.Context) *ingest.Report
}

type LocationResolver interface {
	Resolve(ctx context.Context, location string) geo.Resolution
}

type NewsCache interface {
	InvalidateNews(ctx context.Context) error
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)
var _ Ingester = (*ingest.Pipeline)(nil)
var _ LocationResolver = (*geo.Resolver)(nil)
var _ NewsCache = (*cache.Cache)(nil)
