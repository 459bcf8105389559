package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lysyi3m/world-on-fire/app/ingest"
)

const (
	queueSize   = 100
	taskTimeout = 5 * time.Minute
	maxBackoff  = 30 * time.Second
)

// ErrIngestRunning is returned by RunIngest while another ingestion is queued or running.
var ErrIngestRunning = errors.New("ingestion already running")

type Scheduler struct {
	pipeline    Ingester
	resolver    LocationResolver
	cache       NewsCache
	cron        *cron.Cron
	workerCount int
	ingesting   atomic.Bool
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

// NewScheduler validates the cron schedule; ingestion starts with Start.
func NewScheduler(pipeline Ingester, resolver LocationResolver, cache NewsCache, schedule string, workerCount int) (*Scheduler, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		pipeline:    pipeline,
		resolver:    resolver,
		cache:       cache,
		cron:        cron.New(),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.EnqueueIngest("schedule") }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid ingest schedule %q: %w", schedule, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.cron.Start()
	s.EnqueueIngest("startup")
}

func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueIngest queues an ingestion unless one is already queued or running.
func (s *Scheduler) EnqueueIngest(trigger string) bool {
	if !s.ingesting.CompareAndSwap(false, true) {
		slog.Debug("Ingestion already pending, skipping", "trigger", trigger)
		return false
	}

	task := NewIngestTask(trigger, s.pipeline, s.resolver, s.cache, s, &s.ingesting)
	if err := s.EnqueueTask(task); err != nil {
		s.ingesting.Store(false)
		slog.Warn("Failed to enqueue IngestTask", "trigger", trigger, "error", err)
		return false
	}
	return true
}

// RunIngest runs an ingestion on the caller's goroutine, sharing the pending
// flag and the follow-up work of scheduled runs.
func (s *Scheduler) RunIngest(ctx context.Context, trigger string) (*ingest.Report, error) {
	if !s.ingesting.CompareAndSwap(false, true) {
		return nil, ErrIngestRunning
	}

	task := NewIngestTask(trigger, s.pipeline, s.resolver, s.cache, s, &s.ingesting)
	task.Start()

	err := task.Execute(ctx)
	if task.Report == nil {
		return nil, err
	}
	return task.Report, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := min(time.Duration(1<<uint(task.GetRetryCount()-1))*time.Second, maxBackoff)

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-time.After(retryDelay):
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		}
		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
