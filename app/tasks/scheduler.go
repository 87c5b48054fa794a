package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskQueueSize = 300
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type SchedulerConfig struct {
	WorkerCount int
}

// TaskError is reported on the scheduler's error channel when a task
// attempt fails.
type TaskError struct {
	TaskID  string
	Type    TaskType
	Subject string
	Retry   int
	Err     error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("task %s (%s %s) failed: %v", e.TaskID, e.Type, e.Subject, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

type periodicJob struct {
	interval time.Duration
	build    func() TaskInterface
}

type Scheduler struct {
	configCache *feed.ConfigCache
	sourceRepo  database.SourceRepository
	workerCount int
	periodic    []periodicJob
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
	errCh       chan TaskError
}

func NewScheduler(configCache *feed.ConfigCache, sourceRepo database.SourceRepository, config SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	return &Scheduler{
		configCache: configCache,
		sourceRepo:  sourceRepo,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
		errCh:       make(chan TaskError, taskQueueSize),
	}
}

// AddPeriodic registers a task to be enqueued every interval once the
// scheduler starts. A non-positive interval is ignored.
func (s *Scheduler) AddPeriodic(interval time.Duration, build func() TaskInterface) {
	if interval <= 0 {
		return
	}
	s.periodic = append(s.periodic, periodicJob{interval: interval, build: build})
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go s.logErrors()

	s.enqueueStartupTasks()

	for _, job := range s.periodic {
		s.wg.Add(1)
		go s.runPeriodic(job)
	}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	if s.configCache == nil {
		return
	}

	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Syncing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		syncTask := NewSyncSourceConfigTask(sourceConfig, s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", sourceConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) runPeriodic(job periodicJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			task := job.build()
			if err := s.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue periodic task", "type", string(task.GetType()), "subject", task.GetSubject(), "error", err)
			}
		}
	}
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

// logErrors drains the error channel. Task errors end here and are never
// returned to callers.
func (s *Scheduler) logErrors() {
	defer s.wg.Done()

	for {
		select {
		case taskErr := <-s.errCh:
			slog.Error("Worker task execution failed",
				"type", string(taskErr.Type),
				"id", taskErr.TaskID,
				"subject", taskErr.Subject,
				"retry_count", taskErr.Retry,
				"error", taskErr.Err)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) reportError(task TaskInterface, err error) {
	taskErr := TaskError{
		TaskID:  task.GetID(),
		Type:    task.GetType(),
		Subject: task.GetSubject(),
		Retry:   task.GetRetryCount(),
		Err:     err,
	}

	select {
	case s.errCh <- taskErr:
	default:
		slog.Warn("Task error channel full, dropping error", "id", task.GetID(), "error", err)
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	timeout := task.GetTimeout()
	if timeout <= 0 {
		timeout = taskTimeout
	}
	taskCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	s.reportError(task, err)
	slog.Debug("Task attempt failed", "worker_id", workerID, "id", task.GetID())

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := RetryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// RetryDelay returns 1s, 2s, 4s... for retry attempts starting at 1, capped
// at 30s.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
