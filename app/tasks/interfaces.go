package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the backfill queue.
// Example usage:
//
//	scheduler := NewScheduler(configCache, sourceRepo, config)
//	scheduler.AddPeriodic(interval, func() TaskInterface { return NewIngestTask(ingestor, "rss") })
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
