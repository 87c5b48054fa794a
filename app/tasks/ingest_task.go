package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/ingest"
)

// IngestRunner runs one ingestion pass over every enabled source of a type.
type IngestRunner interface {
	Run(ctx context.Context, sourceType string) (*ingest.Result, error)
}

type IngestTask struct {
	Task
	SourceType string
	ingestor   IngestRunner
}

func NewIngestTask(ingestor IngestRunner, sourceType string) *IngestTask {
	return &IngestTask{
		Task:       NewTask(TaskTypeIngest, sourceType),
		SourceType: sourceType,
		ingestor:   ingestor,
	}
}

func (t *IngestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.ingestor.Run(ctx, t.SourceType)
	if err != nil {
		return fmt.Errorf("failed to ingest %s sources: %w", t.SourceType, err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source_type", t.SourceType,
		"duration", t.GetDuration(),
		"sources", result.Sources,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	return nil
}
