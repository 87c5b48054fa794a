package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

type SyncSourceConfigTask struct {
	Task
	SourceConfig *feed.Config
	sourceRepo   database.SourceRepository
}

func NewSyncSourceConfigTask(sourceConfig *feed.Config, sourceRepo database.SourceRepository) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:         NewTask(TaskTypeSyncSourceConfig, sourceConfig.Name),
		SourceConfig: sourceConfig,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	filters := make([]database.SourceFilter, 0, len(t.SourceConfig.Filters))
	for _, filter := range t.SourceConfig.Filters {
		filters = append(filters, database.SourceFilter(filter))
	}

	_, err := t.sourceRepo.UpsertSource(ctx, database.Source{
		Name:     t.SourceConfig.Name,
		Type:     t.SourceConfig.Type,
		URL:      t.SourceConfig.URL,
		Category: t.SourceConfig.Category,
		Enabled:  t.SourceConfig.Settings.Enabled,
		Filters:  filters,
		MaxItems: t.SourceConfig.Settings.MaxItems,
		Timeout:  t.SourceConfig.Settings.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceConfig.Name,
		"duration", t.GetDuration())

	return nil
}
