package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/ingest"
)

// ContentGate resolves the best available body for an article.
type ContentGate interface {
	EnsureArticleContent(ctx context.Context, pageURL, existingContent, existingDescription string) string
}

type BackfillContentTask struct {
	Task
	Article     database.RawArticle
	gate        ContentGate
	articleRepo database.ArticleRepository
}

// NewBackfillContentTask never retries: a failed fetch leaves the stored
// snippet in place.
func NewBackfillContentTask(article database.RawArticle, gate ContentGate, articleRepo database.ArticleRepository) *BackfillContentTask {
	return &BackfillContentTask{
		Task:        NewTask(TaskTypeBackfillContent, article.ID),
		Article:     article,
		gate:        gate,
		articleRepo: articleRepo,
	}
}

func (t *BackfillContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content := t.gate.EnsureArticleContent(ctx, t.Article.URL, t.Article.Content, t.Article.Description)
	if content == "" || content == t.Article.Content {
		slog.Debug("No better content found", "article_id", t.Article.ID, "url", t.Article.URL)
		return nil
	}

	if err := t.articleRepo.UpdateArticleContent(ctx, t.Article.ID, content); err != nil {
		return fmt.Errorf("failed to store backfilled content: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"article_id", t.Article.ID,
		"duration", t.GetDuration(),
		"content_length", len(content))

	return nil
}

var _ ingest.Backfiller = (*BackfillQueue)(nil)

// BackfillQueue hands newly stored snippet articles to the scheduler.
type BackfillQueue struct {
	scheduler   TaskSchedulerInterface
	gate        ContentGate
	articleRepo database.ArticleRepository
}

func NewBackfillQueue(scheduler TaskSchedulerInterface, gate ContentGate, articleRepo database.ArticleRepository) *BackfillQueue {
	return &BackfillQueue{
		scheduler:   scheduler,
		gate:        gate,
		articleRepo: articleRepo,
	}
}

func (q *BackfillQueue) Enqueue(article database.RawArticle) error {
	return q.scheduler.EnqueueTask(NewBackfillContentTask(article, q.gate, q.articleRepo))
}
