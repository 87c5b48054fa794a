// Package generate turns stored raw articles into English post drafts,
// falling back to the heuristic summarizer whenever a provider fails.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/errs"
	"github.com/lysyi3m/news-comb/app/summarizer"
)

const (
	DefaultBatchLimit        = 10
	MaxBatchLimit            = 25
	DefaultQualityMinContent = 1000
)

// ContentEnsurer resolves the best available body for an article.
type ContentEnsurer interface {
	EnsureArticleContent(ctx context.Context, pageURL, existingContent, existingDescription string) string
}

type Config struct {
	QualityMinContent int
}

type BatchResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

type Status struct {
	QueuedCount int `json:"queuedCount"`
	Unprocessed int `json:"unprocessed"`
	Drafts      int `json:"drafts"`
}

type Orchestrator struct {
	articleRepo database.ArticleRepository
	postRepo    database.PostRepository
	content     ContentEnsurer
	provider    Provider
	config      Config
}

// NewOrchestrator accepts a nil provider, in which case every post is
// produced by the heuristic summarizer.
func NewOrchestrator(articleRepo database.ArticleRepository, postRepo database.PostRepository, content ContentEnsurer, provider Provider, config Config) *Orchestrator {
	if config.QualityMinContent <= 0 {
		config.QualityMinContent = DefaultQualityMinContent
	}
	return &Orchestrator{
		articleRepo: articleRepo,
		postRepo:    postRepo,
		content:     content,
		provider:    provider,
		config:      config,
	}
}

// Generate creates the draft post for a raw article. A second call for the
// same article fails with errs.ErrConflict.
func (o *Orchestrator) Generate(ctx context.Context, rawArticleID string) (*database.GeneratedPost, error) {
	article, err := o.articleRepo.GetRawArticle(ctx, rawArticleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raw article: %w", err)
	}
	if article == nil {
		return nil, fmt.Errorf("%w: raw article %s", errs.ErrNotFound, rawArticleID)
	}

	existing, err := o.postRepo.GetPostByRawArticleID(ctx, rawArticleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing post: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: post %s already exists for raw article %s", errs.ErrConflict, existing.ID, rawArticleID)
	}

	content, generatedBy := o.compose(ctx, *article)

	post, err := o.postRepo.InsertGeneratedPost(ctx, database.GeneratedPost{
		RawArticleID: article.ID,
		Category:     article.Category,
		PostContent:  content,
		Status:       database.PostStatusDraft,
		GeneratedBy:  generatedBy,
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, err
		}
		if statusErr := o.articleRepo.UpdateArticleStatus(ctx, article.ID, database.ArticleStatusFailed, err.Error()); statusErr != nil {
			slog.Error("Failed to mark article failed", "article_id", article.ID, "error", statusErr)
		}
		return nil, fmt.Errorf("failed to insert generated post: %w", err)
	}

	if err := o.articleRepo.UpdateArticleStatus(ctx, article.ID, database.ArticleStatusProcessed, ""); err != nil {
		slog.Error("Failed to mark article processed", "article_id", article.ID, "error", err)
	}

	slog.Info("Post generated", "article_id", article.ID, "post_id", post.ID, "generated_by", generatedBy)
	return post, nil
}

// Regenerate rewrites the English fields of an existing post and returns it
// to draft.
func (o *Orchestrator) Regenerate(ctx context.Context, postID string) (*database.GeneratedPost, error) {
	post, err := o.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post %s", errs.ErrNotFound, postID)
	}

	article, err := o.articleRepo.GetRawArticle(ctx, post.RawArticleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raw article: %w", err)
	}
	if article == nil {
		return nil, fmt.Errorf("%w: raw article %s", errs.ErrNotFound, post.RawArticleID)
	}

	content, generatedBy := o.compose(ctx, *article)
	if err := o.postRepo.UpdatePostContent(ctx, post.ID, content, generatedBy); err != nil {
		return nil, err
	}

	slog.Info("Post regenerated", "post_id", post.ID, "generated_by", generatedBy)
	return o.postRepo.GetPost(ctx, post.ID)
}

// GenerateBatch generates posts for queued articles that have none yet.
func (o *Orchestrator) GenerateBatch(ctx context.Context, limit int) (*BatchResult, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if limit > MaxBatchLimit {
		limit = MaxBatchLimit
	}

	articles, err := o.articleRepo.ListUnprocessedArticles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed articles: %w", err)
	}

	result := &BatchResult{Processed: len(articles)}
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := o.Generate(ctx, article.ID); err != nil {
			slog.Warn("Batch generation skipped article", "article_id", article.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Created++
	}

	slog.Info("Batch generation completed", "processed", result.Processed, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	queued, err := o.articleRepo.CountArticlesByStatus(ctx, database.ArticleStatusQueued)
	if err != nil {
		return nil, err
	}
	unprocessed, err := o.articleRepo.CountUnprocessedArticles(ctx)
	if err != nil {
		return nil, err
	}
	drafts, err := o.postRepo.CountPostsByStatus(ctx, database.PostStatusDraft)
	if err != nil {
		return nil, err
	}
	return &Status{QueuedCount: queued, Unprocessed: unprocessed, Drafts: drafts}, nil
}

// Summarize returns a short heuristic summary of a stored article.
func (o *Orchestrator) Summarize(ctx context.Context, rawArticleID string) (string, error) {
	article, err := o.articleRepo.GetRawArticle(ctx, rawArticleID)
	if err != nil {
		return "", fmt.Errorf("failed to get raw article: %w", err)
	}
	if article == nil {
		return "", fmt.Errorf("%w: raw article %s", errs.ErrNotFound, rawArticleID)
	}
	return summarizer.Summary(article.Title, article.Description, article.Content), nil
}

func (o *Orchestrator) compose(ctx context.Context, article database.RawArticle) (database.PostContent, string) {
	fullContent := article.Content
	if o.content != nil {
		fullContent = o.content.EnsureArticleContent(ctx, article.URL, article.Content, article.Description)
	}

	if o.provider != nil {
		content, err := o.generateWithProvider(ctx, article, fullContent)
		if err == nil {
			return content, o.provider.Name()
		}
		slog.Warn("Provider generation failed, using heuristic fallback", "provider", o.provider.Name(), "article_id", article.ID, "error", err)
	}

	out := summarizer.Generate(summarizer.Input{
		Title:       article.Title,
		Description: article.Description,
		Content:     fullContent,
		SourceName:  article.SourceName,
		Category:    article.Category,
	})

	return database.PostContent{
		Headline:    out.Headline,
		Summary:     out.Summary,
		Body:        out.Body,
		Hashtags:    out.Hashtags,
		Attribution: out.Attribution,
	}, database.GeneratedByHeuristic
}

func (o *Orchestrator) generateWithProvider(ctx context.Context, article database.RawArticle, fullContent string) (database.PostContent, error) {
	system, user := BuildPrompt(article, fullContent)

	raw, err := o.provider.Complete(ctx, system, user)
	if err != nil {
		return database.PostContent{}, err
	}

	content, err := ParseOutput(raw)
	if err != nil {
		return database.PostContent{}, err
	}

	if err := CheckQuality(content, fullContent, o.config.QualityMinContent); err != nil {
		return database.PostContent{}, err
	}

	return finalize(content, article.SourceName), nil
}
