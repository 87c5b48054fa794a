package database

import (
	"context"
	"time"
)

// Get* methods return nil, nil when the row does not exist.

type SourceRepository interface {
	ListSources(ctx context.Context) ([]Source, error)
	ListEnabledSources(ctx context.Context, sourceType string) ([]Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)
	GetSourceByName(ctx context.Context, name string) (*Source, error)

	UpsertSource(ctx context.Context, source Source) (*Source, error)
	UpdateSource(ctx context.Context, id string, update SourceUpdate) (*Source, error)
	MarkSourceFetched(ctx context.Context, id string, fetchedAt time.Time) error
	IncrementSourceFailures(ctx context.Context, id string) error
}

type ArticleRepository interface {
	GetRawArticle(ctx context.Context, id string) (*RawArticle, error)
	GetRawArticleByCanonicalID(ctx context.Context, canonicalID string) (*RawArticle, error)
	ListRawArticles(ctx context.Context, status string, limit int) ([]RawArticle, error)
	ListUnprocessedArticles(ctx context.Context, limit int) ([]RawArticle, error)
	CountArticlesByStatus(ctx context.Context, status string) (int, error)
	CountUnprocessedArticles(ctx context.Context) (int, error)

	UpsertRawArticle(ctx context.Context, article RawArticle) (string, bool, error)
	UpdateArticleContent(ctx context.Context, id string, content string) error
	UpdateArticleStatus(ctx context.Context, id string, status string, errorMessage string) error
}

type PostRepository interface {
	GetPost(ctx context.Context, id string) (*GeneratedPost, error)
	GetPostByRawArticleID(ctx context.Context, rawArticleID string) (*GeneratedPost, error)
	ListPosts(ctx context.Context, status string, limit int) ([]GeneratedPost, error)
	CountPostsByStatus(ctx context.Context, status string) (int, error)

	InsertGeneratedPost(ctx context.Context, post GeneratedPost) (*GeneratedPost, error)
	UpdatePostContent(ctx context.Context, id string, content PostContent, generatedBy string) error
	UpdatePost(ctx context.Context, id string, update PostUpdate) (*GeneratedPost, error)
	SaveTranslation(ctx context.Context, id string, translation PostTranslation) error
}

var (
	_ SourceRepository  = (*SourceRepo)(nil)
	_ ArticleRepository = (*ArticleRepo)(nil)
	_ PostRepository    = (*PostRepo)(nil)
)
