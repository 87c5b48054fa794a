package api

import (
	"context"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/generate"
	"github.com/lysyi3m/news-comb/app/ingest"
	"github.com/lysyi3m/news-comb/app/translate"
)

type IngestorInterface interface {
	Run(ctx context.Context, sourceType string) (*ingest.Result, error)
}

type GeneratorInterface interface {
	Generate(ctx context.Context, rawArticleID string) (*database.GeneratedPost, error)
	Regenerate(ctx context.Context, postID string) (*database.GeneratedPost, error)
	GenerateBatch(ctx context.Context, limit int) (*generate.BatchResult, error)
	Status(ctx context.Context) (*generate.Status, error)
	Summarize(ctx context.Context, rawArticleID string) (string, error)
}

type TranslatorInterface interface {
	TranslateText(ctx context.Context, text, reference, rawArticleID string) (string, error)
	TranslatePost(ctx context.Context, postID string) (*database.PostTranslation, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

var (
	_ IngestorInterface   = (*ingest.Ingestor)(nil)
	_ GeneratorInterface  = (*generate.Orchestrator)(nil)
	_ TranslatorInterface = (*translate.Orchestrator)(nil)
)

type Handler struct {
	db          Pinger
	sourceRepo  database.SourceRepository
	articleRepo database.ArticleRepository
	postRepo    database.PostRepository
	ingestor    IngestorInterface
	generator   GeneratorInterface
	translator  TranslatorInterface
}

// Request bodies

type sourceRequest struct {
	Name     string                  `json:"name"`
	Type     string                  `json:"type"`
	URL      string                  `json:"url"`
	Category string                  `json:"category"`
	Enabled  *bool                   `json:"enabled"`
	Filters  []database.SourceFilter `json:"filters"`
	MaxItems int                     `json:"maxItems"`
	Timeout  int                     `json:"timeout"`
}

type sourcePatchRequest struct {
	Enabled       *bool   `json:"enabled"`
	URL           *string `json:"url"`
	Category      *string `json:"category"`
	ResetFailures bool    `json:"resetFailures"`
}

type createRequest struct {
	NewsID string `json:"newsId"`
}

type postPatchRequest struct {
	Headline    *string   `json:"headline"`
	Summary     *string   `json:"summary"`
	Body        *string   `json:"body"`
	Hashtags    *[]string `json:"hashtags"`
	Attribution *string   `json:"attribution"`
	Status      *string   `json:"status"`
}

type translateRequest struct {
	Text                 string `json:"text"`
	ArticleID            string `json:"articleId"`
	Context              string `json:"context"`
	TranslateFullArticle bool   `json:"translateFullArticle"`
}

// Response views

type sourceView struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Type          string                  `json:"type"`
	URL           string                  `json:"url,omitempty"`
	Category      string                  `json:"category"`
	Enabled       bool                    `json:"enabled"`
	FailureCount  int                     `json:"failureCount"`
	LastFetchedAt *time.Time              `json:"lastFetchedAt,omitempty"`
	Filters       []database.SourceFilter `json:"filters"`
	MaxItems      int                     `json:"maxItems"`
	Timeout       int                     `json:"timeout"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

type articleView struct {
	ID           string     `json:"id"`
	CanonicalID  string     `json:"canonicalId"`
	SourceID     string     `json:"sourceId,omitempty"`
	SourceName   string     `json:"sourceName"`
	Category     string     `json:"category"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Author       string     `json:"author,omitempty"`
	Description  string     `json:"description,omitempty"`
	Content      string     `json:"content,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	Language     string     `json:"language"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type translationView struct {
	Headline     string     `json:"headline"`
	Summary      string     `json:"summary"`
	Body         string     `json:"body"`
	Hashtags     []string   `json:"hashtags"`
	Attribution  string     `json:"attribution"`
	Language     string     `json:"language"`
	TranslatedAt *time.Time `json:"translatedAt,omitempty"`
}

type postView struct {
	ID           string           `json:"id"`
	RawArticleID string           `json:"rawArticleId"`
	Category     string           `json:"category"`
	Headline     string           `json:"headline"`
	Summary      string           `json:"summary"`
	Body         string           `json:"body"`
	Hashtags     []string         `json:"hashtags"`
	Attribution  string           `json:"attribution"`
	Translation  *translationView `json:"translation,omitempty"`
	Status       string           `json:"status"`
	GeneratedBy  string           `json:"generatedBy"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func newSourceView(source database.Source) sourceView {
	return sourceView{
		ID:            source.ID,
		Name:          source.Name,
		Type:          source.Type,
		URL:           source.URL,
		Category:      source.Category,
		Enabled:       source.Enabled,
		FailureCount:  source.FailureCount,
		LastFetchedAt: source.LastFetchedAt,
		Filters:       source.Filters,
		MaxItems:      source.MaxItems,
		Timeout:       source.Timeout,
		CreatedAt:     source.CreatedAt,
		UpdatedAt:     source.UpdatedAt,
	}
}

func newArticleView(article database.RawArticle) articleView {
	return articleView{
		ID:           article.ID,
		CanonicalID:  article.CanonicalID,
		SourceID:     article.SourceID,
		SourceName:   article.SourceName,
		Category:     article.Category,
		Title:        article.Title,
		URL:          article.URL,
		Author:       article.Author,
		Description:  article.Description,
		Content:      article.Content,
		ImageURL:     article.ImageURL,
		Language:     article.Language,
		PublishedAt:  article.PublishedAt,
		Status:       article.Status,
		ErrorMessage: article.ErrorMessage,
		CreatedAt:    article.CreatedAt,
		UpdatedAt:    article.UpdatedAt,
	}
}

func newTranslationView(translation database.PostTranslation) *translationView {
	if translation.TranslatedAt == nil {
		return nil
	}
	return &translationView{
		Headline:     translation.Headline,
		Summary:      translation.Summary,
		Body:         translation.Body,
		Hashtags:     translation.Hashtags,
		Attribution:  translation.Attribution,
		Language:     translation.Language,
		TranslatedAt: translation.TranslatedAt,
	}
}

func newPostView(post database.GeneratedPost) postView {
	return postView{
		ID:           post.ID,
		RawArticleID: post.RawArticleID,
		Category:     post.Category,
		Headline:     post.Headline,
		Summary:      post.Summary,
		Body:         post.Body,
		Hashtags:     post.Hashtags,
		Attribution:  post.Attribution,
		Translation:  newTranslationView(post.Translation),
		Status:       post.Status,
		GeneratedBy:  post.GeneratedBy,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
}
