// Package ingest pulls items from configured sources and stores each article
// once per canonical URL.
package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/canonical"
	"github.com/lysyi3m/news-comb/app/content"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/errs"
	"github.com/lysyi3m/news-comb/app/feed"
)

const (
	MessageNoItems    = "no-items-in-feed"
	MessageNoArticles = "no-articles"
)

type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

type Result struct {
	Sources  int           `json:"sources"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Errors   []SourceError `json:"errors"`
}

// Fetcher downloads a source document.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// SnippetDetector decides whether stored content needs a full-text backfill.
type SnippetDetector interface {
	IsLikelySnippet(text string) bool
}

// Backfiller queues a background content backfill for a stored article.
type Backfiller interface {
	Enqueue(article database.RawArticle) error
}

type Config struct {
	NewsAPIKey string
	Timeout    time.Duration
}

type Ingestor struct {
	sourceRepo  database.SourceRepository
	articleRepo database.ArticleRepository
	fetcher     Fetcher
	parser      *feed.Parser
	filterer    *feed.Filterer
	detector    SnippetDetector
	backfiller  Backfiller
	config      Config
}

func NewIngestor(sourceRepo database.SourceRepository, articleRepo database.ArticleRepository, fetcher Fetcher, parser *feed.Parser, filterer *feed.Filterer, detector SnippetDetector, backfiller Backfiller, config Config) *Ingestor {
	return &Ingestor{
		sourceRepo:  sourceRepo,
		articleRepo: articleRepo,
		fetcher:     fetcher,
		parser:      parser,
		filterer:    filterer,
		detector:    detector,
		backfiller:  backfiller,
		config:      config,
	}
}

// Run ingests every enabled source of sourceType sequentially. Per-source
// failures are recorded in the result and never abort the run.
func (i *Ingestor) Run(ctx context.Context, sourceType string) (*Result, error) {
	sources, err := i.sourceRepo.ListEnabledSources(ctx, sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	result := &Result{Sources: len(sources), Errors: []SourceError{}}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		i.runSource(ctx, source, result)
	}

	slog.Info("Ingestion completed",
		"type", sourceType,
		"sources", result.Sources,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	return result, nil
}

func (i *Ingestor) runSource(ctx context.Context, source database.Source, result *Result) {
	items, err := i.fetchItems(ctx, source)
	if err != nil {
		result.Errors = append(result.Errors, SourceError{Source: source.Name, Message: err.Error()})
		slog.Warn("Source ingestion failed", "source", source.Name, "error", err)

		if errors.Is(err, errs.ErrConfiguration) {
			return
		}
		if incErr := i.sourceRepo.IncrementSourceFailures(ctx, source.ID); incErr != nil {
			slog.Error("Failed to increment source failures", "source", source.Name, "error", incErr)
		}
		return
	}

	if len(items) == 0 {
		message := MessageNoItems
		if source.Type == database.SourceTypeNewsAPI {
			message = MessageNoArticles
		}
		result.Errors = append(result.Errors, SourceError{Source: source.Name, Message: message})
		slog.Warn("Source returned no items", "source", source.Name)

		if err := i.sourceRepo.IncrementSourceFailures(ctx, source.ID); err != nil {
			slog.Error("Failed to increment source failures", "source", source.Name, "error", err)
		}
		return
	}
	if source.MaxItems > 0 && len(items) > source.MaxItems {
		items = items[:source.MaxItems]
	}

	filters := make([]feed.ConfigFilter, 0, len(source.Filters))
	for _, filter := range source.Filters {
		filters = append(filters, feed.ConfigFilter(filter))
	}

	inserted, skipped := 0, 0
	for _, item := range i.filterer.Run(items, filters) {
		if item.IsFiltered {
			slog.Debug("Item filtered", "source", source.Name, "link", item.Link, "reason", item.FilterReason)
			skipped++
			continue
		}

		stored, err := i.storeItem(ctx, source, item)
		if err != nil {
			result.Errors = append(result.Errors, SourceError{Source: source.Name, Message: err.Error()})
			slog.Error("Failed to store article", "source", source.Name, "link", item.Link, "error", err)
			continue
		}
		if stored {
			inserted++
		} else {
			skipped++
		}
	}

	result.Inserted += inserted
	result.Skipped += skipped

	if err := i.sourceRepo.MarkSourceFetched(ctx, source.ID, time.Now().UTC()); err != nil {
		slog.Error("Failed to mark source fetched", "source", source.Name, "error", err)
	}

	slog.Debug("Source ingested", "source", source.Name, "total", len(items), "inserted", inserted, "skipped", skipped)
}

func (i *Ingestor) fetchItems(ctx context.Context, source database.Source) ([]feed.Item, error) {
	timeout := i.config.Timeout
	if source.Timeout > 0 {
		timeout = time.Duration(source.Timeout) * time.Second
	}

	switch source.Type {
	case database.SourceTypeRSS:
		data, err := i.fetcher.Fetch(ctx, source.URL, timeout)
		if err != nil {
			return nil, err
		}
		return i.parser.Run(data)

	case database.SourceTypeNewsAPI:
		url := source.URL
		if url == "" {
			if i.config.NewsAPIKey == "" {
				return nil, fmt.Errorf("%w: NEWSAPI_KEY is not set", errs.ErrConfiguration)
			}
			url = feed.NewsAPIURL(source.Category, i.config.NewsAPIKey)
		}
		data, err := i.fetcher.Fetch(ctx, url, timeout)
		if err != nil {
			return nil, err
		}
		return feed.ParseNewsAPI(data)

	default:
		return nil, fmt.Errorf("%w: unknown source type %q", errs.ErrConfiguration, source.Type)
	}
}

// storeItem reports whether the item was new. Items without a link are
// skipped.
func (i *Ingestor) storeItem(ctx context.Context, source database.Source, item feed.Item) (bool, error) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return false, nil
	}

	normalized := canonical.Normalize(link)
	article := database.RawArticle{
		CanonicalID: canonical.ID(link),
		SourceID:    source.ID,
		SourceName:  source.Name,
		Category:    source.Category,
		Title:       cmp.Or(content.StripTags(item.Title), normalized),
		URL:         normalized,
		Author:      strings.Join(item.Authors, ", "),
		Description: content.StripTags(item.Description),
		Content:     content.StripTags(item.Content),
		ImageURL:    item.ImageURL,
		Language:    "en",
		PublishedAt: item.PublishedAt,
	}

	id, inserted, err := i.articleRepo.UpsertRawArticle(ctx, article)
	if err != nil {
		return false, err
	}

	if inserted && i.backfiller != nil && i.detector != nil && i.detector.IsLikelySnippet(article.Content) {
		article.ID = id
		if err := i.backfiller.Enqueue(article); err != nil {
			slog.Warn("Failed to queue content backfill", "article_id", id, "error", err)
		}
	}

	return inserted, nil
}
