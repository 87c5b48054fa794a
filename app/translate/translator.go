// Package translate renders English post text in the target language through
// a prioritised chain of translation providers.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/errs"
)

const (
	DefaultSourceLang = "en"
	DefaultTargetLang = "si"
)

// Translator translates a single text. The reference is context for
// providers that accept it and is never translated itself.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, reference string) (string, error)
}

type ChainConfig struct {
	Mock                 bool
	GeminiAPIKey         string
	GeminiModel          string
	GeminiBaseURL        string
	LibreTranslateURL    string
	LibreTranslateAPIKey string
	MyMemoryURL          string
	SourceLang           string
	TargetLang           string
	HTTPClient           *http.Client
}

// NewChain builds the provider chain in priority order. Mock mode replaces
// the chain entirely.
func NewChain(config ChainConfig) []Translator {
	if config.Mock {
		return []Translator{NewMockTranslator()}
	}

	var chain []Translator
	if config.GeminiAPIKey != "" {
		chain = append(chain, NewGeminiTranslator(config.HTTPClient, config.GeminiBaseURL, config.GeminiAPIKey, config.GeminiModel))
	}
	if config.LibreTranslateURL != "" {
		chain = append(chain, NewLibreTranslator(config.HTTPClient, config.LibreTranslateURL, config.LibreTranslateAPIKey, config.SourceLang, config.TargetLang))
	}
	chain = append(chain, NewMyMemoryTranslator(config.HTTPClient, config.MyMemoryURL, config.SourceLang, config.TargetLang))

	return chain
}

type Orchestrator struct {
	chain       []Translator
	articleRepo database.ArticleRepository
	postRepo    database.PostRepository
	targetLang  string
}

func NewOrchestrator(chain []Translator, articleRepo database.ArticleRepository, postRepo database.PostRepository, targetLang string) *Orchestrator {
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}
	return &Orchestrator{
		chain:       chain,
		articleRepo: articleRepo,
		postRepo:    postRepo,
		targetLang:  targetLang,
	}
}

// Translate walks the chain until a provider returns a non-empty result that
// differs from the input.
func (o *Orchestrator) Translate(ctx context.Context, text, reference string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is required", errs.ErrInvalidInput)
	}
	if len(o.chain) == 0 {
		return "", fmt.Errorf("%w: no translation providers configured", errs.ErrConfiguration)
	}

	var failures []error
	for _, translator := range o.chain {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := translator.Translate(ctx, text, reference)
		if err == nil {
			out = strings.TrimSpace(out)
			switch {
			case out == "":
				err = fmt.Errorf("%w: empty translation", errs.ErrUpstreamFormat)
			case IsEcho(text, out):
				err = fmt.Errorf("%w: translation equals the input", errs.ErrQuality)
			default:
				return out, nil
			}
		}

		slog.Warn("Translator failed, trying next", "translator", translator.Name(), "error", err)
		failures = append(failures, fmt.Errorf("%s: %w", translator.Name(), err))
	}

	return "", fmt.Errorf("all translators failed: %w", errors.Join(failures...))
}

// TranslateText translates a single text. When reference is empty and a raw
// article id is given, the article's title and description are used instead.
func (o *Orchestrator) TranslateText(ctx context.Context, text, reference, rawArticleID string) (string, error) {
	if reference == "" && rawArticleID != "" && o.articleRepo != nil {
		article, err := o.articleRepo.GetRawArticle(ctx, rawArticleID)
		if err != nil {
			slog.Warn("Failed to load translation context", "article_id", rawArticleID, "error", err)
		} else if article != nil {
			reference = strings.TrimSpace(article.Title + ". " + article.Description)
		}
	}
	return o.Translate(ctx, text, reference)
}

// TranslatePost translates every English field of a post and stores the
// result in one update. Nothing is stored if any field fails.
func (o *Orchestrator) TranslatePost(ctx context.Context, postID string) (*database.PostTranslation, error) {
	post, err := o.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post %s", errs.ErrNotFound, postID)
	}
	if post.Headline == "" || post.Summary == "" || post.Body == "" {
		return nil, fmt.Errorf("%w: post %s has no English content to translate", errs.ErrInvalidInput, postID)
	}

	translation := database.PostTranslation{Language: o.targetLang}

	fields := []struct {
		name   string
		source string
		target *string
	}{
		{"headline", post.Headline, &translation.Headline},
		{"summary", post.Summary, &translation.Summary},
		{"body", post.Body, &translation.Body},
		{"attribution", post.Attribution, &translation.Attribution},
	}
	for _, field := range fields {
		if field.source == "" {
			continue
		}
		out, err := o.Translate(ctx, field.source, "")
		if err != nil {
			return nil, fmt.Errorf("failed to translate %s: %w", field.name, err)
		}
		*field.target = out
	}

	translation.Hashtags = make([]string, 0, len(post.Hashtags))
	for _, tag := range post.Hashtags {
		bare := strings.TrimPrefix(tag, "#")
		if bare == "" {
			continue
		}
		out, err := o.Translate(ctx, bare, "")
		if err != nil {
			return nil, fmt.Errorf("failed to translate hashtag %s: %w", tag, err)
		}
		translation.Hashtags = append(translation.Hashtags, "#"+strings.TrimPrefix(out, "#"))
	}

	now := time.Now().UTC()
	translation.TranslatedAt = &now

	if err := o.postRepo.SaveTranslation(ctx, post.ID, translation); err != nil {
		return nil, err
	}

	slog.Info("Post translated", "post_id", post.ID, "language", o.targetLang)
	return &translation, nil
}
