package content

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Fetcher retrieves the full text of an article page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, bool)
}

var _ Fetcher = (*Extractor)(nil)

type GateConfig struct {
	MinArticleLength  int     // below this existing content is treated as a snippet
	ReplaceRatio      float64 // fetched text must exceed existing*ratio to replace substantial content
	IndicatorLength   int     // substantial content shorter than this may still be incomplete
	FallbackMinLength int     // minimum length for existing content/description fallbacks
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinArticleLength:  2000,
		ReplaceRatio:      1.3,
		IndicatorLength:   3000,
		FallbackMinLength: 100,
	}
}

var (
	snippetPhrases = []string{
		"check the original source",
		"Read more",
		"Continue reading",
		"...",
		"…",
	}
	charsAnnotationPattern = regexp.MustCompile(`\[\+\d+ chars\]`)
)

// Gate decides whether stored article content is good enough or should be
// replaced by text fetched from the article page.
type Gate struct {
	fetcher Fetcher
	config  GateConfig
}

func NewGate(fetcher Fetcher, config GateConfig) *Gate {
	defaults := DefaultGateConfig()
	if config.MinArticleLength <= 0 {
		config.MinArticleLength = defaults.MinArticleLength
	}
	if config.ReplaceRatio <= 0 {
		config.ReplaceRatio = defaults.ReplaceRatio
	}
	if config.IndicatorLength <= 0 {
		config.IndicatorLength = defaults.IndicatorLength
	}
	if config.FallbackMinLength <= 0 {
		config.FallbackMinLength = defaults.FallbackMinLength
	}

	return &Gate{
		fetcher: fetcher,
		config:  config,
	}
}

// IsLikelySnippet reports whether text looks like a truncated stand-in for
// the real article body.
func (g *Gate) IsLikelySnippet(text string) bool {
	if text == "" || runeLen(text) < g.config.MinArticleLength {
		return true
	}
	return hasSnippetMarkers(text)
}

func hasSnippetMarkers(text string) bool {
	for _, phrase := range snippetPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return charsAnnotationPattern.MatchString(text)
}

// EnsureArticleContent returns the best available body for the article at
// pageURL, fetching the page even when the existing content looks complete.
func (g *Gate) EnsureArticleContent(ctx context.Context, pageURL, existingContent, existingDescription string) string {
	existingLength := runeLen(existingContent)

	if g.IsLikelySnippet(existingContent) {
		slog.Debug("Content looks like a snippet, fetching full article", "url", pageURL, "existing_length", existingLength)

		if fetched, ok := g.fetch(ctx, pageURL); ok {
			fetchedLength := runeLen(fetched)
			if fetchedLength > g.config.MinArticleLength {
				return fetched
			}
			if fetchedLength > existingLength {
				slog.Debug("Using shorter fetched content", "url", pageURL, "fetched_length", fetchedLength, "existing_length", existingLength)
				return fetched
			}
		}
	} else {
		if fetched, ok := g.fetch(ctx, pageURL); ok {
			fetchedLength := runeLen(fetched)
			incomplete := strings.Contains(existingContent, "...") ||
				strings.Contains(existingContent, "[+") ||
				existingLength < g.config.IndicatorLength

			if float64(fetchedLength) > float64(existingLength)*g.config.ReplaceRatio {
				slog.Debug("Fetched content is significantly longer", "url", pageURL, "fetched_length", fetchedLength, "existing_length", existingLength)
				return fetched
			}
			if fetchedLength > existingLength && incomplete {
				slog.Debug("Fetched content is longer and existing may be incomplete", "url", pageURL, "fetched_length", fetchedLength, "existing_length", existingLength)
				return fetched
			}
		}
		return existingContent
	}

	if existingLength > g.config.FallbackMinLength {
		return existingContent
	}
	if runeLen(existingDescription) > g.config.FallbackMinLength {
		return existingDescription
	}

	slog.Warn("No substantial content found", "url", pageURL)
	return ""
}

func (g *Gate) fetch(ctx context.Context, pageURL string) (string, bool) {
	if strings.TrimSpace(pageURL) == "" || g.fetcher == nil {
		return "", false
	}
	return g.fetcher.Fetch(ctx, pageURL)
}
