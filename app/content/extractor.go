package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultFetchTimeout = 20 * time.Second
	DefaultMinLength    = 200
	DefaultMaxLength    = 15000

	maxPageBytes         = 5 << 20
	excerptPrefixLength  = 50
	paragraphMinLength   = 50
	aggressiveMinLength  = 40
	aggressiveTopBlocks  = 10
	minParagraphsForTier = 3
)

const (
	StrategyReadability = "readability"
	StrategyStructural  = "structural"
	StrategyParagraphs  = "paragraphs"
	StrategyAggressive  = "aggressive"
)

var noiseSelector = "script, style, noscript, nav, header, footer, aside, form"

var structuralSelectors = []string{
	"article",
	"main",
	`div[class*="article"], div[id*="article"]`,
	`div[class*="content"], div[id*="content"]`,
	`div[class*="post"], div[id*="post"]`,
}

type ExtractorConfig struct {
	Timeout            time.Duration
	MinLength          int
	MaxLength          int
	DisableReadability bool
}

func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Timeout:   DefaultFetchTimeout,
		MinLength: DefaultMinLength,
		MaxLength: DefaultMaxLength,
	}
}

// Extractor fetches article pages and derives their full text through an
// ordered cascade of strategies.
type Extractor struct {
	httpClient *http.Client
	config     ExtractorConfig
}

func NewExtractor(httpClient *http.Client, config ExtractorConfig) *Extractor {
	defaults := DefaultExtractorConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MinLength <= 0 {
		config.MinLength = defaults.MinLength
	}
	if config.MaxLength <= 0 {
		config.MaxLength = defaults.MaxLength
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Extractor{
		httpClient: httpClient,
		config:     config,
	}
}

// Fetch downloads pageURL and extracts its article text. The boolean is false
// when the page could not be fetched or no strategy produced enough text.
func (e *Extractor) Fetch(ctx context.Context, pageURL string) (string, bool) {
	data, err := e.fetchPage(ctx, pageURL)
	if err != nil {
		slog.Warn("Article fetch failed", "url", pageURL, "error", err)
		return "", false
	}

	parsedURL, _ := url.Parse(pageURL)

	text, strategy, ok := e.Extract(data, parsedURL)
	if !ok {
		slog.Warn("No strategy extracted sufficient content", "url", pageURL, "bytes", len(data))
		return "", false
	}

	slog.Debug("Content extracted", "url", pageURL, "strategy", strategy, "content_length", runeLen(text))
	return text, true
}

// Extract runs the strategy cascade over an already fetched page.
func (e *Extractor) Extract(data []byte, pageURL *url.URL) (string, string, bool) {
	if len(data) == 0 {
		return "", "", false
	}

	if !e.config.DisableReadability {
		if text := e.readabilityText(data, pageURL); text != "" {
			return Clean(text, e.config.MaxLength), StrategyReadability, true
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Failed to parse HTML document", "error", err)
		return "", "", false
	}
	doc.Find(noiseSelector).Remove()

	if text := e.structuralText(doc); text != "" {
		return Clean(text, e.config.MaxLength), StrategyStructural, true
	}

	if text := e.paragraphText(doc); text != "" {
		return Clean(text, e.config.MaxLength), StrategyParagraphs, true
	}

	if e.config.DisableReadability {
		if text := e.aggressiveText(doc); text != "" {
			return Clean(text, e.config.MaxLength), StrategyAggressive, true
		}
	}

	return "", "", false
}

func (e *Extractor) readabilityText(data []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		slog.Debug("Readability extraction failed", "error", err)
		return ""
	}

	var text string
	if plain := strings.TrimSpace(article.TextContent); runeLen(plain) > e.config.MinLength {
		text = plain
	}

	if article.Content != "" {
		if stripped := StripTags(article.Content); runeLen(stripped) > runeLen(text) {
			text = stripped
		}
	}

	if excerpt := strings.TrimSpace(article.Excerpt); runeLen(excerpt) > excerptPrefixLength {
		prefix := string([]rune(excerpt)[:excerptPrefixLength])
		if !strings.Contains(text, prefix) {
			text = excerpt + "\n\n" + text
		}
	}

	if runeLen(text) > e.config.MinLength {
		return text
	}
	return ""
}

func (e *Extractor) structuralText(doc *goquery.Document) string {
	for _, selector := range structuralSelectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			markup, err := goquery.OuterHtml(sel)
			if err != nil {
				return true
			}
			if text := StripTags(markup); runeLen(text) > e.config.MinLength {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (e *Extractor) paragraphText(doc *goquery.Document) string {
	paragraphs := doc.Find("p")
	if paragraphs.Length() <= minParagraphsForTier {
		return ""
	}

	var kept []string
	paragraphs.Each(func(_ int, sel *goquery.Selection) {
		markup, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}
		if text := StripTags(markup); runeLen(text) > paragraphMinLength {
			kept = append(kept, text)
		}
	})

	joined := strings.Join(kept, "\n\n")
	if runeLen(joined) > e.config.MinLength {
		return joined
	}
	return ""
}

func (e *Extractor) aggressiveText(doc *goquery.Document) string {
	var blocks []string
	doc.Find("p, div, section, li, blockquote, td").Each(func(_ int, sel *goquery.Selection) {
		if text := ownText(sel); runeLen(text) > aggressiveMinLength {
			blocks = append(blocks, text)
		}
	})

	sort.SliceStable(blocks, func(i, j int) bool {
		return runeLen(blocks[i]) > runeLen(blocks[j])
	})
	if len(blocks) > aggressiveTopBlocks {
		blocks = blocks[:aggressiveTopBlocks]
	}

	joined := strings.Join(blocks, "\n\n")
	if runeLen(joined) > e.config.MinLength {
		return joined
	}
	return ""
}

// ownText joins the element's direct text children, ignoring nested elements.
func ownText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) != "#text" {
			return
		}
		if text := strings.TrimSpace(child.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return StripTags(strings.Join(parts, " "))
}

func (e *Extractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
