package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const articlePage = `
<!DOCTYPE html>
<html>
<head>
	<title>City Council Approves Budget</title>
</head>
<body>
	<nav>
		<a href="/">Home</a> <a href="/world">World</a> <a href="/sport">Sport</a> Navigation menu links
	</nav>
	<article>
		<h1>City Council Approves Budget</h1>
		<p>The city council approved a new budget on Tuesday, allocating more funds to public transport, schools, and road maintenance across all districts.</p>
		<p>According to the finance committee, the budget grows by 4% compared to last year, driven mostly by higher infrastructure spending and new hiring in education.</p>
		<p>Council members debated for several hours before the final vote, with the majority agreeing that the transport upgrades could no longer be delayed.</p>
		<p>The mayor said the plan would be reviewed again in the spring, once the first quarterly reports on spending and revenue are published.</p>
	</article>
	<footer>
		<p>Footer text: Copyright 2024 Example News. All rights reserved.</p>
	</footer>
</body>
</html>
`

func TestExtractExcludesNavigationAndFooter(t *testing.T) {
	extractor := NewExtractor(nil, DefaultExtractorConfig())
	pageURL, _ := url.Parse("https://example.com/news/budget")

	text, _, ok := extractor.Extract([]byte(articlePage), pageURL)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}

	if !strings.Contains(text, "approved a new budget") {
		t.Errorf("Expected extracted content to contain article text, got: %s", text)
	}
	if strings.Contains(text, "Navigation menu links") {
		t.Errorf("Expected extracted content to exclude navigation, got: %s", text)
	}
	if strings.Contains(text, "Footer text") {
		t.Errorf("Expected extracted content to exclude footer, got: %s", text)
	}
}

func TestExtractStructuralTier(t *testing.T) {
	extractor := NewExtractor(nil, ExtractorConfig{DisableReadability: true})

	text, strategy, ok := extractor.Extract([]byte(articlePage), nil)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if strategy != StrategyStructural {
		t.Errorf("Expected strategy %s, got: %s", StrategyStructural, strategy)
	}
	if !strings.Contains(text, "finance committee") {
		t.Errorf("Expected article text, got: %s", text)
	}
	if strings.Contains(text, "Navigation menu links") || strings.Contains(text, "Footer text") {
		t.Errorf("Expected noise to be removed, got: %s", text)
	}
}

func TestExtractContentClassDiv(t *testing.T) {
	page := `<html><body>
		<div class="sidebar">Short sidebar</div>
		<div class="story-content">` + strings.Repeat("Detailed reporting on the harbour expansion project continues. ", 6) + `</div>
	</body></html>`

	extractor := NewExtractor(nil, ExtractorConfig{DisableReadability: true})
	text, strategy, ok := extractor.Extract([]byte(page), nil)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if strategy != StrategyStructural {
		t.Errorf("Expected strategy %s, got: %s", StrategyStructural, strategy)
	}
	if strings.Contains(text, "Short sidebar") {
		t.Errorf("Expected sidebar to be excluded, got: %s", text)
	}
}

func TestExtractParagraphTier(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 5; i++ {
		paragraphs = append(paragraphs, `<p>This paragraph carries enough words about the regional election results to be kept.</p>`)
	}
	paragraphs = append(paragraphs, `<p>Too short.</p>`)
	page := `<html><body><div class="wrapper">` + strings.Join(paragraphs, "\n") + `</div></body></html>`

	extractor := NewExtractor(nil, ExtractorConfig{DisableReadability: true})
	text, strategy, ok := extractor.Extract([]byte(page), nil)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if strategy != StrategyParagraphs {
		t.Errorf("Expected strategy %s, got: %s", StrategyParagraphs, strategy)
	}
	if strings.Contains(text, "Too short.") {
		t.Errorf("Expected short paragraph to be dropped, got: %s", text)
	}
	if !strings.Contains(text, "\n\n") {
		t.Errorf("Expected paragraphs joined with blank lines, got: %q", text)
	}
}

func TestExtractAggressiveTier(t *testing.T) {
	page := `<html><body><ul>
		<li>First list entry describing the storm damage along the coastline in some detail.</li>
		<li>Second list entry describing the recovery effort and the volunteers who joined it.</li>
		<li>Third list entry describing the insurance claims filed by residents this week.</li>
	</ul></body></html>`

	extractor := NewExtractor(nil, ExtractorConfig{DisableReadability: true})
	text, strategy, ok := extractor.Extract([]byte(page), nil)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if strategy != StrategyAggressive {
		t.Errorf("Expected strategy %s, got: %s", StrategyAggressive, strategy)
	}
	if !strings.Contains(text, "recovery effort") {
		t.Errorf("Expected list text, got: %s", text)
	}
}

func TestExtractInsufficientContent(t *testing.T) {
	extractor := NewExtractor(nil, ExtractorConfig{DisableReadability: true})

	if _, _, ok := extractor.Extract([]byte(`<html><body><p>tiny</p></body></html>`), nil); ok {
		t.Error("Expected extraction to fail for tiny page")
	}
	if _, _, ok := extractor.Extract(nil, nil); ok {
		t.Error("Expected extraction to fail for empty data")
	}
}

func TestExtractTruncatesToMaxLength(t *testing.T) {
	page := `<html><body><article>` + strings.Repeat("Long article sentence for truncation checks. ", 100) + `</article></body></html>`

	extractor := NewExtractor(nil, ExtractorConfig{DisableReadability: true, MaxLength: 300})
	text, _, ok := extractor.Extract([]byte(page), nil)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if runeLen(text) > 300 {
		t.Errorf("Expected at most 300 chars, got %d", runeLen(text))
	}
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUserAgent, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client(), DefaultExtractorConfig())
	text, ok := extractor.Fetch(context.Background(), server.URL+"/news/budget")
	if !ok {
		t.Fatal("Expected fetch to succeed")
	}
	if !strings.Contains(text, "approved a new budget") {
		t.Errorf("Expected article text, got: %s", text)
	}
	if gotUserAgent != BrowserUserAgent {
		t.Errorf("Expected browser user agent, got: %s", gotUserAgent)
	}
	if gotReferer != "https://www.google.com/" {
		t.Errorf("Expected google referer, got: %s", gotReferer)
	}
}

func TestFetchNon2xxIsHardFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client(), DefaultExtractorConfig())
	if _, ok := extractor.Fetch(context.Background(), server.URL); ok {
		t.Error("Expected non-2xx response to fail")
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	extractor := NewExtractor(server.Client(), ExtractorConfig{Timeout: 50 * time.Millisecond})

	start := time.Now()
	if _, ok := extractor.Fetch(context.Background(), server.URL); ok {
		t.Error("Expected timeout to fail")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected fetch to give up quickly, took %s", elapsed)
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags(`<div><script>var x = 1;</script><p>Fish &amp; Chips</p><p>&quot;Quoted&quot;&nbsp;text</p></div>`)
	expected := `Fish & Chips "Quoted" text`
	if got != expected {
		t.Errorf("Expected '%s', got '%s'", expected, got)
	}
}

func TestClean(t *testing.T) {
	got := Clean("  First   line \n\n\n\n Second\tline  ", 0)
	expected := "First line\n\nSecond line"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
