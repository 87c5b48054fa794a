package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/errs"
)

func TestNewsAPIURL(t *testing.T) {
	tests := []struct {
		category string
		expected string
	}{
		{"tech", "technology"},
		{"entertainment", "entertainment"},
		{"global", "general"},
		{"anime_comics", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			parsed, err := url.Parse(NewsAPIURL(tt.category, "secret"))
			if err != nil {
				t.Fatal(err)
			}

			query := parsed.Query()
			if query.Get("category") != tt.expected {
				t.Errorf("Expected category %s, got %s", tt.expected, query.Get("category"))
			}
			if query.Get("language") != "en" || query.Get("pageSize") != "50" || query.Get("apiKey") != "secret" {
				t.Errorf("Unexpected query: %s", parsed.RawQuery)
			}
			if parsed.Host != "newsapi.org" || parsed.Path != "/v2/top-headlines" {
				t.Errorf("Unexpected endpoint: %s", parsed.String())
			}
		})
	}
}

func TestParseNewsAPI(t *testing.T) {
	payload := `{
		"status": "ok",
		"totalResults": 2,
		"articles": [
			{
				"source": {"id": null, "name": "Example"},
				"author": "Jane Doe",
				"title": "Headline one",
				"description": "Short description",
				"url": "https://example.com/one",
				"urlToImage": "https://example.com/one.jpg",
				"publishedAt": "2024-05-01T12:00:00Z",
				"content": "Snippet text… [+1234 chars]"
			},
			{
				"source": {"name": "Example"},
				"author": null,
				"title": "Headline two",
				"url": "https://example.com/two",
				"publishedAt": null
			}
		]
	}`

	items, err := ParseNewsAPI([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Link != "https://example.com/one" || first.ImageURL != "https://example.com/one.jpg" {
		t.Errorf("Unexpected first item: %+v", first)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published date, got %v", first.PublishedAt)
	}
	if len(first.Authors) != 1 || first.Authors[0] != "Jane Doe" {
		t.Errorf("Expected author Jane Doe, got %v", first.Authors)
	}
	if first.Publisher != "Example" {
		t.Errorf("Expected publisher from source name, got %q", first.Publisher)
	}

	if len(items[1].Authors) != 0 || items[1].PublishedAt != nil {
		t.Errorf("Expected null fields to stay empty, got %+v", items[1])
	}
}

func TestParseNewsAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", "<html>"},
		{"error status", `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNewsAPI([]byte(tt.payload))
			if !errors.Is(err, errs.ErrUpstreamFormat) {
				t.Errorf("Expected upstream format failure, got %v", err)
			}
		})
	}
}

func TestClientFetch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "NewsComb/1.0")

	data, err := client.Fetch(context.Background(), server.URL+"/feed", time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "<rss></rss>" {
		t.Errorf("Unexpected body: %s", data)
	}
	if gotUserAgent != "NewsComb/1.0" {
		t.Errorf("Expected user agent NewsComb/1.0, got %s", gotUserAgent)
	}

	if _, err := client.Fetch(context.Background(), server.URL+"/missing", time.Second); !errors.Is(err, errs.ErrTransport) {
		t.Errorf("Expected transport failure for 404, got %v", err)
	}
}
