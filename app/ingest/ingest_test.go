package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lysyi3m/news-comb/app/content"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example</title>
    <item>
      <title>Council approves budget</title>
      <link>https://Example.com/budget?utm_source=rss#top</link>
      <description>Short snippet. Read more</description>
    </item>
    <item>
      <title>Sponsored: buy now</title>
      <link>https://example.com/ad</link>
    </item>
    <item>
      <title>No link here</title>
    </item>
  </channel>
</rss>`

type recordingBackfiller struct {
	mu       sync.Mutex
	articles []database.RawArticle
}

func (b *recordingBackfiller) Enqueue(article database.RawArticle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.articles = append(b.articles, article)
	return nil
}

type testEnv struct {
	db         *database.DB
	sources    *database.SourceRepo
	articles   *database.ArticleRepo
	backfiller *recordingBackfiller
	ingestor   *Ingestor
}

func newTestEnv(t *testing.T, config Config) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "news.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	env := &testEnv{
		db:         db,
		sources:    database.NewSourceRepository(db),
		articles:   database.NewArticleRepository(db),
		backfiller: &recordingBackfiller{},
	}
	env.ingestor = NewIngestor(
		env.sources,
		env.articles,
		feed.NewClient(nil, "NewsComb-Test/1.0"),
		feed.NewParser(),
		feed.NewFilterer(),
		content.NewGate(nil, content.DefaultGateConfig()),
		env.backfiller,
		config,
	)
	return env
}

func (env *testEnv) addSource(t *testing.T, source database.Source) *database.Source {
	t.Helper()
	stored, err := env.sources.UpsertSource(context.Background(), source)
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	return stored
}

func TestIngestTwiceStoresOneRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.addSource(t, database.Source{
		Name:     "example",
		Type:     database.SourceTypeRSS,
		URL:      server.URL,
		Category: "global",
		Enabled:  true,
		Filters:  []database.SourceFilter{{Field: "title", Excludes: []string{"sponsored"}}},
	})

	first, err := env.ingestor.Run(ctx, database.SourceTypeRSS)
	if err != nil {
		t.Fatalf("Expected first run to succeed, got: %v", err)
	}
	if first.Sources != 1 || first.Inserted != 1 {
		t.Errorf("Expected 1 source and 1 inserted, got %+v", first)
	}
	if first.Skipped != 2 {
		t.Errorf("Expected filtered and link-less items to be skipped, got %d", first.Skipped)
	}
	if len(first.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", first.Errors)
	}

	second, err := env.ingestor.Run(ctx, database.SourceTypeRSS)
	if err != nil {
		t.Fatalf("Expected second run to succeed, got: %v", err)
	}
	if second.Inserted != 0 || second.Skipped < 1 {
		t.Errorf("Expected second run to insert nothing and skip at least 1, got %+v", second)
	}

	articles, err := env.articles.ListRawArticles(ctx, "", 0)
	if err != nil {
		t.Fatalf("Failed to list articles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected exactly one stored article, got %d", len(articles))
	}
	if articles[0].URL != "https://example.com/budget" {
		t.Errorf("Expected normalized URL, got %s", articles[0].URL)
	}

	if len(env.backfiller.articles) != 1 || env.backfiller.articles[0].ID != articles[0].ID {
		t.Errorf("Expected one backfill for the new snippet article, got %d", len(env.backfiller.articles))
	}

	source, err := env.sources.GetSourceByName(ctx, "example")
	if err != nil {
		t.Fatal(err)
	}
	if source.LastFetchedAt == nil {
		t.Error("Expected last fetched timestamp to be set")
	}
}

func TestIngestContinuesAfterSourceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/garbage":
			w.Write([]byte("not a feed"))
		case "/empty":
			w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
		default:
			w.Write([]byte(testFeed))
		}
	}))
	defer server.Close()

	ctx := context.Background()
	env := newTestEnv(t, Config{})
	broken := env.addSource(t, database.Source{Name: "a-broken", Type: database.SourceTypeRSS, URL: server.URL + "/broken", Category: "global", Enabled: true})
	garbage := env.addSource(t, database.Source{Name: "b-garbage", Type: database.SourceTypeRSS, URL: server.URL + "/garbage", Category: "global", Enabled: true})
	empty := env.addSource(t, database.Source{Name: "c-empty", Type: database.SourceTypeRSS, URL: server.URL + "/empty", Category: "global", Enabled: true})
	env.addSource(t, database.Source{Name: "d-good", Type: database.SourceTypeRSS, URL: server.URL + "/feed", Category: "global", Enabled: true})

	result, err := env.ingestor.Run(ctx, database.SourceTypeRSS)
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}

	if result.Sources != 4 {
		t.Errorf("Expected 4 sources, got %d", result.Sources)
	}
	if result.Inserted != 2 {
		t.Errorf("Expected good source items to be inserted, got %d", result.Inserted)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("Expected 3 errors, got %v", result.Errors)
	}

	messages := map[string]string{}
	for _, e := range result.Errors {
		messages[e.Source] = e.Message
	}
	if messages["c-empty"] != MessageNoItems {
		t.Errorf("Expected %s for empty feed, got %q", MessageNoItems, messages["c-empty"])
	}

	for _, tt := range []struct {
		id       string
		failures int
	}{{broken.ID, 1}, {garbage.ID, 1}, {empty.ID, 1}} {
		source, err := env.sources.GetSource(ctx, tt.id)
		if err != nil {
			t.Fatal(err)
		}
		if source.FailureCount != tt.failures {
			t.Errorf("Expected %d failures for %s, got %d", tt.failures, source.Name, source.FailureCount)
		}
		if source.LastFetchedAt != nil {
			t.Errorf("Expected failed source %s not to be marked fetched", source.Name)
		}
	}
}

func TestIngestUntitledItemUsesLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Untitled</title>
    <item>
      <link>https://example.com/untitled?utm_medium=rss</link>
      <description>Body without a headline.</description>
    </item>
  </channel>
</rss>`))
	}))
	defer server.Close()

	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.addSource(t, database.Source{Name: "untitled", Type: database.SourceTypeRSS, URL: server.URL, Category: "global", Enabled: true})

	result, err := env.ingestor.Run(ctx, database.SourceTypeRSS)
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}
	if result.Inserted != 1 {
		t.Fatalf("Expected 1 inserted, got %+v", result)
	}

	articles, err := env.articles.ListRawArticles(ctx, "", 0)
	if err != nil {
		t.Fatalf("Failed to list articles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "https://example.com/untitled" {
		t.Errorf("Expected normalized link as title, got %q", articles[0].Title)
	}
}

func TestIngestNewsAPI(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"One","url":"https://example.com/one","content":"Snippet… [+100 chars]"},
			{"title":"One again","url":"https://example.com/one?utm_campaign=x"},
			{"title":"No url","url":""}
		]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	env := newTestEnv(t, Config{})
	env.addSource(t, database.Source{Name: "headlines", Type: database.SourceTypeNewsAPI, URL: server.URL + "/v2/top-headlines?country=us", Category: "tech", Enabled: true})

	result, err := env.ingestor.Run(ctx, database.SourceTypeNewsAPI)
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 2 {
		t.Errorf("Expected 1 inserted and 2 skipped, got %+v", result)
	}
	if !strings.Contains(gotQuery, "country=us") {
		t.Errorf("Expected configured URL to be used, got query %s", gotQuery)
	}
}

func TestIngestNewsAPIWithoutKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	source := env.addSource(t, database.Source{Name: "headlines", Type: database.SourceTypeNewsAPI, Category: "tech", Enabled: true})

	result, err := env.ingestor.Run(ctx, database.SourceTypeNewsAPI)
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "NEWSAPI_KEY") {
		t.Errorf("Expected configuration error, got %v", result.Errors)
	}

	stored, err := env.sources.GetSource(ctx, source.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FailureCount != 0 {
		t.Errorf("Expected configuration errors not to count as source failures, got %d", stored.FailureCount)
	}
}

func TestIngestSkipsDisabledSources(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.addSource(t, database.Source{Name: "off", Type: database.SourceTypeRSS, URL: "http://127.0.0.1:1/feed", Category: "global", Enabled: false})

	result, err := env.ingestor.Run(context.Background(), database.SourceTypeRSS)
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}
	if result.Sources != 0 || len(result.Errors) != 0 {
		t.Errorf("Expected disabled source to be ignored, got %+v", result)
	}
}

func TestIngestRespectsMaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	env := newTestEnv(t, Config{})
	env.addSource(t, database.Source{Name: "capped", Type: database.SourceTypeRSS, URL: server.URL, Category: "global", Enabled: true, MaxItems: 1, Timeout: 5})

	result, err := env.ingestor.Run(context.Background(), database.SourceTypeRSS)
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 0 {
		t.Errorf("Expected only the first item to be considered, got %+v", result)
	}
}
