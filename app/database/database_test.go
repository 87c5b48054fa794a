package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/errs"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "news.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("Expected clean version 1, got %d (dirty=%v)", version, dirty)
	}

	return db
}

func createTestSource(t *testing.T, repo *SourceRepo, name string) *Source {
	t.Helper()

	source, err := repo.UpsertSource(context.Background(), Source{
		Name:     name,
		Type:     SourceTypeRSS,
		URL:      "https://example.com/" + name + ".xml",
		Category: "tech",
		Enabled:  true,
		Filters:  []SourceFilter{{Field: "title", Excludes: []string{"sponsored"}}},
	})
	if err != nil {
		t.Fatalf("Failed to upsert source: %v", err)
	}
	return source
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, _, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected second migration run to succeed, got: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
}

func TestSourceUpsertAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewSourceRepository(newTestDB(t))

	source := createTestSource(t, repo, "techwire")
	if source.ID == "" {
		t.Fatal("Expected source ID to be set")
	}
	if len(source.Filters) != 1 || source.Filters[0].Excludes[0] != "sponsored" {
		t.Errorf("Expected filters to round-trip, got %+v", source.Filters)
	}

	if err := repo.IncrementSourceFailures(ctx, source.ID); err != nil {
		t.Fatalf("Failed to increment failures: %v", err)
	}

	again, err := repo.UpsertSource(ctx, Source{Name: "techwire", Type: SourceTypeRSS, URL: "https://example.com/new.xml", Category: "tech", Enabled: true})
	if err != nil {
		t.Fatalf("Failed to upsert source again: %v", err)
	}
	if again.ID != source.ID {
		t.Errorf("Expected upsert by name to keep ID %s, got %s", source.ID, again.ID)
	}
	if again.URL != "https://example.com/new.xml" {
		t.Errorf("Expected URL to be updated, got %s", again.URL)
	}
	if again.FailureCount != 1 {
		t.Errorf("Expected failure count to survive upsert, got %d", again.FailureCount)
	}

	disabled := false
	updated, err := repo.UpdateSource(ctx, source.ID, SourceUpdate{Enabled: &disabled, ResetFailures: true})
	if err != nil {
		t.Fatalf("Failed to update source: %v", err)
	}
	if updated.Enabled || updated.FailureCount != 0 {
		t.Errorf("Expected disabled source with reset failures, got enabled=%v failures=%d", updated.Enabled, updated.FailureCount)
	}

	enabled, err := repo.ListEnabledSources(ctx, SourceTypeRSS)
	if err != nil {
		t.Fatalf("Failed to list enabled sources: %v", err)
	}
	if len(enabled) != 0 {
		t.Errorf("Expected no enabled sources, got %d", len(enabled))
	}

	if _, err := repo.UpdateSource(ctx, "missing", SourceUpdate{}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing source, got %v", err)
	}
}

func TestSourceMarkFetched(t *testing.T) {
	ctx := context.Background()
	repo := NewSourceRepository(newTestDB(t))
	source := createTestSource(t, repo, "daily")

	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.MarkSourceFetched(ctx, source.ID, fetchedAt); err != nil {
		t.Fatalf("Failed to mark source fetched: %v", err)
	}

	loaded, err := repo.GetSource(ctx, source.ID)
	if err != nil {
		t.Fatalf("Failed to get source: %v", err)
	}
	if loaded.LastFetchedAt == nil || !loaded.LastFetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected last fetched at %v, got %v", fetchedAt, loaded.LastFetchedAt)
	}

	missing, err := repo.GetSourceByName(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil source without error, got %v, %v", missing, err)
	}
}

func TestUpsertRawArticleDeduplicates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	source := createTestSource(t, NewSourceRepository(db), "feed")
	repo := NewArticleRepository(db)

	article := RawArticle{
		CanonicalID: "abc123",
		SourceID:    source.ID,
		SourceName:  source.Name,
		Title:       "Original title",
		URL:         "https://example.com/story",
		Content:     "Original content",
	}

	firstID, inserted, err := repo.UpsertRawArticle(ctx, article)
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	if !inserted {
		t.Error("Expected first upsert to insert")
	}

	article.Title = "Changed title"
	secondID, inserted, err := repo.UpsertRawArticle(ctx, article)
	if err != nil {
		t.Fatalf("Failed to upsert article: %v", err)
	}
	if inserted {
		t.Error("Expected second upsert to skip")
	}
	if secondID != firstID {
		t.Errorf("Expected same ID %s, got %s", firstID, secondID)
	}

	stored, err := repo.GetRawArticleByCanonicalID(ctx, "abc123")
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if stored.Title != "Original title" {
		t.Errorf("Expected set-once title, got %s", stored.Title)
	}
	if stored.Status != ArticleStatusQueued {
		t.Errorf("Expected status queued, got %s", stored.Status)
	}
	if stored.Language != "en" || stored.Category != "global" {
		t.Errorf("Expected default language and category, got %s/%s", stored.Language, stored.Category)
	}

	queued, err := repo.CountArticlesByStatus(ctx, ArticleStatusQueued)
	if err != nil {
		t.Fatalf("Failed to count articles: %v", err)
	}
	if queued != 1 {
		t.Errorf("Expected exactly one stored article, got %d", queued)
	}
}

func TestUpsertRawArticleRequiresCanonicalID(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	if _, _, err := repo.UpsertRawArticle(context.Background(), RawArticle{URL: "https://example.com"}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestArticleContentAndStatusUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewArticleRepository(newTestDB(t))

	id, _, err := repo.UpsertRawArticle(ctx, RawArticle{CanonicalID: "c1", Title: "T", URL: "https://example.com/1", Description: "desc"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	if err := repo.UpdateArticleContent(ctx, id, "Full article text"); err != nil {
		t.Fatalf("Failed to update content: %v", err)
	}
	if err := repo.UpdateArticleStatus(ctx, id, ArticleStatusFailed, "store error"); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	article, err := repo.GetRawArticle(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if article.Content != "Full article text" || article.Description != "desc" {
		t.Errorf("Expected only content to change, got content=%q description=%q", article.Content, article.Description)
	}
	if article.Status != ArticleStatusFailed || article.ErrorMessage != "store error" {
		t.Errorf("Expected failed status with message, got %s %q", article.Status, article.ErrorMessage)
	}

	if err := repo.UpdateArticleContent(ctx, "missing", "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestInsertGeneratedPostConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	articles := NewArticleRepository(db)
	posts := NewPostRepository(db)

	articleID, _, err := articles.UpsertRawArticle(ctx, RawArticle{CanonicalID: "p1", Title: "T", URL: "https://example.com/p1"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	post := GeneratedPost{
		RawArticleID: articleID,
		PostContent: PostContent{
			Headline:    "Headline",
			Summary:     "Summary",
			Body:        "Body",
			Hashtags:    []string{"#News", "#Tech"},
			Attribution: "Source: Example",
		},
		GeneratedBy: GeneratedByHeuristic,
	}

	created, err := posts.InsertGeneratedPost(ctx, post)
	if err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}
	if created.Status != PostStatusDraft {
		t.Errorf("Expected draft status, got %s", created.Status)
	}

	if _, err := posts.InsertGeneratedPost(ctx, post); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate post, got %v", err)
	}

	loaded, err := posts.GetPostByRawArticleID(ctx, articleID)
	if err != nil {
		t.Fatalf("Failed to get post: %v", err)
	}
	if len(loaded.Hashtags) != 2 || loaded.Hashtags[1] != "#Tech" {
		t.Errorf("Expected hashtags to round-trip, got %v", loaded.Hashtags)
	}

	unprocessed, err := articles.CountUnprocessedArticles(ctx)
	if err != nil {
		t.Fatalf("Failed to count unprocessed: %v", err)
	}
	if unprocessed != 0 {
		t.Errorf("Expected article with post to be excluded, got %d", unprocessed)
	}
}

func TestListUnprocessedArticles(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	articles := NewArticleRepository(db)
	posts := NewPostRepository(db)

	var ids []string
	for _, canonicalID := range []string{"u1", "u2", "u3"} {
		id, _, err := articles.UpsertRawArticle(ctx, RawArticle{CanonicalID: canonicalID, Title: canonicalID, URL: "https://example.com/" + canonicalID})
		if err != nil {
			t.Fatalf("Failed to insert article: %v", err)
		}
		ids = append(ids, id)
	}

	if _, err := posts.InsertGeneratedPost(ctx, GeneratedPost{RawArticleID: ids[0], PostContent: PostContent{Headline: "H", Summary: "S", Body: "B"}}); err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}
	if err := articles.UpdateArticleStatus(ctx, ids[1], ArticleStatusFailed, "boom"); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	list, err := articles.ListUnprocessedArticles(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list unprocessed: %v", err)
	}
	if len(list) != 1 || list[0].ID != ids[2] {
		t.Errorf("Expected only %s, got %+v", ids[2], list)
	}
}

func TestPostUpdatesAndTranslation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	articles := NewArticleRepository(db)
	posts := NewPostRepository(db)

	articleID, _, err := articles.UpsertRawArticle(ctx, RawArticle{CanonicalID: "t1", Title: "T", URL: "https://example.com/t1"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	post, err := posts.InsertGeneratedPost(ctx, GeneratedPost{RawArticleID: articleID, PostContent: PostContent{Headline: "H", Summary: "S", Body: "B", Hashtags: []string{"#News"}}})
	if err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}

	approved := PostStatusApproved
	headline := "Edited headline"
	updated, err := posts.UpdatePost(ctx, post.ID, PostUpdate{Headline: &headline, Status: &approved})
	if err != nil {
		t.Fatalf("Failed to update post: %v", err)
	}
	if updated.Headline != headline || updated.Status != PostStatusApproved {
		t.Errorf("Expected edited approved post, got %q %s", updated.Headline, updated.Status)
	}

	bogus := "archived"
	if _, err := posts.UpdatePost(ctx, post.ID, PostUpdate{Status: &bogus}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown status, got %v", err)
	}

	tooMany := []string{"#1", "#2", "#3", "#4", "#5", "#6", "#7"}
	if _, err := posts.UpdatePost(ctx, post.ID, PostUpdate{Hashtags: &tooMany}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for 7 hashtags, got %v", err)
	}

	edited := []string{" #AI ", "#ai", "", "#Chips", "#Chips", "#Apple", "#Tech", "#News"}
	updated, err = posts.UpdatePost(ctx, post.ID, PostUpdate{Hashtags: &edited})
	if err != nil {
		t.Fatalf("Expected repeated and blank hashtags to be dropped, got %v", err)
	}
	expectedTags := []string{"#AI", "#Chips", "#Apple", "#Tech", "#News"}
	if len(updated.Hashtags) != len(expectedTags) {
		t.Fatalf("Expected %v, got %v", expectedTags, updated.Hashtags)
	}
	for i, tag := range expectedTags {
		if updated.Hashtags[i] != tag {
			t.Errorf("Expected hashtag %s at %d, got %s", tag, i, updated.Hashtags[i])
		}
	}

	err = posts.SaveTranslation(ctx, post.ID, PostTranslation{
		Headline:    "සිරස්තලය",
		Summary:     "සාරාංශය",
		Body:        "අන්තර්ගතය",
		Hashtags:    []string{"#පුවත්"},
		Attribution: "මූලාශ්‍රය",
		Language:    "si",
	})
	if err != nil {
		t.Fatalf("Failed to save translation: %v", err)
	}

	if err := posts.UpdatePostContent(ctx, post.ID, PostContent{Headline: "New", Summary: "New summary", Body: "New body", Hashtags: []string{"#Update"}}, "openai"); err != nil {
		t.Fatalf("Failed to update post content: %v", err)
	}

	loaded, err := posts.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("Failed to get post: %v", err)
	}
	if loaded.Status != PostStatusDraft || loaded.GeneratedBy != "openai" {
		t.Errorf("Expected regenerated draft by openai, got %s by %s", loaded.Status, loaded.GeneratedBy)
	}
	if loaded.Translation.Language != "si" || loaded.Translation.TranslatedAt == nil {
		t.Errorf("Expected stored translation, got %+v", loaded.Translation)
	}
	if len(loaded.Translation.Hashtags) != 1 || loaded.Translation.Hashtags[0] != "#පුවත්" {
		t.Errorf("Expected translated hashtags, got %v", loaded.Translation.Hashtags)
	}

	if err := posts.SaveTranslation(ctx, "missing", PostTranslation{}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
