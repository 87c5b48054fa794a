package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/errs"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/generate"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

var articleStatuses = []string{database.ArticleStatusQueued, database.ArticleStatusProcessed, database.ArticleStatusFailed}

func NewHandler(db Pinger, sourceRepo database.SourceRepository, articleRepo database.ArticleRepository,
	postRepo database.PostRepository, ingestor IngestorInterface, generator GeneratorInterface,
	translator TranslatorInterface) *Handler {
	return &Handler{
		db:          db,
		sourceRepo:  sourceRepo,
		articleRepo: articleRepo,
		postRepo:    postRepo,
		ingestor:    ingestor,
		generator:   generator,
		translator:  translator,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		slog.Error("Database unreachable", "error", err)
		health["ok"] = false
		health["status"] = "error"
		health["error"] = "Database unreachable"
		c.JSON(http.StatusInternalServerError, health)
		return
	}

	health["ok"] = true
	health["status"] = "ok"
	c.JSON(http.StatusOK, health)
}

// Sources

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListSources(c.Request.Context())
	if err != nil {
		respondError(c, "list sources", err)
		return
	}

	views := make([]sourceView, 0, len(sources))
	for _, source := range sources {
		views = append(views, newSourceView(source))
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "sources": views})
}

func (h *Handler) UpsertSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.Name == "" || req.Type == "" {
		badRequest(c, "name and type are required")
		return
	}
	if req.Type != database.SourceTypeRSS && req.Type != database.SourceTypeNewsAPI {
		badRequest(c, "type must be rss or newsapi")
		return
	}
	if req.Type == database.SourceTypeRSS && req.URL == "" {
		badRequest(c, "url is required for rss sources")
		return
	}
	if req.Category == "" {
		req.Category = "global"
	}
	if !slices.Contains(feed.Categories, req.Category) {
		badRequest(c, "unknown category: "+req.Category)
		return
	}
	if req.MaxItems < 0 || req.Timeout < 0 {
		badRequest(c, "maxItems and timeout must be non-negative")
		return
	}
	for _, filter := range req.Filters {
		if !slices.Contains(feed.FilterFields, filter.Field) {
			badRequest(c, "unknown filter field: "+filter.Field)
			return
		}
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	source, err := h.sourceRepo.UpsertSource(c.Request.Context(), database.Source{
		Name:     req.Name,
		Type:     req.Type,
		URL:      req.URL,
		Category: req.Category,
		Enabled:  enabled,
		Filters:  req.Filters,
		MaxItems: req.MaxItems,
		Timeout:  req.Timeout,
	})
	if err != nil {
		respondError(c, "upsert source", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "source": newSourceView(*source)})
}

func (h *Handler) UpdateSource(c *gin.Context) {
	id := c.Param("id")

	var req sourcePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.Category != nil && !slices.Contains(feed.Categories, *req.Category) {
		badRequest(c, "unknown category: "+*req.Category)
		return
	}

	source, err := h.sourceRepo.UpdateSource(c.Request.Context(), id, database.SourceUpdate{
		Enabled:       req.Enabled,
		URL:           req.URL,
		Category:      req.Category,
		ResetFailures: req.ResetFailures,
	})
	if err != nil {
		respondError(c, "update source", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "source": newSourceView(*source)})
}

// Ingestion

func (h *Handler) IngestRSS(c *gin.Context) {
	h.ingest(c, database.SourceTypeRSS)
}

func (h *Handler) IngestNewsAPI(c *gin.Context) {
	h.ingest(c, database.SourceTypeNewsAPI)
}

func (h *Handler) ingest(c *gin.Context, sourceType string) {
	result, err := h.ingestor.Run(c.Request.Context(), sourceType)
	if err != nil {
		respondError(c, sourceType+" ingestion", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"sources":  result.Sources,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"errors":   result.Errors,
	})
}

// Articles

func (h *Handler) ListArticles(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !slices.Contains(articleStatuses, status) {
		badRequest(c, "unknown article status: "+status)
		return
	}
	limit := parseLimit(c.Query("limit"), defaultListLimit, maxListLimit)

	articles, err := h.articleRepo.ListRawArticles(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, "list articles", err)
		return
	}

	views := make([]articleView, 0, len(articles))
	for _, article := range articles {
		views = append(views, newArticleView(article))
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "articles": views, "limit": limit})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id := c.Param("id")

	article, err := h.articleRepo.GetRawArticle(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get article", err)
		return
	}
	if article == nil {
		notFound(c, "Article not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "article": newArticleView(*article)})
}

// ReloadArticle puts an article back in the generation queue.
func (h *Handler) ReloadArticle(c *gin.Context) {
	id := c.Param("id")

	if err := h.articleRepo.UpdateArticleStatus(c.Request.Context(), id, database.ArticleStatusQueued, ""); err != nil {
		respondError(c, "reload article", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) SummarizeArticle(c *gin.Context) {
	id := c.Param("id")

	summary, err := h.generator.Summarize(c.Request.Context(), id)
	if err != nil {
		respondError(c, "summarize article", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": summary})
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewsID == "" {
		badRequest(c, "newsId is required")
		return
	}

	post, err := h.generator.Generate(c.Request.Context(), req.NewsID)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			response := gin.H{"ok": false, "error": "Post already exists for this article"}
			if existing, getErr := h.postRepo.GetPostByRawArticleID(c.Request.Context(), req.NewsID); getErr == nil && existing != nil {
				response["postId"] = existing.ID
			}
			c.JSON(http.StatusConflict, response)
			return
		}
		respondError(c, "create post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "postId": post.ID, "post": newPostView(*post)})
}

func (h *Handler) TranslateArticle(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()

	if req.TranslateFullArticle && req.ArticleID != "" {
		translation, err := h.translator.TranslatePost(ctx, req.ArticleID)
		if err != nil {
			respondError(c, "translate post", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":           true,
			"articleId":    req.ArticleID,
			"translations": newTranslationView(*translation),
		})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, "Text is required")
		return
	}

	translation, err := h.translator.TranslateText(ctx, req.Text, req.Context, req.ArticleID)
	if err != nil {
		respondError(c, "translate text", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "translation": translation})
}

// Generation

// GenerateText runs a batch over unprocessed articles, or a single article
// when the id query parameter is set.
func (h *Handler) GenerateText(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		_, err := h.generator.Generate(ctx, id)
		switch {
		case errors.Is(err, errs.ErrConflict):
			c.JSON(http.StatusOK, gin.H{"ok": true, "processed": 0, "created": 0, "skipped": 1, "note": "already generated"})
		case err != nil:
			respondError(c, "generate post", err)
		default:
			c.JSON(http.StatusOK, gin.H{"ok": true, "processed": 1, "created": 1, "skipped": 0})
		}
		return
	}

	limit := parseLimit(c.Query("limit"), generate.DefaultBatchLimit, generate.MaxBatchLimit)

	result, err := h.generator.GenerateBatch(ctx, limit)
	if err != nil {
		respondError(c, "generate batch", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"processed": result.Processed,
		"created":   result.Created,
		"skipped":   result.Skipped,
	})
}

func (h *Handler) GenerateStatus(c *gin.Context) {
	status, err := h.generator.Status(c.Request.Context())
	if err != nil {
		respondError(c, "generation status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"queuedCount": status.QueuedCount,
		"unprocessed": status.Unprocessed,
		"drafts":      status.Drafts,
	})
}

// Posts

func (h *Handler) ListPosts(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !slices.Contains(database.PostStatuses, status) {
		badRequest(c, "unknown post status: "+status)
		return
	}
	limit := parseLimit(c.Query("limit"), defaultListLimit, maxListLimit)

	posts, err := h.postRepo.ListPosts(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, "list posts", err)
		return
	}

	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, newPostView(post))
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "posts": views, "limit": limit})
}

func (h *Handler) GetPost(c *gin.Context) {
	id := c.Param("id")

	post, err := h.postRepo.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get post", err)
		return
	}
	if post == nil {
		notFound(c, "Post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "post": newPostView(*post)})
}

func (h *Handler) UpdatePost(c *gin.Context) {
	id := c.Param("id")

	var req postPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	post, err := h.postRepo.UpdatePost(c.Request.Context(), id, database.PostUpdate{
		Headline:    req.Headline,
		Summary:     req.Summary,
		Body:        req.Body,
		Hashtags:    req.Hashtags,
		Attribution: req.Attribution,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, "update post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "post": newPostView(*post)})
}

func (h *Handler) RegeneratePost(c *gin.Context) {
	id := c.Param("id")

	post, err := h.generator.Regenerate(c.Request.Context(), id)
	if err != nil {
		respondError(c, "regenerate post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "post": newPostView(*post)})
}

func parseLimit(raw string, fallback, ceiling int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": message})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": message})
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, operation string, err error) {
	status := http.StatusInternalServerError
	message := "Failed to " + operation

	switch {
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, errs.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errs.ErrConfiguration):
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "path", c.FullPath(), "error", err)
	} else {
		slog.Debug("Request rejected", "operation", operation, "status", status, "error", err)
	}

	c.JSON(status, gin.H{"ok": false, "error": message})
}
