package database

import (
	"time"
)

const (
	SourceTypeRSS     = "rss"
	SourceTypeNewsAPI = "newsapi"

	ArticleStatusQueued    = "queued"
	ArticleStatusProcessed = "processed"
	ArticleStatusFailed    = "failed"

	PostStatusDraft     = "draft"
	PostStatusApproved  = "approved"
	PostStatusRejected  = "rejected"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"

	GeneratedByHeuristic = "heuristic"

	// MaxHashtags bounds the hashtags stored on a post.
	MaxHashtags = 5
)

var PostStatuses = []string{PostStatusDraft, PostStatusApproved, PostStatusRejected, PostStatusScheduled, PostStatusPublished}

type SourceFilter struct {
	Field    string   `json:"field"`
	Includes []string `json:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
}

type Source struct {
	ID            string
	Name          string // unique, derived from the YAML filename when synced
	Type          string // rss, newsapi
	URL           string // optional for newsapi
	Category      string
	Enabled       bool
	FailureCount  int
	LastFetchedAt *time.Time
	Filters       []SourceFilter
	MaxItems      int // 0 keeps every item
	Timeout       int // fetch timeout in seconds, 0 uses the default
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SourceUpdate struct {
	Enabled       *bool
	URL           *string
	Category      *string
	ResetFailures bool
}

type RawArticle struct {
	ID           string
	CanonicalID  string
	SourceID     string
	SourceName   string
	Category     string
	Title        string
	URL          string
	Author       string
	Description  string
	Content      string
	ImageURL     string
	Language     string
	PublishedAt  *time.Time
	Status       string // queued, processed, failed
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PostContent struct {
	Headline    string
	Summary     string
	Body        string
	Hashtags    []string
	Attribution string
}

type PostTranslation struct {
	Headline     string
	Summary      string
	Body         string
	Hashtags     []string
	Attribution  string
	Language     string
	TranslatedAt *time.Time
}

type GeneratedPost struct {
	ID           string
	RawArticleID string
	Category     string
	PostContent
	Translation PostTranslation
	Status      string
	GeneratedBy string // provider name or "heuristic"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostUpdate carries operator edits; nil fields are left unchanged.
type PostUpdate struct {
	Headline    *string
	Summary     *string
	Body        *string
	Hashtags    *[]string
	Attribution *string
	Status      *string
}
