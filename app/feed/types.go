package feed

import (
	"time"
)

// Feed processing types

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	ImageURL    string
	PublishedAt *time.Time
	Authors     []string // "email (name)", "name" or "email"
	Categories  []string
	Publisher   string // outlet name, from the feed title or NewsAPI source

	IsFiltered   bool
	FilterReason string
}

// Configuration types

const (
	SourceTypeRSS     = "rss"
	SourceTypeNewsAPI = "newsapi"
)

var Categories = []string{"global", "entertainment", "anime_comics", "tech"}

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Type     string         `yaml:"type"`
	URL      string         `yaml:"url"`
	Category string         `yaml:"category"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	MaxItems int  `yaml:"max_items"`
	Timeout  int  `yaml:"timeout"` // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
