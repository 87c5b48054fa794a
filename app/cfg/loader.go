package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./data/news-comb.db" description:"SQLite database file"`
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`

	// Application configuration
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount    int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of background workers"`
	IngestInterval int    `long:"ingest-interval" env:"INGEST_INTERVAL" default:"0" description:"Periodic ingestion interval in seconds (0 disables)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"NewsComb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Colombo)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	// Sources
	NewsAPIKey string `long:"newsapi-key" env:"NEWSAPI_KEY" description:"NewsAPI key for newsapi sources"`

	// Generation
	GenerationProvider    string `long:"generation-provider" env:"GENERATION_PROVIDER" default:"none" choice:"openai" choice:"gemini" choice:"mock" choice:"none" description:"Generative provider for post drafts"`
	OpenAIAPIKey          string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	OpenAIModel           string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"OpenAI chat model"`
	OpenAIBaseURL         string `long:"openai-base-url" env:"OPENAI_BASE_URL" default:"https://api.openai.com/v1" description:"OpenAI API base URL"`
	GeminiAPIKey          string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key (generation and translation)"`
	GeminiModel           string `long:"gemini-model" env:"GEMINI_MODEL" description:"Gemini translation model (discovered when empty)"`
	GeminiGenerationModel string `long:"gemini-generation-model" env:"GEMINI_GENERATION_MODEL" default:"gemini-1.5-flash" description:"Gemini generation model"`
	GeminiBaseURL         string `long:"gemini-base-url" env:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com" description:"Gemini REST base URL for translation"`
	MockAI                bool   `long:"mock-ai" env:"MOCK_AI" description:"Replace generation and translation providers with placeholders"`

	// Translation
	LibreTranslateURL    string `long:"libretranslate-url" env:"LIBRETRANSLATE_URL" description:"LibreTranslate endpoint (disabled when empty)"`
	LibreTranslateAPIKey string `long:"libretranslate-api-key" env:"LIBRETRANSLATE_API_KEY" description:"LibreTranslate API key"`
	MyMemoryURL          string `long:"mymemory-url" env:"MYMEMORY_URL" default:"https://api.mymemory.translated.net/get" description:"MyMemory endpoint"`
	TranslateSourceLang  string `long:"translate-source-lang" env:"TRANSLATE_SOURCE_LANG" default:"en" description:"Translation source language"`
	TranslateTargetLang  string `long:"translate-target-lang" env:"TRANSLATE_TARGET_LANG" default:"si" description:"Translation target language"`

	// Extraction and quality thresholds
	FetchTimeout          int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"20" description:"Article and feed fetch timeout in seconds"`
	ExtractMinLength      int     `long:"extract-min-length" env:"EXTRACT_MIN_LENGTH" default:"200" description:"Minimum extracted text length"`
	ExtractMaxLength      int     `long:"extract-max-length" env:"EXTRACT_MAX_LENGTH" default:"15000" description:"Maximum extracted text length"`
	ExtractNoReadability  bool    `long:"extract-disable-readability" env:"EXTRACT_DISABLE_READABILITY" description:"Skip the readability tier and enable aggressive text extraction"`
	GateMinArticleLength  int     `long:"gate-min-article-length" env:"GATE_MIN_ARTICLE_LENGTH" default:"2000" description:"Content shorter than this is treated as a snippet"`
	GateReplaceRatio      float64 `long:"gate-replace-ratio" env:"GATE_REPLACE_RATIO" default:"1.3" description:"Fetched text must exceed existing content by this ratio"`
	GateIndicatorLength   int     `long:"gate-indicator-length" env:"GATE_INDICATOR_LENGTH" default:"3000" description:"Substantial content shorter than this is checked for truncation markers"`
	GateFallbackMinLength int     `long:"gate-fallback-min-length" env:"GATE_FALLBACK_MIN_LENGTH" default:"100" description:"Minimum length for content fallbacks"`
	QualityMinContent     int     `long:"quality-min-content" env:"QUALITY_MIN_CONTENT" default:"1000" description:"Source length above which generic provider output is rejected"`
}

var globalCfg *Cfg

// Load reads an optional .env file, then flags and environment. It returns
// nil, nil when help was requested.
func Load() (*Cfg, error) {
	return load(".env", nil)
}

func load(envFile string, args []string) (*Cfg, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:                raw.DBPath,
		SourcesDir:            raw.SourcesDir,
		Port:                  raw.Port,
		APIAccessKey:          raw.APIAccessKey,
		WorkerCount:           raw.WorkerCount,
		IngestInterval:        raw.IngestInterval,
		UserAgent:             raw.UserAgent,
		Timezone:              raw.Timezone,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
		NewsAPIKey:            raw.NewsAPIKey,
		GenerationProvider:    raw.GenerationProvider,
		OpenAIAPIKey:          raw.OpenAIAPIKey,
		OpenAIModel:           raw.OpenAIModel,
		OpenAIBaseURL:         raw.OpenAIBaseURL,
		GeminiAPIKey:          raw.GeminiAPIKey,
		GeminiModel:           raw.GeminiModel,
		GeminiGenerationModel: raw.GeminiGenerationModel,
		GeminiBaseURL:         raw.GeminiBaseURL,
		MockAI:                raw.MockAI,
		LibreTranslateURL:     raw.LibreTranslateURL,
		LibreTranslateAPIKey:  raw.LibreTranslateAPIKey,
		MyMemoryURL:           raw.MyMemoryURL,
		TranslateSourceLang:   raw.TranslateSourceLang,
		TranslateTargetLang:   raw.TranslateTargetLang,
		FetchTimeout:          raw.FetchTimeout,
		ExtractMinLength:      raw.ExtractMinLength,
		ExtractMaxLength:      raw.ExtractMaxLength,
		ExtractNoReadability:  raw.ExtractNoReadability,
		GateMinArticleLength:  raw.GateMinArticleLength,
		GateReplaceRatio:      raw.GateReplaceRatio,
		GateIndicatorLength:   raw.GateIndicatorLength,
		GateFallbackMinLength: raw.GateFallbackMinLength,
		QualityMinContent:     raw.QualityMinContent,
	}

	if cfg.MockAI {
		cfg.GenerationProvider = "mock"
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) IngestIntervalDuration() time.Duration {
	return time.Duration(c.IngestInterval) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
