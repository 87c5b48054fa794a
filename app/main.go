package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/content"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/generate"
	"github.com/lysyi3m/news-comb/app/ingest"
	"github.com/lysyi3m/news-comb/app/tasks"
	"github.com/lysyi3m/news-comb/app/translate"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting News Comb", "version", appCfg.Version, "timezone", appCfg.Timezone)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "dir", appCfg.SourcesDir, "count", configCache.GetConfigCount())

	sourceRepo := database.NewSourceRepository(db)
	articleRepo := database.NewArticleRepository(db)
	postRepo := database.NewPostRepository(db)

	httpClient := &http.Client{}

	extractor := content.NewExtractor(httpClient, content.ExtractorConfig{
		Timeout:            appCfg.FetchTimeoutDuration(),
		MinLength:          appCfg.ExtractMinLength,
		MaxLength:          appCfg.ExtractMaxLength,
		DisableReadability: appCfg.ExtractNoReadability,
	})
	gate := content.NewGate(extractor, content.GateConfig{
		MinArticleLength:  appCfg.GateMinArticleLength,
		ReplaceRatio:      appCfg.GateReplaceRatio,
		IndicatorLength:   appCfg.GateIndicatorLength,
		FallbackMinLength: appCfg.GateFallbackMinLength,
	})

	scheduler := tasks.NewScheduler(configCache, sourceRepo, tasks.SchedulerConfig{
		WorkerCount: appCfg.WorkerCount,
	})

	ingestor := ingest.NewIngestor(
		sourceRepo,
		articleRepo,
		feed.NewClient(httpClient, appCfg.UserAgent),
		feed.NewParser(),
		feed.NewFilterer(),
		gate,
		tasks.NewBackfillQueue(scheduler, gate, articleRepo),
		ingest.Config{
			NewsAPIKey: appCfg.NewsAPIKey,
			Timeout:    appCfg.FetchTimeoutDuration(),
		},
	)

	interval := appCfg.IngestIntervalDuration()
	for _, sourceType := range []string{database.SourceTypeRSS, database.SourceTypeNewsAPI} {
		scheduler.AddPeriodic(interval, func() tasks.TaskInterface {
			return tasks.NewIngestTask(ingestor, sourceType)
		})
	}

	provider, err := generate.NewProvider(context.Background(), generate.ProviderConfig{
		Name:          appCfg.GenerationProvider,
		OpenAIAPIKey:  appCfg.OpenAIAPIKey,
		OpenAIModel:   appCfg.OpenAIModel,
		OpenAIBaseURL: appCfg.OpenAIBaseURL,
		GeminiAPIKey:  appCfg.GeminiAPIKey,
		GeminiModel:   appCfg.GeminiGenerationModel,
		HTTPClient:    httpClient,
	})
	if err != nil {
		slog.Error("Failed to configure generation provider", "provider", appCfg.GenerationProvider, "error", err)
		os.Exit(1)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	generator := generate.NewOrchestrator(articleRepo, postRepo, gate, provider, generate.Config{
		QualityMinContent: appCfg.QualityMinContent,
	})

	chain := translate.NewChain(translate.ChainConfig{
		Mock:                 appCfg.MockAI,
		GeminiAPIKey:         appCfg.GeminiAPIKey,
		GeminiModel:          appCfg.GeminiModel,
		GeminiBaseURL:        appCfg.GeminiBaseURL,
		LibreTranslateURL:    appCfg.LibreTranslateURL,
		LibreTranslateAPIKey: appCfg.LibreTranslateAPIKey,
		MyMemoryURL:          appCfg.MyMemoryURL,
		SourceLang:           appCfg.TranslateSourceLang,
		TargetLang:           appCfg.TranslateTargetLang,
		HTTPClient:           httpClient,
	})
	translator := translate.NewOrchestrator(chain, articleRepo, postRepo, appCfg.TranslateTargetLang)

	providerName := "heuristic"
	if provider != nil {
		providerName = provider.Name()
	}
	chainNames := make([]string, 0, len(chain))
	for _, t := range chain {
		chainNames = append(chainNames, t.Name())
	}
	slog.Info("Pipeline configured", "generation", providerName, "translation", chainNames, "ingest_interval", interval.String())

	scheduler.Start()
	slog.Info("Scheduler started", "workers", appCfg.WorkerCount)

	handler := api.NewHandler(db, sourceRepo, articleRepo, postRepo, ingestor, generator, translator)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	scheduler.Stop()
	slog.Info("Scheduler stopped")

	slog.Info("News Comb shutdown complete")
}
