package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/ai"
	"github.com/mlundberg/borsradar/internal/adapters/catalog"
	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/internal/adapters/database"
	"github.com/mlundberg/borsradar/internal/adapters/news"
	"github.com/mlundberg/borsradar/internal/adapters/telegram"
	"github.com/mlundberg/borsradar/internal/api"
	"github.com/mlundberg/borsradar/internal/dedup"
	"github.com/mlundberg/borsradar/internal/extractor"
	"github.com/mlundberg/borsradar/internal/pipeline"
	"github.com/mlundberg/borsradar/internal/results"
	"github.com/mlundberg/borsradar/internal/stream"
	"github.com/mlundberg/borsradar/internal/transcript"
	"github.com/mlundberg/borsradar/internal/workers"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/worker"
	_ "github.com/lib/pq"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("BörsRadar starting...",
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Persistence: file floor plus database, with live observers
	hub := stream.NewHub()
	files := results.NewFileSink(cfg.Transcripts.DataDir)

	repo := results.NewRepository(db)
	var dedupe dedup.Store = dedup.NewPGStore(db)

	observers := []results.Observer{hub}
	if notifier := initNotifier(cfg); notifier != nil {
		observers = append(observers, notifier)
	}
	sink := results.NewDualSink(files, repo, observers...)

	// Analysis pipeline
	aiClient := ai.NewClient(&cfg.AI)
	if !aiClient.IsEnabled() {
		logger.Warn("AI API key missing, analysis endpoints disabled")
	}
	extract := extractor.New(aiClient, &cfg.AI)
	transcripts := transcript.NewSource(&cfg.Transcripts)
	runner := pipeline.NewRunner(transcripts, extract, dedupe, sink, cfg.Transcripts.MinLength)

	// Content discovery: catalog API when credentials exist, RSS
	// feeds otherwise
	var provider catalog.Provider
	switch {
	case cfg.Podcasts.CatalogEnabled():
		provider = catalog.NewSpotifyClient(&cfg.Podcasts)
	case len(cfg.Podcasts.Feeds) > 0:
		provider = catalog.NewRSSProvider(cfg.Podcasts.Feeds)
	default:
		logger.Warn("no catalog credentials or feeds, podcast discovery disabled")
	}

	var scraper *news.Scraper
	if cfg.News.Enabled {
		scraper = news.NewScraper(&cfg.News)
	}
	articles := news.NewCache(cfg.News.CacheTTL)

	// Background workers
	group := worker.NewWorkerGroup(ctx)
	if provider != nil && aiClient.IsEnabled() {
		group.Add(workers.NewPodcastWorker(provider, runner, cfg.Podcasts.Shows, cfg.Podcasts.MaxEpisodes), cfg.Podcasts.ScanInterval)
	}
	if scraper != nil && aiClient.IsEnabled() {
		group.Add(workers.NewNewsWorker(scraper, articles, runner), cfg.News.ScanInterval)
	}
	group.Add(workers.NewCleanupWorker(cfg.Transcripts.DataDir, 0), 24*time.Hour)
	group.Start()
	defer group.Stop(10 * time.Second)

	// HTTP server
	server := api.NewServer(cfg, api.Deps{
		DB:       db,
		Runner:   runner,
		Catalog:  provider,
		Repo:     repo,
		Files:    files,
		Dedupe:   dedupe,
		Scraper:  scraper,
		Articles: articles,
		Hub:      hub,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// initDatabase connects and migrates. A missing database is fatal for
// the server binary; every query endpoint depends on it.
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// initNotifier builds the telegram notifier when configured
func initNotifier(cfg *config.Config) *telegram.Notifier {
	if !cfg.Telegram.Enabled() {
		logger.Info("telegram not configured, mention alerts disabled")
		return nil
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram)
	if err != nil {
		logger.Error("failed to create telegram notifier", zap.Error(err))
		return nil
	}
	return notifier
}
