package workers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/catalog"
	"github.com/mlundberg/borsradar/internal/adapters/news"
	"github.com/mlundberg/borsradar/internal/pipeline"
	"github.com/mlundberg/borsradar/pkg/logger"
)

// PodcastWorker periodically discovers new episodes for the
// configured shows and runs the analysis pipeline over them.
type PodcastWorker struct {
	provider    catalog.Provider
	runner      *pipeline.Runner
	shows       []string
	maxEpisodes int
}

// NewPodcastWorker creates the podcast collection worker
func NewPodcastWorker(provider catalog.Provider, runner *pipeline.Runner, shows []string, maxEpisodes int) *PodcastWorker {
	return &PodcastWorker{
		provider:    provider,
		runner:      runner,
		shows:       shows,
		maxEpisodes: maxEpisodes,
	}
}

// Name returns worker name for logging
func (w *PodcastWorker) Name() string { return "podcast_collector" }

// Run scans every configured show once
func (w *PodcastWorker) Run(ctx context.Context) error {
	for _, show := range w.shows {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		episodes, err := w.provider.Episodes(ctx, show, w.maxEpisodes)
		if err != nil {
			logger.Warn("episode discovery failed",
				zap.String("show", show),
				zap.Error(err),
			)
			continue
		}
		if len(episodes) == 0 {
			continue
		}

		report, err := w.runner.Run(ctx, episodes, w.maxEpisodes)
		if err != nil {
			if errors.Is(err, pipeline.ErrBusy) {
				logger.Info("pipeline busy, podcast scan deferred",
					zap.String("show", show),
				)
				return nil
			}
			logger.Warn("podcast batch failed",
				zap.String("show", show),
				zap.Error(err),
			)
			continue
		}

		if report.Analyzed > 0 || report.Failed > 0 {
			logger.Info("podcast scan finished",
				zap.String("show", show),
				zap.Int("analyzed", report.Analyzed),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed),
			)
		}
	}
	return nil
}

// NewsWorker periodically scrapes the news listing, refreshes the
// article cache and feeds new articles to the pipeline.
type NewsWorker struct {
	scraper *news.Scraper
	cache   *news.Cache
	runner  *pipeline.Runner
}

// NewNewsWorker creates the news collection worker
func NewNewsWorker(scraper *news.Scraper, cache *news.Cache, runner *pipeline.Runner) *NewsWorker {
	return &NewsWorker{scraper: scraper, cache: cache, runner: runner}
}

// Name returns worker name for logging
func (w *NewsWorker) Name() string { return "news_collector" }

// Run scrapes the listing once
func (w *NewsWorker) Run(ctx context.Context) error {
	articles, err := w.scraper.Articles(ctx)
	if err != nil {
		return err
	}
	w.cache.Set(articles)

	report, err := w.runner.Run(ctx, articles, 0)
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			logger.Info("pipeline busy, news scan deferred")
			return nil
		}
		return err
	}

	if report.Analyzed > 0 || report.Failed > 0 {
		logger.Info("news scan finished",
			zap.Int("analyzed", report.Analyzed),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}
	return nil
}
