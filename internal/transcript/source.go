package transcript

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

// Strategy is one way of obtaining a transcript for a content item
type Strategy interface {
	// Name returns strategy name for logging
	Name() string
	// Fetch attempts to retrieve a transcript
	Fetch(ctx context.Context, item models.ContentItem) (string, error)
}

// Source resolves transcripts through an ordered chain of strategies.
// The first result longer than the configured minimum wins; results
// are never merged across strategies.
type Source struct {
	cache      *Cache
	strategies []Strategy
	minLength  int
}

// NewSource builds the default source: file cache, then transcript
// site, then auto captions.
func NewSource(cfg *config.TranscriptsConfig) *Source {
	client := &http.Client{Timeout: cfg.FetchTimeout}

	return &Source{
		cache: NewCache(cfg.DataDir),
		strategies: []Strategy{
			NewSiteStrategy(client, cfg.SiteURL),
			NewCaptionStrategy(client),
		},
		minLength: cfg.MinLength,
	}
}

// NewSourceWithStrategies builds a source over an explicit chain
func NewSourceWithStrategies(cache *Cache, minLength int, strategies ...Strategy) *Source {
	return &Source{cache: cache, strategies: strategies, minLength: minLength}
}

// Get returns the transcript for the item and whether one was found.
// Exhausting every strategy is a valid outcome, not an error; the
// caller decides what to do without a transcript.
func (s *Source) Get(ctx context.Context, item models.ContentItem) (string, bool) {
	if text, ok := s.cache.Get(item.ItemID); ok && len(text) > s.minLength {
		logger.Debug("transcript cache hit",
			zap.String("item_id", item.ItemID),
			zap.Int("length", len(text)),
		)
		return text, true
	}

	for _, strategy := range s.strategies {
		if ctx.Err() != nil {
			return "", false
		}

		text, err := strategy.Fetch(ctx, item)
		if err != nil {
			logger.Debug("transcript strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.String("item_id", item.ItemID),
				zap.Error(err),
			)
			continue
		}

		if len(text) <= s.minLength {
			logger.Debug("transcript too short, trying next strategy",
				zap.String("strategy", strategy.Name()),
				zap.String("item_id", item.ItemID),
				zap.Int("length", len(text)),
			)
			continue
		}

		if err := s.cache.Put(item.ItemID, text); err != nil {
			logger.Warn("failed to cache transcript",
				zap.String("item_id", item.ItemID),
				zap.Error(err),
			)
		}

		logger.Info("transcript retrieved",
			zap.String("strategy", strategy.Name()),
			zap.String("item_id", item.ItemID),
			zap.Int("length", len(text)),
		)
		return text, true
	}

	logger.Info("no transcript found",
		zap.String("item_id", item.ItemID),
		zap.String("title", item.Title),
	)
	return "", false
}
