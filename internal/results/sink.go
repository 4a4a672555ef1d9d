package results

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

// Sink persists one analysis
type Sink interface {
	Persist(ctx context.Context, item models.ContentItem, result *models.AnalysisResult) error
}

// Observer is notified after a successful persist. Used for the live
// stream and telegram alerts; failures there never affect the write.
type Observer interface {
	ResultPersisted(item models.ContentItem, result *models.AnalysisResult)
}

// DualSink writes the file first (the durability floor) and then the
// database. A database failure is logged and reported but the file
// write stands; the analysis is never lost.
type DualSink struct {
	file      *FileSink
	repo      *Repository
	observers []Observer
}

// NewDualSink creates the standard sink. repo may be nil for
// file-only operation.
func NewDualSink(file *FileSink, repo *Repository, observers ...Observer) *DualSink {
	return &DualSink{file: file, repo: repo, observers: observers}
}

// Persist stores the result to every backend
func (s *DualSink) Persist(ctx context.Context, item models.ContentItem, result *models.AnalysisResult) error {
	if err := s.file.Persist(item, result); err != nil {
		return fmt.Errorf("failed to persist result file: %w", err)
	}

	if s.repo != nil {
		if err := s.repo.Persist(ctx, item, result); err != nil {
			logger.Error("database persist failed, file copy retained",
				zap.String("item_id", item.ItemID),
				zap.Error(err),
			)
		}
	}

	for _, obs := range s.observers {
		obs.ResultPersisted(item, result)
	}
	return nil
}
