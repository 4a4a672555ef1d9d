package catalog

import (
	"context"

	"github.com/mlundberg/borsradar/pkg/models"
)

// Provider discovers content items for a named show
type Provider interface {
	// Name returns provider name for logging
	Name() string
	// Episodes returns the newest episodes for the show, most recent
	// first, with deterministic item ids assigned
	Episodes(ctx context.Context, showName string, limit int) ([]models.ContentItem, error)
}
