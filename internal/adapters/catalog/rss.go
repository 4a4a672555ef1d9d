package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mlundberg/borsradar/pkg/models"
)

// RSSProvider lists episodes from a podcast RSS feed. Used for shows
// configured with a feed URL instead of a catalog id.
type RSSProvider struct {
	parser *gofeed.Parser
	feeds  map[string]string
}

// NewRSSProvider creates a provider over a name→feed URL map
func NewRSSProvider(feeds map[string]string) *RSSProvider {
	return &RSSProvider{parser: gofeed.NewParser(), feeds: feeds}
}

// Name returns provider name for logging
func (p *RSSProvider) Name() string { return "rss" }

// Episodes returns the newest feed entries for the show
func (p *RSSProvider) Episodes(ctx context.Context, showName string, limit int) ([]models.ContentItem, error) {
	feedURL, ok := p.feeds[showName]
	if !ok {
		return nil, fmt.Errorf("no feed configured for show: %s", showName)
	}

	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed for %s: %w", showName, err)
	}

	if limit <= 0 || limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	items := make([]models.ContentItem, 0, limit)
	for _, entry := range feed.Items[:limit] {
		// idDate stays zero for undated entries so the id is stable
		// across scans; publishedAt falls back to the scan time for
		// display and ordering only.
		idDate := time.Time{}
		publishedAt := time.Now().UTC()
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
			idDate = publishedAt
		} else if entry.UpdatedParsed != nil {
			publishedAt = *entry.UpdatedParsed
			idDate = publishedAt
		}

		externalID := entry.GUID
		if externalID == "" {
			externalID = entry.Link
		}

		items = append(items, models.ContentItem{
			ItemID:      models.ItemID(externalID, idDate),
			ExternalID:  externalID,
			Kind:        models.KindEpisode,
			Title:       entry.Title,
			SourceName:  showName,
			URL:         entry.Link,
			Description: entry.Description,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}
