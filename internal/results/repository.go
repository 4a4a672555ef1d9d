package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mlundberg/borsradar/internal/adapters/database"
	"github.com/mlundberg/borsradar/pkg/models"
)

// Repository persists analyses to Postgres. Writes are transactional:
// show upsert, item upsert keyed on item_id, then delete+insert of
// the item's mentions (re-analysis replaces, never merges).
type Repository struct {
	db *database.DB
}

// NewRepository creates the result repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Persist stores one analysis
func (r *Repository) Persist(ctx context.Context, item models.ContentItem, result *models.AnalysisResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var showID int64
	err = tx.GetContext(ctx, &showID, `
		INSERT INTO shows (name, created_at)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, item.SourceName, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert show: %w", err)
	}

	var itemRowID int64
	err = tx.GetContext(ctx, &itemRowID, `
		INSERT INTO items (
			item_id, show_id, kind, title, url, description,
			published_at, summary, transcript_length, analyzed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (item_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			transcript_length = EXCLUDED.transcript_length,
			analyzed_at = EXCLUDED.analyzed_at
		RETURNING id
	`,
		item.ItemID, showID, item.Kind, item.Title, item.URL, item.Description,
		item.PublishedAt, result.Summary, result.TranscriptLength, result.AnalyzedAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM mentions WHERE item_id = $1`, itemRowID); err != nil {
		return fmt.Errorf("failed to clear mentions: %w", err)
	}

	for _, m := range result.Mentions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO mentions (
				item_id, name, ticker, context, sentiment,
				recommendation, price_info, mention_reason, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, itemRowID, m.Name, m.Ticker, m.Context, m.Sentiment, m.Recommendation, m.PriceInfo, m.MentionReason, time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert mention: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// UpsertShow registers a show without an analysis attached
func (r *Repository) UpsertShow(ctx context.Context, show models.Show) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO shows (name, catalog_id, feed_url, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			catalog_id = EXCLUDED.catalog_id,
			feed_url = EXCLUDED.feed_url
	`, show.Name, show.CatalogID, show.FeedURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert show: %w", err)
	}
	return nil
}

// itemRow mirrors the items table for scanning
type itemRow struct {
	ID               int64          `db:"id"`
	ItemID           string         `db:"item_id"`
	Kind             string         `db:"kind"`
	Title            string         `db:"title"`
	URL              sql.NullString `db:"url"`
	Description      sql.NullString `db:"description"`
	PublishedAt      time.Time      `db:"published_at"`
	Summary          sql.NullString `db:"summary"`
	TranscriptLength sql.NullInt64  `db:"transcript_length"`
	AnalyzedAt       sql.NullTime   `db:"analyzed_at"`
	ShowName         string         `db:"show_name"`
}

func (r *Repository) loadMentions(ctx context.Context, rowID int64) ([]models.Mention, error) {
	mentions := []models.Mention{}
	err := r.db.DB().SelectContext(ctx, &mentions, `
		SELECT name, ticker, context, sentiment, recommendation, price_info, mention_reason
		FROM mentions
		WHERE item_id = $1
		ORDER BY id
	`, rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentions: %w", err)
	}
	return mentions, nil
}

func rowToResult(row itemRow, mentions []models.Mention) AnalyzedItem {
	return AnalyzedItem{
		Item: models.ContentItem{
			ItemID:      row.ItemID,
			Kind:        row.Kind,
			Title:       row.Title,
			SourceName:  row.ShowName,
			URL:         row.URL.String,
			Description: row.Description.String,
			PublishedAt: row.PublishedAt,
		},
		Result: models.AnalysisResult{
			ItemID:           row.ItemID,
			AnalyzedAt:       row.AnalyzedAt.Time,
			Summary:          row.Summary.String,
			TranscriptLength: int(row.TranscriptLength.Int64),
			Mentions:         mentions,
		},
	}
}

// AnalyzedItem is an item joined with its stored analysis
type AnalyzedItem struct {
	Item   models.ContentItem    `json:"item"`
	Result models.AnalysisResult `json:"result"`
}
