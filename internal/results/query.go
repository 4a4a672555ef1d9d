package results

import (
	"context"
	"fmt"

	"github.com/mlundberg/borsradar/pkg/models"
)

const itemSelect = `
	SELECT i.id, i.item_id, i.kind, i.title, i.url, i.description,
	       i.published_at, i.summary, i.transcript_length, i.analyzed_at,
	       s.name AS show_name
	FROM items i
	JOIN shows s ON s.id = i.show_id
`

// Latest returns the most recently analyzed items
func (r *Repository) Latest(ctx context.Context, limit int) ([]AnalyzedItem, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []itemRow
	err := r.db.DB().SelectContext(ctx, &rows, itemSelect+`
		WHERE i.analyzed_at IS NOT NULL
		ORDER BY i.analyzed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest results: %w", err)
	}
	return r.attachMentions(ctx, rows)
}

// ByShow returns analyzed items for one show
func (r *Repository) ByShow(ctx context.Context, showName string, limit int) ([]AnalyzedItem, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []itemRow
	err := r.db.DB().SelectContext(ctx, &rows, itemSelect+`
		WHERE s.name = $1 AND i.analyzed_at IS NOT NULL
		ORDER BY i.published_at DESC
		LIMIT $2
	`, showName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query show results: %w", err)
	}
	return r.attachMentions(ctx, rows)
}

// ByItem returns the analysis for one item id
func (r *Repository) ByItem(ctx context.Context, itemID string) (*AnalyzedItem, error) {
	var row itemRow
	err := r.db.DB().GetContext(ctx, &row, itemSelect+`
		WHERE i.item_id = $1
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item result: %w", err)
	}

	mentions, err := r.loadMentions(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	result := rowToResult(row, mentions)
	return &result, nil
}

// SearchMentions finds mentions of a stock within the day window
func (r *Repository) SearchMentions(ctx context.Context, q models.MentionQuery) ([]models.StockMentionHit, error) {
	days := q.Days
	if days <= 0 {
		days = 30
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	type hitRow struct {
		itemRow
		Name           string  `db:"name"`
		Ticker         *string `db:"ticker"`
		Context        string  `db:"context"`
		Sentiment      string  `db:"sentiment"`
		Recommendation string  `db:"recommendation"`
		PriceInfo      *string `db:"price_info"`
		MentionReason  *string `db:"mention_reason"`
	}

	var rows []hitRow
	err := r.db.DB().SelectContext(ctx, &rows, `
		SELECT i.id, i.item_id, i.kind, i.title, i.url, i.description,
		       i.published_at, i.summary, i.transcript_length, i.analyzed_at,
		       s.name AS show_name,
		       m.name, m.ticker, m.context, m.sentiment,
		       m.recommendation, m.price_info, m.mention_reason
		FROM mentions m
		JOIN items i ON i.id = m.item_id
		JOIN shows s ON s.id = i.show_id
		WHERE (m.name ILIKE '%' || $1 || '%' OR m.ticker ILIKE '%' || $1 || '%')
		  AND i.published_at > NOW() - ($2 * INTERVAL '1 day')
		ORDER BY i.published_at DESC
		LIMIT $3
	`, q.Stock, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search mentions: %w", err)
	}

	hits := make([]models.StockMentionHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, models.StockMentionHit{
			PublishedAt: row.PublishedAt,
			Source:      row.ShowName,
			Episode:     row.Title,
			URL:         row.URL.String,
			Summary:     row.Summary.String,
			Mention: models.Mention{
				Name:           row.Name,
				Ticker:         row.Ticker,
				Context:        row.Context,
				Sentiment:      row.Sentiment,
				Recommendation: row.Recommendation,
				PriceInfo:      row.PriceInfo,
				MentionReason:  row.MentionReason,
			},
		})
	}
	return hits, nil
}

// Trending aggregates the most mentioned stocks within the day window
func (r *Repository) Trending(ctx context.Context, days, limit int) ([]models.TrendingStock, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 10
	}

	trending := []models.TrendingStock{}
	err := r.db.DB().SelectContext(ctx, &trending, `
		SELECT m.name,
		       COUNT(*) AS mention_count,
		       COUNT(*) FILTER (WHERE m.sentiment = 'positive') AS positive_count,
		       COUNT(*) FILTER (WHERE m.sentiment = 'negative') AS negative_count,
		       COUNT(*) FILTER (WHERE m.recommendation = 'buy') AS buy_count
		FROM mentions m
		JOIN items i ON i.id = m.item_id
		WHERE i.published_at > NOW() - ($1 * INTERVAL '1 day')
		GROUP BY m.name
		ORDER BY mention_count DESC
		LIMIT $2
	`, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending stocks: %w", err)
	}
	return trending, nil
}

// Articles lists analyzed news articles with pagination
func (r *Repository) Articles(ctx context.Context, skip, limit int) ([]AnalyzedItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	var rows []itemRow
	err := r.db.DB().SelectContext(ctx, &rows, itemSelect+`
		WHERE i.kind = $1
		ORDER BY i.published_at DESC
		OFFSET $2 LIMIT $3
	`, models.KindArticle, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	return r.attachMentions(ctx, rows)
}

func (r *Repository) attachMentions(ctx context.Context, rows []itemRow) ([]AnalyzedItem, error) {
	items := make([]AnalyzedItem, 0, len(rows))
	for _, row := range rows {
		mentions, err := r.loadMentions(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, rowToResult(row, mentions))
	}
	return items, nil
}
