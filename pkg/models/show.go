package models

import "time"

// Show is a podcast show or news source tracked by the collector.
type Show struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Name      string    `json:"name" db:"name"`
	CatalogID string    `json:"catalog_id" db:"catalog_id"`
	FeedURL   string    `json:"feed_url" db:"feed_url"`
	ID        int64     `json:"id" db:"id"`
}

// MentionQuery filters the mention search on the read side.
type MentionQuery struct {
	Stock  string
	Source string
	Days   int
	Limit  int
}

// StockMentionHit is one search result: a mention plus the item it
// appeared in.
type StockMentionHit struct {
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	Source      string    `json:"source" db:"source"`
	Episode     string    `json:"episode" db:"episode"`
	URL         string    `json:"url" db:"url"`
	Summary     string    `json:"summary" db:"summary"`
	Mention     Mention   `json:"mention"`
}

// TrendingStock aggregates mention counts for the trending endpoint.
type TrendingStock struct {
	Name          string `json:"name" db:"name"`
	MentionCount  int    `json:"mention_count" db:"mention_count"`
	PositiveCount int    `json:"positive_count" db:"positive_count"`
	NegativeCount int    `json:"negative_count" db:"negative_count"`
	BuyCount      int    `json:"buy_count" db:"buy_count"`
}
