package models

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// Content kinds
const (
	KindEpisode = "episode"
	KindArticle = "article"
)

// ContentItem represents a single analyzable unit: a podcast episode
// or a news article. Identity is ItemID and never changes across
// collector runs.
type ContentItem struct {
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	ItemID      string    `json:"item_id" db:"item_id"`
	ExternalID  string    `json:"external_id" db:"external_id"`
	Kind        string    `json:"kind" db:"kind"`
	Title       string    `json:"title" db:"title"`
	SourceName  string    `json:"source_name" db:"source_name"`
	URL         string    `json:"url" db:"url"`
	Description string    `json:"description" db:"description"`

	// Transcript is the resolved analysis text. Populated by the
	// pipeline just before analysis; the cached file, not this field,
	// is the durable copy.
	Transcript        string `json:"-" db:"-"`
	TranscriptPresent bool   `json:"transcript_present" db:"-"`
}

// ItemID derives the stable identifier for a content item from its
// platform external id and publish date. The same input always yields
// the same id, which is what makes dedup correct.
func ItemID(externalID string, publishedAt time.Time) string {
	key := externalID + "_" + publishedAt.UTC().Format("2006-01-02")
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// AnalysisResult holds the extracted analysis for one content item.
// At most one result exists per ItemID.
type AnalysisResult struct {
	AnalyzedAt       time.Time `json:"analyzed_at" db:"analyzed_at"`
	ItemID           string    `json:"item_id" db:"item_id"`
	Summary          string    `json:"summary" db:"summary"`
	Mentions         []Mention `json:"mentions"`
	TranscriptLength int       `json:"transcript_length" db:"transcript_length"`
	// Failed marks a degenerate result produced after retries were
	// exhausted, as opposed to a genuine "no mentions" analysis.
	Failed bool `json:"failed,omitempty" db:"-"`
}

// Mention is a single stock/company reference inside one analysis.
type Mention struct {
	Name           string  `json:"name" db:"name"`
	Ticker         *string `json:"ticker" db:"ticker"`
	Context        string  `json:"context" db:"context"`
	Sentiment      string  `json:"sentiment" db:"sentiment"`
	Recommendation string  `json:"recommendation" db:"recommendation"`
	PriceInfo      *string `json:"price_info" db:"price_info"`
	MentionReason  *string `json:"mention_reason" db:"mention_reason"`
}

// Sentiment values
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Recommendation values
const (
	RecommendationBuy  = "buy"
	RecommendationSell = "sell"
	RecommendationHold = "hold"
	RecommendationNone = "none"
)

// NormalizeSentiment coerces a raw model-produced value to one of the
// three sentiment enums. Anything unrecognized becomes neutral.
func NormalizeSentiment(s string) string {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	}
	return SentimentNeutral
}

// NormalizeRecommendation coerces a raw value to one of the four
// recommendation enums. Anything unrecognized becomes none.
func NormalizeRecommendation(r string) string {
	switch r {
	case RecommendationBuy, RecommendationSell, RecommendationHold, RecommendationNone:
		return r
	}
	return RecommendationNone
}
