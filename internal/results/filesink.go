package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mlundberg/borsradar/pkg/models"
)

// FileSink writes one JSON file per analyzed item. This is the
// durability floor: it works with no database at all, and the dedup
// file store reads the same directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing under <dataDir>/analyses
func NewFileSink(dataDir string) *FileSink {
	return &FileSink{dir: filepath.Join(dataDir, "analyses")}
}

// resultDocument is the on-disk envelope. Kept list-shaped so older
// multi-item batch files remain readable by the same decoder.
type resultDocument struct {
	SourceName   string       `json:"source_name"`
	AnalysisDate string       `json:"analysis_date"`
	Items        []resultItem `json:"items"`
}

type resultItem struct {
	ItemID            string           `json:"item_id"`
	ExternalID        string           `json:"external_id"`
	Kind              string           `json:"kind"`
	Title             string           `json:"title"`
	URL               string           `json:"url"`
	PublishedAt       time.Time        `json:"published_at"`
	TranscriptPresent bool             `json:"transcript_present"`
	Summary           string           `json:"summary"`
	TranscriptLength  int              `json:"transcript_length"`
	Failed            bool             `json:"failed,omitempty"`
	Mentions          []models.Mention `json:"mentions"`
}

// Persist writes the analysis for one item. The file is named by item
// id, so a re-analysis overwrites in place.
func (s *FileSink) Persist(item models.ContentItem, result *models.AnalysisResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	doc := resultDocument{
		SourceName:   item.SourceName,
		AnalysisDate: result.AnalyzedAt.UTC().Format(time.RFC3339),
		Items: []resultItem{{
			ItemID:            item.ItemID,
			ExternalID:        item.ExternalID,
			Kind:              item.Kind,
			Title:             item.Title,
			URL:               item.URL,
			PublishedAt:       item.PublishedAt,
			TranscriptPresent: item.TranscriptPresent,
			Summary:           result.Summary,
			TranscriptLength:  result.TranscriptLength,
			Failed:            result.Failed,
			Mentions:          result.Mentions,
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	path := filepath.Join(s.dir, item.ItemID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// Load reads back the analysis for one item, if present
func (s *FileSink) Load(itemID string) (*models.AnalysisResult, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, itemID+".json"))
	if err != nil {
		return nil, false
	}

	var doc resultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}

	for _, it := range doc.Items {
		if it.ItemID != itemID {
			continue
		}
		analyzedAt, _ := time.Parse(time.RFC3339, doc.AnalysisDate)
		return &models.AnalysisResult{
			AnalyzedAt:       analyzedAt,
			ItemID:           it.ItemID,
			Summary:          it.Summary,
			Mentions:         it.Mentions,
			TranscriptLength: it.TranscriptLength,
			Failed:           it.Failed,
		}, true
	}
	return nil, false
}
