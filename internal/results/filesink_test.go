package results

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mlundberg/borsradar/pkg/models"
)

func sampleItem() models.ContentItem {
	return models.ContentItem{
		ItemID:      "item1",
		ExternalID:  "ext1",
		Kind:        models.KindEpisode,
		Title:       "Avsnitt 7",
		SourceName:  "Börspodden",
		URL:         "https://example.com/7",
		PublishedAt: time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC),
	}
}

func sampleResult() *models.AnalysisResult {
	ticker := "VOLV-B"
	return &models.AnalysisResult{
		AnalyzedAt:       time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC),
		ItemID:           "item1",
		Summary:          "Ett avsnitt om Volvo och verkstadssektorn med tydlig köprekommendation.",
		TranscriptLength: 12345,
		Mentions: []models.Mention{{
			Name:           "Volvo",
			Ticker:         &ticker,
			Context:        "stark orderingång",
			Sentiment:      models.SentimentPositive,
			Recommendation: models.RecommendationBuy,
		}},
	}
}

func TestFileSinkPersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	if err := sink.Persist(sampleItem(), sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, ok := sink.Load("item1")
	if !ok {
		t.Fatal("expected stored result")
	}
	if loaded.Summary != sampleResult().Summary {
		t.Errorf("summary mismatch")
	}
	if len(loaded.Mentions) != 1 || loaded.Mentions[0].Name != "Volvo" {
		t.Errorf("mentions not round-tripped: %+v", loaded.Mentions)
	}
}

func TestFileSinkDocumentShape(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	if err := sink.Persist(sampleItem(), sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "analyses", "item1.json"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["source_name"] != "Börspodden" {
		t.Errorf("source_name = %v", doc["source_name"])
	}
	if doc["analysis_date"] != "2026-08-21T12:00:00Z" {
		t.Errorf("analysis_date = %v", doc["analysis_date"])
	}
	items, ok := doc["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", doc["items"])
	}
}

func TestFileSinkReanalysisOverwrites(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	if err := sink.Persist(sampleItem(), sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	updated := sampleResult()
	updated.Summary = "En uppdaterad sammanfattning efter en andra analys av samma avsnitt."
	if err := sink.Persist(sampleItem(), updated); err != nil {
		t.Fatalf("second Persist: %v", err)
	}

	loaded, ok := sink.Load("item1")
	if !ok {
		t.Fatal("expected stored result")
	}
	if loaded.Summary != updated.Summary {
		t.Errorf("re-analysis did not overwrite: %q", loaded.Summary)
	}
}

func TestFileSinkPersistsFailureMarker(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	marker := &models.AnalysisResult{
		AnalyzedAt: time.Now().UTC(),
		ItemID:     "item1",
		Summary:    "Analys kunde inte genomföras efter flera försök",
		Mentions:   []models.Mention{},
		Failed:     true,
	}
	if err := sink.Persist(sampleItem(), marker); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, ok := sink.Load("item1")
	if !ok {
		t.Fatal("marker result must be stored like any other")
	}
	if !loaded.Failed {
		t.Error("marker must stay distinguishable from a genuine result")
	}
}

type recordingObserver struct {
	items []string
}

func (o *recordingObserver) ResultPersisted(item models.ContentItem, result *models.AnalysisResult) {
	o.items = append(o.items, item.ItemID)
}

func TestDualSinkFileOnlyAndObservers(t *testing.T) {
	obs := &recordingObserver{}
	sink := NewDualSink(NewFileSink(t.TempDir()), nil, obs)

	if err := sink.Persist(context.Background(), sampleItem(), sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if len(obs.items) != 1 || obs.items[0] != "item1" {
		t.Errorf("observer not notified: %v", obs.items)
	}
}
