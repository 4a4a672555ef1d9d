package telegram

import (
	"strings"
	"testing"

	"github.com/mlundberg/borsradar/pkg/models"
)

func TestFormatMentionAlert(t *testing.T) {
	ticker := "VOLV-B"
	price := "riktkurs 320 kr"

	item := models.ContentItem{
		Title:      "Avsnitt 12",
		SourceName: "Börspodden",
		URL:        "https://example.com/12",
	}
	m := models.Mention{
		Name:           "Volvo",
		Ticker:         &ticker,
		Context:        "stark orderingång i Nordamerika",
		Recommendation: models.RecommendationBuy,
		PriceInfo:      &price,
	}

	msg := formatMentionAlert(item, m)

	for _, want := range []string{"KÖP", "Volvo", "VOLV-B", "riktkurs 320 kr", "Källa: Börspodden - Avsnitt 12"} {
		if !strings.Contains(msg, want) {
			t.Errorf("alert missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatMentionAlertSell(t *testing.T) {
	m := models.Mention{
		Name:           "Sinch",
		Context:        "fortsatt press på marginalerna",
		Recommendation: models.RecommendationSell,
	}

	msg := formatMentionAlert(models.ContentItem{SourceName: "Kapitalet", Title: "Avsnitt 3"}, m)

	if !strings.Contains(msg, "SÄLJ") {
		t.Errorf("sell alert missing action:\n%s", msg)
	}
	if strings.Contains(msg, "Pris:") {
		t.Errorf("alert must omit absent price info:\n%s", msg)
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.ResultPersisted(models.ContentItem{}, &models.AnalysisResult{
		Mentions: []models.Mention{{Name: "Volvo", Recommendation: models.RecommendationBuy}},
	})
}
