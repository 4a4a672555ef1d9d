package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mlundberg/borsradar/pkg/models"
)

type stubStrategy struct {
	name   string
	text   string
	err    error
	called bool
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, item models.ContentItem) (string, error) {
	s.called = true
	return s.text, s.err
}

func testItem() models.ContentItem {
	return models.ContentItem{ItemID: "abc123", Title: "Avsnitt 1", URL: "https://example.com/ep1"}
}

func longText(prefix string) string {
	return prefix + " " + strings.Repeat("ord ", 50)
}

func TestSourceFirstSufficientStrategyWins(t *testing.T) {
	first := &stubStrategy{name: "first", text: longText("första")}
	second := &stubStrategy{name: "second", text: longText("andra")}
	src := NewSourceWithStrategies(NewCache(t.TempDir()), 100, first, second)

	text, ok := src.Get(context.Background(), testItem())

	if !ok {
		t.Fatal("expected a transcript")
	}
	if !strings.HasPrefix(text, "första") {
		t.Errorf("got text from wrong strategy: %q", text[:20])
	}
	if second.called {
		t.Error("later strategy should not run once one succeeded")
	}
}

func TestSourceShortResultAdvancesChain(t *testing.T) {
	short := &stubStrategy{name: "short", text: "för kort"}
	failing := &stubStrategy{name: "failing", err: errors.New("boom")}
	good := &stubStrategy{name: "good", text: longText("bra")}
	src := NewSourceWithStrategies(NewCache(t.TempDir()), 100, short, failing, good)

	text, ok := src.Get(context.Background(), testItem())

	if !ok {
		t.Fatal("expected a transcript from the last strategy")
	}
	if !strings.HasPrefix(text, "bra") {
		t.Errorf("unexpected text: %q", text[:10])
	}
}

func TestSourceExhaustionIsNotAnError(t *testing.T) {
	short := &stubStrategy{name: "short", text: "x"}
	failing := &stubStrategy{name: "failing", err: errors.New("boom")}
	src := NewSourceWithStrategies(NewCache(t.TempDir()), 100, short, failing)

	text, ok := src.Get(context.Background(), testItem())

	if ok || text != "" {
		t.Fatalf("expected empty outcome, got %q, %v", text, ok)
	}
}

func TestSourceCachesSuccessfulTranscript(t *testing.T) {
	dir := t.TempDir()
	want := longText("cachad")
	strategy := &stubStrategy{name: "net", text: want}
	src := NewSourceWithStrategies(NewCache(dir), 100, strategy)

	if _, ok := src.Get(context.Background(), testItem()); !ok {
		t.Fatal("first fetch failed")
	}

	// A fresh source over the same directory must not hit the network
	// strategy again.
	unused := &stubStrategy{name: "unused", text: longText("fel")}
	src2 := NewSourceWithStrategies(NewCache(dir), 100, unused)

	text, ok := src2.Get(context.Background(), testItem())
	if !ok {
		t.Fatal("expected cache hit")
	}
	if text != want {
		t.Errorf("cache returned different text")
	}
	if unused.called {
		t.Error("strategy ran despite cache hit")
	}
}

func TestSourceContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strategy := &stubStrategy{name: "net", text: longText("x")}
	src := NewSourceWithStrategies(NewCache(t.TempDir()), 100, strategy)

	if _, ok := src.Get(ctx, testItem()); ok {
		t.Fatal("cancelled context should not produce a transcript")
	}
	if strategy.called {
		t.Error("strategy ran despite cancelled context")
	}
}

func TestParseVTT(t *testing.T) {
	vtt := `WEBVTT
Kind: captions
Language: sv

00:00:00.000 --> 00:00:02.000
välkomna till <c>börspodden</c>

00:00:02.000 --> 00:00:04.000
välkomna till börspodden

00:00:04.000 --> 00:00:06.000
idag pratar vi om Volvo
`

	got := parseVTT(vtt)
	want := "välkomna till börspodden idag pratar vi om Volvo"
	if got != want {
		t.Errorf("parseVTT = %q, want %q", got, want)
	}
}

func TestPickCaptionTrackLanguagePreference(t *testing.T) {
	page := `..."captionTracks":[{"baseUrl":"https://example.com/en","languageCode":"en","kind":"asr"},{"baseUrl":"https://example.com/sv","languageCode":"sv","kind":"asr"}]...`

	url, err := pickCaptionTrack(page, []string{"sv", "en"})
	if err != nil {
		t.Fatalf("pickCaptionTrack: %v", err)
	}
	if url != "https://example.com/sv" {
		t.Errorf("url = %q, want the Swedish track", url)
	}
}

func TestPickCaptionTrackFallsBackToFirst(t *testing.T) {
	page := `"captionTracks":[{"baseUrl":"https://example.com/de","languageCode":"de"}]`

	url, err := pickCaptionTrack(page, []string{"sv", "en"})
	if err != nil {
		t.Fatalf("pickCaptionTrack: %v", err)
	}
	if url != "https://example.com/de" {
		t.Errorf("url = %q", url)
	}
}
