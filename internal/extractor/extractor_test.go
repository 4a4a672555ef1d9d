package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mlundberg/borsradar/internal/adapters/ai"
	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/models"
)

const goodResponse = `{
	"summary": "Avsnittet handlar om svenska verkstadsbolag och deras utsikter inför rapportsäsongen i höst.",
	"mentions": [
		{
			"name": "Volvo",
			"ticker": "VOLV-B",
			"context": "Volvo ser stark orderingång i Nordamerika",
			"sentiment": "positive",
			"recommendation": "buy",
			"price_info": "riktkurs 320 kr",
			"mention_reason": "stark orderingång"
		}
	]
}`

type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", context.DeadlineExceeded
}

func (f *fakeCompleter) IsEnabled() bool { return true }

func testConfig() *config.AIConfig {
	return &config.AIConfig{
		MaxTextLen: 15000,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func TestExtractSuccess(t *testing.T) {
	fake := &fakeCompleter{responses: []string{goodResponse}}
	ex := New(fake, testConfig())

	result := ex.Extract(context.Background(), "lång transkribering om Volvo", "Kapitalet", "Avsnitt 12")

	if result.Failed {
		t.Fatal("expected successful result")
	}
	if len(result.Mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(result.Mentions))
	}
	m := result.Mentions[0]
	if m.Name != "Volvo" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Ticker == nil || *m.Ticker != "VOLV-B" {
		t.Errorf("ticker = %v", m.Ticker)
	}
	if m.Sentiment != models.SentimentPositive {
		t.Errorf("sentiment = %q", m.Sentiment)
	}
	if m.Recommendation != models.RecommendationBuy {
		t.Errorf("recommendation = %q", m.Recommendation)
	}
	if fake.calls != 1 {
		t.Errorf("expected single attempt, got %d", fake.calls)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"```json\n" + goodResponse + "\n```"}}
	ex := New(fake, testConfig())

	result := ex.Extract(context.Background(), "text", "Kapitalet", "Avsnitt 12")
	if result.Failed {
		t.Fatal("fenced JSON should parse")
	}
}

func TestExtractTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTextLen = 10

	var captured string
	fake := &capturingCompleter{response: goodResponse, capture: &captured}
	ex := New(fake, cfg)

	long := strings.Repeat("a", 25)
	ex.Extract(context.Background(), long, "Kapitalet", "Avsnitt 12")

	want := long[:10]
	if !strings.Contains(captured, want) {
		t.Fatal("prompt missing truncated text")
	}
	if strings.Contains(captured, long[:11]) {
		t.Fatal("prompt contains more than MaxTextLen bytes of input")
	}
}

type capturingCompleter struct {
	response string
	capture  *string
}

func (c *capturingCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	*c.capture = userPrompt
	return c.response, nil
}

func (c *capturingCompleter) IsEnabled() bool { return true }

func TestExtractQualityGateRetries(t *testing.T) {
	// Empty mentions fails the gate; short summary fails the gate.
	lowQuality := `{"summary": "kort", "mentions": []}`
	fake := &fakeCompleter{responses: []string{lowQuality, lowQuality, goodResponse}}
	ex := New(fake, testConfig())

	result := ex.Extract(context.Background(), "text", "Kapitalet", "Avsnitt 12")

	if result.Failed {
		t.Fatal("third attempt succeeded, result should not be failed")
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
}

func TestExtractExhaustionReturnsMarker(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"not json", "not json", "not json"}}
	ex := New(fake, testConfig())

	result := ex.Extract(context.Background(), "text", "Kapitalet", "Avsnitt 12")

	if !result.Failed {
		t.Fatal("expected failure marker after exhaustion")
	}
	if result.Summary != FailureSummary {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Mentions) != 0 {
		t.Errorf("marker result must carry no mentions")
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
}

func TestExtractRateLimitRetries(t *testing.T) {
	fake := &fakeCompleter{
		errs:      []error{ai.ErrRateLimited, ai.ErrRateLimited},
		responses: []string{"", "", goodResponse},
	}
	ex := New(fake, testConfig())

	result := ex.Extract(context.Background(), "text", "Kapitalet", "Avsnitt 12")

	if result.Failed {
		t.Fatal("rate limits should be retried, not terminal")
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
}

func TestExtractContextCancelStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeCompleter{errs: []error{context.Canceled}}
	ex := New(fake, testConfig())

	result := ex.Extract(ctx, "text", "Kapitalet", "Avsnitt 12")

	// A cancelled call is aborted, not failed: no marker result may
	// come back that a caller could mistake for retry exhaustion.
	if result != nil {
		t.Fatalf("expected nil result on cancellation, got %+v", result)
	}
	if fake.calls != 1 {
		t.Errorf("expected no retries after cancellation, got %d calls", fake.calls)
	}
}

func TestParseAnalysisCoercion(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantSent string
		wantRec  string
	}{
		{
			name:     "unknown values coerce",
			payload:  `{"summary":"s","mentions":[{"name":"Evolution","context":"c","sentiment":"bullish","recommendation":"strong buy"}]}`,
			wantSent: models.SentimentNeutral,
			wantRec:  models.RecommendationNone,
		},
		{
			name:     "case insensitive",
			payload:  `{"summary":"s","mentions":[{"name":"Evolution","context":"c","sentiment":"NEGATIVE","recommendation":"Sell"}]}`,
			wantSent: models.SentimentNegative,
			wantRec:  models.RecommendationSell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseAnalysis(tt.payload)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(result.Mentions) != 1 {
				t.Fatalf("mentions = %d", len(result.Mentions))
			}
			if got := result.Mentions[0].Sentiment; got != tt.wantSent {
				t.Errorf("sentiment = %q, want %q", got, tt.wantSent)
			}
			if got := result.Mentions[0].Recommendation; got != tt.wantRec {
				t.Errorf("recommendation = %q, want %q", got, tt.wantRec)
			}
		})
	}
}

func TestParseAnalysisDropsNamelessAndNullStrings(t *testing.T) {
	payload := `{"summary":"s","mentions":[
		{"name":"  ","context":"c","sentiment":"neutral","recommendation":"none"},
		{"name":"Ericsson","context":"c","sentiment":"neutral","recommendation":"none","ticker":"null","price_info":""}
	]}`

	result, err := parseAnalysis(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Mentions) != 1 {
		t.Fatalf("expected nameless mention dropped, got %d", len(result.Mentions))
	}
	m := result.Mentions[0]
	if m.Ticker != nil {
		t.Errorf("literal \"null\" ticker should map to nil")
	}
	if m.PriceInfo != nil {
		t.Errorf("empty price_info should map to nil")
	}
}

func TestParseAnalysisBoundsContext(t *testing.T) {
	long := strings.Repeat("x", 800)
	payload := `{"summary":"s","mentions":[{"name":"SEB","context":"` + long + `","sentiment":"neutral","recommendation":"none"}]}`

	result, err := parseAnalysis(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := len(result.Mentions[0].Context); got != maxContextLen {
		t.Errorf("context length = %d, want %d", got, maxContextLen)
	}
}
