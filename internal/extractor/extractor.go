package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/ai"
	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

// FailureSummary marks a degenerate result produced after all
// extraction attempts were exhausted. Distinguishable from any
// genuine summary by Result.Failed.
const FailureSummary = "Analys kunde inte genomföras efter flera försök"

// maxContextLen bounds the quoted context carried per mention.
const maxContextLen = 500

// minSummaryLen and minMentions form the quality gate: anything below
// is treated as a low-quality response and retried.
const (
	minSummaryLen = 50
	minMentions   = 1
)

// Completer is the text analysis capability the extractor talks to.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	IsEnabled() bool
}

// Extractor turns raw text into a structured mention analysis with
// quality gating and bounded retry.
type Extractor struct {
	client     Completer
	maxTextLen int
	maxRetries int
	retryDelay time.Duration
}

// New creates new mention extractor
func New(client Completer, cfg *config.AIConfig) *Extractor {
	return &Extractor{
		client:     client,
		maxTextLen: cfg.MaxTextLen,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// IsEnabled reports whether extraction is available at all
func (e *Extractor) IsEnabled() bool {
	return e.client.IsEnabled()
}

// Extract analyzes text and returns the structured result. After
// exhausting retries it returns the failure marker result, which
// callers must treat as "no usable analysis". A nil return means the
// context was cancelled mid-call; the item was not analyzed and must
// not be persisted.
func (e *Extractor) Extract(ctx context.Context, text, sourceName, title string) *models.AnalysisResult {
	text = e.truncate(text)
	userPrompt := buildUserPrompt(text, sourceName, title)

	delay := e.retryDelay

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		result, err := e.attempt(ctx, userPrompt)
		if err == nil {
			logger.Info("extraction completed",
				zap.String("title", title),
				zap.Int("mentions", len(result.Mentions)),
				zap.Int("attempt", attempt),
			)
			return result
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("extraction aborted", zap.String("title", title))
			return nil
		}

		logger.Warn("extraction attempt failed",
			zap.String("title", title),
			zap.Int("attempt", attempt),
			zap.Bool("rate_limited", errors.Is(err, ai.ErrRateLimited)),
			zap.Error(err),
		)

		if attempt < e.maxRetries {
			if !sleepCtx(ctx, delay) {
				logger.Warn("extraction aborted", zap.String("title", title))
				return nil
			}
			delay *= 2
		}
	}

	logger.Error("extraction failed after all attempts", zap.String("title", title))

	return &models.AnalysisResult{
		AnalyzedAt: time.Now(),
		Summary:    FailureSummary,
		Mentions:   []models.Mention{},
		Failed:     true,
	}
}

// truncate performs the deterministic prefix cut bounding the
// external call. Not an error; long transcripts simply lose their
// tail.
func (e *Extractor) truncate(text string) string {
	if e.maxTextLen > 0 && len(text) > e.maxTextLen {
		logger.Debug("truncating analysis input",
			zap.Int("original_length", len(text)),
			zap.Int("max_length", e.maxTextLen),
		)
		return text[:e.maxTextLen]
	}
	return text
}

// attempt performs one call+parse+gate round trip.
func (e *Extractor) attempt(ctx context.Context, userPrompt string) (*models.AnalysisResult, error) {
	content, err := e.client.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	result, err := parseAnalysis(content)
	if err != nil {
		return nil, err
	}

	if len(result.Mentions) < minMentions || len(result.Summary) <= minSummaryLen {
		return nil, errQualityTooLow(len(result.Mentions), len(result.Summary))
	}

	result.AnalyzedAt = time.Now()
	return result, nil
}

type qualityError struct {
	mentions, summaryLen int
}

func (e *qualityError) Error() string {
	return fmt.Sprintf("analysis quality too low: %d mentions, summary length %d", e.mentions, e.summaryLen)
}

func errQualityTooLow(mentions, summaryLen int) error {
	return &qualityError{mentions: mentions, summaryLen: summaryLen}
}

// sleepCtx waits for d unless the context ends first. Returns false
// when the wait was interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// stripCodeFences removes a leading/trailing markdown code fence the
// model sometimes wraps around its JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

type rawMention struct {
	Name           string  `json:"name"`
	Ticker         *string `json:"ticker"`
	Context        string  `json:"context"`
	Sentiment      string  `json:"sentiment"`
	Recommendation string  `json:"recommendation"`
	PriceInfo      *string `json:"price_info"`
	MentionReason  *string `json:"mention_reason"`
}

type rawAnalysis struct {
	Summary  string       `json:"summary"`
	Mentions []rawMention `json:"mentions"`
}

// parseAnalysis validates the loosely-typed service response against
// the result contract at the boundary. Unknown enum values are
// coerced, never passed through; mentions without a name are dropped.
func parseAnalysis(content string) (*models.AnalysisResult, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &raw); err != nil {
		return nil, err
	}

	mentions := make([]models.Mention, 0, len(raw.Mentions))
	for _, m := range raw.Mentions {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}

		mctx := m.Context
		if len(mctx) > maxContextLen {
			mctx = mctx[:maxContextLen]
		}

		mentions = append(mentions, models.Mention{
			Name:           name,
			Ticker:         emptyToNil(m.Ticker),
			Context:        mctx,
			Sentiment:      models.NormalizeSentiment(strings.ToLower(strings.TrimSpace(m.Sentiment))),
			Recommendation: models.NormalizeRecommendation(strings.ToLower(strings.TrimSpace(m.Recommendation))),
			PriceInfo:      emptyToNil(m.PriceInfo),
			MentionReason:  emptyToNil(m.MentionReason),
		})
	}

	return &models.AnalysisResult{
		Summary:  strings.TrimSpace(raw.Summary),
		Mentions: mentions,
	}, nil
}

// emptyToNil maps "", "null" and absent values to nil. The service is
// told to use JSON null but does not always comply.
func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}
