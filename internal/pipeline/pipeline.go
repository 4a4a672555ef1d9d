package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/dedup"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

// ErrBusy is returned when a batch is already running on this runner
var ErrBusy = errors.New("analysis batch already in progress")

// TranscriptSource resolves item text through the transcript chain
type TranscriptSource interface {
	Get(ctx context.Context, item models.ContentItem) (string, bool)
}

// Extractor turns text into an analysis result. A nil result means
// the call was aborted by cancellation and nothing may be persisted.
type Extractor interface {
	Extract(ctx context.Context, text, sourceName, title string) *models.AnalysisResult
	IsEnabled() bool
}

// Sink persists one analysis
type Sink interface {
	Persist(ctx context.Context, item models.ContentItem, result *models.AnalysisResult) error
}

// ItemOutcome pairs an item with its in-memory result. Returned even
// when persistence failed.
type ItemOutcome struct {
	Item   models.ContentItem     `json:"item"`
	Result *models.AnalysisResult `json:"result"`
}

// BatchReport accounts for one pipeline run
type BatchReport struct {
	Analyzed int           `json:"analyzed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Results  []ItemOutcome `json:"results"`
}

// Runner executes analysis batches sequentially. At most one batch
// runs at a time per Runner; concurrent calls get ErrBusy.
type Runner struct {
	transcripts TranscriptSource
	extractor   Extractor
	dedupe      dedup.Store
	sink        Sink
	minDescLen  int
	mu          sync.Mutex
}

// NewRunner creates a pipeline runner. minDescLen is the minimum
// description length for the no-transcript fallback.
func NewRunner(transcripts TranscriptSource, extractor Extractor, dedupe dedup.Store, sink Sink, minDescLen int) *Runner {
	return &Runner{
		transcripts: transcripts,
		extractor:   extractor,
		dedupe:      dedupe,
		sink:        sink,
		minDescLen:  minDescLen,
	}
}

// Run analyzes up to maxItems of the given items. A failure on one
// item never aborts the batch; cancellation is honored between items.
func (r *Runner) Run(ctx context.Context, items []models.ContentItem, maxItems int) (*BatchReport, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	defer r.mu.Unlock()

	return r.run(ctx, items, maxItems)
}

// RunAsync reserves the runner before returning, then executes the
// batch in the background. A nil return guarantees the batch was
// accepted: any concurrent caller gets ErrBusy from that point on,
// even before the work has started.
func (r *Runner) RunAsync(items []models.ContentItem, maxItems int) error {
	if !r.extractor.IsEnabled() {
		return errors.New("text analysis is not configured")
	}
	if !r.mu.TryLock() {
		return ErrBusy
	}

	go func() {
		defer r.mu.Unlock()
		if _, err := r.run(context.Background(), items, maxItems); err != nil {
			logger.Warn("background batch ended with error", zap.Error(err))
		}
	}()
	return nil
}

// run executes a batch. The caller holds r.mu.
func (r *Runner) run(ctx context.Context, items []models.ContentItem, maxItems int) (*BatchReport, error) {
	if !r.extractor.IsEnabled() {
		return nil, errors.New("text analysis is not configured")
	}

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	report := &BatchReport{Results: make([]ItemOutcome, 0, len(items))}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			logger.Info("batch cancelled",
				zap.Int("analyzed", report.Analyzed),
				zap.Int("remaining", len(items)-len(report.Results)-report.Skipped),
			)
			return report, err
		}

		r.processItem(ctx, item, report)
	}

	logger.Info("batch finished",
		zap.Int("analyzed", report.Analyzed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// RunOne analyzes a single item, bypassing dedup so explicit requests
// can force a re-analysis.
func (r *Runner) RunOne(ctx context.Context, item models.ContentItem) (*models.AnalysisResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	defer r.mu.Unlock()

	if !r.extractor.IsEnabled() {
		return nil, errors.New("text analysis is not configured")
	}

	text, fromTranscript, ok := r.resolveText(ctx, item)
	if !ok {
		return nil, errors.New("no analyzable text for item")
	}

	result := r.analyze(ctx, item, text, fromTranscript)
	if result == nil {
		return nil, ctx.Err()
	}
	return result, nil
}

func (r *Runner) processItem(ctx context.Context, item models.ContentItem, report *BatchReport) {
	analyzed, err := r.dedupe.HasAnalyzed(ctx, item.ItemID)
	if err != nil {
		logger.Warn("dedup check failed, item skipped",
			zap.String("item_id", item.ItemID),
			zap.Error(err),
		)
		report.Skipped++
		return
	}
	if analyzed {
		logger.Debug("item already analyzed",
			zap.String("item_id", item.ItemID),
			zap.String("title", item.Title),
		)
		report.Skipped++
		return
	}

	text, fromTranscript, ok := r.resolveText(ctx, item)
	if !ok {
		logger.Info("no analyzable text, item skipped",
			zap.String("item_id", item.ItemID),
			zap.String("title", item.Title),
		)
		report.Skipped++
		return
	}

	result := r.analyze(ctx, item, text, fromTranscript)
	if result == nil {
		// Cancelled mid-extraction. The item stays unanalyzed so a
		// later run picks it up; the loop's next context check ends
		// the batch.
		return
	}

	report.Results = append(report.Results, ItemOutcome{Item: item, Result: result})
	if result.Failed {
		report.Failed++
	} else {
		report.Analyzed++
	}
}

// resolveText gets the transcript or falls back to a sufficiently
// long description. The second return reports whether the text is a
// real transcript.
func (r *Runner) resolveText(ctx context.Context, item models.ContentItem) (string, bool, bool) {
	if text, ok := r.transcripts.Get(ctx, item); ok {
		return text, true, true
	}
	if len(item.Description) > r.minDescLen {
		logger.Debug("falling back to item description",
			zap.String("item_id", item.ItemID),
			zap.Int("length", len(item.Description)),
		)
		return item.Description, false, true
	}
	return "", false, false
}

func (r *Runner) analyze(ctx context.Context, item models.ContentItem, text string, fromTranscript bool) *models.AnalysisResult {
	item.Transcript = text
	item.TranscriptPresent = fromTranscript

	result := r.extractor.Extract(ctx, text, item.SourceName, item.Title)
	if result == nil {
		return nil
	}
	result.ItemID = item.ItemID
	result.TranscriptLength = len(text)

	if err := r.sink.Persist(ctx, item, result); err != nil {
		// The in-memory result is still returned to the caller.
		logger.Error("failed to persist result",
			zap.String("item_id", item.ItemID),
			zap.Error(err),
		)
	}
	return result
}
