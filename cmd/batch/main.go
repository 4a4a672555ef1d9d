package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mlundberg/borsradar/internal/adapters/ai"
	"github.com/mlundberg/borsradar/internal/adapters/catalog"
	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/internal/dedup"
	"github.com/mlundberg/borsradar/internal/extractor"
	"github.com/mlundberg/borsradar/internal/pipeline"
	"github.com/mlundberg/borsradar/internal/results"
	"github.com/mlundberg/borsradar/internal/transcript"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

func main() {
	shows := flag.String("podcasts", "", "comma-separated show names (default: configured shows)")
	maxEpisodes := flag.Int("max", 0, "max episodes per show (default: configured)")
	csvPath := flag.String("csv", "", "export mentions to this CSV file")
	stock := flag.String("stock", "", "only export mentions matching this stock name")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, stopping after current item...")
		cancel()
	}()

	if err := run(ctx, *shows, *maxEpisodes, *csvPath, *stock); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run analyzes the requested shows against the file store only; the
// batch tool needs no database.
func run(ctx context.Context, showsFlag string, maxEpisodes int, csvPath, stock string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if !cfg.AI.Enabled() {
		return fmt.Errorf("AI_API_KEY is required for batch analysis")
	}
	if !cfg.Podcasts.CatalogEnabled() {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}

	shows := cfg.Podcasts.Shows
	if showsFlag != "" {
		shows = splitShows(showsFlag)
	}
	if maxEpisodes <= 0 {
		maxEpisodes = cfg.Podcasts.MaxEpisodes
	}

	files := results.NewFileSink(cfg.Transcripts.DataDir)
	sink := results.NewDualSink(files, nil)
	dedupe := dedup.NewFileStore(cfg.Transcripts.DataDir)

	aiClient := ai.NewClient(&cfg.AI)
	extract := extractor.New(aiClient, &cfg.AI)
	transcripts := transcript.NewSource(&cfg.Transcripts)
	runner := pipeline.NewRunner(transcripts, extract, dedupe, sink, cfg.Transcripts.MinLength)
	provider := catalog.NewSpotifyClient(&cfg.Podcasts)

	var outcomes []pipeline.ItemOutcome
	totals := pipeline.BatchReport{}

	for _, show := range shows {
		if ctx.Err() != nil {
			break
		}

		fmt.Printf("Analyzing %s...\n", show)
		episodes, err := provider.Episodes(ctx, show, maxEpisodes)
		if err != nil {
			fmt.Printf("  failed to list episodes: %v\n", err)
			continue
		}

		report, err := runner.Run(ctx, episodes, maxEpisodes)
		if report != nil {
			totals.Analyzed += report.Analyzed
			totals.Skipped += report.Skipped
			totals.Failed += report.Failed
			outcomes = append(outcomes, report.Results...)
		}
		if err != nil {
			fmt.Printf("  batch interrupted: %v\n", err)
			break
		}
		fmt.Printf("  analyzed %d, skipped %d, failed %d\n", report.Analyzed, report.Skipped, report.Failed)
	}

	fmt.Printf("\nTotal: analyzed %d, skipped %d, failed %d\n", totals.Analyzed, totals.Skipped, totals.Failed)

	if csvPath != "" {
		count, err := exportCSV(csvPath, outcomes, stock)
		if err != nil {
			return fmt.Errorf("csv export failed: %w", err)
		}
		fmt.Printf("Exported %d mentions to %s\n", count, csvPath)
	}
	return nil
}

func splitShows(raw string) []string {
	var shows []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			shows = append(shows, s)
		}
	}
	return shows
}

// exportCSV writes one row per mention, optionally filtered by stock
// name or ticker.
func exportCSV(path string, outcomes []pipeline.ItemOutcome, stock string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"source", "episode", "published_at", "stock", "ticker", "sentiment", "recommendation", "price_info", "context"}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	count := 0
	for _, outcome := range outcomes {
		if outcome.Result == nil || outcome.Result.Failed {
			continue
		}
		for _, m := range outcome.Result.Mentions {
			if stock != "" && !mentionMatches(m, stock) {
				continue
			}

			row := []string{
				outcome.Item.SourceName,
				outcome.Item.Title,
				outcome.Item.PublishedAt.Format("2006-01-02"),
				m.Name,
				deref(m.Ticker),
				m.Sentiment,
				m.Recommendation,
				deref(m.PriceInfo),
				m.Context,
			}
			if err := w.Write(row); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, w.Error()
}

func mentionMatches(m models.Mention, stock string) bool {
	if strings.Contains(strings.ToLower(m.Name), strings.ToLower(stock)) {
		return true
	}
	return m.Ticker != nil && strings.EqualFold(*m.Ticker, stock)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
