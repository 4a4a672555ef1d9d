package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mlundberg/borsradar/pkg/models"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// minBlockLen is the threshold for treating a text block as
// transcript content rather than page chrome.
const minBlockLen = 200

// SiteStrategy fetches a transcript from a transcription web service
// by posting the episode URL and mining the returned HTML.
type SiteStrategy struct {
	client  *http.Client
	siteURL string
}

// NewSiteStrategy creates the transcript-site strategy
func NewSiteStrategy(client *http.Client, siteURL string) *SiteStrategy {
	return &SiteStrategy{client: client, siteURL: siteURL}
}

// Name returns strategy name for logging
func (s *SiteStrategy) Name() string { return "transcript_site" }

// Fetch posts the episode URL and extracts transcript text from the
// response page.
func (s *SiteStrategy) Fetch(ctx context.Context, item models.ContentItem) (string, error) {
	form := url.Values{}
	form.Set("youtube_url", item.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.siteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript site request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript site returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse transcript page: %w", err)
	}

	return extractTranscriptText(doc), nil
}

// extractTranscriptText walks a heuristic ladder over the page, from
// the most specific markup down to raw page text. Each rung returns
// only when it found something substantial.
func extractTranscriptText(doc *goquery.Document) string {
	// Rung 1: dedicated transcript segment spans.
	var segments []string
	doc.Find("span.transcript-segment").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			segments = append(segments, t)
		}
	})
	if text := strings.Join(segments, " "); len(text) > minBlockLen {
		return text
	}

	// Rung 2: a transcript container element.
	for _, selector := range []string{"#transcript", ".transcript", "div[class*='transcript']"} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); len(text) > minBlockLen {
			return squashWhitespace(text)
		}
	}

	// Rung 3: the longest substantial text blocks on the page.
	var blocks []string
	doc.Find("p, div").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		if t := strings.TrimSpace(sel.Text()); len(t) > minBlockLen {
			blocks = append(blocks, t)
		}
	})
	if text := strings.Join(blocks, " "); text != "" {
		return text
	}

	// Rung 4: whole page text, whitespace squashed.
	return squashWhitespace(doc.Find("body").Text())
}

func squashWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
