package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/mlundberg/borsradar/pkg/models"
)

var (
	captionTracksRe = regexp.MustCompile(`"captionTracks":(\[.*?\])`)
	cueTagRe        = regexp.MustCompile(`<[^>]*>`)
)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// CaptionStrategy downloads auto-generated captions for a video item:
// it locates the subtitle track URL on the watch page, fetches it as
// WebVTT and strips cue markup.
type CaptionStrategy struct {
	client    *http.Client
	languages []string
}

// NewCaptionStrategy creates the caption download strategy. Languages
// are tried in order when picking a track.
func NewCaptionStrategy(client *http.Client, languages ...string) *CaptionStrategy {
	if len(languages) == 0 {
		languages = []string{"sv", "en"}
	}
	return &CaptionStrategy{client: client, languages: languages}
}

// Name returns strategy name for logging
func (s *CaptionStrategy) Name() string { return "auto_captions" }

// Fetch downloads and flattens the caption track for the item
func (s *CaptionStrategy) Fetch(ctx context.Context, item models.ContentItem) (string, error) {
	page, err := s.get(ctx, item.URL)
	if err != nil {
		return "", fmt.Errorf("failed to load watch page: %w", err)
	}

	trackURL, err := pickCaptionTrack(page, s.languages)
	if err != nil {
		return "", err
	}

	vtt, err := s.get(ctx, trackURL+"&fmt=vtt")
	if err != nil {
		return "", fmt.Errorf("failed to download captions: %w", err)
	}

	return parseVTT(vtt), nil
}

func (s *CaptionStrategy) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// pickCaptionTrack finds the caption track list embedded in the watch
// page and selects the first track matching the language preference,
// falling back to any track.
func pickCaptionTrack(page string, languages []string) (string, error) {
	match := captionTracksRe.FindStringSubmatch(page)
	if match == nil {
		return "", fmt.Errorf("no caption tracks on page")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return "", fmt.Errorf("failed to parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("caption track list is empty")
	}

	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t.BaseURL, nil
			}
		}
	}
	return tracks[0].BaseURL, nil
}

// parseVTT flattens a WebVTT document to plain text: header, cue
// timings and inline tags are dropped, consecutive duplicate lines
// (a WebVTT rolling-caption artifact) collapse to one.
func parseVTT(vtt string) string {
	var out []string
	var last string

	for _, line := range strings.Split(vtt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "WEBVTT" {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:") ||
			strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}

		line = strings.TrimSpace(cueTagRe.ReplaceAllString(line, ""))
		if line == "" || line == last {
			continue
		}
		out = append(out, line)
		last = line
	}

	return strings.Join(out, " ")
}
