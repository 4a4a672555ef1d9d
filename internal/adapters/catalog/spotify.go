package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIURL   = "https://api.spotify.com/v1"
)

// SpotifyClient lists show episodes through the public catalog API
// using the client-credentials flow. The token is cached and
// refreshed ahead of expiry.
type SpotifyClient struct {
	client       *http.Client
	clientID     string
	clientSecret string
	market       string
	tokenURL     string
	apiURL       string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	// showIDs caches name→catalog id lookups across scans
	showIDs map[string]string
}

// NewSpotifyClient creates the catalog client
func NewSpotifyClient(cfg *config.PodcastsConfig) *SpotifyClient {
	return &SpotifyClient{
		client:       &http.Client{Timeout: 15 * time.Second},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		market:       cfg.Market,
		tokenURL:     spotifyTokenURL,
		apiURL:       spotifyAPIURL,
		showIDs:      make(map[string]string),
	}
}

// Name returns provider name for logging
func (c *SpotifyClient) Name() string { return "spotify" }

// Episodes returns the newest episodes for the show
func (c *SpotifyClient) Episodes(ctx context.Context, showName string, limit int) ([]models.ContentItem, error) {
	showID, err := c.resolveShowID(ctx, showName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	var resp struct {
		Items []spotifyEpisode `json:"items"`
	}
	endpoint := fmt.Sprintf("%s/shows/%s/episodes?market=%s&limit=%d", c.apiURL, showID, c.market, limit)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to list episodes for %s: %w", showName, err)
	}

	items := make([]models.ContentItem, 0, len(resp.Items))
	for _, ep := range resp.Items {
		publishedAt := ep.releaseTime()
		items = append(items, models.ContentItem{
			ItemID:      models.ItemID(ep.ID, publishedAt),
			ExternalID:  ep.ID,
			Kind:        models.KindEpisode,
			Title:       ep.Name,
			SourceName:  showName,
			URL:         ep.ExternalURLs.Spotify,
			Description: ep.Description,
			PublishedAt: publishedAt,
		})
	}

	logger.Debug("episodes listed",
		zap.String("show", showName),
		zap.Int("count", len(items)),
	)
	return items, nil
}

type spotifyEpisode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ReleaseDate  string `json:"release_date"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (e spotifyEpisode) releaseTime() time.Time {
	if t, err := time.Parse("2006-01-02", e.ReleaseDate); err == nil {
		return t
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// resolveShowID finds the catalog id for a show name via search,
// caching the answer.
func (c *SpotifyClient) resolveShowID(ctx context.Context, showName string) (string, error) {
	c.mu.Lock()
	if id, ok := c.showIDs[showName]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var resp struct {
		Shows struct {
			Items []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"items"`
		} `json:"shows"`
	}
	endpoint := fmt.Sprintf("%s/search?q=%s&type=show&market=%s&limit=5", c.apiURL, url.QueryEscape(showName), c.market)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", fmt.Errorf("show search failed for %s: %w", showName, err)
	}
	if len(resp.Shows.Items) == 0 {
		return "", fmt.Errorf("show not found: %s", showName)
	}

	// Prefer an exact name match over the first search hit.
	id := resp.Shows.Items[0].ID
	for _, show := range resp.Shows.Items {
		if strings.EqualFold(show.Name, showName) {
			id = show.ID
			break
		}
	}

	c.mu.Lock()
	c.showIDs[showName] = id
	c.mu.Unlock()
	return id, nil
}

func (c *SpotifyClient) getJSON(ctx context.Context, endpoint string, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// token returns a valid access token, refreshing through the
// client-credentials flow when the cached one is near expiry.
func (c *SpotifyClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	logger.Debug("catalog token refreshed",
		zap.Time("expires", c.tokenExpiry),
	)
	return c.accessToken, nil
}
