package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/models"
)

func newTestCatalog(t *testing.T) (*SpotifyClient, *int) {
	t.Helper()
	tokenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok123",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"shows": map[string]any{
				"items": []map[string]any{
					{"id": "other1", "name": "Börspodden Extra"},
					{"id": "show1", "name": "Börspodden"},
				},
			},
		})
	})
	mux.HandleFunc("/shows/show1/episodes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":            "ep1",
					"name":          "Avsnitt 100",
					"description":   "Vi pratar Volvo",
					"release_date":  "2026-08-20",
					"external_urls": map[string]string{"spotify": "https://open.spotify.com/episode/ep1"},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewSpotifyClient(&config.PodcastsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Market:       "SE",
	})
	client.tokenURL = srv.URL + "/token"
	client.apiURL = srv.URL
	return client, &tokenCalls
}

func TestSpotifyEpisodes(t *testing.T) {
	client, _ := newTestCatalog(t)

	items, err := client.Episodes(context.Background(), "Börspodden", 5)
	if err != nil {
		t.Fatalf("Episodes: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}

	item := items[0]
	if item.Title != "Avsnitt 100" {
		t.Errorf("title = %q", item.Title)
	}
	if item.Kind != models.KindEpisode {
		t.Errorf("kind = %q", item.Kind)
	}
	if item.ExternalID != "ep1" {
		t.Errorf("external id = %q", item.ExternalID)
	}
	if want := models.ItemID("ep1", item.PublishedAt); item.ItemID != want {
		t.Errorf("item id not deterministic: %q vs %q", item.ItemID, want)
	}
}

func TestSpotifyTokenReuse(t *testing.T) {
	client, tokenCalls := newTestCatalog(t)

	for i := 0; i < 3; i++ {
		if _, err := client.Episodes(context.Background(), "Börspodden", 5); err != nil {
			t.Fatalf("Episodes: %v", err)
		}
	}
	if *tokenCalls != 1 {
		t.Errorf("token fetched %d times, want 1", *tokenCalls)
	}
}

func TestSpotifyPrefersExactShowNameMatch(t *testing.T) {
	client, _ := newTestCatalog(t)

	id, err := client.resolveShowID(context.Background(), "Börspodden")
	if err != nil {
		t.Fatalf("resolveShowID: %v", err)
	}
	if id != "show1" {
		t.Errorf("id = %q, want exact-match show1", id)
	}
}
