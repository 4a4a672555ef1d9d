package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mlundberg/borsradar/pkg/models"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d", want)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, hub, 1)

	hub.ResultPersisted(
		models.ContentItem{ItemID: "ep1", Title: "Avsnitt 1", SourceName: "Börspodden"},
		&models.AnalysisResult{Summary: "En sammanfattning", Mentions: []models.Mention{{Name: "Volvo"}}},
	)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev struct {
		Type string `json:"type"`
		Item struct {
			ItemID string `json:"item_id"`
		} `json:"item"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "analysis" || ev.Item.ItemID != "ep1" {
		t.Errorf("event = %s", payload)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()

	// A client whose write loop never drains: once its buffer is
	// full, the next broadcast must evict it instead of blocking.
	stuck := &client{send: make(chan []byte, 1)}
	hub.clients[stuck] = struct{}{}

	item := models.ContentItem{ItemID: "ep1"}
	result := &models.AnalysisResult{Summary: "s"}

	hub.ResultPersisted(item, result)
	if hub.ClientCount() != 1 {
		t.Fatal("client dropped too early")
	}

	hub.ResultPersisted(item, result)
	if hub.ClientCount() != 0 {
		t.Error("slow client was never dropped")
	}
}
