package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"promokit/core"
	"promokit/realtime"
)

func TestHandlerStreamsSignals(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] // convert http->ws
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// ensure subscriber goroutine is ready
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(context.Background(), core.NewProgressMade("p1", "promo-1"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received core.Signal
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode signal: %v", err)
	}
	if received.PlayerID != "p1" || received.Type != core.SignalProgressMade {
		t.Fatalf("unexpected signal: %+v", received)
	}
}

func TestHandlerPlayerFilter(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] + "?player=Player-1"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(context.Background(), core.NewProgressMade("p2", "promo-1"))
	hub.Broadcast(context.Background(), core.NewProgressMade("player-1", "promo-2"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received core.Signal
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode signal: %v", err)
	}
	if received.PlayerID != "player-1" || received.PromotionID != "promo-2" {
		t.Fatalf("expected filtered signal for player-1, got %+v", received)
	}
}
