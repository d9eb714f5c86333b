package websocket

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"promokit/core"
	"promokit/realtime"
)

// Handler returns an http.Handler that upgrades to WebSocket and streams
// engine signals from the hub. A player query parameter narrows the stream
// to that player's signals.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var (
			id int
			ch <-chan core.Signal
		)
		if player := r.URL.Query().Get("player"); player != "" {
			normalized, err := core.NormalizePlayerID(core.PlayerID(player))
			if err != nil {
				return
			}
			id, ch = hub.SubscribePlayer(256, normalized)
		} else {
			id, ch = hub.Subscribe(256)
		}
		defer hub.Unsubscribe(id)

		for sig := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(sig)); err != nil {
				return
			}
		}
	})
}
