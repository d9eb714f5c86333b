package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"promokit/core"
)

// Hub fans engine signals out to realtime subscribers (WebSocket, SSE).
type Hub struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	ch     chan core.Signal
	player core.PlayerID
}

func NewHub() *Hub { return &Hub{subs: map[int]*subscriber{}} }

// Subscribe registers a firehose subscriber receiving every signal.
func (h *Hub) Subscribe(buffer int) (int, <-chan core.Signal) {
	return h.subscribe(buffer, "")
}

// SubscribePlayer registers a subscriber receiving only one player's signals.
func (h *Hub) SubscribePlayer(buffer int, player core.PlayerID) (int, <-chan core.Signal) {
	return h.subscribe(buffer, player)
}

func (h *Hub) subscribe(buffer int, player core.PlayerID) (int, <-chan core.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	sub := &subscriber{ch: make(chan core.Signal, buffer), player: player}
	h.subs[id] = sub
	return id, sub.ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Broadcast delivers the signal to every matching subscriber. Slow
// subscribers with a full buffer miss the signal rather than block the
// evaluation path.
func (h *Hub) Broadcast(_ context.Context, sig core.Signal) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	receivers := make([]chan core.Signal, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.player != "" && sub.player != sig.PlayerID {
			continue
		}
		receivers = append(receivers, sub.ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- sig:
		default: /* drop if full */
		}
	}
}

// MarshalJSON is a helper to convert signals to JSON bytes for WebSocket/SSE.
func MarshalJSON(sig core.Signal) []byte {
	b, _ := json.Marshal(sig)
	return b
}
