package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	mem "promokit/adapters/memory"
	ws "promokit/adapters/websocket"
	"promokit/catalog"
	"promokit/core"
	"promokit/engine"
	"promokit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	store := mem.New()
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewPromoService(store, bus)
	hub := realtime.NewHub()

	seeded, err := svc.SeedPromotions(ctx, catalog.SeedPromotions(time.Now().UTC()))
	if err != nil {
		slog.Error("failed to seed promotions", "error", err)
		os.Exit(1)
	}
	slog.Info("seeded demo catalog", "count", seeded)

	// Forward engine signals to WebSocket clients
	bus.Subscribe(core.SignalEventEvaluated, func(ctx context.Context, s core.Signal) { hub.Broadcast(ctx, s) })
	bus.Subscribe(core.SignalProgressMade, func(ctx context.Context, s core.Signal) { hub.Broadcast(ctx, s) })
	bus.Subscribe(core.SignalRewardGranted, func(ctx context.Context, s core.Signal) { hub.Broadcast(ctx, s) })
	bus.Subscribe(core.SignalPromotionJoined, func(ctx context.Context, s core.Signal) { hub.Broadcast(ctx, s) })

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/spin", func(w http.ResponseWriter, r *http.Request) {
		// POST /spin?player=p1&game=game-slot-1&multiplier=12.5&bonus=true
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		game, ok := catalog.GameByID(r.URL.Query().Get("game"))
		if !ok {
			http.Error(w, "unknown game", http.StatusBadRequest)
			return
		}
		multiplier, _ := strconv.ParseFloat(r.URL.Query().Get("multiplier"), 64)
		bonus, _ := strconv.ParseBool(r.URL.Query().Get("bonus"))
		ev := core.Event{
			PlayerID:       core.PlayerID(r.URL.Query().Get("player")),
			GameID:         game.ID,
			ProviderID:     game.ProviderID,
			Vertical:       game.Vertical,
			WinMultiplier:  multiplier,
			BonusTriggered: bonus,
			Timestamp:      time.Now().UTC(),
		}
		results, err := svc.ProcessEvent(ctx, ev)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"evaluations": results})
	})
	http.HandleFunc("/players/", func(w http.ResponseWriter, r *http.Request) {
		// routes: GET /players/{id}, POST /players/{id}/join/{promotion}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		player := core.PlayerID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 4 && parts[2] == "join" {
				err := svc.Join(ctx, player, parts[3])
				writeJSON(w, map[string]any{"ok": err == nil, "err": errString(err)})
				return
			}
		case http.MethodGet:
			st, err := svc.PlayerState(ctx, player)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, st)
			return
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
