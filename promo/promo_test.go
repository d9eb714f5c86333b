package promo

import (
	"context"
	"testing"
	"time"

	"promokit/adapters/memory"
	"promokit/analytics"
	"promokit/core"
	"promokit/engine"
	"promokit/realtime"
)

func discoveryPromo() core.PromotionConfig {
	return core.PromotionConfig{
		ID:      "promo-1",
		Name:    "Provider Discovery",
		Enabled: true,
		StartAt: time.Now().UTC().Add(-time.Hour),
		EndAt:   time.Now().UTC().Add(time.Hour),
		Trigger: core.Trigger{Kind: core.TriggerFirstOccurrence, Subject: core.SubjectProvider},
		Mechanic: core.Mechanic{
			Type:       core.MechanicCollection,
			Collection: &core.CollectionConfig{TargetCount: 3, CollectBy: core.SubjectProvider},
		},
		DefaultReward: &core.RewardPayload{Type: core.RewardEntry, Label: "prize draw entry"},
	}
}

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	metrics := analytics.NewPromoMetrics()
	svc := New(
		WithRealtime(hub),
		WithStorage(memory.New()),
		WithDispatchMode(engine.DispatchSync),
		WithHooks(metrics),
	)
	defer svc.Close()

	ctx := context.Background()
	if err := svc.SavePromotion(ctx, discoveryPromo()); err != nil {
		t.Fatalf("save promotion: %v", err)
	}

	_, ch := hub.Subscribe(8)
	results, err := svc.ProcessEvent(ctx, core.Event{
		PlayerID:      "p1",
		GameID:        "game-slot-1",
		ProviderID:    "provider-pragmatic",
		Vertical:      core.VerticalSlots,
		WinMultiplier: 2,
	})
	if err != nil {
		t.Fatalf("process event: %v", err)
	}
	if len(results) != 1 || !results[0].Fired {
		t.Fatalf("unexpected results: %+v", results)
	}

	sig := <-ch
	if sig.PlayerID != "p1" {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	day := time.Now().UTC().Format("2006-01-02")
	if metrics.DailyActivePlayers(day) != 1 {
		t.Fatalf("hook did not see the signal")
	}
}

func TestNewFallsBackToMemoryStorage(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	ctx := context.Background()
	if err := svc.SavePromotion(ctx, discoveryPromo()); err != nil {
		t.Fatalf("save promotion: %v", err)
	}
	promos, err := svc.Promotions(ctx)
	if err != nil || len(promos) != 1 {
		t.Fatalf("promotions: %v %d", err, len(promos))
	}
}
