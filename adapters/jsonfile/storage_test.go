package jsonfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"promokit/core"
	"promokit/engine"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promokit.json")
	ctx := context.Background()

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	promo := core.PromotionConfig{ID: "promo-1", Name: "Discovery", Enabled: true}
	if err := store.SavePromotion(ctx, promo); err != nil {
		t.Fatalf("save promotion: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	state := core.NewPlayerState("p1")
	state.Promotions["promo-1"] = core.PlayerPromotionState{
		PromotionID: "promo-1",
		Progress:    core.Progress{CollectedItems: []string{"provider-a"}, TriggerCount: 1},
		LastUpdated: now,
	}
	if err := store.SavePlayerState(ctx, state); err != nil {
		t.Fatalf("save player state: %v", err)
	}
	if err := store.AppendLog(ctx, core.LogEntry{PlayerID: "p1", Timestamp: now}); err != nil {
		t.Fatalf("append log: %v", err)
	}

	// A fresh store over the same file sees everything.
	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, err := reopened.GetPromotion(ctx, "promo-1")
	if err != nil || got.Name != "Discovery" {
		t.Fatalf("get promotion: %+v err=%v", got, err)
	}
	st, found, err := reopened.GetPlayerState(ctx, "p1")
	if err != nil || !found {
		t.Fatalf("get player state: found=%v err=%v", found, err)
	}
	if st.Promotions["promo-1"].Progress.TriggerCount != 1 {
		t.Fatalf("unexpected progress: %+v", st.Promotions["promo-1"].Progress)
	}
	logs, err := reopened.PlayerLogs(ctx, "p1", 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("logs: %v err=%v", logs, err)
	}
}

func TestStoreMissingPromotion(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "promokit.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.GetPromotion(context.Background(), "missing"); err != engine.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStoreReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promokit.json")
	ctx := context.Background()
	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SavePromotion(ctx, core.PromotionConfig{ID: "promo-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	promos, err := reopened.ListPromotions(ctx)
	if err != nil || len(promos) != 0 {
		t.Fatalf("want empty catalog after reset, got %v err=%v", promos, err)
	}
}
