package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promokit/core"
	"promokit/engine"
)

func TestPromotionCRUD(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.GetPromotion(ctx, "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	p := core.PromotionConfig{ID: "promo-1", Name: "Test", Enabled: true}
	require.NoError(t, store.SavePromotion(ctx, p))

	got, err := store.GetPromotion(ctx, "promo-1")
	require.NoError(t, err)
	assert.Equal(t, "Test", got.Name)

	all, err := store.ListPromotions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeletePromotion(ctx, "promo-1"))
	_, err = store.GetPromotion(ctx, "promo-1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestPlayerStateIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	st := core.NewPlayerState("p1")
	st.Promotions["promo-1"] = core.PlayerPromotionState{
		PromotionID: "promo-1",
		Progress:    core.Progress{CollectedItems: []string{"a"}},
	}
	require.NoError(t, store.SavePlayerState(ctx, st))

	// Mutating the snapshot we saved must not change what the store holds.
	ps := st.Promotions["promo-1"]
	ps.Progress.CollectedItems[0] = "mutated"

	got, found, err := store.GetPlayerState(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a"}, got.Promotions["promo-1"].Progress.CollectedItems)

	// And mutating what we read must not change the store either.
	got.Promotions["promo-1"].Progress.CollectedItems[0] = "mutated"
	again, _, err := store.GetPlayerState(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Promotions["promo-1"].Progress.CollectedItems)
}

func TestLogsCappedAndOrdered(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := 0; i < logCap+10; i++ {
		entry := core.LogEntry{
			PlayerID:  "p1",
			Timestamp: time.Unix(int64(i), 0),
			Event:     core.Event{PlayerID: "p1", GameID: fmt.Sprintf("game-%d", i)},
		}
		require.NoError(t, store.AppendLog(ctx, entry))
	}

	logs, err := store.PlayerLogs(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, logCap)
	// Most recent first.
	assert.Equal(t, fmt.Sprintf("game-%d", logCap+9), logs[0].Event.GameID)

	limited, err := store.PlayerLogs(ctx, "p1", 5)
	require.NoError(t, err)
	assert.Len(t, limited, 5)
}

func TestReset(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.SavePromotion(ctx, core.PromotionConfig{ID: "promo-1"}))
	require.NoError(t, store.SavePlayerState(ctx, core.NewPlayerState("p1")))
	require.NoError(t, store.AppendLog(ctx, core.LogEntry{PlayerID: "p1"}))

	require.NoError(t, store.Reset(ctx))

	all, err := store.ListPromotions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, found, err := store.GetPlayerState(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
	logs, err := store.PlayerLogs(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
