package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "promokit/adapters/memory"
	"promokit/core"
	"promokit/engine"
)

func newTestService(t *testing.T) (*engine.PromoService, *mem.Store) {
	t.Helper()
	store := mem.New()
	svc := engine.NewPromoService(store, engine.NewEventBus(engine.DispatchSync))
	t.Cleanup(svc.Close)
	return svc, store
}

func testPromo(id string) core.PromotionConfig {
	return core.PromotionConfig{
		ID:      id,
		Name:    "Provider Discovery",
		Enabled: true,
		StartAt: time.Now().Add(-time.Hour),
		EndAt:   time.Now().Add(time.Hour),
		Trigger: core.Trigger{Kind: core.TriggerFirstOccurrence, Subject: core.SubjectProvider},
		Mechanic: core.Mechanic{
			Type:       core.MechanicCollection,
			Collection: &core.CollectionConfig{TargetCount: 3, CollectBy: core.SubjectProvider},
		},
		DefaultReward: &core.RewardPayload{Type: core.RewardInstant, Amount: 10, Label: "free spins"},
	}
}

func playEvent(provider string) core.Event {
	return core.Event{
		PlayerID:      "Player-1",
		GameID:        "game-slot-1",
		ProviderID:    provider,
		Vertical:      core.VerticalSlots,
		WinMultiplier: 2,
	}
}

func TestProcessEventEvaluatesEnabledPromotionsOnly(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SavePromotion(ctx, testPromo("promo-a")))
	disabled := testPromo("promo-b")
	disabled.Enabled = false
	require.NoError(t, store.SavePromotion(ctx, disabled))

	results, err := svc.ProcessEvent(ctx, playEvent("provider-x"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "promo-a", results[0].PromotionID)
	assert.True(t, results[0].Fired)
}

func TestProcessEventPersistsStateAndLogs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SavePromotion(ctx, testPromo("promo-a")))

	for _, provider := range []string{"provider-a", "provider-b", "provider-c"} {
		_, err := svc.ProcessEvent(ctx, playEvent(provider))
		require.NoError(t, err)
	}

	state, err := svc.PlayerState(ctx, "player-1")
	require.NoError(t, err)
	ps := state.Promotions["promo-a"]
	assert.ElementsMatch(t, []string{"provider-a", "provider-b", "provider-c"}, ps.Progress.CollectedItems)
	assert.Equal(t, 1, ps.TotalRewardCount)
	require.NotNil(t, state.LastEventAt)

	logs, err := svc.PlayerLogs(ctx, "player-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// Most recent first: the last event granted the completion reward.
	require.Len(t, logs[0].Evaluations, 1)
	require.NotNil(t, logs[0].Evaluations[0].Reward)
	assert.Equal(t, "provider-c", logs[0].Event.ProviderID)
}

func TestProcessEventNormalizesPlayerID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SavePromotion(ctx, testPromo("promo-a")))

	_, err := svc.ProcessEvent(ctx, playEvent("provider-a"))
	require.NoError(t, err)

	state, err := svc.PlayerState(ctx, "PLAYER-1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Promotions["promo-a"].Progress.TriggerCount)

	_, err = svc.ProcessEvent(ctx, core.Event{PlayerID: "  "})
	assert.Error(t, err)
}

func TestJoinOptInPromotion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p := testPromo("promo-optin")
	p.RequiresOptIn = true
	require.NoError(t, svc.SavePromotion(ctx, p))

	// Without joining, the event is ineligible.
	results, err := svc.ProcessEvent(ctx, playEvent("provider-a"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Eligible)

	require.NoError(t, svc.Join(ctx, "Player-1", "promo-optin"))

	results, err = svc.ProcessEvent(ctx, playEvent("provider-a"))
	require.NoError(t, err)
	assert.True(t, results[0].Eligible)
	assert.True(t, results[0].Fired)

	assert.ErrorIs(t, svc.Join(ctx, "player-1", "missing"), engine.ErrNotFound)
}

func TestSignalsPublished(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SavePromotion(ctx, testPromo("promo-a")))

	var mu sync.Mutex
	counts := map[core.SignalType]int{}
	for _, typ := range []core.SignalType{core.SignalEventEvaluated, core.SignalProgressMade, core.SignalRewardGranted} {
		typ := typ
		svc.Subscribe(typ, func(_ context.Context, s core.Signal) {
			mu.Lock()
			counts[typ]++
			mu.Unlock()
		})
	}

	for _, provider := range []string{"provider-a", "provider-b", "provider-c"} {
		_, err := svc.ProcessEvent(ctx, playEvent(provider))
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, counts[core.SignalEventEvaluated])
	assert.Equal(t, 2, counts[core.SignalProgressMade])
	assert.Equal(t, 1, counts[core.SignalRewardGranted])
}

func TestSavePromotionValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := testPromo("promo-bad")
	bad.Mechanic.Collection.TargetCount = 0
	err := svc.SavePromotion(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid promotion")

	_, err = svc.Promotion(ctx, "promo-bad")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestConcurrentEventsSamePlayerNoLostUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p := testPromo("promo-ladder")
	p.Trigger = core.Trigger{Kind: core.TriggerOutcomeRange, MinMultiplier: 1, MaxMultiplier: 1000, AlsoProgress: true}
	p.Mechanic = core.Mechanic{Type: core.MechanicLadder, Ladder: &core.LadderConfig{Levels: []core.LadderLevel{
		{Level: 1, Requirement: 1000, Reward: core.RewardPayload{Type: core.RewardEntry, Label: "unreachable"}},
	}}}
	p.DefaultReward = nil
	require.NoError(t, svc.SavePromotion(ctx, p))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.ProcessEvent(ctx, playEvent("provider-a"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := svc.PlayerState(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, n, state.Promotions["promo-ladder"].Progress.TriggerCount)
}

func TestResetWipesEverything(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SavePromotion(ctx, testPromo("promo-a")))
	_, err := svc.ProcessEvent(ctx, playEvent("provider-a"))
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))

	promos, err := svc.Promotions(ctx)
	require.NoError(t, err)
	assert.Empty(t, promos)
	state, err := svc.PlayerState(ctx, "player-1")
	require.NoError(t, err)
	assert.Empty(t, state.Promotions)
}
