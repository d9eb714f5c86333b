package engine

import (
	"time"

	"promokit/core"
)

// testNow is the fixed evaluation clock used across engine tests.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func spinsReward(amount float64) *core.RewardPayload {
	return &core.RewardPayload{Type: core.RewardInstant, Amount: amount, Label: "free spins"}
}

// discoveryPromo is a first-occurrence-on-provider promotion with a
// collection mechanic, the shape used by the provider discovery campaign.
func discoveryPromo(id string, targetCount int) core.PromotionConfig {
	return core.PromotionConfig{
		ID:      id,
		Name:    "Provider Discovery",
		Enabled: true,
		StartAt: testNow.Add(-24 * time.Hour),
		EndAt:   testNow.Add(24 * time.Hour),
		Trigger: core.Trigger{Kind: core.TriggerFirstOccurrence, Subject: core.SubjectProvider},
		Mechanic: core.Mechanic{
			Type:       core.MechanicCollection,
			Collection: &core.CollectionConfig{TargetCount: targetCount, CollectBy: core.SubjectProvider},
		},
		DefaultReward: spinsReward(10),
	}
}

// ladderPromo rewards repeated big wins through a two-level ladder.
func ladderPromo(id string) core.PromotionConfig {
	return core.PromotionConfig{
		ID:      id,
		Name:    "Win Streak Ladder",
		Enabled: true,
		StartAt: testNow.Add(-24 * time.Hour),
		EndAt:   testNow.Add(24 * time.Hour),
		Trigger: core.Trigger{Kind: core.TriggerOutcomeRange, MinMultiplier: 1, MaxMultiplier: 1000, AlsoProgress: true},
		Mechanic: core.Mechanic{
			Type: core.MechanicLadder,
			Ladder: &core.LadderConfig{Levels: []core.LadderLevel{
				{Level: 1, Requirement: 1, Reward: core.RewardPayload{Type: core.RewardEntry, Label: "draw entry"}},
				{Level: 2, Requirement: 3, Reward: core.RewardPayload{Type: core.RewardInstant, Amount: 25, Label: "cash drop"}},
			}},
		},
	}
}

func winEvent(provider string, multiplier float64) core.Event {
	return core.Event{
		PlayerID:      "p1",
		GameID:        "game-slot-1",
		ProviderID:    provider,
		Vertical:      core.VerticalSlots,
		WinMultiplier: multiplier,
		Timestamp:     testNow,
	}
}

func stateWith(promotionID string, ps core.PlayerPromotionState) *core.PlayerState {
	ps.PromotionID = promotionID
	st := core.NewPlayerState("p1")
	st.Promotions[promotionID] = ps
	return &st
}
