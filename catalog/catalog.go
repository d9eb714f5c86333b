// Package catalog holds the demo game lobby and seed promotions used by the
// demo server and admin reset flows.
package catalog

import (
	"context"
	"time"

	"promokit/core"
	"promokit/engine"
)

// Game describes one lobby entry.
type Game struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ProviderID   string        `json:"provider_id"`
	ProviderName string        `json:"provider_name"`
	Vertical     core.Vertical `json:"vertical"`
}

// Provider describes one game studio.
type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var games = []Game{
	{ID: "game-slot-1", Name: "Lucky Spins", ProviderID: "provider-pragmatic", ProviderName: "Pragmatic Play", Vertical: core.VerticalSlots},
	{ID: "game-slot-2", Name: "Diamond Rush", ProviderID: "provider-pragmatic", ProviderName: "Pragmatic Play", Vertical: core.VerticalSlots},
	{ID: "game-slot-3", Name: "Wild Fortune", ProviderID: "provider-netent", ProviderName: "NetEnt", Vertical: core.VerticalSlots},
	{ID: "game-slot-4", Name: "Mega Win", ProviderID: "provider-netent", ProviderName: "NetEnt", Vertical: core.VerticalSlots},
	{ID: "game-slot-5", Name: "Treasure Quest", ProviderID: "provider-evolution", ProviderName: "Evolution", Vertical: core.VerticalSlots},
	{ID: "game-live-1", Name: "Live Blackjack", ProviderID: "provider-evolution", ProviderName: "Evolution", Vertical: core.VerticalLive},
	{ID: "game-live-2", Name: "Live Roulette", ProviderID: "provider-evolution", ProviderName: "Evolution", Vertical: core.VerticalLive},
	{ID: "game-live-3", Name: "Live Baccarat", ProviderID: "provider-ezugi", ProviderName: "Ezugi", Vertical: core.VerticalLive},
	{ID: "game-crash-1", Name: "Rocket Crash", ProviderID: "provider-crash", ProviderName: "Crash Games", Vertical: core.VerticalCrash},
	{ID: "game-crash-2", Name: "Minesweeper", ProviderID: "provider-crash", ProviderName: "Crash Games", Vertical: core.VerticalCrash},
	{ID: "game-table-1", Name: "Classic Blackjack", ProviderID: "provider-pragmatic", ProviderName: "Pragmatic Play", Vertical: core.VerticalTable},
	{ID: "game-table-2", Name: "European Roulette", ProviderID: "provider-netent", ProviderName: "NetEnt", Vertical: core.VerticalTable},
}

// Games returns the full lobby.
func Games() []Game {
	out := make([]Game, len(games))
	copy(out, games)
	return out
}

// GameByID returns the game with the given id.
func GameByID(id string) (Game, bool) {
	for _, g := range games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// GamesByProvider returns every game from one provider.
func GamesByProvider(providerID string) []Game {
	var out []Game
	for _, g := range games {
		if g.ProviderID == providerID {
			out = append(out, g)
		}
	}
	return out
}

// GamesByVertical returns every game in one vertical.
func GamesByVertical(v core.Vertical) []Game {
	var out []Game
	for _, g := range games {
		if g.Vertical == v {
			out = append(out, g)
		}
	}
	return out
}

// Providers returns the distinct providers, in lobby order.
func Providers() []Provider {
	seen := make(map[string]bool)
	var out []Provider
	for _, g := range games {
		if seen[g.ProviderID] {
			continue
		}
		seen[g.ProviderID] = true
		out = append(out, Provider{ID: g.ProviderID, Name: g.ProviderName})
	}
	return out
}

// SeedPromotions returns the demo promotion set. All three configurations
// exercise a different trigger kind.
func SeedPromotions(now time.Time) []core.PromotionConfig {
	start := now.Truncate(24 * time.Hour)
	end := start.AddDate(0, 1, 0)
	return []core.PromotionConfig{
		{
			ID:      "promo-provider-discovery",
			Name:    "Provider Discovery",
			Enabled: true,
			StartAt: start,
			EndAt:   end,
			Trigger: core.Trigger{
				Kind:    core.TriggerFirstOccurrence,
				Subject: core.SubjectProvider,
			},
			Mechanic: core.Mechanic{
				Type: core.MechanicCollection,
				Collection: &core.CollectionConfig{
					TargetCount: 3,
					CollectBy:   core.SubjectProvider,
				},
			},
			DefaultReward: &core.RewardPayload{Type: core.RewardInstant, Amount: 20, Label: "20 free spins"},
		},
		{
			ID:      "promo-big-win-ladder",
			Name:    "Big Win Ladder",
			Enabled: true,
			StartAt: start,
			EndAt:   end,
			Trigger: core.Trigger{
				Kind:          core.TriggerOutcomeRange,
				MinMultiplier: 10,
				MaxMultiplier: 999,
				AlsoProgress:  true,
			},
			Mechanic: core.Mechanic{
				Type: core.MechanicLadder,
				Ladder: &core.LadderConfig{
					Levels: []core.LadderLevel{
						{Level: 1, Requirement: 1, Reward: core.RewardPayload{Type: core.RewardEntry, Label: "prize draw entry"}},
						{Level: 2, Requirement: 3, Reward: core.RewardPayload{Type: core.RewardInstant, Amount: 10, Label: "10 EUR cash drop"}},
						{Level: 3, Requirement: 5, Reward: core.RewardPayload{Type: core.RewardInstant, Amount: 50, Label: "50 EUR cash drop"}},
					},
				},
			},
			MaxRewardsPerDay: 3,
		},
		{
			ID:            "promo-vertical-explorer",
			Name:          "Vertical Explorer",
			Enabled:       true,
			StartAt:       start,
			EndAt:         end,
			RequiresOptIn: true,
			Trigger: core.Trigger{
				Kind:    core.TriggerDistinctItems,
				Subject: core.SubjectVertical,
			},
			Mechanic: core.Mechanic{
				Type: core.MechanicCollection,
				Collection: &core.CollectionConfig{
					TargetSet: []string{string(core.VerticalSlots), string(core.VerticalLive), string(core.VerticalTable)},
					CollectBy: core.SubjectVertical,
				},
			},
			DefaultReward: &core.RewardPayload{Type: core.RewardEntry, Label: "explorer raffle ticket"},
		},
	}
}

// Seed loads the demo promotions into storage when none exist yet. It
// returns the number of promotions written.
func Seed(ctx context.Context, store engine.Storage, now time.Time) (int, error) {
	existing, err := store.ListPromotions(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	promos := SeedPromotions(now)
	for _, p := range promos {
		if err := store.SavePromotion(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(promos), nil
}
