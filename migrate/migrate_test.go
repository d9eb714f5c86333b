package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promokit/core"
	"promokit/migrate"
)

func TestPromotion_CurrentFormatPassesThrough(t *testing.T) {
	raw := []byte(`{
		"id": "promo-1",
		"name": "Provider Discovery",
		"enabled": true,
		"start_at": "2025-06-01T00:00:00Z",
		"end_at": "2025-07-01T00:00:00Z",
		"trigger": {"kind": "first_occurrence", "subject": "provider"},
		"mechanic": {"type": "collection", "collection": {"target_count": 3, "collect_by": "provider"}},
		"default_reward": {"type": "instant_reward", "amount": 20, "label": "20 free spins"}
	}`)

	p, err := migrate.Promotion(raw)
	require.NoError(t, err)
	assert.Equal(t, core.TriggerFirstOccurrence, p.Trigger.Kind)
	assert.Equal(t, core.SubjectProvider, p.Trigger.Subject)
	require.NoError(t, core.ValidatePromotion(p))
}

func TestPromotion_FlatDiscovery(t *testing.T) {
	raw := []byte(`{
		"id": "legacy-discovery",
		"name": "New Provider Bonus",
		"type": "game_provider_discovery",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"requiresOptIn": false,
		"includeVerticals": ["slots"],
		"triggers": {"first_win_on_provider": true, "winMultiplier": {"min": 2}},
		"mechanic": {"type": "collection", "collection": {"targetCount": 3, "collectBy": "providerId"}},
		"defaultReward": {"type": "entry", "label": "prize draw entry"}
	}`)

	p, err := migrate.Promotion(raw)
	require.NoError(t, err)
	assert.Equal(t, core.TriggerFirstOccurrence, p.Trigger.Kind)
	assert.Equal(t, core.SubjectProvider, p.Trigger.Subject)
	assert.False(t, p.Trigger.BonusBased)
	require.NotNil(t, p.Trigger.OutcomeFilter)
	assert.Equal(t, 2.0, *p.Trigger.OutcomeFilter.MinMultiplier)
	assert.Nil(t, p.Trigger.OutcomeFilter.MaxMultiplier)
	require.NotNil(t, p.Scope)
	assert.Equal(t, []core.Vertical{core.VerticalSlots}, p.Scope.Verticals)
	assert.Equal(t, core.SubjectProvider, p.Mechanic.Collection.CollectBy)
	require.NoError(t, core.ValidatePromotion(p))
}

func TestPromotion_FlatBonusDiscovery(t *testing.T) {
	raw := []byte(`{
		"id": "legacy-bonus",
		"name": "Bonus Hunter",
		"type": "game_provider_discovery",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"triggers": {"first_bonus_trigger_on_provider": true},
		"mechanic": {"type": "collection", "collection": {"targetCount": 2, "collectBy": "providerId"}},
		"defaultReward": {"type": "instant_reward", "amount": 5, "label": "5 EUR"}
	}`)

	p, err := migrate.Promotion(raw)
	require.NoError(t, err)
	assert.True(t, p.Trigger.BonusBased)
	assert.Equal(t, core.SubjectProvider, p.Trigger.Subject)
}

func TestPromotion_FlatChainAndChallenge(t *testing.T) {
	chain := []byte(`{
		"id": "legacy-chain",
		"name": "Vertical Tour",
		"type": "multi_game_chain",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"triggers": {"win_on_distinct_vertical": true},
		"mechanic": {"type": "collection", "collection": {"targetSet": ["slots", "live"], "collectBy": "vertical"}},
		"defaultReward": {"type": "entry", "label": "raffle ticket"}
	}`)

	p, err := migrate.Promotion(chain)
	require.NoError(t, err)
	assert.Equal(t, core.TriggerDistinctItems, p.Trigger.Kind)
	assert.Equal(t, core.SubjectVertical, p.Trigger.Subject)

	challenge := []byte(`{
		"id": "legacy-challenge",
		"name": "Big Win Challenge",
		"type": "opt_in_outcome_challenge",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"requiresOptIn": true,
		"triggers": {"winMultiplier": {"min": 50}},
		"mechanic": {"type": "ladder", "ladder": {"levels": [
			{"level": 1, "requirement": 1, "reward": {"type": "entry", "label": "entry"}}
		]}}
	}`)

	p, err = migrate.Promotion(challenge)
	require.NoError(t, err)
	assert.Equal(t, core.TriggerOutcomeRange, p.Trigger.Kind)
	assert.True(t, p.RequiresOptIn)
	assert.True(t, p.Trigger.AlsoProgress)
	assert.Equal(t, 50.0, p.Trigger.MinMultiplier)
	assert.Equal(t, 999.0, p.Trigger.MaxMultiplier)
}

func TestPromotion_FlatHighRangePrefersHighRangeBlock(t *testing.T) {
	raw := []byte(`{
		"id": "legacy-high-range",
		"name": "Mega Multiplier",
		"type": "high_range_outcome",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"triggers": {"winMultiplier": {"min": 10, "max": 100}},
		"highRange": {"min": 100, "max": 500, "alsoProgress": true,
			"instantReward": {"type": "instant_reward", "amount": 25, "label": "25 EUR"}},
		"mechanic": {"type": "ladder", "ladder": {"levels": [
			{"level": 1, "requirement": 2, "reward": {"type": "entry", "label": "entry"}}
		]}}
	}`)

	p, err := migrate.Promotion(raw)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Trigger.MinMultiplier)
	assert.Equal(t, 500.0, p.Trigger.MaxMultiplier)
	assert.True(t, p.Trigger.AlsoProgress)
	require.NotNil(t, p.Trigger.InstantReward)
	assert.Equal(t, "25 EUR", p.Trigger.InstantReward.Label)
}

func TestPromotion_FamilyShape(t *testing.T) {
	raw := []byte(`{
		"id": "family-discovery",
		"name": "Discovery",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"trigger": {"family": "discovery", "discoveryTarget": "first_win_on_game",
			"outcomeFilter": {"minMultiplier": 1.5}},
		"scope": {"providers": ["provider-netent"]},
		"mechanic": {"type": "collection", "collection": {"targetCount": 5, "collectBy": "gameId"}},
		"defaultReward": {"type": "entry", "label": "entry"}
	}`)

	p, err := migrate.Promotion(raw)
	require.NoError(t, err)
	assert.Equal(t, core.TriggerFirstOccurrence, p.Trigger.Kind)
	assert.Equal(t, core.SubjectGame, p.Trigger.Subject)
	require.NotNil(t, p.Trigger.OutcomeFilter)
	assert.Equal(t, 1.5, *p.Trigger.OutcomeFilter.MinMultiplier)
	require.NotNil(t, p.Scope)
	assert.Equal(t, []string{"provider-netent"}, p.Scope.Providers)
}

func TestPromotion_CompositionalCamelCase(t *testing.T) {
	raw := []byte(`{
		"id": "comp-range",
		"name": "Range",
		"enabled": true,
		"startAt": "2025-06-01T00:00:00Z",
		"endAt": "2025-07-01T00:00:00Z",
		"trigger": {"kind": "win_multiplier_range", "minMultiplier": 10, "maxMultiplier": 1000,
			"alsoProgress": true},
		"mechanic": {"type": "ladder", "ladder": {"levels": [
			{"level": 1, "requirement": 1, "reward": {"type": "entry", "label": "entry"}}
		]}}
	}`)

	p, err := migrate.Promotion(raw)
	require.NoError(t, err)
	assert.Equal(t, core.TriggerOutcomeRange, p.Trigger.Kind)
	assert.Equal(t, 10.0, p.Trigger.MinMultiplier)
	assert.Equal(t, 1000.0, p.Trigger.MaxMultiplier)
	assert.True(t, p.Trigger.AlsoProgress)
}

func TestPromotion_Unrecognized(t *testing.T) {
	_, err := migrate.Promotion([]byte(`{"id": "mystery", "name": "x"}`))
	require.Error(t, err)

	_, err = migrate.Promotion([]byte(`{"id": "bad-time", "type": "multi_game_chain",
		"startAt": "yesterday", "endAt": "2025-07-01T00:00:00Z",
		"mechanic": {"type": "collection"}}`))
	require.Error(t, err)
}

func TestPromotions_List(t *testing.T) {
	raw := []byte(`[
		{"id": "a", "name": "A", "type": "multi_game_chain", "enabled": true,
			"startAt": "2025-06-01T00:00:00Z", "endAt": "2025-07-01T00:00:00Z",
			"triggers": {"win_on_distinct_game": true},
			"mechanic": {"type": "collection", "collection": {"targetCount": 3, "collectBy": "gameId"}},
			"defaultReward": {"type": "entry", "label": "entry"}}
	]`)

	promos, err := migrate.Promotions(raw)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, core.SubjectGame, promos[0].Trigger.Subject)
}
