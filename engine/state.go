package engine

import (
	"strings"
	"time"

	"promokit/core"
)

// ApplyUpdate commits a fired evaluation to the player's durable state and
// returns the next snapshot. Callers invoke it exactly once per fired
// evaluation; it performs no idempotence check of its own.
func ApplyUpdate(e core.Event, p core.PromotionConfig, result core.EvaluationResult, player *core.PlayerState) core.PlayerState {
	return ApplyUpdateAt(e, p, result, player, time.Now())
}

// ApplyUpdateAt is ApplyUpdate with an explicit clock. It is a pure function
// over the supplied snapshot: the input state is never mutated.
func ApplyUpdateAt(e core.Event, p core.PromotionConfig, result core.EvaluationResult, player *core.PlayerState, now time.Time) core.PlayerState {
	var next core.PlayerState
	if player == nil {
		next = core.NewPlayerState(e.PlayerID)
	} else {
		next = player.Clone()
	}
	next.LastEventAt = &now

	ps, ok := next.Promotions[p.ID]
	if !ok {
		ps = core.PlayerPromotionState{
			PromotionID: p.ID,
			Progress:    core.Progress{CollectedItems: []string{}},
		}
	}
	ps.LastUpdated = now

	if result.Fired && result.Progress != nil {
		pu := result.Progress
		ps.Progress.TriggerCount += pu.TriggerIncrement
		// Ladder level is monotonic: it never decreases.
		if pu.NewLevel > ps.Progress.CurrentLevel {
			ps.Progress.CurrentLevel = pu.NewLevel
		}
		if pu.CollectedItem != "" && !containsItem(ps.Progress.CollectedItems, pu.CollectedItem) {
			ps.Progress.CollectedItems = append(ps.Progress.CollectedItems, pu.CollectedItem)
		}
		if pu.Completed {
			ps.Progress.Completed = true
		}
	}

	if result.Fired && result.Reward != nil && result.Reward.CountsAgainstCaps() {
		ps.Rewards = append(ps.Rewards, core.RewardHistoryEntry{
			PromotionID: p.ID,
			Reward:      *result.Reward,
			Timestamp:   now,
			Reason:      strings.Join(result.Reasons, "; "),
		})
		// Reset the daily counter before incrementing when the previous
		// reward fell on a different calendar date.
		if ps.LastRewardAt == nil || ps.LastRewardAt.Format(dateLayout) != now.Format(dateLayout) {
			ps.DailyRewardCount = 0
		}
		ps.DailyRewardCount++
		ps.TotalRewardCount++
		t := now
		ps.LastRewardAt = &t
	}

	next.Promotions[p.ID] = ps
	return next
}

func containsItem(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
