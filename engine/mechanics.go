package engine

import (
	"fmt"
	"strings"

	"promokit/core"
)

// ApplyLadder advances a ladder mechanic by increment triggers and reports
// the reward reached, if any. The policy is fast-forward: if one step crosses
// several level thresholds, every crossed level is advanced through and only
// the highest level's reward is returned; intermediate rewards are skipped.
func ApplyLadder(p core.PromotionConfig, state *core.PlayerPromotionState, increment int) (*core.RewardPayload, int, []string) {
	if p.Mechanic.Type != core.MechanicLadder || p.Mechanic.Ladder == nil {
		return nil, 0, []string{"Not a ladder promotion"}
	}

	currentLevel := 0
	triggerCount := 0
	if state != nil {
		currentLevel = state.Progress.CurrentLevel
		triggerCount = state.Progress.TriggerCount
	}
	newCount := triggerCount + increment

	var reasons []string
	newLevel := currentLevel
	var reward *core.RewardPayload

	for _, lvl := range p.Mechanic.Ladder.Levels {
		if lvl.Level > currentLevel && newCount >= lvl.Requirement {
			newLevel = lvl.Level
			r := lvl.Reward
			reward = &r
			reasons = append(reasons, fmt.Sprintf("Level %d completed (requirement: %d, current: %d)", lvl.Level, lvl.Requirement, newCount))
		}
	}

	if reward == nil {
		reasons = append(reasons, fmt.Sprintf("No new level reached. Current: %d, Triggers: %d", currentLevel, newCount))
	}

	return reward, newLevel, reasons
}

// ApplyCollection records one collected item and reports completion. Adding
// an already-present item makes no progress but is not an error. A completed
// collection rewards exactly once: the Completed flag in progress state
// guards re-granting on later triggers.
func ApplyCollection(p core.PromotionConfig, state *core.PlayerPromotionState, item string) (reward *core.RewardPayload, completed, newItem bool, reasons []string) {
	if p.Mechanic.Type != core.MechanicCollection || p.Mechanic.Collection == nil {
		return nil, false, false, []string{"Not a collection promotion"}
	}

	cfg := p.Mechanic.Collection
	collected := map[string]struct{}{}
	alreadyCompleted := false
	if state != nil {
		for _, it := range state.Progress.CollectedItems {
			collected[it] = struct{}{}
		}
		alreadyCompleted = state.Progress.Completed
	}

	if _, ok := collected[item]; !ok {
		collected[item] = struct{}{}
		newItem = true
		reasons = append(reasons, fmt.Sprintf("Collected new item: %s", item))
	} else {
		reasons = append(reasons, fmt.Sprintf("Item already collected: %s (no new progress)", item))
	}

	// TargetSet takes precedence over TargetCount.
	switch {
	case len(cfg.TargetSet) > 0:
		var missing []string
		for _, want := range cfg.TargetSet {
			if _, ok := collected[want]; !ok {
				missing = append(missing, want)
			}
		}
		completed = len(missing) == 0
		if completed {
			reasons = append(reasons, fmt.Sprintf("Collection complete: all %d target items collected", len(cfg.TargetSet)))
		} else {
			reasons = append(reasons, fmt.Sprintf("Collection progress: %d/%d (missing: %s)", len(collected), len(cfg.TargetSet), strings.Join(missing, ", ")))
		}
	case cfg.TargetCount > 0:
		completed = len(collected) >= cfg.TargetCount
		if completed {
			reasons = append(reasons, fmt.Sprintf("Collection complete: %d/%d items collected", len(collected), cfg.TargetCount))
		} else {
			reasons = append(reasons, fmt.Sprintf("Collection progress: %d/%d", len(collected), cfg.TargetCount))
		}
	default:
		reasons = append(reasons, "Collection has no completion target")
	}

	if completed && alreadyCompleted {
		reasons = append(reasons, "Collection was already rewarded")
		return nil, completed, newItem, reasons
	}
	if completed && p.DefaultReward != nil {
		r := *p.DefaultReward
		reward = &r
	}
	return reward, completed, newItem, reasons
}

// CollectionItem derives the collected-item identifier from the event per
// the promotion's collect-by dimension.
func CollectionItem(e core.Event, p core.PromotionConfig) (string, bool) {
	if p.Mechanic.Type != core.MechanicCollection || p.Mechanic.Collection == nil {
		return "", false
	}
	item := e.SubjectValue(p.Mechanic.Collection.CollectBy)
	return item, item != ""
}
