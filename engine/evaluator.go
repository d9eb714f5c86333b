package engine

import (
	"fmt"
	"time"

	"promokit/core"
)

// Evaluate runs one (event, promotion) pair through the full pipeline:
// eligibility, trigger, mechanic, caps. The player state is read as an
// immutable snapshot; all mutation happens later through ApplyUpdate.
func Evaluate(e core.Event, p core.PromotionConfig, player *core.PlayerState) core.EvaluationResult {
	return EvaluateAt(e, p, player, time.Now())
}

// EvaluateAt is Evaluate with an explicit evaluation time, used by tests and
// replay tooling. Every sub-step's reasons are appended in call order; the
// trail reads as sequential accumulation and is never rewritten.
func EvaluateAt(e core.Event, p core.PromotionConfig, player *core.PlayerState, now time.Time) core.EvaluationResult {
	result := core.EvaluationResult{PromotionID: p.ID}
	state := player.Promotion(p.ID)

	eligible, reasons := CheckEligibility(e, p, state, now)
	result.Eligible = eligible
	result.Reasons = append(result.Reasons, reasons...)
	if !eligible {
		return result
	}

	triggered, reasons := CheckTrigger(e, p, state)
	result.Reasons = append(result.Reasons, reasons...)
	if !triggered {
		return result
	}

	// An outcome-range instant reward takes priority over anything the
	// mechanic produces for this evaluation.
	var reward *core.RewardPayload
	instant := false
	if p.Trigger.Kind == core.TriggerOutcomeRange && p.Trigger.InstantReward != nil {
		r := *p.Trigger.InstantReward
		reward = &r
		instant = true
		result.Reasons = append(result.Reasons, "Instant reward triggered")
	}

	// The mechanic runs for every trigger kind except an outcome-range
	// trigger that opted out of progress.
	progressMade := false
	if p.Trigger.Kind != core.TriggerOutcomeRange || p.Trigger.AlsoProgress {
		switch p.Mechanic.Type {
		case core.MechanicLadder:
			mechReward, newLevel, reasons := ApplyLadder(p, state, 1)
			result.Reasons = append(result.Reasons, reasons...)
			result.Progress = &core.ProgressUpdate{NewLevel: newLevel, TriggerIncrement: 1}
			progressMade = true
			if mechReward != nil && !instant {
				reward = mechReward
			}
		case core.MechanicCollection:
			item, ok := CollectionItem(e, p)
			if !ok {
				result.Reasons = append(result.Reasons, "Could not determine collection item from event")
				break
			}
			mechReward, completed, newItem, reasons := ApplyCollection(p, state, item)
			result.Reasons = append(result.Reasons, reasons...)
			result.Progress = &core.ProgressUpdate{
				TriggerIncrement: 1,
				CollectedItem:    item,
				NewItem:          newItem,
				Completed:        completed,
			}
			progressMade = newItem
			if mechReward != nil && !instant {
				reward = mechReward
			}
		default:
			result.Reasons = append(result.Reasons, "No mechanic configured")
		}
	}

	if reward != nil && reward.CountsAgainstCaps() {
		allowed, reasons := CheckCaps(state, p, now)
		result.Reasons = append(result.Reasons, reasons...)
		if !allowed {
			// Reward computed but withheld; progress is withheld with it
			// since the state updater only runs for fired evaluations.
			result.Reasons = append(result.Reasons, "Reward blocked by caps/cooldown")
			return result
		}
	}

	switch {
	case reward != nil:
		result.Fired = true
		result.Reward = reward
		result.Reasons = append(result.Reasons, fmt.Sprintf("Reward fired: %s (%s)", reward.Label, reward.Type))
	case progressMade:
		result.Fired = true
		result.Reasons = append(result.Reasons, "Progress made (no reward at this stage)")
	}
	return result
}
