package engine

import (
	"fmt"

	"promokit/core"
)

// CheckTrigger decides whether an already-eligible event satisfies the
// promotion's activation condition. It reads the state snapshot but never
// mutates it; "already collected" is determined from the snapshot alone.
// A non-match is a normal outcome, not an error.
func CheckTrigger(e core.Event, p core.PromotionConfig, state *core.PlayerPromotionState) (bool, []string) {
	t := p.Trigger

	switch t.Kind {
	case core.TriggerFirstOccurrence:
		if t.BonusBased {
			if !e.BonusTriggered {
				return false, []string{"No trigger conditions met"}
			}
		} else if e.WinMultiplier <= 0 {
			return false, []string{"No trigger conditions met"}
		}
		if ok, reason := passesOutcomeFilter(t, e); !ok {
			return false, []string{reason}
		}
		key := t.SubjectKey(e)
		if state.HasCollected(key) {
			return false, []string{fmt.Sprintf("Already recorded first occurrence of %s", key)}
		}
		if t.BonusBased {
			return true, []string{fmt.Sprintf("First bonus trigger on provider %s", e.ProviderID)}
		}
		return true, []string{fmt.Sprintf("First win on %s %s", t.Subject, key)}

	case core.TriggerDistinctItems:
		if e.WinMultiplier <= 0 {
			return false, []string{"No trigger conditions met"}
		}
		if ok, reason := passesOutcomeFilter(t, e); !ok {
			return false, []string{reason}
		}
		value := e.SubjectValue(t.Subject)
		if value == "" {
			return false, []string{"No trigger conditions met"}
		}
		if state.HasCollected(value) {
			return false, []string{fmt.Sprintf("%s %s already counted", t.Subject, value)}
		}
		return true, []string{fmt.Sprintf("New distinct %s: %s", t.Subject, value)}

	case core.TriggerOutcomeRange:
		if e.WinMultiplier >= t.MinMultiplier && e.WinMultiplier <= t.MaxMultiplier {
			return true, []string{fmt.Sprintf("Win multiplier %gx within range [%g, %g]", e.WinMultiplier, t.MinMultiplier, t.MaxMultiplier)}
		}
		return false, []string{fmt.Sprintf("Win multiplier %gx outside range [%g, %g]", e.WinMultiplier, t.MinMultiplier, t.MaxMultiplier)}
	}

	// Unknown kind: degrade gracefully, never fail the event.
	return false, []string{"No trigger conditions met"}
}

func passesOutcomeFilter(t core.Trigger, e core.Event) (bool, string) {
	if t.OutcomeFilter == nil {
		return true, ""
	}
	if !t.OutcomeFilter.Matches(e.WinMultiplier) {
		return false, fmt.Sprintf("Win multiplier %gx does not satisfy outcome filter", e.WinMultiplier)
	}
	return true, ""
}
