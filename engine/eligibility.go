package engine

import (
	"fmt"
	"time"

	"promokit/core"
)

// CheckEligibility decides whether an event qualifies for a promotion to be
// considered at all. Checks run in a fixed order and short-circuit on the
// first failure, each leaving its own reason. No side effects.
func CheckEligibility(e core.Event, p core.PromotionConfig, state *core.PlayerPromotionState, now time.Time) (bool, []string) {
	if !p.Enabled {
		return false, []string{"Promotion is disabled"}
	}

	// Active window is [start, end): before start and at/after end are both out.
	if now.Before(p.StartAt) {
		return false, []string{fmt.Sprintf("Promotion starts at %s", p.StartAt.Format(time.RFC3339))}
	}
	if !now.Before(p.EndAt) {
		return false, []string{fmt.Sprintf("Promotion ended at %s", p.EndAt.Format(time.RFC3339))}
	}

	if p.RequiresOptIn {
		if state == nil || !state.Joined {
			return false, []string{"Player has not joined this opt-in promotion"}
		}
	}

	if p.Scope != nil {
		if ok, reason := checkDimension("Game", e.GameID, p.Scope.Games, p.Scope.ExcludeGames); !ok {
			return false, []string{reason}
		}
		if ok, reason := checkDimension("Provider", e.ProviderID, p.Scope.Providers, p.Scope.ExcludeProviders); !ok {
			return false, []string{reason}
		}
		verticals := verticalStrings(p.Scope.Verticals)
		excluded := verticalStrings(p.Scope.ExcludeVerticals)
		if ok, reason := checkDimension("Vertical", string(e.Vertical), verticals, excluded); !ok {
			return false, []string{reason}
		}
	}

	return true, []string{"Event is eligible"}
}

// checkDimension applies include/exclude lists for one scope dimension. An
// empty include list means no restriction; exclusion vetoes regardless.
func checkDimension(label, value string, include, exclude []string) (bool, string) {
	if len(include) > 0 && !contains(include, value) {
		return false, fmt.Sprintf("%s %s not in include list", label, value)
	}
	if contains(exclude, value) {
		return false, fmt.Sprintf("%s %s is excluded", label, value)
	}
	return true, ""
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func verticalStrings(vs []core.Vertical) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
