package engine

import (
	"fmt"
	"math"
	"time"

	"promokit/core"
)

// dateLayout is the local calendar date used for daily cap rollover.
const dateLayout = "2006-01-02"

// CheckCaps decides whether a candidate reward is currently blocked by the
// promotion's rate limits. Checks run in order and short-circuit: cooldown,
// daily cap, lifetime cap. A player with no history passes everything.
// Progress-only rewards never reach this guard.
func CheckCaps(state *core.PlayerPromotionState, p core.PromotionConfig, now time.Time) (bool, []string) {
	if state == nil {
		return true, []string{"No player state - caps check passed"}
	}

	if p.CooldownMinutes > 0 && state.LastRewardAt != nil {
		minutesSince := now.Sub(*state.LastRewardAt).Minutes()
		if minutesSince < float64(p.CooldownMinutes) {
			remaining := int(math.Ceil(float64(p.CooldownMinutes) - minutesSince))
			return false, []string{fmt.Sprintf("Cooldown active: %d minutes remaining", remaining)}
		}
	}

	if p.MaxRewardsPerDay > 0 {
		// The counter conceptually resets at calendar-date rollover, not a
		// fixed 24h after the last reward.
		count := state.DailyRewardCount
		if state.LastRewardAt == nil || state.LastRewardAt.Format(dateLayout) != now.Format(dateLayout) {
			count = 0
		}
		if count >= p.MaxRewardsPerDay {
			return false, []string{fmt.Sprintf("Daily cap reached: %d/%d", count, p.MaxRewardsPerDay)}
		}
	}

	if p.MaxRewardsTotal > 0 && state.TotalRewardCount >= p.MaxRewardsTotal {
		return false, []string{fmt.Sprintf("Total cap reached: %d/%d", state.TotalRewardCount, p.MaxRewardsTotal)}
	}

	return true, []string{"Caps check passed"}
}
