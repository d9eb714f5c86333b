package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"promokit/core"
)

func TestCapsNoState(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.CooldownMinutes = 60
	p.MaxRewardsPerDay = 1
	p.MaxRewardsTotal = 1

	ok, reasons := CheckCaps(nil, p, testNow)
	assert.True(t, ok)
	assert.Contains(t, reasons[0], "No player state")
}

func TestCooldown(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.CooldownMinutes = 60
	granted := testNow.Add(-30 * time.Minute)
	st := core.PlayerPromotionState{LastRewardAt: &granted}

	ok, reasons := CheckCaps(&st, p, testNow)
	assert.False(t, ok)
	assert.Equal(t, []string{"Cooldown active: 30 minutes remaining"}, reasons)

	// Exactly at T+M the cooldown has elapsed.
	ok, _ = CheckCaps(&st, p, granted.Add(60*time.Minute))
	assert.True(t, ok)

	// Remaining minutes round up.
	granted2 := testNow.Add(-30*time.Minute - 30*time.Second)
	st.LastRewardAt = &granted2
	_, reasons = CheckCaps(&st, p, testNow)
	assert.Contains(t, reasons[0], "30 minutes remaining")
}

func TestDailyCapResetsAtDateRollover(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.MaxRewardsPerDay = 2

	today := testNow.Add(-time.Hour)
	st := core.PlayerPromotionState{LastRewardAt: &today, DailyRewardCount: 2}
	ok, reasons := CheckCaps(&st, p, testNow)
	assert.False(t, ok)
	assert.Contains(t, reasons[0], "Daily cap reached: 2/2")

	// The counter resets at calendar rollover, not 24h after the reward:
	// a reward granted at 23:50 yesterday does not count against today
	// even ten minutes later.
	lateYesterday := time.Date(2025, 6, 14, 23, 50, 0, 0, time.UTC)
	earlyToday := time.Date(2025, 6, 15, 0, 10, 0, 0, time.UTC)
	st = core.PlayerPromotionState{LastRewardAt: &lateYesterday, DailyRewardCount: 2}
	ok, _ = CheckCaps(&st, p, earlyToday)
	assert.True(t, ok)
}

func TestLifetimeCap(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.MaxRewardsTotal = 5

	st := core.PlayerPromotionState{TotalRewardCount: 5}
	ok, reasons := CheckCaps(&st, p, testNow)
	assert.False(t, ok)
	assert.Contains(t, reasons[0], "Total cap reached: 5/5")

	st.TotalRewardCount = 4
	ok, _ = CheckCaps(&st, p, testNow)
	assert.True(t, ok)
}

func TestCapOrderCooldownFirst(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.CooldownMinutes = 60
	p.MaxRewardsTotal = 1
	granted := testNow.Add(-10 * time.Minute)
	st := core.PlayerPromotionState{LastRewardAt: &granted, TotalRewardCount: 1}

	_, reasons := CheckCaps(&st, p, testNow)
	assert.Contains(t, reasons[0], "Cooldown active", "cooldown short-circuits before the lifetime cap")
}
