package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"promokit/core"
)

func TestEligibilityDisabled(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.Enabled = false

	ok, reasons := CheckEligibility(winEvent("provider-a", 2), p, nil, testNow)
	assert.False(t, ok)
	assert.Equal(t, []string{"Promotion is disabled"}, reasons)
}

func TestEligibilityWindow(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	ev := winEvent("provider-a", 2)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", p.StartAt.Add(-time.Minute), false},
		{"exactly at start", p.StartAt, true},
		{"inside window", testNow, true},
		{"exactly at end", p.EndAt, false},
		{"after end", p.EndAt.Add(time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, _ := CheckEligibility(ev, p, nil, tc.now)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestEligibilityOptIn(t *testing.T) {
	p := discoveryPromo("promo-1", 3)
	p.RequiresOptIn = true
	ev := winEvent("provider-a", 2)

	ok, reasons := CheckEligibility(ev, p, nil, testNow)
	assert.False(t, ok)
	assert.Contains(t, reasons[0], "not joined")

	notJoined := core.PlayerPromotionState{PromotionID: "promo-1"}
	ok, _ = CheckEligibility(ev, p, &notJoined, testNow)
	assert.False(t, ok)

	joined := core.PlayerPromotionState{PromotionID: "promo-1", Joined: true}
	ok, _ = CheckEligibility(ev, p, &joined, testNow)
	assert.True(t, ok)
}

func TestEligibilityScope(t *testing.T) {
	ev := winEvent("provider-a", 2) // game-slot-1, slots

	cases := []struct {
		name   string
		scope  core.Scope
		want   bool
		reason string
	}{
		{"game include hit", core.Scope{Games: []string{"game-slot-1"}}, true, "Event is eligible"},
		{"game include miss", core.Scope{Games: []string{"game-slot-2"}}, false, "Game game-slot-1 not in include list"},
		{"exclusion vetoes inclusion", core.Scope{Games: []string{"game-slot-1"}, ExcludeGames: []string{"game-slot-1"}}, false, "Game game-slot-1 is excluded"},
		{"provider include miss", core.Scope{Providers: []string{"provider-b"}}, false, "Provider provider-a not in include list"},
		{"provider excluded", core.Scope{ExcludeProviders: []string{"provider-a"}}, false, "Provider provider-a is excluded"},
		{"vertical include hit", core.Scope{Verticals: []core.Vertical{core.VerticalSlots}}, true, "Event is eligible"},
		{"vertical include miss", core.Scope{Verticals: []core.Vertical{core.VerticalLive}}, false, "Vertical slots not in include list"},
		{"game checked before provider", core.Scope{Games: []string{"other"}, Providers: []string{"other"}}, false, "Game game-slot-1 not in include list"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := discoveryPromo("promo-1", 3)
			scope := tc.scope
			p.Scope = &scope
			ok, reasons := CheckEligibility(ev, p, nil, testNow)
			assert.Equal(t, tc.want, ok)
			assert.Equal(t, []string{tc.reason}, reasons)
		})
	}
}
