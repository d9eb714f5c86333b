// Package migrate converts promotion documents from older schema generations
// into the canonical kind/subject trigger model. Three input shapes are
// recognized:
//
//   - current documents (snake_case, trigger.kind of first_occurrence,
//     distinct_items, or outcome_range), returned unchanged
//   - compositional documents (camelCase, trigger.kind of first_win,
//     distinct_items, or win_multiplier_range, optionally a trigger.family)
//   - flat documents (camelCase, a top-level type plus a triggers flag block)
//
// Migration is an offline concern. The engine only ever sees canonical
// configs; run documents through this package at import time.
package migrate

import (
	"encoding/json"
	"fmt"
	"time"

	"promokit/core"
)

type legacyReward struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Label  string  `json:"label"`
}

// legacyFilter accepts both threshold spellings: flat documents wrote
// {"min","max"}, later generations {"minMultiplier","maxMultiplier"}.
type legacyFilter struct {
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	MinMultiplier *float64 `json:"minMultiplier"`
	MaxMultiplier *float64 `json:"maxMultiplier"`
}

func (f *legacyFilter) low() *float64 {
	if f == nil {
		return nil
	}
	if f.Min != nil {
		return f.Min
	}
	return f.MinMultiplier
}

func (f *legacyFilter) high() *float64 {
	if f == nil {
		return nil
	}
	if f.Max != nil {
		return f.Max
	}
	return f.MaxMultiplier
}

type legacyTrigger struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`

	Family            string `json:"family"`
	DiscoveryTarget   string `json:"discoveryTarget"`
	DistinctDimension string `json:"distinctDimension"`

	Min           *float64      `json:"minMultiplier"`
	Max           *float64      `json:"maxMultiplier"`
	InstantReward *legacyReward `json:"instantReward"`
	AlsoProgress  bool          `json:"alsoProgress"`
	OutcomeFilter *legacyFilter `json:"outcomeFilter"`
}

type legacyFlags struct {
	FirstWinOnGame              bool          `json:"first_win_on_game"`
	FirstWinOnProvider          bool          `json:"first_win_on_provider"`
	FirstBonusTriggerOnProvider bool          `json:"first_bonus_trigger_on_provider"`
	WinOnDistinctGame           bool          `json:"win_on_distinct_game"`
	WinOnDistinctProvider       bool          `json:"win_on_distinct_provider"`
	WinOnDistinctVertical       bool          `json:"win_on_distinct_vertical"`
	WinMultiplier               *legacyFilter `json:"winMultiplier"`
}

type legacyRange struct {
	Min           float64       `json:"min"`
	Max           float64       `json:"max"`
	InstantReward *legacyReward `json:"instantReward"`
	AlsoProgress  bool          `json:"alsoProgress"`
}

type legacyLadderLevel struct {
	Level       int          `json:"level"`
	Requirement int          `json:"requirement"`
	Reward      legacyReward `json:"reward"`
}

type legacyMechanic struct {
	Type   string `json:"type"`
	Ladder *struct {
		Levels []legacyLadderLevel `json:"levels"`
	} `json:"ladder"`
	Collection *struct {
		TargetCount int      `json:"targetCount"`
		TargetSet   []string `json:"targetSet"`
		CollectBy   string   `json:"collectBy"`
	} `json:"collection"`
}

type legacyScope struct {
	Games     []string `json:"games"`
	Providers []string `json:"providers"`
	Verticals []string `json:"verticals"`
}

type legacyDoc struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Enabled       bool   `json:"enabled"`
	StartAt       string `json:"startAt"`
	EndAt         string `json:"endAt"`
	RequiresOptIn bool   `json:"requiresOptIn"`

	IncludeGames     []string `json:"includeGames"`
	ExcludeGames     []string `json:"excludeGames"`
	IncludeProviders []string `json:"includeProviders"`
	ExcludeProviders []string `json:"excludeProviders"`
	IncludeVerticals []string `json:"includeVerticals"`
	ExcludeVerticals []string `json:"excludeVerticals"`

	Trigger   *legacyTrigger `json:"trigger"`
	Triggers  *legacyFlags   `json:"triggers"`
	Scope     *legacyScope   `json:"scope"`
	Mechanic  legacyMechanic `json:"mechanic"`
	HighRange *legacyRange   `json:"highRange"`

	CooldownMinutes  int           `json:"cooldownMinutes"`
	MaxRewardsPerDay int           `json:"maxRewardsPerDay"`
	MaxRewardsTotal  int           `json:"maxRewardsTotal"`
	DefaultReward    *legacyReward `json:"defaultReward"`
}

// Promotion converts one promotion document into the canonical model.
func Promotion(raw []byte) (core.PromotionConfig, error) {
	var current core.PromotionConfig
	if err := json.Unmarshal(raw, &current); err == nil && canonicalKind(current.Trigger.Kind) && !current.StartAt.IsZero() {
		return current, nil
	}

	var doc legacyDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return core.PromotionConfig{}, fmt.Errorf("decode promotion document: %w", err)
	}

	switch {
	case doc.Trigger != nil:
		return fromCompositional(doc)
	case doc.Type != "" || doc.Triggers != nil:
		return fromFlat(doc)
	}
	return core.PromotionConfig{}, fmt.Errorf("promotion %q: unrecognized document shape", doc.ID)
}

// Promotions converts a JSON array of promotion documents.
func Promotions(raw []byte) ([]core.PromotionConfig, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode promotion list: %w", err)
	}
	out := make([]core.PromotionConfig, 0, len(docs))
	for i, d := range docs {
		p, err := Promotion(d)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func canonicalKind(k core.TriggerKind) bool {
	switch k {
	case core.TriggerFirstOccurrence, core.TriggerDistinctItems, core.TriggerOutcomeRange:
		return true
	}
	return false
}

func fromCompositional(doc legacyDoc) (core.PromotionConfig, error) {
	p, err := baseConfig(doc)
	if err != nil {
		return core.PromotionConfig{}, err
	}
	lt := doc.Trigger

	family := lt.Family
	if family == "" {
		switch lt.Kind {
		case "first_win":
			family = "discovery"
		case "distinct_items":
			family = "multi_game_chain"
		case "win_multiplier_range":
			family = "high_range_outcome"
		default:
			return core.PromotionConfig{}, fmt.Errorf("promotion %q: unknown trigger kind %q", doc.ID, lt.Kind)
		}
	}

	switch family {
	case "discovery":
		p.Trigger = core.Trigger{Kind: core.TriggerFirstOccurrence}
		switch lt.DiscoveryTarget {
		case "first_win_on_game":
			p.Trigger.Subject = core.SubjectGame
		case "first_bonus_trigger_on_provider":
			p.Trigger.Subject = core.SubjectProvider
			p.Trigger.BonusBased = true
		case "", "first_win_on_provider":
			p.Trigger.Subject = core.SubjectProvider
		default:
			return core.PromotionConfig{}, fmt.Errorf("promotion %q: unknown discovery target %q", doc.ID, lt.DiscoveryTarget)
		}
		if s, ok := subjectFrom(lt.Subject); ok {
			p.Trigger.Subject = s
		}
		p.Trigger.OutcomeFilter = outcomeFilter(lt.OutcomeFilter)
	case "multi_game_chain":
		p.Trigger = core.Trigger{Kind: core.TriggerDistinctItems, Subject: core.SubjectGame}
		if s, ok := subjectFrom(lt.DistinctDimension); ok {
			p.Trigger.Subject = s
		}
		if s, ok := subjectFrom(lt.Subject); ok {
			p.Trigger.Subject = s
		}
		p.Trigger.OutcomeFilter = outcomeFilter(lt.OutcomeFilter)
	case "high_range_outcome":
		p.Trigger = core.Trigger{
			Kind:          core.TriggerOutcomeRange,
			MinMultiplier: floatOr(lt.Min, 0),
			MaxMultiplier: floatOr(lt.Max, 999),
			InstantReward: reward(lt.InstantReward),
			AlsoProgress:  lt.AlsoProgress,
		}
	default:
		return core.PromotionConfig{}, fmt.Errorf("promotion %q: unknown trigger family %q", doc.ID, family)
	}
	return p, nil
}

func fromFlat(doc legacyDoc) (core.PromotionConfig, error) {
	p, err := baseConfig(doc)
	if err != nil {
		return core.PromotionConfig{}, err
	}
	flags := doc.Triggers
	if flags == nil {
		flags = &legacyFlags{}
	}

	switch doc.Type {
	case "game_provider_discovery", "":
		p.Trigger = core.Trigger{Kind: core.TriggerFirstOccurrence, Subject: core.SubjectProvider}
		switch {
		case flags.FirstBonusTriggerOnProvider:
			p.Trigger.BonusBased = true
		case flags.FirstWinOnGame && !flags.FirstWinOnProvider:
			p.Trigger.Subject = core.SubjectGame
		}
		p.Trigger.OutcomeFilter = outcomeFilter(flags.WinMultiplier)
	case "multi_game_chain":
		p.Trigger = core.Trigger{Kind: core.TriggerDistinctItems, Subject: core.SubjectGame}
		switch {
		case flags.WinOnDistinctProvider:
			p.Trigger.Subject = core.SubjectProvider
		case flags.WinOnDistinctVertical:
			p.Trigger.Subject = core.SubjectVertical
		}
		p.Trigger.OutcomeFilter = outcomeFilter(flags.WinMultiplier)
	case "opt_in_outcome_challenge":
		min, max := flags.WinMultiplier.low(), flags.WinMultiplier.high()
		p.RequiresOptIn = true
		p.Trigger = core.Trigger{
			Kind:          core.TriggerOutcomeRange,
			MinMultiplier: floatOr(min, 0),
			MaxMultiplier: floatOr(max, 999),
			AlsoProgress:  true,
		}
	case "high_range_outcome":
		p.Trigger = core.Trigger{Kind: core.TriggerOutcomeRange, MaxMultiplier: 999}
		if doc.HighRange != nil {
			p.Trigger.MinMultiplier = doc.HighRange.Min
			if doc.HighRange.Max > 0 {
				p.Trigger.MaxMultiplier = doc.HighRange.Max
			}
			p.Trigger.InstantReward = reward(doc.HighRange.InstantReward)
			p.Trigger.AlsoProgress = doc.HighRange.AlsoProgress
		} else if flags.WinMultiplier != nil {
			p.Trigger.MinMultiplier = floatOr(flags.WinMultiplier.low(), 0)
			p.Trigger.MaxMultiplier = floatOr(flags.WinMultiplier.high(), 999)
		}
	default:
		return core.PromotionConfig{}, fmt.Errorf("promotion %q: unknown type %q", doc.ID, doc.Type)
	}
	return p, nil
}

func baseConfig(doc legacyDoc) (core.PromotionConfig, error) {
	startAt, err := parseTime(doc.StartAt)
	if err != nil {
		return core.PromotionConfig{}, fmt.Errorf("promotion %q: startAt: %w", doc.ID, err)
	}
	endAt, err := parseTime(doc.EndAt)
	if err != nil {
		return core.PromotionConfig{}, fmt.Errorf("promotion %q: endAt: %w", doc.ID, err)
	}
	p := core.PromotionConfig{
		ID:               doc.ID,
		Name:             doc.Name,
		Enabled:          doc.Enabled,
		StartAt:          startAt,
		EndAt:            endAt,
		RequiresOptIn:    doc.RequiresOptIn,
		Scope:            scope(doc),
		CooldownMinutes:  doc.CooldownMinutes,
		MaxRewardsPerDay: doc.MaxRewardsPerDay,
		MaxRewardsTotal:  doc.MaxRewardsTotal,
		DefaultReward:    reward(doc.DefaultReward),
	}
	p.Mechanic, err = mechanic(doc.Mechanic)
	if err != nil {
		return core.PromotionConfig{}, fmt.Errorf("promotion %q: %w", doc.ID, err)
	}
	return p, nil
}

func mechanic(m legacyMechanic) (core.Mechanic, error) {
	switch m.Type {
	case "ladder":
		out := core.Mechanic{Type: core.MechanicLadder, Ladder: &core.LadderConfig{}}
		if m.Ladder != nil {
			for _, lvl := range m.Ladder.Levels {
				r := reward(&lvl.Reward)
				out.Ladder.Levels = append(out.Ladder.Levels, core.LadderLevel{
					Level:       lvl.Level,
					Requirement: lvl.Requirement,
					Reward:      *r,
				})
			}
		}
		return out, nil
	case "collection":
		out := core.Mechanic{Type: core.MechanicCollection, Collection: &core.CollectionConfig{}}
		if m.Collection != nil {
			out.Collection.TargetCount = m.Collection.TargetCount
			out.Collection.TargetSet = m.Collection.TargetSet
			if s, ok := subjectFrom(m.Collection.CollectBy); ok {
				out.Collection.CollectBy = s
			}
		}
		return out, nil
	}
	return core.Mechanic{}, fmt.Errorf("unknown mechanic type %q", m.Type)
}

func scope(doc legacyDoc) *core.Scope {
	s := &core.Scope{
		Games:            doc.IncludeGames,
		ExcludeGames:     doc.ExcludeGames,
		Providers:        doc.IncludeProviders,
		ExcludeProviders: doc.ExcludeProviders,
		Verticals:        verticals(doc.IncludeVerticals),
		ExcludeVerticals: verticals(doc.ExcludeVerticals),
	}
	if doc.Scope != nil {
		if len(doc.Scope.Games) > 0 {
			s.Games = doc.Scope.Games
		}
		if len(doc.Scope.Providers) > 0 {
			s.Providers = doc.Scope.Providers
		}
		if len(doc.Scope.Verticals) > 0 {
			s.Verticals = verticals(doc.Scope.Verticals)
		}
	}
	if len(s.Games) == 0 && len(s.ExcludeGames) == 0 &&
		len(s.Providers) == 0 && len(s.ExcludeProviders) == 0 &&
		len(s.Verticals) == 0 && len(s.ExcludeVerticals) == 0 {
		return nil
	}
	return s
}

func verticals(in []string) []core.Vertical {
	out := make([]core.Vertical, 0, len(in))
	for _, v := range in {
		out = append(out, core.Vertical(v))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// subjectFrom accepts both legacy collectBy spellings and canonical names.
func subjectFrom(s string) (core.Subject, bool) {
	switch s {
	case "game", "gameId":
		return core.SubjectGame, true
	case "provider", "providerId":
		return core.SubjectProvider, true
	case "vertical":
		return core.SubjectVertical, true
	}
	return "", false
}

func reward(r *legacyReward) *core.RewardPayload {
	if r == nil {
		return nil
	}
	return &core.RewardPayload{Type: core.RewardType(r.Type), Amount: r.Amount, Label: r.Label}
}

func outcomeFilter(f *legacyFilter) *core.OutcomeFilter {
	if f.low() == nil && f.high() == nil {
		return nil
	}
	return &core.OutcomeFilter{MinMultiplier: f.low(), MaxMultiplier: f.high()}
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
