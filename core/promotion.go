package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TriggerKind discriminates activation conditions.
type TriggerKind string

const (
	// TriggerFirstOccurrence fires once per subject value per player.
	TriggerFirstOccurrence TriggerKind = "first_occurrence"
	// TriggerDistinctItems fires on each event contributing a not-yet-seen
	// subject value.
	TriggerDistinctItems TriggerKind = "distinct_items"
	// TriggerOutcomeRange fires whenever the win multiplier falls inside a
	// closed interval.
	TriggerOutcomeRange TriggerKind = "outcome_range"
)

// OutcomeFilter optionally gates a first-occurrence or distinct-items trigger
// on the event's win multiplier. Nil bounds mean unbounded on that side.
type OutcomeFilter struct {
	MinMultiplier *float64 `json:"min_multiplier,omitempty"`
	MaxMultiplier *float64 `json:"max_multiplier,omitempty"`
}

// Matches reports whether the multiplier satisfies the filter.
func (f OutcomeFilter) Matches(multiplier float64) bool {
	if f.MinMultiplier != nil && multiplier < *f.MinMultiplier {
		return false
	}
	if f.MaxMultiplier != nil && multiplier > *f.MaxMultiplier {
		return false
	}
	return true
}

// Trigger is a promotion's activation condition in the canonical
// kind/subject model.
type Trigger struct {
	Kind TriggerKind `json:"kind"`

	// Subject applies to first_occurrence and distinct_items.
	Subject Subject `json:"subject,omitempty"`
	// BonusBased switches a first_occurrence trigger from "first win" to
	// "first bonus trigger"; the subject key becomes bonus:<providerId>.
	BonusBased bool `json:"bonus_based,omitempty"`

	// MinMultiplier and MaxMultiplier bound an outcome_range trigger,
	// inclusive on both ends.
	MinMultiplier float64 `json:"min_multiplier,omitempty"`
	MaxMultiplier float64 `json:"max_multiplier,omitempty"`
	// InstantReward, if set on an outcome_range trigger, is granted
	// directly, taking priority over any mechanic-derived reward.
	InstantReward *RewardPayload `json:"instant_reward,omitempty"`
	// AlsoProgress makes an outcome_range trigger additionally advance the
	// promotion's mechanic.
	AlsoProgress bool `json:"also_progress,omitempty"`

	// OutcomeFilter optionally gates the non-range kinds.
	OutcomeFilter *OutcomeFilter `json:"outcome_filter,omitempty"`
}

// SubjectKey returns the collected-items key the trigger tracks for an event.
func (t Trigger) SubjectKey(e Event) string {
	if t.Kind == TriggerFirstOccurrence && t.BonusBased {
		return "bonus:" + e.ProviderID
	}
	return e.SubjectValue(t.Subject)
}

// MechanicType selects how repeated triggers convert into rewards.
type MechanicType string

const (
	MechanicLadder     MechanicType = "ladder"
	MechanicCollection MechanicType = "collection"
)

// LadderLevel is one rung: reached once the cumulative trigger count meets
// the requirement.
type LadderLevel struct {
	Level       int           `json:"level"`
	Requirement int           `json:"requirement"`
	Reward      RewardPayload `json:"reward"`
}

// LadderConfig holds the ordered level list for a ladder mechanic.
type LadderConfig struct {
	Levels []LadderLevel `json:"levels"`
}

// CollectionConfig describes a collect-distinct-items mechanic. TargetSet
// takes precedence over TargetCount when both are present.
type CollectionConfig struct {
	TargetCount int      `json:"target_count,omitempty"`
	TargetSet   []string `json:"target_set,omitempty"`
	CollectBy   Subject  `json:"collect_by"`
}

// Mechanic is the progress bookkeeping for a promotion. Exactly one of the
// type-specific configs is set, matching Type.
type Mechanic struct {
	Type       MechanicType      `json:"type"`
	Ladder     *LadderConfig     `json:"ladder,omitempty"`
	Collection *CollectionConfig `json:"collection,omitempty"`
}

// Scope restricts which events a promotion considers. An absent include list
// means no restriction on that dimension; exclude lists veto regardless.
type Scope struct {
	Games            []string   `json:"games,omitempty"`
	ExcludeGames     []string   `json:"exclude_games,omitempty"`
	Providers        []string   `json:"providers,omitempty"`
	ExcludeProviders []string   `json:"exclude_providers,omitempty"`
	Verticals        []Vertical `json:"verticals,omitempty"`
	ExcludeVerticals []Vertical `json:"exclude_verticals,omitempty"`
}

// PromotionConfig is a named, time-bounded promotion rule. Read-only to the
// engine; versioned by replacement through the admin layer.
type PromotionConfig struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Enabled       bool      `json:"enabled"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	RequiresOptIn bool      `json:"requires_opt_in"`

	Trigger  Trigger  `json:"trigger"`
	Scope    *Scope   `json:"scope,omitempty"`
	Mechanic Mechanic `json:"mechanic"`

	CooldownMinutes  int `json:"cooldown_minutes,omitempty"`
	MaxRewardsPerDay int `json:"max_rewards_per_day,omitempty"`
	MaxRewardsTotal  int `json:"max_rewards_total,omitempty"`

	// DefaultReward is granted when the mechanic carries no per-step reward
	// of its own (collection completion).
	DefaultReward *RewardPayload `json:"default_reward,omitempty"`
}

// Active reports whether now falls inside [StartAt, EndAt).
func (p PromotionConfig) Active(now time.Time) bool {
	return !now.Before(p.StartAt) && now.Before(p.EndAt)
}

// ValidatePromotion checks a promotion definition for internal consistency.
// This runs at authoring time, before activation; the evaluation path never
// rejects a promotion, it degrades gracefully instead.
func ValidatePromotion(p PromotionConfig) error {
	var errs []string

	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !p.EndAt.After(p.StartAt) {
		errs = append(errs, "end_at must be after start_at")
	}

	switch p.Trigger.Kind {
	case TriggerFirstOccurrence:
		if p.Trigger.BonusBased {
			if p.Trigger.Subject != "" && p.Trigger.Subject != SubjectProvider {
				errs = append(errs, "bonus-based trigger only tracks providers")
			}
		} else if !validSubject(p.Trigger.Subject) {
			errs = append(errs, fmt.Sprintf("trigger subject %q is invalid", p.Trigger.Subject))
		}
		if p.Mechanic.Type != MechanicCollection {
			errs = append(errs, "first_occurrence trigger requires a collection mechanic")
		}
	case TriggerDistinctItems:
		if !validSubject(p.Trigger.Subject) {
			errs = append(errs, fmt.Sprintf("trigger subject %q is invalid", p.Trigger.Subject))
		}
		if p.Mechanic.Type != MechanicCollection {
			errs = append(errs, "distinct_items trigger requires a collection mechanic")
		}
	case TriggerOutcomeRange:
		if p.Trigger.MaxMultiplier < p.Trigger.MinMultiplier {
			errs = append(errs, "max_multiplier must be >= min_multiplier")
		}
		if p.Trigger.MaxMultiplier <= 0 {
			errs = append(errs, "outcome_range trigger needs a positive max_multiplier")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown trigger kind %q", p.Trigger.Kind))
	}

	switch p.Mechanic.Type {
	case MechanicLadder:
		if p.Mechanic.Collection != nil {
			errs = append(errs, "ladder mechanic must not carry a collection config")
		}
		if p.Mechanic.Ladder == nil || len(p.Mechanic.Ladder.Levels) == 0 {
			errs = append(errs, "ladder mechanic needs at least one level")
		} else {
			prev := LadderLevel{}
			for i, lvl := range p.Mechanic.Ladder.Levels {
				if lvl.Level <= prev.Level || lvl.Requirement <= prev.Requirement {
					errs = append(errs, fmt.Sprintf("ladder levels must be strictly ascending (index %d)", i))
					break
				}
				prev = lvl
			}
		}
	case MechanicCollection:
		if p.Mechanic.Ladder != nil {
			errs = append(errs, "collection mechanic must not carry a ladder config")
		}
		if p.Mechanic.Collection == nil {
			errs = append(errs, "collection mechanic needs a collection config")
		} else {
			c := p.Mechanic.Collection
			if !validSubject(c.CollectBy) {
				errs = append(errs, fmt.Sprintf("collect_by %q is invalid", c.CollectBy))
			}
			if c.TargetCount <= 0 && len(c.TargetSet) == 0 {
				errs = append(errs, "collection needs a target_count or a target_set")
			}
			if p.DefaultReward == nil {
				errs = append(errs, "collection mechanic needs a default_reward for completion")
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mechanic type %q", p.Mechanic.Type))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validSubject(s Subject) bool {
	return s == SubjectGame || s == SubjectProvider || s == SubjectVertical
}
