package core

import "time"

// RewardHistoryEntry records one granted reward with its explanation.
type RewardHistoryEntry struct {
	PromotionID string        `json:"promotion_id"`
	Reward      RewardPayload `json:"reward"`
	Timestamp   time.Time     `json:"timestamp"`
	Reason      string        `json:"reason"`
}

// Progress is the per-promotion bookkeeping a player accumulates.
type Progress struct {
	CurrentLevel   int      `json:"current_level,omitempty"`
	CollectedItems []string `json:"collected_items"`
	TriggerCount   int      `json:"trigger_count"`
	// Completed marks a finished collection so its reward fires exactly once.
	Completed bool `json:"completed,omitempty"`
}

// PlayerPromotionState is the durable per-player, per-promotion record. Owned
// by the state updater; the evaluator only ever reads a snapshot of it.
type PlayerPromotionState struct {
	PromotionID      string               `json:"promotion_id"`
	Joined           bool                 `json:"joined"`
	Progress         Progress             `json:"progress"`
	Rewards          []RewardHistoryEntry `json:"rewards"`
	LastRewardAt     *time.Time           `json:"last_reward_at,omitempty"`
	DailyRewardCount int                  `json:"daily_reward_count"`
	TotalRewardCount int                  `json:"total_reward_count"`
	LastUpdated      time.Time            `json:"last_updated"`
}

// HasCollected reports whether the item is already in the collected set.
func (s *PlayerPromotionState) HasCollected(item string) bool {
	if s == nil {
		return false
	}
	for _, it := range s.Progress.CollectedItems {
		if it == item {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state to uphold snapshot immutability.
func (s PlayerPromotionState) Clone() PlayerPromotionState {
	cp := s
	cp.Progress.CollectedItems = append([]string(nil), s.Progress.CollectedItems...)
	cp.Rewards = append([]RewardHistoryEntry(nil), s.Rewards...)
	if s.LastRewardAt != nil {
		t := *s.LastRewardAt
		cp.LastRewardAt = &t
	}
	return cp
}

// PlayerState aggregates all promotion states for one player. It is the unit
// of persistence.
type PlayerState struct {
	PlayerID    PlayerID                        `json:"player_id"`
	Promotions  map[string]PlayerPromotionState `json:"promotions"`
	LastEventAt *time.Time                      `json:"last_event_at,omitempty"`
}

// NewPlayerState creates an empty state for a player.
func NewPlayerState(id PlayerID) PlayerState {
	return PlayerState{PlayerID: id, Promotions: map[string]PlayerPromotionState{}}
}

// Clone returns a deep copy of the player state.
func (s PlayerState) Clone() PlayerState {
	cp := PlayerState{
		PlayerID:   s.PlayerID,
		Promotions: make(map[string]PlayerPromotionState, len(s.Promotions)),
	}
	for id, ps := range s.Promotions {
		cp.Promotions[id] = ps.Clone()
	}
	if s.LastEventAt != nil {
		t := *s.LastEventAt
		cp.LastEventAt = &t
	}
	return cp
}

// Promotion returns the state for one promotion, or nil when the player has
// no history with it yet.
func (s *PlayerState) Promotion(promotionID string) *PlayerPromotionState {
	if s == nil || s.Promotions == nil {
		return nil
	}
	if ps, ok := s.Promotions[promotionID]; ok {
		return &ps
	}
	return nil
}

// ProgressUpdate is the mechanic outcome carried inside an evaluation result
// so the state updater applies exactly what the evaluator computed.
type ProgressUpdate struct {
	NewLevel         int    `json:"new_level,omitempty"`
	TriggerIncrement int    `json:"trigger_increment,omitempty"`
	CollectedItem    string `json:"collected_item,omitempty"`
	NewItem          bool   `json:"new_item,omitempty"`
	Completed        bool   `json:"completed,omitempty"`
}

// EvaluationResult is the output of evaluating one event against one
// promotion. Reasons accumulate in decision order and are never rewritten;
// they are the explainability contract.
type EvaluationResult struct {
	PromotionID string          `json:"promotion_id"`
	Eligible    bool            `json:"eligible"`
	Fired       bool            `json:"fired"`
	Reasons     []string        `json:"reasons"`
	Reward      *RewardPayload  `json:"reward,omitempty"`
	Progress    *ProgressUpdate `json:"progress,omitempty"`
}

// LogEntry records one event's full evaluation trail for a player.
type LogEntry struct {
	ID          string             `json:"id,omitempty"`
	PlayerID    PlayerID           `json:"player_id"`
	Event       Event              `json:"event"`
	Timestamp   time.Time          `json:"timestamp"`
	Evaluations []EvaluationResult `json:"evaluations"`
}
