package core

import "time"

// SignalType enumerates engine notifications published on the bus.
type SignalType string

const (
	SignalEventEvaluated  SignalType = "event_evaluated"
	SignalProgressMade    SignalType = "progress_made"
	SignalRewardGranted   SignalType = "reward_granted"
	SignalPromotionJoined SignalType = "promotion_joined"
)

// Signal is an immutable engine notification, fanned out to realtime
// subscribers, webhooks, and analytics hooks.
type Signal struct {
	Type        SignalType        `json:"type"`
	Time        time.Time         `json:"time"`
	PlayerID    PlayerID          `json:"player_id"`
	PromotionID string            `json:"promotion_id,omitempty"`
	Reward      *RewardPayload    `json:"reward,omitempty"`
	Result      *EvaluationResult `json:"result,omitempty"`
}

func NewEventEvaluated(player PlayerID, result EvaluationResult) Signal {
	r := result
	return Signal{Type: SignalEventEvaluated, Time: time.Now().UTC(), PlayerID: player, PromotionID: result.PromotionID, Result: &r}
}

func NewProgressMade(player PlayerID, promotionID string) Signal {
	return Signal{Type: SignalProgressMade, Time: time.Now().UTC(), PlayerID: player, PromotionID: promotionID}
}

func NewRewardGranted(player PlayerID, promotionID string, reward RewardPayload) Signal {
	rw := reward
	return Signal{Type: SignalRewardGranted, Time: time.Now().UTC(), PlayerID: player, PromotionID: promotionID, Reward: &rw}
}

func NewPromotionJoined(player PlayerID, promotionID string) Signal {
	return Signal{Type: SignalPromotionJoined, Time: time.Now().UTC(), PlayerID: player, PromotionID: promotionID}
}
