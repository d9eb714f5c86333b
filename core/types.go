package core

import (
	"errors"
	"strings"
	"time"
)

// PlayerID uniquely identifies a player on the platform.
type PlayerID string

// Vertical is the game category an event belongs to.
type Vertical string

const (
	VerticalSlots Vertical = "slots"
	VerticalLive  Vertical = "live"
	VerticalCrash Vertical = "crash"
	VerticalTable Vertical = "table"
)

// Verticals lists every known vertical.
var Verticals = []Vertical{VerticalSlots, VerticalLive, VerticalCrash, VerticalTable}

// Subject is the dimension along which distinctness or first occurrence
// is measured.
type Subject string

const (
	SubjectGame     Subject = "game"
	SubjectProvider Subject = "provider"
	SubjectVertical Subject = "vertical"
)

// Event is one gameplay outcome. Immutable once produced; the engine never
// persists events itself.
type Event struct {
	PlayerID       PlayerID  `json:"player_id"`
	GameID         string    `json:"game_id"`
	ProviderID     string    `json:"provider_id"`
	Vertical       Vertical  `json:"vertical"`
	WinMultiplier  float64   `json:"win_multiplier"`
	BonusTriggered bool      `json:"bonus_triggered"`
	Timestamp      time.Time `json:"timestamp"`
}

// SubjectValue returns the event's value for the given dimension.
func (e Event) SubjectValue(s Subject) string {
	switch s {
	case SubjectGame:
		return e.GameID
	case SubjectProvider:
		return e.ProviderID
	case SubjectVertical:
		return string(e.Vertical)
	}
	return ""
}

// RewardType enumerates the kinds of reward a promotion can grant.
type RewardType string

const (
	RewardInstant      RewardType = "instant_reward"
	RewardEntry        RewardType = "entry"
	RewardProgressOnly RewardType = "progress_only"
)

// RewardPayload describes what a player receives when a promotion fires.
type RewardPayload struct {
	Type   RewardType `json:"type"`
	Amount float64    `json:"amount,omitempty"`
	Label  string     `json:"label"`
}

// CountsAgainstCaps reports whether granting this reward consumes
// cooldown/daily/lifetime budget. Progress-only rewards never do.
func (r RewardPayload) CountsAgainstCaps() bool {
	return r.Type != RewardProgressOnly
}

// NormalizePlayerID trims and lowercases player identifiers.
func NormalizePlayerID(id PlayerID) (PlayerID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty player id")
	}
	return PlayerID(strings.ToLower(s)), nil
}

// ValidVertical reports whether v is one of the known verticals.
func ValidVertical(v Vertical) bool {
	for _, known := range Verticals {
		if v == known {
			return true
		}
	}
	return false
}
