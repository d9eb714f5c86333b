package engine

import (
	"context"
	"errors"

	"promokit/core"
)

// ErrNotFound is returned by storage adapters for missing promotions.
var ErrNotFound = errors.New("not found")

// Storage abstracts persistence for the promotion catalog, per-player state,
// and per-player evaluation logs. Implementations must honor per-key
// read/write semantics; per-player write serialization is handled by the
// service on top.
type Storage interface {
	GetPromotion(ctx context.Context, id string) (core.PromotionConfig, error)
	ListPromotions(ctx context.Context) ([]core.PromotionConfig, error)
	SavePromotion(ctx context.Context, p core.PromotionConfig) error
	DeletePromotion(ctx context.Context, id string) error

	// GetPlayerState reports found=false for players with no history yet;
	// that is a normal outcome, not an error.
	GetPlayerState(ctx context.Context, player core.PlayerID) (state core.PlayerState, found bool, err error)
	SavePlayerState(ctx context.Context, state core.PlayerState) error
	ListPlayerStates(ctx context.Context) ([]core.PlayerState, error)

	// AppendLog keeps a bounded per-player history; adapters cap it.
	AppendLog(ctx context.Context, entry core.LogEntry) error
	// PlayerLogs returns up to limit entries, most recent first.
	PlayerLogs(ctx context.Context, player core.PlayerID, limit int) ([]core.LogEntry, error)

	// Reset wipes promotions, player states, and logs (bulk admin reset).
	Reset(ctx context.Context) error
}
