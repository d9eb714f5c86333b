// Package promo is the one-stop builder for embedding the promotion engine:
// pick a storage adapter, wire optional realtime and analytics consumers, and
// get a ready PromoService.
package promo

import (
	"context"

	"promokit/adapters/memory"
	"promokit/analytics"
	"promokit/core"
	"promokit/engine"
	"promokit/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	hub     *realtime.Hub
	hooks   []analytics.Hook
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async signal dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine signals.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHooks registers analytics hooks on the signal stream.
func WithHooks(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

var signalTypes = []core.SignalType{
	core.SignalEventEvaluated,
	core.SignalProgressMade,
	core.SignalRewardGranted,
	core.SignalPromotionJoined,
}

// New builds a configured PromoService. Defaults: in-memory storage, async
// dispatch.
func New(opts ...Option) *engine.PromoService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewPromoService(cfg.storage, bus)
	if cfg.hub != nil {
		for _, typ := range signalTypes {
			bus.Subscribe(typ, func(ctx context.Context, sig core.Signal) { cfg.hub.Broadcast(ctx, sig) })
		}
	}
	for _, hook := range cfg.hooks {
		h := hook
		for _, typ := range signalTypes {
			bus.Subscribe(typ, func(_ context.Context, sig core.Signal) { h.OnSignal(sig) })
		}
	}
	return svc
}
