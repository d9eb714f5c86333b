package analytics

import "promokit/core"

// BridgeHook bridges a signal source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnSignal(sig core.Signal) {
	for _, h := range b.hooks {
		h.OnSignal(sig)
	}
}
