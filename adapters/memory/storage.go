package memory

import (
	"context"
	"sync"

	"promokit/core"
	"promokit/engine"
)

// logCap bounds the per-player evaluation log.
const logCap = 100

// Store is a concurrent in-memory Storage implementation. It stands in for
// the real persistence backend in tests and demos.
type Store struct {
	mu         sync.RWMutex
	promotions map[string]core.PromotionConfig
	players    map[core.PlayerID]core.PlayerState
	logs       map[core.PlayerID][]core.LogEntry
}

func New() *Store {
	return &Store{
		promotions: map[string]core.PromotionConfig{},
		players:    map[core.PlayerID]core.PlayerState{},
		logs:       map[core.PlayerID][]core.LogEntry{},
	}
}

func (s *Store) GetPromotion(_ context.Context, id string) (core.PromotionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.promotions[id]
	if !ok {
		return core.PromotionConfig{}, engine.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPromotions(_ context.Context) ([]core.PromotionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PromotionConfig, 0, len(s.promotions))
	for _, p := range s.promotions {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SavePromotion(_ context.Context, p core.PromotionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions[p.ID] = p
	return nil
}

func (s *Store) DeletePromotion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.promotions, id)
	return nil
}

func (s *Store) GetPlayerState(_ context.Context, player core.PlayerID) (core.PlayerState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.players[player]
	if !ok {
		return core.PlayerState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (s *Store) SavePlayerState(_ context.Context, state core.PlayerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[state.PlayerID] = state.Clone()
	return nil
}

func (s *Store) ListPlayerStates(_ context.Context) ([]core.PlayerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PlayerState, 0, len(s.players))
	for _, st := range s.players {
		out = append(out, st.Clone())
	}
	return out, nil
}

func (s *Store) AppendLog(_ context.Context, entry core.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := append(s.logs[entry.PlayerID], entry)
	if len(logs) > logCap {
		logs = logs[len(logs)-logCap:]
	}
	s.logs[entry.PlayerID] = logs
	return nil
}

func (s *Store) PlayerLogs(_ context.Context, player core.PlayerID, limit int) ([]core.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := s.logs[player]
	if limit <= 0 || limit > len(logs) {
		limit = len(logs)
	}
	// Most recent first.
	out := make([]core.LogEntry, 0, limit)
	for i := len(logs) - 1; i >= len(logs)-limit; i-- {
		out = append(out, logs[i])
	}
	return out, nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions = map[string]core.PromotionConfig{}
	s.players = map[core.PlayerID]core.PlayerState{}
	s.logs = map[core.PlayerID][]core.LogEntry{}
	return nil
}

var _ engine.Storage = (*Store)(nil)
