package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"promokit/core"
	"promokit/engine"
)

const logCap = 100

// Store persists the entire promotion catalog, player states, and logs to a
// single JSON file. Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	doc  document
}

type document struct {
	Promotions map[string]core.PromotionConfig `json:"promotions"`
	Players    map[string]core.PlayerState     `json:"players"`
	Logs       map[string][]core.LogEntry      `json:"logs"`
}

func emptyDocument() document {
	return document{
		Promotions: map[string]core.PromotionConfig{},
		Players:    map[string]core.PlayerState{},
		Logs:       map[string][]core.LogEntry{},
	}
}

func New(path string) (*Store, error) {
	s := &Store{path: path, doc: emptyDocument()}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	doc := emptyDocument()
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *Store) persist() error {
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) GetPromotion(_ context.Context, id string) (core.PromotionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.doc.Promotions[id]
	if !ok {
		return core.PromotionConfig{}, engine.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPromotions(_ context.Context) ([]core.PromotionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PromotionConfig, 0, len(s.doc.Promotions))
	for _, p := range s.doc.Promotions {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SavePromotion(_ context.Context, p core.PromotionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Promotions[p.ID] = p
	return s.persist()
}

func (s *Store) DeletePromotion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.Promotions, id)
	return s.persist()
}

func (s *Store) GetPlayerState(_ context.Context, player core.PlayerID) (core.PlayerState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.doc.Players[string(player)]
	if !ok {
		return core.PlayerState{}, false, nil
	}
	return st.Clone(), true, nil
}

func (s *Store) SavePlayerState(_ context.Context, state core.PlayerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Players[string(state.PlayerID)] = state.Clone()
	return s.persist()
}

func (s *Store) ListPlayerStates(_ context.Context) ([]core.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PlayerState, 0, len(s.doc.Players))
	for _, st := range s.doc.Players {
		out = append(out, st.Clone())
	}
	return out, nil
}

func (s *Store) AppendLog(_ context.Context, entry core.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(entry.PlayerID)
	logs := append(s.doc.Logs[key], entry)
	if len(logs) > logCap {
		logs = logs[len(logs)-logCap:]
	}
	s.doc.Logs[key] = logs
	return s.persist()
}

func (s *Store) PlayerLogs(_ context.Context, player core.PlayerID, limit int) ([]core.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := s.doc.Logs[string(player)]
	if limit <= 0 || limit > len(logs) {
		limit = len(logs)
	}
	out := make([]core.LogEntry, 0, limit)
	for i := len(logs) - 1; i >= len(logs)-limit; i-- {
		out = append(out, logs[i])
	}
	return out, nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = emptyDocument()
	return s.persist()
}

var _ engine.Storage = (*Store)(nil)
