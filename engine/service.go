package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"promokit/core"
)

// defaultLogLimit caps how many log entries adapters keep per player.
const defaultLogLimit = 100

// PromoService wires storage, the event bus, and the evaluation pipeline
// into the engine's public API. It serializes state updates per player so
// concurrent events for the same player cannot race on the read-modify-write
// of PlayerState.
type PromoService struct {
	storage Storage
	bus     *EventBus
	locks   playerLocks
	now     func() time.Time
}

// NewPromoService builds a service over the given storage and bus.
func NewPromoService(storage Storage, bus *EventBus) *PromoService {
	if storage == nil || bus == nil {
		panic("NewPromoService requires non-nil storage and bus")
	}
	return &PromoService{storage: storage, bus: bus, now: time.Now}
}

// Subscribe is a convenience passthrough to the bus.
func (s *PromoService) Subscribe(typ core.SignalType, handler func(context.Context, core.Signal)) func() {
	return s.bus.Subscribe(typ, handler)
}

// Close stops the bus workers.
func (s *PromoService) Close() { s.bus.Close() }

// ProcessEvent evaluates one gameplay event against every enabled promotion
// in sequence, commits the state mutations for fired evaluations, persists
// the resulting player state, and appends one log entry for the whole event.
func (s *PromoService) ProcessEvent(ctx context.Context, ev core.Event) ([]core.EvaluationResult, error) {
	playerID, err := core.NormalizePlayerID(ev.PlayerID)
	if err != nil {
		return nil, err
	}
	ev.PlayerID = playerID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	promotions, err := s.storage.ListPromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	sort.Slice(promotions, func(i, j int) bool { return promotions[i].ID < promotions[j].ID })

	var snapshot *core.PlayerState
	if state, found, err := s.storage.GetPlayerState(ctx, playerID); err != nil {
		return nil, fmt.Errorf("load player state: %w", err)
	} else if found {
		snapshot = &state
	}

	now := s.now()
	results := make([]core.EvaluationResult, 0, len(promotions))
	for _, p := range promotions {
		if !p.Enabled {
			continue
		}
		result := s.evaluateOne(ev, p, snapshot, now)
		results = append(results, result)
		s.bus.Publish(ctx, core.NewEventEvaluated(playerID, result))

		if !result.Fired {
			continue
		}
		next := ApplyUpdateAt(ev, p, result, snapshot, now)
		snapshot = &next
		if result.Reward != nil {
			s.bus.Publish(ctx, core.NewRewardGranted(playerID, p.ID, *result.Reward))
		} else {
			s.bus.Publish(ctx, core.NewProgressMade(playerID, p.ID))
		}
	}

	if snapshot == nil {
		fresh := core.NewPlayerState(playerID)
		snapshot = &fresh
	}
	snapshot.LastEventAt = &now
	if err := s.storage.SavePlayerState(ctx, *snapshot); err != nil {
		return nil, fmt.Errorf("save player state: %w", err)
	}

	entry := core.LogEntry{ID: uuid.NewString(), PlayerID: playerID, Event: ev, Timestamp: now, Evaluations: results}
	if err := s.storage.AppendLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}
	return results, nil
}

// evaluateOne shields the event loop from a panicking promotion: one bad
// definition must not prevent the remaining promotions from being evaluated.
func (s *PromoService) evaluateOne(ev core.Event, p core.PromotionConfig, snapshot *core.PlayerState, now time.Time) (result core.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = core.EvaluationResult{
				PromotionID: p.ID,
				Reasons:     []string{fmt.Sprintf("Evaluation failed: %v", r)},
			}
		}
	}()
	return EvaluateAt(ev, p, snapshot, now)
}

// Join opts a player into a promotion, creating state lazily.
func (s *PromoService) Join(ctx context.Context, player core.PlayerID, promotionID string) error {
	playerID, err := core.NormalizePlayerID(player)
	if err != nil {
		return err
	}
	if _, err := s.storage.GetPromotion(ctx, promotionID); err != nil {
		return err
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	state, found, err := s.storage.GetPlayerState(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player state: %w", err)
	}
	if !found {
		state = core.NewPlayerState(playerID)
	}

	now := s.now()
	ps, ok := state.Promotions[promotionID]
	if !ok {
		ps = core.PlayerPromotionState{
			PromotionID: promotionID,
			Progress:    core.Progress{CollectedItems: []string{}},
		}
	}
	ps.Joined = true
	ps.LastUpdated = now
	state.Promotions[promotionID] = ps

	if err := s.storage.SavePlayerState(ctx, state); err != nil {
		return fmt.Errorf("save player state: %w", err)
	}
	s.bus.Publish(ctx, core.NewPromotionJoined(playerID, promotionID))
	return nil
}

// PlayerState returns the current snapshot for a player; players with no
// history yet get an empty state.
func (s *PromoService) PlayerState(ctx context.Context, player core.PlayerID) (core.PlayerState, error) {
	playerID, err := core.NormalizePlayerID(player)
	if err != nil {
		return core.PlayerState{}, err
	}
	state, found, err := s.storage.GetPlayerState(ctx, playerID)
	if err != nil {
		return core.PlayerState{}, err
	}
	if !found {
		return core.NewPlayerState(playerID), nil
	}
	return state, nil
}

// PlayerLogs returns the player's recent evaluation log, most recent first.
func (s *PromoService) PlayerLogs(ctx context.Context, player core.PlayerID, limit int) ([]core.LogEntry, error) {
	playerID, err := core.NormalizePlayerID(player)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultLogLimit {
		limit = defaultLogLimit
	}
	return s.storage.PlayerLogs(ctx, playerID, limit)
}

// Promotion returns one promotion definition.
func (s *PromoService) Promotion(ctx context.Context, id string) (core.PromotionConfig, error) {
	return s.storage.GetPromotion(ctx, id)
}

// Promotions lists the full promotion catalog, enabled or not.
func (s *PromoService) Promotions(ctx context.Context) ([]core.PromotionConfig, error) {
	promos, err := s.storage.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].ID < promos[j].ID })
	return promos, nil
}

// SavePromotion validates and stores a promotion definition. Validation runs
// here, at authoring time; the evaluation path never rejects a promotion.
func (s *PromoService) SavePromotion(ctx context.Context, p core.PromotionConfig) error {
	if err := core.ValidatePromotion(p); err != nil {
		return fmt.Errorf("invalid promotion: %w", err)
	}
	return s.storage.SavePromotion(ctx, p)
}

// SeedPromotions stores the given promotions when the catalog is empty. It
// returns the number written, zero when promotions already exist.
func (s *PromoService) SeedPromotions(ctx context.Context, promos []core.PromotionConfig) (int, error) {
	existing, err := s.storage.ListPromotions(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, p := range promos {
		if err := s.SavePromotion(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(promos), nil
}

// DeletePromotion removes a promotion definition.
func (s *PromoService) DeletePromotion(ctx context.Context, id string) error {
	return s.storage.DeletePromotion(ctx, id)
}

// Reset wipes all promotions, player states, and logs.
func (s *PromoService) Reset(ctx context.Context) error {
	return s.storage.Reset(ctx)
}

// playerLocks serializes updates per player identifier. Entries are never
// evicted; the map is bounded by the active player population.
type playerLocks struct {
	mu sync.Mutex
	m  map[core.PlayerID]*sync.Mutex
}

func (l *playerLocks) lock(id core.PlayerID) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[core.PlayerID]*sync.Mutex)
	}
	pl, ok := l.m[id]
	if !ok {
		pl = &sync.Mutex{}
		l.m[id] = pl
	}
	l.mu.Unlock()
	pl.Lock()
	return pl.Unlock
}
