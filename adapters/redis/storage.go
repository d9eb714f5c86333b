package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"promokit/core"
	"promokit/engine"
)

const logCap = 100

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements engine.Storage using Redis as the backend.
// Data structure:
// - promo:{id} -> JSON blob of PromotionConfig
// - promos -> set of promotion ids
// - player:{id} -> JSON blob of PlayerState
// - players -> set of player ids
// - player:{id}:logs -> list of JSON LogEntry, newest first, capped
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed store with the provided configuration.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func promoKey(id string) string             { return "promo:" + id }
func playerKey(id core.PlayerID) string     { return "player:" + string(id) }
func playerLogsKey(id core.PlayerID) string { return "player:" + string(id) + ":logs" }

const (
	promoIndexKey  = "promos"
	playerIndexKey = "players"
)

func (s *Store) GetPromotion(ctx context.Context, id string) (core.PromotionConfig, error) {
	data, err := s.client.Get(ctx, promoKey(id)).Bytes()
	if err == redis.Nil {
		return core.PromotionConfig{}, engine.ErrNotFound
	}
	if err != nil {
		return core.PromotionConfig{}, fmt.Errorf("get promotion: %w", err)
	}
	var p core.PromotionConfig
	if err := json.Unmarshal(data, &p); err != nil {
		return core.PromotionConfig{}, fmt.Errorf("decode promotion: %w", err)
	}
	return p, nil
}

func (s *Store) ListPromotions(ctx context.Context) ([]core.PromotionConfig, error) {
	ids, err := s.client.SMembers(ctx, promoIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	out := make([]core.PromotionConfig, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPromotion(ctx, id)
		if err == engine.ErrNotFound {
			// Index can lag a delete; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SavePromotion(ctx context.Context, p core.PromotionConfig) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode promotion: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, promoKey(p.ID), data, 0)
	pipe.SAdd(ctx, promoIndexKey, p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save promotion: %w", err)
	}
	return nil
}

func (s *Store) DeletePromotion(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, promoKey(id))
	pipe.SRem(ctx, promoIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	return nil
}

func (s *Store) GetPlayerState(ctx context.Context, player core.PlayerID) (core.PlayerState, bool, error) {
	data, err := s.client.Get(ctx, playerKey(player)).Bytes()
	if err == redis.Nil {
		return core.PlayerState{}, false, nil
	}
	if err != nil {
		return core.PlayerState{}, false, fmt.Errorf("get player state: %w", err)
	}
	var st core.PlayerState
	if err := json.Unmarshal(data, &st); err != nil {
		return core.PlayerState{}, false, fmt.Errorf("decode player state: %w", err)
	}
	return st, true, nil
}

func (s *Store) SavePlayerState(ctx context.Context, state core.PlayerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode player state: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, playerKey(state.PlayerID), data, 0)
	pipe.SAdd(ctx, playerIndexKey, string(state.PlayerID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save player state: %w", err)
	}
	return nil
}

func (s *Store) ListPlayerStates(ctx context.Context) ([]core.PlayerState, error) {
	ids, err := s.client.SMembers(ctx, playerIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	out := make([]core.PlayerState, 0, len(ids))
	for _, id := range ids {
		st, found, err := s.GetPlayerState(ctx, core.PlayerID(id))
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Store) AppendLog(ctx context.Context, entry core.LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}
	key := playerLogsKey(entry.PlayerID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, logCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (s *Store) PlayerLogs(ctx context.Context, player core.PlayerID, limit int) ([]core.LogEntry, error) {
	if limit <= 0 || limit > logCap {
		limit = logCap
	}
	// Newest first already, thanks to LPUSH.
	raw, err := s.client.LRange(ctx, playerLogsKey(player), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	out := make([]core.LogEntry, 0, len(raw))
	for _, item := range raw {
		var entry core.LogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode log entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) Reset(ctx context.Context) error {
	promoIDs, err := s.client.SMembers(ctx, promoIndexKey).Result()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	playerIDs, err := s.client.SMembers(ctx, playerIndexKey).Result()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	keys := []string{promoIndexKey, playerIndexKey}
	for _, id := range promoIDs {
		keys = append(keys, promoKey(id))
	}
	for _, id := range playerIDs {
		keys = append(keys, playerKey(core.PlayerID(id)), playerLogsKey(core.PlayerID(id)))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

var _ engine.Storage = (*Store)(nil)
