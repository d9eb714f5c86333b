package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Drivers registered for sqlx.Connect.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"promokit/core"
	"promokit/engine"
)

const logCap = 100

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL storage configuration
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible connection pool defaults for the driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements engine.Storage over a SQL database. Promotions, player
// states, and log entries are stored as JSON documents, one row each, which
// keeps the schema stable while the config model evolves.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New connects to the database and verifies the connection.
func New(cfg Config) (*Store, error) {
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the backing tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	idColumn := "id BIGSERIAL PRIMARY KEY"
	if s.driver == DriverMySQL {
		idColumn = "id BIGINT AUTO_INCREMENT PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS promotions (
			id VARCHAR(128) PRIMARY KEY,
			config TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS player_states (
			player_id VARCHAR(128) PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS player_logs (
			%s,
			player_id VARCHAR(128) NOT NULL,
			entry TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, idColumn),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) GetPromotion(ctx context.Context, id string) (core.PromotionConfig, error) {
	var raw string
	query := s.db.Rebind(`SELECT config FROM promotions WHERE id = ?`)
	err := s.db.QueryRowxContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PromotionConfig{}, engine.ErrNotFound
	}
	if err != nil {
		return core.PromotionConfig{}, fmt.Errorf("get promotion: %w", err)
	}
	var p core.PromotionConfig
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return core.PromotionConfig{}, fmt.Errorf("decode promotion: %w", err)
	}
	return p, nil
}

func (s *Store) ListPromotions(ctx context.Context) ([]core.PromotionConfig, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT config FROM promotions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var out []core.PromotionConfig
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		var p core.PromotionConfig
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode promotion: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SavePromotion(ctx context.Context, p core.PromotionConfig) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode promotion: %w", err)
	}
	query := `INSERT INTO promotions (id, config, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`
	if s.driver == DriverMySQL {
		query = `INSERT INTO promotions (id, config, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE config = VALUES(config), updated_at = VALUES(updated_at)`
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), p.ID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save promotion: %w", err)
	}
	return nil
}

func (s *Store) DeletePromotion(ctx context.Context, id string) error {
	query := s.db.Rebind(`DELETE FROM promotions WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	return nil
}

func (s *Store) GetPlayerState(ctx context.Context, player core.PlayerID) (core.PlayerState, bool, error) {
	var raw string
	query := s.db.Rebind(`SELECT state FROM player_states WHERE player_id = ?`)
	err := s.db.QueryRowxContext(ctx, query, string(player)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PlayerState{}, false, nil
	}
	if err != nil {
		return core.PlayerState{}, false, fmt.Errorf("get player state: %w", err)
	}
	var st core.PlayerState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return core.PlayerState{}, false, fmt.Errorf("decode player state: %w", err)
	}
	return st, true, nil
}

func (s *Store) SavePlayerState(ctx context.Context, state core.PlayerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode player state: %w", err)
	}
	query := `INSERT INTO player_states (player_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	if s.driver == DriverMySQL {
		query = `INSERT INTO player_states (player_id, state, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE state = VALUES(state), updated_at = VALUES(updated_at)`
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), string(state.PlayerID), string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save player state: %w", err)
	}
	return nil
}

func (s *Store) ListPlayerStates(ctx context.Context) ([]core.PlayerState, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT state FROM player_states ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("list player states: %w", err)
	}
	defer rows.Close()

	var out []core.PlayerState
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan player state: %w", err)
		}
		var st core.PlayerState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("decode player state: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) AppendLog(ctx context.Context, entry core.LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := tx.Rebind(`INSERT INTO player_logs (player_id, entry, created_at) VALUES (?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, string(entry.PlayerID), string(data), entry.Timestamp.UTC()); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	// Drop everything older than the newest logCap entries.
	trim := tx.Rebind(`DELETE FROM player_logs WHERE player_id = ? AND id NOT IN (
		SELECT id FROM (
			SELECT id FROM player_logs WHERE player_id = ? ORDER BY id DESC LIMIT ?
		) keep
	)`)
	if _, err := tx.ExecContext(ctx, trim, string(entry.PlayerID), string(entry.PlayerID), logCap); err != nil {
		return fmt.Errorf("trim logs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (s *Store) PlayerLogs(ctx context.Context, player core.PlayerID, limit int) ([]core.LogEntry, error) {
	if limit <= 0 || limit > logCap {
		limit = logCap
	}
	query := s.db.Rebind(`SELECT entry FROM player_logs WHERE player_id = ? ORDER BY id DESC LIMIT ?`)
	rows, err := s.db.QueryxContext(ctx, query, string(player), limit)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	defer rows.Close()

	var out []core.LogEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		var entry core.LogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode log entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"promotions", "player_states", "player_logs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

var _ engine.Storage = (*Store)(nil)
