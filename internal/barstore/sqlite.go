package barstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/proverbian/trade-score/internal/model"
)

// SQLiteStore caches bar windows in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so command reads do not block a scheduled run.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "barstore").Str("path", dbPath).Msg("sqlite bar cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bar_cache (
			cache_key  TEXT PRIMARY KEY,
			expires_at INTEGER NOT NULL,
			bar_count  INTEGER NOT NULL,
			payload    BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bar_cache_expiry ON bar_cache(expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]model.OHLCV, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM bar_cache WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query bar cache: %w", err)
	}
	bars, err := decode(payload)
	if err != nil {
		return nil, false, err
	}
	return bars, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error {
	payload, err := encode(bars)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO bar_cache (cache_key, expires_at, bar_count, payload)
		VALUES (?,?,?,?)
		ON CONFLICT(cache_key) DO UPDATE SET
			expires_at = excluded.expires_at,
			bar_count  = excluded.bar_count,
			payload    = excluded.payload`,
		key, now.Add(ttl).UnixNano(), len(bars), payload,
	); err != nil {
		return fmt.Errorf("upsert bar cache: %w", err)
	}

	// Drop expired rows.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bar_cache WHERE expires_at <= ?`, now.UnixNano()); err != nil {
		return fmt.Errorf("purge bar cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Info().Str("component", "barstore").Msg("closing sqlite bar cache")
	return s.db.Close()
}
