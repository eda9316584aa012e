package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS metadata_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL
)`

// SQLiteCache is a Cache backed by a local SQLite file.
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteCache opens (or creates) the cache database at path. Use
// ":memory:" for a throwaway cache.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), db.Close())
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), db.Close())
	}
	return &SQLiteCache{db: db, now: time.Now}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]Candidate, bool, error) {
	const query = `SELECT payload FROM metadata_cache WHERE cache_key = ? AND expires_at > ?`

	var payload []byte
	err := c.db.QueryRowContext(ctx, query, key, c.now().UnixNano()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var candidates []Candidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, false, fmt.Errorf("decode cached candidates: %w", err)
	}
	return candidates, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, candidates []Candidate, ttl time.Duration) error {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return err
	}
	now := c.now()

	const upsert = `
		INSERT INTO metadata_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`
	if _, err := c.db.ExecContext(ctx, upsert, key, payload, now.Add(ttl).UnixNano()); err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE expires_at <= ?`, now.UnixNano())
	return err
}

func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM metadata_cache`)
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
