package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists cache entries to a single-table on-disk database,
// covering the option to persist the bootstrap
// cache across process restarts. modernc.org/sqlite is pure Go (no
// cgo), matching the rest of this module's build.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (creating if necessary) the cache database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open sqlite %q: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (c *SQLite) Close() error { return c.db.Close() }

func (c *SQLite) Get(key string, dst any) (bool, error) {
	var value []byte
	var expiresAt int64
	row := c.db.QueryRow(`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	if expiresAt != 0 && c.now().Unix() > expiresAt {
		_, _ = c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
		return false, nil
	}
	if err := json.Unmarshal(value, dst); err != nil {
		_, _ = c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
		return false, nil
	}
	return true, nil
}

func (c *SQLite) Set(key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).Unix()
	}
	_, err = c.db.Exec(`
INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, b, expiresAt)
	return err
}
