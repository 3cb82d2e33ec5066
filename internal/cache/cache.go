// Package cache provides a SQLite-backed result cache so repeated reviews of
// identical code skip the model round trip.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultTTL is how long entries stay valid when no TTL is configured.
const DefaultTTL = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	category   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_category ON cache(category);
CREATE INDEX IF NOT EXISTS idx_expires_at ON cache(expires_at);
`

// Store is a SQLite-backed key/value cache with per-entry expiry. Values are
// stored as text; callers serialize. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
}

// Stats summarizes cache contents.
type Stats struct {
	TotalEntries   int            `json:"total_entries"`
	ExpiredEntries int            `json:"expired_entries"`
	ValidEntries   int            `json:"valid_entries"`
	ByCategory     map[string]int `json:"by_category"`
}

// Open creates or opens a cache database at path. A nil logger disables
// logging; a non-positive ttl uses DefaultTTL.
func Open(path string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}

	logger.Debug("cache opened", zap.String("path", path), zap.Duration("ttl", ttl))
	return &Store{db: db, ttl: ttl, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Key derives a stable cache key from a prefix and content. Identical content
// always maps to the same key.
func Key(prefix, data string) string {
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%s:%x", prefix, h[:16])
}

// Get returns the cached value for key if present and unexpired.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		s.logger.Debug("cache miss", zap.String("key", key))
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	s.logger.Debug("cache hit", zap.String("key", key))
	return value, true, nil
}

// Set stores value under key, replacing any existing entry.
func (s *Store) Set(key, value, category string) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cache (key, value, category, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, value, category, now.Unix(), now.Add(s.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes entries matching a key pattern (SQL LIKE, % wildcard)
// and/or a category. With both empty it deletes everything.
func (s *Store) Invalidate(pattern, category string) (int64, error) {
	var res sql.Result
	var err error
	switch {
	case pattern != "" && category != "":
		res, err = s.db.Exec(`DELETE FROM cache WHERE key LIKE ? AND category = ?`, pattern, category)
	case pattern != "":
		res, err = s.db.Exec(`DELETE FROM cache WHERE key LIKE ?`, pattern)
	case category != "":
		res, err = s.db.Exec(`DELETE FROM cache WHERE category = ?`, category)
	default:
		res, err = s.db.Exec(`DELETE FROM cache`)
	}
	if err != nil {
		return 0, fmt.Errorf("cache: invalidate: %w", err)
	}
	return res.RowsAffected()
}

// CleanupExpired removes entries past their expiry and returns how many.
func (s *Store) CleanupExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM cache WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache: cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry counts, split by expiry and by category.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{ByCategory: map[string]int{}}
	now := time.Now().Unix()

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cache`).Scan(&stats.TotalEntries); err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cache WHERE expires_at < ?`, now).Scan(&stats.ExpiredEntries); err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	stats.ValidEntries = stats.TotalEntries - stats.ExpiredEntries

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM cache WHERE expires_at > ? GROUP BY category`, now)
	if err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("cache: stats: %w", err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	return stats, nil
}

// Clear deletes every entry.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM cache`); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}
