// Package conversation persists multi-turn threads behind a small
// key-value interface with TTL semantics.
package conversation

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/modelmux/modelmux/internal/logging"
)

// KV is the storage contract the thread store runs on. Implementations
// must be safe for concurrent use.
type KV interface {
	// Get returns the value for key, or (nil, false) when absent or
	// expired.
	Get(key string) ([]byte, bool, error)
	// SetWithTTL stores value under key, replacing any previous value
	// and resetting the expiry clock.
	SetWithTTL(key string, value []byte, ttl time.Duration) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(key string) error
	// Exists reports whether key is present and unexpired.
	Exists(key string) (bool, error)
	// Close releases backing resources.
	Close() error
}

// ---------------------------------------------------------------------
// In-memory backend
// ---------------------------------------------------------------------

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKV is the in-process backend, also used by tests. Expiry is
// checked lazily on access.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryKV builds an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryKV) SetWithTTL(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryKV) Exists(key string) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

func (m *MemoryKV) Close() error { return nil }

// ---------------------------------------------------------------------
// SQLite backend
// ---------------------------------------------------------------------

// SQLiteKV persists entries in a single table, surviving restarts.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (and if needed creates) the database at path.
func NewSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open conversation db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv schema: %w", err)
	}

	L_info("conversation: sqlite store opened", "path", path)
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRow(`SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().Unix() > expiresAt {
		_ = s.Delete(key)
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLiteKV) SetWithTTL(key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	return err
}

func (s *SQLiteKV) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *SQLiteKV) Exists(key string) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

// Close removes expired rows and closes the database.
func (s *SQLiteKV) Close() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE expires_at < ?`, time.Now().Unix()); err != nil {
		L_warn("conversation: expiry sweep failed", "error", err)
	}
	return s.db.Close()
}
