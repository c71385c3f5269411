package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoIdentity is returned when no login has been stored yet.
var ErrNoIdentity = errors.New("no stored identity")

// identityKey is the single key the mobile clients used for the
// logged-in identity blob.
const identityKey = "@UserStore:data"

// Identity is the logged-in identity cached across restarts. For a
// recycling center account, UserID doubles as the company id.
type Identity struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Store is a small key-value store backed by a local SQLite file. It
// is written at login and read by every screen that needs identity.
type Store struct {
	db *sql.DB
}

// Open creates or opens the session database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetItem stores value under key, replacing any previous value.
func (s *Store) SetItem(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// GetItem returns the value stored under key, or ErrNoIdentity-style
// absence via sql.ErrNoRows mapped to a plain error.
func (s *Store) GetItem(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNoIdentity
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// SaveIdentity persists the logged-in identity. Only login writes it.
func (s *Store) SaveIdentity(id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return s.SetItem(identityKey, string(data))
}

// Identity returns the stored identity. ErrNoIdentity means nobody
// has logged in on this device; a blob without a numeric user id is
// treated the same way.
func (s *Store) Identity() (Identity, error) {
	raw, err := s.GetItem(identityKey)
	if err != nil {
		return Identity{}, err
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, fmt.Errorf("corrupt identity blob: %w", err)
	}
	if id.UserID == 0 {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// Clear removes the stored identity.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, identityKey); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}
