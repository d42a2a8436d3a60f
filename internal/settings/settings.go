// Package settings provides application preference storage in the settings
// table.
package settings

import (
	"database/sql"
	"os"
	"path/filepath"
)

// Well-known setting keys.
const (
	KeyDownloadDir = "download_dir"
	KeyLogLevel    = "log_level"
)

// Store handles key-value preference storage.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves a value by key. Returns empty string if not found.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores a value by key (upsert).
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	return err
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

// DownloadDir returns the configured download directory, falling back to
// <user cache dir>/driveshelf/books when unset.
func (s *Store) DownloadDir() (string, error) {
	dir, err := s.Get(KeyDownloadDir)
	if err != nil {
		return "", err
	}
	if dir != "" {
		return dir, nil
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "driveshelf", "books"), nil
}

// SetDownloadDir stores the download directory, creating it if needed.
func (s *Store) SetDownloadDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return s.Set(KeyDownloadDir, dir)
}
