package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/driveshelf/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.RunMigrations())
	return NewStore(database.DB)
}

func TestGetMissingKey(t *testing.T) {
	s := setupTestStore(t)

	val, err := s.Get("nonexistent")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestSetAndGet(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("theme", "dark"))
	val, err := s.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", val)

	// Upsert overwrites
	require.NoError(t, s.Set("theme", "light"))
	val, err = s.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", val)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("theme", "dark"))
	require.NoError(t, s.Delete("theme"))
	val, err := s.Get("theme")
	require.NoError(t, err)
	assert.Empty(t, val)

	assert.NoError(t, s.Delete("theme"))
}

func TestDownloadDirDefault(t *testing.T) {
	s := setupTestStore(t)

	dir, err := s.DownloadDir()
	require.NoError(t, err)
	assert.Contains(t, dir, "driveshelf")
}

func TestSetDownloadDir(t *testing.T) {
	s := setupTestStore(t)

	want := filepath.Join(t.TempDir(), "books")
	require.NoError(t, s.SetDownloadDir(want))

	dir, err := s.DownloadDir()
	require.NoError(t, err)
	assert.Equal(t, want, dir)
	assert.DirExists(t, want)
}
