package bookshelf

import (
	"os"
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

func addTestItem(t *testing.T, s *Store, fileID, folderID, name string) {
	t.Helper()
	size := int64(1024)
	require.NoError(t, s.UpsertItem(fileID, folderID, name, &size, "application/pdf", "2025-06-01T00:00:00Z"))
}

func TestAddAndListFolders(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AddFolder("f1", "Books"))
	require.NoError(t, s.AddFolder("f2", "Papers"))

	folders, err := s.Folders()
	require.NoError(t, err)
	require.Len(t, folders, 2)
	// Ordered by name
	assert.Equal(t, "Books", folders[0].FolderName)
	assert.Equal(t, "Papers", folders[1].FolderName)
	assert.Nil(t, folders[0].LastSynced)
}

func TestRemoveFolderDeactivates(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AddFolder("f1", "Books"))
	require.NoError(t, s.RemoveFolder("f1"))

	folders, err := s.Folders()
	require.NoError(t, err)
	assert.Empty(t, folders)

	// Re-adding reactivates with the new name
	require.NoError(t, s.AddFolder("f1", "Books v2"))
	folders, err = s.Folders()
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Books v2", folders[0].FolderName)
}

func TestTouchFolder(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AddFolder("f1", "Books"))
	require.NoError(t, s.TouchFolder("f1"))

	folders, err := s.Folders()
	require.NoError(t, err)
	require.NotNil(t, folders[0].LastSynced)
}

func TestUpsertItemPreservesDownloadState(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.AddFolder("f1", "Books"))
	addTestItem(t, s, "d1", "f1", "a.pdf")

	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, s.UpdateDownloadStatus("d1", StatusCompleted, 100, &path))

	// Metadata update must not reset download state
	size := int64(2048)
	require.NoError(t, s.UpsertItem("d1", "f1", "a.pdf", &size, "application/pdf", "2025-06-02T00:00:00Z"))

	item, err := s.Item("d1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, StatusCompleted, item.DownloadStatus)
	assert.Equal(t, int64(2048), *item.FileSize)
	assert.Equal(t, "2025-06-02T00:00:00Z", item.DriveModifiedTime)
	require.NotNil(t, item.LocalPath)
	assert.Equal(t, path, *item.LocalPath)
}

func TestItemsOrderedByName(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.AddFolder("f1", "Books"))
	addTestItem(t, s, "d2", "f1", "zebra.pdf")
	addTestItem(t, s, "d1", "f1", "aardvark.pdf")

	items, err := s.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "aardvark.pdf", items[0].FileName)
	assert.Equal(t, "zebra.pdf", items[1].FileName)
}

func TestItemMissing(t *testing.T) {
	s := setupTestStore(t)

	item, err := s.Item("nope")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestDeleteLocalCopy(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.AddFolder("f1", "Books"))
	addTestItem(t, s, "d1", "f1", "a.pdf")

	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))
	require.NoError(t, s.UpdateDownloadStatus("d1", StatusCompleted, 100, &path))

	require.NoError(t, s.DeleteLocalCopy("d1"))

	assert.NoFileExists(t, path)
	item, err := s.Item("d1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, item.DownloadStatus)
	assert.Nil(t, item.LocalPath)
	assert.Zero(t, item.DownloadProgress)
}

func TestResetStaleDownloads(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.AddFolder("f1", "Books"))
	addTestItem(t, s, "d1", "f1", "a.pdf")
	addTestItem(t, s, "d2", "f1", "b.pdf")

	require.NoError(t, s.UpdateDownloadStatus("d1", StatusDownloading, 40, nil))
	path := filepath.Join(t.TempDir(), "b.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))
	require.NoError(t, s.UpdateDownloadStatus("d2", StatusCompleted, 100, &path))

	require.NoError(t, s.ResetStaleDownloads())

	d1, err := s.Item("d1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, d1.DownloadStatus)

	d2, err := s.Item("d2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, d2.DownloadStatus)
}

func TestVerifyLocalFiles(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.AddFolder("f1", "Books"))
	addTestItem(t, s, "d1", "f1", "a.pdf")
	addTestItem(t, s, "d2", "f1", "b.pdf")

	dir := t.TempDir()
	existing := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("pdf"), 0o644))
	missing := filepath.Join(dir, "b.pdf")

	require.NoError(t, s.UpdateDownloadStatus("d1", StatusCompleted, 100, &existing))
	require.NoError(t, s.UpdateDownloadStatus("d2", StatusCompleted, 100, &missing))

	reset, err := s.VerifyLocalFiles()
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	d1, err := s.Item("d1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, d1.DownloadStatus)

	d2, err := s.Item("d2")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, d2.DownloadStatus)
	assert.Nil(t, d2.LocalPath)
}
