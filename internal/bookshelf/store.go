// Package bookshelf manages the synced-folder list and the local PDF
// collection mirrored from Google Drive.
package bookshelf

import (
	"database/sql"
	"os"
	"time"

	"github.com/markb/driveshelf/internal/log"
)

// Download states for a bookshelf item.
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// Folder is a Drive folder registered for syncing.
type Folder struct {
	FolderID   string
	FolderName string
	IsActive   bool
	LastSynced *time.Time
}

// Item is one synced file in the bookshelf.
type Item struct {
	ID                int64
	DriveFileID       string
	DriveFolderID     string
	FileName          string
	FileSize          *int64
	MimeType          string
	DriveModifiedTime string
	LocalPath         *string
	DownloadStatus    string
	DownloadProgress  float64
}

// Store handles bookshelf persistence.
type Store struct {
	db *sql.DB

	now func() time.Time
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// AddFolder registers a folder for syncing, reactivating it if it was
// previously removed.
func (s *Store) AddFolder(folderID, folderName string) error {
	_, err := s.db.Exec(`
		INSERT INTO drive_folders (folder_id, folder_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(folder_id) DO UPDATE SET
		  folder_name = excluded.folder_name,
		  is_active = 1
	`, folderID, folderName, s.now().Unix())
	return err
}

// RemoveFolder marks a folder inactive. Its items stay in the bookshelf
// until the next sync removes them.
func (s *Store) RemoveFolder(folderID string) error {
	_, err := s.db.Exec("UPDATE drive_folders SET is_active = 0 WHERE folder_id = ?", folderID)
	return err
}

// Folders returns all active sync folders ordered by name.
func (s *Store) Folders() ([]Folder, error) {
	rows, err := s.db.Query(`
		SELECT folder_id, folder_name, is_active, last_synced
		FROM drive_folders
		WHERE is_active = 1
		ORDER BY folder_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var active int
		var synced sql.NullInt64
		if err := rows.Scan(&f.FolderID, &f.FolderName, &active, &synced); err != nil {
			return nil, err
		}
		f.IsActive = active != 0
		if synced.Valid {
			ts := time.Unix(synced.Int64, 0)
			f.LastSynced = &ts
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// TouchFolder records a successful sync of the folder.
func (s *Store) TouchFolder(folderID string) error {
	_, err := s.db.Exec("UPDATE drive_folders SET last_synced = ? WHERE folder_id = ?",
		s.now().Unix(), folderID)
	return err
}

// UpsertItem inserts or updates an item from its Drive metadata. Download
// state is preserved on update.
func (s *Store) UpsertItem(driveFileID, folderID, fileName string, fileSize *int64, mimeType, modifiedTime string) error {
	now := s.now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO bookshelf (
		  drive_file_id, drive_folder_id, file_name, file_size,
		  mime_type, drive_modified_time, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(drive_file_id) DO UPDATE SET
		  file_name = excluded.file_name,
		  file_size = excluded.file_size,
		  drive_modified_time = excluded.drive_modified_time,
		  updated_at = excluded.updated_at
	`, driveFileID, folderID, fileName, fileSize, mimeType, modifiedTime, now, now)
	return err
}

// Items returns every bookshelf item ordered by file name.
func (s *Store) Items() ([]Item, error) {
	return s.queryItems(`
		SELECT id, drive_file_id, drive_folder_id, file_name, file_size,
		       mime_type, drive_modified_time, local_path, download_status, download_progress
		FROM bookshelf
		ORDER BY file_name
	`)
}

// FolderItems returns the items belonging to one folder.
func (s *Store) FolderItems(folderID string) ([]Item, error) {
	return s.queryItems(`
		SELECT id, drive_file_id, drive_folder_id, file_name, file_size,
		       mime_type, drive_modified_time, local_path, download_status, download_progress
		FROM bookshelf
		WHERE drive_folder_id = ?
		ORDER BY file_name
	`, folderID)
}

func (s *Store) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var size sql.NullInt64
		var modified, localPath sql.NullString
		if err := rows.Scan(&it.ID, &it.DriveFileID, &it.DriveFolderID, &it.FileName,
			&size, &it.MimeType, &modified, &localPath, &it.DownloadStatus, &it.DownloadProgress); err != nil {
			return nil, err
		}
		if size.Valid {
			v := size.Int64
			it.FileSize = &v
		}
		it.DriveModifiedTime = modified.String
		if localPath.Valid {
			v := localPath.String
			it.LocalPath = &v
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Item returns one item by Drive file ID, or nil when absent.
func (s *Store) Item(driveFileID string) (*Item, error) {
	items, err := s.queryItems(`
		SELECT id, drive_file_id, drive_folder_id, file_name, file_size,
		       mime_type, drive_modified_time, local_path, download_status, download_progress
		FROM bookshelf
		WHERE drive_file_id = ?
	`, driveFileID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// UpdateDownloadStatus records download progress. A nil localPath keeps the
// stored one.
func (s *Store) UpdateDownloadStatus(driveFileID, status string, progress float64, localPath *string) error {
	_, err := s.db.Exec(`
		UPDATE bookshelf SET
		  download_status = ?,
		  download_progress = ?,
		  local_path = COALESCE(?, local_path),
		  updated_at = ?
		WHERE drive_file_id = ?
	`, status, progress, localPath, s.now().Unix(), driveFileID)
	return err
}

// RemoveItems deletes the given items from the bookshelf. It does not touch
// local files.
func (s *Store) RemoveItems(driveFileIDs []string) error {
	for _, id := range driveFileIDs {
		if _, err := s.db.Exec("DELETE FROM bookshelf WHERE drive_file_id = ?", id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteLocalCopy removes the downloaded file and resets the item to
// pending.
func (s *Store) DeleteLocalCopy(driveFileID string) error {
	item, err := s.Item(driveFileID)
	if err != nil {
		return err
	}
	if item != nil && item.LocalPath != nil {
		if err := os.Remove(*item.LocalPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	_, err = s.db.Exec(`
		UPDATE bookshelf SET
		  local_path = NULL,
		  download_status = ?,
		  download_progress = 0,
		  updated_at = ?
		WHERE drive_file_id = ?
	`, StatusPending, s.now().Unix(), driveFileID)
	return err
}

// ResetStaleDownloads flips interrupted downloads back to pending. Called on
// startup; a status of downloading cannot survive a process restart.
func (s *Store) ResetStaleDownloads() error {
	_, err := s.db.Exec(`
		UPDATE bookshelf SET download_status = ?, download_progress = 0
		WHERE download_status = ?
	`, StatusPending, StatusDownloading)
	return err
}

// VerifyLocalFiles resets completed items whose local file has gone missing.
// It returns the number of items reset.
func (s *Store) VerifyLocalFiles() (int, error) {
	rows, err := s.db.Query(`
		SELECT drive_file_id, local_path FROM bookshelf
		WHERE download_status = ? AND local_path IS NOT NULL
	`, StatusCompleted)
	if err != nil {
		return 0, err
	}

	type entry struct{ fileID, path string }
	var completed []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.fileID, &e.path); err != nil {
			rows.Close()
			return 0, err
		}
		completed = append(completed, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	reset := 0
	for _, e := range completed {
		if _, err := os.Stat(e.path); err == nil {
			continue
		}
		log.Warn("local file missing, resetting item", "path", e.path)
		_, err := s.db.Exec(`
			UPDATE bookshelf SET
			  download_status = ?,
			  download_progress = 0,
			  local_path = NULL,
			  updated_at = ?
			WHERE drive_file_id = ?
		`, StatusPending, s.now().Unix(), e.fileID)
		if err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}
