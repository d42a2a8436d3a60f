package bookshelf

import (
	"context"
	"fmt"

	"github.com/markb/driveshelf/internal/drive"
	"github.com/markb/driveshelf/internal/log"
)

// Lister is the part of the Drive client sync needs.
type Lister interface {
	ListFolderPDFs(ctx context.Context, folderID string) ([]drive.File, error)
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	NewFiles     int
	UpdatedFiles int
	RemovedFiles int
}

// Syncer reconciles the bookshelf against the Drive folder contents.
type Syncer struct {
	store  *Store
	lister Lister
}

// NewSyncer creates a Syncer.
func NewSyncer(store *Store, lister Lister) *Syncer {
	return &Syncer{store: store, lister: lister}
}

// SyncAll syncs every active folder and accumulates the results.
func (s *Syncer) SyncAll(ctx context.Context) (SyncResult, error) {
	folders, err := s.store.Folders()
	if err != nil {
		return SyncResult{}, err
	}

	var total SyncResult
	for _, f := range folders {
		res, err := s.SyncFolder(ctx, f.FolderID)
		if err != nil {
			return total, fmt.Errorf("sync folder %s: %w", f.FolderID, err)
		}
		total.NewFiles += res.NewFiles
		total.UpdatedFiles += res.UpdatedFiles
		total.RemovedFiles += res.RemovedFiles
	}
	return total, nil
}

// SyncFolder reconciles one folder: new Drive files are added, changed ones
// updated, and items whose Drive file disappeared are removed from the
// bookshelf. Local files of removed items are not deleted.
func (s *Syncer) SyncFolder(ctx context.Context, folderID string) (SyncResult, error) {
	remote, err := s.lister.ListFolderPDFs(ctx, folderID)
	if err != nil {
		return SyncResult{}, err
	}

	existing, err := s.store.FolderItems(folderID)
	if err != nil {
		return SyncResult{}, err
	}
	known := make(map[string]Item, len(existing))
	for _, it := range existing {
		known[it.DriveFileID] = it
	}

	var res SyncResult
	seen := make(map[string]bool, len(remote))
	for _, f := range remote {
		seen[f.ID] = true

		var size *int64
		if f.Size > 0 {
			v := f.Size
			size = &v
		}

		prev, ok := known[f.ID]
		switch {
		case !ok:
			res.NewFiles++
		case prev.DriveModifiedTime != f.ModifiedTime || prev.FileName != f.Name:
			res.UpdatedFiles++
		}

		if err := s.store.UpsertItem(f.ID, folderID, f.Name, size, f.MimeType, f.ModifiedTime); err != nil {
			return res, err
		}
	}

	var gone []string
	for id := range known {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	if len(gone) > 0 {
		if err := s.store.RemoveItems(gone); err != nil {
			return res, err
		}
		res.RemovedFiles = len(gone)
	}

	if err := s.store.TouchFolder(folderID); err != nil {
		return res, err
	}

	log.Info("folder synced", "folder_id", folderID,
		"new", res.NewFiles, "updated", res.UpdatedFiles, "removed", res.RemovedFiles)
	return res, nil
}
