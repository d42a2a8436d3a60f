package bookshelf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/markb/driveshelf/internal/drive"
	"github.com/markb/driveshelf/internal/log"
)

// Fetcher is the part of the Drive client the downloader needs.
type Fetcher interface {
	Download(ctx context.Context, fileID, destPath string, onProgress drive.ProgressFunc) error
}

// Downloader fetches bookshelf items into a local directory, tracking state
// in the store and supporting cancellation by file ID.
type Downloader struct {
	store    *Store
	fetcher  Fetcher
	registry *drive.Registry
	dir      string
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(store *Store, fetcher Fetcher, registry *drive.Registry, dir string) *Downloader {
	return &Downloader{store: store, fetcher: fetcher, registry: registry, dir: dir}
}

// Download fetches one item and marks it completed. A cancelled or failed
// transfer resets the item so it can be retried.
func (d *Downloader) Download(ctx context.Context, driveFileID string) error {
	item, err := d.store.Item(driveFileID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("unknown bookshelf item %s", driveFileID)
	}

	dctx, done := d.registry.Register(ctx, driveFileID)
	defer done()

	if err := d.store.UpdateDownloadStatus(driveFileID, StatusDownloading, 0, nil); err != nil {
		return err
	}

	dest := filepath.Join(d.dir, item.FileName)
	err = d.fetcher.Download(dctx, driveFileID, dest, func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		progress := float64(downloaded) / float64(total) * 100
		if uerr := d.store.UpdateDownloadStatus(driveFileID, StatusDownloading, progress, nil); uerr != nil {
			log.Warn("progress update failed", "drive_file_id", driveFileID, "error", uerr)
		}
	})
	if err != nil {
		status := StatusFailed
		if dctx.Err() != nil {
			status = StatusPending
		}
		if uerr := d.store.UpdateDownloadStatus(driveFileID, status, 0, nil); uerr != nil {
			log.Error("status update failed", "drive_file_id", driveFileID, "error", uerr)
		}
		return err
	}

	return d.store.UpdateDownloadStatus(driveFileID, StatusCompleted, 100, &dest)
}

// Cancel aborts an in-flight download for the file ID.
func (d *Downloader) Cancel(driveFileID string) bool {
	return d.registry.Cancel(driveFileID)
}
