package bookshelf

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/driveshelf/internal/drive"
)

type fakeFetcher struct {
	content []byte
	err     error
	waitCtx bool
}

func (f *fakeFetcher) Download(ctx context.Context, _, destPath string, onProgress drive.ProgressFunc) error {
	if f.waitCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	if onProgress != nil {
		onProgress(int64(len(f.content)), int64(len(f.content)))
	}
	return os.WriteFile(destPath, f.content, 0o644)
}

func setupDownloader(t *testing.T, fetcher Fetcher) (*Downloader, *Store) {
	t.Helper()
	s := setupTestStore(t)
	require.NoError(t, s.AddFolder("f1", "Books"))
	addTestItem(t, s, "d1", "f1", "a.pdf")
	return NewDownloader(s, fetcher, drive.NewRegistry(), t.TempDir()), s
}

func TestDownloadCompletesItem(t *testing.T) {
	d, s := setupDownloader(t, &fakeFetcher{content: []byte("pdf bytes")})

	require.NoError(t, d.Download(context.Background(), "d1"))

	item, err := s.Item("d1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, item.DownloadStatus)
	assert.Equal(t, float64(100), item.DownloadProgress)
	require.NotNil(t, item.LocalPath)
	assert.FileExists(t, *item.LocalPath)
}

func TestDownloadUnknownItem(t *testing.T) {
	d, _ := setupDownloader(t, &fakeFetcher{})

	err := d.Download(context.Background(), "nope")
	assert.Error(t, err)
}

func TestDownloadFailureMarksFailed(t *testing.T) {
	d, s := setupDownloader(t, &fakeFetcher{err: errors.New("boom")})

	err := d.Download(context.Background(), "d1")
	require.Error(t, err)

	item, err := s.Item("d1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, item.DownloadStatus)
	assert.Nil(t, item.LocalPath)
}

func TestDownloadCancelResetsToPending(t *testing.T) {
	d, s := setupDownloader(t, &fakeFetcher{waitCtx: true})

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Download(context.Background(), "d1")
	}()

	// Wait for the download to register, then cancel it
	require.Eventually(t, func() bool {
		return d.Cancel("d1")
	}, 2*time.Second, 10*time.Millisecond)

	err := <-errCh
	require.Error(t, err)

	item, err := s.Item("d1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, item.DownloadStatus)
}
