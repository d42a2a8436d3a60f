package drive

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/markb/driveshelf/internal/auth"
	"github.com/markb/driveshelf/internal/log"
)

// ProgressFunc receives download progress. totalBytes is 0 when the server
// does not report a length.
type ProgressFunc func(downloadedBytes, totalBytes int64)

// progress callbacks fire at most once per chunk of this size
const progressChunk = 256 * 1024

// Download streams a file's content to destPath. The transfer goes through a
// uniquely named temporary file in the destination directory and is renamed
// into place only when complete, so a cancelled or failed download never
// leaves a partial file at destPath.
func (c *Client) Download(ctx context.Context, fileID, destPath string, onProgress ProgressFunc) error {
	resp, err := c.get(ctx, "/files/"+url.PathEscape(fileID), url.Values{"alt": {"media"}})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpPath := filepath.Join(dir, uuid.NewString()+".part")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		// Removing an already renamed file is a no-op failure
		if _, statErr := os.Stat(tmpPath); statErr == nil {
			_ = os.Remove(tmpPath)
			log.Debug("removed partial download", "path", tmpPath)
		}
	}()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	var written int64
	var sinceReport int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("download cancelled: %w", err)
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			sinceReport += int64(n)
			if onProgress != nil && sinceReport >= progressChunk {
				onProgress(written, total)
				sinceReport = 0
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("%w: %v", auth.ErrHTTPRequestFailed, rerr)
		}
	}
	if onProgress != nil {
		onProgress(written, total)
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
