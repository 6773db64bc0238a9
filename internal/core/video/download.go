package video

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	downloadReferer   = "https://www.bilibili.com/"

	maxDownloadBytes = 512 * 1024 * 1024

	defaultDownloadDir = "bilidownload"
	cleanupInterval    = 24 * time.Hour
)

// FileDownloader streams a resolved media URL into a temp file. The CDN
// rejects requests without the platform referer, so the headers mirror the
// fetcher's.
type FileDownloader struct {
	client *http.Client
	dir    string
	logger zerolog.Logger
}

func NewFileDownloader(timeout time.Duration, dir string, logger zerolog.Logger) *FileDownloader {
	if dir == "" {
		dir = defaultDownloadDir
	}

	_ = os.MkdirAll(dir, 0o755)

	return &FileDownloader{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
		logger: logger.With().Str("component", "downloader").Logger(),
	}
}

// Download fetches streamURL into <dir>/<name>.mp4 and returns the path. A
// failed transfer removes the partial file.
func (d *FileDownloader) Download(ctx context.Context, streamURL, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}

	req.Header.Set("User-Agent", downloadUserAgent)
	req.Header.Set("Referer", downloadReferer)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("downloading stream: unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(d.dir, name+".mp4")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(resp.Body, maxDownloadBytes))

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return "", fmt.Errorf("writing download file: %w", err)
	}

	d.logger.Info().Str("path", path).Int64("bytes", written).Msg("download complete")

	return path, nil
}

// CleanupLoop empties the download directory on startup and then every 24
// hours. Sent files are never reused, so everything in the directory is fair
// game.
func (d *FileDownloader) CleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		d.sweep()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *FileDownloader) sweep() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		d.logger.Warn().Err(err).Str("dir", d.dir).Msg("download directory sweep failed")

		return
	}

	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if err := os.Remove(filepath.Join(d.dir, entry.Name())); err != nil {
			d.logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to remove old download")

			continue
		}

		removed++
	}

	if removed > 0 {
		d.logger.Info().Int("removed", removed).Msg("download directory swept")
	}
}
