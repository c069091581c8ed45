package ota

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Download constants.
const (
	// defaultDownloadTimeout bounds a whole image fetch.
	defaultDownloadTimeout = 10 * time.Minute

	// stagedImageName is the filename the fetched image is staged under.
	stagedImageName = "update.bin"

	// dirPermissions is the permission mode for the staging directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the staged image.
	filePermissions = 0600
)

// HTTPDownloader fetches firmware images over HTTP(S) and stages them in
// a spool directory for the platform flash mechanism to pick up.
// Flashing itself is outside this package.
type HTTPDownloader struct {
	// Dir is the staging directory. Created on first download.
	Dir string

	// Client is the HTTP client to use. Defaults to one with a bounded
	// overall timeout.
	Client *http.Client
}

// NewHTTPDownloader creates a downloader staging images under dir.
func NewHTTPDownloader(dir string) *HTTPDownloader {
	return &HTTPDownloader{
		Dir:    dir,
		Client: &http.Client{Timeout: defaultDownloadTimeout},
	}
}

// Download fetches the image at url into the staging directory.
//
// The image is written to a temporary file first and renamed into place
// only after the full body has been read and synced, so a truncated
// download never masquerades as a staged image.
func (d *HTTPDownloader) Download(ctx context.Context, url string) error {
	if err := os.MkdirAll(d.Dir, dirPermissions); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	// Remove remains from any previous update attempt.
	target := filepath.Join(d.Dir, stagedImageName)
	tmp := target + ".tmp"
	_ = os.Remove(target)
	_ = os.Remove(tmp)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: defaultDownloadTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: server returned %s", ErrDownloadRejected, resp.Status)
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("creating staging file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing image: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("syncing image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing image: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("staging image: %w", err)
	}

	return nil
}
