package ota

import "context"

// ErrorCode is the device-reported firmware update status, surfaced to
// the cloud through the OTA_ERROR property.
type ErrorCode int64

const (
	// ErrorCodeNone means no update error is outstanding.
	ErrorCodeNone ErrorCode = 0

	// ErrorCodeDownloadFailed means fetching the image failed.
	ErrorCodeDownloadFailed ErrorCode = 1

	// ErrorCodeNoDownloader means an update was requested but no
	// download mechanism is wired into this build.
	ErrorCodeNoDownloader ErrorCode = 2
)

// String returns the code name for logging.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeNone:
		return "none"
	case ErrorCodeDownloadFailed:
		return "download_failed"
	case ErrorCodeNoDownloader:
		return "no_downloader"
	default:
		return "unknown"
	}
}

// Downloader fetches a firmware image and stages it for the platform
// flash mechanism. Download blocks until the fetch completes or fails;
// the session invokes it synchronously from the OTA hook, by design the
// one place the tick loop is allowed to dwell.
type Downloader interface {
	Download(ctx context.Context, url string) error
}
