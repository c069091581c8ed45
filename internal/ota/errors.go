package ota

import "errors"

// Domain-specific errors for firmware downloads.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDownloadRejected is returned when the image server responds
	// with a non-200 status.
	ErrDownloadRejected = errors.New("ota: download rejected by server")
)
