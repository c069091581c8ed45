// Package ota provides the firmware update side channel consumed by the
// session's action hook.
//
// The cloud requests an update by writing the OTA_URL and OTA_REQ
// properties; the session's hook observes the request flag while
// connected and invokes a Downloader with the URL. This package defines
// the Downloader contract, the error codes reported back through
// OTA_ERROR, and an HTTP implementation that stages images in a spool
// directory. Flashing the staged image is the platform's job, not ours.
package ota
