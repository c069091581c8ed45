package session

import "errors"

// Construction errors. Use errors.Is() to check for these in calling code.
var (
	// ErrMissingDeviceID is returned when the config lacks a device identity.
	ErrMissingDeviceID = errors.New("session: device ID is required")

	// ErrMissingThingID is returned when the config lacks a thing identity.
	ErrMissingThingID = errors.New("session: thing ID is required")

	// ErrNilTransport is returned when no transport is supplied.
	ErrNilTransport = errors.New("session: transport is required")
)
