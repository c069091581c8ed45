package codec

import "errors"

// Domain-specific errors for payload encoding and decoding.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrEncodeFailed is returned when CBOR serialization itself fails.
	ErrEncodeFailed = errors.New("codec: encode failed")

	// ErrEncodeOverflow is returned when the encoded payload exceeds the
	// configured maximum message size. Nothing is transmitted and no
	// dirty flags are cleared.
	ErrEncodeOverflow = errors.New("codec: encoded payload exceeds maximum size")

	// ErrDecodeMalformed is returned when an inbound payload's binary
	// structure is invalid. Records decoded before the malformed one
	// remain applied.
	ErrDecodeMalformed = errors.New("codec: malformed payload")
)
