package codec

// lastValuesRequest is the fixed handshake message requesting the
// cloud's last known property values after a (re)connection. It is the
// CBOR encoding of [{0: "r:m", 3: "getLastValues"}] and is sent to the
// shadow-out topic byte-for-byte; it never depends on container contents.
//
//	81 A2 00 63 72 3A 6D 03 6D 67 65 74 4C 61 73 74 56 61 6C 75 65 73
var lastValuesRequest = []byte{
	0x81, 0xA2, 0x00, 0x63, 0x72, 0x3A, 0x6D, 0x03,
	0x6D, 0x67, 0x65, 0x74, 0x4C, 0x61, 0x73, 0x74,
	0x56, 0x61, 0x6C, 0x75, 0x65, 0x73,
}

// LastValuesRequest returns the fixed 22-byte getLastValues message.
// Callers receive a copy; the canonical bytes are immutable.
func LastValuesRequest() []byte {
	out := make([]byte, len(lastValuesRequest))
	copy(out, lastValuesRequest)
	return out
}
