// Package codec translates between the property container and the
// compact CBOR wire format used on the data and shadow channels.
//
// This package manages:
//   - Encoding dirty (or all) properties into a CBOR array of records
//     with SenML-style integer labels
//   - Decoding inbound payloads in live (merge) or shadow
//     (last-known-values) mode
//   - The fixed getLastValues handshake request
//
// # Wire format
//
// A payload is a CBOR array; each element is a map keyed by small
// integers: 0 name, 2 numeric value, 3 string value, 4 boolean value,
// 6 last-change timestamp. Unknown names and unknown labels are ignored
// so old firmware tolerates newer cloud schemas.
//
// Encoding uses canonical CBOR key ordering: the same property set
// always yields the same bytes, which the session's retransmission
// buffer relies on when replaying a payload verbatim after a reconnect.
package codec
