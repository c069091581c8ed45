package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/vireolabs/cloudlink/internal/property"
)

// Wire format: a CBOR array of records, one per property. Each record is
// a map with small integer labels in the SenML style:
//
//	0 — property name (text)
//	2 — numeric value
//	3 — string value
//	4 — boolean value
//	6 — timestamp of the last local change (seconds since epoch)
//
// Exactly one of labels 2/3/4 is present, selected by the property kind.
const (
	labelName   = 0
	labelValue  = 2
	labelString = 3
	labelBool   = 4
	labelTime   = 6
)

// encMode encodes with canonical key ordering so identical property sets
// always produce identical bytes. The retransmission buffer replays
// payloads verbatim, so determinism here is part of the wire contract.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: building encode mode: %v", err))
	}
}

// wireRecord is the decode-side view of a single property record.
// Absent labels stay nil/zero; unknown labels are ignored by the decoder.
type wireRecord struct {
	Name        string  `cbor:"0,keyasint"`
	Value       any     `cbor:"2,keyasint"`
	StringValue *string `cbor:"3,keyasint"`
	BoolValue   *bool   `cbor:"4,keyasint"`
	Time        *int64  `cbor:"6,keyasint"`
}

// Encode serializes properties pending transmission into a payload.
//
// Only dirty properties are included unless force is true, in which case
// every registered property is encoded (used for the post-shadow-sync
// full publish). A nil payload with nil error means nothing to send.
//
// If the encoded payload exceeds maxLen (when maxLen > 0) Encode fails
// with ErrEncodeOverflow and no dirty flags are cleared, so the same
// properties are retried on a later pass. On success the dirty flags of
// the encoded properties are cleared: transmission is assumed successful
// once the transport accepts the payload, and the caller's retransmit
// buffer is the only recovery mechanism beyond that.
func Encode(c *property.Container, force bool, maxLen int) ([]byte, error) {
	var props []*property.Property
	if force {
		props = c.All()
	} else {
		props = c.Dirty()
	}
	if len(props) == 0 {
		return nil, nil
	}

	records := make([]map[int]any, 0, len(props))
	for _, p := range props {
		rec := map[int]any{labelName: p.Name()}
		switch p.Kind() {
		case property.KindBool:
			rec[labelBool] = p.Bool()
		case property.KindString:
			rec[labelString] = p.String()
		case property.KindInt:
			rec[labelValue] = p.Int()
		case property.KindFloat:
			rec[labelValue] = p.Float()
		}
		if ts := p.ChangedAt(); !ts.IsZero() {
			rec[labelTime] = ts.Unix()
		}
		records = append(records, rec)
	}

	payload, err := encMode.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	if maxLen > 0 && len(payload) > maxLen {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrEncodeOverflow, len(payload), maxLen)
	}

	c.ClearDirty(props)
	return payload, nil
}

// Decode applies an inbound payload to the container.
//
// Records are applied one at a time in payload order. Records naming
// unknown properties, or carrying values that do not match the
// property's kind, are skipped for forward compatibility. A malformed
// record stops processing with ErrDecodeMalformed; records already
// applied stay applied, which the protocol accepts.
//
// In shadow mode the payload is the authoritative last-known-values
// response and each property's conflict policy decides whether the
// cloud value is adopted; in live mode only ReadWrite properties are
// updated.
func Decode(payload []byte, c *property.Container, shadow bool) error {
	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeMalformed, err)
	}

	for i, msg := range raw {
		var rec wireRecord
		if err := cbor.Unmarshal(msg, &rec); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrDecodeMalformed, i, err)
		}
		if rec.Name == "" {
			continue
		}

		var value any
		switch {
		case rec.BoolValue != nil:
			value = *rec.BoolValue
		case rec.StringValue != nil:
			value = *rec.StringValue
		case rec.Value != nil:
			value = rec.Value
		default:
			continue
		}

		c.Apply(rec.Name, value, shadow)
	}

	return nil
}
