package property

import (
	"math"
	"time"
)

// Kind identifies the value type a property holds.
type Kind int

const (
	// KindBool holds a boolean value.
	KindBool Kind = iota

	// KindInt holds a 64-bit signed integer value.
	KindInt

	// KindFloat holds a 64-bit floating point value.
	KindFloat

	// KindString holds a string value.
	KindString
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Permission controls whether the cloud may write a property.
type Permission int

const (
	// Read means the property is reported to the cloud but never
	// written by it. Inbound updates for it are ignored.
	Read Permission = iota

	// ReadWrite means the cloud may update the property.
	ReadWrite
)

// ConflictPolicy selects the winner when the last-values handshake
// returns a cloud value that differs from the local one.
type ConflictPolicy int

const (
	// CloudWins adopts the cloud's last known value during shadow sync.
	CloudWins ConflictPolicy = iota

	// DeviceWins keeps the local value during shadow sync and marks the
	// property dirty so the follow-up publish asserts it to the cloud.
	DeviceWins
)

// Property is a named, typed unit of device state subject to remote
// synchronization. Values are one of bool, int64, float64 or string,
// fixed at registration time.
//
// Properties are not safe for concurrent use; the session's cooperative
// tick model is the only execution context that touches them.
type Property struct {
	name   string
	kind   Kind
	perm   Permission
	policy ConflictPolicy

	value any

	// dirty marks the property as pending transmission.
	dirty bool

	// stampPending is set when a local change has been made but not yet
	// timestamped by the session's per-tick sweep. The sweep runs only
	// while connected, when wall time is trustworthy.
	stampPending bool

	// changedAt is the time of the last local change, zero until the
	// first timestamp sweep after a change.
	changedAt time.Time
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Kind returns the property value kind.
func (p *Property) Kind() Kind { return p.kind }

// Permission returns the property's cloud-write permission.
func (p *Property) Permission() Permission { return p.perm }

// Policy returns the property's shadow-sync conflict policy.
func (p *Property) Policy() ConflictPolicy { return p.policy }

// Value returns the current value as bool, int64, float64 or string.
func (p *Property) Value() any { return p.value }

// Dirty reports whether the property is pending transmission.
func (p *Property) Dirty() bool { return p.dirty }

// ChangedAt returns the timestamp of the last local change, or the zero
// time if the property has never been stamped.
func (p *Property) ChangedAt() time.Time { return p.changedAt }

// Bool returns the value as a bool. It returns false if the property is
// not of KindBool.
func (p *Property) Bool() bool {
	v, ok := p.value.(bool)
	return ok && v
}

// Int returns the value as an int64, or 0 for other kinds.
func (p *Property) Int() int64 {
	v, _ := p.value.(int64)
	return v
}

// Float returns the value as a float64, or 0 for other kinds.
func (p *Property) Float() float64 {
	v, _ := p.value.(float64)
	return v
}

// String returns the value as a string, or "" for other kinds.
func (p *Property) String() string {
	v, _ := p.value.(string)
	return v
}

// Set updates the property value from the device side. The value must
// coerce to the property's kind. A genuine change marks the property
// dirty and schedules a timestamp at the next sweep; setting the same
// value again is a no-op.
func (p *Property) Set(v any) error {
	coerced, ok := coerce(v, p.kind)
	if !ok {
		return ErrKindMismatch
	}
	if coerced == p.value {
		return nil
	}
	p.value = coerced
	p.dirty = true
	p.stampPending = true
	return nil
}

// clearDirty resets transmission bookkeeping after a successful encode.
func (p *Property) clearDirty() {
	p.dirty = false
}

// coerce converts v to the representation for kind.
// Numeric kinds accept any Go numeric type; everything else must match.
func coerce(v any, kind Kind) (any, bool) {
	switch kind {
	case KindBool:
		b, ok := v.(bool)
		return b, ok
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindInt:
		if i, ok := toInt64(v); ok {
			return i, true
		}
		return nil, false
	case KindFloat:
		f, ok := toFloat(v)
		return f, ok
	default:
		return nil, false
	}
}

// toInt64 converts any numeric value to int64 without a float64
// detour, so integers above 2^53 keep their exact value. Unsigned
// values beyond MaxInt64 and non-integral floats do not convert.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	default:
		return 0, false
	}
}

// floatToInt64 accepts only floats that represent an int64 exactly.
func floatToInt64(f float64) (int64, bool) {
	// float64(MaxInt64) rounds up to 2^63, which does not fit.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	i := int64(f)
	if float64(i) != f {
		return 0, false
	}
	return i, true
}

// toFloat widens any numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
