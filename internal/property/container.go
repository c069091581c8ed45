package property

import (
	"fmt"
	"time"
)

// Container holds the device's synchronized properties in registration
// order. It tracks which properties are pending transmission and applies
// inbound cloud updates according to permission and conflict policy.
//
// The container is owned by the session and accessed only from its tick
// context; it is not safe for concurrent use.
type Container struct {
	props map[string]*Property
	order []string
}

// Option configures a property at registration time.
type Option func(*Property)

// WithPermission sets the property's cloud-write permission.
// The default is Read.
func WithPermission(perm Permission) Option {
	return func(p *Property) { p.perm = perm }
}

// WithPolicy sets the property's shadow-sync conflict policy.
// The default is CloudWins.
func WithPolicy(policy ConflictPolicy) Option {
	return func(p *Property) { p.policy = policy }
}

// NewContainer creates an empty property container.
func NewContainer() *Container {
	return &Container{
		props: make(map[string]*Property),
	}
}

// Add registers a property with an initial value. The value fixes the
// property's kind: bool, any integer, any float, or string.
// Returns ErrDuplicateName if the name is already registered.
func (c *Container) Add(name string, initial any, opts ...Option) (*Property, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, exists := c.props[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	kind, value, err := kindOf(initial)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", name, err)
	}

	p := &Property{
		name:   name,
		kind:   kind,
		perm:   Read,
		policy: CloudWins,
		value:  value,
	}
	for _, opt := range opts {
		opt(p)
	}

	c.props[name] = p
	c.order = append(c.order, name)
	return p, nil
}

// Get returns the property with the given name.
func (c *Container) Get(name string) (*Property, bool) {
	p, ok := c.props[name]
	return p, ok
}

// Len returns the number of registered properties.
func (c *Container) Len() int {
	return len(c.props)
}

// All returns all properties in registration order.
func (c *Container) All() []*Property {
	out := make([]*Property, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.props[name])
	}
	return out
}

// Dirty returns the properties pending transmission, in registration order.
func (c *Container) Dirty() []*Property {
	var out []*Property
	for _, name := range c.order {
		if p := c.props[name]; p.dirty {
			out = append(out, p)
		}
	}
	return out
}

// ClearDirty resets the dirty flag on the given properties. The codec
// calls this once an encoded payload has been accepted for transmission.
func (c *Container) ClearDirty(props []*Property) {
	for _, p := range props {
		p.clearDirty()
	}
}

// StampChanged records now as the local-change time on properties whose
// change has not yet been timestamped. The session runs this once per
// connected tick, when wall time is known good.
func (c *Container) StampChanged(now time.Time) {
	for _, name := range c.order {
		p := c.props[name]
		if p.stampPending {
			p.changedAt = now
			p.stampPending = false
		}
	}
}

// Apply applies an inbound cloud value to the named property.
//
// In live mode (shadow=false) the value overwrites the local one only
// for ReadWrite properties. In shadow mode the property's conflict
// policy decides: CloudWins adopts the value, DeviceWins keeps the local
// value and marks the property dirty so the post-sync publish asserts it.
//
// Unknown names and values that do not coerce to the property's kind are
// ignored for forward compatibility; Apply reports whether the local
// value was replaced.
func (c *Container) Apply(name string, v any, shadow bool) bool {
	p, ok := c.props[name]
	if !ok {
		return false
	}

	if shadow && p.policy == DeviceWins {
		p.dirty = true
		return false
	}

	if !shadow && p.perm != ReadWrite {
		return false
	}

	coerced, ok := coerce(v, p.kind)
	if !ok {
		return false
	}
	if coerced == p.value {
		return false
	}

	p.value = coerced
	// The cloud already holds this value; nothing pending locally.
	p.dirty = false
	p.stampPending = false
	return true
}

// Snapshot captures every property's current value for persistence.
type Snapshot struct {
	Name  string
	Kind  Kind
	Value any
}

// Snapshot returns the current values of all properties in registration order.
func (c *Container) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(c.order))
	for _, name := range c.order {
		p := c.props[name]
		out = append(out, Snapshot{Name: p.name, Kind: p.kind, Value: p.value})
	}
	return out
}

// Restore seeds registered properties from a persisted snapshot without
// marking them dirty. Entries for unregistered names or mismatched kinds
// are skipped; restoring must never invent properties.
func (c *Container) Restore(snap []Snapshot) {
	for _, s := range snap {
		p, ok := c.props[s.Name]
		if !ok || p.kind != s.Kind {
			continue
		}
		if coerced, ok := coerce(s.Value, p.kind); ok {
			p.value = coerced
		}
	}
}

// kindOf derives a property kind and normalized value from an initial value.
func kindOf(v any) (Kind, any, error) {
	switch n := v.(type) {
	case bool:
		return KindBool, n, nil
	case string:
		return KindString, n, nil
	case float32, float64:
		f, _ := toFloat(n)
		return KindFloat, f, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, ok := toInt64(n)
		if !ok {
			return 0, nil, fmt.Errorf("%w: %T value exceeds int64 range", ErrUnsupportedType, v)
		}
		return KindInt, i, nil
	default:
		return 0, nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}
