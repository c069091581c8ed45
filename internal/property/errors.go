package property

import "errors"

// Domain-specific errors for property registration and updates.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrEmptyName is returned when registering a property without a name.
	ErrEmptyName = errors.New("property: name cannot be empty")

	// ErrDuplicateName is returned when a property name is already registered.
	ErrDuplicateName = errors.New("property: duplicate name")

	// ErrUnsupportedType is returned for initial values outside
	// bool/int/float/string.
	ErrUnsupportedType = errors.New("property: unsupported value type")

	// ErrKindMismatch is returned when a value cannot be coerced to the
	// property's registered kind.
	ErrKindMismatch = errors.New("property: value does not match property kind")
)
