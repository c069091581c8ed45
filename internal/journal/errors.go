package journal

import "errors"

// ErrUnsupportedValue is returned when a snapshot value cannot be
// represented in the journal's text column form.
var ErrUnsupportedValue = errors.New("journal: unsupported property value")
