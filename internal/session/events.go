package session

// Event is a lifecycle notification surfaced to the host application.
// Events carry no payload beyond their kind.
type Event int

const (
	// EventConnect fires once per connection establishment, after all
	// subscriptions succeed.
	EventConnect Event = iota

	// EventDisconnect fires when transport death is detected and the
	// session restarts from the physical layer.
	EventDisconnect

	// EventSync fires when the last-values shadow handshake completes.
	EventSync
)

// String returns the event name for logging.
func (e Event) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventSync:
		return "sync"
	default:
		return "unknown"
	}
}

// EventHandler receives lifecycle events. It is invoked synchronously
// from the session's tick context and must not block.
type EventHandler func(Event)
