package session

import (
	"time"

	"github.com/vireolabs/cloudlink/internal/property"
)

// Transport is the broker-facing byte transport consumed by the session.
// All methods must be non-blocking or internally bounded so a single
// tick never stalls the host's cooperative loop.
//
// The production implementation lives in internal/infrastructure/mqtt.
type Transport interface {
	// Connect attempts one bounded broker connection. The state machine
	// retries on the next tick if it fails.
	Connect() error

	// Connected reports whether the broker connection is currently alive.
	Connected() bool

	// Stop forcibly tears the connection down. Safe to call when already
	// disconnected.
	Stop()

	// Subscribe registers interest in a topic. Inbound messages are
	// delivered through Poll.
	Subscribe(topic string) error

	// Publish sends a payload to a topic.
	Publish(topic string, payload []byte) error

	// Poll drains available inbound messages, invoking the registered
	// message handler synchronously for each. It must not block waiting
	// for new messages.
	Poll()

	// SetMessageHandler registers the inbound message callback. The
	// handler runs inside Poll, in the session's own tick context.
	SetMessageHandler(fn func(topic string, payload []byte))
}

// LinkMonitor reports physical/link layer connectivity, checked by the
// ConnectPhy state before any broker work is attempted.
type LinkMonitor interface {
	Up() bool
}

// Clock provides wall time. The SyncTime state reads it once per
// connection attempt, and the Connected state stamps locally changed
// properties with it. A fake clock drives the state machine in tests.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store persists the last synchronized property snapshot across process
// restarts. Implemented by internal/journal.
type Store interface {
	Save(snapshot []property.Snapshot) error
}

// Recorder receives diagnostic measurements about the session: lifecycle
// events and numeric property values at publish time. Implemented by
// internal/infrastructure/telemetry; optional.
type Recorder interface {
	RecordEvent(name string, at time.Time)
	RecordProperty(name string, value float64, at time.Time)
}

// Logger defines the logging interface used by the session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// alwaysUp is the default LinkMonitor for deployments where the process
// only runs while the link exists (e.g. wired gateways).
type alwaysUp struct{}

func (alwaysUp) Up() bool { return true }
