package session

// State identifies the current phase of the connection lifecycle.
// Exactly one state is current at any time; the state machine's tick
// handler (and the message-callback override it may trigger) are the
// only mutators.
type State int

const (
	// StateConnectPhy waits for the physical/link layer to come up.
	StateConnectPhy State = iota

	// StateSyncTime obtains wall-clock time before the secure session is
	// used; certificate validity depends on it.
	StateSyncTime

	// StateConnectBroker establishes the MQTT broker connection.
	StateConnectBroker

	// StateSubscribeTopics subscribes to the data-in topic and, when the
	// shadow channel is configured, the shadow-in topic.
	StateSubscribeTopics

	// StateRequestLastValues runs the last-values handshake on the
	// shadow channel, re-issuing the request on a fixed interval until a
	// response arrives.
	StateRequestLastValues

	// StateConnected is the steady state: property sync, retransmission
	// and the OTA hook all run here.
	StateConnected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnectPhy:
		return "connect_phy"
	case StateSyncTime:
		return "sync_time"
	case StateConnectBroker:
		return "connect_broker"
	case StateSubscribeTopics:
		return "subscribe_topics"
	case StateRequestLastValues:
		return "request_last_values"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
