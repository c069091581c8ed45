// Package mqtt provides the broker transport for the cloud session.
//
// This package manages:
//   - Single-attempt broker connections (lifecycle owned by the session)
//   - QoS 1 publish and subscribe with bounded acknowledgment waits
//   - Bounded inbound queueing with synchronous delivery via Poll
//   - TLS transport security
//
// # Delivery Model
//
// paho.mqtt.golang invokes message callbacks on its own goroutines. The
// session state machine is single-threaded, so this package never calls
// the registered handler from a paho goroutine: deliveries are copied
// onto a bounded channel and drained by Poll, which the session calls
// from its own tick loop. Inbound payloads are bounds-checked against
// the configured maximum before queueing.
//
// # Reconnection
//
// Auto-reconnect is off. The session detects connection loss through
// Connected(), tears the transport down with Stop and walks its own
// lifecycle back through the broker connect phase. This keeps the
// retransmit guarantee intact: the session always knows whether a
// payload was sent over a live connection.
//
// # Usage
//
//	transport := mqtt.New(cfg)
//	transport.SetMessageHandler(onMessage) // before Connect
//
//	if err := transport.Connect(); err != nil {
//	    // retry on a later tick
//	}
//	transport.Subscribe("iot/dev-1/things/thing-1/data/in")
//	transport.Poll() // drain inbound messages into onMessage
package mqtt
