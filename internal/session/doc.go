// Package session implements the cloud connection lifecycle and the
// property synchronization protocol on top of it.
//
// The heart of the package is a six-state machine driven by a single
// non-blocking Tick call:
//
//	ConnectPhy → SyncTime → ConnectBroker → SubscribeTopics
//	    → RequestLastValues (shadow only) → Connected
//
// Failure is always "stay and retry next tick", except at the top of
// Connected: any detected transport death forces a full re-descent to
// ConnectPhy, marks the last published payload for retransmission and
// emits a DISCONNECT event. No error in this package is fatal; an
// always-on device retries indefinitely.
//
// # Concurrency
//
// There is none. One host loop calls Tick; each tick runs at most one
// state handler plus one transport poll. Inbound messages are delivered
// synchronously from the poll, so the message callback shares the tick's
// execution context. When the callback needs to transition state (the
// last-values shortcut into Connected) it requests an override that is
// applied after the handler's own returned state, and wins.
//
// # Delivery guarantees
//
// The single-slot retransmission buffer replays the most recent
// data-channel payload verbatim after a reconnect, before any new
// property changes are sent: at-least-once delivery of the last payload
// only, by design bounded-memory rather than full-history.
//
// # Usage
//
//	s, err := session.New(session.Config{
//	    DeviceID:      cfg.Device.ID,
//	    ThingID:       cfg.Device.ThingID,
//	    ShadowEnabled: true,
//	}, transport, container)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s.OnEvent(func(e session.Event) { ... })
//	s.Begin(ctx)
//	for range ticker.C {
//	    s.Tick()
//	}
package session
