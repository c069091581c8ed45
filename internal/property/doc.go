// Package property implements the device-side property container.
//
// A property is a named, typed unit of device state that is mirrored to
// the cloud. The container tracks which properties have changed locally
// (dirty tracking), which the cloud is allowed to write (permissions),
// and who wins when the post-reconnect shadow sync reports a diverging
// cloud value (conflict policy).
//
// # Ownership
//
// The container belongs to a single session and is only ever touched
// from the session's tick context. There is deliberately no locking:
// the cooperative single-threaded model of the connection state machine
// is the concurrency contract.
//
// # Usage
//
//	c := property.NewContainer()
//	temp, _ := c.Add("temperature", 0.0)
//	relay, _ := c.Add("relay", false,
//	    property.WithPermission(property.ReadWrite),
//	    property.WithPolicy(property.DeviceWins))
//
//	temp.Set(21.5)        // marks dirty, picked up by the next sync pass
//	relay.Bool()          // current value
package property
