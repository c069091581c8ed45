// Package netmon probes physical network link state.
//
// The session's first lifecycle phase waits for a usable network
// interface before attempting anything else. Monitor answers that
// question from the kernel's interface table: an interface is usable
// when it is administratively up, operationally running and not a
// loopback.
package netmon

import "net"

// Monitor reports physical link availability. The zero value watches
// all interfaces.
type Monitor struct {
	// iface, when set, restricts the probe to one named interface.
	iface string
}

// New creates a monitor. With an empty name it reports up when any
// non-loopback interface is running; otherwise only the named
// interface is considered.
func New(iface string) *Monitor {
	return &Monitor{iface: iface}
}

// Up reports whether a usable link is present. Probe errors read as
// link-down; the session simply retries on a later tick.
func (m *Monitor) Up() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, ifc := range ifaces {
		if m.iface != "" && ifc.Name != m.iface {
			continue
		}
		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ifc.Flags&net.FlagUp != 0 && ifc.Flags&net.FlagRunning != 0 {
			return true
		}
	}
	return false
}
