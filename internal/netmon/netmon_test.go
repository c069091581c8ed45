package netmon

import "testing"

func TestUp_UnknownInterfaceIsDown(t *testing.T) {
	m := New("does-not-exist-0")
	if m.Up() {
		t.Error("Up() = true for nonexistent interface, want false")
	}
}

func TestUp_AllInterfacesDoesNotPanic(t *testing.T) {
	// The result depends on the host; only the probe itself is under test.
	m := New("")
	_ = m.Up()
}
