package session

import "fmt"

// Topics holds the four session topics, derived once from device and
// thing identity at session start and immutable for the session's
// lifetime. The shadow topics are empty when the shadow channel is
// disabled, which gates the last-values handshake phase.
type Topics struct {
	dataOut   string
	dataIn    string
	shadowOut string
	shadowIn  string
}

// NewTopics derives the topic set.
//
//	<root>/<deviceID>/things/<thingID>/data/out
//	<root>/<deviceID>/things/<thingID>/data/in
//	<root>/<deviceID>/things/<thingID>/shadow/out   (shadow only)
//	<root>/<deviceID>/things/<thingID>/shadow/in    (shadow only)
func NewTopics(root, deviceID, thingID string, shadow bool) Topics {
	prefix := fmt.Sprintf("%s/%s/things/%s", root, deviceID, thingID)
	t := Topics{
		dataOut: prefix + "/data/out",
		dataIn:  prefix + "/data/in",
	}
	if shadow {
		t.shadowOut = prefix + "/shadow/out"
		t.shadowIn = prefix + "/shadow/in"
	}
	return t
}

// DataOut returns the outbound data-channel topic.
func (t Topics) DataOut() string { return t.dataOut }

// DataIn returns the inbound data-channel topic.
func (t Topics) DataIn() string { return t.dataIn }

// ShadowOut returns the outbound shadow topic, or "" if shadow is disabled.
func (t Topics) ShadowOut() string { return t.shadowOut }

// ShadowIn returns the inbound shadow topic, or "" if shadow is disabled.
func (t Topics) ShadowIn() string { return t.shadowIn }

// ShadowEnabled reports whether the shadow channel is configured.
func (t Topics) ShadowEnabled() bool { return t.shadowIn != "" }
