package session

// retransmitRecord is the single-slot buffer holding the most recently
// published data-channel payload so it can be replayed verbatim after a
// reconnect. At most one payload is ever outstanding: earlier lost
// payloads are not individually retried, trading full message history
// for bounded memory.
//
// Invariant: pending is true only while a payload is buffered and has
// not yet been re-published after the transport's most recent reconnect.
type retransmitRecord struct {
	buf     []byte
	pending bool
}

// store copies the exact outgoing bytes into the record. A fresh store
// supersedes any previous payload, so pending resets: transmission of
// the new payload is assumed successful once the transport accepts it.
func (r *retransmitRecord) store(payload []byte) {
	if cap(r.buf) < len(payload) {
		r.buf = make([]byte, len(payload))
	}
	r.buf = r.buf[:len(payload)]
	copy(r.buf, payload)
	r.pending = false
}

// markPending flags the buffered payload for replay. Called on the
// Connected→ConnectPhy transition: the in-flight or most recent publish
// cannot be confirmed delivered, so it is unconditionally suspect.
func (r *retransmitRecord) markPending() {
	if len(r.buf) > 0 {
		r.pending = true
	}
}

// take returns the buffered payload if a replay is due, clearing the
// pending flag. Returns nil when nothing is owed.
//
// The result is a copy: the slot's backing array is reused by the next
// store, which can happen later in the same tick, and the transport may
// hold the published slice past return (paho keeps the in-flight packet
// on an acknowledgment timeout).
func (r *retransmitRecord) take() []byte {
	if !r.pending || len(r.buf) == 0 {
		return nil
	}
	r.pending = false
	out := make([]byte, len(r.buf))
	copy(out, r.buf)
	return out
}
