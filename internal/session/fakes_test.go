package session

import (
	"context"
	"time"
)

// fakeMessage is an inbound message queued for delivery by fakeTransport.Poll.
type fakeMessage struct {
	topic   string
	payload []byte
}

// publishRecord captures one outbound publish for assertions.
type publishRecord struct {
	topic   string
	payload []byte
}

// fakeTransport is an in-memory Transport for driving the state machine.
// It mirrors the real transport's contract: Poll delivers queued inbound
// messages synchronously to the registered handler.
type fakeTransport struct {
	connected bool

	// connectErr, if set, makes Connect fail.
	connectErr error

	// subscribeErr maps topics to subscribe failures.
	subscribeErr map[string]error

	// publishErr, if set, makes Publish fail.
	publishErr error

	// retainPayloads makes Publish keep the caller's slice instead of a
	// copy, mimicking a transport that holds the buffer past return.
	retainPayloads bool

	connectCalls   int
	stopCalls      int
	subscribeCalls int

	subscriptions []string
	published     []publishRecord

	handler func(topic string, payload []byte)
	inbound []fakeMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subscribeErr: make(map[string]error)}
}

func (f *fakeTransport) Connect() error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Connected() bool { return f.connected }

func (f *fakeTransport) Stop() {
	f.stopCalls++
	f.connected = false
}

func (f *fakeTransport) Subscribe(topic string) error {
	f.subscribeCalls++
	if err := f.subscribeErr[topic]; err != nil {
		return err
	}
	f.subscriptions = append(f.subscriptions, topic)
	return nil
}

func (f *fakeTransport) Publish(topic string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	stored := payload
	if !f.retainPayloads {
		stored = make([]byte, len(payload))
		copy(stored, payload)
	}
	f.published = append(f.published, publishRecord{topic: topic, payload: stored})
	return nil
}

func (f *fakeTransport) Poll() {
	for len(f.inbound) > 0 {
		msg := f.inbound[0]
		f.inbound = f.inbound[1:]
		if f.handler != nil {
			f.handler(msg.topic, msg.payload)
		}
	}
}

func (f *fakeTransport) SetMessageHandler(fn func(topic string, payload []byte)) {
	f.handler = fn
}

// deliver queues an inbound message for the next Poll.
func (f *fakeTransport) deliver(topic string, payload []byte) {
	f.inbound = append(f.inbound, fakeMessage{topic: topic, payload: payload})
}

// publishesTo returns the publishes made to a topic.
func (f *fakeTransport) publishesTo(topic string) []publishRecord {
	var out []publishRecord
	for _, p := range f.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// fakeLink is a controllable LinkMonitor.
type fakeLink struct {
	up bool
}

func (f *fakeLink) Up() bool { return f.up }

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

// fakeDownloader records download invocations.
type fakeDownloader struct {
	err   error
	calls int
	urls  []string
}

func (f *fakeDownloader) Download(_ context.Context, url string) error {
	f.calls++
	f.urls = append(f.urls, url)
	return f.err
}

// eventRecorder collects emitted lifecycle events.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) handler() EventHandler {
	return func(e Event) { r.events = append(r.events, e) }
}

func (r *eventRecorder) count(e Event) int {
	n := 0
	for _, got := range r.events {
		if got == e {
			n++
		}
	}
	return n
}
