package session

import (
	"context"
	"fmt"
	"time"

	"github.com/vireolabs/cloudlink/internal/codec"
	"github.com/vireolabs/cloudlink/internal/ota"
	"github.com/vireolabs/cloudlink/internal/property"
)

// defaultRequestInterval is how long to wait for a last-values response
// before re-issuing the request.
const defaultRequestInterval = 10 * time.Second

// defaultMaxMessageSize caps encoded payloads when the config leaves it unset.
const defaultMaxMessageSize = 8192

// Config carries the session parameters fixed at construction time.
type Config struct {
	// DeviceID and ThingID identify this device and its cloud thing; the
	// topic set is derived from them once at session start.
	DeviceID string
	ThingID  string

	// TopicRoot is the leading topic segment. Default: "iot".
	TopicRoot string

	// ShadowEnabled turns on the shadow channel and the last-values
	// handshake phase.
	ShadowEnabled bool

	// RequestInterval is the last-values re-request interval.
	// Default: 10s.
	RequestInterval time.Duration

	// MaxSyncRetries bounds unanswered last-values requests before the
	// session tears down and restarts from the physical layer.
	// 0 means retry forever.
	MaxSyncRetries int

	// MaxMessageSize caps outbound encoded payloads. Default: 8192.
	MaxMessageSize int

	// OTAEnabled registers the OTA properties and the download hook.
	OTAEnabled bool

	// OTACapable is reported to the cloud as OTA_CAP.
	OTACapable bool

	// FirmwareSHA256 is reported to the cloud as OTA_SHA256.
	FirmwareSHA256 string
}

// Session is the cloud connection manager: it owns the connection
// lifecycle state machine, the property sync protocol and the
// retransmission buffer.
//
// A Session is driven by repeated non-blocking Tick calls from a single
// host loop. It is not safe for concurrent use; the cooperative
// single-threaded model is the concurrency contract, and the only
// re-entrancy is the inbound message callback invoked from the
// transport poll inside Tick itself.
type Session struct {
	cfg       Config
	transport Transport
	container *property.Container
	topics    Topics

	link  LinkMonitor
	clock Clock

	state State

	// nextState, when set by the message callback, overrides the tick
	// handler's returned state. The callback's transition wins.
	nextState *State

	retransmit retransmitRecord

	// lastSyncRequest is the monotonic stamp of the last last-values
	// request; zeroed on every arrival in StateRequestLastValues so the
	// request goes out on the entry tick.
	lastSyncRequest time.Time
	syncAttempts    int

	eventFn    EventHandler
	logger     Logger
	store      Store
	recorder   Recorder
	downloader ota.Downloader
	otaProps   *otaProperties

	ctx context.Context
}

// New creates a session for the given device identity over the given
// transport. The transport's message handler is claimed by the session.
func New(cfg Config, transport Transport, container *property.Container) (*Session, error) {
	if cfg.DeviceID == "" {
		return nil, ErrMissingDeviceID
	}
	if cfg.ThingID == "" {
		return nil, ErrMissingThingID
	}
	if transport == nil {
		return nil, ErrNilTransport
	}
	if container == nil {
		container = property.NewContainer()
	}
	if cfg.TopicRoot == "" {
		cfg.TopicRoot = "iot"
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = defaultRequestInterval
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	s := &Session{
		cfg:       cfg,
		transport: transport,
		container: container,
		topics:    NewTopics(cfg.TopicRoot, cfg.DeviceID, cfg.ThingID, cfg.ShadowEnabled),
		link:      alwaysUp{},
		clock:     systemClock{},
		state:     StateConnectPhy,
		logger:    noopLogger{},
		ctx:       context.Background(),
	}

	if cfg.OTAEnabled {
		if err := s.registerOTAProperties(); err != nil {
			return nil, fmt.Errorf("registering OTA properties: %w", err)
		}
	}

	transport.SetMessageHandler(s.handleMessage)
	return s, nil
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// SetLinkMonitor replaces the physical-link probe. The default assumes
// the link is always up.
func (s *Session) SetLinkMonitor(link LinkMonitor) {
	s.link = link
}

// SetClock replaces the wall-clock source. Used by tests.
func (s *Session) SetClock(clock Clock) {
	s.clock = clock
}

// SetStore sets the property journal. When set, the session persists a
// snapshot after every successful publish.
func (s *Session) SetStore(store Store) {
	s.store = store
}

// SetRecorder sets the diagnostics recorder.
func (s *Session) SetRecorder(recorder Recorder) {
	s.recorder = recorder
}

// SetDownloader sets the firmware download mechanism invoked by the OTA
// hook. Without one, OTA requests fail with ErrorCodeNoDownloader.
func (s *Session) SetDownloader(d ota.Downloader) {
	s.downloader = d
}

// OnEvent registers the lifecycle event callback.
func (s *Session) OnEvent(fn EventHandler) {
	s.eventFn = fn
}

// Begin prepares the session for ticking: it attaches the context used
// by the OTA hook and logs the derived topic set. Call once before the
// tick loop.
func (s *Session) Begin(ctx context.Context) {
	if ctx != nil {
		s.ctx = ctx
	}
	s.logger.Info("session starting",
		"device_id", s.cfg.DeviceID,
		"thing_id", s.cfg.ThingID,
		"data_out", s.topics.DataOut(),
		"shadow", s.cfg.ShadowEnabled,
	)
}

// Container returns the session's property container. The host must
// only touch it from the same loop that calls Tick.
func (s *Session) Container() *property.Container {
	return s.container
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Connected reports whether the session is fully established.
func (s *Session) Connected() bool {
	return s.state == StateConnected && s.transport.Connected()
}

// Topics returns the derived topic set.
func (s *Session) Topics() Topics {
	return s.topics
}

// Close tears the transport down. The session may be ticked again
// afterwards; it will restart from StateConnectPhy.
func (s *Session) Close() {
	s.transport.Stop()
	s.state = StateConnectPhy
}

// Tick runs at most one state handler plus one transport poll. It never
// blocks beyond the transport's own bounded operations, so the host's
// cooperative loop is never stalled.
//
// The inbound message callback runs synchronously inside the poll and
// may request a state override (the RequestLastValues→Connected
// shortcut); the override is applied after the handler's returned state,
// and takes precedence.
func (s *Session) Tick() {
	next := s.state
	switch s.state {
	case StateConnectPhy:
		next = s.handleConnectPhy()
	case StateSyncTime:
		next = s.handleSyncTime()
	case StateConnectBroker:
		next = s.handleConnectBroker()
	case StateSubscribeTopics:
		next = s.handleSubscribeTopics()
	case StateRequestLastValues:
		next = s.handleRequestLastValues()
	case StateConnected:
		next = s.handleConnected()
	}
	s.state = next

	if s.transport.Connected() {
		s.transport.Poll()
	}

	if s.nextState != nil {
		s.state = *s.nextState
		s.nextState = nil
	}
}

// requestState records a state override from the message callback,
// applied when the enclosing Tick completes.
func (s *Session) requestState(state State) {
	s.nextState = &state
}

// =============================================================================
// State handlers
// =============================================================================

func (s *Session) handleConnectPhy() State {
	if !s.link.Up() {
		return StateConnectPhy
	}
	s.logger.Debug("physical link up")
	return StateSyncTime
}

func (s *Session) handleSyncTime() State {
	// The clock must report a trustworthy value before the secure
	// transport is usable; certificate validity depends on wall time.
	now := s.clock.Now()
	s.logger.Debug("clock synchronized", "posix", now.Unix())
	return StateConnectBroker
}

func (s *Session) handleConnectBroker() State {
	if err := s.transport.Connect(); err != nil {
		s.logger.Error("broker connect failed", "error", err)
		return StateConnectBroker
	}
	s.logger.Debug("broker connected")
	return StateSubscribeTopics
}

func (s *Session) handleSubscribeTopics() State {
	if err := s.transport.Subscribe(s.topics.DataIn()); err != nil {
		s.logger.Error("subscribe failed", "topic", s.topics.DataIn(), "error", err)
		return StateSubscribeTopics
	}

	if s.topics.ShadowEnabled() {
		if err := s.transport.Subscribe(s.topics.ShadowIn()); err != nil {
			s.logger.Error("subscribe failed", "topic", s.topics.ShadowIn(), "error", err)
			return StateSubscribeTopics
		}
	}

	s.logger.Info("connected to cloud")
	s.emitEvent(EventConnect)

	if s.topics.ShadowEnabled() {
		s.lastSyncRequest = time.Time{}
		s.syncAttempts = 0
		return StateRequestLastValues
	}
	return StateConnected
}

func (s *Session) handleRequestLastValues() State {
	now := s.clock.Now()
	if !s.lastSyncRequest.IsZero() && now.Sub(s.lastSyncRequest) < s.cfg.RequestInterval {
		return StateRequestLastValues
	}

	// An unanswered handshake can wait forever (MaxSyncRetries == 0) or,
	// by policy, give up and restart from the physical layer.
	if s.cfg.MaxSyncRetries > 0 && s.syncAttempts >= s.cfg.MaxSyncRetries {
		s.logger.Warn("last-values handshake unanswered, reconnecting",
			"attempts", s.syncAttempts)
		s.transport.Stop()
		s.emitEvent(EventDisconnect)
		return StateConnectPhy
	}

	s.logger.Debug("requesting last values", "attempt", s.syncAttempts+1)
	if err := s.transport.Publish(s.topics.ShadowOut(), codec.LastValuesRequest()); err != nil {
		s.logger.Warn("last-values request failed", "error", err)
	}
	s.syncAttempts++
	s.lastSyncRequest = now

	return StateRequestLastValues
}

func (s *Session) handleConnected() State {
	if !s.transport.Connected() {
		s.logger.Error("broker connection lost")

		// Forcefully stop the transport and restart the full lifecycle;
		// a partial physical failure cannot be cheaply distinguished
		// from a broker-level one.
		s.transport.Stop()

		// The last publish is definitely unconfirmed now.
		s.retransmit.markPending()

		s.emitEvent(EventDisconnect)
		return StateConnectPhy
	}

	// Wall time is trustworthy here, and shadow conflict resolution
	// depends on these stamps being set while connected.
	s.container.StampChanged(s.clock.Now())

	// Replay the payload lost to the previous disconnect before any new
	// property changes go out.
	if payload := s.retransmit.take(); payload != nil {
		s.logger.Info("retransmitting last payload", "bytes", len(payload))
		if err := s.transport.Publish(s.topics.DataOut(), payload); err != nil {
			s.logger.Warn("retransmit publish failed", "error", err)
		}
	}

	s.publishProperties(false)

	if s.cfg.OTAEnabled {
		s.runOTAHook()
	}

	return StateConnected
}

// =============================================================================
// Sync protocol
// =============================================================================

// handleMessage routes one inbound message by topic. It runs inside the
// transport poll, in the tick's own execution context.
func (s *Session) handleMessage(topic string, payload []byte) {
	switch topic {
	case s.topics.DataIn():
		if err := codec.Decode(payload, s.container, false); err != nil {
			s.logger.Warn("dropping malformed data message", "error", err)
		}

	case s.topics.ShadowIn():
		if s.state != StateRequestLastValues {
			return
		}
		if err := codec.Decode(payload, s.container, true); err != nil {
			s.logger.Warn("dropping malformed shadow message", "error", err)
			return
		}
		s.logger.Info("last values received", "attempts", s.syncAttempts)

		// Re-publish everything to resolve conflicts and acknowledge
		// the sync, then take the shortcut into Connected.
		s.publishProperties(true)
		s.emitEvent(EventSync)
		s.requestState(StateConnected)
	}
}

// publishProperties encodes pending (or, with force, all) properties,
// stores the payload for retransmission and publishes it. Codec errors
// skip the publish for this cycle and leave the state machine untouched.
func (s *Session) publishProperties(force bool) {
	payload, err := codec.Encode(s.container, force, s.cfg.MaxMessageSize)
	if err != nil {
		s.logger.Warn("property encode failed", "error", err)
		return
	}
	if payload == nil {
		return
	}

	// Buffer first: if the connection dies mid-publish the payload is
	// replayed after the next reconnect.
	s.retransmit.store(payload)

	if err := s.transport.Publish(s.topics.DataOut(), payload); err != nil {
		s.logger.Warn("property publish failed", "error", err)
	}

	s.persistSnapshot()
	s.recordProperties()
}

// persistSnapshot writes the current property values to the journal.
func (s *Session) persistSnapshot() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.container.Snapshot()); err != nil {
		s.logger.Warn("journal save failed", "error", err)
	}
}

// recordProperties mirrors numeric property values to the diagnostics
// recorder at publish time.
func (s *Session) recordProperties() {
	if s.recorder == nil {
		return
	}
	now := s.clock.Now()
	for _, p := range s.container.All() {
		switch p.Kind() {
		case property.KindBool:
			v := 0.0
			if p.Bool() {
				v = 1.0
			}
			s.recorder.RecordProperty(p.Name(), v, now)
		case property.KindInt:
			s.recorder.RecordProperty(p.Name(), float64(p.Int()), now)
		case property.KindFloat:
			s.recorder.RecordProperty(p.Name(), p.Float(), now)
		case property.KindString:
			// Strings carry no numeric signal.
		}
	}
}

// emitEvent delivers a lifecycle event to the host callback and the
// diagnostics recorder.
func (s *Session) emitEvent(e Event) {
	if s.recorder != nil {
		s.recorder.RecordEvent(e.String(), s.clock.Now())
	}
	if s.eventFn != nil {
		s.eventFn(e)
	}
}
