package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/vireolabs/cloudlink/internal/infrastructure/config"
)

// Client is the broker transport behind the session state machine.
//
// It wraps paho.mqtt.golang with the delivery model the session requires:
// inbound messages are queued on a bounded channel by the broker reader
// and handed to the registered handler only from Poll, so the handler
// always runs in the session's own tick context rather than a paho
// goroutine.
//
// The message handler must be registered before Connect. Connection
// lifecycle (connect, loss detection, reconnect) is driven entirely by
// the caller; the client never reconnects on its own.
type Client struct {
	cfg  *config.Config
	opts *pahomqtt.ClientOptions

	client pahomqtt.Client

	handler func(topic string, payload []byte)

	// inbound buffers broker deliveries between polls. Bounded: when the
	// session stalls, excess messages are dropped, never blocking the
	// broker reader.
	inbound chan inboundMessage

	// maxInbound caps accepted inbound payload size. Oversized messages
	// are dropped before queueing.
	maxInbound int

	logger Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// inboundMessage is one broker delivery awaiting the next poll.
type inboundMessage struct {
	topic   string
	payload []byte
}

// New creates a transport for the configured broker. It does not
// connect; the session calls Connect when its state machine is ready.
func New(cfg *config.Config) *Client {
	maxInbound := cfg.Session.MaxMessageSize
	if maxInbound <= 0 {
		maxInbound = maxOutboundPayload
	}
	return &Client{
		cfg:        cfg,
		opts:       buildClientOptions(cfg),
		inbound:    make(chan inboundMessage, inboundQueueSize),
		maxInbound: maxInbound,
	}
}

// SetLogger sets a logger for dropped-message and error reporting.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// SetMessageHandler registers the callback invoked from Poll for each
// queued inbound message. Must be called before Connect.
func (c *Client) SetMessageHandler(fn func(topic string, payload []byte)) {
	c.handler = fn
}

// Connect performs a single connection attempt to the broker.
//
// Each attempt uses a fresh underlying client: a failed or torn-down
// connection leaves no state behind. The attempt blocks up to the
// configured connect timeout.
func (c *Client) Connect() error {
	if c.Connected() {
		return nil
	}

	c.client = pahomqtt.NewClient(c.opts)
	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.GetConnectTimeout()) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, c.cfg.GetConnectTimeout())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Connected reports whether the broker connection is currently open.
func (c *Client) Connected() bool {
	return c.client != nil && c.client.IsConnectionOpen()
}

// Stop tears the connection down and discards any queued inbound
// messages. Stale messages from a dead connection must not leak into
// the next session lifecycle.
func (c *Client) Stop() {
	if c.client != nil {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}

	for {
		select {
		case <-c.inbound:
		default:
			return
		}
	}
}

// Subscribe subscribes to a topic at QoS 1. Received messages are
// queued and delivered via Poll.
func (c *Client) Subscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	token := c.client.Subscribe(topic, qosAtLeastOnce, c.onMessage)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Publish sends a payload to a topic at QoS 1 and waits for the
// acknowledgment up to the operation timeout.
func (c *Client) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxOutboundPayload {
		return fmt.Errorf("%w: %d bytes, maximum %d", ErrPayloadTooLarge, len(payload), maxOutboundPayload)
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qosAtLeastOnce, false, payload)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Poll drains currently queued inbound messages into the handler. It
// never blocks: an empty queue returns immediately.
func (c *Client) Poll() {
	for {
		select {
		case msg := <-c.inbound:
			if c.handler != nil {
				c.handler(msg.topic, msg.payload)
			}
		default:
			return
		}
	}
}

// onMessage runs on a paho goroutine for each broker delivery. It
// bounds-checks the payload, copies it out of paho's buffer and queues
// it without blocking.
func (c *Client) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	payload := msg.Payload()
	if len(payload) > c.maxInbound {
		if c.logger != nil {
			c.logger.Warn("dropping oversized inbound message",
				"topic", msg.Topic(),
				"bytes", len(payload),
				"max", c.maxInbound,
			)
		}
		return
	}

	cp := make([]byte, len(payload))
	copy(cp, payload)

	select {
	case c.inbound <- inboundMessage{topic: msg.Topic(), payload: cp}:
	default:
		if c.logger != nil {
			c.logger.Warn("inbound queue full, dropping message", "topic", msg.Topic())
		}
	}
}
