package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/vireolabs/cloudlink/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultOpTimeout is the maximum time to wait for publish and
	// subscribe acknowledgments.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations
	// on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// inboundQueueSize bounds the number of messages buffered between the
	// broker callback and the session's poll. Messages beyond this are
	// dropped rather than blocking the broker reader.
	inboundQueueSize = 64

	// maxOutboundPayload caps outbound message size, aligned with typical
	// broker limits.
	maxOutboundPayload = 1 << 20 // 1MB

	// qosAtLeastOnce is the QoS level used for all session traffic.
	// Property updates must survive a lossy link; duplicates are
	// tolerable because records carry explicit values, not deltas.
	qosAtLeastOnce = 1

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from the broker config.
//
// Auto-reconnect is deliberately left off: the session state machine owns
// the connection lifecycle, detects loss via Connected() and drives the
// reconnect sequence itself. A transport that silently reconnects behind
// the session's back would break the retransmit guarantee.
func buildClientOptions(cfg *config.Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	// The device identity doubles as the MQTT client identity.
	opts.SetClientID(cfg.Device.ID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(cfg.GetConnectTimeout())
	opts.SetKeepAlive(cfg.GetKeepAlive())

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
