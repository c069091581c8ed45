package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the cloudlink agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Broker    BrokerConfig    `yaml:"broker"`
	Auth      AuthConfig      `yaml:"auth"`
	Shadow    ShadowConfig    `yaml:"shadow"`
	Session   SessionConfig   `yaml:"session"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	OTA       OTAConfig       `yaml:"ota"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies this device and the cloud thing it synchronizes with.
type DeviceConfig struct {
	// ID is the unique device identifier, typically issued at provisioning.
	ID string `yaml:"id"`

	// ThingID is the cloud-side thing this device's properties belong to.
	ThingID string `yaml:"thing_id"`

	// TopicRoot is the leading topic segment for all session topics.
	// Default: "iot"
	TopicRoot string `yaml:"topic_root"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// ConnectTimeout is the maximum time one connect attempt may take (seconds).
	// The session state machine retries on the next tick, so this bounds a
	// single tick's worth of blocking, not the overall reconnection effort.
	ConnectTimeout int `yaml:"connect_timeout"`

	// KeepAlive is the MQTT keepalive interval (seconds).
	KeepAlive int `yaml:"keep_alive"`
}

// AuthConfig contains broker authentication credentials.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ShadowConfig controls the last-values handshake performed after (re)connection.
type ShadowConfig struct {
	// Enabled turns the shadow channel on. When false the shadow topics are
	// empty and the session goes straight from subscription to Connected.
	Enabled bool `yaml:"enabled"`

	// RequestInterval is how long to wait for a last-values response before
	// re-issuing the request (milliseconds). Default: 10000.
	RequestInterval int `yaml:"request_interval"`

	// MaxRetries bounds the number of unanswered last-values requests before
	// the session tears the connection down and restarts from the physical
	// layer. 0 means retry forever.
	MaxRetries int `yaml:"max_retries"`
}

// SessionConfig contains tick-loop and message-size settings.
type SessionConfig struct {
	// TickInterval is the delay between state machine ticks (milliseconds).
	TickInterval int `yaml:"tick_interval"`

	// MaxMessageSize caps both outbound encoded payloads and accepted
	// inbound payloads (bytes). Oversized inbound messages are dropped.
	MaxMessageSize int `yaml:"max_message_size"`
}

// JournalConfig contains the local property journal settings.
type JournalConfig struct {
	// Enabled turns on persistence of the last synchronized property
	// snapshot, used to seed the container across process restarts.
	Enabled bool `yaml:"enabled"`

	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TelemetryConfig contains the optional InfluxDB diagnostics sink settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// OTAConfig contains firmware update settings.
type OTAConfig struct {
	// Enabled registers the OTA properties and the download hook.
	Enabled bool `yaml:"enabled"`

	// Capable is reported to the cloud as OTA_CAP. A device may carry the
	// hook but report itself incapable (e.g. staging storage missing).
	Capable bool `yaml:"capable"`

	// DownloadDir is where fetched images are staged before hand-off to the
	// platform flash mechanism.
	DownloadDir string `yaml:"download_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CLOUDLINK_SECTION_KEY
// For example: CLOUDLINK_BROKER_HOST, CLOUDLINK_AUTH_PASSWORD
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			TopicRoot: "iot",
		},
		Broker: BrokerConfig{
			Host:           "localhost",
			Port:           8883,
			TLS:            true,
			ConnectTimeout: 2,
			KeepAlive:      30,
		},
		Shadow: ShadowConfig{
			Enabled:         true,
			RequestInterval: 10000,
			MaxRetries:      0,
		},
		Session: SessionConfig{
			TickInterval:   100,
			MaxMessageSize: 8192,
		},
		Journal: JournalConfig{
			Enabled:     false,
			Path:        "./data/cloudlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		OTA: OTAConfig{
			Enabled:     false,
			Capable:     false,
			DownloadDir: "./data/ota",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CLOUDLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device identity
	if v := os.Getenv("CLOUDLINK_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("CLOUDLINK_THING_ID"); v != "" {
		cfg.Device.ThingID = v
	}

	// Broker
	if v := os.Getenv("CLOUDLINK_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("CLOUDLINK_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Broker.Port = port
		}
	}
	if v := os.Getenv("CLOUDLINK_AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("CLOUDLINK_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}

	// Journal
	if v := os.Getenv("CLOUDLINK_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// Telemetry
	if v := os.Getenv("CLOUDLINK_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}
	if c.Device.ThingID == "" {
		errs = append(errs, "device.thing_id is required")
	}

	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}

	if c.Shadow.RequestInterval <= 0 {
		errs = append(errs, "shadow.request_interval must be positive")
	}
	if c.Shadow.MaxRetries < 0 {
		errs = append(errs, "shadow.max_retries must not be negative")
	}

	if c.Session.TickInterval <= 0 {
		errs = append(errs, "session.tick_interval must be positive")
	}
	if c.Session.MaxMessageSize <= 0 {
		errs = append(errs, "session.max_message_size must be positive")
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Token == "" {
			errs = append(errs, "telemetry.token is required when telemetry is enabled (set CLOUDLINK_TELEMETRY_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the broker connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Broker.ConnectTimeout) * time.Second
}

// GetKeepAlive returns the MQTT keepalive interval as a Duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.Broker.KeepAlive) * time.Second
}

// GetRequestInterval returns the last-values re-request interval as a Duration.
func (c *Config) GetRequestInterval() time.Duration {
	return time.Duration(c.Shadow.RequestInterval) * time.Millisecond
}

// GetTickInterval returns the tick loop interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Session.TickInterval) * time.Millisecond
}
