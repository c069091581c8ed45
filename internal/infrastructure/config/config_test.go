package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  id: "device-0001"
  thing_id: "thing-abc"
broker:
  host: "broker.example.com"
  port: 8883
  tls: true
shadow:
  enabled: true
  request_interval: 10000
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "device-0001" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "device-0001")
	}
	if cfg.Broker.Host != "broker.example.com" {
		t.Errorf("Broker.Host = %q, want %q", cfg.Broker.Host, "broker.example.com")
	}
	if !cfg.Shadow.Enabled {
		t.Error("Shadow.Enabled = false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
device:
  id: "device-0001"
  thing_id: "thing-abc"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.TopicRoot != "iot" {
		t.Errorf("Device.TopicRoot = %q, want %q", cfg.Device.TopicRoot, "iot")
	}
	if cfg.Shadow.RequestInterval != 10000 {
		t.Errorf("Shadow.RequestInterval = %d, want 10000", cfg.Shadow.RequestInterval)
	}
	if cfg.Session.MaxMessageSize != 8192 {
		t.Errorf("Session.MaxMessageSize = %d, want 8192", cfg.Session.MaxMessageSize)
	}
	if got := cfg.GetRequestInterval(); got != 10*time.Second {
		t.Errorf("GetRequestInterval() = %v, want %v", got, 10*time.Second)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	content := `
device:
  id: "device-0001"
  thing_id: "thing-abc"
broker:
  host: "file-host"
`
	t.Setenv("CLOUDLINK_BROKER_HOST", "env-host")
	t.Setenv("CLOUDLINK_AUTH_PASSWORD", "secret")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Broker.Host != "env-host" {
		t.Errorf("Broker.Host = %q, want env override %q", cfg.Broker.Host, "env-host")
	}
	if cfg.Auth.Password != "secret" {
		t.Errorf("Auth.Password = %q, want %q", cfg.Auth.Password, "secret")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing device id",
			mutate:  func(c *Config) { c.Device.ID = "" },
			wantErr: "device.id",
		},
		{
			name:    "missing thing id",
			mutate:  func(c *Config) { c.Device.ThingID = "" },
			wantErr: "device.thing_id",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Broker.Port = 0 },
			wantErr: "broker.port",
		},
		{
			name:    "bad request interval",
			mutate:  func(c *Config) { c.Shadow.RequestInterval = 0 },
			wantErr: "shadow.request_interval",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Shadow.MaxRetries = -1 },
			wantErr: "shadow.max_retries",
		},
		{
			name: "telemetry without token",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.URL = "http://localhost:8086"
			},
			wantErr: "telemetry.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Device.ID = "device-0001"
			cfg.Device.ThingID = "thing-abc"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := defaultConfig()
	cfg.Device.ID = "device-0001"
	cfg.Device.ThingID = "thing-abc"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}
