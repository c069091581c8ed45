// Cloudlink - embedded cloud session daemon
//
// Cloudlink keeps an embedded device's state synchronized with its
// cloud thing over MQTT. It owns the full connection lifecycle (network
// link, broker, subscriptions, shadow handshake) and drives property
// synchronization from a single cooperative tick loop.
//
// This binary is the reference host: it registers a small set of
// device properties, wires the optional journal, telemetry and OTA
// integrations, and ticks the session until shutdown.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vireolabs/cloudlink/internal/infrastructure/config"
	"github.com/vireolabs/cloudlink/internal/infrastructure/logging"
	"github.com/vireolabs/cloudlink/internal/infrastructure/mqtt"
	"github.com/vireolabs/cloudlink/internal/infrastructure/telemetry"
	"github.com/vireolabs/cloudlink/internal/journal"
	"github.com/vireolabs/cloudlink/internal/netmon"
	"github.com/vireolabs/cloudlink/internal/ota"
	"github.com/vireolabs/cloudlink/internal/property"
	"github.com/vireolabs/cloudlink/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting cloudlink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Property container with the reference host's device properties.
	container := property.NewContainer()
	status, err := container.Add("status", "booting")
	if err != nil {
		return fmt.Errorf("registering status property: %w", err)
	}
	uptime, err := container.Add("uptime_s", int64(0))
	if err != nil {
		return fmt.Errorf("registering uptime property: %w", err)
	}
	if _, err := container.Add("fw_version", version); err != nil {
		return fmt.Errorf("registering firmware property: %w", err)
	}

	// Open the property journal and restore the last reported state
	// before the session starts.
	var store *journal.Journal
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := store.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()

		snap, loadErr := store.Load()
		if loadErr != nil {
			return fmt.Errorf("loading journal: %w", loadErr)
		}
		container.Restore(snap)
		log.Info("journal restored", "path", store.Path(), "properties", len(snap))
	} else {
		log.Info("journal disabled")
	}

	transport := mqtt.New(cfg)
	transport.SetLogger(log)

	sess, err := session.New(session.Config{
		DeviceID:        cfg.Device.ID,
		ThingID:         cfg.Device.ThingID,
		TopicRoot:       cfg.Device.TopicRoot,
		ShadowEnabled:   cfg.Shadow.Enabled,
		RequestInterval: cfg.GetRequestInterval(),
		MaxSyncRetries:  cfg.Shadow.MaxRetries,
		MaxMessageSize:  cfg.Session.MaxMessageSize,
		OTAEnabled:      cfg.OTA.Enabled,
		OTACapable:      cfg.OTA.Capable,
		FirmwareSHA256:  firmwareSHA256(log),
	}, transport, container)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	sess.SetLogger(log)
	sess.SetLinkMonitor(netmon.New(""))
	sess.OnEvent(func(e session.Event) {
		log.Info("session event", "event", e.String())
	})

	if store != nil {
		sess.SetStore(store)
	}

	if cfg.OTA.Enabled {
		sess.SetDownloader(ota.NewHTTPDownloader(cfg.OTA.DownloadDir))
		log.Info("ota enabled", "download_dir", cfg.OTA.DownloadDir)
	}

	// Connect telemetry (optional)
	rec, err := telemetry.Connect(cfg.Telemetry, cfg.Device.ID)
	switch {
	case errors.Is(err, telemetry.ErrDisabled):
		log.Info("telemetry disabled")
	case err != nil:
		return fmt.Errorf("connecting telemetry: %w", err)
	default:
		defer func() {
			log.Info("closing telemetry")
			if closeErr := rec.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		rec.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		sess.SetRecorder(rec)
		log.Info("telemetry connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	}

	sess.Begin(ctx)
	if err := status.Set("running"); err != nil {
		return fmt.Errorf("setting status property: %w", err)
	}

	log.Info("initialisation complete, entering tick loop",
		"tick_interval", cfg.GetTickInterval(),
	)

	started := time.Now()
	ticker := time.NewTicker(cfg.GetTickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			sess.Close()
			log.Info("cloudlink stopped")
			return nil

		case <-ticker.C:
			if secs := int64(time.Since(started).Seconds()); secs != uptime.Int() {
				if err := uptime.Set(secs); err != nil {
					log.Warn("updating uptime property", "error", err)
				}
			}
			sess.Tick()
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses CLOUDLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CLOUDLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// firmwareSHA256 hashes the running executable, reported to the cloud
// as OTA_SHA256. An unreadable binary yields an empty hash rather than
// a startup failure.
func firmwareSHA256(log *logging.Logger) string {
	path, err := os.Executable()
	if err != nil {
		log.Warn("resolving executable path", "error", err)
		return ""
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn("opening executable for hashing", "error", err)
		return ""
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		log.Warn("hashing executable", "error", err)
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
