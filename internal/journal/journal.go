package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/vireolabs/cloudlink/internal/infrastructure/config"
	"github.com/vireolabs/cloudlink/internal/property"
)

// Journal configuration constants.
const (
	// dirPermissions is the permission mode for the journal directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the journal file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// opTimeout bounds individual journal operations. The session's tick
	// loop calls Save inline; a wedged disk must not stall it forever.
	opTimeout = 5 * time.Second
)

//go:embed schema.sql
var schemaSQL string

// Journal persists property snapshots to a local SQLite database so a
// device rebooting without connectivity can restore its last reported
// state instead of falling back to registration defaults.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal database at the configured path,
// applying the schema and the busy-timeout and WAL pragmas.
func Open(cfg config.JournalConfig) (*Journal, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	// SQLite supports one writer; the session is the only writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying journal connection: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}

	// Owner read/write only; the journal may hold device state an
	// attacker could replay.
	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may not exist until first write

	return &Journal{db: db, path: cfg.Path}, nil
}

// Path returns the filesystem path to the journal file.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}

// Save writes a full property snapshot in one transaction. It replaces
// the stored value for every property present in the snapshot; stale
// rows for properties no longer registered are left behind and ignored
// by Load.
func (j *Journal) Save(snap []property.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting journal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO property_journal (name, kind, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing journal statement: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // Statement dies with the transaction

	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range snap {
		value, err := encodeValue(s)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, s.Name, int(s.Kind), value, now); err != nil {
			return fmt.Errorf("journaling property %q: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing journal transaction: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot. Rows that fail to decode are
// skipped; a corrupt row must not prevent the rest of the state from
// restoring.
func (j *Journal) Load() ([]property.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx,
		"SELECT name, kind, value FROM property_journal ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var snap []property.Snapshot
	for rows.Next() {
		var (
			name  string
			kind  int
			value string
		)
		if err := rows.Scan(&name, &kind, &value); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}

		decoded, err := decodeValue(property.Kind(kind), value)
		if err != nil {
			continue
		}
		snap = append(snap, property.Snapshot{
			Name:  name,
			Kind:  property.Kind(kind),
			Value: decoded,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return snap, nil
}

// HealthCheck verifies the journal database is accessible.
func (j *Journal) HealthCheck(ctx context.Context) error {
	var result int
	if err := j.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("journal health check failed: %w", err)
	}
	return nil
}

// encodeValue renders a snapshot value as its text column form.
func encodeValue(s property.Snapshot) (string, error) {
	switch v := s.Value.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: property %q holds %T", ErrUnsupportedValue, s.Name, s.Value)
	}
}

// decodeValue parses a text column back into the typed value for a kind.
func decodeValue(kind property.Kind, value string) (any, error) {
	switch kind {
	case property.KindBool:
		return strconv.ParseBool(value)
	case property.KindInt:
		return strconv.ParseInt(value, 10, 64)
	case property.KindFloat:
		return strconv.ParseFloat(value, 64)
	case property.KindString:
		return value, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedValue, kind)
	}
}
