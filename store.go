// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlgrid

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

//go:embed schema.sql
var schemaFS embed.FS

//go:embed migrations/*.sql
var migrationsFS embed.FS

// StoreConfig holds preferences database options.
type StoreConfig struct {
	// Path to the preferences file. Use ":memory:" for a throwaway store.
	// Persistent paths must be absolute and have a .db extension; the
	// parent directory is created if missing.
	Path string

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger

	// MigrationTimeout bounds migration execution time. Default: 90s.
	MigrationTimeout time.Duration

	// AppVersion is recorded in the config table each time the store is
	// opened by a different version. Leave empty to keep the record.
	AppVersion string
}

// defaults returns a copy of cfg with default values applied.
func (cfg StoreConfig) defaults() StoreConfig {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MigrationTimeout == 0 {
		cfg.MigrationTimeout = 90 * time.Second
	}
	return cfg
}

// isMemory returns true if Path indicates an in-memory database.
func (cfg StoreConfig) isMemory() bool {
	return isMemoryPath(cfg.Path)
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// MigrationStatus describes the current schema state of a store.
type MigrationStatus struct {
	SchemaVersion int
	Applied       []AppliedMigration
	Pending       []string

	// AppVersion is the version of the application that last opened the
	// store; CreatedAt is when the store was initialized.
	AppVersion string
	CreatedAt  time.Time
}

// AppliedMigration describes a migration that has been applied.
type AppliedMigration struct {
	ID        int
	Comment   string
	Path      string
	AppliedAt time.Time
}

// Store is the key/value preferences store of the client: filter and row
// limit choices and the like. It satisfies grid.Settings.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenStore opens the preferences database, creating it if needed, and
// applies any pending migrations.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	cfg = cfg.defaults()

	if cfg.isMemory() {
		cfg.Logger.Info("store mode: in-memory")
	} else {
		if err := validatePersistentPath(cfg.Path); err != nil {
			return nil, err
		}
		if !fileExists(cfg.Path) {
			cfg.Logger.Info("creating store", "path", cfg.Path)
		}
		cfg.Logger.Info("store mode: persistent", "path", cfg.Path)
	}

	db, err := openAndMigrate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: cfg.Logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or "" if the key is unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("set: empty key")
	}
	ts := time.Now().UTC().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, ts)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	s.logger.Debug("setting stored", "key", key)
	return nil
}

// Unset removes key. Removing an unset key is not an error.
func (s *Store) Unset(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("unset %q: %w", key, err)
	}
	return nil
}

// All returns every stored setting.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		all[k] = v
	}
	return all, rows.Err()
}

// Status returns the migration status of the store.
func (s *Store) Status(ctx context.Context) (*MigrationStatus, error) {
	version, err := fetchSchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	status := &MigrationStatus{SchemaVersion: *version}
	status.Applied, err = fetchAppliedMigrations(ctx, s.db)
	if err != nil {
		return nil, err
	}

	pending, err := pendingSteps(ctx, s.db, s.logger)
	if err != nil {
		return nil, err
	}
	for _, p := range pending {
		status.Pending = append(status.Pending, p.Path)
	}

	var created string
	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT value FROM config WHERE key = 'app.version'),
		(SELECT value FROM config WHERE key = 'db.created_at')`).Scan(&status.AppVersion, &created)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	if ts, err := strconv.ParseInt(created, 10, 64); err == nil {
		status.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return status, nil
}

// openAndMigrate opens the store database and runs migrations.
func openAndMigrate(ctx context.Context, cfg StoreConfig) (*sql.DB, error) {
	if !cfg.isMemory() {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	dsn := buildDSN(cfg.Path, storePragmas)
	cfg.Logger.Debug("opening database", "dsn", dsn)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// Ensure cleanup on error
	success := false
	defer func() {
		if !success {
			db.Close()
		}
	}()

	// SQLite works best with limited connections; a memory database also
	// lives only as long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	migCtx, cancel := context.WithTimeout(ctx, cfg.MigrationTimeout)
	defer cancel()

	if err := migrate(migCtx, db, cfg); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	success = true
	return db, nil
}

// validatePersistentPath checks that a path is valid for a persistent database.
func validatePersistentPath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s: persistent database path must be absolute", path)
	}
	if filepath.Ext(path) != ".db" {
		return fmt.Errorf("%s: expected .db extension", path)
	}
	if isDirectory(path) {
		return fmt.Errorf("%s: path is a directory", path)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() || info.IsDir()
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// fetchSchemaVersion returns the schema version from the config table.
// Returns nil if the table doesn't exist (uninitialized database).
func fetchSchemaVersion(ctx context.Context, db *sql.DB) (*int, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = 'schema.version'`).Scan(&value)
	if err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch schema.version: %w", err)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid schema.version %q: %w", value, err)
	}
	return &v, nil
}

// fetchAppliedMigrations returns all applied migrations in order.
func fetchAppliedMigrations(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, comment, path, applied_at FROM schema_migrations ORDER BY path`)
	if err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var result []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		var appliedAt int64
		if err := rows.Scan(&m.ID, &m.Comment, &m.Path, &appliedAt); err != nil {
			return nil, err
		}
		m.AppliedAt = time.Unix(appliedAt, 0).UTC()
		result = append(result, m)
	}
	return result, rows.Err()
}

// isNoSuchTable checks if an error indicates a missing table.
func isNoSuchTable(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "no such table")
}
