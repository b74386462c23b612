// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlgrid

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// migrationStep is one embedded script. The init script is step 0; every
// other step is named YYYYMMDDHHMMSS_comment.sql and its id is the
// timestamp.
type migrationStep struct {
	ID      int
	Comment string
	Path    string
	fsys    fs.FS
	file    string
}

var reMigrationFile = regexp.MustCompile(`^(\d{14})_(.+)\.sql$`)

var initStep = migrationStep{Comment: "init", Path: "schema.sql", fsys: schemaFS, file: "schema.sql"}

// migrator brings a preferences database up to date. All steps of one run
// share a timestamp.
type migrator struct {
	db         *sql.DB
	logger     *slog.Logger
	appVersion string
	now        int64
}

// migrate initializes the store if needed, applies pending steps and
// records the running application version.
func migrate(ctx context.Context, db *sql.DB, cfg StoreConfig) error {
	m := &migrator{db: db, logger: cfg.Logger, appVersion: cfg.AppVersion, now: time.Now().UTC().Unix()}

	version, err := fetchSchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if version == nil {
		m.logger.Debug("initializing store schema")
		if err := m.apply(ctx, initStep); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	pending, err := pendingSteps(ctx, db, m.logger)
	if err != nil {
		return err
	}
	for _, s := range pending {
		m.logger.Debug("applying migration", "path", s.Path)
		if err := m.apply(ctx, s); err != nil {
			return fmt.Errorf("apply %s: %w", s.Path, err)
		}
	}

	return m.stampAppVersion(ctx)
}

// apply runs one step and records it in a single transaction. Step 0 also
// stamps the creation time; later steps advance schema.version.
func (m *migrator) apply(ctx context.Context, s migrationStep) error {
	script, err := fs.ReadFile(s.fsys, s.file)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (id, comment, path, applied_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Comment, s.Path, m.now, m.now, m.now)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	key, value := "schema.version", strconv.Itoa(s.ID)
	if s.ID == 0 {
		key, value = "db.created_at", strconv.FormatInt(m.now, 10)
	}
	if err := setConfig(ctx, tx, key, value, m.now); err != nil {
		return err
	}
	return tx.Commit()
}

// stampAppVersion records the application version that last opened the
// store. An empty version leaves the record alone.
func (m *migrator) stampAppVersion(ctx context.Context) error {
	if m.appVersion == "" {
		return nil
	}
	var prev string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = 'app.version'`).Scan(&prev)
	if err != nil {
		return fmt.Errorf("fetch app.version: %w", err)
	}
	if prev == m.appVersion {
		return nil
	}
	if prev != "" {
		m.logger.Info("store opened by new version", "from", prev, "to", m.appVersion)
	}
	return setConfig(ctx, m.db, "app.version", m.appVersion, m.now)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setConfig(ctx context.Context, db execer, key, value string, now int64) error {
	res, err := db.ExecContext(ctx, `UPDATE config SET value = ?, updated_at = ? WHERE key = ?`, value, now, key)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return fmt.Errorf("set %s: updated %d rows, expected 1", key, n)
	}
	return nil
}

// pendingSteps returns the embedded steps that have not been applied, in
// path order.
func pendingSteps(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]migrationStep, error) {
	steps, err := embeddedSteps(logger)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	applied, err := fetchAppliedMigrations(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("fetch applied: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, a := range applied {
		done[a.Path] = true
	}
	var pending []migrationStep
	for _, s := range steps {
		if !done[s.Path] {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

// embeddedSteps lists the migration scripts compiled into the binary.
func embeddedSteps(logger *slog.Logger) ([]migrationStep, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	var steps []migrationStep
	seen := make(map[int]string)
	for _, e := range entries {
		name := e.Name()
		match := reMigrationFile.FindStringSubmatch(name)
		if e.IsDir() || match == nil {
			logger.Debug("skipping non-migration file", "name", name)
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("invalid migration id in %q: %w", name, err)
		}
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("duplicate migration id %d: %q and %q", id, prev, name)
		}
		seen[id] = name
		steps = append(steps, migrationStep{ID: id, Comment: match[2], Path: name, fsys: migrationsFS, file: "migrations/" + name})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].Path < steps[j].Path })
	return steps, nil
}
