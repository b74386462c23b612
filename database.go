// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlgrid

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mdhender/sqlgrid/grid"
)

// DatabaseConfig holds options for opening a database to browse and edit.
type DatabaseConfig struct {
	// Path to the database file, or ":memory:".
	// The file must already exist unless Create is set.
	Path string

	// Create allows opening a path that does not exist yet.
	Create bool

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger
}

// defaults returns a copy of cfg with default values applied.
func (cfg DatabaseConfig) defaults() DatabaseConfig {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Database runs queries and write batches against one SQLite database.
// It satisfies grid.Executor.
type Database struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens the database at cfg.Path.
func Connect(ctx context.Context, cfg DatabaseConfig) (*Database, error) {
	cfg = cfg.defaults()

	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if !isMemoryPath(cfg.Path) && !cfg.Create && !fileExists(cfg.Path) {
		return nil, fmt.Errorf("%s: database file not found", cfg.Path)
	}
	if isDirectory(cfg.Path) {
		return nil, fmt.Errorf("%s: path is a directory", cfg.Path)
	}

	dsn := buildDSN(cfg.Path, clientPragmas)
	cfg.Logger.Debug("opening database", "dsn", dsn)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	cfg.Logger.Info("database opened", "path", cfg.Path)
	return &Database{db: db, logger: cfg.Logger}, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying handle, for schema work outside the grid.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Query runs query and reads the whole result into memory.
func (d *Database) Query(ctx context.Context, query string) (*grid.ResultSet, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError(query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, queryError(query, err)
	}

	rs := &grid.ResultSet{Columns: columns}
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, queryError(query, err)
		}
		row := make([]grid.Value, len(columns))
		for i, v := range raw {
			row[i] = grid.FromDriver(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(query, err)
	}

	d.logger.Debug("query done", "rows", len(rs.Rows), "columns", len(columns))
	return rs, nil
}

// ExecWrite executes stmts in order inside one transaction and returns the
// rowid of each INSERT. If any statement fails the transaction is rolled
// back and the error is a *grid.WriteError with the statement's index.
func (d *Database) ExecWrite(ctx context.Context, stmts []grid.Statement) ([]int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var ids []int64
	for i, s := range stmts {
		res, err := tx.ExecContext(ctx, s.SQL, s.Args...)
		if err != nil {
			d.logger.Debug("statement failed", "index", i, "sql", s.SQL, "err", err)
			return nil, &grid.WriteError{Index: i, Err: err}
		}
		switch s.Kind {
		case grid.Insert:
			id, err := res.LastInsertId()
			if err != nil {
				return nil, &grid.WriteError{Index: i, Err: err}
			}
			ids = append(ids, id)
		case grid.Update, grid.Delete:
			// a row that vanished underneath us is a conflict, not a no-op
			if n, err := res.RowsAffected(); err == nil && n != 1 {
				return nil, &grid.WriteError{Index: i, Err: fmt.Errorf("%s affected %d rows, expected 1", s.Kind, n)}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	d.logger.Debug("write batch committed", "statements", len(stmts), "inserts", len(ids))
	return ids, nil
}

// queryError converts a driver error into a *grid.QueryError.
func queryError(query string, err error) error {
	qe := &grid.QueryError{Message: err.Error(), SQL: query, Err: err}
	if code, ok := errorCode(err); ok {
		qe.Code = code
	}
	return qe
}
