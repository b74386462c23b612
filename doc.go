// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package sqlgrid connects the grid editing engine to SQLite.
//
// A Database wraps a user's database file and runs the queries and write
// batches an editing grid needs; it satisfies grid.Executor. A Store is the
// client's own preferences database and satisfies grid.Settings.
//
// # Basic Usage
//
//	db, err := sqlgrid.Connect(ctx, sqlgrid.DatabaseConfig{Path: "/data/shop.db"})
//	prefs, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: "/home/me/.config/sqlgrid/prefs.db"})
//	a, err := grid.NewAdapter(grid.Config{Executor: db, Settings: prefs})
//	err = a.LoadTable(ctx, "orders")
//	err = a.SetCellText(0, 2, "shipped")
//	err = a.Save(ctx)
//
// # Driver Support
//
// This package supports two SQLite drivers via build tags:
//   - modernc.org/sqlite (default, pure Go, no CGO)
//   - github.com/mattn/go-sqlite3 (CGO, use -tags mattn)
//
// The driver is imported by this package; applications need not import it.
//
// # Errors
//
// Failed queries are returned as *grid.QueryError carrying the SQLite result
// code and message. A failed write batch is rolled back as a whole and
// returned as *grid.WriteError naming the failing statement.
//
// # Preferences
//
// The store applies its embedded migrations on open. Migration files are
// named YYYYMMDDHHMMSS_comment.sql and are applied in lexicographic order,
// each in its own transaction, after the package's init script has created
// the schema_migrations and config tables.
package sqlgrid
