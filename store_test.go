// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlgrid_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdhender/sqlgrid"
)

// TestOpenStore_Memory tests opening an in-memory store.
func TestOpenStore_Memory(t *testing.T) {
	ctx := context.Background()

	s, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer s.Close()

	status, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.SchemaVersion != 20260301090000 {
		t.Errorf("expected schema version 20260301090000, got %d", status.SchemaVersion)
	}
	// init + settings migration
	if len(status.Applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(status.Applied))
	}
	if len(status.Pending) != 0 {
		t.Errorf("expected no pending migrations, got %v", status.Pending)
	}
}

// TestStore_GetSet tests the settings round trip.
func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()

	s, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer s.Close()

	v, err := s.Get(ctx, "grid.row_limit")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "" {
		t.Errorf("expected unset key to be empty, got %q", v)
	}

	if err := s.Set(ctx, "grid.row_limit", "500"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "grid.row_limit", "1000"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}
	v, _ = s.Get(ctx, "grid.row_limit")
	if v != "1000" {
		t.Errorf("expected 1000, got %q", v)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 || all["grid.row_limit"] != "1000" {
		t.Errorf("unexpected settings %v", all)
	}

	if err := s.Unset(ctx, "grid.row_limit"); err != nil {
		t.Fatalf("Unset failed: %v", err)
	}
	v, _ = s.Get(ctx, "grid.row_limit")
	if v != "" {
		t.Errorf("expected unset key after Unset, got %q", v)
	}

	if err := s.Set(ctx, "", "x"); err == nil {
		t.Error("Set should reject an empty key")
	}
}

// TestOpenStore_Persistent tests that settings survive reopening.
func TestOpenStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "prefs.db")

	s, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: path, AppVersion: "0.3.0-test"})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	if err := s.Set(ctx, "filter.last", "qty > 3"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("store file should exist")
	}

	s, err = sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	v, _ := s.Get(ctx, "filter.last")
	if v != "qty > 3" {
		t.Errorf("expected setting to persist, got %q", v)
	}
	status, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Applied) != 2 {
		t.Errorf("migrations should not be applied twice, got %d", len(status.Applied))
	}
}

// TestOpenStore_RelativePath tests that relative paths are rejected.
func TestOpenStore_RelativePath(t *testing.T) {
	ctx := context.Background()

	_, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: "relative/prefs.db"})
	if err == nil {
		t.Fatal("OpenStore should reject relative paths")
	}
}

// TestOpenStore_NoExtension tests that paths without .db are rejected.
func TestOpenStore_NoExtension(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs")

	_, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: path})
	if err == nil {
		t.Fatal("OpenStore should reject paths without .db extension")
	}
}

// TestOpenStore_Timeout tests migration timeout behavior.
func TestOpenStore_Timeout(t *testing.T) {
	ctx := context.Background()

	_, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{
		Path:             ":memory:",
		MigrationTimeout: 1,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

// TestOpenStore_AppVersion tests that each open records the running version.
func TestOpenStore_AppVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: path, AppVersion: "0.3.0"})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	status, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.AppVersion != "0.3.0" {
		t.Errorf("expected app version 0.3.0, got %q", status.AppVersion)
	}
	if status.CreatedAt.IsZero() {
		t.Error("expected creation time to be recorded")
	}
	created := status.CreatedAt
	s.Close()

	// an empty version keeps the record
	s, err = sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	status, _ = s.Status(ctx)
	if status.AppVersion != "0.3.0" {
		t.Errorf("expected app version to be kept, got %q", status.AppVersion)
	}
	s.Close()

	s, err = sqlgrid.OpenStore(ctx, sqlgrid.StoreConfig{Path: path, AppVersion: "0.4.0"})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	status, err = s.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.AppVersion != "0.4.0" {
		t.Errorf("expected app version 0.4.0, got %q", status.AppVersion)
	}
	if !status.CreatedAt.Equal(created) {
		t.Errorf("creation time changed from %v to %v", created, status.CreatedAt)
	}
	if len(status.Applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(status.Applied))
	}
}
