// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlgrid_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mdhender/sqlgrid"
	"github.com/mdhender/sqlgrid/grid"
)

// openItems returns a memory database holding an items table with three rows.
func openItems(t *testing.T) *sqlgrid.Database {
	t.Helper()
	ctx := context.Background()

	db, err := sqlgrid.Connect(ctx, sqlgrid.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.DB().ExecContext(ctx, `
		CREATE TABLE items (name TEXT NOT NULL UNIQUE, qty INTEGER, price REAL, img BLOB);
		INSERT INTO items (name, qty, price, img) VALUES
			('apple', 3, 0.5, NULL),
			('pear', 7, 1.25, x'0102'),
			('plum', NULL, 2.0, NULL);
	`)
	if err != nil {
		t.Fatalf("create items: %v", err)
	}
	return db
}

func count(t *testing.T, db *sqlgrid.Database, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.DB().QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// TestConnect_MissingFile tests that Connect refuses to invent a database.
func TestConnect_MissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "missing.db")

	if _, err := sqlgrid.Connect(ctx, sqlgrid.DatabaseConfig{Path: path}); err == nil {
		t.Fatal("Connect should fail for a missing file")
	}

	db, err := sqlgrid.Connect(ctx, sqlgrid.DatabaseConfig{Path: path, Create: true})
	if err != nil {
		t.Fatalf("Connect with Create failed: %v", err)
	}
	db.Close()
}

// TestDatabase_QueryTypes tests that values keep their storage class.
func TestDatabase_QueryTypes(t *testing.T) {
	db := openItems(t)

	rs, err := db.Query(context.Background(), grid.TableQuery("items")+" ORDER BY rowid")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rs.Columns) != 5 || rs.Columns[0] != grid.RowIDColumn {
		t.Fatalf("unexpected columns %v", rs.Columns)
	}
	if len(rs.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rs.Rows))
	}

	pear := rs.Rows[1]
	if !pear[0].Equal(grid.IntValue(2)) {
		t.Errorf("rowid: got %+v", pear[0])
	}
	if !pear[1].Equal(grid.TextValue("pear")) {
		t.Errorf("name: got %+v", pear[1])
	}
	if !pear[2].Equal(grid.IntValue(7)) {
		t.Errorf("qty: got %+v", pear[2])
	}
	if !pear[3].Equal(grid.RealValue(1.25)) {
		t.Errorf("price: got %+v", pear[3])
	}
	if !pear[4].Equal(grid.BlobValue([]byte{1, 2})) {
		t.Errorf("img: got %+v", pear[4])
	}
	if !rs.Rows[2][2].IsNull() {
		t.Errorf("plum qty should be null, got %+v", rs.Rows[2][2])
	}
}

// TestDatabase_QueryError tests that engine errors carry the result code.
func TestDatabase_QueryError(t *testing.T) {
	db := openItems(t)

	_, err := db.Query(context.Background(), "SELECT * FROM nope")
	var qe *grid.QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *grid.QueryError, got %v", err)
	}
	if qe.Code != 1 {
		t.Errorf("expected SQLITE_ERROR (1), got %d", qe.Code)
	}
	if qe.SQL != "SELECT * FROM nope" {
		t.Errorf("unexpected SQL %q", qe.SQL)
	}
}

// TestDatabase_ExecWriteRollsBack tests that a failing statement undoes the batch.
func TestDatabase_ExecWriteRollsBack(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	_, err := db.ExecWrite(ctx, []grid.Statement{
		{Kind: grid.Delete, SQL: "DELETE FROM items WHERE rowid = ?", Args: []any{int64(1)}},
		{Kind: grid.Insert, SQL: "INSERT INTO items (name) VALUES (?)", Args: []any{"pear"}},
	})
	var we *grid.WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected *grid.WriteError, got %v", err)
	}
	if we.Index != 1 {
		t.Errorf("expected failing index 1, got %d", we.Index)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM items"); n != 3 {
		t.Errorf("expected rollback to keep 3 rows, got %d", n)
	}
}

// TestDatabase_ExecWriteMissingRow tests that an update of a vanished row fails.
func TestDatabase_ExecWriteMissingRow(t *testing.T) {
	db := openItems(t)

	_, err := db.ExecWrite(context.Background(), []grid.Statement{
		{Kind: grid.Update, SQL: "UPDATE items SET qty = ? WHERE rowid = ?", Args: []any{int64(1), int64(99)}},
	})
	var we *grid.WriteError
	if !errors.As(err, &we) || we.Index != 0 {
		t.Fatalf("expected *grid.WriteError at 0, got %v", err)
	}
}

// TestAdapter_SaveRoundTrip edits, inserts and deletes through the grid and
// checks the table afterwards.
func TestAdapter_SaveRoundTrip(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	a, err := grid.NewAdapter(grid.Config{Executor: db})
	if err != nil {
		t.Fatalf("grid.NewAdapter failed: %v", err)
	}
	if err := a.LoadTable(ctx, "items"); err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if a.RowCount() != 3 || a.ColumnCount() != 4 {
		t.Fatalf("unexpected shape %dx%d", a.RowCount(), a.ColumnCount())
	}

	// apple qty 3 -> 4
	if err := a.SetCellText(0, 1, "4"); err != nil {
		t.Fatalf("SetCellText failed: %v", err)
	}
	// delete pear
	if err := a.MarkForDeletion(1, true); err != nil {
		t.Fatalf("MarkForDeletion failed: %v", err)
	}
	// add a copy of plum under a new name
	r, err := a.CopyRow(2)
	if err != nil {
		t.Fatalf("CopyRow failed: %v", err)
	}
	if err := a.SetCellText(r, 0, "quince"); err != nil {
		t.Fatalf("SetCellText failed: %v", err)
	}

	if err := a.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if a.IsDirty() {
		t.Error("adapter should be clean after save")
	}

	if n := count(t, db, "SELECT qty FROM items WHERE name = 'apple'"); n != 4 {
		t.Errorf("expected apple qty 4, got %d", n)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM items WHERE name = 'pear'"); n != 0 {
		t.Errorf("pear should be deleted")
	}
	if n := count(t, db, "SELECT COUNT(*) FROM items WHERE name = 'quince' AND qty IS NULL AND price = 2.0"); n != 1 {
		t.Errorf("quince should be inserted with plum's values")
	}

	// the inserted row carries the rowid the database assigned
	r = a.RowCount() - 1
	v, _ := a.Value(r, 0)
	if !v.Equal(grid.TextValue("quince")) {
		t.Fatalf("last row should be quince, got %+v", v)
	}
	s, _ := a.RowState(r)
	if s != grid.Unmodified {
		t.Errorf("expected unmodified, got %s", s)
	}
	if err := a.SetCellText(r, 1, "9"); err != nil {
		t.Fatalf("SetCellText failed: %v", err)
	}
	if err := a.Save(ctx); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if n := count(t, db, "SELECT qty FROM items WHERE name = 'quince'"); n != 9 {
		t.Errorf("update through the new rowid should land, got qty %d", n)
	}
}

// TestAdapter_SaveDeleteLastAndInsert tests a save that deletes the row
// with the highest rowid and inserts a row that may reuse that rowid.
func TestAdapter_SaveDeleteLastAndInsert(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	a, err := grid.NewAdapter(grid.Config{Executor: db})
	if err != nil {
		t.Fatalf("grid.NewAdapter failed: %v", err)
	}
	if err := a.LoadTable(ctx, "items"); err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if err := a.MarkForDeletion(2, true); err != nil {
		t.Fatalf("MarkForDeletion failed: %v", err)
	}
	r, err := a.NewRow(nil)
	if err != nil {
		t.Fatalf("NewRow failed: %v", err)
	}
	if err := a.SetCellText(r, 0, "kiwi"); err != nil {
		t.Fatalf("SetCellText failed: %v", err)
	}
	if err := a.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if n := count(t, db, "SELECT COUNT(*) FROM items"); n != 3 {
		t.Fatalf("expected 3 rows in the table, got %d", n)
	}
	if a.RowCount() != 3 {
		t.Fatalf("expected 3 rows in the grid, got %d", a.RowCount())
	}
	if got := a.CellText(2, 0); got != "kiwi" {
		t.Fatalf("expected kiwi as the last row, got %q", got)
	}
	id, err := a.RowID(2)
	if err != nil {
		t.Fatalf("RowID failed: %v", err)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM items WHERE rowid = ? AND name = 'kiwi'", id); n != 1 {
		t.Errorf("grid rowid %d does not address kiwi", id)
	}
}

// TestAdapter_SaveConflictIsAtomic tests that a constraint failure applies nothing.
func TestAdapter_SaveConflictIsAtomic(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	a, err := grid.NewAdapter(grid.Config{Executor: db})
	if err != nil {
		t.Fatalf("grid.NewAdapter failed: %v", err)
	}
	if err := a.LoadTable(ctx, "items"); err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	if err := a.MarkForDeletion(2, true); err != nil {
		t.Fatalf("MarkForDeletion failed: %v", err)
	}
	if err := a.SetCellText(0, 0, "pear"); err != nil { // violates UNIQUE(name)
		t.Fatalf("SetCellText failed: %v", err)
	}

	err = a.Save(ctx)
	var ce *grid.CommitError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *grid.CommitError, got %v", err)
	}
	if ce.Index != 1 || ce.Row != 0 || ce.Statement.Kind != grid.Update {
		t.Errorf("unexpected failure location %+v", ce)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM items"); n != 3 {
		t.Errorf("delete should have been rolled back, got %d rows", n)
	}
	if !a.IsDirty() || len(a.Edits()) != 1 {
		t.Error("pending state should survive a failed save")
	}
	if s, _ := a.RowState(2); s != grid.MarkedDeleted {
		t.Errorf("expected row 2 still marked, got %s", s)
	}
}

// TestAdapter_FilteredSubset runs a filter chain against SQLite.
func TestAdapter_FilteredSubset(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	a, err := grid.NewAdapter(grid.Config{Executor: db, Table: "items"})
	if err != nil {
		t.Fatalf("grid.NewAdapter failed: %v", err)
	}
	f := a.Filter()
	if err := f.AddCondition(grid.None, "name", grid.Like, "p"); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCondition(grid.And, "price", grid.Gt, "1.5"); err != nil {
		t.Fatal(err)
	}

	if err := a.LoadFilteredSubset(ctx, grid.TableQuery("items")); err != nil {
		t.Fatalf("LoadFilteredSubset failed: %v", err)
	}
	if a.RowCount() != 1 || a.CellText(0, 0) != "plum" {
		t.Fatalf("expected only plum, got %d rows", a.RowCount())
	}
	if !a.Editable() {
		t.Error("filtered table rows should stay editable")
	}
}

// TestAdapter_LoadTableWithoutRowID tests that views and WITHOUT ROWID
// tables load read-only.
func TestAdapter_LoadTableWithoutRowID(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	_, err := db.DB().ExecContext(ctx, `
		CREATE VIEW cheap AS SELECT name, price FROM items WHERE price < 2.0;
		CREATE TABLE tags (tag TEXT PRIMARY KEY, note TEXT) WITHOUT ROWID;
		INSERT INTO tags (tag, note) VALUES ('red', 'warm'), ('blue', 'cold');
	`)
	if err != nil {
		t.Fatalf("create sources: %v", err)
	}

	a, err := grid.NewAdapter(grid.Config{Executor: db})
	if err != nil {
		t.Fatalf("grid.NewAdapter failed: %v", err)
	}

	for _, tc := range []struct {
		table string
		rows  int
	}{
		{"cheap", 2},
		{"tags", 2},
	} {
		if err := a.LoadTable(ctx, tc.table); err != nil {
			t.Fatalf("LoadTable(%s) failed: %v", tc.table, err)
		}
		if a.RowCount() != tc.rows || a.ColumnCount() != 2 {
			t.Errorf("%s: unexpected shape %dx%d", tc.table, a.RowCount(), a.ColumnCount())
		}
		if a.Editable() {
			t.Errorf("%s: should be read-only", tc.table)
		}
		if err := a.SetCellText(0, 0, "x"); !errors.Is(err, grid.ErrReadOnly) {
			t.Errorf("%s: expected ErrReadOnly, got %v", tc.table, err)
		}
	}

	if err := a.LoadTable(ctx, "nope"); err == nil {
		t.Error("LoadTable should fail for a missing table")
	}
}
