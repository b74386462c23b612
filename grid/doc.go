// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package grid implements the edit and commit engine behind a result grid.
//
// An Adapter holds one loaded result set in a Model and hands cell text to
// a virtualized grid control on demand. Edits are tracked per cell by an
// EditTracker without touching the Model; provisional rows and delete marks
// are tracked by a RowManager. Save turns the accumulated changes into
// DELETE, UPDATE and INSERT statements keyed on rowid and executes them in
// a single transaction; either all of them apply or the pending state is
// left exactly as it was.
//
// # Row identifiers
//
// A result is editable only when its first column is RowIDColumn, which
// carries the rowid of each row, and the Adapter knows the target table:
//
//	a, _ := grid.NewAdapter(grid.Config{Executor: db})
//	err := a.LoadTable(ctx, "users") // SELECT rowid AS "__sqlgrid_rowid__", * FROM users
//
// Results without row identifiers are read-only.
//
// # Filters
//
// A Filter is a flat chain of conditions joined left to right by AND or OR,
// with no parentheses:
//
//	f := a.Filter()
//	f.AddCondition(grid.None, "a", grid.Eq, "1")
//	f.AddCondition(grid.Or, "b", grid.Eq, "2")
//	f.Render() // a = '1' OR b = '2'
package grid
