// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"context"
	"errors"
	"fmt"
)

// RowState is the lifecycle state of a row.
type RowState int

const (
	Unmodified RowState = iota
	Edited
	New
	NewEdited
	MarkedDeleted
)

func (s RowState) String() string {
	switch s {
	case Unmodified:
		return "unmodified"
	case Edited:
		return "edited"
	case New:
		return "new"
	case NewEdited:
		return "new-edited"
	case MarkedDeleted:
		return "marked-deleted"
	}
	return fmt.Sprintf("RowState(%d)", int(s))
}

// Writer executes an ordered batch of statements inside one transaction.
// It returns the rowid assigned to each INSERT, in batch order. If any
// statement fails nothing is applied and the error is a *WriteError.
type Writer interface {
	ExecWrite(ctx context.Context, stmts []Statement) ([]int64, error)
}

// RowManager tracks provisional rows and delete marks, and turns the pending
// state into statements on commit.
//
// A row's state is derived rather than stored: a delete mark wins, then
// provisional-ness, then whether the edit tracker holds an edit for the row.
// Unmarking a row therefore returns it to whatever state it had before.
type RowManager struct {
	model   *Model
	edits   *EditTracker
	table   string
	fresh   map[int64]bool // provisional row ids
	deleted map[int64]bool
	nextID  int64
}

// NewRowManager returns a manager for model and its edit tracker. table is
// the commit target.
func NewRowManager(model *Model, edits *EditTracker, table string) *RowManager {
	return &RowManager{
		model:   model,
		edits:   edits,
		table:   table,
		fresh:   map[int64]bool{},
		deleted: map[int64]bool{},
		nextID:  -1,
	}
}

// Pending reports whether any provisional row or delete mark exists.
func (m *RowManager) Pending() bool {
	return len(m.fresh) > 0 || len(m.deleted) > 0
}

// State returns the lifecycle state of row r.
func (m *RowManager) State(r int) (RowState, error) {
	id, err := m.model.RowIdentifier(r)
	if err != nil {
		return Unmodified, err
	}
	return m.stateOf(id), nil
}

func (m *RowManager) stateOf(id int64) RowState {
	switch {
	case m.deleted[id]:
		return MarkedDeleted
	case m.fresh[id] && m.edits.rowEdited(id):
		return NewEdited
	case m.fresh[id]:
		return New
	case m.edits.rowEdited(id):
		return Edited
	}
	return Unmodified
}

// CreateNewRow appends a provisional row. defaults may be shorter than the
// column count; missing cells are null. It returns the new row index.
func (m *RowManager) CreateNewRow(defaults []Value) (int, error) {
	n := m.model.ColumnCount()
	if len(defaults) > n {
		return 0, fmt.Errorf("%d default values for %d columns", len(defaults), n)
	}
	cells := make([]Value, n)
	for i := range cells {
		if i < len(defaults) {
			cells[i] = defaults[i].clone()
		}
	}
	id := m.nextID
	m.nextID--
	m.fresh[id] = true
	return m.model.appendRow(id, cells), nil
}

// CopyRow appends a provisional row holding the current values of row r.
// The row identifier is not copied.
func (m *RowManager) CopyRow(r int) (int, error) {
	if _, err := m.model.RowIdentifier(r); err != nil {
		return 0, err
	}
	values := make([]Value, m.model.ColumnCount())
	for c := range values {
		v, err := m.edits.Current(r, c)
		if err != nil {
			return 0, err
		}
		values[c] = v
	}
	return m.CreateNewRow(values)
}

// MarkForDeletion sets or clears the delete mark of the row with the given
// id. Marking a provisional row removes it at once, along with its edits.
func (m *RowManager) MarkForDeletion(id int64, flag bool) error {
	if _, ok := m.model.IndexOf(id); !ok {
		return fmt.Errorf("row %d: %w", id, ErrUnknownRow)
	}
	if m.fresh[id] {
		if flag {
			m.edits.dropRow(id)
			delete(m.fresh, id)
			m.model.removeRows(map[int64]bool{id: true})
		}
		return nil
	}
	if flag {
		m.deleted[id] = true
	} else {
		delete(m.deleted, id)
	}
	return nil
}

// Statements builds the statements a commit would execute: deletes, then
// updates, then inserts. It does not change any state.
//
// Provisional rows get an INSERT carrying their current values and no
// UPDATE; an UPDATE keyed on a synthetic id could never match a row.
func (m *RowManager) Statements() []Statement {
	cols := m.model.columns
	var deletes, updates, inserts []Statement
	for r, row := range m.model.rows {
		id := row.ID
		switch m.stateOf(id) {
		case MarkedDeleted:
			deletes = append(deletes, deleteStatement(m.table, r, id))
		case Edited:
			updates = append(updates, updateStatement(m.table, cols, r, id, m.edits.rowEdits(id)))
		case New, NewEdited:
			values := make([]Value, len(cols))
			for c := range cols {
				values[c], _ = m.edits.Current(r, c)
			}
			inserts = append(inserts, insertStatement(m.table, cols, r, id, values))
		}
	}
	stmts := make([]Statement, 0, len(deletes)+len(updates)+len(inserts))
	stmts = append(stmts, deletes...)
	stmts = append(stmts, updates...)
	return append(stmts, inserts...)
}

// Commit executes the pending changes in one transaction. On success the
// edits are folded into the model, deleted rows are removed, inserted rows
// take the rowid returned by w and all tracked state is cleared. On failure
// nothing changes and the error is a *CommitError when the failing
// statement is known.
//
// If w commits but returns the wrong number of row ids, the model is still
// brought in line with the committed batch, inserted rows without an id are
// dropped from the model and the error wraps ErrRowIDs.
func (m *RowManager) Commit(ctx context.Context, w Writer) error {
	stmts := m.Statements()
	if len(stmts) == 0 {
		return nil
	}
	if m.table == "" {
		return ErrNoTable
	}

	ids, err := w.ExecWrite(ctx, stmts)
	if err != nil {
		var we *WriteError
		if errors.As(err, &we) && we.Index >= 0 && we.Index < len(stmts) {
			s := stmts[we.Index]
			return &CommitError{Index: we.Index, Row: s.Row, RowID: s.RowID, Statement: s, Err: we.Err}
		}
		return fmt.Errorf("commit: %w", err)
	}

	var inserts []Statement
	for _, s := range stmts {
		if s.Kind == Insert {
			inserts = append(inserts, s)
		}
	}

	// The batch is committed at this point, so the model follows it even
	// when the writer's id list is malformed.
	for _, e := range m.edits.ListEdits() {
		m.model.setCell(e.Row, e.Column, e.New)
	}
	// Deleted rows go first: the engine may hand a deleted rowid to an
	// inserted row in the same transaction.
	m.model.removeRows(m.deleted)
	unassigned := map[int64]bool{}
	for i, s := range inserts {
		r, ok := m.model.IndexOf(s.RowID)
		if !ok {
			continue
		}
		if i < len(ids) {
			m.model.setRowID(r, ids[i])
		} else {
			unassigned[s.RowID] = true
		}
	}
	// rows whose rowid is unknown cannot be edited again
	m.model.removeRows(unassigned)
	m.reset()

	if len(ids) != len(inserts) {
		return fmt.Errorf("%w: %d row ids for %d inserts", ErrRowIDs, len(ids), len(inserts))
	}
	return nil
}

// CancelAll removes every provisional row and clears every delete mark and
// edit without executing anything.
func (m *RowManager) CancelAll() {
	m.edits.reset()
	m.model.removeRows(m.fresh)
	m.reset()
}

func (m *RowManager) reset() {
	m.edits.reset()
	m.fresh = map[int64]bool{}
	m.deleted = map[int64]bool{}
}
