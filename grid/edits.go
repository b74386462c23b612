// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"sort"
)

// Edit is a pending change to one cell. Original is the value at the last
// load or save, never an intermediate edited value.
type Edit struct {
	Row      int
	RowID    int64
	Column   int
	Original Value
	New      Value
}

type cellKey struct {
	id  int64
	col int
}

// pendingRows reports whether provisional or delete-marked rows exist.
type pendingRows interface {
	Pending() bool
}

// EditTracker records per-cell edits against a Model without modifying it.
// Entries are keyed by row id so that removing rows never shifts an edit
// onto the wrong row.
type EditTracker struct {
	model *Model
	rows  pendingRows
	edits map[cellKey]Edit
}

// NewEditTracker returns a tracker for model. rows may be nil.
func NewEditTracker(model *Model, rows pendingRows) *EditTracker {
	return &EditTracker{model: model, rows: rows, edits: map[cellKey]Edit{}}
}

// RecordEdit stores v as the pending value of cell (r, c). If v equals the
// model's value the entry is removed instead.
func (t *EditTracker) RecordEdit(r, c int, v Value) error {
	orig, err := t.model.CellValue(r, c)
	if err != nil {
		return err
	}
	id, _ := t.model.RowIdentifier(r)
	key := cellKey{id: id, col: c}
	if v.Equal(orig) {
		delete(t.edits, key)
		return nil
	}
	t.edits[key] = Edit{RowID: id, Column: c, Original: orig, New: v.clone()}
	return nil
}

// Pending returns the edited value of cell (r, c), if any.
func (t *EditTracker) Pending(r, c int) (Value, bool) {
	id, err := t.model.RowIdentifier(r)
	if err != nil {
		return Value{}, false
	}
	e, ok := t.edits[cellKey{id: id, col: c}]
	if !ok {
		return Value{}, false
	}
	return e.New.clone(), true
}

// Current returns the pending value of a cell or, failing that, the model's.
func (t *EditTracker) Current(r, c int) (Value, error) {
	if v, ok := t.Pending(r, c); ok {
		return v, nil
	}
	return t.model.CellValue(r, c)
}

// IsDirty reports whether any edit, provisional row or delete mark exists.
func (t *EditTracker) IsDirty() bool {
	if len(t.edits) > 0 {
		return true
	}
	return t.rows != nil && t.rows.Pending()
}

// Len returns the number of edited cells.
func (t *EditTracker) Len() int { return len(t.edits) }

// ListEdits returns the current edits ordered by row then column.
func (t *EditTracker) ListEdits() []Edit {
	list := make([]Edit, 0, len(t.edits))
	for _, e := range t.edits {
		r, ok := t.model.IndexOf(e.RowID)
		if !ok {
			continue
		}
		e.Row = r
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Row != list[j].Row {
			return list[i].Row < list[j].Row
		}
		return list[i].Column < list[j].Column
	})
	return list
}

// rowEdits returns the edits of a single row ordered by column.
func (t *EditTracker) rowEdits(id int64) []Edit {
	var list []Edit
	for _, e := range t.edits {
		if e.RowID == id {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Column < list[j].Column })
	return list
}

func (t *EditTracker) rowEdited(id int64) bool {
	for k := range t.edits {
		if k.id == id {
			return true
		}
	}
	return false
}

func (t *EditTracker) dropRow(id int64) {
	for k := range t.edits {
		if k.id == id {
			delete(t.edits, k)
		}
	}
}

// CancelAll discards every edit, so each cell displays its Original value
// again. It returns the reverted edits so the host can repaint those cells.
func (t *EditTracker) CancelAll() []Edit {
	reverted := t.ListEdits()
	t.reset()
	return reverted
}

func (t *EditTracker) reset() {
	t.edits = map[cellKey]Edit{}
}
