// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"fmt"
)

// RowIDColumn is the reserved name of the hidden first result column that
// carries the storage row identifier. Queries that want editable results
// select it first, e.g. SELECT rowid AS "__sqlgrid_rowid__", * FROM t.
const RowIDColumn = "__sqlgrid_rowid__"

// Column describes one visible result column.
type Column struct {
	Name    string
	Ordinal int
}

// Row is one result row. ID is the storage row identifier, or a negative
// synthetic id for a row that has not been inserted yet.
type Row struct {
	ID    int64
	Cells []Value
}

// Model holds the currently loaded result set. It is replaced wholesale by
// Load; the accessors have no side effects.
type Model struct {
	columns   []Column
	rows      []Row
	hasRowIDs bool
	index     map[int64]int // row id -> row index
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{index: map[int64]int{}}
}

// Load replaces the model. If the first column is RowIDColumn it is removed
// from the visible columns and its integer values become the row ids;
// otherwise rows are numbered 1..n and the model is read-only.
// On error the model is left unchanged.
func (m *Model) Load(columns []string, rows [][]Value) error {
	hasRowIDs := len(columns) > 0 && columns[0] == RowIDColumn
	skip := 0
	if hasRowIDs {
		skip = 1
	}

	cols := make([]Column, 0, len(columns)-skip)
	for i, name := range columns[skip:] {
		cols = append(cols, Column{Name: name, Ordinal: i})
	}

	loaded := make([]Row, 0, len(rows))
	index := make(map[int64]int, len(rows))
	for r, src := range rows {
		if len(src) != len(columns) {
			return fmt.Errorf("row %d: expected %d values, got %d", r, len(columns), len(src))
		}
		id := int64(r + 1)
		if hasRowIDs {
			v := src[0]
			if v.Kind != Integer {
				return fmt.Errorf("row %d: row identifier is %s, not integer", r, v.Kind)
			}
			id = v.Int
		}
		if _, ok := index[id]; ok {
			return fmt.Errorf("row %d: duplicate row identifier %d", r, id)
		}
		cells := make([]Value, len(src)-skip)
		for c, v := range src[skip:] {
			cells[c] = v.clone()
		}
		index[id] = len(loaded)
		loaded = append(loaded, Row{ID: id, Cells: cells})
	}

	m.columns, m.rows, m.index, m.hasRowIDs = cols, loaded, index, hasRowIDs
	return nil
}

func (m *Model) RowCount() int    { return len(m.rows) }
func (m *Model) ColumnCount() int { return len(m.columns) }

// HasRowIDs reports whether the loaded result carried row identifiers.
func (m *Model) HasRowIDs() bool { return m.hasRowIDs }

// Columns returns a copy of the visible columns.
func (m *Model) Columns() []Column {
	return append([]Column(nil), m.columns...)
}

func (m *Model) ColumnName(c int) (string, error) {
	if c < 0 || c >= len(m.columns) {
		return "", outOfRange("column", c, len(m.columns))
	}
	return m.columns[c].Name, nil
}

// CellValue returns the value of a cell as loaded or last saved.
func (m *Model) CellValue(r, c int) (Value, error) {
	if err := m.check(r, c); err != nil {
		return Value{}, err
	}
	return m.rows[r].Cells[c].clone(), nil
}

func (m *Model) RowIdentifier(r int) (int64, error) {
	if r < 0 || r >= len(m.rows) {
		return 0, outOfRange("row", r, len(m.rows))
	}
	return m.rows[r].ID, nil
}

// IndexOf returns the row index holding the given row id.
func (m *Model) IndexOf(id int64) (int, bool) {
	r, ok := m.index[id]
	return r, ok
}

func (m *Model) check(r, c int) error {
	if r < 0 || r >= len(m.rows) {
		return outOfRange("row", r, len(m.rows))
	}
	if c < 0 || c >= len(m.columns) {
		return outOfRange("column", c, len(m.columns))
	}
	return nil
}

// The mutators below are used by the row manager only, to append
// provisional rows and to fold a successful commit back into the model.

func (m *Model) appendRow(id int64, cells []Value) int {
	m.rows = append(m.rows, Row{ID: id, Cells: cells})
	m.index[id] = len(m.rows) - 1
	return len(m.rows) - 1
}

func (m *Model) setCell(r, c int, v Value) {
	m.rows[r].Cells[c] = v.clone()
}

func (m *Model) setRowID(r int, id int64) {
	delete(m.index, m.rows[r].ID)
	m.rows[r].ID = id
	m.index[id] = r
}

// removeRows drops every row whose id is in ids and reindexes.
func (m *Model) removeRows(ids map[int64]bool) {
	if len(ids) == 0 {
		return
	}
	kept := m.rows[:0]
	for _, row := range m.rows {
		if !ids[row.ID] {
			kept = append(kept, row)
		}
	}
	// clear the tail so dropped cells can be collected
	for i := len(kept); i < len(m.rows); i++ {
		m.rows[i] = Row{}
	}
	m.rows = kept
	m.index = make(map[int64]int, len(m.rows))
	for r, row := range m.rows {
		m.index[row.ID] = r
	}
}
