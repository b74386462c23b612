// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, n int) (*Model, *EditTracker, *RowManager) {
	t.Helper()
	m := NewModel()
	cols, rows := tableRows(n)
	require.NoError(t, m.Load(cols, rows))
	return newState(m, "items")
}

func TestEditTracker_RevertRemovesEntry(t *testing.T) {
	_, edits, _ := newTestState(t, 10)

	require.NoError(t, edits.RecordEdit(3, 0, TextValue("y")))
	assert.True(t, edits.IsDirty())
	require.Len(t, edits.ListEdits(), 1)

	require.NoError(t, edits.RecordEdit(3, 0, TextValue("d")))
	assert.False(t, edits.IsDirty())
	assert.Empty(t, edits.ListEdits())
}

func TestEditTracker_BaselineIsOriginal(t *testing.T) {
	_, edits, _ := newTestState(t, 3)

	require.NoError(t, edits.RecordEdit(1, 1, IntValue(11)))
	require.NoError(t, edits.RecordEdit(1, 1, IntValue(12)))

	list := edits.ListEdits()
	require.Len(t, list, 1)
	assert.Equal(t, IntValue(10), list[0].Original)
	assert.Equal(t, IntValue(12), list[0].New)
	assert.Equal(t, 1, list[0].Row)
	assert.Equal(t, int64(2), list[0].RowID)
	assert.Equal(t, 1, list[0].Column)

	// going back to the original through an intermediate value still clears it
	require.NoError(t, edits.RecordEdit(1, 1, IntValue(10)))
	assert.Equal(t, 0, edits.Len())
}

func TestEditTracker_TypeChangeIsAnEdit(t *testing.T) {
	_, edits, _ := newTestState(t, 2)

	require.NoError(t, edits.RecordEdit(1, 1, TextValue("10")))
	assert.Equal(t, 1, edits.Len())
}

func TestEditTracker_ListOrder(t *testing.T) {
	_, edits, _ := newTestState(t, 5)

	require.NoError(t, edits.RecordEdit(4, 1, IntValue(1)))
	require.NoError(t, edits.RecordEdit(0, 1, IntValue(1)))
	require.NoError(t, edits.RecordEdit(4, 0, TextValue("z")))

	list := edits.ListEdits()
	require.Len(t, list, 3)
	assert.Equal(t, [2]int{0, 1}, [2]int{list[0].Row, list[0].Column})
	assert.Equal(t, [2]int{4, 0}, [2]int{list[1].Row, list[1].Column})
	assert.Equal(t, [2]int{4, 1}, [2]int{list[2].Row, list[2].Column})
}

func TestEditTracker_OutOfRange(t *testing.T) {
	_, edits, _ := newTestState(t, 2)

	assert.ErrorIs(t, edits.RecordEdit(2, 0, TextValue("x")), ErrOutOfRange)
	assert.ErrorIs(t, edits.RecordEdit(0, 7, TextValue("x")), ErrOutOfRange)
}

func TestEditTracker_CancelAll(t *testing.T) {
	m, edits, _ := newTestState(t, 3)

	require.NoError(t, edits.RecordEdit(0, 0, TextValue("q")))
	require.NoError(t, edits.RecordEdit(2, 1, IntValue(99)))

	reverted := edits.CancelAll()
	require.Len(t, reverted, 2)
	assert.Equal(t, TextValue("a"), reverted[0].Original)
	assert.False(t, edits.IsDirty())

	v, err := edits.Current(2, 1)
	require.NoError(t, err)
	assert.Equal(t, IntValue(20), v)

	// the model itself was never touched
	orig, _ := m.CellValue(0, 0)
	assert.Equal(t, TextValue("a"), orig)
}

func TestEditTracker_DirtyIncludesPendingRows(t *testing.T) {
	_, edits, rows := newTestState(t, 2)

	require.NoError(t, rows.MarkForDeletion(1, true))
	assert.True(t, edits.IsDirty())
	require.NoError(t, rows.MarkForDeletion(1, false))
	assert.False(t, edits.IsDirty())
}
