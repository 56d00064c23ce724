package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	l := New()

	assert.Equal(t, DefaultRows, l.Rows())
	assert.Equal(t, DefaultModules, l.Modules())
	assert.Equal(t, DefaultFloors, l.Floors())
	assert.Equal(t, DefaultCapacityPerCell, l.CapacityPerCell())
	assert.Equal(t, 160, l.TotalCells())
	assert.Equal(t, 160, l.ActiveCells())
	assert.Equal(t, 160000.0, l.Capacity())
}

func TestNewWithDimensionsValidation(t *testing.T) {
	_, err := NewWithDimensions(0, 10, 4, 1000)
	assert.Error(t, err)

	_, err = NewWithDimensions(4, 10, 4, 0)
	assert.Error(t, err)

	_, err = NewWithDimensions(4, 10, 4, -5)
	assert.Error(t, err)

	l, err := NewWithDimensions(1, 1, 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, l.Capacity())
}

func TestCapacityFollowsInactiveCells(t *testing.T) {
	l := New()

	require.NoError(t, l.ToggleCell(Cell{Row: 1, Module: 1, Floor: 1}))
	require.NoError(t, l.ToggleCell(Cell{Row: 2, Module: 5, Floor: 3}))
	require.NoError(t, l.ToggleCell(Cell{Row: 4, Module: 10, Floor: 4}))

	assert.Equal(t, 157, l.ActiveCells())
	assert.Equal(t, 157000.0, l.Capacity())

	// Reactivating brings the capacity straight back.
	require.NoError(t, l.ToggleCell(Cell{Row: 2, Module: 5, Floor: 3}))
	assert.Equal(t, 158000.0, l.Capacity())
}

func TestToggleCellIsIdempotentPair(t *testing.T) {
	l := New()
	c := Cell{Row: 3, Module: 7, Floor: 2}

	require.True(t, l.IsActive(c))
	require.NoError(t, l.ToggleCell(c))
	assert.False(t, l.IsActive(c))
	require.NoError(t, l.ToggleCell(c))
	assert.True(t, l.IsActive(c))
	assert.Empty(t, l.InactiveCells())
}

func TestToggleCellOutsideGrid(t *testing.T) {
	l := New()

	assert.Error(t, l.ToggleCell(Cell{Row: 0, Module: 1, Floor: 1}))
	assert.Error(t, l.ToggleCell(Cell{Row: 5, Module: 1, Floor: 1}))
	assert.Error(t, l.ToggleCell(Cell{Row: 1, Module: 11, Floor: 1}))
	assert.Error(t, l.ToggleCell(Cell{Row: 1, Module: 1, Floor: 5}))
	assert.Equal(t, 160, l.ActiveCells())
}

func TestSetCellsNeverDuplicates(t *testing.T) {
	l := New()
	c := Cell{Row: 1, Module: 2, Floor: 3}

	// Same cell twice in one call, then again in a second call.
	require.NoError(t, l.SetCells([]Cell{c, c}, false))
	require.NoError(t, l.SetCells([]Cell{c}, false))

	assert.Equal(t, 1, len(l.InactiveCells()))
	assert.Equal(t, 159, l.ActiveCells())

	require.NoError(t, l.SetCells([]Cell{c}, true))
	assert.Equal(t, 160, l.ActiveCells())
}

func TestSetCellsValidatesBeforeMutating(t *testing.T) {
	l := New()

	err := l.SetCells([]Cell{
		{Row: 1, Module: 1, Floor: 1},
		{Row: 99, Module: 1, Floor: 1},
	}, false)

	require.Error(t, err)
	// The valid cell must not have been deactivated.
	assert.True(t, l.IsActive(Cell{Row: 1, Module: 1, Floor: 1}))
	assert.Equal(t, 160, l.ActiveCells())
}

func TestSetDimensionsClearsInactiveSet(t *testing.T) {
	l := New()
	require.NoError(t, l.ToggleCell(Cell{Row: 4, Module: 10, Floor: 4}))
	require.Equal(t, 159, l.ActiveCells())

	require.NoError(t, l.SetDimensions(2, 3, 2))

	assert.Equal(t, 12, l.TotalCells())
	assert.Equal(t, 12, l.ActiveCells())
	assert.Empty(t, l.InactiveCells())
	assert.Equal(t, 12000.0, l.Capacity())
}

func TestSetDimensionsValidation(t *testing.T) {
	l := New()

	assert.Error(t, l.SetDimensions(0, 1, 1))
	assert.Error(t, l.SetDimensions(1, -1, 1))
	assert.Equal(t, DefaultRows, l.Rows())
}

func TestSetCapacityPerCell(t *testing.T) {
	l := New()

	require.NoError(t, l.SetCapacityPerCell(500))
	assert.Equal(t, 80000.0, l.Capacity())

	assert.Error(t, l.SetCapacityPerCell(0))
	assert.Error(t, l.SetCapacityPerCell(-1))
	assert.Equal(t, 500.0, l.CapacityPerCell())
}

func TestInactiveCellsSorted(t *testing.T) {
	l := New()
	require.NoError(t, l.ToggleCell(Cell{Row: 3, Module: 1, Floor: 1}))
	require.NoError(t, l.ToggleCell(Cell{Row: 1, Module: 2, Floor: 2}))
	require.NoError(t, l.ToggleCell(Cell{Row: 1, Module: 2, Floor: 1}))

	cells := l.InactiveCells()
	require.Equal(t, []Cell{
		{Row: 1, Module: 2, Floor: 1},
		{Row: 1, Module: 2, Floor: 2},
		{Row: 3, Module: 1, Floor: 1},
	}, cells)
}

func TestIsActiveOutsideGrid(t *testing.T) {
	l := New()
	assert.False(t, l.IsActive(Cell{Row: 0, Module: 0, Floor: 0}))
	assert.False(t, l.IsActive(Cell{Row: 5, Module: 1, Floor: 1}))
}
