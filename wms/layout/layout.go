package layout

import (
	"fmt"
	"sort"
)

// Default grid for a freshly created warehouse layout.
const (
	DefaultRows            = 4
	DefaultModules         = 10
	DefaultFloors          = 4
	DefaultCapacityPerCell = 1000.0 // kg
)

// Cell identifies one storage slot in the grid, 1-based on every axis.
type Cell struct {
	Row    int `json:"row"`
	Module int `json:"module"`
	Floor  int `json:"floor"`
}

// Layout is the aisle x module x floor grid definition for one warehouse.
// Cells are active by default; deactivated cells are tracked explicitly and
// excluded from capacity and position generation.
type Layout struct {
	rows            int
	modules         int
	floors          int
	capacityPerCell float64
	inactive        map[Cell]struct{}
}

func New() *Layout {
	l, _ := NewWithDimensions(DefaultRows, DefaultModules, DefaultFloors, DefaultCapacityPerCell)
	return l
}

func NewWithDimensions(rows, modules, floors int, capacityPerCell float64) (*Layout, error) {
	if rows < 1 || modules < 1 || floors < 1 {
		return nil, fmt.Errorf("invalid dimensions %dx%dx%d: all must be >= 1", rows, modules, floors)
	}
	if capacityPerCell <= 0 {
		return nil, fmt.Errorf("invalid capacity per cell %v: must be > 0", capacityPerCell)
	}
	return &Layout{
		rows:            rows,
		modules:         modules,
		floors:          floors,
		capacityPerCell: capacityPerCell,
		inactive:        make(map[Cell]struct{}),
	}, nil
}

func (l *Layout) Rows() int                { return l.rows }
func (l *Layout) Modules() int             { return l.modules }
func (l *Layout) Floors() int              { return l.floors }
func (l *Layout) CapacityPerCell() float64 { return l.capacityPerCell }

// SetDimensions resizes the grid. Cell coordinates from the old grid are not
// portable to the new one, so the inactive set is cleared, never remapped.
func (l *Layout) SetDimensions(rows, modules, floors int) error {
	if rows < 1 || modules < 1 || floors < 1 {
		return fmt.Errorf("invalid dimensions %dx%dx%d: all must be >= 1", rows, modules, floors)
	}
	l.rows = rows
	l.modules = modules
	l.floors = floors
	l.inactive = make(map[Cell]struct{})
	return nil
}

func (l *Layout) SetCapacityPerCell(capacity float64) error {
	if capacity <= 0 {
		return fmt.Errorf("invalid capacity per cell %v: must be > 0", capacity)
	}
	l.capacityPerCell = capacity
	return nil
}

// Contains reports whether the cell falls inside the current grid.
func (l *Layout) Contains(c Cell) bool {
	return c.Row >= 1 && c.Row <= l.rows &&
		c.Module >= 1 && c.Module <= l.modules &&
		c.Floor >= 1 && c.Floor <= l.floors
}

// ToggleCell flips the active state of one cell. Calling it twice restores
// the original state.
func (l *Layout) ToggleCell(c Cell) error {
	if !l.Contains(c) {
		return fmt.Errorf("cell (%d,%d,%d) outside %dx%dx%d grid", c.Row, c.Module, c.Floor, l.rows, l.modules, l.floors)
	}
	if _, ok := l.inactive[c]; ok {
		delete(l.inactive, c)
	} else {
		l.inactive[c] = struct{}{}
	}
	return nil
}

// SetCells activates or deactivates many cells at once. Deactivating a cell
// that is already inactive is a no-op, so the inactive set never holds
// duplicates.
func (l *Layout) SetCells(cells []Cell, active bool) error {
	for _, c := range cells {
		if !l.Contains(c) {
			return fmt.Errorf("cell (%d,%d,%d) outside %dx%dx%d grid", c.Row, c.Module, c.Floor, l.rows, l.modules, l.floors)
		}
	}
	for _, c := range cells {
		if active {
			delete(l.inactive, c)
		} else {
			l.inactive[c] = struct{}{}
		}
	}
	return nil
}

func (l *Layout) IsActive(c Cell) bool {
	_, off := l.inactive[c]
	return l.Contains(c) && !off
}

func (l *Layout) TotalCells() int {
	return l.rows * l.modules * l.floors
}

func (l *Layout) ActiveCells() int {
	return l.TotalCells() - len(l.inactive)
}

// InactiveCells returns a sorted copy of the inactive set.
func (l *Layout) InactiveCells() []Cell {
	cells := make([]Cell, 0, len(l.inactive))
	for c := range l.inactive {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		if cells[i].Module != cells[j].Module {
			return cells[i].Module < cells[j].Module
		}
		return cells[i].Floor < cells[j].Floor
	})
	return cells
}

// Capacity is derived from the current state on every call, never cached:
// (rows*modules*floors - inactive) * capacityPerCell.
func (l *Layout) Capacity() float64 {
	return float64(l.ActiveCells()) * l.capacityPerCell
}
