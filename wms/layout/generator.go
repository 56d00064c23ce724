package layout

import (
	"errors"
	"fmt"
)

// RenderCeiling caps how many cells the grid-preview endpoint will expand.
const RenderCeiling = 5000

// DefaultGenerateCeiling is the soft limit above which generation refuses to
// run unless forced. The grid is operator-configurable up to 100x250x10, so
// an accidental quarter-million-position generation must not happen silently.
const DefaultGenerateCeiling = 50000

var ErrGridTooLarge = errors.New("grid exceeds generation ceiling")

// Position is one concrete, addressable storage slot produced from an active
// grid cell.
type Position struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Row         int     `json:"row"`
	Module      int     `json:"module"`
	Floor       int     `json:"floor"`
	MaxCapacity float64 `json:"max_capacity"`
}

// CellCode derives the externally visible position code from a cell,
// zero-padded so codes sort the same way the generator emits them.
func CellCode(c Cell) string {
	return fmt.Sprintf("R%02d-M%02d-A%02d", c.Row, c.Module, c.Floor)
}

// Generator materializes the full position set for a layout. Ceiling guards
// oversized grids; Force overrides it after the operator confirmed.
type Generator struct {
	Ceiling int
	Force   bool
}

// Generate walks rows outermost, then modules, then floors, skipping inactive
// cells. The iteration order is the code order operators see and must stay
// stable across runs.
func (g Generator) Generate(l *Layout) ([]Position, error) {
	ceiling := g.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultGenerateCeiling
	}
	if l.TotalCells() > ceiling && !g.Force {
		return nil, fmt.Errorf("%w: %d cells, ceiling %d", ErrGridTooLarge, l.TotalCells(), ceiling)
	}

	positions := make([]Position, 0, l.ActiveCells())
	for row := 1; row <= l.Rows(); row++ {
		for module := 1; module <= l.Modules(); module++ {
			for floor := 1; floor <= l.Floors(); floor++ {
				cell := Cell{Row: row, Module: module, Floor: floor}
				if !l.IsActive(cell) {
					continue
				}
				positions = append(positions, Position{
					Code:        CellCode(cell),
					Description: fmt.Sprintf("Aisle %d, Module %d, Level %d", row, module, floor),
					Row:         row,
					Module:      module,
					Floor:       floor,
					MaxCapacity: l.CapacityPerCell(),
				})
			}
		}
	}
	return positions, nil
}

// Generate runs a default Generator over the layout.
func Generate(l *Layout) ([]Position, error) {
	return Generator{}.Generate(l)
}
