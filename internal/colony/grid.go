package colony

import "fmt"

// Cell addresses one grid square.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Placement is an occupied cell and the module standing on it.
type Placement struct {
	Cell   Cell   `json:"cell"`
	Module string `json:"module"`
}

// Grid is a fixed N×N arrangement of optional module placements.
type Grid struct {
	size  int
	cells []string
}

func NewGrid(size int) *Grid {
	if size < 1 {
		size = 1
	}
	return &Grid{
		size:  size,
		cells: make([]string, size*size),
	}
}

func (g *Grid) Size() int {
	return g.size
}

func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.size && c.Col >= 0 && c.Col < g.size
}

func (g *Grid) index(c Cell) int {
	return c.Row*g.size + c.Col
}

func (g *Grid) cellAt(i int) Cell {
	return Cell{Row: i / g.size, Col: i % g.size}
}

// At returns the module at c, or "" when the cell is empty or out of bounds.
func (g *Grid) At(c Cell) string {
	if !g.InBounds(c) {
		return ""
	}
	return g.cells[g.index(c)]
}

func (g *Grid) Occupied(c Cell) bool {
	return g.At(c) != ""
}

// Place puts module on an empty in-bounds cell.
func (g *Grid) Place(c Cell, module string) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: %s on a %dx%d grid", ErrInvalidCell, c, g.size, g.size)
	}
	if g.Occupied(c) {
		return fmt.Errorf("%w: %s holds %s", ErrCellOccupied, c, g.At(c))
	}
	g.cells[g.index(c)] = module
	return nil
}

// Clear empties c and returns the module that stood there.
func (g *Grid) Clear(c Cell) string {
	if !g.InBounds(c) {
		return ""
	}
	i := g.index(c)
	module := g.cells[i]
	g.cells[i] = ""
	return module
}

// Placements lists occupied cells in row-major order.
func (g *Grid) Placements() []Placement {
	var out []Placement
	for i, m := range g.cells {
		if m != "" {
			out = append(out, Placement{Cell: g.cellAt(i), Module: m})
		}
	}
	return out
}

func (g *Grid) CountOccupied() int {
	n := 0
	for _, m := range g.cells {
		if m != "" {
			n++
		}
	}
	return n
}

func (g *Grid) Count(module string) int {
	n := 0
	for _, m := range g.cells {
		if m == module {
			n++
		}
	}
	return n
}

// Rows renders the grid as a slice of rows for renderers.
func (g *Grid) Rows() [][]string {
	rows := make([][]string, g.size)
	for r := 0; r < g.size; r++ {
		rows[r] = make([]string, g.size)
		copy(rows[r], g.cells[r*g.size:(r+1)*g.size])
	}
	return rows
}
