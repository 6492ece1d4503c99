package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type cellKey [3]int

// Grid is a uniform spatial hash. Any two points closer than the cell size
// fall in the same or adjacent cells.
type Grid struct {
	cell  float64
	cells map[cellKey][]int
}

func NewGrid(cell float64) *Grid {
	return &Grid{cell: cell, cells: make(map[cellKey][]int)}
}

func (g *Grid) CellSize() float64 { return g.cell }

// Resize changes the cell size and drops every entry.
func (g *Grid) Resize(cell float64) {
	g.cell = cell
	clear(g.cells)
}

func (g *Grid) key(p mgl64.Vec3) cellKey {
	return cellKey{
		int(math.Floor(p[0] / g.cell)),
		int(math.Floor(p[1] / g.cell)),
		int(math.Floor(p[2] / g.cell)),
	}
}

// Build replaces the grid contents with positions, indexed by slice order.
func (g *Grid) Build(positions []mgl64.Vec3) {
	clear(g.cells)
	for i, p := range positions {
		k := g.key(p)
		g.cells[k] = append(g.cells[k], i)
	}
}

// Near appends to dst[:0] every index stored in the 27 cells around p, in
// ascending order.
func (g *Grid) Near(p mgl64.Vec3, dst []int) []int {
	dst = dst[:0]
	c := g.key(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				dst = append(dst, g.cells[cellKey{c[0] + dx, c[1] + dy, c[2] + dz}]...)
			}
		}
	}
	sort.Ints(dst)
	return dst
}
