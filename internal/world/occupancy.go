package world

import (
	"math"

	"github.com/proctiler/tilestream/internal/core/ecs"
)

// Occupancy answers whether any active tile footprint overlaps a box on the
// ground plane. half is the half-extent of the probe box around center.
type Occupancy interface {
	Occupied(center Vec3, half Extent) bool
}

// CellIndex is an exact occupancy index: every active tile claims the grid
// cells its footprint covers. Unlike a physics overlap probe it cannot
// false-positive near cell borders.
// Accessed only from the game loop goroutine; no locks.
type CellIndex struct {
	step  float64
	cells map[Cell]ecs.EntityID
	owned map[ecs.EntityID][]Cell
}

func NewCellIndex(step float64) *CellIndex {
	return &CellIndex{
		step:  step,
		cells: make(map[Cell]ecs.EntityID),
		owned: make(map[ecs.EntityID][]Cell),
	}
}

// Occupied reports whether any cell touched by the probe box is claimed.
func (g *CellIndex) Occupied(center Vec3, half Extent) bool {
	for _, c := range g.span(center, half) {
		if _, ok := g.cells[c]; ok {
			return true
		}
	}
	return false
}

func (g *CellIndex) OnActivate(t *Tile) {
	g.Remove(t.ID)
	half := Extent{X: t.Proto.Extent.X / 2, Z: t.Proto.Extent.Z / 2}
	cells := g.span(t.Pos, half)
	for _, c := range cells {
		g.cells[c] = t.ID
	}
	g.owned[t.ID] = cells
}

func (g *CellIndex) OnDeactivate(t *Tile) { g.Remove(t.ID) }

// Remove releases every cell claimed by id.
func (g *CellIndex) Remove(id ecs.EntityID) {
	for _, c := range g.owned[id] {
		if g.cells[c] == id {
			delete(g.cells, c)
		}
	}
	delete(g.owned, id)
}

// Len returns the number of claimed cells.
func (g *CellIndex) Len() int { return len(g.cells) }

// span lists the cells whose area overlaps the box by a positive width. A
// box of exactly one step around a cell centre covers that cell only.
func (g *CellIndex) span(center Vec3, half Extent) []Cell {
	x0, x1 := g.axisRange(center.X, half.X)
	z0, z1 := g.axisRange(center.Z, half.Z)
	cells := make([]Cell, 0, int((x1-x0+1)*(z1-z0+1)))
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			cells = append(cells, Cell{X: x, Z: z})
		}
	}
	return cells
}

const cellEpsilon = 1e-9

func (g *CellIndex) axisRange(c, half float64) (int32, int32) {
	lo := int32(math.Ceil((c-half)/g.step - 0.5 + cellEpsilon))
	hi := int32(math.Floor((c+half)/g.step + 0.5 - cellEpsilon))
	if hi < lo {
		// probe smaller than a cell: the cell holding the centre
		m := int32(math.Round(c / g.step))
		return m, m
	}
	return lo, hi
}
