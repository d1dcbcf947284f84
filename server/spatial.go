package main

import (
	"math"

	"github.com/adoringonion/ecs-practice/sim"
)

// SpatialCellSize is about 2x the largest collider diameter.
const SpatialCellSize = 2.0

type cellKey struct{ cx, cz int32 }

// SpatialGrid is a hashed grid over the XZ plane for broad-phase contact
// queries. Agents wander without bounds, so cells are allocated on demand.
type SpatialGrid struct {
	cells   map[cellKey][]sim.Handle
	scratch []sim.Handle
}

// NewSpatialGrid creates an empty grid.
func NewSpatialGrid() *SpatialGrid {
	return &SpatialGrid{cells: make(map[cellKey][]sim.Handle)}
}

// Clear resets all cells. Cells used since the last Clear keep their
// capacity; cells that stayed empty are dropped, so the map only tracks
// recently occupied ground.
func (g *SpatialGrid) Clear() {
	for k, v := range g.cells {
		if len(v) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = v[:0]
	}
}

func cellOf(x, z float64) cellKey {
	return cellKey{
		cx: int32(math.Floor(x / SpatialCellSize)),
		cz: int32(math.Floor(z / SpatialCellSize)),
	}
}

// Insert adds an agent at the given position.
func (g *SpatialGrid) Insert(x, z float64, h sim.Handle) {
	k := cellOf(x, z)
	g.cells[k] = append(g.cells[k], h)
}

// QueryBuf appends every agent in cells overlapping the square of half-size
// radius around (x, z) to buf.
func (g *SpatialGrid) QueryBuf(x, z, radius float64, buf []sim.Handle) []sim.Handle {
	lo := cellOf(x-radius, z-radius)
	hi := cellOf(x+radius, z+radius)
	for cz := lo.cz; cz <= hi.cz; cz++ {
		for cx := lo.cx; cx <= hi.cx; cx++ {
			buf = append(buf, g.cells[cellKey{cx, cz}]...)
		}
	}
	return buf
}

// Query is QueryBuf into a fresh slice.
func (g *SpatialGrid) Query(x, z, radius float64) []sim.Handle {
	return g.QueryBuf(x, z, radius, nil)
}
