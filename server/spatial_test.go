package main

import (
	"testing"

	"github.com/adoringonion/ecs-practice/sim"
)

func contains(hs []sim.Handle, h sim.Handle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

func TestSpatialGridInsertAndQuery(t *testing.T) {
	grid := NewSpatialGrid()
	h := sim.Handle{Index: 0, Gen: 1}
	grid.Insert(10, 10, h)

	if !contains(grid.Query(10.5, 9.5, 1), h) {
		t.Error("expected to find entity at (10,10)")
	}
	if contains(grid.Query(300, 300, 1), h) {
		t.Error("should not find entity at (300,300)")
	}
}

func TestSpatialGridNegativeCoordinates(t *testing.T) {
	grid := NewSpatialGrid()
	h := sim.Handle{Index: 3, Gen: 1}
	grid.Insert(-0.1, -0.1, h)

	if !contains(grid.Query(0.2, 0.2, 1), h) {
		t.Error("query across the origin should reach negative cells")
	}
	if contains(grid.Query(5, 5, 1), h) {
		t.Error("distant query should miss")
	}
}

func TestSpatialGridClear(t *testing.T) {
	grid := NewSpatialGrid()
	grid.Insert(5, 5, sim.Handle{Index: 1, Gen: 1})
	grid.Clear()

	if results := grid.Query(5, 5, 3); len(results) != 0 {
		t.Errorf("expected 0 results after clear, got %d", len(results))
	}
}

func TestSpatialGridQueryBufAppends(t *testing.T) {
	grid := NewSpatialGrid()
	grid.Insert(0.5, 0.5, sim.Handle{Index: 1, Gen: 1})
	buf := []sim.Handle{{Index: 9, Gen: 9}}

	buf = grid.QueryBuf(0.5, 0.5, 0.1, buf)
	if len(buf) != 2 {
		t.Errorf("expected QueryBuf to append, got %d entries", len(buf))
	}
}

func TestSpatialGridDropsAbandonedCells(t *testing.T) {
	grid := NewSpatialGrid()
	// an agent walking in a straight line visits a new cell every few ticks
	for i := 0; i < 1000; i++ {
		grid.Clear()
		grid.Insert(float64(i)*SpatialCellSize, 0, sim.Handle{Index: 0, Gen: 1})
	}
	if n := len(grid.cells); n > 2 {
		t.Errorf("expected at most 2 tracked cells, got %d", n)
	}

	grid.Clear()
	grid.Clear()
	if n := len(grid.cells); n != 0 {
		t.Errorf("expected empty grid after two clears, got %d cells", n)
	}
}
