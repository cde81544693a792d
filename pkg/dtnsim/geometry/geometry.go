// Package geometry provides a grid-bucketed reference implementation of
// link.GeometryOptimizer (spec.md §6: "a spatial index mapping
// coordinates → nearby interfaces, rebuilt incrementally per tick via
// updateLocation(interface)"). spec.md lists GeometryOptimizer only as a
// consumed interface; SPEC_FULL.md §C supplements one concrete
// implementation so the end-to-end scenario tests have something real to
// drive instead of a hand-rolled per-test stub.
//
// No repo in the pack implements a literal coordinate grid or bucket
// index (the OLSR simulations track a logical hop-distance topology
// table, not coordinates), so this is a standard-library (math) spatial
// index rather than a pack-grounded one; see DESIGN.md's stdlib
// justification for geometry. Nodes are keyed into a coarse grid and
// neighbor queries only ever scan the 3x3 block of cells around a node's
// own cell, never the whole population.
package geometry

import (
	"math"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/link"
)

type cellKey struct {
	cx, cy int64
}

// GridIndex buckets interfaces into cells of side cellSize and answers
// GetNearInterfaces by scanning the calling interface's own cell plus its
// eight neighbors. cellSize must be at least the largest transmitRange in
// play (spec.md's Optimization.cellSizeMult configures this multiplier
// against the group's interface range) or neighbors at the edge of range
// could be missed.
type GridIndex struct {
	cellSize float64
	cells    map[cellKey]map[link.InterfaceID]*link.Interface
	location map[link.InterfaceID]cellKey
}

// NewGridIndex builds an empty index with the given cell side length.
func NewGridIndex(cellSize float64) *GridIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &GridIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[link.InterfaceID]*link.Interface),
		location: make(map[link.InterfaceID]cellKey),
	}
}

func (g *GridIndex) keyFor(x, y float64) cellKey {
	return cellKey{
		cx: int64(math.Floor(x / g.cellSize)),
		cy: int64(math.Floor(y / g.cellSize)),
	}
}

// UpdateLocation re-buckets iface into the cell matching its host's
// current position, removing it from any stale cell first.
func (g *GridIndex) UpdateLocation(iface *link.Interface) {
	x, y := iface.Host.Position()
	key := g.keyFor(x, y)

	if old, ok := g.location[iface.ID]; ok {
		if old == key {
			return
		}
		delete(g.cells[old], iface.ID)
		if len(g.cells[old]) == 0 {
			delete(g.cells, old)
		}
	}

	bucket, ok := g.cells[key]
	if !ok {
		bucket = make(map[link.InterfaceID]*link.Interface)
		g.cells[key] = bucket
	}
	bucket[iface.ID] = iface
	g.location[iface.ID] = key
}

// GetNearInterfaces returns every other interface sharing iface's cell or
// one of its eight neighbors.
func (g *GridIndex) GetNearInterfaces(iface *link.Interface) []*link.Interface {
	key, ok := g.location[iface.ID]
	if !ok {
		return nil
	}
	var out []*link.Interface
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			bucket, ok := g.cells[cellKey{key.cx + dx, key.cy + dy}]
			if !ok {
				continue
			}
			for id, other := range bucket {
				if id == iface.ID {
					continue
				}
				out = append(out, other)
			}
		}
	}
	return out
}
