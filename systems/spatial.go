// Package systems contains the spatial index, constraint kernels and
// integrator shared by both execution backends.
package systems

import "math"

// InteractionScale is the neighbor search radius in particle diameters.
const InteractionScale = 1.75

// NoNeighbor marks the end of a particle's used slots in NeighborSlots.
const NoNeighbor = -1

// scanOffsets lists the 3x3 block scanned around a particle's cell, in
// resolution order: center, north, south, west, east, northwest, northeast,
// southwest, southeast. Collisions are resolved in neighbor insertion order,
// so this order is part of the solver's deterministic result.
var scanOffsets = [9][2]int{
	{0, 0},
	{0, 1}, {0, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {1, 1},
	{-1, -1}, {1, -1},
}

// GridHash is a coarse spatial hash for neighbor discovery. It is
// independent of the seeding grid: its resolution is half the seeding
// resolution, for roughly four particles per cell.
type GridHash struct {
	numCols   int
	halfWidth float64 // domain spans [-halfWidth, halfWidth]
	radiusSq  float64
	cells     map[int][]int // cell key -> particle indices
	keys      []int         // per particle cell key, from the last Build
}

// NewGridHash creates a hash for a domain of the given half width seeded at
// numGridCells per axis, with particles of the given diameter.
func NewGridHash(numGridCells int, halfWidth, diameter float64) *GridHash {
	numCols := numGridCells / 2
	if numCols < 1 {
		numCols = 1
	}
	r := diameter * InteractionScale
	return &GridHash{
		numCols:   numCols,
		halfWidth: halfWidth,
		radiusSq:  r * r,
		cells:     make(map[int][]int, numCols*numCols),
	}
}

// CellCoords maps a position to its hash column and row. The coordinate is
// normalized to [0,1] over the domain width and scaled into [0, numCols).
// Positions outside the domain map to columns outside that range; they
// still hash consistently.
func (g *GridHash) CellCoords(x, y float64) (col, row int) {
	n := float64(g.numCols)
	col = int(math.Floor(n * (0.5 + 0.5*x/g.halfWidth)))
	row = int(math.Floor(n * (0.5 + 0.5*y/g.halfWidth)))
	return col, row
}

// Key returns the cell key for a column and row.
func (g *GridHash) Key(col, row int) int {
	return row*g.numCols + col
}

// Clear empties every cell, keeping allocated capacity.
func (g *GridHash) Clear() {
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}
}

// Build splats every particle of an interleaved position array into the hash.
func (g *GridHash) Build(positions []float64) {
	g.Clear()
	n := len(positions) / 2
	if cap(g.keys) < n {
		g.keys = make([]int, n)
	}
	g.keys = g.keys[:n]

	for i := 0; i < n; i++ {
		col, row := g.CellCoords(positions[2*i], positions[2*i+1])
		key := g.Key(col, row)
		g.keys[i] = key
		g.cells[key] = append(g.cells[key], i)
	}
}

// FindNeighbors rebuilds the hash from positions and fills dst with every
// particle's neighbors within the interaction radius, excluding itself.
// dst is resized to the particle count; its per-particle slices are reused.
func (g *GridHash) FindNeighbors(positions []float64, dst *NeighborList) {
	g.Build(positions)
	n := len(positions) / 2
	dst.Resize(n)

	for i := 0; i < n; i++ {
		x1, y1 := positions[2*i], positions[2*i+1]
		col, row := g.CellCoords(x1, y1)
		list := dst.lists[i][:0]

		for _, off := range scanOffsets {
			for _, c := range g.cells[g.Key(col+off[0], row+off[1])] {
				if c == i {
					continue
				}
				dx := positions[2*c] - x1
				dy := positions[2*c+1] - y1
				if dx*dx+dy*dy < g.radiusSq {
					list = append(list, c)
				}
			}
		}
		dst.lists[i] = list
	}
}
