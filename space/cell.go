package space

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/geom"
)

// NoCell marks an empty octant or the missing parent of a top-level cell.
const NoCell int32 = -1

// SortEntry is one element of a cell's sorted projection list. I indexes
// into the cell's Parts.
type SortEntry struct {
	D float64
	I int32
}

// Cell is a node of the cell tree. Cells live in Space.Cells and refer to
// each other by ID.
type Cell struct {
	ID    int32
	Loc   r3.Vec
	Width r3.Vec
	// Dmin is the smallest component of Width.
	Dmin  float64
	Depth int

	Parent  int32
	Progeny [8]int32
	Split   bool

	// Parts is Space.Parts[Offset: Offset+len(Parts)].
	Offset int
	Parts  []Particle

	HMax float64
	// DxMaxPart bounds how far any particle has moved since the tree was
	// built.
	DxMaxPart float64
	// DxMaxSort bounds how far any particle has moved since the sorts were
	// built. DxMaxSortOld is its value as of the last drift.
	DxMaxSort, DxMaxSortOld float64

	// Sorted has bit sid set if sort[sid] has been built.
	Sorted uint16
	sort   [geom.NumSids][]SortEntry

	TiDrift     int64
	ActiveCount int
	// RequiresSorts has bit sid set if an upcoming traversal needs
	// sort[sid].
	RequiresSorts uint16
}

// Count returns the number of particles in c.
func (c *Cell) Count() int { return len(c.Parts) }

// IsActive returns true if any particle in c is active.
func (c *Cell) IsActive() bool { return c.ActiveCount > 0 }

// SortList returns the projections built by the last Space.Sort call in
// direction sid.
func (c *Cell) SortList(sid int) []SortEntry { return c.sort[sid] }

// HasProgeny returns true if octant k of c contains particles.
func (c *Cell) HasProgeny(k int) bool { return c.Progeny[k] != NoCell }

// Contains returns true if the global particle index i lies in c.
func (c *Cell) Contains(i int) bool {
	return i >= c.Offset && i < c.Offset+len(c.Parts)
}
