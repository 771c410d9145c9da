package geom

// Grid provides an interface for reasoning over a 1D slice of top-level
// cells as if it were a 3D grid.
type Grid struct {
	CDim                 [3]int
	Length, Area, Volume int
	Periodic             bool
}

// NewGrid returns a new Grid instance.
func NewGrid(cdim [3]int, periodic bool) *Grid {
	g := &Grid{}
	g.Init(cdim, periodic)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(cdim [3]int, periodic bool) {
	g.CDim = cdim
	g.Periodic = periodic

	g.Length = cdim[0]
	g.Area = cdim[0] * cdim[1]
	g.Volume = cdim[0] * cdim[1] * cdim[2]
}

// Idx returns the grid index corresponding to a set of coordinates. The
// ordering is z-fastest so that it matches octant numbering.
func (g *Grid) Idx(x, y, z int) int {
	return z + y*g.CDim[2] + x*g.CDim[2]*g.CDim[1]
}

// IdxCheck returns an index and true if the given coordinate are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (0 <= x && 0 <= y && 0 <= z) &&
		(x < g.CDim[0] && y < g.CDim[1] && z < g.CDim[2])
}

// Coords returns the x, y, z coordinates of a cell from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	z = idx % g.CDim[2]
	y = (idx / g.CDim[2]) % g.CDim[1]
	x = idx / (g.CDim[2] * g.CDim[1])
	return x, y, z
}

// Neighbor returns the index of the cell found by stepping off from idx. For
// periodic grids the step wraps around; otherwise ok is false when the step
// leaves the grid.
func (g *Grid) Neighbor(idx int, off Offset) (nIdx int, ok bool) {
	x, y, z := g.Coords(idx)
	x, y, z = x+off[0], y+off[1], z+off[2]

	if g.Periodic {
		x = pMod(x, g.CDim[0])
		y = pMod(y, g.CDim[1])
		z = pMod(z, g.CDim[2])
		return g.Idx(x, y, z), true
	}

	return g.IdxCheck(x, y, z)
}

// pMod computes the positive modulo x % y.
func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}
