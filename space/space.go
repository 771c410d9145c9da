/*package space holds the particle store and the octree of cells built over
it, along with the sort lists, drift bookkeeping and recursion rules used
when walking the tree.
*/
package space

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/geom"
)

// ActiveFunc decides whether a particle takes part in the current step.
type ActiveFunc func(p *Particle) bool

// Space owns the particle store and the cell tree built on top of it.
type Space struct {
	Params Params
	Box    geom.Box
	Grid   *geom.Grid

	// Parts is reordered by New and Rebuild so that every cell owns a
	// contiguous block.
	Parts []Particle
	Cells []Cell
	// TopCells maps grid indices to the IDs of top-level cells. Top-level
	// cells exist even when they are empty.
	TopCells []int32

	TiCurrent int64

	active ActiveFunc
	buf    []Particle
}

// New validates p, sorts parts into a cell tree and returns the resulting
// Space. parts is taken over by the Space and reordered.
func New(parts []Particle, p Params) (*Space, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}

	s := &Space{
		Params: p,
		Box:    geom.Box{Dim: p.Dim, Periodic: p.Periodic},
		Grid:   geom.NewGrid(p.TopCells, p.Periodic),
		Parts:  parts,
	}

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild throws away the cell tree and builds a new one from the current
// particle positions. All drift and sort bookkeeping is reset.
func (s *Space) Rebuild() error {
	return s.build()
}

// Cell returns the cell with the given ID.
func (s *Space) Cell(id int32) *Cell { return &s.Cells[id] }

// Top returns the top-level cell at grid index idx.
func (s *Space) Top(idx int) *Cell { return &s.Cells[s.TopCells[idx]] }

// Progeny returns octant k of c or nil if it is empty.
func (s *Space) Progeny(c *Cell, k int) *Cell {
	if c.Progeny[k] == NoCell {
		return nil
	}
	return &s.Cells[c.Progeny[k]]
}

// Index returns the global index of a particle in c.
func (s *Space) Index(c *Cell, i int) int { return c.Offset + i }

// IsParticleActive applies the activity function from the last
// UpdateActivity call to p.
func (s *Space) IsParticleActive(p *Particle) bool {
	if s.active == nil {
		return p.Active
	}
	return s.active(p)
}

func (s *Space) build() error {
	if err := s.placeParticles(); err != nil {
		return err
	}

	n := s.Grid.Volume
	idx := make([]int, len(s.Parts))
	counts := make([]int, n)
	for i := range s.Parts {
		idx[i] = s.topIndex(s.Parts[i].X)
		counts[idx[i]]++
	}

	offsets := make([]int, n+1)
	for i := 0; i < n; i++ {
		offsets[i+1] = offsets[i] + counts[i]
	}

	s.reorder(s.Parts, idx, offsets)

	s.Cells = s.Cells[:0]
	s.TopCells = make([]int32, n)
	width := s.Params.TopWidth()

	for i := 0; i < n; i++ {
		x, y, z := s.Grid.Coords(i)
		loc := r3.Vec{
			X: float64(x) * width.X,
			Y: float64(y) * width.Y,
			Z: float64(z) * width.Z,
		}
		id := s.newCell(loc, width, 0, NoCell, offsets[i], counts[i])
		s.TopCells[i] = id
		s.split(id)
	}

	return nil
}

// placeParticles wraps particles into periodic boxes and rejects particles
// outside of non-periodic ones.
func (s *Space) placeParticles() error {
	for i := range s.Parts {
		p := &s.Parts[i]
		if s.Box.Periodic {
			p.X = s.Box.Wrap(p.X)
		} else if !s.Box.Contains(p.X) {
			return fmt.Errorf("Particle %d at %v is outside the box %v.",
				p.ID, p.X, s.Box.Dim)
		}
		p.TiDrift = s.TiCurrent
	}
	return nil
}

func (s *Space) topIndex(x r3.Vec) int {
	width := s.Params.TopWidth()
	cdim := s.Params.TopCells
	ix := clampIndex(x.X/width.X, cdim[0])
	iy := clampIndex(x.Y/width.Y, cdim[1])
	iz := clampIndex(x.Z/width.Z, cdim[2])
	return s.Grid.Idx(ix, iy, iz)
}

// clampIndex guards against positions that land exactly on the upper edge
// of the box after rounding.
func clampIndex(x float64, n int) int {
	i := int(x)
	if i < 0 {
		return 0
	} else if i >= n {
		return n - 1
	}
	return i
}

// reorder permutes parts so that every particle with bin b ends up in
// parts[offsets[b]: offsets[b+1]]. The permutation is stable.
func (s *Space) reorder(parts []Particle, bins []int, offsets []int) {
	if cap(s.buf) < len(parts) {
		s.buf = make([]Particle, len(parts))
	}
	buf := s.buf[:len(parts)]

	next := make([]int, len(offsets)-1)
	copy(next, offsets)
	for i := range parts {
		b := bins[i]
		buf[next[b]] = parts[i]
		next[b]++
	}
	copy(parts, buf)
}

func (s *Space) newCell(
	loc, width r3.Vec, depth int, parent int32, offset, count int,
) int32 {
	id := int32(len(s.Cells))
	c := Cell{
		ID:     id,
		Loc:    loc,
		Width:  width,
		Dmin:   geom.MinComponent(width),
		Depth:  depth,
		Parent: parent,
		Offset: offset,
		Parts:  s.Parts[offset : offset+count],
	}
	for k := range c.Progeny {
		c.Progeny[k] = NoCell
	}
	c.TiDrift = s.TiCurrent
	s.Cells = append(s.Cells, c)
	return id
}

func (s *Space) shouldSplit(c *Cell) bool {
	return c.Count() > s.Params.SplitSize &&
		c.Depth < s.Params.MaxDepth &&
		c.Dmin/2 >= s.Params.MinCellWidth
}

// split recursively divides a cell into octants and sets HMax on the way
// back up. Appending to s.Cells moves the arena, so cells are re-fetched by
// ID after every allocation.
func (s *Space) split(id int32) {
	c := &s.Cells[id]

	if !s.shouldSplit(c) {
		c.HMax = 0
		for i := range c.Parts {
			if c.Parts[i].H > c.HMax {
				c.HMax = c.Parts[i].H
			}
		}
		return
	}

	mid := r3.Add(c.Loc, r3.Scale(0.5, c.Width))
	bins := make([]int, c.Count())
	counts := [8]int{}
	for i := range c.Parts {
		bins[i] = octant(c.Parts[i].X, mid)
		counts[bins[i]]++
	}

	offsets := make([]int, 9)
	for k := 0; k < 8; k++ {
		offsets[k+1] = offsets[k] + counts[k]
	}
	s.reorder(c.Parts, bins, offsets)

	c.Split = true
	loc, half, depth, offset := c.Loc, r3.Scale(0.5, c.Width), c.Depth, c.Offset

	for k := 0; k < 8; k++ {
		if counts[k] == 0 {
			continue
		}
		off := geom.ChildOffset(k)
		childLoc := r3.Vec{
			X: loc.X + float64(off[0])*half.X,
			Y: loc.Y + float64(off[1])*half.Y,
			Z: loc.Z + float64(off[2])*half.Z,
		}
		child := s.newCell(childLoc, half, depth+1, id, offset+offsets[k], counts[k])
		s.Cells[id].Progeny[k] = child
		s.split(child)
	}

	c = &s.Cells[id]
	c.HMax = 0
	for k := 0; k < 8; k++ {
		if c.Progeny[k] != NoCell && s.Cells[c.Progeny[k]].HMax > c.HMax {
			c.HMax = s.Cells[c.Progeny[k]].HMax
		}
	}
}

// octant returns the child index of the octant around mid which contains x.
func octant(x, mid r3.Vec) int {
	k := 0
	if x.X >= mid.X {
		k |= 4
	}
	if x.Y >= mid.Y {
		k |= 2
	}
	if x.Z >= mid.Z {
		k |= 1
	}
	return k
}

// Walk calls fn on c and every cell below it, parents before children.
func (s *Space) Walk(c *Cell, fn func(c *Cell)) {
	fn(c)
	if !c.Split {
		return
	}
	for k := 0; k < 8; k++ {
		if child := s.Progeny(c, k); child != nil {
			s.Walk(child, fn)
		}
	}
}

// UpdateHMax recomputes HMax for c and every cell below it after smoothing
// lengths have changed. It returns the new value for c.
func (s *Space) UpdateHMax(c *Cell) float64 {
	h := 0.0
	if c.Split {
		for k := 0; k < 8; k++ {
			if child := s.Progeny(c, k); child != nil {
				if hc := s.UpdateHMax(child); hc > h {
					h = hc
				}
			}
		}
	} else {
		for i := range c.Parts {
			if c.Parts[i].H > h {
				h = c.Parts[i].H
			}
		}
	}
	c.HMax = h
	return h
}
