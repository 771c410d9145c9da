package space

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/geom"
)

// sortSlack is the relative tolerance CheckSort allows on top of
// DxMaxSort for floating point error in the projections.
const sortSlack = 1e-10

// Sort builds the projection list of c along direction sid. If c already
// holds sorts in other directions which particles have since moved away
// from, those are rebuilt too: a cell carries only one displacement bound,
// and it is reset here.
func (s *Space) Sort(c *Cell, sid int) {
	bit := uint16(1) << uint(sid)
	if c.Sorted&bit != 0 && c.DxMaxSort == 0 {
		return
	}

	if c.DxMaxSort > 0 {
		for other := 0; other < geom.NumSids; other++ {
			if other != sid && c.Sorted&(1<<uint(other)) != 0 {
				s.sortDirection(c, other)
			}
		}
	}

	s.sortDirection(c, sid)
	c.Sorted |= bit
	c.DxMaxSort, c.DxMaxSortOld = 0, 0
}

func (s *Space) sortDirection(c *Cell, sid int) {
	dir := geom.SortDirections[sid]

	list := c.sort[sid]
	if cap(list) < c.Count() {
		list = make([]SortEntry, c.Count())
	}
	list = list[:c.Count()]

	for i := range c.Parts {
		list[i] = SortEntry{D: r3.Dot(c.Parts[i].X, dir), I: int32(i)}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].D < list[j].D })

	c.sort[sid] = list
}

// SortValid returns true if the sort of c along sid exists and particles
// have not drifted too far for it to be used.
func (s *Space) SortValid(c *Cell, sid int) bool {
	return c.Sorted&(1<<uint(sid)) != 0 &&
		c.DxMaxSortOld <= s.Params.MaxRelDx*c.Dmin
}

// CheckSort verifies that every stored projection of c along sid lies
// within DxMaxSort of the particle's current projection. It is slow and is
// only called by the traversal code when built with -tags debugchecks.
func (s *Space) CheckSort(c *Cell, sid int) {
	if c.Sorted&(1<<uint(sid)) == 0 {
		Fatalf(Unsorted, s.TiCurrent, []int32{c.ID},
			"Cell has no sort in direction %d.", sid)
	}

	dir := geom.SortDirections[sid]
	list := c.sort[sid]
	if len(list) != c.Count() {
		Fatalf(SortDrift, s.TiCurrent, []int32{c.ID},
			"Sort holds %d entries, but the cell holds %d particles.",
			len(list), c.Count())
	}

	for _, e := range list {
		d := r3.Dot(c.Parts[e.I].X, dir)
		tol := c.DxMaxSort + sortSlack*math.Max(c.Dmin, math.Abs(d))
		if math.Abs(d-e.D) > tol {
			Fatalf(SortDrift, s.TiCurrent, []int32{c.ID},
				"Particle %d moved %g along direction %d, but DxMaxSort = %g.",
				c.Parts[e.I].ID, math.Abs(d-e.D), sid, c.DxMaxSort)
		}
	}
}
