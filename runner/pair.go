package runner

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/geom"
	"github.com/phil-mansfield/sphcell/space"
)

// DoPair applies the kernel to every pair of particles with one particle in
// a and the other in b. a and b must be neighbours.
func (r *Runner) DoPair(a, b *space.Cell) {
	if a.Count() == 0 || b.Count() == 0 {
		return
	}
	if !a.IsActive() && !b.IsActive() {
		return
	}

	s := r.Space
	p, ok := geom.Classify(a.Loc, a.Width, b.Loc, &s.Box)
	if !ok {
		space.Fatalf(space.Geometry, s.TiCurrent, []int32{a.ID, b.ID},
			"Cells overlap and cannot form a pair.")
	}
	if p.Flip {
		a, b, p = b, a, p.Swap()
	}

	if s.CanRecursePair(a, b) {
		r.Stats.Recursions++
		for _, cp := range geom.ChildPairs[p.Sid] {
			ca, cb := s.Progeny(a, cp.A), s.Progeny(b, cp.B)
			if ca != nil && cb != nil {
				r.DoPair(ca, cb)
			}
		}
		return
	}

	r.pairDirect(a, b, p)
}

// checkSort stops the run if c cannot be used in a sorted pair loop along
// sid.
func (r *Runner) checkSort(c *space.Cell, sid int) {
	s := r.Space
	if c.Sorted&(1<<uint(sid)) == 0 {
		space.Fatalf(space.Unsorted, s.TiCurrent, []int32{c.ID},
			"Cell has no sort in direction %d.", sid)
	}
	if !s.SortValid(c, sid) {
		space.Fatalf(space.StaleSort, s.TiCurrent, []int32{c.ID},
			"Particles moved %g since the sort in direction %d, but only "+
				"%g is allowed.", c.DxMaxSortOld, sid, s.Params.MaxRelDx*c.Dmin)
	}
	if space.DebugChecks {
		s.CheckSort(c, sid)
	}
}

// pairDirect sweeps the particles of a and b in order of their projection
// along the pair's direction. b lies further along that direction than a,
// so a is walked from the top of its sort and b from the bottom, and both
// loops stop once the stored projections are further apart than any
// search radius plus the distance particles can have moved since sorting.
func (r *Runner) pairDirect(a, b *space.Cell, p geom.Pair) {
	s := r.Space
	s.AssertDrifted(a)
	s.AssertDrifted(b)
	r.checkSort(a, p.Sid)
	r.checkSort(b, p.Sid)
	r.checkGeometry(a, b)
	r.Stats.PairDirect++

	sortA, sortB := a.SortList(p.Sid), b.SortList(p.Sid)
	dshift := r3.Dot(p.Shift, geom.SortDirections[p.Sid])
	reach := maxH(a, b)*r.gamma + a.DxMaxSort + b.DxMaxSort
	dbMin := sortB[0].D + dshift

	for i := len(sortA) - 1; i >= 0; i-- {
		da := sortA[i].D
		if dbMin-da > reach {
			break
		}

		pi := &a.Parts[sortA[i].I]
		for j := range sortB {
			if sortB[j].D+dshift-da > reach {
				break
			}
			pj := &b.Parts[sortB[j].I]
			dx := r3.Sub(pi.X, r3.Add(pj.X, p.Shift))
			r.apply(pi, pj, r3.Norm2(dx), dx)
		}
	}
}
