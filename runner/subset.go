package runner

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/geom"
	"github.com/phil-mansfield/sphcell/space"
)

// DoSubset applies the non-symmetric kernel to the particles of Space.Parts
// named by indices, using c's particles as sources if other is nil and
// other's particles otherwise. Every index must lie in c. Only the subset
// particles are updated.
func (r *Runner) DoSubset(c *space.Cell, indices []int, other *space.Cell) {
	if r.Kernel.NonSymmetric == nil {
		panic("DoSubset needs a non-symmetric kernel.")
	}
	if len(indices) == 0 {
		return
	}

	for _, i := range indices {
		if !c.Contains(i) {
			space.Fatalf(space.Subset, r.Space.TiCurrent, []int32{c.ID},
				"Particle index %d is outside the cell's range [%d, %d).",
				i, c.Offset, c.Offset+c.Count())
		}
	}

	if other == nil {
		r.subsetSelf(c, indices)
	} else {
		r.subsetPair(c, indices, other)
	}
}

// groupByChild splits indices by the child of c that holds them.
func (r *Runner) groupByChild(c *space.Cell, indices []int) [8][]int {
	groups := [8][]int{}
	for _, i := range indices {
		for k := 0; k < 8; k++ {
			ck := r.Space.Progeny(c, k)
			if ck != nil && ck.Contains(i) {
				groups[k] = append(groups[k], i)
				break
			}
		}
	}
	return groups
}

func (r *Runner) subsetSelf(c *space.Cell, indices []int) {
	s := r.Space
	if s.CanRecurseSelf(c) {
		r.Stats.Recursions++
		groups := r.groupByChild(c, indices)
		for k := 0; k < 8; k++ {
			if len(groups[k]) == 0 {
				continue
			}
			ck := s.Progeny(c, k)
			r.subsetSelf(ck, groups[k])
			for j := 0; j < 8; j++ {
				if cj := s.Progeny(c, j); j != k && cj != nil {
					r.subsetPair(ck, groups[k], cj)
				}
			}
		}
		return
	}

	s.AssertDrifted(c)
	r.checkGeometry(c)
	r.Stats.SubsetDirect++

	for _, gi := range indices {
		pi := &s.Parts[gi]
		hig2 := pi.H * pi.H * r.gamma2
		for j := range c.Parts {
			if c.Offset+j == gi {
				continue
			}
			pj := &c.Parts[j]
			dx := r3.Sub(pi.X, pj.X)
			r2 := r3.Norm2(dx)
			r.Stats.Candidates++
			if r2 > 0 && r2 < hig2 {
				r.Kernel.NonSymmetric(pi, pj, r2, dx)
				r.Stats.Interactions++
			}
		}
	}
}

func (r *Runner) subsetPair(c *space.Cell, indices []int, other *space.Cell) {
	if other.Count() == 0 {
		return
	}

	s := r.Space
	p, ok := geom.Classify(c.Loc, c.Width, other.Loc, &s.Box)
	if !ok {
		space.Fatalf(space.Geometry, s.TiCurrent, []int32{c.ID, other.ID},
			"Cells overlap and cannot form a pair.")
	}

	if s.CanRecursePair(c, other) {
		r.Stats.Recursions++
		groups := r.groupByChild(c, indices)
		for _, cp := range geom.ChildPairs[p.Sid] {
			kc, ko := cp.A, cp.B
			if p.Flip {
				kc, ko = cp.B, cp.A
			}
			co := s.Progeny(other, ko)
			if len(groups[kc]) == 0 || co == nil {
				continue
			}
			r.subsetPair(s.Progeny(c, kc), groups[kc], co)
		}
		return
	}

	s.AssertDrifted(c)
	s.AssertDrifted(other)
	r.checkGeometry(c, other)
	r.Stats.SubsetDirect++

	for _, gi := range indices {
		pi := &s.Parts[gi]
		hig2 := pi.H * pi.H * r.gamma2
		for j := range other.Parts {
			pj := &other.Parts[j]
			dx := r3.Sub(pi.X, r3.Add(pj.X, p.Shift))
			r2 := r3.Norm2(dx)
			r.Stats.Candidates++
			if r2 < hig2 {
				r.Kernel.NonSymmetric(pi, pj, r2, dx)
				r.Stats.Interactions++
			}
		}
	}
}
