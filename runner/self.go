package runner

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/space"
)

// DoSelf applies the kernel to every pair of particles inside c.
func (r *Runner) DoSelf(c *space.Cell) {
	if c.Count() == 0 || !c.IsActive() {
		return
	}

	s := r.Space
	if s.CanRecurseSelf(c) {
		r.Stats.Recursions++
		for j := 0; j < 8; j++ {
			cj := s.Progeny(c, j)
			if cj == nil {
				continue
			}
			r.DoSelf(cj)
			for k := j + 1; k < 8; k++ {
				if ck := s.Progeny(c, k); ck != nil {
					r.DoPair(cj, ck)
				}
			}
		}
		return
	}

	r.selfDirect(c)
}

func (r *Runner) selfDirect(c *space.Cell) {
	r.Space.AssertDrifted(c)
	r.checkGeometry(c)
	r.Stats.SelfDirect++

	parts := c.Parts
	for i := range parts {
		pi := &parts[i]
		for j := i + 1; j < len(parts); j++ {
			pj := &parts[j]
			dx := r3.Sub(pi.X, pj.X)
			r2 := r3.Norm2(dx)
			if r2 > 0 {
				r.apply(pi, pj, r2, dx)
			}
		}
	}
}
