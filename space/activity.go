package space

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// UpdateActivity recounts the active particles of every cell. A nil fn
// uses Particle.Active. fn is remembered and used by IsParticleActive
// until the next call.
func (s *Space) UpdateActivity(fn ActiveFunc) {
	s.active = fn
	for _, id := range s.TopCells {
		s.countActive(&s.Cells[id])
	}
}

func (s *Space) countActive(c *Cell) int {
	n := 0
	if c.Split {
		for k := 0; k < 8; k++ {
			if child := s.Progeny(c, k); child != nil {
				n += s.countActive(child)
			}
		}
	} else {
		for i := range c.Parts {
			if s.IsParticleActive(&c.Parts[i]) {
				n++
			}
		}
	}
	c.ActiveCount = n
	return n
}

// AssertDrifted panics with an Undrifted PreconditionError if c has not
// been drifted to the current time.
func (s *Space) AssertDrifted(c *Cell) {
	if c.TiDrift != s.TiCurrent {
		Fatalf(Undrifted, s.TiCurrent, []int32{c.ID},
			"Cell was drifted to ti = %d.", c.TiDrift)
	}
}

// Drift moves every particle in c by V*dt and brings the cell's
// displacement bounds up to date. Sorts which particles have moved too far
// from are dropped. Particles are not wrapped back into a periodic box
// until the next Rebuild, so they stay next to the cells that own them.
func (s *Space) Drift(c *Cell, dt float64, ti int64) {
	s.drift(c, dt, ti)
}

// drift returns the largest distance moved by a particle in c.
func (s *Space) drift(c *Cell, dt float64, ti int64) float64 {
	dx := 0.0

	if c.Split {
		for k := 0; k < 8; k++ {
			if child := s.Progeny(c, k); child != nil {
				dx = math.Max(dx, s.drift(child, dt, ti))
			}
		}
	} else {
		for i := range c.Parts {
			p := &c.Parts[i]
			step := r3.Scale(dt, p.V)
			p.X = r3.Add(p.X, step)
			p.TiDrift = ti
			dx = math.Max(dx, r3.Norm(step))
		}
	}

	c.DxMaxPart += dx
	c.DxMaxSort += dx
	c.DxMaxSortOld = c.DxMaxSort
	c.TiDrift = ti

	if c.DxMaxSortOld > s.Params.MaxRelDx*c.Dmin {
		c.Sorted = 0
	}

	return dx
}
