package engine

import (
	"log"
	"math"

	"github.com/phil-mansfield/sphcell/geom"
	"github.com/phil-mansfield/sphcell/iact"
	"github.com/phil-mansfield/sphcell/runner"
	"github.com/phil-mansfield/sphcell/space"
)

// hLimitSlack keeps clamped smoothing lengths strictly inside the largest
// value a top-level cell can hold.
const hLimitSlack = 0.999

// HLimit returns the largest smoothing length the tree can support. Room is
// left for particles in two top-level cells which have drifted towards each
// other.
func (e *Engine) HLimit() float64 {
	s := e.Space
	width := geom.MinComponent(s.Params.TopWidth()) - 2*s.MaxDrift()
	h := width / s.Params.KernelGamma * hLimitSlack
	if e.Config.HMax > 0 {
		h = math.Min(h, e.Config.HMax)
	}
	return h
}

// Density computes the densities of the active particles and iterates
// their smoothing lengths until n(h) h^3 = Eta^3. Particles which have not
// converged after each pass are recomputed against their own top-level
// cell and its neighbours only.
func (e *Engine) Density() {
	s := e.Space
	s.UpdateActivity(e.Active)

	pending := make([][]int, len(s.TopCells))
	for ci := range s.TopCells {
		c := s.Top(ci)
		for j := range c.Parts {
			if s.IsParticleActive(&c.Parts[j]) {
				c.Parts[j].Density.Reset()
				pending[ci] = append(pending[ci], c.Offset+j)
			}
		}
	}

	e.Sorts()
	e.Interact(iact.Density())

	hLimit := e.HLimit()
	for iter := 1; ; iter++ {
		e.Iterations = iter
		last := iter == e.Config.MaxIterations

		unconverged := make([]int, len(s.TopCells))
		e.parallel(len(s.TopCells), func(id, ci int) {
			pending[ci], unconverged[ci] = e.finishDensity(pending[ci], hLimit, last)
		})

		left := 0
		for ci := range pending {
			left += len(pending[ci])
		}
		if left == 0 || last {
			e.Unconverged = 0
			for _, n := range unconverged {
				e.Unconverged += n
			}
			break
		}

		e.parallel(len(s.TopCells), func(id, ci int) {
			s.UpdateHMax(s.Top(ci))
		})
		e.redoDensity(pending)
	}

	if e.Unconverged > 0 && e.Config.Log {
		log.Printf("%d particles did not converge after %d iterations.",
			e.Unconverged, e.Iterations)
	}
}

// finishDensity completes the sums of the particles in indices and takes a
// Newton step on their smoothing lengths. It returns the particles which
// must be recomputed with their new smoothing lengths. On the last pass
// nothing is recomputed and the number of particles which failed to
// converge is returned instead.
func (e *Engine) finishDensity(
	indices []int, hLimit float64, last bool,
) (redo []int, unconverged int) {
	s := e.Space
	redo = indices[:0]
	for _, i := range indices {
		p := &s.Parts[i]
		iact.EndDensity(p)

		h, ok := e.newtonH(p, hLimit)
		switch {
		case ok:
		case last:
			unconverged++
		default:
			p.H = h
			p.Density.Reset()
			redo = append(redo, i)
		}
	}
	return redo, unconverged
}

// newtonH returns the next guess for p's smoothing length and whether the
// current one is already good enough.
func (e *Engine) newtonH(p *space.Particle, hLimit float64) (float64, bool) {
	h := p.H
	d := &p.Density

	target := e.Config.Eta * e.Config.Eta * e.Config.Eta
	f := d.Wcount*h*h*h - target
	fPrime := d.WcountDh*h*h*h + iact.Dim*d.Wcount*h*h

	hNew := 2 * h
	if fPrime != 0 {
		hNew = h - f/fPrime
	}
	hNew = math.Max(0.5*h, math.Min(2*h, hNew))
	hNew = math.Max(e.Config.HMin, math.Min(hLimit, hNew))

	return hNew, math.Abs(hNew-h) < e.Config.Tolerance*h
}

// redoDensity recomputes the sums of the particles in pending against
// their own top-level cell and its neighbours. Only the pending particles
// are written, so top-level cells can be processed in any order.
func (e *Engine) redoDensity(pending [][]int) {
	s := e.Space
	e.runners = make([]*runner.Runner, e.workers)
	for i := range e.runners {
		e.runners[i] = runner.New(s, runner.Kernel{NonSymmetric: iact.DensityNonSym})
	}

	e.parallel(len(s.TopCells), func(id, ci int) {
		if len(pending[ci]) == 0 {
			return
		}
		r := e.runners[id]
		c := s.Top(ci)
		r.DoSubset(c, pending[ci], nil)
		for _, off := range neighborOffsets {
			if cj, ok := s.Grid.Neighbor(ci, off); ok {
				r.DoSubset(c, pending[ci], s.Top(cj))
			}
		}
	})

	for _, r := range e.runners {
		e.Stats.Add(r.Stats)
	}
}

// neighborOffsets lists all 26 steps to neighbouring cells.
var neighborOffsets = func() []geom.Offset {
	offs := []geom.Offset{}
	for _, off := range geom.SidOffsets {
		offs = append(offs, off, off.Neg())
	}
	return offs
}()
