/*package runner walks pairs of cells in the cell tree and applies
interaction kernels to every pair of particles that lie within reach of one
another.

Every traversal starts from one of three entry points: DoSelf handles the
particles inside a single cell, DoPair handles the particles shared between
two neighbouring cells and DoSubset handles a chosen set of particles
against a cell. Each entry point either recurses into the children of its
cells, following the recursion policy of the space package, or runs a
direct loop over particles.
*/
package runner

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/space"
)

// SymmetricFunc updates both particles of an interacting pair. dx is
// pi.X - pj.X with the periodic shift applied.
type SymmetricFunc func(pi, pj *space.Particle, r2 float64, dx r3.Vec)

// NonSymmetricFunc updates target only. dx is target.X - source.X with the
// periodic shift applied.
type NonSymmetricFunc func(target, source *space.Particle, r2 float64, dx r3.Vec)

// Kernel is the pair of functions a Runner applies.
type Kernel struct {
	Symmetric    SymmetricFunc
	NonSymmetric NonSymmetricFunc
}

// Mode selects how a Runner applies its Kernel.
type Mode int

const (
	// SymmetricMode visits every unordered pair once and updates both
	// sides at the same time.
	SymmetricMode Mode = iota
	// NonSymmetricMode visits every ordered pair once, using the target's
	// search radius.
	NonSymmetricMode
)

// Stats counts the work done by a Runner.
type Stats struct {
	SelfDirect, PairDirect, SubsetDirect int
	Recursions                           int
	// Candidates is the number of particle pairs whose separation was
	// computed. Interactions is the number of kernel calls.
	Candidates, Interactions int
}

// Add adds the counters in x to st.
func (st *Stats) Add(x Stats) {
	st.SelfDirect += x.SelfDirect
	st.PairDirect += x.PairDirect
	st.SubsetDirect += x.SubsetDirect
	st.Recursions += x.Recursions
	st.Candidates += x.Candidates
	st.Interactions += x.Interactions
}

// Runner dispatches interactions over the cells of one Space. A Runner is
// not safe for concurrent use, but any number of Runners can work on the
// same Space at once as long as they touch disjoint cells.
type Runner struct {
	Space  *space.Space
	Kernel Kernel
	Mode   Mode
	Stats  Stats

	gamma, gamma2 float64
}

// New returns a Runner which applies k to the particles of s. The Runner
// works in SymmetricMode if k.Symmetric is set and in NonSymmetricMode
// otherwise.
func New(s *space.Space, k Kernel) *Runner {
	r := &Runner{Space: s, Kernel: k}
	switch {
	case k.Symmetric != nil:
		r.Mode = SymmetricMode
	case k.NonSymmetric != nil:
		r.Mode = NonSymmetricMode
	default:
		panic("Kernel has neither a symmetric nor a non-symmetric function.")
	}
	r.gamma = s.Params.KernelGamma
	r.gamma2 = r.gamma * r.gamma
	return r
}

// apply calls the kernel on a candidate pair. dx = pi.X - pj.X.
func (r *Runner) apply(pi, pj *space.Particle, r2 float64, dx r3.Vec) {
	r.Stats.Candidates++

	hig2 := pi.H * pi.H * r.gamma2
	hjg2 := pj.H * pj.H * r.gamma2
	if r2 >= hig2 && r2 >= hjg2 {
		return
	}

	ai := r.Space.IsParticleActive(pi)
	aj := r.Space.IsParticleActive(pj)

	if r.Mode == SymmetricMode {
		switch {
		case ai && aj:
			r.Kernel.Symmetric(pi, pj, r2, dx)
			r.Stats.Interactions++
			return
		case r.Kernel.NonSymmetric == nil:
			if ai || aj {
				r.Kernel.Symmetric(pi, pj, r2, dx)
				r.Stats.Interactions++
			}
			return
		}
	}

	if ai && r2 < hig2 {
		r.Kernel.NonSymmetric(pi, pj, r2, dx)
		r.Stats.Interactions++
	}
	if aj && r2 < hjg2 {
		r.Kernel.NonSymmetric(pj, pi, r2, r3.Scale(-1, dx))
		r.Stats.Interactions++
	}
}

// checkGeometry stops the run if c is too small for the smoothing lengths
// of its particles and the distance they have drifted: neighbours of its
// neighbours could then be in reach.
func (r *Runner) checkGeometry(cells ...*space.Cell) {
	for _, c := range cells {
		if c.HMax*r.gamma+c.DxMaxPart > c.Dmin {
			space.Fatalf(space.Geometry, r.Space.TiCurrent, []int32{c.ID},
				"Cell smaller than smoothing length: HMax*gamma = %g, "+
					"DxMaxPart = %g, Dmin = %g.",
				c.HMax*r.gamma, c.DxMaxPart, c.Dmin)
		}
	}
}

func maxH(a, b *space.Cell) float64 { return math.Max(a.HMax, b.HMax) }
