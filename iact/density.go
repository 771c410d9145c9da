package iact

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/runner"
	"github.com/phil-mansfield/sphcell/space"
)

// Density returns the kernel which accumulates SPH densities: gas-gas
// pairs contribute to the density of both particles and stars collect the
// gas around them. The sums must be finished with EndDensity.
func Density() runner.Kernel {
	return runner.Kernel{Symmetric: DensitySym, NonSymmetric: DensityNonSym}
}

// accumulate adds the contribution of a source of mass m at distance r to
// the sums of target.
func accumulate(target *space.Particle, m, r float64) {
	u := r / target.H
	w, dwdu := Eval(u)
	if w == 0 {
		return
	}

	d := &target.Density
	d.Rho += m * w
	d.RhoDh -= m * (Dim*w + u*dwdu)
	d.Wcount += w
	d.WcountDh -= Dim*w + u*dwdu
	d.Neighbors++
}

// DensitySym updates both particles of a pair.
func DensitySym(pi, pj *space.Particle, r2 float64, dx r3.Vec) {
	switch {
	case pi.Kind == space.Gas && pj.Kind == space.Gas:
		r := math.Sqrt(r2)
		accumulate(pi, pj.Mass, r)
		accumulate(pj, pi.Mass, r)
	case pi.Kind == space.Star && pj.Kind == space.Gas:
		StarDensity(pi, pj, r2, dx)
	case pi.Kind == space.Gas && pj.Kind == space.Star:
		StarDensity(pj, pi, r2, r3.Scale(-1, dx))
	}
}

// DensityNonSym updates target only.
func DensityNonSym(target, source *space.Particle, r2 float64, dx r3.Vec) {
	if source.Kind != space.Gas {
		return
	}
	if target.Kind == space.Star {
		StarDensity(target, source, r2, dx)
		return
	}
	accumulate(target, source.Mass, math.Sqrt(r2))
}

// StarDensity adds a gas particle to the neighbour sums of a star.
func StarDensity(star, gas *space.Particle, r2 float64, dx r3.Vec) {
	if star.Kind != space.Star || gas.Kind != space.Gas {
		return
	}
	accumulate(star, gas.Mass, math.Sqrt(r2))
}

// EndDensity adds p's own contribution to its sums and converts them to
// physical units.
func EndDensity(p *space.Particle) {
	d := &p.Density
	if p.Kind == space.Gas {
		d.Rho += p.Mass * Root
		d.RhoDh -= p.Mass * Dim * Root
	}
	d.Wcount += Root
	d.WcountDh -= Dim * Root

	hInv := 1 / p.H
	hInv3 := hInv * hInv * hInv
	d.Rho *= hInv3
	d.RhoDh *= hInv3 * hInv
	d.Wcount *= hInv3
	d.WcountDh *= hInv3 * hInv
}

// Count returns a kernel that only counts neighbours: the target of every
// interaction has Density.Neighbors incremented.
func Count() runner.Kernel {
	return runner.Kernel{Symmetric: CountSym, NonSymmetric: CountNonSym}
}

// CountSym counts each particle for the other if it lies within the
// other's radius.
func CountSym(pi, pj *space.Particle, r2 float64, dx r3.Vec) {
	if r2 < pi.H*pi.H*Gamma*Gamma {
		pi.Density.Neighbors++
	}
	if r2 < pj.H*pj.H*Gamma*Gamma {
		pj.Density.Neighbors++
	}
}

// CountNonSym counts source as a neighbour of target.
func CountNonSym(target, source *space.Particle, r2 float64, dx r3.Vec) {
	target.Density.Neighbors++
}
