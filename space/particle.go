package space

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind is the species of a particle.
type Kind int

const (
	Gas Kind = iota
	Star
)

var kindNames = []string{"Gas", "Star"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts the name of a species into a Kind. Matching is case
// insensitive.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("Unrecognized particle kind '%s'.", s)
}

// Density holds the quantities accumulated by the density loop.
type Density struct {
	Rho, RhoDh       float64
	Wcount, WcountDh float64
	Neighbors        int
}

// Reset zeroes every accumulator.
func (d *Density) Reset() { *d = Density{} }

// Particle is a single point in the particle store. Cells refer to
// particles through contiguous ranges of Space.Parts, so particles are
// always handled by pointer into that slice.
type Particle struct {
	ID   int64
	Kind Kind

	X, V r3.Vec
	Mass float64
	// H is the smoothing length. The interaction radius is H * KernelGamma.
	H float64
	U float64

	Active  bool
	TiDrift int64

	Density Density
}
