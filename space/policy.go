package space

import (
	"math"
)

// CanRecurseSelf returns true if the interactions inside c can be handed
// down to its children. That is safe when every search radius, grown by
// the distance particles have moved since the tree was built, fits inside
// a child cell: then children which do not touch cannot interact.
func (s *Space) CanRecurseSelf(c *Cell) bool {
	return c.Split &&
		c.HMax*s.Params.KernelGamma+c.DxMaxPart < 0.5*c.Dmin
}

// CanRecursePair is the pair version of CanRecurseSelf.
func (s *Space) CanRecursePair(a, b *Cell) bool {
	if !a.Split || !b.Split {
		return false
	}
	h := math.Max(a.HMax, b.HMax) * s.Params.KernelGamma
	dmin := math.Min(a.Dmin, b.Dmin)
	return h+a.DxMaxPart+b.DxMaxPart < 0.5*dmin
}

// NeedsRebuild returns true if particles in some top-level cell have moved
// far enough that the tree no longer describes them well, or far enough
// that a search radius could reach past the neighbouring top-level cells.
func (s *Space) NeedsRebuild() bool {
	hMax, dmin := 0.0, math.Inf(+1)
	for _, id := range s.TopCells {
		c := &s.Cells[id]
		if c.DxMaxPart > s.Params.MaxRelDx*c.Dmin {
			return true
		}
		hMax, dmin = math.Max(hMax, c.HMax), math.Min(dmin, c.Dmin)
	}
	return hMax*s.Params.KernelGamma+2*s.MaxDrift() > dmin
}

// MaxDrift returns the largest distance any particle has moved since the
// tree was built.
func (s *Space) MaxDrift() float64 {
	dx := 0.0
	for _, id := range s.TopCells {
		dx = math.Max(dx, s.Cells[id].DxMaxPart)
	}
	return dx
}
