package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is the simulation volume. It is anchored at the origin and, when
// Periodic is set, wraps around in every dimension.
type Box struct {
	Dim      r3.Vec
	Periodic bool
}

// At returns the k-th component of v.
func At(v r3.Vec, k int) float64 {
	switch k {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic("Vector component out of range.")
}

// Set sets the k-th component of v to x.
func Set(v *r3.Vec, k int, x float64) {
	switch k {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	case 2:
		v.Z = x
	default:
		panic("Vector component out of range.")
	}
}

// MinComponent returns the smallest component of v.
func MinComponent(v r3.Vec) float64 {
	return math.Min(v.X, math.Min(v.Y, v.Z))
}

// Wrap takes a value and interprets it as a position defined within a
// periodic domain of the given width.
func Wrap(x, width float64) float64 {
	if x < 0 || x >= width {
		x = math.Mod(x, width)
		if x < 0 {
			x += width
		}
		// Rounding can push tiny negative values up to exactly width.
		if x >= width {
			x = 0
		}
	}
	return x
}

// Wrap wraps a position into the box. Non-periodic boxes leave it alone.
func (b *Box) Wrap(x r3.Vec) r3.Vec {
	if !b.Periodic {
		return x
	}
	return r3.Vec{
		X: Wrap(x.X, b.Dim.X),
		Y: Wrap(x.Y, b.Dim.Y),
		Z: Wrap(x.Z, b.Dim.Z),
	}
}

// Contains returns true if x is inside the half-open box [0, Dim).
func (b *Box) Contains(x r3.Vec) bool {
	return x.X >= 0 && x.Y >= 0 && x.Z >= 0 &&
		x.X < b.Dim.X && x.Y < b.Dim.Y && x.Z < b.Dim.Z
}

// ImageShift returns the correction that maps the separation dx onto its
// minimum image within a periodic dimension of the given width. The result
// is one of -width, 0 and +width.
func ImageShift(dx, width float64) float64 {
	if dx > width/2 {
		return -width
	} else if dx < -width/2 {
		return width
	}
	return 0
}

// MinImage returns the separation x1 - x2 under the minimum-image
// convention.
func MinImage(x1, x2, width float64) float64 {
	dx := x1 - x2
	return dx + ImageShift(dx, width)
}

// Separation returns x1 - x2, wrapped onto the minimum image if the box is
// periodic.
func (b *Box) Separation(x1, x2 r3.Vec) r3.Vec {
	dx := r3.Sub(x1, x2)
	if !b.Periodic {
		return dx
	}
	dx.X += ImageShift(dx.X, b.Dim.X)
	dx.Y += ImageShift(dx.Y, b.Dim.Y)
	dx.Z += ImageShift(dx.Z, b.Dim.Z)
	return dx
}
