package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// NumSids is the number of canonical directions linking two cells.
	NumSids = 13
	// AllSids is the mask with one bit set for every direction.
	AllSids uint16 = 1<<NumSids - 1

	centerOffset = 13
)

// Offset is a step in the 3x3x3 stencil of neighbouring cells.
type Offset [3]int

// Neg returns the opposite offset.
func (o Offset) Neg() Offset { return Offset{-o[0], -o[1], -o[2]} }

// Index returns the position of o in the 27-cell stencil, with the central
// cell at 13.
func (o Offset) Index() int {
	return (o[0]+1)*9 + (o[1]+1)*3 + (o[2]+1)
}

var (
	// SidOffsets lists the canonical offset of each direction. Every offset
	// here has a positive first non-zero component; the other 13 stencil
	// offsets are their mirror images.
	SidOffsets = [NumSids]Offset{
		{1, 1, 1}, {1, 1, 0}, {1, 1, -1},
		{1, 0, 1}, {1, 0, 0}, {1, 0, -1},
		{1, -1, 1}, {1, -1, 0}, {1, -1, -1},
		{0, 1, 1}, {0, 1, 0}, {0, 1, -1},
		{0, 0, 1},
	}

	// SortDirections are the unit vectors along SidOffsets. Particles are
	// sorted by their projection onto these.
	SortDirections [NumSids]r3.Vec
)

func init() {
	for sid, off := range SidOffsets {
		v := r3.Vec{X: float64(off[0]), Y: float64(off[1]), Z: float64(off[2])}
		SortDirections[sid] = r3.Unit(v)
	}
}

// SidOf returns the direction of a stencil offset. flip is true when o is
// the mirror image of the canonical offset, i.e. when the two cells must be
// swapped to get the canonical orientation. ok is false for the zero
// offset.
func SidOf(o Offset) (sid int, flip, ok bool) {
	idx := o.Index()
	switch {
	case idx > centerOffset:
		return 26 - idx, false, true
	case idx < centerOffset:
		return idx, true, true
	}
	return -1, false, false
}

// Pair describes how two cells are oriented relative to one another.
type Pair struct {
	// Sid is the canonical direction linking the cells.
	Sid int
	// Shift is added to the positions in the second cell to bring them
	// next to the first one.
	Shift r3.Vec
	// Flip is true if the cells need to be swapped for the canonical
	// offset SidOffsets[Sid] to point from the first cell to the second.
	Flip bool
}

// Classify finds the direction and periodic shift linking the cell at locA
// to the cell at locB. widthA is the width of the first cell; separations
// smaller than half of it along an axis count as zero along that axis. ok
// is false if the two cells sit on top of each other.
func Classify(locA, widthA, locB r3.Vec, box *Box) (p Pair, ok bool) {
	var off Offset

	for k := 0; k < 3; k++ {
		dx := At(locB, k) - At(locA, k)
		if box.Periodic {
			shift := ImageShift(dx, At(box.Dim, k))
			Set(&p.Shift, k, shift)
			dx += shift
		}

		halfWidth := At(widthA, k) / 2
		if dx > halfWidth {
			off[k] = 1
		} else if dx < -halfWidth {
			off[k] = -1
		}
	}

	p.Sid, p.Flip, ok = SidOf(off)
	return p, ok
}

// Offset returns the stencil offset from the first cell to the second.
func (p Pair) Offset() Offset {
	if p.Flip {
		return SidOffsets[p.Sid].Neg()
	}
	return SidOffsets[p.Sid]
}

// Swap returns the description of the same two cells with their order
// exchanged.
func (p Pair) Swap() Pair {
	return Pair{Sid: p.Sid, Shift: r3.Scale(-1, p.Shift), Flip: !p.Flip}
}
