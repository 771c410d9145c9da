package geom

// ChildPair names one child of each of two neighbouring cells.
type ChildPair struct {
	A, B int
}

// ChildPairs lists, for every direction, the pairs of children that can
// touch when the second cell sits at SidOffsets[sid] relative to the first.
// Children are numbered (ix<<2)|(iy<<1)|iz. Child pairs that are not listed
// are separated by at least one child width along some axis.
var ChildPairs [NumSids][]ChildPair

func init() {
	for sid, off := range SidOffsets {
		for a := 0; a < 8; a++ {
			for b := 0; b < 8; b++ {
				if childrenTouch(a, b, off) {
					ChildPairs[sid] = append(ChildPairs[sid], ChildPair{a, b})
				}
			}
		}
	}
}

// ChildOctant returns 0 if child k lies in the lower half of its parent
// along the given axis and 1 otherwise.
func ChildOctant(k, axis int) int {
	return (k >> uint(2-axis)) & 1
}

// ChildOffset returns the position of child k in units of the child width,
// relative to the parent's origin.
func ChildOffset(k int) Offset {
	return Offset{ChildOctant(k, 0), ChildOctant(k, 1), ChildOctant(k, 2)}
}

// childrenTouch measures the separation between child a of one cell and
// child b of a cell at offset off, in child widths.
func childrenTouch(a, b int, off Offset) bool {
	for k := 0; k < 3; k++ {
		d := 2*off[k] + ChildOctant(b, k) - ChildOctant(a, k)
		if d > 1 || d < -1 {
			return false
		}
	}
	return true
}
