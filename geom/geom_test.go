package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const testEps = 1e-12

func allOffsets() []Offset {
	offs := []Offset{}
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				offs = append(offs, Offset{x, y, z})
			}
		}
	}
	return offs
}

func TestGridCoords(t *testing.T) {
	g := NewGrid([3]int{3, 4, 5}, true)
	for idx := 0; idx < g.Volume; idx++ {
		x, y, z := g.Coords(idx)
		if g.Idx(x, y, z) != idx {
			t.Errorf("%d) Coords gave (%d %d %d), which maps to %d.",
				idx, x, y, z, g.Idx(x, y, z))
		}
	}
}

func TestGridNeighbor(t *testing.T) {
	table := []struct {
		periodic bool
		x, y, z  int
		off      Offset
		nx, ny   int
		nz       int
		ok       bool
	}{
		{true, 0, 0, 0, Offset{-1, 0, 0}, 2, 0, 0, true},
		{true, 2, 2, 2, Offset{1, 1, 1}, 0, 0, 0, true},
		{true, 1, 1, 1, Offset{0, -1, 1}, 1, 0, 2, true},
		{false, 0, 0, 0, Offset{-1, 0, 0}, 0, 0, 0, false},
		{false, 1, 1, 1, Offset{1, 1, 1}, 2, 2, 2, true},
	}

	for i, test := range table {
		g := NewGrid([3]int{3, 3, 3}, test.periodic)
		idx, ok := g.Neighbor(g.Idx(test.x, test.y, test.z), test.off)
		if ok != test.ok {
			t.Errorf("%d) Expected ok = %v, got %v.", i, test.ok, ok)
		} else if ok && idx != g.Idx(test.nx, test.ny, test.nz) {
			x, y, z := g.Coords(idx)
			t.Errorf("%d) Expected (%d %d %d), got (%d %d %d).",
				i, test.nx, test.ny, test.nz, x, y, z)
		}
	}
}

func TestWrap(t *testing.T) {
	table := []struct {
		x, width, res float64
	}{
		{0.5, 1, 0.5},
		{-0.25, 1, 0.75},
		{1.25, 1, 0.25},
		{1, 1, 0},
		{-3.5, 2, 0.5},
	}

	for i, test := range table {
		assert.InDelta(t, test.res, Wrap(test.x, test.width), testEps,
			"%d) Wrap(%g, %g)", i, test.x, test.width)
	}
}

func TestMinImage(t *testing.T) {
	w := 10.0
	assert.InDelta(t, -4.0, MinImage(6, 0, w), testEps)
	assert.InDelta(t, 4.0, MinImage(0, 6, w), testEps)
	assert.InDelta(t, 3.0, MinImage(3, 0, w), testEps)
	assert.InDelta(t, 5.0, MinImage(5, 0, w), testEps)
}

func TestClassifyMinimumImage(t *testing.T) {
	w := 10.0
	box := &Box{Dim: r3.Vec{X: w, Y: w, Z: w}, Periodic: true}
	width := r3.Vec{X: 1, Y: 1, Z: 1}

	locA := r3.Vec{}
	locB := r3.Vec{X: 0.6 * w}
	p, ok := Classify(locA, width, locB, box)
	require.True(t, ok)

	assert.InDelta(t, -w, p.Shift.X, testEps)
	corrected := locB.X + p.Shift.X - locA.X
	assert.InDelta(t, -0.4*w, corrected, testEps)
	assert.True(t, math.Abs(corrected) <= w/2)
	assert.Equal(t, 0.0, p.Shift.Y)
	assert.Equal(t, 0.0, p.Shift.Z)
}

func TestClassifySymmetry(t *testing.T) {
	cells := 5
	w := 1.0 / float64(cells)
	box := &Box{Dim: r3.Vec{X: 1, Y: 1, Z: 1}, Periodic: true}
	width := r3.Vec{X: w, Y: w, Z: w}

	// Every origin cell, including the ones on the box faces, against every
	// stencil offset.
	for _, origin := range []Offset{{0, 0, 0}, {2, 2, 2}, {4, 4, 4}, {0, 4, 2}} {
		for _, off := range allOffsets() {
			locA := r3.Vec{
				X: float64(origin[0]) * w,
				Y: float64(origin[1]) * w,
				Z: float64(origin[2]) * w,
			}
			locB := r3.Vec{
				X: Wrap(locA.X+float64(off[0])*w, 1),
				Y: Wrap(locA.Y+float64(off[1])*w, 1),
				Z: Wrap(locA.Z+float64(off[2])*w, 1),
			}

			pAB, okAB := Classify(locA, width, locB, box)
			pBA, okBA := Classify(locB, width, locA, box)
			require.True(t, okAB)
			require.True(t, okBA)

			assert.Equal(t, off, pAB.Offset(), "offset %v from %v", off, origin)
			assert.Equal(t, off.Neg(), pBA.Offset())
			assert.Equal(t, pAB.Sid, pBA.Sid)
			assert.NotEqual(t, pAB.Flip, pBA.Flip)

			assert.InDelta(t, -pAB.Shift.X, pBA.Shift.X, testEps)
			assert.InDelta(t, -pAB.Shift.Y, pBA.Shift.Y, testEps)
			assert.InDelta(t, -pAB.Shift.Z, pBA.Shift.Z, testEps)

			swapped := pAB.Swap()
			assert.Equal(t, pBA.Sid, swapped.Sid)
			assert.Equal(t, pBA.Flip, swapped.Flip)
		}
	}
}

func TestClassifyNonPeriodic(t *testing.T) {
	box := &Box{Dim: r3.Vec{X: 1, Y: 1, Z: 1}}
	width := r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}

	p, ok := Classify(r3.Vec{}, width, r3.Vec{X: 0.75}, box)
	require.True(t, ok)
	assert.Equal(t, r3.Vec{}, p.Shift)
	assert.Equal(t, Offset{1, 0, 0}, p.Offset())

	_, ok = Classify(r3.Vec{X: 0.5}, width, r3.Vec{X: 0.5}, box)
	assert.False(t, ok)
}

func TestSidCoverage(t *testing.T) {
	seen := [NumSids]int{}
	for _, off := range allOffsets() {
		sid, flip, ok := SidOf(off)
		require.True(t, ok)
		seen[sid]++

		if flip {
			assert.Equal(t, off.Neg(), SidOffsets[sid])
		} else {
			assert.Equal(t, off, SidOffsets[sid])
		}
	}

	for sid, n := range seen {
		assert.Equal(t, 2, n, "sid %d", sid)
	}

	_, _, ok := SidOf(Offset{})
	assert.False(t, ok)
}

func TestSortDirections(t *testing.T) {
	for sid, dir := range SortDirections {
		assert.InDelta(t, 1.0, r3.Norm(dir), testEps, "sid %d", sid)
		off := SidOffsets[sid]
		assert.True(t, r3.Dot(dir, r3.Vec{
			X: float64(off[0]), Y: float64(off[1]), Z: float64(off[2]),
		}) > 0)
	}
}

func TestChildPairs(t *testing.T) {
	// Face neighbours share 16 child pairs, edges 4 and corners 1.
	expected := [NumSids]int{1, 4, 1, 4, 16, 4, 1, 4, 1, 4, 16, 4, 16}
	for sid := 0; sid < NumSids; sid++ {
		if len(ChildPairs[sid]) != expected[sid] {
			t.Errorf("%d) Expected %d child pairs, got %d.",
				sid, expected[sid], len(ChildPairs[sid]))
		}
	}

	assert.Equal(t, []ChildPair{{7, 0}}, ChildPairs[0])
	assert.Equal(t, []ChildPair{{6, 1}}, ChildPairs[2])
	assert.Equal(t, []ChildPair{{4, 3}}, ChildPairs[8])
	assert.Equal(t,
		[]ChildPair{{2, 1}, {2, 5}, {6, 1}, {6, 5}},
		ChildPairs[11],
	)
}

func TestChildPairsGeometry(t *testing.T) {
	// Brute force: children touch iff their boxes, in child widths, are at
	// most one step apart along every axis.
	for sid, off := range SidOffsets {
		listed := map[ChildPair]bool{}
		for _, cp := range ChildPairs[sid] {
			listed[cp] = true
		}

		for a := 0; a < 8; a++ {
			for b := 0; b < 8; b++ {
				oa, ob := ChildOffset(a), ChildOffset(b)
				touch := true
				for k := 0; k < 3; k++ {
					d := 2*off[k] + ob[k] - oa[k]
					if d*d > 1 {
						touch = false
					}
				}
				assert.Equal(t, touch, listed[ChildPair{a, b}],
					"sid %d, children %d %d", sid, a, b)
			}
		}
	}
}
