package space

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Params describes the box and how it is divided into cells.
type Params struct {
	Dim      r3.Vec
	Periodic bool
	// TopCells is the number of top-level cells along each axis.
	TopCells [3]int

	// A cell is split when it holds more than SplitSize particles, is
	// shallower than MaxDepth and its children would be at least
	// MinCellWidth wide.
	SplitSize    int
	MaxDepth     int
	MinCellWidth float64

	// MaxRelDx is the largest displacement, as a fraction of Dmin, that
	// particles can make before a cell's sorts must be rebuilt.
	MaxRelDx    float64
	KernelGamma float64
}

// DefaultParams returns the parameters of a periodic unit box cut into
// 3^3 top-level cells.
func DefaultParams() Params {
	return Params{
		Dim:          r3.Vec{X: 1, Y: 1, Z: 1},
		Periodic:     true,
		TopCells:     [3]int{3, 3, 3},
		SplitSize:    400,
		MaxDepth:     16,
		MinCellWidth: 0,
		MaxRelDx:     0.1,
		KernelGamma:  1.825742,
	}
}

// Check returns an error describing the first invalid field of p.
func (p *Params) Check() error {
	if p.Dim.X <= 0 || p.Dim.Y <= 0 || p.Dim.Z <= 0 {
		return fmt.Errorf("Box dimensions %v are not all positive.", p.Dim)
	}
	for k, n := range p.TopCells {
		if n <= 0 {
			return fmt.Errorf("TopCells[%d] = %d is not positive.", k, n)
		} else if p.Periodic && n < 3 {
			return fmt.Errorf("Periodic boxes need at least 3 top-level "+
				"cells per axis, but TopCells[%d] = %d.", k, n)
		}
	}
	switch {
	case p.SplitSize < 1:
		return fmt.Errorf("SplitSize = %d is less than 1.", p.SplitSize)
	case p.MaxDepth < 0:
		return fmt.Errorf("MaxDepth = %d is negative.", p.MaxDepth)
	case p.MinCellWidth < 0:
		return fmt.Errorf("MinCellWidth = %g is negative.", p.MinCellWidth)
	case p.MaxRelDx <= 0:
		return fmt.Errorf("MaxRelDx = %g is not positive.", p.MaxRelDx)
	case p.KernelGamma <= 0:
		return fmt.Errorf("KernelGamma = %g is not positive.", p.KernelGamma)
	}
	return nil
}

// TopWidth returns the width of a top-level cell.
func (p *Params) TopWidth() r3.Vec {
	return r3.Vec{
		X: p.Dim.X / float64(p.TopCells[0]),
		Y: p.Dim.Y / float64(p.TopCells[1]),
		Z: p.Dim.Z / float64(p.TopCells[2]),
	}
}
