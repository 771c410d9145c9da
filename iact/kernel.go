/*package iact contains the interaction functions applied by the runner: a
cubic spline SPH density loop for gas, its star-on-gas counterpart and a
plain neighbour counter.
*/
package iact

import (
	"math"
)

const (
	// Gamma is the support radius of the cubic spline in units of the
	// smoothing length.
	Gamma = 1.825742
	// Dim is the number of spatial dimensions.
	Dim = 3

	// sigma normalizes the spline over the unit sphere.
	sigma = 8 / math.Pi
)

var (
	norm = sigma / (Gamma * Gamma * Gamma)
	// Root is W(0), the contribution of a particle to its own sums.
	Root = norm
)

// W evaluates the cubic spline at u = r/h. It is normalized so that the
// integral of W(r/h)/h^3 over space is one.
func W(u float64) float64 {
	w, _ := Eval(u)
	return w
}

// Eval returns W(u) and dW/du.
func Eval(u float64) (w, dwdu float64) {
	q := u / Gamma
	switch {
	case q < 0.5:
		w = 1 - 6*q*q + 6*q*q*q
		dwdu = -12*q + 18*q*q
	case q < 1:
		w = 2 * (1 - q) * (1 - q) * (1 - q)
		dwdu = -6 * (1 - q) * (1 - q)
	default:
		return 0, 0
	}
	return norm * w, norm * dwdu / Gamma
}

// NeighborNumber returns the expected number of neighbours of a particle
// with the given resolution parameter eta = h n^(1/3).
func NeighborNumber(eta float64) float64 {
	return 4 * math.Pi / 3 * math.Pow(Gamma*eta, 3)
}
