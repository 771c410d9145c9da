package io

import (
	"fmt"
	"sort"

	plt "github.com/phil-mansfield/pyplot"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/sphcell/engine"
)

// NeighborHistogram bins the neighbour counts of gas particles into one bin
// per integer count. It returns the bin centers and the number of particles
// in each bin.
func NeighborHistogram(e *engine.Engine) (centers, counts []float64) {
	_, _, ns := gasColumns(e.Space)
	if len(ns) == 0 {
		return nil, nil
	}
	sort.Float64s(ns)

	lo, hi := ns[0], ns[len(ns)-1]
	dividers := make([]float64, int(hi-lo)+2)
	for i := range dividers {
		dividers[i] = lo - 0.5 + float64(i)
	}
	centers = make([]float64, len(dividers)-1)
	for i := range centers {
		centers[i] = lo + float64(i)
	}
	counts = stat.Histogram(nil, dividers, ns, nil)
	return centers, counts
}

// PlotNeighbors queues a plot of the neighbour count histogram of e, with
// the count expected from eta marked. The figure is drawn when
// plt.Execute() is called.
func PlotNeighbors(fname string, e *engine.Engine, expected float64) {
	centers, counts := NeighborHistogram(e)
	if len(centers) == 0 {
		return
	}

	peak := 0.0
	for _, n := range counts {
		if n > peak {
			peak = n
		}
	}

	plt.Figure()
	plt.Plot(centers, counts, "k", plt.LW(2))
	plt.Plot([]float64{expected, expected}, []float64{0, peak}, "r", plt.LW(2))

	plt.Title(fmt.Sprintf(
		"Step %d: %d particles, %d unconverged",
		e.Steps, len(e.Space.Parts), e.Unconverged,
	))
	plt.XLabel(`$N_{\rm ngb}$`, plt.FontSize(16))
	plt.YLabel(`$N$`, plt.FontSize(16))

	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}
