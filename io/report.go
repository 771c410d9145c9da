package io

import (
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/phil-mansfield/sphcell/engine"
	"github.com/phil-mansfield/sphcell/space"
)

// Summary is the mean, standard deviation and range of one particle
// property.
type Summary struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

func summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := Summary{Min: math.Inf(+1), Max: math.Inf(-1)}
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		s.Std = 0
	}
	for _, x := range xs {
		s.Min, s.Max = math.Min(s.Min, x), math.Max(s.Max, x)
	}
	return s
}

// BallReport describes the particles inside a probe region.
type BallReport struct {
	Name      string  `yaml:"name"`
	Particles int     `yaml:"particles"`
	MeanRho   float64 `yaml:"mean_rho"`
}

// Report summarizes a run.
type Report struct {
	Particles int   `yaml:"particles"`
	Cells     int   `yaml:"cells"`
	TopCells  int   `yaml:"top_cells"`
	Tasks     int   `yaml:"tasks"`
	Colors    int   `yaml:"colors"`
	Threads   int   `yaml:"threads"`
	Steps     int   `yaml:"steps"`
	Rebuilds  int   `yaml:"rebuilds"`
	Ti        int64 `yaml:"ti"`

	Iterations  int `yaml:"h_iterations"`
	Unconverged int `yaml:"unconverged"`

	SelfDirect   int `yaml:"self_direct"`
	PairDirect   int `yaml:"pair_direct"`
	SubsetDirect int `yaml:"subset_direct"`
	Recursions   int `yaml:"recursions"`
	Candidates   int `yaml:"candidates"`
	Interactions int `yaml:"interactions"`

	H         Summary `yaml:"h"`
	Rho       Summary `yaml:"rho"`
	Neighbors Summary `yaml:"neighbors"`

	Balls []BallReport `yaml:"balls,omitempty"`
}

// NewReport summarizes the current state of e. Particle statistics cover
// gas particles only.
func NewReport(e *engine.Engine, balls []BallConfig) *Report {
	s := e.Space
	r := &Report{
		Particles:   len(s.Parts),
		Cells:       len(s.Cells),
		TopCells:    len(s.TopCells),
		Tasks:       len(e.Tasks),
		Colors:      e.Colors(),
		Threads:     e.Workers(),
		Steps:       e.Steps,
		Rebuilds:    e.Rebuilds,
		Ti:          s.TiCurrent,
		Iterations:  e.Iterations,
		Unconverged: e.Unconverged,

		SelfDirect:   e.Stats.SelfDirect,
		PairDirect:   e.Stats.PairDirect,
		SubsetDirect: e.Stats.SubsetDirect,
		Recursions:   e.Stats.Recursions,
		Candidates:   e.Stats.Candidates,
		Interactions: e.Stats.Interactions,
	}

	hs, rhos, ns := gasColumns(s)
	r.H, r.Rho, r.Neighbors = summarize(hs), summarize(rhos), summarize(ns)

	for i := range balls {
		r.Balls = append(r.Balls, ballReport(s, &balls[i]))
	}
	return r
}

func gasColumns(s *space.Space) (hs, rhos, ns []float64) {
	for i := range s.Parts {
		p := &s.Parts[i]
		if p.Kind != space.Gas {
			continue
		}
		hs = append(hs, p.H)
		rhos = append(rhos, p.Density.Rho)
		ns = append(ns, float64(p.Density.Neighbors))
	}
	return hs, rhos, ns
}

func ballReport(s *space.Space, ball *BallConfig) BallReport {
	br := BallReport{Name: ball.Name}
	c, r := ball.Center(), ball.R()

	sum := 0.0
	for i := range s.Parts {
		p := &s.Parts[i]
		if r3.Norm2(s.Box.Separation(p.X, c)) > r*r {
			continue
		}
		br.Particles++
		sum += p.Density.Rho
	}
	if br.Particles > 0 {
		br.MeanRho = sum / float64(br.Particles)
	}
	return br
}

// WriteReport writes r to fname in yaml format.
func WriteReport(fname string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(fname, data, 0644)
}
