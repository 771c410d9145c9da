package io

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/sphcell/engine"
	"github.com/phil-mansfield/sphcell/space"
)

const (
	ExampleConfigFile = `[Domain]

#######################
# Required Parameters #
#######################

# Width of the box along the x axis.
Width = 1.0

# Number of top-level cells along each axis. Top-level cells must be at least
# KernelGamma * h wide for every particle, and periodic boxes need at least 3.
Cells = 8

#######################
# Optional Parameters #
#######################

# Widths along the y and z axes. They default to Width.
# YWidth = 1.0
# ZWidth = 1.0

# Cell counts along the y and z axes. They default to Cells.
# YCells = 8
# ZCells = 8

# Periodic = true

[Tree]

# Cells holding more than SplitSize particles are split into octants until
# they reach MaxDepth or their children would be narrower than MinCellWidth.
# SplitSize = 400
# MaxDepth = 16
# MinCellWidth = 0

# Particles may move MaxRelDx cell widths before sorts are rebuilt. The whole
# tree is rebuilt once a top-level cell passes the same limit.
# MaxRelDx = 0.1

[Kernel]

# Target resolution of the smoothing length iteration, n h^3 = Eta^3. The
# default gives roughly 48 neighbours.
# Eta = 1.2348

# Smoothing lengths are clamped to [HMin, HMax]. HMax = 0 means only the
# size of top-level cells limits h.
# HMin = 0
# HMax = 0

# MaxIterations = 30
# Tolerance = 1e-4

[Run]

#######################
# Required Parameters #
#######################

# Particle file. Files ending in .csv are read with a header line (see the
# Output columns). Anything else is read as whitespace separated columns:
# id x y z vx vy vz m h u [kind]. kind is 0 for gas and 1 for stars.
Input = path/to/particles.txt
# Per-particle csv file written after the last step.
Output = path/to/output.csv

#######################
# Optional Parameters #
#######################

# Steps = 0
# TimeStep = 0

# Threads = 0 uses every CPU.
# Threads = 0

# Summary of the run in yaml format.
# Report = path/to/report.yaml

# Histogram of neighbour counts, written through matplotlib.
# Plot = path/to/neighbors.png

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out

# Any number of spherical probe regions can be given. The report lists the
# particle count and mean density inside each of them.
# [Ball "center"]
# X = 0.5
# Y = 0.5
# Z = 0.5
# Radius = 0.1
# RadiusMultiplier = 1`
)

type DomainConfig struct {
	// Required
	Width float64
	Cells int

	// Optional
	YWidth, ZWidth float64
	YCells, ZCells int
	Periodic       bool
}

func (con *DomainConfig) ValidWidth() bool {
	return con.Width > 0
}
func (con *DomainConfig) ValidCells() bool {
	return con.Cells > 0
}
func (con *DomainConfig) ValidYWidth() bool {
	return con.YWidth > 0
}
func (con *DomainConfig) ValidZWidth() bool {
	return con.ZWidth > 0
}
func (con *DomainConfig) ValidYCells() bool {
	return con.YCells > 0
}
func (con *DomainConfig) ValidZCells() bool {
	return con.ZCells > 0
}

// Dim returns the dimensions of the box, filling in the optional axes.
func (con *DomainConfig) Dim() r3.Vec {
	dim := r3.Vec{X: con.Width, Y: con.Width, Z: con.Width}
	if con.ValidYWidth() {
		dim.Y = con.YWidth
	}
	if con.ValidZWidth() {
		dim.Z = con.ZWidth
	}
	return dim
}

// TopCells returns the number of top-level cells along each axis.
func (con *DomainConfig) TopCells() [3]int {
	cells := [3]int{con.Cells, con.Cells, con.Cells}
	if con.ValidYCells() {
		cells[1] = con.YCells
	}
	if con.ValidZCells() {
		cells[2] = con.ZCells
	}
	return cells
}

type TreeConfig struct {
	SplitSize, MaxDepth    int
	MinCellWidth, MaxRelDx float64
}

func (con *TreeConfig) ValidSplitSize() bool {
	return con.SplitSize > 0
}
func (con *TreeConfig) ValidMaxDepth() bool {
	return con.MaxDepth >= 0
}
func (con *TreeConfig) ValidMinCellWidth() bool {
	return con.MinCellWidth >= 0
}
func (con *TreeConfig) ValidMaxRelDx() bool {
	return con.MaxRelDx > 0
}

type KernelConfig struct {
	Eta, HMin, HMax float64
	MaxIterations   int
	Tolerance       float64
}

func (con *KernelConfig) ValidEta() bool {
	return con.Eta > 0
}
func (con *KernelConfig) ValidHMin() bool {
	return con.HMin >= 0
}
func (con *KernelConfig) ValidHMax() bool {
	return con.HMax == 0 || con.HMax >= con.HMin
}
func (con *KernelConfig) ValidMaxIterations() bool {
	return con.MaxIterations > 0
}
func (con *KernelConfig) ValidTolerance() bool {
	return con.Tolerance > 0
}

type RunConfig struct {
	// Required
	Input, Output string

	// Optional
	Steps    int
	TimeStep float64
	Threads  int

	Report, Plot         string
	LogFile, ProfileFile string
}

func (con *RunConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *RunConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *RunConfig) ValidSteps() bool {
	return con.Steps >= 0
}
func (con *RunConfig) ValidTimeStep() bool {
	return con.Steps == 0 || con.TimeStep > 0
}
func (con *RunConfig) ValidReport() bool {
	return con.Report != ""
}
func (con *RunConfig) ValidPlot() bool {
	return con.Plot != ""
}
func (con *RunConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *RunConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// BallConfig is a spherical probe region.
type BallConfig struct {
	// Required
	X, Y, Z, Radius float64

	// Optional
	RadiusMultiplier float64
	Name             string
}

func (ball *BallConfig) CheckInit(name string, dim r3.Vec) error {
	if ball.Radius <= 0 {
		return fmt.Errorf(
			"Need to specify a positive radius for Ball '%s'.", name,
		)
	}

	if ball.X >= dim.X || ball.X < 0 {
		return fmt.Errorf(
			"X center of Ball '%s' must be in range [0, %g), but is %g",
			name, dim.X, ball.X,
		)
	} else if ball.Y >= dim.Y || ball.Y < 0 {
		return fmt.Errorf(
			"Y center of Ball '%s' must be in range [0, %g), but is %g",
			name, dim.Y, ball.Y,
		)
	} else if ball.Z >= dim.Z || ball.Z < 0 {
		return fmt.Errorf(
			"Z center of Ball '%s' must be in range [0, %g), but is %g",
			name, dim.Z, ball.Z,
		)
	}

	ball.Name = name
	if ball.RadiusMultiplier == 0 {
		ball.RadiusMultiplier = 1
	} else if ball.RadiusMultiplier < 0 {
		return fmt.Errorf(
			"Ball '%s' given a negative radius multiplier, %g.",
			name, ball.RadiusMultiplier,
		)
	}

	return nil
}

// Center returns the center of the ball.
func (ball *BallConfig) Center() r3.Vec {
	return r3.Vec{X: ball.X, Y: ball.Y, Z: ball.Z}
}

// R returns the radius of the ball after the multiplier is applied.
func (ball *BallConfig) R() float64 {
	return ball.Radius * ball.RadiusMultiplier
}

type ConfigWrapper struct {
	Domain DomainConfig
	Tree   TreeConfig
	Kernel KernelConfig
	Run    RunConfig
	Ball   map[string]*BallConfig
}

// DefaultConfigWrapper returns a wrapper with every optional parameter set
// to its default.
func DefaultConfigWrapper() *ConfigWrapper {
	p := space.DefaultParams()
	ec := engine.DefaultConfig()

	wrap := &ConfigWrapper{}
	wrap.Domain.Periodic = p.Periodic
	wrap.Tree.SplitSize = p.SplitSize
	wrap.Tree.MaxDepth = p.MaxDepth
	wrap.Tree.MinCellWidth = p.MinCellWidth
	wrap.Tree.MaxRelDx = p.MaxRelDx
	wrap.Kernel.Eta = ec.Eta
	wrap.Kernel.HMin = ec.HMin
	wrap.Kernel.HMax = ec.HMax
	wrap.Kernel.MaxIterations = ec.MaxIterations
	wrap.Kernel.Tolerance = ec.Tolerance
	return wrap
}

// ReadConfig reads the configuration file fname on top of the defaults and
// checks it.
func ReadConfig(fname string) (*ConfigWrapper, error) {
	wrap := DefaultConfigWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}

// ReadConfigString is ReadConfig for a configuration held in memory.
func ReadConfigString(str string) (*ConfigWrapper, error) {
	wrap := DefaultConfigWrapper()
	if err := gcfg.ReadStringInto(wrap, str); err != nil {
		return nil, err
	}
	if err := wrap.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}

// CheckInit returns an error for the first invalid parameter.
func (wrap *ConfigWrapper) CheckInit() error {
	dom, tree, kern, run := &wrap.Domain, &wrap.Tree, &wrap.Kernel, &wrap.Run

	if !dom.ValidWidth() {
		return fmt.Errorf("Invalid/non-existent 'Width' value.")
	} else if !dom.ValidCells() {
		return fmt.Errorf("Invalid/non-existent 'Cells' value.")
	} else if dom.YWidth < 0 || dom.ZWidth < 0 {
		return fmt.Errorf("'YWidth' and 'ZWidth' must be positive.")
	} else if dom.YCells < 0 || dom.ZCells < 0 {
		return fmt.Errorf("'YCells' and 'ZCells' must be positive.")
	}

	if !tree.ValidSplitSize() {
		return fmt.Errorf("Invalid 'SplitSize' value, %d.", tree.SplitSize)
	} else if !tree.ValidMaxDepth() {
		return fmt.Errorf("Invalid 'MaxDepth' value, %d.", tree.MaxDepth)
	} else if !tree.ValidMinCellWidth() {
		return fmt.Errorf(
			"Invalid 'MinCellWidth' value, %g.", tree.MinCellWidth,
		)
	} else if !tree.ValidMaxRelDx() {
		return fmt.Errorf("Invalid 'MaxRelDx' value, %g.", tree.MaxRelDx)
	}

	if !kern.ValidEta() {
		return fmt.Errorf("Invalid 'Eta' value, %g.", kern.Eta)
	} else if !kern.ValidHMin() {
		return fmt.Errorf("Invalid 'HMin' value, %g.", kern.HMin)
	} else if !kern.ValidHMax() {
		return fmt.Errorf(
			"'HMax' = %g must be 0 or at least 'HMin' = %g.",
			kern.HMax, kern.HMin,
		)
	} else if !kern.ValidMaxIterations() {
		return fmt.Errorf(
			"Invalid 'MaxIterations' value, %d.", kern.MaxIterations,
		)
	} else if !kern.ValidTolerance() {
		return fmt.Errorf("Invalid 'Tolerance' value, %g.", kern.Tolerance)
	}

	if !run.ValidInput() {
		return fmt.Errorf("Invalid/non-existent 'Input' value.")
	} else if !run.ValidOutput() {
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	} else if !run.ValidSteps() {
		return fmt.Errorf("Invalid 'Steps' value, %d.", run.Steps)
	} else if !run.ValidTimeStep() {
		return fmt.Errorf(
			"Need to specify a positive 'TimeStep' when 'Steps' is set.",
		)
	}

	dim := dom.Dim()
	for name, ball := range wrap.Ball {
		if err := ball.CheckInit(name, dim); err != nil {
			return err
		}
	}

	p := wrap.Params()
	return p.Check()
}

// Params returns the tree parameters described by the configuration.
func (wrap *ConfigWrapper) Params() space.Params {
	p := space.DefaultParams()
	p.Dim = wrap.Domain.Dim()
	p.Periodic = wrap.Domain.Periodic
	p.TopCells = wrap.Domain.TopCells()
	p.SplitSize = wrap.Tree.SplitSize
	p.MaxDepth = wrap.Tree.MaxDepth
	p.MinCellWidth = wrap.Tree.MinCellWidth
	p.MaxRelDx = wrap.Tree.MaxRelDx
	return p
}

// EngineConfig returns the engine configuration described by the
// configuration. Logging is turned on when log is set.
func (wrap *ConfigWrapper) EngineConfig(log bool) engine.Config {
	c := engine.DefaultConfig()
	if wrap.Run.Threads > 0 {
		c.Threads = wrap.Run.Threads
	}
	c.Eta = wrap.Kernel.Eta
	c.HMin = wrap.Kernel.HMin
	c.HMax = wrap.Kernel.HMax
	c.MaxIterations = wrap.Kernel.MaxIterations
	c.Tolerance = wrap.Kernel.Tolerance
	c.Log = log
	return c
}

// Balls returns the probe regions sorted by name.
func (wrap *ConfigWrapper) Balls() []BallConfig {
	names := make([]string, 0, len(wrap.Ball))
	for name := range wrap.Ball {
		names = append(names, name)
	}
	sort.Strings(names)

	balls := make([]BallConfig, len(names))
	for i, name := range names {
		balls[i] = *wrap.Ball[name]
	}
	return balls
}
