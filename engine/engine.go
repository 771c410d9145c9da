/*package engine drives a Space through time steps. It builds one task for
every top-level cell and every pair of neighbouring top-level cells, colours
the tasks so that tasks of the same colour never share a cell and runs each
colour on a pool of workers.
*/
package engine

import (
	"fmt"
	"log"
	"runtime"

	"github.com/phil-mansfield/sphcell/iact"
	"github.com/phil-mansfield/sphcell/runner"
	"github.com/phil-mansfield/sphcell/space"
)

// Config controls an Engine.
type Config struct {
	// Threads is the number of workers. Values below 1 mean
	// runtime.NumCPU().
	Threads int

	// Eta sets the target resolution of the smoothing length iteration:
	// n h^3 = Eta^3.
	Eta float64
	// HMin and HMax bound smoothing lengths. HMax = 0 leaves only the limit
	// set by the size of top-level cells.
	HMin, HMax float64
	// MaxIterations bounds the number of smoothing length iterations per
	// step and Tolerance is the relative change in h at which a particle
	// counts as converged.
	MaxIterations int
	Tolerance     float64

	Log bool
}

// DefaultConfig returns the configuration used by the command line tool
// when nothing else is given.
func DefaultConfig() Config {
	return Config{
		Threads:       runtime.NumCPU(),
		Eta:           1.2348,
		HMin:          0,
		HMax:          0,
		MaxIterations: 30,
		Tolerance:     1e-4,
	}
}

// Check returns an error describing the first invalid field of c.
func (c *Config) Check() error {
	switch {
	case c.Eta <= 0:
		return fmt.Errorf("Eta = %g is not positive.", c.Eta)
	case c.HMin < 0:
		return fmt.Errorf("HMin = %g is negative.", c.HMin)
	case c.HMax < 0:
		return fmt.Errorf("HMax = %g is negative.", c.HMax)
	case c.HMax > 0 && c.HMax < c.HMin:
		return fmt.Errorf("HMax = %g is smaller than HMin = %g.", c.HMax, c.HMin)
	case c.MaxIterations < 1:
		return fmt.Errorf("MaxIterations = %d is less than 1.", c.MaxIterations)
	case c.Tolerance <= 0:
		return fmt.Errorf("Tolerance = %g is not positive.", c.Tolerance)
	}
	return nil
}

// Engine runs the density loop over a Space.
type Engine struct {
	Space  *space.Space
	Config Config
	// Active selects the particles updated in each step. nil means
	// Particle.Active.
	Active space.ActiveFunc

	Tasks  []Task
	colors [][]int

	workers int
	runners []*runner.Runner

	Stats runner.Stats
	// Iterations is the number of smoothing length iterations used by the
	// last density calculation and Unconverged is the number of particles
	// left unconverged by it.
	Iterations, Unconverged int
	Steps                   int
	Rebuilds                int

	ms runtime.MemStats
}

// New returns an Engine for s. s must use the kernel support radius of
// the iact package.
func New(s *space.Space, c Config) (*Engine, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	if s.Params.KernelGamma != iact.Gamma {
		return nil, fmt.Errorf("KernelGamma = %g, but the density kernel "+
			"needs %g.", s.Params.KernelGamma, iact.Gamma)
	}

	e := &Engine{Space: s, Config: c}
	if h := e.HLimit(); e.maxH() > h {
		return nil, fmt.Errorf("The largest smoothing length, %g, is bigger "+
			"than the top-level cells allow, %g.", e.maxH(), h)
	}

	e.workers = c.Threads
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}

	e.MakeTasks()
	return e, nil
}

func (e *Engine) maxH() float64 {
	h := 0.0
	for _, id := range e.Space.TopCells {
		if c := e.Space.Cell(id); c.HMax > h {
			h = c.HMax
		}
	}
	return h
}

// Workers returns the number of workers used by e.
func (e *Engine) Workers() int { return e.workers }

// Colors returns the number of task colours.
func (e *Engine) Colors() int { return len(e.colors) }

func (e *Engine) logMemory() {
	if !e.Config.Log {
		return
	}
	runtime.ReadMemStats(&e.ms)
	log.Printf(
		"Alloc: %5d MB, Sys: %5d MB",
		e.ms.Alloc>>20, e.ms.Sys>>20,
	)
}
