package engine

import (
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/space"
)

func testConfig() Config {
	c := DefaultConfig()
	c.Threads = 4
	return c
}

func randomSpace(t *testing.T, n int, h float64, seed int64) *space.Space {
	rng := rand.New(rand.NewSource(seed))
	parts := make([]space.Particle, n)
	for i := range parts {
		parts[i] = space.Particle{
			ID:     int64(i),
			X:      r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()},
			V:      r3.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5},
			Mass:   1,
			H:      h * (0.5 + rng.Float64()),
			Active: true,
		}
	}

	p := space.DefaultParams()
	p.SplitSize = 6
	s, err := space.New(parts, p)
	require.NoError(t, err)
	return s
}

func latticeSpace(t *testing.T, n int, h float64) *space.Space {
	parts := []space.Particle{}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				parts = append(parts, space.Particle{
					ID: int64(len(parts)),
					X: r3.Vec{
						X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: float64(z) + 0.5,
					},
					Mass:   1,
					H:      h,
					Active: true,
				})
			}
		}
	}

	p := space.DefaultParams()
	p.Dim = r3.Vec{X: float64(n), Y: float64(n), Z: float64(n)}
	p.SplitSize = 8
	s, err := space.New(parts, p)
	require.NoError(t, err)
	return s
}

// bruteNeighbors counts, for every particle ID, the particles within its
// search radius.
func bruteNeighbors(s *space.Space) map[int64]int {
	gamma2 := s.Params.KernelGamma * s.Params.KernelGamma
	out := map[int64]int{}
	for i := range s.Parts {
		pi := &s.Parts[i]
		out[pi.ID] = 0
		for j := range s.Parts {
			if i == j {
				continue
			}
			r2 := r3.Norm2(s.Box.Separation(pi.X, s.Parts[j].X))
			if r2 > 0 && r2 < pi.H*pi.H*gamma2 {
				out[pi.ID]++
			}
		}
	}
	return out
}

func neighbors(s *space.Space) map[int64]int {
	out := map[int64]int{}
	for i := range s.Parts {
		out[s.Parts[i].ID] = s.Parts[i].Density.Neighbors
	}
	return out
}

func TestConfigCheck(t *testing.T) {
	table := []struct {
		modify func(c *Config)
		valid  bool
	}{
		{func(c *Config) {}, true},
		{func(c *Config) { c.Eta = 0 }, false},
		{func(c *Config) { c.HMin = -1 }, false},
		{func(c *Config) { c.HMax = -1 }, false},
		{func(c *Config) { c.HMin, c.HMax = 0.2, 0.1 }, false},
		{func(c *Config) { c.MaxIterations = 0 }, false},
		{func(c *Config) { c.Tolerance = 0 }, false},
	}

	for i, test := range table {
		c := DefaultConfig()
		test.modify(&c)
		err := c.Check()
		if test.valid && err != nil {
			t.Errorf("%d) Expected valid config, got '%s'.", i, err.Error())
		} else if !test.valid && err == nil {
			t.Errorf("%d) Expected an error, got nil.", i)
		}
	}
}

func TestNewErrors(t *testing.T) {
	s := randomSpace(t, 100, 0.01, 1)
	s.Params.KernelGamma = 2
	_, err := New(s, testConfig())
	assert.Error(t, err)

	s = randomSpace(t, 100, 0.5, 2)
	_, err = New(s, testConfig())
	assert.Error(t, err)

	c := testConfig()
	c.Eta = -1
	_, err = New(randomSpace(t, 100, 0.01, 3), c)
	assert.Error(t, err)
}

func TestNewKeepsGOMAXPROCS(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)
	c := testConfig()
	c.Threads = procs + 3
	e, err := New(randomSpace(t, 100, 0.01, 3), c)
	require.NoError(t, err)
	assert.Equal(t, procs+3, e.Workers())
	assert.Equal(t, procs, runtime.GOMAXPROCS(0))
}

func TestTasks(t *testing.T) {
	s := randomSpace(t, 2000, 0.01, 4)
	e, err := New(s, testConfig())
	require.NoError(t, err)

	self, pair := 0, 0
	seen := map[[2]int]bool{}
	for _, task := range e.Tasks {
		if task.Kind == SelfTask {
			self++
			continue
		}
		pair++
		key := [2]int{task.Ci, task.Cj}
		if task.Cj < task.Ci {
			key = [2]int{task.Cj, task.Ci}
		}
		assert.False(t, seen[key], "pair %v appears twice", key)
		seen[key] = true
	}
	assert.Equal(t, 27, self)
	assert.Equal(t, 27*26/2, pair)

	// No two tasks of one colour share a cell.
	for c, tasks := range e.colors {
		used := map[int]bool{}
		for _, ti := range tasks {
			task := e.Tasks[ti]
			assert.Equal(t, c, task.Color)
			assert.False(t, used[task.Ci])
			used[task.Ci] = true
			if task.Kind == PairTask {
				assert.False(t, used[task.Cj])
				used[task.Cj] = true
			}
		}
	}
	assert.True(t, e.Colors() > 1)
}

func TestTasksNonPeriodic(t *testing.T) {
	parts := []space.Particle{}
	for i := 0; i < 4; i++ {
		parts = append(parts, space.Particle{
			ID: int64(i), X: r3.Vec{X: 0.25*float64(i) + 0.1, Y: 0.5, Z: 0.5},
			H: 0.01, Active: true,
		})
	}
	p := space.DefaultParams()
	p.Periodic = false
	p.TopCells = [3]int{4, 1, 1}
	s, err := space.New(parts, p)
	require.NoError(t, err)

	e, err := New(s, testConfig())
	require.NoError(t, err)
	// Four self tasks and the three pairs along the line. The self tasks
	// fill the first colour and the pairs need two more.
	assert.Len(t, e.Tasks, 7)
	assert.Equal(t, 3, e.Colors())
}

func TestParallelCovers(t *testing.T) {
	s := randomSpace(t, 10, 0.01, 5)
	e, err := New(s, testConfig())
	require.NoError(t, err)

	hits := make([]int, 103)
	e.parallel(len(hits), func(id, i int) {
		assert.Equal(t, i%e.Workers(), id)
		hits[i]++
	})
	for i := range hits {
		assert.Equal(t, 1, hits[i])
	}
}

func TestCountNeighbors(t *testing.T) {
	for _, threads := range []int{1, 3, 8} {
		s := randomSpace(t, 1500, 0.015, 6)
		c := testConfig()
		c.Threads = threads
		e, err := New(s, c)
		require.NoError(t, err)

		stats := e.CountNeighbors()
		assert.Equal(t, bruteNeighbors(s), neighbors(s), "%d threads", threads)
		assert.True(t, stats.Recursions > 0)
		assert.Equal(t, stats, e.Stats)
	}
}

func TestLatticeDensity(t *testing.T) {
	s := latticeSpace(t, 12, 1.0)
	e, err := New(s, testConfig())
	require.NoError(t, err)

	e.Density()
	assert.Equal(t, 0, e.Unconverged)
	assert.True(t, e.Iterations > 1)
	assert.True(t, e.Iterations < 10)

	for i := range s.Parts {
		p := &s.Parts[i]
		assert.InEpsilon(t, 1.0, p.Density.Rho, 0.02, "particle %d", p.ID)
		assert.InEpsilon(t, 1.233, p.H, 0.01, "particle %d", p.ID)
		assert.Equal(t, 56, p.Density.Neighbors)
	}
}

func TestDensityIterationLimit(t *testing.T) {
	s := latticeSpace(t, 12, 1.0)
	c := testConfig()
	c.MaxIterations = 1
	e, err := New(s, c)
	require.NoError(t, err)

	e.Density()
	assert.Equal(t, 1, e.Iterations)
	assert.Equal(t, len(s.Parts), e.Unconverged)
	for i := range s.Parts {
		assert.Equal(t, 1.0, s.Parts[i].H)
	}
}

func TestDensityInactive(t *testing.T) {
	s := latticeSpace(t, 12, 1.0)
	e, err := New(s, testConfig())
	require.NoError(t, err)
	e.Active = func(p *space.Particle) bool { return p.ID%2 == 0 }

	e.Density()
	for i := range s.Parts {
		p := &s.Parts[i]
		if p.ID%2 == 0 {
			assert.InEpsilon(t, 1.0, p.Density.Rho, 0.02)
		} else {
			assert.Equal(t, 0.0, p.Density.Rho)
			assert.Equal(t, 1.0, p.H)
		}
	}
}

func TestStep(t *testing.T) {
	s := randomSpace(t, 1000, 0.08, 7)
	e, err := New(s, testConfig())
	require.NoError(t, err)

	require.NoError(t, e.Run(3, 0.01))
	assert.Equal(t, 3, e.Steps)
	assert.Equal(t, int64(3), s.TiCurrent)
	for i := range s.Parts {
		assert.True(t, s.Parts[i].Density.Rho > 0)
		assert.Equal(t, int64(3), s.Parts[i].TiDrift)
	}

	// Positions and smoothing lengths have moved on, but a traversal still
	// finds exactly the brute force neighbours.
	e.CountNeighbors()
	assert.Equal(t, bruteNeighbors(s), neighbors(s))
}

func TestStepRebuilds(t *testing.T) {
	s := randomSpace(t, 1000, 0.08, 8)
	e, err := New(s, testConfig())
	require.NoError(t, err)

	require.NoError(t, e.Run(1, 0.2))
	assert.Equal(t, 1, e.Rebuilds)
	for i := range s.Parts {
		assert.True(t, s.Box.Contains(s.Parts[i].X))
	}

	e.CountNeighbors()
	assert.Equal(t, bruteNeighbors(s), neighbors(s))
}

func TestStepRebuildsBeforeSearchRadiiOverlap(t *testing.T) {
	p := space.DefaultParams()
	p.Periodic = false
	p.TopCells = [3]int{5, 5, 5}

	// Two particles in top-level cells 0 and 2 along x, each with a search
	// radius just inside the width of a cell, moving towards each other.
	h := 0.199 / p.KernelGamma
	parts := []space.Particle{
		{
			ID: 0, X: r3.Vec{X: 0.19, Y: 0.5, Z: 0.5}, V: r3.Vec{X: 1},
			Mass: 1, H: h, Active: true,
		},
		{
			ID: 1, X: r3.Vec{X: 0.41, Y: 0.5, Z: 0.5}, V: r3.Vec{X: -1},
			Mass: 1, H: h, Active: true,
		},
	}
	s, err := space.New(parts, p)
	require.NoError(t, err)
	e, err := New(s, testConfig())
	require.NoError(t, err)
	assert.False(t, s.NeedsRebuild())

	e.Drift(0.015)
	assert.True(t, s.NeedsRebuild())
	assert.True(t, e.HLimit()*p.KernelGamma+2*s.MaxDrift() < s.Top(0).Dmin)


	require.NoError(t, e.Step(0))
	assert.Equal(t, 1, e.Rebuilds)
	e.CountNeighbors()
	assert.Equal(t, bruteNeighbors(s), neighbors(s))
}
