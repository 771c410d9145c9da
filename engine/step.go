package engine

import (
	"log"

	"github.com/phil-mansfield/sphcell/iact"
	"github.com/phil-mansfield/sphcell/runner"
)

// Drift moves every particle forward by dt and advances the current time
// by one tick.
func (e *Engine) Drift(dt float64) {
	s := e.Space
	s.TiCurrent++
	ti := s.TiCurrent
	e.parallel(len(s.TopCells), func(id, i int) {
		s.Drift(s.Top(i), dt, ti)
	})
}

// Sorts builds every sort that the tasks will need. Activation walks the
// tasks in order since pair tasks mark sorts in both of their cells; the
// sorts themselves are independent and run on the workers.
func (e *Engine) Sorts() {
	s := e.Space
	for i := range e.Tasks {
		e.activateTask(&e.Tasks[i])
	}

	ids := s.SortRequests()
	e.parallel(len(ids), func(id, i int) {
		s.DoSorts(s.Cell(ids[i]))
	})
}

// Interact runs every task with kernel k, one colour at a time, and returns
// the work done. Sorts must be up to date.
func (e *Engine) Interact(k runner.Kernel) runner.Stats {
	e.runners = make([]*runner.Runner, e.workers)
	for i := range e.runners {
		e.runners[i] = runner.New(e.Space, k)
	}

	for _, tasks := range e.colors {
		tasks := tasks
		e.parallel(len(tasks), func(id, i int) {
			e.runTask(e.runners[id], &e.Tasks[tasks[i]])
		})
	}

	stats := runner.Stats{}
	for _, r := range e.runners {
		stats.Add(r.Stats)
	}
	e.Stats.Add(stats)
	return stats
}

// Step advances the simulation by dt: particles are drifted, the tree is
// rebuilt if they have moved too far, and densities and smoothing lengths
// are recomputed for the active particles.
func (e *Engine) Step(dt float64) error {
	e.Drift(dt)

	if e.Space.NeedsRebuild() {
		if e.Config.Log {
			log.Printf("Rebuilding the cell tree at ti = %d.", e.Space.TiCurrent)
		}
		if err := e.Space.Rebuild(); err != nil {
			return err
		}
		e.MakeTasks()
		e.Rebuilds++
	}

	e.Density()
	e.Steps++

	if e.Config.Log {
		log.Printf(
			"Step %d: %d pair candidates, %d interactions, "+
				"%d h iterations, %d unconverged.",
			e.Steps, e.Stats.Candidates, e.Stats.Interactions,
			e.Iterations, e.Unconverged,
		)
		e.logMemory()
	}
	return nil
}

// Run computes initial densities and then takes steps steps of size dt.
func (e *Engine) Run(steps int, dt float64) error {
	e.Density()
	for i := 0; i < steps; i++ {
		if err := e.Step(dt); err != nil {
			return err
		}
	}
	return nil
}

// CountNeighbors counts the neighbours of every active particle with a
// parallel traversal.
func (e *Engine) CountNeighbors() runner.Stats {
	s := e.Space
	s.UpdateActivity(e.Active)
	for i := range s.Parts {
		if s.IsParticleActive(&s.Parts[i]) {
			s.Parts[i].Density.Neighbors = 0
		}
	}
	e.Sorts()
	return e.Interact(iact.Count())
}
