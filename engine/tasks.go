package engine

import (
	"github.com/phil-mansfield/sphcell/geom"
	"github.com/phil-mansfield/sphcell/runner"
)

// TaskKind tells a self task from a pair task.
type TaskKind int

const (
	SelfTask TaskKind = iota
	PairTask
)

// Task is a unit of work on top-level cells. Ci and Cj are grid indices of
// top-level cells; Cj is unused by self tasks.
type Task struct {
	Kind   TaskKind
	Ci, Cj int
	Color  int
}

// MakeTasks rebuilds the task list from the current tree: one self task per
// non-empty top-level cell and one pair task per pair of non-empty
// neighbouring top-level cells.
func (e *Engine) MakeTasks() {
	s := e.Space
	e.Tasks = e.Tasks[:0]

	for ci := range s.TopCells {
		if s.Top(ci).Count() == 0 {
			continue
		}
		e.Tasks = append(e.Tasks, Task{Kind: SelfTask, Ci: ci})
	}

	for ci := range s.TopCells {
		if s.Top(ci).Count() == 0 {
			continue
		}
		for _, off := range geom.SidOffsets {
			cj, ok := s.Grid.Neighbor(ci, off)
			if !ok || s.Top(cj).Count() == 0 {
				continue
			}
			e.Tasks = append(e.Tasks, Task{Kind: PairTask, Ci: ci, Cj: cj})
		}
	}

	e.colorTasks()
}

// colorTasks greedily gives every task the lowest colour which none of the
// tasks sharing one of its cells has.
func (e *Engine) colorTasks() {
	n := len(e.Space.TopCells)
	used := [][]bool{}
	e.colors = e.colors[:0]

	for ti := range e.Tasks {
		t := &e.Tasks[ti]

		c := 0
		for ; c < len(used); c++ {
			if !used[c][t.Ci] && (t.Kind == SelfTask || !used[c][t.Cj]) {
				break
			}
		}
		if c == len(used) {
			used = append(used, make([]bool, n))
			e.colors = append(e.colors, []int{})
		}

		used[c][t.Ci] = true
		if t.Kind == PairTask {
			used[c][t.Cj] = true
		}
		t.Color = c
		e.colors[c] = append(e.colors[c], ti)
	}
}

func (e *Engine) runTask(r *runner.Runner, t *Task) {
	s := e.Space
	switch t.Kind {
	case SelfTask:
		r.DoSelf(s.Top(t.Ci))
	case PairTask:
		r.DoPair(s.Top(t.Ci), s.Top(t.Cj))
	}
}

func (e *Engine) activateTask(t *Task) {
	s := e.Space
	switch t.Kind {
	case SelfTask:
		s.ActivateSelf(s.Top(t.Ci))
	case PairTask:
		s.ActivatePair(s.Top(t.Ci), s.Top(t.Cj))
	}
}
