package engine

// parallel calls fn(id, i) for every i in [0, n) on e's workers. Worker id
// handles i = id, id + workers, id + 2*workers, ... and parallel returns
// once every worker is done.
func (e *Engine) parallel(n int, fn func(id, i int)) {
	out := make(chan int, e.workers)

	for id := 0; id < e.workers-1; id++ {
		go e.chanWork(id, n, fn, out)
	}
	id := e.workers - 1
	e.chanWork(id, n, fn, out)

	for i := 0; i < e.workers; i++ {
		<-out
	}
}

func (e *Engine) chanWork(id, n int, fn func(id, i int), out chan<- int) {
	for i := id; i < n; i += e.workers {
		fn(id, i)
	}
	out <- id
}
