package forest

import (
	"runtime"
	"sync"
)

// parallelFor runs fn(i) over i in [0, n) using up to workers goroutines
// (GOMAXPROCS when workers < 1). Work is distributed by striding.
func parallelFor(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := w; i < n; i += workers {
				fn(i)
			}
		}()
	}
	wg.Wait()
}

// ParallelFor exposes the forest worker pool to other packages.
func ParallelFor(n, workers int, fn func(i int)) {
	parallelFor(n, workers, fn)
}
