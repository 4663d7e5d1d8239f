// Package parallel provides a data-parallel range splitter used by the FFT and
// MSM hot loops. Work is partitioned into contiguous index ranges with no
// shared mutable state, so the result is independent of the number of workers.
package parallel

import (
	"runtime"
	"sync"
)

// Execute process in parallel the work function, split into nbIterations
// contiguous [start, end) ranges. If maxCpus is provided and equals 1, the
// work function runs sequentially on the calling goroutine.
func Execute(nbIterations int, work func(int, int), maxCpus ...int) {
	nbTasks := runtime.NumCPU()
	if len(maxCpus) == 1 {
		nbTasks = maxCpus[0]
		if nbTasks < 1 {
			nbTasks = 1
		}
	}
	if nbTasks > nbIterations {
		nbTasks = nbIterations
	}

	if nbTasks <= 1 {
		work(0, nbIterations)
		return
	}

	nbIterationsPerCpus := nbIterations / nbTasks
	extraTasks := nbIterations - (nbTasks * nbIterationsPerCpus)

	var wg sync.WaitGroup

	start := 0
	for i := 0; i < nbTasks; i++ {
		end := start + nbIterationsPerCpus
		if i < extraTasks {
			end++
		}
		wg.Add(1)
		go func(start, end int) {
			work(start, end)
			wg.Done()
		}(start, end)
		start = end
	}

	wg.Wait()
}
