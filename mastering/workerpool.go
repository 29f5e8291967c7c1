package mastering

import (
	"runtime"
	"sync"
)

// defaultWorkerCount returns the pool size used for per-piece fan-out
// when the caller has no stronger opinion.
func defaultWorkerCount() int {
	return runtime.GOMAXPROCS(0)
}

// parallelFor runs fn(i) for i in [0, n) across a bounded worker pool
// and returns the per-index results in index order. It does no folding
// itself; callers reduce the slice in a fixed order (see treeSum), so
// floating-point summation order stays deterministic regardless of how
// many workers ran.
//
// workers <= 0 selects a single worker (sequential, still deterministic).
func parallelFor[T any](n, workers int, fn func(i int) T) []T {
	out := make([]T, n)

	if n == 0 {
		return out
	}

	if workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			out[i] = fn(i)
		}

		return out
	}

	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup

	indices := make(chan int, n)
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indices {
				out[i] = fn(i)
			}
		}()
	}

	wg.Wait()

	return out
}

// treeSum adds a slice of equal-length vectors deterministically by
// pairwise halving, independent of summation order a naive left-to-right
// reduction over a parallel result slice would otherwise depend on.
func treeSum(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}

	work := make([][]float64, len(vectors))
	copy(work, vectors)

	for len(work) > 1 {
		next := make([][]float64, 0, (len(work)+1)/2)

		for i := 0; i < len(work); i += 2 {
			if i+1 == len(work) {
				next = append(next, work[i])
				continue
			}

			sum := make([]float64, len(work[i]))
			for j := range sum {
				sum[j] = work[i][j] + work[i+1][j]
			}

			next = append(next, sum)
		}

		work = next
	}

	return work[0]
}
