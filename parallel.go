package mtree

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// pairwiseDistances computes the full n×n distance matrix for points, flat
// row-major. Rows are split into contiguous ranges handled by at most
// workers goroutines; workers <= 0 means runtime.NumCPU(). Each goroutine
// writes only its own rows (and their mirrored cells), so the result is
// identical to a sequential computation.
func pairwiseDistances(points [][]float64, metric DistanceMetric, workers int) ([]float64, error) {
	n := len(points)
	result := make([]float64, n*n)
	if n <= 1 {
		return result, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	fill := func(start, end int) error {
		for i := start; i < end; i++ {
			for j := i + 1; j < n; j++ {
				d := metric.Distance(points[i], points[j])
				result[i*n+j] = d
				result[j*n+i] = d
			}
		}
		return nil
	}

	if workers == 1 {
		return result, fill(0, n)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	rowsPerWorker := (n + workers - 1) / workers
	for start := 0; start < n; start += rowsPerWorker {
		end := min(start+rowsPerWorker, n)
		g.Go(func() error { return fill(start, end) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
