package mtree

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// FarthestFirst partitions points around k centers chosen greedily: a random
// first center, then repeatedly the point farthest from every center so far.
// Each point joins its nearest center.
type FarthestFirst struct {
	Metric DistanceMetric
	Rand   *rand.Rand
}

// NewFarthestFirst returns a FarthestFirst partitioner with a seeded generator.
func NewFarthestFirst(metric DistanceMetric, seed uint64) *FarthestFirst {
	return &FarthestFirst{Metric: metric, Rand: newRand(seed)}
}

// Partition implements Partitioner.
func (ff *FarthestFirst) Partition(points [][]float64, k int) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if k < 1 {
		return nil, fmt.Errorf("mtree: farthest-first needs k >= 1, got %d", k)
	}
	k = min(k, n)

	labels := make([]int, n)
	closest := make([]float64, n)
	for i := range closest {
		closest[i] = math.Inf(1)
	}

	center := ff.Rand.IntN(n)
	for c := 0; c < k; c++ {
		for i, p := range points {
			if d := ff.Metric.Distance(p, points[center]); d < closest[i] {
				closest[i] = d
				labels[i] = c
			}
		}

		next, farthest := -1, 0.0
		for i, d := range closest {
			if d > farthest {
				farthest = d
				next = i
			}
		}
		// Everything coincides with a center already.
		if next < 0 {
			break
		}
		center = next
	}
	return labels, nil
}
