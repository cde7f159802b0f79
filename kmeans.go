package mtree

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// KMeans partitions points with Lloyd's algorithm. Centers are seeded with
// k-means++ and the run with the lowest inertia over Restarts attempts wins.
// Centers are coordinate means; Metric is used for assignment and seeding.
type KMeans struct {
	Metric   DistanceMetric
	MaxIter  int
	Restarts int
	Rand     *rand.Rand
}

// NewKMeans returns a KMeans partitioner with a seeded generator.
func NewKMeans(metric DistanceMetric, seed uint64) *KMeans {
	return &KMeans{
		Metric:   metric,
		MaxIter:  100,
		Restarts: 3,
		Rand:     newRand(seed),
	}
}

// Partition implements Partitioner. k is clamped to the number of points.
func (km *KMeans) Partition(points [][]float64, k int) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if k < 1 {
		return nil, fmt.Errorf("mtree: k-means needs k >= 1, got %d", k)
	}
	k = min(k, n)

	restarts := max(km.Restarts, 1)
	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < restarts; r++ {
		labels, inertia := km.run(points, k)
		if inertia < bestInertia {
			bestInertia = inertia
			best = labels
		}
	}
	return best, nil
}

func (km *KMeans) run(points [][]float64, k int) ([]int, float64) {
	n := len(points)
	dims := len(points[0])
	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	seeds := kmeansPlusPlus(points, k, km.Metric, km.Rand)
	centroids := make([][]float64, len(seeds))
	for i, s := range seeds {
		centroids[i] = append([]float64(nil), points[s]...)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dims)
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			c, _ := nearestCentroid(km.Metric, p, centroids)
			if labels[i] != c {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := range sums {
			counts[c] = 0
			for d := range sums[c] {
				sums[c][d] = 0
			}
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		// Empty clusters keep their previous center.
		for c := range centroids {
			if counts[c] > 0 {
				floats.ScaleTo(centroids[c], 1/float64(counts[c]), sums[c])
			}
		}
	}

	var inertia float64
	for i, p := range points {
		d := km.Metric.Distance(p, centroids[labels[i]])
		inertia += d * d
	}
	return labels, inertia
}

// nearestCentroid returns the index of the closest centroid, first on ties.
func nearestCentroid(metric DistanceMetric, p []float64, centroids [][]float64) (int, float64) {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := metric.Distance(p, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best, bestDist
}

// kmeansPlusPlus selects up to k distinct seed indices. The first seed is
// uniform; every further seed is drawn with probability proportional to the
// squared distance to the closest seed chosen so far. Fewer than k seeds are
// returned when the remaining points all coincide with chosen seeds.
func kmeansPlusPlus(points [][]float64, k int, metric DistanceMetric, rng *rand.Rand) []int {
	n := len(points)
	if n == 0 || k < 1 {
		return nil
	}
	seeds := make([]int, 0, k)
	seeds = append(seeds, rng.IntN(n))

	closest := make([]float64, n)
	for i := range closest {
		closest[i] = math.Inf(1)
	}
	weights := make([]float64, n)
	for len(seeds) < k {
		last := points[seeds[len(seeds)-1]]
		for i, p := range points {
			d := metric.Distance(p, last)
			closest[i] = min(closest[i], d*d)
			weights[i] = closest[i]
		}
		for _, s := range seeds {
			weights[s] = 0
		}
		idx, ok := sampleuv.NewWeighted(weights, rng).Take()
		if !ok {
			break
		}
		seeds = append(seeds, idx)
	}
	return seeds
}

// newRand returns a deterministic generator for seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
