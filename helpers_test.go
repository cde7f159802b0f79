package mtree

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

const floatTol = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// randomPoints returns n points with coordinates uniform in [0, scale).
func randomPoints(n, dims int, scale float64, seed uint64) []Point {
	rng := newRand(seed)
	points := make([]Point, n)
	for i := range points {
		coords := make([]float64, dims)
		for d := range coords {
			coords[d] = rng.Float64() * scale
		}
		points[i] = Point{ID: uint32(i), Coords: coords}
	}
	return points
}

// blobs returns perBlob gaussian points around each center.
func blobs(centers [][]float64, perBlob int, sigma float64, seed uint64) []Point {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	points := make([]Point, 0, len(centers)*perBlob)
	for _, c := range centers {
		for range perBlob {
			coords := make([]float64, len(c))
			for d := range coords {
				coords[d] = c[d] + rng.NormFloat64()*sigma
			}
			points = append(points, Point{ID: uint32(len(points)), Coords: coords})
		}
	}
	return points
}

// interleave reorders points so that consecutive points come from
// different blobs of equal size.
func interleave(points []Point, numBlobs int) []Point {
	perBlob := len(points) / numBlobs
	out := make([]Point, 0, len(points))
	for i := range perBlob {
		for b := range numBlobs {
			out = append(out, points[b*perBlob+i])
		}
	}
	return out
}

// capacityConfig builds a tree configuration with the cheap capacity
// oracle, suited to property tests over many points.
func capacityConfig(metric DistanceMetric, maxEntries, leafCapacity int) Config {
	cfg := DefaultConfig()
	cfg.Metric = metric
	cfg.MaxEntries = maxEntries
	cfg.LeafCapacity = leafCapacity
	cfg.Workers = 1
	return cfg
}

func buildTree(t testing.TB, cfg Config, points []Point) *Tree {
	t.Helper()
	tree, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, tree.InsertAll(points))
	return tree
}

func bruteRange(metric DistanceMetric, points []Point, q []float64, r float64) []uint32 {
	var ids []uint32
	for _, p := range points {
		if metric.Distance(p.Coords, q) <= r {
			ids = append(ids, p.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func bruteKNNDistances(metric DistanceMetric, points []Point, q []float64, k int) []float64 {
	dists := make([]float64, len(points))
	for i, p := range points {
		dists[i] = metric.Distance(p.Coords, q)
	}
	slices.Sort(dists)
	return dists[:min(k, len(dists))]
}

func pointIDs(points []Point) []uint32 {
	ids := make([]uint32, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	slices.Sort(ids)
	return ids
}

func coordsOf(points []Point) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = p.Coords
	}
	return out
}

// stubOracle returns canned answers and records the requests it saw.
type stubOracle struct {
	evaluate  func(points [][]float64, maxK int) (Evaluation, error)
	evaluateK func(points [][]float64, k int) (Evaluation, error)

	freeCalls     int
	explicitCalls []int
}

func (s *stubOracle) Evaluate(points [][]float64, maxK int) (Evaluation, error) {
	s.freeCalls++
	return s.evaluate(points, maxK)
}

func (s *stubOracle) EvaluateK(points [][]float64, k int) (Evaluation, error) {
	s.explicitCalls = append(s.explicitCalls, k)
	return s.evaluateK(points, k)
}

// roundRobin labels points 0, 1, ..., k-1, 0, 1, ...
func roundRobin(n, k int) Evaluation {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % k
	}
	return Evaluation{NumClusters: k, Labels: labels}
}
