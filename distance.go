package mtree

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric computes the distance between two coordinate vectors.
// The tree's pruning is only sound for metrics that are symmetric and
// satisfy the triangle inequality.
type DistanceMetric interface {
	Distance(a, b []float64) float64
}

// BoundedMetric is implemented by metrics that can stop early once the
// partial distance provably reaches bound. DistanceWithin returns the exact
// distance, the same value Distance returns, when it is below bound and some
// value >= bound otherwise.
type BoundedMetric interface {
	DistanceMetric
	DistanceWithin(a, b []float64, bound float64) float64
}

// DistanceFunc adapts a plain function into a DistanceMetric.
type DistanceFunc func(a, b []float64) float64

func (f DistanceFunc) Distance(a, b []float64) float64 { return f(a, b) }

// earlyExitSlack widens the power-sum limit of the early exits so that the
// running sum, which rounds differently from floats.Distance, only stops a
// computation whose exact distance is clearly past the bound. Below the
// limit the result is always floats.Distance, matching Distance bit for bit.
const earlyExitSlack = 1 + 1e-9

// pruneSlack is the rounding allowance of a triangle-inequality prune that
// combines distances of magnitude up to scale. Prunes only ever loosen by
// it; membership is still decided by an exact distance.
func pruneSlack(scale float64) float64 { return 1e-9 * scale }

// EuclideanMetric computes the Euclidean (L2) distance.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

func (EuclideanMetric) DistanceWithin(a, b []float64, bound float64) float64 {
	limit := bound * bound * earlyExitSlack
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
		if sum > limit {
			return math.Max(math.Sqrt(sum), bound)
		}
	}
	return floats.Distance(a, b, 2)
}

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

func (ManhattanMetric) DistanceWithin(a, b []float64, bound float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
		if sum >= bound {
			return sum
		}
	}
	return sum
}

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

func (ChebyshevMetric) DistanceWithin(a, b []float64, bound float64) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
			if maxVal >= bound {
				return maxVal
			}
		}
	}
	return maxVal
}

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1; validateConfig rejects smaller values.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, m.P)
}

func (m MinkowskiMetric) DistanceWithin(a, b []float64, bound float64) float64 {
	limit := math.Pow(bound, m.P) * earlyExitSlack
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), m.P)
		if sum > limit {
			return math.Max(math.Pow(sum, 1/m.P), bound)
		}
	}
	return floats.Distance(a, b, m.P)
}

// FilteredMetric applies Inner to the projection of both vectors onto
// Attributes. Projection keeps the triangle inequality of Inner, although
// distinct points may end up at distance zero.
type FilteredMetric struct {
	Inner      DistanceMetric
	Attributes []int
}

func (m FilteredMetric) Distance(a, b []float64) float64 {
	pa := make([]float64, len(m.Attributes))
	pb := make([]float64, len(m.Attributes))
	for i, attr := range m.Attributes {
		pa[i] = a[attr]
		pb[i] = b[attr]
	}
	return m.Inner.Distance(pa, pb)
}

// ParseMetric resolves a metric name to a DistanceMetric. Minkowski uses P=3.
func ParseMetric(name string) (DistanceMetric, error) {
	switch strings.ToLower(name) {
	case "euclidean", "l2":
		return EuclideanMetric{}, nil
	case "manhattan", "l1":
		return ManhattanMetric{}, nil
	case "chebyshev", "linf":
		return ChebyshevMetric{}, nil
	case "minkowski":
		return MinkowskiMetric{P: 3}, nil
	default:
		return nil, fmt.Errorf("mtree: unknown metric %q", name)
	}
}

// countingMetric counts every distance evaluation made through it.
type countingMetric struct {
	inner DistanceMetric
	calls *atomic.Int64
}

func (c countingMetric) Distance(a, b []float64) float64 {
	c.calls.Add(1)
	return c.inner.Distance(a, b)
}

// DistanceWithin falls back to the exact distance when the inner metric
// has no bounded variant.
func (c countingMetric) DistanceWithin(a, b []float64, bound float64) float64 {
	c.calls.Add(1)
	if bm, ok := c.inner.(BoundedMetric); ok {
		return bm.DistanceWithin(a, b, bound)
	}
	return c.inner.Distance(a, b)
}
