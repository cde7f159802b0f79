package mtree

import "math"

// mstEdge connects two point indices in a minimum spanning tree.
type mstEdge struct {
	from, to int
	weight   float64
}

// primMST computes a minimum spanning tree with Prim's algorithm on a dense
// n×n row-major distance matrix. It returns n-1 edges in the order their
// endpoint joined the tree; each edge names the tree vertex the new vertex
// was actually attached to.
func primMST(dist []float64, n int) []mstEdge {
	if n <= 1 {
		return nil
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	attach := make([]int, n)

	inTree[0] = true
	for j := 1; j < n; j++ {
		best[j] = dist[j]
		attach[j] = 0
	}

	edges := make([]mstEdge, 0, n-1)
	for i := 0; i < n-1; i++ {
		next := -1
		nextDist := math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && (next == -1 || best[j] < nextDist) {
				nextDist = best[j]
				next = j
			}
		}

		edges = append(edges, mstEdge{from: attach[next], to: next, weight: nextDist})
		inTree[next] = true

		for k := 0; k < n; k++ {
			if !inTree[k] {
				if d := dist[next*n+k]; d < best[k] {
					best[k] = d
					attach[k] = next
				}
			}
		}
	}
	return edges
}
