package mtree

// member is one entry taking part in a split: a stored point (leaf), or a
// routing center with its covering radius and child (internal).
type member struct {
	point  Point
	radius float64
	child  *node
}

// chooseCenter picks the member with the smallest eccentricity, i.e. the
// smallest maximum distance to the other members, and returns its index,
// that eccentricity as the covering radius, and the distance from the chosen
// center to every member. Ties go to the first member in input order.
//
// For internal members the distance to member j is widened by its covering
// radius, so the result covers every point under the members' children.
// For leaf members radius is zero and this is the plain minimax center.
func chooseCenter(metric DistanceMetric, members []member) (center int, radius float64, dists []float64) {
	m := len(members)
	if m == 0 {
		return -1, 0, nil
	}

	ecc := make([]float64, m)
	for i := range members {
		ecc[i] = members[i].radius
	}
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			d := metric.Distance(members[i].point.Coords, members[j].point.Coords)
			ecc[i] = max(ecc[i], d+members[j].radius)
			ecc[j] = max(ecc[j], d+members[i].radius)
		}
	}

	center = 0
	for i := 1; i < m; i++ {
		if ecc[i] < ecc[center] {
			center = i
		}
	}

	dists = make([]float64, m)
	for j := range members {
		if j != center {
			dists[j] = metric.Distance(members[center].point.Coords, members[j].point.Coords)
		}
	}
	return center, ecc[center], dists
}
