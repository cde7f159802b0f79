package mtree

import "fmt"

// membersOf returns the entries of n as split members.
func membersOf(n *node) []member {
	members := make([]member, n.keyCount())
	if n.leaf {
		for i, p := range n.points {
			members[i] = member{point: p}
		}
		return members
	}
	for i, c := range n.centers {
		members[i] = member{point: c, radius: n.radii[i], child: n.children[i]}
	}
	return members
}

func memberCoords(members []member) [][]float64 {
	coords := make([][]float64, len(members))
	for i, m := range members {
		coords[i] = m.point.Coords
	}
	return coords
}

// callOracle runs one oracle request. Errors, panics and evaluations that
// do not describe a split of points all come back as ok == false.
func (t *Tree) callOracle(points [][]float64, k int, call func() (Evaluation, error)) (ev Evaluation, ok bool) {
	t.stats.oracleCalls.Add(1)
	defer func() {
		if r := recover(); r != nil {
			t.logger.LogOracleRejected(len(points), k, fmt.Errorf("mtree: oracle panic: %v", r))
			ev, ok = Evaluation{}, false
		}
	}()

	ev, err := call()
	if err != nil {
		t.logger.LogOracleRejected(len(points), k, err)
		return Evaluation{}, false
	}
	if !ev.Valid(len(points)) {
		t.logger.LogOracleRejected(len(points), k, nil)
		return Evaluation{}, false
	}
	return ev, true
}

func (t *Tree) evaluate(points [][]float64, maxK int) (Evaluation, bool) {
	return t.callOracle(points, maxK, func() (Evaluation, error) {
		return t.oracle.Evaluate(points, maxK)
	})
}

func (t *Tree) evaluateK(points [][]float64, k int) (Evaluation, bool) {
	return t.callOracle(points, k, func() (Evaluation, error) {
		return t.oracle.EvaluateK(points, k)
	})
}

// proposeSplit asks the oracle how members decompose. The configured split
// size replaces the oracle's own count and the result never nominally
// exceeds limit clusters; both adjustments re-run the oracle with an
// explicit count. ok is false when members should stay together.
func (t *Tree) proposeSplit(members []member, limit int) (Evaluation, bool) {
	if limit < 2 || len(members) < 2 {
		return Evaluation{}, false
	}
	points := memberCoords(members)

	ev, ok := t.evaluate(points, t.cfg.MaxEntries)
	if !ok {
		return Evaluation{}, false
	}
	if s := t.cfg.SplitSize; s > 0 && ev.NumClusters != s {
		if ev, ok = t.evaluateK(points, s); !ok {
			return Evaluation{}, false
		}
	}
	if ev.NumClusters > limit {
		if ev, ok = t.evaluateK(points, limit); !ok {
			return Evaluation{}, false
		}
	}
	return ev, true
}

// splitMembers groups members by label and builds one route per non-empty
// group, in label order. It returns nil when the grouping would not fit in
// limit routes or would not split anything.
func (t *Tree) splitMembers(members []member, ev Evaluation, leaf bool, limit int) []route {
	groups := make([][]member, ev.NumClusters)
	for i, l := range ev.Labels {
		groups[l] = append(groups[l], members[i])
	}

	nonEmpty := 0
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 || nonEmpty > limit {
		return nil
	}

	routes := make([]route, 0, nonEmpty)
	for _, g := range groups {
		if len(g) > 0 {
			routes = append(routes, t.buildRoute(g, leaf))
		}
	}
	return routes
}

// buildRoute turns a group of members into a routing entry: the minimax
// center, its covering radius and a fresh child holding the members.
func (t *Tree) buildRoute(group []member, leaf bool) route {
	center, radius, dists := chooseCenter(t.metric, group)

	var child *node
	if leaf {
		child = newLeaf(len(group) + 1)
		for j, m := range group {
			child.appendPoint(m.point, dists[j])
		}
	} else {
		child = newInternal(t.cfg.MaxEntries)
		for j, m := range group {
			child.appendRoute(route{center: m.point, radius: m.radius, child: m.child}, dists[j])
		}
	}
	return route{center: group[center].point, radius: radius, child: child}
}
