package symbolic

import (
	"math"

	"github.com/pnspace/go-pnspace/petrinet"
)

// negInf keeps headroom so that adding skipped-level gains to an impossible
// branch can never overflow or beat a feasible one.
const negInf = math.MinInt64 / 4

type ddNode struct {
	level, low, high int
}

// MaxWeight returns a marking in the denoted set maximizing the summed
// weight of its held places, together with that weight. Places missing from
// weights count as zero. The walk is exact: dynamic programming over the
// diagram DAG, crediting the positive weights of don't-care places skipped
// between a node and its children (a reduced diagram leaves free places
// implicit). Explore never returns an empty set; on one, the zero marking
// and weight zero come back.
func (s *StateSet) MaxWeight(weights map[string]int64) (petrinet.Marking, int64) {
	c := s.ctx
	c.ensureOpen()
	n := c.net.PlaceCount()

	// Per-position weights and prefix sums of the positive ones. gain(a, b)
	// is the best contribution of free positions in [a, b).
	w := make([]int64, n)
	prefix := make([]int64, n+1)
	for k := 0; k < n; k++ {
		w[k] = weights[c.net.PlaceAt(c.order[k])]
		prefix[k+1] = prefix[k]
		if w[k] > 0 {
			prefix[k+1] += w[k]
		}
	}
	gain := func(a, b int) int64 { return prefix[b] - prefix[a] }

	// Internal nodes reachable from the root. Terminals keep ids 0 (false)
	// and 1 (true) and are not always reported, so they are special-cased.
	nodes := make(map[int]ddNode)
	c.bdd.Allnodes(func(id, level, low, high int) error {
		if id > 1 {
			nodes[id] = ddNode{level: level, low: low, high: high}
		}
		return nil
	}, s.root)

	posOf := func(id int) int {
		if id <= 1 {
			return n
		}
		return nodes[id].level / 2
	}

	memo := make(map[int]int64)
	var best func(id int) int64
	best = func(id int) int64 {
		if id == 1 {
			return 0
		}
		if id == 0 {
			return negInf
		}
		if v, ok := memo[id]; ok {
			return v
		}
		nd := nodes[id]
		k := nd.level / 2
		lo := gain(k+1, posOf(nd.low)) + best(nd.low)
		hi := w[k] + gain(k+1, posOf(nd.high)) + best(nd.high)
		v := lo
		if hi > v {
			v = hi
		}
		memo[id] = v
		return v
	}

	root := *s.root
	if root == 0 {
		return petrinet.Marking{}, 0
	}
	total := gain(0, posOf(root)) + best(root)

	// Reconstruct one maximizing marking: free positions take their token
	// exactly when the weight is positive, decision positions follow the
	// better branch.
	var m petrinet.Marking
	fill := func(from, to int) {
		for k := from; k < to; k++ {
			if w[k] > 0 {
				m = m.Set(c.order[k])
			}
		}
	}
	fill(0, posOf(root))
	for id := root; id > 1; {
		nd := nodes[id]
		k := nd.level / 2
		lo := gain(k+1, posOf(nd.low)) + best(nd.low)
		hi := w[k] + gain(k+1, posOf(nd.high)) + best(nd.high)
		if hi > lo {
			m = m.Set(c.order[k])
			fill(k+1, posOf(nd.high))
			id = nd.high
		} else {
			fill(k+1, posOf(nd.low))
			id = nd.low
		}
	}
	return m, total
}
