// Package optimize provides variable-ordering and transition-batching
// heuristics for the symbolic engine, plus a verifier that proves a chosen
// configuration preserves the reachable set.
//
// Orderings and batchings only change the shape and cost of the decision
// diagrams, never the set they denote. Verify makes that guarantee checkable
// for any configuration before it is trusted on larger runs.
package optimize

import (
	"sort"

	"github.com/pnspace/go-pnspace/petrinet"
)

// IdentityOrder returns the trivial ordering that assigns place i to
// diagram level i.
func IdentityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// AdjacencyOrder orders places by breadth-first traversal of the place
// adjacency graph, where two places are adjacent when some transition
// touches both. Traversal starts from the initially marked places, so
// places that interact through shared transitions land on nearby levels.
// The result is a permutation of [0, PlaceCount) usable with
// symbolic.WithOrder.
func AdjacencyOrder(net *petrinet.Net) []int {
	n := net.PlaceCount()
	adj := make([][]int, n)
	for _, e := range hyperedges(net) {
		for _, a := range e {
			for _, b := range e {
				if a != b {
					adj[a] = append(adj[a], b)
				}
			}
		}
	}

	order := make([]int, 0, n)
	seen := make([]bool, n)
	var queue []int
	enqueue := func(i int) {
		if !seen[i] {
			seen[i] = true
			queue = append(queue, i)
		}
	}
	initial := net.Initial()
	for i := 0; i < n; i++ {
		if initial.Bit(i) {
			enqueue(i)
		}
	}
	for len(order) < n {
		if len(queue) == 0 {
			for i := 0; i < n; i++ {
				if !seen[i] {
					enqueue(i)
					break
				}
			}
		}
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, nb := range adj[cur] {
			enqueue(nb)
		}
	}
	return order
}

// ForceOrder runs the FORCE barycenter heuristic: each transition is a
// hyperedge over the places it touches, and for the given number of rounds
// every place migrates toward the center of gravity of its hyperedges.
// More rounds refine the ordering at linear cost per round; a handful is
// usually enough for the positions to settle.
func ForceOrder(net *petrinet.Net, rounds int) []int {
	n := net.PlaceCount()
	edges := hyperedges(net)

	pos := make([]float64, n)
	for i := range pos {
		pos[i] = float64(i)
	}
	for r := 0; r < rounds; r++ {
		next := make([]float64, n)
		degree := make([]int, n)
		for _, e := range edges {
			cog := 0.0
			for _, p := range e {
				cog += pos[p]
			}
			cog /= float64(len(e))
			for _, p := range e {
				next[p] += cog
				degree[p]++
			}
		}
		for i := range next {
			if degree[i] == 0 {
				next[i] = pos[i]
			} else {
				next[i] /= float64(degree[i])
			}
		}
		// Re-rank to integer levels so rounds stay comparable.
		for level, p := range rankByPosition(next) {
			pos[p] = float64(level)
		}
	}

	return rankByPosition(pos)
}

// Span measures an ordering: for every transition, the distance between the
// highest and lowest level of the places it touches, summed over all
// transitions. Smaller spans keep each transition relation confined to few
// adjacent levels, which keeps the intermediate diagrams small.
func Span(net *petrinet.Net, order []int) int {
	level := make([]int, len(order))
	for k, p := range order {
		level[p] = k
	}
	total := 0
	for _, e := range hyperedges(net) {
		lo, hi := len(order), -1
		for _, p := range e {
			if level[p] < lo {
				lo = level[p]
			}
			if level[p] > hi {
				hi = level[p]
			}
		}
		if hi >= 0 {
			total += hi - lo
		}
	}
	return total
}

// hyperedges lists, per transition, the indices of the places its firing
// reads or writes. Transitions touching no place contribute no edge.
func hyperedges(net *petrinet.Net) [][]int {
	n := net.PlaceCount()
	var edges [][]int
	for _, t := range net.Transitions() {
		support := t.Pre.Union(t.Post)
		var e []int
		for i := 0; i < n; i++ {
			if support.Bit(i) {
				e = append(e, i)
			}
		}
		if len(e) > 0 {
			edges = append(edges, e)
		}
	}
	return edges
}

// rankByPosition returns place indices sorted by tentative position, ties
// broken by index so repeated runs agree.
func rankByPosition(pos []float64) []int {
	order := make([]int, len(pos))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if pos[order[a]] != pos[order[b]] {
			return pos[order[a]] < pos[order[b]]
		}
		return order[a] < order[b]
	})
	return order
}
