package optimize

import "github.com/pnspace/go-pnspace/petrinet"

// Batches groups transition indices into batches of at most size, joining a
// transition to the first open batch whose support overlaps its own. The
// symbolic engine disjoins the relations inside a batch, so grouping
// transitions that touch shared places lets the disjunction reuse diagram
// structure, while disjoint transitions stay in separate batches. A size
// below one is treated as one. The result is usable with
// symbolic.WithBatches.
func Batches(net *petrinet.Net, size int) [][]int {
	if size < 1 {
		size = 1
	}
	var (
		batches  [][]int
		supports []petrinet.Marking
	)
	for i, t := range net.Transitions() {
		support := t.Pre.Union(t.Post)
		placed := false
		for b := range batches {
			if len(batches[b]) < size && supports[b].Intersects(support) {
				batches[b] = append(batches[b], i)
				supports[b] = supports[b].Union(support)
				placed = true
				break
			}
		}
		if !placed {
			batches = append(batches, []int{i})
			supports = append(supports, support)
		}
	}
	return batches
}
