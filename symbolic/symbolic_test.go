package symbolic

import (
	"errors"
	"math/big"
	"testing"

	"github.com/pnspace/go-pnspace/petrinet"
	"github.com/pnspace/go-pnspace/reachability"
)

func createChainNet(t *testing.T) *petrinet.Net {
	t.Helper()
	net, err := petrinet.Build().
		Place("p0", true).
		Place("p1", false).
		Place("p2", false).
		Transition("t1").
		Transition("t2").
		Flow("p0", "t1", "p1").
		Flow("p1", "t2", "p2").
		Done()
	if err != nil {
		t.Fatalf("chain net: %v", err)
	}
	return net
}

func createCycleNet(t *testing.T) *petrinet.Net {
	t.Helper()
	net, err := petrinet.Build().
		Place("p0", true).
		Place("p1", false).
		Transition("t1").
		Transition("t2").
		Flow("p0", "t1", "p1").
		Flow("p1", "t2", "p0").
		Done()
	if err != nil {
		t.Fatalf("cycle net: %v", err)
	}
	return net
}

// Two independent tokens, 4 reachable markings.
func createConcurrentNet(t *testing.T) *petrinet.Net {
	t.Helper()
	net, err := petrinet.Build().
		Place("a0", true).
		Place("a1", false).
		Place("b0", true).
		Place("b1", false).
		Transition("ta").
		Transition("tb").
		Flow("a0", "ta", "a1").
		Flow("b0", "tb", "b1").
		Done()
	if err != nil {
		t.Fatalf("concurrent net: %v", err)
	}
	return net
}

// p stays marked, t marks q alongside it: visited = {p} and {p, q}, so q is
// a don't-care variable in the final diagram.
func createDontCareNet(t *testing.T) *petrinet.Net {
	t.Helper()
	net, err := petrinet.Build().
		Place("p", true).
		Place("q", false).
		Transition("t").
		Arc("p", "t").
		Arc("t", "p").
		Arc("t", "q").
		Done()
	if err != nil {
		t.Fatalf("dont-care net: %v", err)
	}
	return net
}

func markingFromInt(v int) petrinet.Marking {
	var m petrinet.Marking
	for i := 0; v>>i != 0; i++ {
		if v>>i&1 == 1 {
			m = m.Set(i)
		}
	}
	return m
}

// checkEquivalence verifies that the diagram denotes exactly the explicit
// engine's visited set: equal cardinality and membership of every visited
// marking, plus a full sweep of the marking space on small nets.
func checkEquivalence(t *testing.T, net *petrinet.Net, opts ...Option) {
	t.Helper()
	res, err := reachability.NewExplorer(net).Explore()
	if err != nil {
		t.Fatalf("explicit explore: %v", err)
	}
	ctx, err := NewContext(net, opts...)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	defer ctx.Close()
	set := ctx.Explore()

	if set.Count().Cmp(big.NewInt(int64(res.Count()))) != 0 {
		t.Errorf("cardinality mismatch: symbolic %s, explicit %d", set.Count(), res.Count())
	}
	for m := range res.Visited {
		if !set.Contains(m) {
			t.Errorf("visited marking %s missing from diagram", net.FormatMarking(m))
		}
	}
	if n := net.PlaceCount(); n <= 10 {
		for v := 0; v < 1<<n; v++ {
			m := markingFromInt(v)
			if got, want := set.Contains(m), res.Contains(m); got != want {
				t.Errorf("membership of %s: symbolic %v, explicit %v", net.FormatMarking(m), got, want)
			}
		}
	}
}

// === Equivalence ===

func TestEquivalenceChain(t *testing.T) {
	checkEquivalence(t, createChainNet(t))
}

func TestEquivalenceCycle(t *testing.T) {
	checkEquivalence(t, createCycleNet(t))
}

func TestEquivalenceConcurrent(t *testing.T) {
	checkEquivalence(t, createConcurrentNet(t))
}

func TestEquivalenceDontCare(t *testing.T) {
	checkEquivalence(t, createDontCareNet(t))
}

func TestEquivalenceIsolatedPlace(t *testing.T) {
	net, err := petrinet.Build().Place("p0", true).Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	checkEquivalence(t, net)

	ctx, err := NewContext(net)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	defer ctx.Close()
	set := ctx.Explore()
	if set.Count().Cmp(big.NewInt(1)) != 0 {
		t.Errorf("isolated place should reach exactly its initial marking, got %s", set.Count())
	}
}

func TestEquivalenceUnderOrder(t *testing.T) {
	net := createConcurrentNet(t)
	// Reversed order: different diagram shape, same denoted set.
	checkEquivalence(t, net, WithOrder([]int{3, 2, 1, 0}))
	checkEquivalence(t, net, WithOrder([]int{1, 3, 0, 2}))
}

func TestEquivalenceUnderBatches(t *testing.T) {
	net := createConcurrentNet(t)
	checkEquivalence(t, net, WithBatches([][]int{{0, 1}}))

	chain := createChainNet(t)
	checkEquivalence(t, chain, WithBatches([][]int{{1}, {0}}))
}

// === Option Validation ===

func TestBadOrder(t *testing.T) {
	net := createChainNet(t)
	cases := [][]int{
		{0, 1},       // too short
		{0, 1, 1},    // duplicate
		{0, 1, 3},    // out of range
		{0, 1, 2, 3}, // too long
		{-1, 1, 2},   // negative
	}
	for _, order := range cases {
		if _, err := NewContext(net, WithOrder(order)); !errors.Is(err, ErrBadOrder) {
			t.Errorf("order %v: expected ErrBadOrder, got %v", order, err)
		}
	}
}

func TestBadBatches(t *testing.T) {
	net := createChainNet(t)
	cases := [][][]int{
		{{0}},         // misses t2
		{{0, 1, 0}},   // duplicate
		{{0}, {1, 2}}, // out of range
	}
	for _, batches := range cases {
		if _, err := NewContext(net, WithBatches(batches)); !errors.Is(err, ErrBadBatches) {
			t.Errorf("batches %v: expected ErrBadBatches, got %v", batches, err)
		}
	}
}

func TestClosedContextPanics(t *testing.T) {
	net := createChainNet(t)
	ctx, err := NewContext(net)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	set := ctx.Explore()
	ctx.Close()
	ctx.Close() // idempotent

	defer func() {
		if recover() == nil {
			t.Error("using a StateSet after Close should panic")
		}
	}()
	set.Contains(net.Initial())
}

// === MaxWeight ===

func bruteMaxWeight(net *petrinet.Net, res *reachability.Result, w map[string]int64) int64 {
	best := int64(negInf)
	for m := range res.Visited {
		v := int64(0)
		for i, name := range net.Places() {
			if m.Bit(i) {
				v += w[name]
			}
		}
		if v > best {
			best = v
		}
	}
	return best
}

func checkMaxWeight(t *testing.T, net *petrinet.Net, w map[string]int64) {
	t.Helper()
	res, err := reachability.NewExplorer(net).Explore()
	if err != nil {
		t.Fatalf("explicit explore: %v", err)
	}
	ctx, err := NewContext(net)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	defer ctx.Close()
	set := ctx.Explore()

	m, total := set.MaxWeight(w)
	if want := bruteMaxWeight(net, res, w); total != want {
		t.Errorf("weights %v: got %d, brute force says %d", w, total, want)
	}
	if !res.Contains(m) {
		t.Errorf("weights %v: returned marking %s is not reachable", w, net.FormatMarking(m))
	}
	recomputed := int64(0)
	for i, name := range net.Places() {
		if m.Bit(i) {
			recomputed += w[name]
		}
	}
	if recomputed != total {
		t.Errorf("weights %v: marking %s weighs %d, reported %d", w, net.FormatMarking(m), recomputed, total)
	}
}

func TestMaxWeightChain(t *testing.T) {
	net := createChainNet(t)
	checkMaxWeight(t, net, map[string]int64{"p0": 1, "p1": 7, "p2": 3})
	checkMaxWeight(t, net, map[string]int64{"p0": -2, "p1": -9, "p2": -4})
	checkMaxWeight(t, net, map[string]int64{"p1": 5}) // missing places count 0
}

func TestMaxWeightConcurrent(t *testing.T) {
	net := createConcurrentNet(t)
	checkMaxWeight(t, net, map[string]int64{"a0": 2, "a1": -3, "b0": -1, "b1": 4})
	checkMaxWeight(t, net, map[string]int64{"a0": -5, "a1": -3, "b0": -8, "b1": -13})
}

func TestMaxWeightDontCare(t *testing.T) {
	net := createDontCareNet(t)

	// q is a don't-care level in the diagram; its positive weight must still
	// be credited, its negative weight avoided.
	checkMaxWeight(t, net, map[string]int64{"p": 1, "q": 5})
	checkMaxWeight(t, net, map[string]int64{"p": 1, "q": -5})
	// All-negative: the empty marking is unreachable, so the best is {p}.
	checkMaxWeight(t, net, map[string]int64{"p": -1, "q": -2})
}
