package optimize

import (
	"errors"
	"testing"

	"github.com/pnspace/go-pnspace/petrinet"
	"github.com/pnspace/go-pnspace/symbolic"
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

// Place declaration order deliberately interleaves the two independent
// token lines, so the identity ordering is poor.
func createInterleavedNet(t *testing.T) *petrinet.Net {
	t.Helper()
	net, err := petrinet.Build().
		Place("x0", true).
		Place("y0", true).
		Place("x1", false).
		Place("y1", false).
		Transition("tx").
		Transition("ty").
		Flow("x0", "tx", "x1").
		Flow("y0", "ty", "y1").
		Done()
	if err != nil {
		t.Fatalf("interleaved net: %v", err)
	}
	return net
}

func checkPermutation(t *testing.T, order []int, n int) {
	t.Helper()
	if len(order) != n {
		t.Fatalf("order has %d entries, want %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, p := range order {
		if p < 0 || p >= n || seen[p] {
			t.Fatalf("order %v is not a permutation of [0, %d)", order, n)
		}
		seen[p] = true
	}
}

// === Orderings ===

func TestIdentityOrder(t *testing.T) {
	order := IdentityOrder(4)
	checkPermutation(t, order, 4)
	for i, p := range order {
		if p != i {
			t.Errorf("identity order maps level %d to place %d", i, p)
		}
	}
}

func TestAdjacencyOrder(t *testing.T) {
	net := createConcurrentNet(t)
	order := AdjacencyOrder(net)
	checkPermutation(t, order, 4)

	// BFS seeds from the marked places a0 and b0, then pulls in their
	// transition neighbours.
	want := []int{0, 2, 1, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("adjacency order %v, want %v", order, want)
		}
	}
}

func TestAdjacencyOrderCoversIsolated(t *testing.T) {
	net, err := petrinet.Build().
		Place("p0", true).
		Place("lonely", false).
		Place("p1", false).
		Transition("t1").
		Flow("p0", "t1", "p1").
		Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	checkPermutation(t, AdjacencyOrder(net), 3)
}

func TestForceOrderImprovesSpan(t *testing.T) {
	net := createInterleavedNet(t)
	identity := Span(net, IdentityOrder(net.PlaceCount()))
	if identity != 4 {
		t.Fatalf("interleaved identity span = %d, want 4", identity)
	}

	order := ForceOrder(net, 5)
	checkPermutation(t, order, 4)
	if got := Span(net, order); got > identity {
		t.Errorf("force order span %d worse than identity %d", got, identity)
	}
}

func TestForceOrderZeroRounds(t *testing.T) {
	net := createChainNet(t)
	order := ForceOrder(net, 0)
	checkPermutation(t, order, 3)
	for i, p := range order {
		if p != i {
			t.Errorf("zero rounds should keep the identity, got %v", order)
			break
		}
	}
}

func TestSpanChain(t *testing.T) {
	net := createChainNet(t)
	if got := Span(net, IdentityOrder(3)); got != 2 {
		t.Errorf("chain identity span = %d, want 2", got)
	}
	if got := Span(net, []int{0, 2, 1}); got != 3 {
		t.Errorf("chain shuffled span = %d, want 3", got)
	}
}

// === Batches ===

func TestBatchesGroupByOverlap(t *testing.T) {
	chain := createChainNet(t)
	got := Batches(chain, 2)
	if len(got) != 1 || len(got[0]) != 2 || got[0][0] != 0 || got[0][1] != 1 {
		t.Errorf("chain batches = %v, want [[0 1]]", got)
	}

	conc := createConcurrentNet(t)
	got = Batches(conc, 2)
	if len(got) != 2 || len(got[0]) != 1 || len(got[1]) != 1 {
		t.Errorf("disjoint transitions should not share a batch, got %v", got)
	}
}

func TestBatchesSizeOne(t *testing.T) {
	net := createChainNet(t)
	for _, size := range []int{1, 0, -3} {
		got := Batches(net, size)
		if len(got) != 2 {
			t.Errorf("size %d: batches = %v, want singletons", size, got)
		}
	}
}

// === Verify ===

func TestVerifyDefaults(t *testing.T) {
	if err := Verify(createChainNet(t), nil, nil); err != nil {
		t.Errorf("default configuration: %v", err)
	}
}

func TestVerifyHeuristics(t *testing.T) {
	for _, net := range []*petrinet.Net{createChainNet(t), createConcurrentNet(t), createInterleavedNet(t)} {
		order := ForceOrder(net, 5)
		batches := Batches(net, 2)
		if err := Verify(net, order, batches); err != nil {
			t.Errorf("force order %v with batches %v: %v", order, batches, err)
		}
		if err := Verify(net, AdjacencyOrder(net), nil); err != nil {
			t.Errorf("adjacency order: %v", err)
		}
	}
}

func TestVerifyRejectsBadOrder(t *testing.T) {
	net := createChainNet(t)
	if err := Verify(net, []int{0, 0, 1}, nil); !errors.Is(err, symbolic.ErrBadOrder) {
		t.Errorf("expected ErrBadOrder, got %v", err)
	}
}
