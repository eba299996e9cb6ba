package deadlock

import (
	"errors"
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

// A cycle broken open by t3: the only dead assignment is the empty marking,
// which is unreachable, and no 0/1 invariant rules it out. Deciding this
// net needs the oracle-driven refinement loop.
func createRefinementNet(t *testing.T) *petrinet.Net {
	t.Helper()
	net, err := petrinet.Build().
		Place("a", true).
		Place("b", false).
		Transition("t1").
		Transition("t2").
		Transition("t3").
		Flow("a", "t1", "b").
		Flow("b", "t2", "a").
		Arc("b", "t3").
		Arc("t3", "a").
		Arc("t3", "b").
		Done()
	if err != nil {
		t.Fatalf("refinement net: %v", err)
	}
	return net
}

func oracleFor(t *testing.T, net *petrinet.Net) func(petrinet.Marking) bool {
	t.Helper()
	res, err := reachability.NewExplorer(net).Explore()
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	return res.Contains
}

// === Verdicts ===

func TestDetectChain(t *testing.T) {
	net := createChainNet(t)
	report, err := NewDetector(net).WithOracle(oracleFor(t, net)).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictConfirmed {
		t.Fatalf("verdict = %v, want confirmed-deadlock", report.Verdict)
	}
	if want := petrinet.MarkingOf(2); !report.Witness.Equal(want) {
		t.Errorf("witness = %s, want %s", net.FormatMarking(report.Witness), net.FormatMarking(want))
	}
	if report.Iterations < 1 {
		t.Errorf("iterations = %d, want at least 1", report.Iterations)
	}
}

func TestDetectCycle(t *testing.T) {
	// The pair invariant p0+p1 = 1 contradicts the dead assignment, so the
	// cycle is decided without any oracle.
	report, err := NewDetector(createCycleNet(t)).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictNoDeadlock {
		t.Errorf("verdict = %v, want no-deadlock", report.Verdict)
	}
}

func TestDetectIsolatedPlace(t *testing.T) {
	net, err := petrinet.Build().Place("p0", true).Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	report, err := NewDetector(net).WithOracle(oracleFor(t, net)).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictConfirmed {
		t.Fatalf("verdict = %v, want confirmed-deadlock", report.Verdict)
	}
	if !report.Witness.Equal(net.Initial()) {
		t.Errorf("witness = %s, want the initial marking", net.FormatMarking(report.Witness))
	}
}

func TestDetectIsolatedAlongsideChain(t *testing.T) {
	net, err := petrinet.Build().
		Place("p0", true).
		Place("p1", false).
		Place("lonely", true).
		Transition("t1").
		Flow("p0", "t1", "p1").
		Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	report, err := NewDetector(net).WithOracle(oracleFor(t, net)).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictConfirmed {
		t.Fatalf("verdict = %v, want confirmed-deadlock", report.Verdict)
	}
	if want := petrinet.MarkingOf(1, 2); !report.Witness.Equal(want) {
		t.Errorf("witness = %s, want %s", net.FormatMarking(report.Witness), net.FormatMarking(want))
	}
}

func TestDetectSourceTransition(t *testing.T) {
	// t feeds p from an empty pre-set, so it is enabled at every marking
	// and the decision short-circuits.
	net, err := petrinet.Build().
		Place("p", true).
		Transition("t").
		Arc("t", "p").
		Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	report, err := NewDetector(net).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictNoDeadlock {
		t.Errorf("verdict = %v, want no-deadlock", report.Verdict)
	}
	if report.Iterations != 0 {
		t.Errorf("iterations = %d, want 0 for the short circuit", report.Iterations)
	}
}

// === Refinement ===

func TestRefinementExcludesUnreachable(t *testing.T) {
	net := createRefinementNet(t)
	report, err := NewDetector(net).WithOracle(oracleFor(t, net)).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictNoDeadlock {
		t.Fatalf("verdict = %v, want no-deadlock", report.Verdict)
	}
	if report.Iterations != 2 {
		t.Errorf("iterations = %d, want 2 (exclude the empty marking, then unsat)", report.Iterations)
	}
}

func TestUnverifiedWithoutOracle(t *testing.T) {
	report, err := NewDetector(createRefinementNet(t)).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Verdict != VerdictUnverified {
		t.Fatalf("verdict = %v, want candidate-unverified", report.Verdict)
	}
	if !report.Witness.IsZero() {
		t.Errorf("witness = %v, want the empty marking", report.Witness)
	}
}

func TestIterationLimit(t *testing.T) {
	net := createRefinementNet(t)
	_, err := NewDetector(net).
		WithOracle(func(petrinet.Marking) bool { return false }).
		WithMaxIter(1).
		Detect()
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("expected ErrIterationLimit, got %v", err)
	}
}

func TestVerdictString(t *testing.T) {
	cases := map[Verdict]string{
		VerdictNoDeadlock: "no-deadlock",
		VerdictConfirmed:  "confirmed-deadlock",
		VerdictUnverified: "candidate-unverified",
	}
	for v, want := range cases {
		if v.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(v), v.String(), want)
		}
	}
}

// === Invariants ===

func TestInvariantsChain(t *testing.T) {
	invs := Invariants(createChainNet(t))
	if len(invs) != 1 {
		t.Fatalf("chain invariants = %v, want exactly the all-ones vector", invs)
	}
	if len(invs[0].Support) != 3 || invs[0].Tokens != 1 {
		t.Errorf("invariant = %v, want all three places with one token", invs[0])
	}
}

func TestInvariantsCycle(t *testing.T) {
	invs := Invariants(createCycleNet(t))
	if len(invs) != 1 {
		t.Fatalf("cycle invariants = %v, want exactly the place pair", invs)
	}
	inv := invs[0]
	if len(inv.Support) != 2 || inv.Tokens != 1 {
		t.Errorf("invariant = %v, want both places with one token", inv)
	}
	if !inv.Holds(petrinet.MarkingOf(0)) || !inv.Holds(petrinet.MarkingOf(1)) {
		t.Error("invariant should hold on both reachable markings")
	}
	if inv.Holds(petrinet.MarkingOf()) || inv.Holds(petrinet.MarkingOf(0, 1)) {
		t.Error("invariant should reject the empty and the double marking")
	}
}

func TestInvariantsNoTransitions(t *testing.T) {
	net, err := petrinet.Build().Place("p0", true).Place("p1", false).Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	invs := Invariants(net)
	if len(invs) != 2 {
		t.Fatalf("invariants = %v, want one singleton per place", invs)
	}
	if invs[0].Tokens != 1 || invs[1].Tokens != 0 {
		t.Errorf("invariants = %v, want p0 pinned full and p1 pinned empty", invs)
	}
}

func TestInvariantsSelfLoop(t *testing.T) {
	net, err := petrinet.Build().
		Place("a", true).
		Transition("t").
		Arc("a", "t").
		Arc("t", "a").
		Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	invs := Invariants(net)
	if len(invs) != 1 || len(invs[0].Support) != 1 || invs[0].Tokens != 1 {
		t.Errorf("invariants = %v, want the self-loop place pinned full", invs)
	}
}

func TestIncidence(t *testing.T) {
	c := Incidence(createChainNet(t))
	rows, cols := c.Dims()
	if rows != 3 || cols != 2 {
		t.Fatalf("incidence is %dx%d, want 3x2", rows, cols)
	}
	want := [3][2]float64{{-1, 0}, {1, -1}, {0, 1}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if c.At(i, j) != want[i][j] {
				t.Errorf("C(%d,%d) = %v, want %v", i, j, c.At(i, j), want[i][j])
			}
		}
	}

	empty, err := petrinet.Build().Place("p", true).Done()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if Incidence(empty) != nil {
		t.Error("incidence of a transitionless net should be nil")
	}
}
