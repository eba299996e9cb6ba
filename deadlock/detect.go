// Package deadlock decides whether a net can reach a dead marking, one
// enabling no transition at all.
//
// The decision runs as constraint solving with refinement. Dead markings
// are encoded as a pseudo-boolean problem over one variable per place:
// every transition must find some pre-set place empty, and place-invariant
// constraints restrict models to an over-approximation of the reachable
// set. Each satisfying model is a candidate only; it is re-checked against
// the actual firing rule and, when an oracle is installed, against exact
// reachability. Spurious candidates are excluded with a blocking constraint
// and the solver runs again, so the loop only ever terminates in a sound
// verdict or an explicit error.
package deadlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/crillab/gophersat/solver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pnspace/go-pnspace/petrinet"
)

// Verdict classifies the outcome of a deadlock decision.
type Verdict int

const (
	// VerdictNoDeadlock means no reachable marking is dead.
	VerdictNoDeadlock Verdict = iota
	// VerdictConfirmed means the witness is a reachable dead marking.
	VerdictConfirmed
	// VerdictUnverified means the witness is dead and consistent with all
	// constraints, but no oracle was available to confirm reachability.
	VerdictUnverified
)

func (v Verdict) String() string {
	switch v {
	case VerdictNoDeadlock:
		return "no-deadlock"
	case VerdictConfirmed:
		return "confirmed-deadlock"
	case VerdictUnverified:
		return "candidate-unverified"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

var (
	// ErrSolver reports an indeterminate solver status. The decision is
	// unknown; callers must not read it as an absence of deadlocks.
	ErrSolver = errors.New("solver returned an indeterminate status")

	// ErrIterationLimit reports that the refinement budget ran out before
	// a verdict was reached. The decision is unknown.
	ErrIterationLimit = errors.New("refinement budget exhausted")
)

// Report is the outcome of a Detect run. Witness is meaningful for
// VerdictConfirmed and VerdictUnverified only.
type Report struct {
	RunID      string
	Verdict    Verdict
	Witness    petrinet.Marking
	Iterations int
	Duration   time.Duration
}

// Detector decides deadlock freedom for one net. Configure with the WithX
// methods, then call Detect.
type Detector struct {
	net     *petrinet.Net
	oracle  func(petrinet.Marking) bool
	maxIter int
	logger  *zap.Logger
}

const defaultMaxIter = 1000

// NewDetector returns a detector with a refinement budget of 1000
// iterations, no oracle and no logging.
func NewDetector(net *petrinet.Net) *Detector {
	return &Detector{
		net:     net,
		maxIter: defaultMaxIter,
		logger:  zap.NewNop(),
	}
}

// WithOracle installs an exact reachability check used to confirm or refute
// candidates. Both reachability.Result.Contains and symbolic.StateSet.Contains
// fit the signature. Without an oracle, candidates are reported unverified.
func (d *Detector) WithOracle(contains func(petrinet.Marking) bool) *Detector {
	d.oracle = contains
	return d
}

// WithMaxIter sets the refinement budget. Values below one are ignored.
func (d *Detector) WithMaxIter(n int) *Detector {
	if n > 0 {
		d.maxIter = n
	}
	return d
}

// WithLogger sets the logger for progress reporting.
func (d *Detector) WithLogger(l *zap.Logger) *Detector {
	if l != nil {
		d.logger = l
	}
	return d
}

// Detect runs the decision. It returns a report carrying one of the three
// verdicts, or an error when the solver was indeterminate or the refinement
// budget ran out; an error never means "no deadlock".
func (d *Detector) Detect() (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	n := d.net.PlaceCount()

	for _, t := range d.net.Transitions() {
		if t.Pre.IsZero() {
			// Enabled at every marking, so no marking is ever dead.
			d.logger.Info("deadlock impossible",
				zap.String("run_id", runID),
				zap.String("transition", t.ID))
			return &Report{RunID: runID, Verdict: VerdictNoDeadlock, Duration: time.Since(start)}, nil
		}
	}

	constrs := deadConstraints(d.net)
	for _, inv := range Invariants(d.net) {
		constrs = append(constrs, invariantConstraints(inv)...)
	}
	d.logger.Debug("constraint system built",
		zap.String("run_id", runID),
		zap.Int("constraints", len(constrs)))

	for iter := 1; iter <= d.maxIter; iter++ {
		s := solver.New(solver.ParseCardConstrs(constrs))
		switch status := s.Solve(); status {
		case solver.Unsat:
			d.logger.Info("deadlock ruled out",
				zap.String("run_id", runID),
				zap.Int("iterations", iter),
				zap.Duration("duration", time.Since(start)))
			return &Report{RunID: runID, Verdict: VerdictNoDeadlock, Iterations: iter, Duration: time.Since(start)}, nil
		case solver.Sat:
		default:
			return nil, fmt.Errorf("deadlock: iteration %d: %w", iter, ErrSolver)
		}

		candidate := markingFromModel(s.Model(), n)
		if id, enabled := enabledAt(d.net, candidate); enabled {
			// The encoding excludes enabled markings, so this is a solver
			// model we cannot trust. Drop it and continue.
			d.logger.Warn("candidate enables a transition",
				zap.String("run_id", runID),
				zap.String("transition", id),
				zap.String("marking", d.net.FormatMarking(candidate)))
			constrs = append(constrs, excludeMarking(candidate, n))
			continue
		}

		if d.oracle == nil {
			d.logger.Info("dead candidate found, no oracle to confirm it",
				zap.String("run_id", runID),
				zap.String("marking", d.net.FormatMarking(candidate)),
				zap.Int("iterations", iter))
			return &Report{RunID: runID, Verdict: VerdictUnverified, Witness: candidate, Iterations: iter, Duration: time.Since(start)}, nil
		}
		if d.oracle(candidate) {
			d.logger.Info("deadlock confirmed",
				zap.String("run_id", runID),
				zap.String("marking", d.net.FormatMarking(candidate)),
				zap.Int("iterations", iter))
			return &Report{RunID: runID, Verdict: VerdictConfirmed, Witness: candidate, Iterations: iter, Duration: time.Since(start)}, nil
		}
		d.logger.Debug("candidate unreachable, refining",
			zap.String("run_id", runID),
			zap.String("marking", d.net.FormatMarking(candidate)),
			zap.Int("iteration", iter))
		constrs = append(constrs, excludeMarking(candidate, n))
	}
	return nil, fmt.Errorf("deadlock: %d candidates excluded: %w", d.maxIter, ErrIterationLimit)
}

// deadConstraints encodes deadness: for every transition, at least one
// pre-set place is empty. Callers short-circuit empty pre-sets beforehand,
// so every constraint has literals.
func deadConstraints(net *petrinet.Net) []solver.CardConstr {
	n := net.PlaceCount()
	constrs := make([]solver.CardConstr, 0, len(net.Transitions()))
	for _, t := range net.Transitions() {
		var lits []int
		for i := 0; i < n; i++ {
			if t.Pre.Bit(i) {
				lits = append(lits, -(i + 1))
			}
		}
		constrs = append(constrs, solver.CardConstr{Lits: lits, AtLeast: 1})
	}
	return constrs
}

// invariantConstraints pins the token count over inv.Support to inv.Tokens:
// at least Tokens support variables are true and at least the remaining
// count are false. Trivial sides are dropped.
func invariantConstraints(inv Invariant) []solver.CardConstr {
	pos := make([]int, len(inv.Support))
	neg := make([]int, len(inv.Support))
	for k, i := range inv.Support {
		pos[k] = i + 1
		neg[k] = -(i + 1)
	}
	var constrs []solver.CardConstr
	if inv.Tokens > 0 {
		constrs = append(constrs, solver.CardConstr{Lits: pos, AtLeast: inv.Tokens})
	}
	if empty := len(inv.Support) - inv.Tokens; empty > 0 {
		constrs = append(constrs, solver.CardConstr{Lits: neg, AtLeast: empty})
	}
	return constrs
}

// excludeMarking bars exactly m from future models: at least one place must
// differ.
func excludeMarking(m petrinet.Marking, n int) solver.CardConstr {
	lits := make([]int, n)
	for i := 0; i < n; i++ {
		if m.Bit(i) {
			lits[i] = -(i + 1)
		} else {
			lits[i] = i + 1
		}
	}
	return solver.CardConstr{Lits: lits, AtLeast: 1}
}

func markingFromModel(model []bool, n int) petrinet.Marking {
	var m petrinet.Marking
	for i := 0; i < n && i < len(model); i++ {
		if model[i] {
			m = m.Set(i)
		}
	}
	return m
}

func enabledAt(net *petrinet.Net, m petrinet.Marking) (string, bool) {
	for _, t := range net.Transitions() {
		if petrinet.Enabled(m, t) {
			return t.ID, true
		}
	}
	return "", false
}
