// Package reachability enumerates the reachable markings of a 1-safe net by
// explicit breadth-first search. The visited set is keyed by marking value
// directly; markings are comparable bitmasks, so no hashing is involved.
package reachability

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pnspace/go-pnspace/petrinet"
)

var (
	// ErrStateLimit reports that exploration hit the configured state budget.
	ErrStateLimit = errors.New("state limit exceeded")
	// ErrNotVisited reports a path query for a marking outside the visited set.
	ErrNotVisited = errors.New("marking not visited")
)

// Explorer runs breadth-first reachability analysis over an immutable net.
type Explorer struct {
	net       *petrinet.Net
	keepEdges bool
	maxStates int
	logger    *zap.Logger
}

// NewExplorer creates an explorer for the net with no state budget and no
// edge recording.
func NewExplorer(net *petrinet.Net) *Explorer {
	return &Explorer{net: net, logger: zap.NewNop()}
}

// WithEdges records the full one-step edge list in the result: every enabled
// firing between visited markings, not only the BFS tree.
func (e *Explorer) WithEdges(keep bool) *Explorer {
	e.keepEdges = keep
	return e
}

// WithMaxStates bounds the number of visited markings; 0 means unlimited.
// Exceeding the bound aborts with ErrStateLimit rather than returning a
// truncated result.
func (e *Explorer) WithMaxStates(max int) *Explorer {
	e.maxStates = max
	return e
}

// WithLogger sets the progress logger.
func (e *Explorer) WithLogger(l *zap.Logger) *Explorer {
	e.logger = l
	return e
}

// Edge is one observed firing between two visited markings.
type Edge struct {
	From       petrinet.Marking
	Transition string
	To         petrinet.Marking
}

// Step records how a marking was first discovered: the predecessor marking
// and the transition fired from it.
type Step struct {
	From       petrinet.Marking
	Transition string
}

// Result is the outcome of one exploration run. It is immutable once
// returned.
type Result struct {
	RunID   string
	Net     *petrinet.Net
	Visited map[petrinet.Marking]struct{}
	// Edges lists every firing observed between visited markings, in
	// discovery order. Only populated when WithEdges(true) was set.
	Edges []Edge
	// Predecessors maps each non-initial visited marking to its first
	// discoverer. Write-once: BFS order makes these shortest-path
	// predecessors.
	Predecessors map[petrinet.Marking]Step
	Stats        Stats
}

// Stats summarizes one exploration run. EdgeCount counts firings whether or
// not the edge list was kept.
type Stats struct {
	StateCount int
	EdgeCount  int
	MaxQueue   int
	Duration   time.Duration
}

// Explore runs the breadth-first search from the net's initial marking.
// Termination is guaranteed: the marking space is finite and only unseen
// markings are enqueued.
func (e *Explorer) Explore() (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:        uuid.NewString(),
		Net:          e.net,
		Visited:      make(map[petrinet.Marking]struct{}),
		Predecessors: make(map[petrinet.Marking]Step),
	}

	initial := e.net.Initial()
	res.Visited[initial] = struct{}{}
	queue := []petrinet.Marking{initial}
	maxQueue := 1
	edgeCount := 0

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]

		for _, t := range e.net.Transitions() {
			if !petrinet.Enabled(m, t) {
				continue
			}
			next := petrinet.Fire(m, t)
			edgeCount++
			if e.keepEdges {
				res.Edges = append(res.Edges, Edge{From: m, Transition: t.ID, To: next})
			}
			if _, seen := res.Visited[next]; seen {
				continue
			}
			res.Visited[next] = struct{}{}
			res.Predecessors[next] = Step{From: m, Transition: t.ID}
			if e.maxStates > 0 && len(res.Visited) > e.maxStates {
				return nil, fmt.Errorf("%w: budget %d", ErrStateLimit, e.maxStates)
			}
			queue = append(queue, next)
			if len(queue) > maxQueue {
				maxQueue = len(queue)
			}
			if len(res.Visited)%10000 == 0 {
				e.logger.Debug("exploring",
					zap.Int("states", len(res.Visited)),
					zap.Int("queue", len(queue)))
			}
		}
	}

	res.Stats = Stats{
		StateCount: len(res.Visited),
		EdgeCount:  edgeCount,
		MaxQueue:   maxQueue,
		Duration:   time.Since(start),
	}
	e.logger.Info("exploration complete",
		zap.String("run_id", res.RunID),
		zap.Int("states", res.Stats.StateCount),
		zap.Int("edges", res.Stats.EdgeCount),
		zap.Duration("duration", res.Stats.Duration))
	return res, nil
}

// Contains reports whether m is in the visited set.
func (r *Result) Contains(m petrinet.Marking) bool {
	_, ok := r.Visited[m]
	return ok
}

// Count returns the number of visited markings.
func (r *Result) Count() int {
	return len(r.Visited)
}

// Markings returns the visited markings ordered by marking value, for
// deterministic listings.
func (r *Result) Markings() []petrinet.Marking {
	out := make([]petrinet.Marking, 0, len(r.Visited))
	for m := range r.Visited {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Deadlocks returns the visited markings at which no transition is enabled,
// ordered by marking value.
func (r *Result) Deadlocks() []petrinet.Marking {
	var out []petrinet.Marking
	for m := range r.Visited {
		enabled := false
		for _, t := range r.Net.Transitions() {
			if petrinet.Enabled(m, t) {
				enabled = true
				break
			}
		}
		if !enabled {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// PathTo reconstructs a shortest firing sequence from the initial marking to
// m using the predecessor map. The sequence is empty for the initial marking
// itself; ErrNotVisited is returned for markings outside the visited set.
func (r *Result) PathTo(m petrinet.Marking) ([]string, error) {
	if !r.Contains(m) {
		return nil, fmt.Errorf("%w: %s", ErrNotVisited, r.Net.FormatMarking(m))
	}
	var rev []string
	for cur := m; cur != r.Net.Initial(); {
		step := r.Predecessors[cur]
		rev = append(rev, step.Transition)
		cur = step.From
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev, nil
}
