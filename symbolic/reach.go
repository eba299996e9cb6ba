package symbolic

import (
	"math/big"
	"time"

	"github.com/dalzilio/rudd"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pnspace/go-pnspace/petrinet"
)

// StateSet is a diagram denoting a set of markings. Node canonicity makes
// semantic equality checkable by pointer comparison inside one context. A
// StateSet is only valid while its Context is open.
type StateSet struct {
	RunID string
	ctx   *Context
	root  rudd.Node
}

// Explore computes the reachable set by a frontier fixpoint:
//
//	Visited = Frontier = {initial}
//	repeat: Frontier = image(Frontier) minus Visited; Visited += Frontier
//
// until the frontier is empty. The image of one round is the union over all
// batch relations of the relational product followed by renaming next-state
// variables back to current-state ones. Monotone over a finite lattice, so
// termination is guaranteed; no explicit marking is ever materialized.
func (c *Context) Explore() *StateSet {
	c.ensureOpen()
	start := time.Now()

	visited := c.minterm(c.net.Initial())
	frontier := visited
	round := 0
	for *frontier != *c.bdd.False() {
		img := c.bdd.False()
		for _, rel := range c.relations {
			img = c.bdd.Or(img, c.bdd.Replace(c.bdd.AndExist(c.curSet, frontier, rel), c.toCur))
		}
		frontier = c.bdd.And(img, c.bdd.Not(visited))
		visited = c.bdd.Or(visited, frontier)
		round++
		c.logger.Debug("fixpoint round", zap.Int("round", round))
	}

	set := &StateSet{RunID: uuid.NewString(), ctx: c, root: visited}
	c.logger.Info("fixpoint reached",
		zap.String("run_id", set.RunID),
		zap.Int("rounds", round),
		zap.String("states", set.Count().String()),
		zap.Duration("duration", time.Since(start)))
	return set
}

// Contains reports whether marking m is in the denoted set.
func (s *StateSet) Contains(m petrinet.Marking) bool {
	c := s.ctx
	c.ensureOpen()
	return *c.bdd.And(s.root, c.minterm(m)) != *c.bdd.False()
}

// Count returns the cardinality of the denoted set. The manager declares
// both current and next-state variables, and next-state variables are
// unconstrained in the final diagram, so the raw satisfying-assignment count
// is divided by 2^PlaceCount.
func (s *StateSet) Count() *big.Int {
	c := s.ctx
	c.ensureOpen()
	count := c.bdd.Satcount(s.root)
	return count.Rsh(count, uint(c.net.PlaceCount()))
}
