// Package symbolic computes the reachable markings of a 1-safe net as a
// binary decision diagram instead of an explicit set. Each place owns two
// interleaved diagram variables, a current-state and a next-state copy, and
// reachability is a least fixpoint over relational products of transition
// relations. The final diagram denotes exactly the visited set the explicit
// engine produces; only its size depends on variable ordering and batching.
package symbolic

import (
	"errors"
	"fmt"

	"github.com/dalzilio/rudd"
	"go.uber.org/zap"

	"github.com/pnspace/go-pnspace/petrinet"
)

var (
	// ErrBadOrder reports a variable order that is not a permutation of the
	// net's place indices.
	ErrBadOrder = errors.New("order is not a permutation of place indices")
	// ErrBadBatches reports a batching that does not cover every transition
	// exactly once.
	ErrBadBatches = errors.New("batches must cover every transition exactly once")
)

// Context owns one diagram manager and everything built inside it. Diagram
// libraries keep process-wide unique-node tables; confining the manager to a
// Context keeps independent analyses from sharing state. Create a Context,
// explore within it, then Close it.
type Context struct {
	net       *petrinet.Net
	bdd       *rudd.BDD
	order     []int // order[k] = place index at variable pair k
	batches   [][]int
	relations []rudd.Node
	curVars   []int
	nextVars  []int
	curSet    rudd.Node
	toCur     rudd.Replacer
	logger    *zap.Logger
	closed    bool
}

// Option configures a Context.
type Option func(*Context)

// WithOrder sets the variable order: order[k] is the place index assigned to
// the k-th variable pair. Must be a permutation of 0..PlaceCount-1. Ordering
// affects diagram size, never the denoted set.
func WithOrder(order []int) Option {
	return func(c *Context) {
		c.order = append([]int(nil), order...)
	}
}

// WithBatches groups transitions (by index into Transitions()) whose
// relations are disjoined into one batch relation before imaging. Batching
// affects intermediate diagram sizes, never the denoted set. Every
// transition must appear in exactly one batch.
func WithBatches(batches [][]int) Option {
	return func(c *Context) {
		c.batches = make([][]int, len(batches))
		for i, b := range batches {
			c.batches[i] = append([]int(nil), b...)
		}
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// NewContext allocates a diagram manager sized for the net and builds the
// transition relations. The manager holds 2*PlaceCount variables: place at
// order position k owns variable 2k (current state) and 2k+1 (next state).
func NewContext(net *petrinet.Net, opts ...Option) (*Context, error) {
	c := &Context{net: net, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	n := net.PlaceCount()
	if c.order == nil {
		c.order = make([]int, n)
		for i := range c.order {
			c.order[i] = i
		}
	}
	if err := checkOrder(c.order, n); err != nil {
		return nil, err
	}
	if c.batches == nil {
		c.batches = make([][]int, len(net.Transitions()))
		for i := range c.batches {
			c.batches[i] = []int{i}
		}
	}
	if err := checkBatches(c.batches, len(net.Transitions())); err != nil {
		return nil, err
	}

	nodesize := 10000
	if n > 10 {
		nodesize = 1000 * n
	}
	bdd, err := rudd.New(2*n, rudd.Nodesize(nodesize), rudd.Cachesize(nodesize/4))
	if err != nil {
		return nil, fmt.Errorf("symbolic: %w", err)
	}
	c.bdd = bdd

	c.curVars = make([]int, n)
	c.nextVars = make([]int, n)
	for k := 0; k < n; k++ {
		c.curVars[k] = 2 * k
		c.nextVars[k] = 2*k + 1
	}
	c.curSet = bdd.Makeset(c.curVars)
	c.toCur, err = bdd.NewReplacer(c.nextVars, c.curVars)
	if err != nil {
		return nil, fmt.Errorf("symbolic: %w", err)
	}

	c.relations = make([]rudd.Node, len(c.batches))
	for i, batch := range c.batches {
		rel := bdd.False()
		for _, ti := range batch {
			rel = bdd.Or(rel, c.relation(net.Transitions()[ti]))
		}
		c.relations[i] = rel
	}
	c.logger.Debug("context ready",
		zap.Int("places", n),
		zap.Int("transitions", len(net.Transitions())),
		zap.Int("batches", len(c.batches)))
	return c, nil
}

// relation builds the one-step relation of a transition: current-state
// pre-set places hold, next-state post-set places hold, places consumed and
// not re-produced are empty next, and every untouched place keeps its value
// (frame condition).
func (c *Context) relation(t petrinet.Transition) rudd.Node {
	rel := c.bdd.True()
	for k := 0; k < c.net.PlaceCount(); k++ {
		p := c.order[k]
		cur, next := c.curVars[k], c.nextVars[k]
		pre, post := t.Pre.Bit(p), t.Post.Bit(p)
		switch {
		case pre && post:
			rel = c.bdd.And(rel, c.bdd.Ithvar(cur), c.bdd.Ithvar(next))
		case pre:
			rel = c.bdd.And(rel, c.bdd.Ithvar(cur), c.bdd.NIthvar(next))
		case post:
			rel = c.bdd.And(rel, c.bdd.Ithvar(next))
		default:
			rel = c.bdd.And(rel, c.bdd.Equiv(c.bdd.Ithvar(cur), c.bdd.Ithvar(next)))
		}
	}
	return rel
}

// minterm builds the diagram of the singleton set {m} over current-state
// variables.
func (c *Context) minterm(m petrinet.Marking) rudd.Node {
	node := c.bdd.True()
	for k := 0; k < c.net.PlaceCount(); k++ {
		if m.Bit(c.order[k]) {
			node = c.bdd.And(node, c.bdd.Ithvar(c.curVars[k]))
		} else {
			node = c.bdd.And(node, c.bdd.NIthvar(c.curVars[k]))
		}
	}
	return node
}

// Net returns the net this context analyzes.
func (c *Context) Net() *petrinet.Net {
	return c.net
}

// Close releases the context. Diagrams built in it, including any StateSet,
// become invalid; using them afterwards panics. Close is idempotent.
func (c *Context) Close() {
	c.closed = true
	c.bdd = nil
	c.relations = nil
	c.curSet = nil
	c.toCur = nil
}

func (c *Context) ensureOpen() {
	if c.closed {
		panic("symbolic: context is closed")
	}
}

func checkOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("%w: length %d, want %d", ErrBadOrder, len(order), n)
	}
	seen := make([]bool, n)
	for _, p := range order {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("%w: place index %d", ErrBadOrder, p)
		}
		seen[p] = true
	}
	return nil
}

func checkBatches(batches [][]int, transitions int) error {
	seen := make([]bool, transitions)
	count := 0
	for _, b := range batches {
		for _, ti := range b {
			if ti < 0 || ti >= transitions || seen[ti] {
				return fmt.Errorf("%w: transition index %d", ErrBadBatches, ti)
			}
			seen[ti] = true
			count++
		}
	}
	if count != transitions {
		return fmt.Errorf("%w: covered %d of %d", ErrBadBatches, count, transitions)
	}
	return nil
}
