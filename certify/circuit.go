// Package certify produces zero-knowledge certificates of reachability: a
// Groth16 proof that some firing sequence of bounded length leads from the
// initial marking to a final one, without revealing the sequence.
//
// The circuit replays the token game. Each step carries a one-hot selector
// over the transitions; an all-zero selector row is a stutter step, which
// lets one circuit of capacity k certify any trace of length at most k.
// Paired with the deadlock detector this turns a confirmed witness into a
// checkable certificate.
package certify

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/pnspace/go-pnspace/petrinet"
)

var (
	ErrTraceLength       = errors.New("trace longer than the circuit allows")
	ErrUnknownTransition = errors.New("unknown transition id")
	ErrNotEnabled        = errors.New("transition not enabled along the trace")
)

// TraceCircuit proves that Final is reachable from Initial in at most
// len(Fired) firings. Initial and Final are public; the intermediate
// states and the firing selectors stay private. The net structure is baked
// into the circuit at construction and is not part of the witness.
type TraceCircuit struct {
	Initial []frontend.Variable `gnark:",public"`
	Final   []frontend.Variable `gnark:",public"`

	States [][]frontend.Variable
	Fired  [][]frontend.Variable

	pre  [][]bool
	post [][]bool
}

// NewTraceCircuit shapes a circuit for the given net with capacity for
// steps firings.
func NewTraceCircuit(net *petrinet.Net, steps int) *TraceCircuit {
	n := net.PlaceCount()
	trs := net.Transitions()
	c := &TraceCircuit{
		Initial: make([]frontend.Variable, n),
		Final:   make([]frontend.Variable, n),
		States:  make([][]frontend.Variable, steps+1),
		Fired:   make([][]frontend.Variable, steps),
		pre:     make([][]bool, len(trs)),
		post:    make([][]bool, len(trs)),
	}
	for k := range c.States {
		c.States[k] = make([]frontend.Variable, n)
	}
	for k := range c.Fired {
		c.Fired[k] = make([]frontend.Variable, len(trs))
	}
	for t, tr := range trs {
		c.pre[t] = make([]bool, n)
		c.post[t] = make([]bool, n)
		for p := 0; p < n; p++ {
			c.pre[t][p] = tr.Pre.Bit(p)
			c.post[t][p] = tr.Post.Bit(p)
		}
	}
	return c
}

// Define encodes the token game: the first state row equals Initial, each
// selector row picks at most one transition whose pre-set must be marked,
// every place updates by consume-then-produce, and the last row equals
// Final.
func (c *TraceCircuit) Define(api frontend.API) error {
	n := len(c.Initial)
	steps := len(c.Fired)
	m := len(c.pre)
	if len(c.Final) != n || len(c.States) != steps+1 {
		return fmt.Errorf("certify: circuit shape mismatch")
	}

	for p := 0; p < n; p++ {
		api.AssertIsEqual(c.States[0][p], c.Initial[p])
		api.AssertIsEqual(c.States[steps][p], c.Final[p])
	}

	for k := 0; k < steps; k++ {
		state := c.States[k]
		next := c.States[k+1]
		sels := c.Fired[k]

		selSum := frontend.Variable(0)
		for t := 0; t < m; t++ {
			api.AssertIsBoolean(sels[t])
			selSum = api.Add(selSum, sels[t])
		}
		// Zero selectors stutter, one fires; more would corrupt the sums.
		api.AssertIsBoolean(selSum)

		for p := 0; p < n; p++ {
			api.AssertIsBoolean(state[p])
		}

		// A selected transition needs every pre-set place marked.
		for t := 0; t < m; t++ {
			for p := 0; p < n; p++ {
				if c.pre[t][p] {
					api.AssertIsEqual(api.Mul(sels[t], api.Sub(1, state[p])), 0)
				}
			}
		}

		// next = produced + state * (1 - consumed) * (1 - produced), the
		// arithmetic form of (state minus pre-set) union post-set.
		for p := 0; p < n; p++ {
			consumed := frontend.Variable(0)
			produced := frontend.Variable(0)
			for t := 0; t < m; t++ {
				if c.pre[t][p] {
					consumed = api.Add(consumed, sels[t])
				}
				if c.post[t][p] {
					produced = api.Add(produced, sels[t])
				}
			}
			keep := api.Mul(state[p], api.Sub(1, consumed), api.Sub(1, produced))
			api.AssertIsEqual(next[p], api.Add(produced, keep))
		}
	}
	return nil
}

// TraceAssignment replays path from the initial marking with the actual
// firing rule and fills a witness assignment, padding the tail with
// stutter steps up to the circuit capacity. The returned final marking is
// the public output the certificate commits to.
func TraceAssignment(net *petrinet.Net, path []string, steps int) (*TraceCircuit, petrinet.Marking, error) {
	if len(path) > steps {
		return nil, petrinet.Marking{}, fmt.Errorf("certify: %d firings, capacity %d: %w", len(path), steps, ErrTraceLength)
	}
	n := net.PlaceCount()
	trs := net.Transitions()
	c := NewTraceCircuit(net, steps)

	markings := make([]petrinet.Marking, 0, steps+1)
	fired := make([]int, 0, steps)
	m := net.Initial()
	markings = append(markings, m)
	for _, id := range path {
		ti := -1
		for i, tr := range trs {
			if tr.ID == id {
				ti = i
				break
			}
		}
		if ti < 0 {
			return nil, petrinet.Marking{}, fmt.Errorf("certify: %q: %w", id, ErrUnknownTransition)
		}
		if !petrinet.Enabled(m, trs[ti]) {
			return nil, petrinet.Marking{}, fmt.Errorf("certify: %q at %s: %w", id, net.FormatMarking(m), ErrNotEnabled)
		}
		m = petrinet.Fire(m, trs[ti])
		markings = append(markings, m)
		fired = append(fired, ti)
	}
	final := m

	for p := 0; p < n; p++ {
		c.Initial[p] = bit(net.Initial(), p)
		c.Final[p] = bit(final, p)
	}
	for k := 0; k <= steps; k++ {
		state := final
		if k < len(markings) {
			state = markings[k]
		}
		for p := 0; p < n; p++ {
			c.States[k][p] = bit(state, p)
		}
	}
	for k := 0; k < steps; k++ {
		for t := range trs {
			c.Fired[k][t] = 0
		}
		if k < len(fired) {
			c.Fired[k][fired[k]] = 1
		}
	}
	return c, final, nil
}

func bit(m petrinet.Marking, i int) frontend.Variable {
	if m.Bit(i) {
		return 1
	}
	return 0
}
