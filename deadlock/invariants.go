package deadlock

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pnspace/go-pnspace/petrinet"
)

// Invariant is a set of places whose total token count every firing
// preserves. In a 1-safe net that count is the number of marked support
// places, fixed by the initial marking at Tokens.
type Invariant struct {
	Support []int
	Tokens  int
}

// Holds reports whether m carries exactly Tokens tokens across Support.
func (inv Invariant) Holds(m petrinet.Marking) bool {
	c := 0
	for _, i := range inv.Support {
		if m.Bit(i) {
			c++
		}
	}
	return c == inv.Tokens
}

// Incidence returns the place-by-transition incidence matrix C with
// C(i, j) = post_j(i) - pre_j(i). A 0/1 row vector y with yC = 0 marks a
// place invariant. Returns nil when the net has no transitions, since a
// matrix with zero columns cannot be built.
func Incidence(net *petrinet.Net) *mat.Dense {
	trs := net.Transitions()
	if len(trs) == 0 {
		return nil
	}
	n := net.PlaceCount()
	d := make([]float64, n*len(trs))
	for j, t := range trs {
		for i := 0; i < n; i++ {
			v := 0.0
			if t.Post.Bit(i) {
				v++
			}
			if t.Pre.Bit(i) {
				v--
			}
			d[i*len(trs)+j] = v
		}
	}
	return mat.NewDense(n, len(trs), d)
}

// Invariants enumerates 0/1 place invariants over small supports: every
// conserved singleton, every conserved pair whose places are not already
// pinned individually, and the all-ones vector when it adds information.
// Full invariant bases need integer linear algebra; these cheap families
// already pin constant places and swap pairs, which is what the deadlock
// constraints profit from most.
func Invariants(net *petrinet.Net) []Invariant {
	n := net.PlaceCount()
	initial := net.Initial()

	tokens := func(support []int) int {
		k := 0
		for _, i := range support {
			if initial.Bit(i) {
				k++
			}
		}
		return k
	}

	c := Incidence(net)
	if c == nil {
		// No transitions: every place keeps its initial token forever.
		invs := make([]Invariant, n)
		for i := range invs {
			invs[i] = Invariant{Support: []int{i}, Tokens: tokens([]int{i})}
		}
		return invs
	}

	_, m := c.Dims()
	conserved := func(support []int) bool {
		y := make([]float64, n)
		for _, i := range support {
			y[i] = 1
		}
		var prod mat.Dense
		prod.Mul(mat.NewDense(1, n, y), c)
		for j := 0; j < m; j++ {
			if prod.At(0, j) != 0 {
				return false
			}
		}
		return true
	}

	var invs []Invariant
	pinned := make([]bool, n)
	for i := 0; i < n; i++ {
		if conserved([]int{i}) {
			pinned[i] = true
			invs = append(invs, Invariant{Support: []int{i}, Tokens: tokens([]int{i})})
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if pinned[i] || pinned[j] {
				continue
			}
			s := []int{i, j}
			if conserved(s) {
				invs = append(invs, Invariant{Support: s, Tokens: tokens(s)})
			}
		}
	}
	if n > 2 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		if conserved(all) {
			invs = append(invs, Invariant{Support: all, Tokens: tokens(all)})
		}
	}
	return invs
}
