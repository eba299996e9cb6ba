// Package petrinet implements the structural model for 1-safe Petri nets.
// Every place holds at most one token, so a complete marking fits in a
// fixed-width bitmask: bit i is set exactly when place i holds a token.
// Transitions carry a pre-set mask and a post-set mask over the same bit
// space, and the analysis engines manipulate markings only through the
// bitwise operations defined here.
package petrinet

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors. Engines assume a Net that passed construction, so
// none of these can occur during analysis.
var (
	ErrNoPlaces            = errors.New("net has no places")
	ErrPlaceCount          = errors.New("too many places")
	ErrPlaceName           = errors.New("empty place name")
	ErrDuplicatePlace      = errors.New("duplicate place")
	ErrDuplicateTransition = errors.New("duplicate transition")
	ErrUnknownPlace        = errors.New("unknown place")
	ErrUnknownNode         = errors.New("arc endpoint is neither a place nor a transition")
	ErrInvalidArc          = errors.New("invalid arc")
	ErrInconsistentMask    = errors.New("mask references a place outside the net")
)

// Transition is a plain immutable record of one event. Pre holds the places
// that must all carry a token for the transition to be enabled; Post holds
// the places that receive a token when it fires. The masks may overlap: a
// place in both is consumed and immediately re-produced, keeping its token.
type Transition struct {
	ID   string
	Name string
	Pre  Marking
	Post Marking
}

// Net is the immutable structural model shared by every engine: the ordered
// place sequence (a place's position is its bit index), the transition list
// in declared order, and the initial marking.
type Net struct {
	places      []string
	index       map[string]int
	transitions []Transition
	initial     Marking
}

// New validates and builds a Net. Place bit indices follow the order of the
// places slice. Validation covers the structural invariants: at least one
// place, at most MaxPlaces, unique non-empty place names, every transition
// mask and the initial marking confined to the declared place range
// (ErrInconsistentMask otherwise). 1-safety of the representation itself is
// inherent, a bit is 0 or 1.
func New(places []string, transitions []Transition, initial Marking) (*Net, error) {
	if len(places) == 0 {
		return nil, ErrNoPlaces
	}
	if len(places) > MaxPlaces {
		return nil, fmt.Errorf("%w: %d places, limit %d", ErrPlaceCount, len(places), MaxPlaces)
	}
	index := make(map[string]int, len(places))
	for i, p := range places {
		if p == "" {
			return nil, fmt.Errorf("%w: index %d", ErrPlaceName, i)
		}
		if _, ok := index[p]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlace, p)
		}
		index[p] = i
	}
	valid := rangeMask(len(places))
	for _, t := range transitions {
		if !valid.ContainsAll(t.Pre) || !valid.ContainsAll(t.Post) {
			return nil, fmt.Errorf("%w: transition %q", ErrInconsistentMask, t.ID)
		}
	}
	if !valid.ContainsAll(initial) {
		return nil, fmt.Errorf("%w: initial marking", ErrInconsistentMask)
	}
	return &Net{
		places:      append([]string(nil), places...),
		index:       index,
		transitions: append([]Transition(nil), transitions...),
		initial:     initial,
	}, nil
}

// rangeMask returns the marking with bits 0..n-1 set.
func rangeMask(n int) Marking {
	var m Marking
	for i := 0; i < n; i++ {
		m = m.Set(i)
	}
	return m
}

// PlaceCount returns the number of places.
func (n *Net) PlaceCount() int {
	return len(n.places)
}

// Places returns the ordered place sequence. Callers must not modify it.
func (n *Net) Places() []string {
	return n.places
}

// Transitions returns the transition list in declared order. Callers must
// not modify it.
func (n *Net) Transitions() []Transition {
	return n.transitions
}

// Initial returns the initial marking.
func (n *Net) Initial() Marking {
	return n.initial
}

// BitIndex returns the bit index of the named place.
func (n *Net) BitIndex(place string) (int, error) {
	i, ok := n.index[place]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlace, place)
	}
	return i, nil
}

// PlaceAt returns the place name at bit index i. An out-of-range index is a
// programmer error: PlaceAt panics like slice indexing does.
func (n *Net) PlaceAt(i int) string {
	n.checkIndex(i)
	return n.places[i]
}

// Contains reports whether place index i holds a token in m. Panics if i is
// not a valid place index for this net.
func (n *Net) Contains(m Marking, i int) bool {
	n.checkIndex(i)
	return m.Bit(i)
}

// With returns m with a token at place index i. Panics like Contains.
func (n *Net) With(m Marking, i int) Marking {
	n.checkIndex(i)
	return m.Set(i)
}

// Without returns m with no token at place index i. Panics like Contains.
func (n *Net) Without(m Marking, i int) Marking {
	n.checkIndex(i)
	return m.Clear(i)
}

// Mark builds a marking holding exactly the named places.
func (n *Net) Mark(names ...string) (Marking, error) {
	var m Marking
	for _, name := range names {
		i, err := n.BitIndex(name)
		if err != nil {
			return Marking{}, err
		}
		m = m.Set(i)
	}
	return m, nil
}

func (n *Net) checkIndex(i int) {
	if i < 0 || i >= len(n.places) {
		panic(fmt.Sprintf("petrinet: place index %d out of range [0, %d)", i, len(n.places)))
	}
}

// Enabled reports whether t may fire at m: every place in t's pre-set holds
// a token.
func Enabled(m Marking, t Transition) bool {
	return m.ContainsAll(t.Pre)
}

// Fire returns the marking after t fires at m. Tokens are removed from the
// pre-set and then added to the post-set, so a place in both masks keeps its
// token. Callers check Enabled first; firing a disabled transition yields a
// marking the net never reaches.
func Fire(m Marking, t Transition) Marking {
	return m.Minus(t.Pre).Union(t.Post)
}

// FormatMarking renders m as the set of held place names, e.g. {p0, p2}.
func (n *Net) FormatMarking(m Marking) string {
	var held []string
	for i, p := range n.places {
		if m.Bit(i) {
			held = append(held, p)
		}
	}
	return "{" + strings.Join(held, ", ") + "}"
}

// Bitmap renders m as a zero-padded binary string with place 0 rightmost,
// matching the bit layout of the marking integer.
func (n *Net) Bitmap(m Marking) string {
	buf := make([]byte, len(n.places))
	for i := range n.places {
		if m.Bit(i) {
			buf[len(n.places)-1-i] = '1'
		} else {
			buf[len(n.places)-1-i] = '0'
		}
	}
	return string(buf)
}
