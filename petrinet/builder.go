package petrinet

import "fmt"

// Builder provides a fluent API for constructing validated nets.
// Arcs may be declared before their endpoints; everything is resolved and
// validated by Done.
//
// Example:
//
//	net, err := petrinet.Build().
//	    Place("p0", true).
//	    Place("p1", false).
//	    Place("p2", false).
//	    Transition("t1").
//	    Transition("t2").
//	    Arc("p0", "t1").
//	    Arc("t1", "p1").
//	    Arc("p1", "t2").
//	    Arc("t2", "p2").
//	    Done()
type Builder struct {
	places []string
	marked []bool
	transs []string
	names  map[string]string
	arcs   []arc
}

type arc struct {
	src, dst string
}

// Build creates a new Builder.
func Build() *Builder {
	return &Builder{names: make(map[string]string)}
}

// Place adds a place; a marked place holds a token in the initial marking.
// Declaration order fixes the place's bit index.
func (b *Builder) Place(name string, marked bool) *Builder {
	b.places = append(b.places, name)
	b.marked = append(b.marked, marked)
	return b
}

// Transition adds a transition whose display name equals its id.
func (b *Builder) Transition(id string) *Builder {
	return b.TransitionNamed(id, id)
}

// TransitionNamed adds a transition with a separate display name.
func (b *Builder) TransitionNamed(id, name string) *Builder {
	b.transs = append(b.transs, id)
	b.names[id] = name
	return b
}

// Arc connects a place to a transition (pre-set) or a transition to a place
// (post-set); the direction is inferred from the endpoint kinds. Arc weight
// is always 1, the only weight a 1-safe net admits.
func (b *Builder) Arc(src, dst string) *Builder {
	b.arcs = append(b.arcs, arc{src: src, dst: dst})
	return b
}

// Flow is shorthand for the common place -> transition -> place pattern.
func (b *Builder) Flow(fromPlace, transition, toPlace string) *Builder {
	return b.Arc(fromPlace, transition).Arc(transition, toPlace)
}

// Done resolves arcs into transition masks, validates the structure and
// returns the net. The first problem found is returned as an error wrapping
// one of the package sentinels.
func (b *Builder) Done() (*Net, error) {
	// Checked before any mask is built: Set would panic on bit indices
	// past the marking width.
	if len(b.places) > MaxPlaces {
		return nil, fmt.Errorf("%w: %d places, limit %d", ErrPlaceCount, len(b.places), MaxPlaces)
	}
	placeIdx := make(map[string]int, len(b.places))
	for i, p := range b.places {
		if _, ok := placeIdx[p]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlace, p)
		}
		placeIdx[p] = i
	}
	transIdx := make(map[string]int, len(b.transs))
	for i, id := range b.transs {
		if _, ok := transIdx[id]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTransition, id)
		}
		if _, ok := placeIdx[id]; ok {
			// A shared name would make arc direction inference ambiguous.
			return nil, fmt.Errorf("%w: %q is also a place", ErrDuplicateTransition, id)
		}
		transIdx[id] = i
	}

	pre := make([]Marking, len(b.transs))
	post := make([]Marking, len(b.transs))
	for _, a := range b.arcs {
		pi, srcPlace := placeIdx[a.src]
		ti, srcTrans := transIdx[a.src]
		pj, dstPlace := placeIdx[a.dst]
		tj, dstTrans := transIdx[a.dst]
		switch {
		case srcPlace && dstTrans:
			pre[tj] = pre[tj].Set(pi)
		case srcTrans && dstPlace:
			post[ti] = post[ti].Set(pj)
		case srcPlace && dstPlace:
			return nil, fmt.Errorf("%w: %q -> %q connects two places", ErrInvalidArc, a.src, a.dst)
		case srcTrans && dstTrans:
			return nil, fmt.Errorf("%w: %q -> %q connects two transitions", ErrInvalidArc, a.src, a.dst)
		case !srcPlace && !srcTrans:
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, a.src)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, a.dst)
		}
	}

	transitions := make([]Transition, len(b.transs))
	for i, id := range b.transs {
		transitions[i] = Transition{ID: id, Name: b.names[id], Pre: pre[i], Post: post[i]}
	}
	var initial Marking
	for i, m := range b.marked {
		if m {
			initial = initial.Set(i)
		}
	}
	return New(b.places, transitions, initial)
}
