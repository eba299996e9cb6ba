// Package models provides small curated nets used by tests, examples and
// the command line tool. Every constructor panics on a size that cannot
// form the requested shape; Named validates sizes and is the entry point
// for user-supplied model specs.
package models

import (
	"fmt"

	"github.com/pnspace/go-pnspace/petrinet"
)

func must(net *petrinet.Net, err error) *petrinet.Net {
	if err != nil {
		panic(fmt.Sprintf("models: %v", err))
	}
	return net
}

// Chain returns a linear net of n places where a single token hops from p0
// to the last place and stops there: the canonical confirmed deadlock.
// Panics if n < 1.
func Chain(n int) *petrinet.Net {
	if n < 1 {
		panic("models: chain needs at least one place")
	}
	b := petrinet.Build()
	for i := 0; i < n; i++ {
		b.Place(fmt.Sprintf("p%d", i), i == 0)
	}
	for i := 1; i < n; i++ {
		b.Transition(fmt.Sprintf("t%d", i))
		b.Flow(fmt.Sprintf("p%d", i-1), fmt.Sprintf("t%d", i), fmt.Sprintf("p%d", i))
	}
	return must(b.Done())
}

// Cycle returns a ring of n places around which a single token circulates
// forever: the canonical deadlock-free net. Panics if n < 2.
func Cycle(n int) *petrinet.Net {
	if n < 2 {
		panic("models: cycle needs at least two places")
	}
	b := petrinet.Build()
	for i := 0; i < n; i++ {
		b.Place(fmt.Sprintf("p%d", i), i == 0)
	}
	for i := 0; i < n; i++ {
		b.Transition(fmt.Sprintf("t%d", i+1))
		b.Flow(fmt.Sprintf("p%d", i), fmt.Sprintf("t%d", i+1), fmt.Sprintf("p%d", (i+1)%n))
	}
	return must(b.Done())
}

// Isolated returns a single marked place with no transitions, so the
// initial marking itself is dead.
func Isolated() *petrinet.Net {
	return must(petrinet.Build().Place("p0", true).Done())
}

// Mutex returns two workers competing for one lock. The lock place keeps
// the workers mutually exclusive and every reachable marking enables a
// transition.
func Mutex() *petrinet.Net {
	b := petrinet.Build().
		Place("free", true).
		Place("idle_a", true).
		Place("idle_b", true).
		Place("busy_a", false).
		Place("busy_b", false)
	for _, w := range []string{"a", "b"} {
		b.Transition("acquire_" + w).
			Arc("idle_"+w, "acquire_"+w).
			Arc("free", "acquire_"+w).
			Arc("acquire_"+w, "busy_"+w)
		b.Transition("release_" + w).
			Arc("busy_"+w, "release_"+w).
			Arc("release_"+w, "idle_"+w).
			Arc("release_"+w, "free")
	}
	return must(b.Done())
}

// Philosophers returns the dining philosophers net for k seats. Each
// philosopher thinks, takes the left fork, takes the right fork to eat,
// then puts both back. When everyone holds their left fork at once no
// right fork remains, the classic reachable deadlock. Panics if k < 2.
func Philosophers(k int) *petrinet.Net {
	if k < 2 {
		panic("models: dining needs at least two philosophers")
	}
	b := petrinet.Build()
	for i := 0; i < k; i++ {
		b.Place(fmt.Sprintf("think%d", i), true)
		b.Place(fmt.Sprintf("hasleft%d", i), false)
		b.Place(fmt.Sprintf("eat%d", i), false)
		b.Place(fmt.Sprintf("fork%d", i), true)
	}
	for i := 0; i < k; i++ {
		right := (i + 1) % k
		b.Transition(fmt.Sprintf("take_left%d", i)).
			Arc(fmt.Sprintf("think%d", i), fmt.Sprintf("take_left%d", i)).
			Arc(fmt.Sprintf("fork%d", i), fmt.Sprintf("take_left%d", i)).
			Arc(fmt.Sprintf("take_left%d", i), fmt.Sprintf("hasleft%d", i))
		b.Transition(fmt.Sprintf("take_right%d", i)).
			Arc(fmt.Sprintf("hasleft%d", i), fmt.Sprintf("take_right%d", i)).
			Arc(fmt.Sprintf("fork%d", right), fmt.Sprintf("take_right%d", i)).
			Arc(fmt.Sprintf("take_right%d", i), fmt.Sprintf("eat%d", i))
		b.Transition(fmt.Sprintf("put_down%d", i)).
			Arc(fmt.Sprintf("eat%d", i), fmt.Sprintf("put_down%d", i)).
			Arc(fmt.Sprintf("put_down%d", i), fmt.Sprintf("think%d", i)).
			Arc(fmt.Sprintf("put_down%d", i), fmt.Sprintf("fork%d", i)).
			Arc(fmt.Sprintf("put_down%d", i), fmt.Sprintf("fork%d", right))
	}
	return must(b.Done())
}

// Named builds the model with the given name and size. A size of zero
// picks a sensible default; models without a size parameter ignore it.
func Named(name string, size int) (*petrinet.Net, error) {
	if size < 0 {
		return nil, fmt.Errorf("models: size %d is negative", size)
	}
	switch name {
	case "chain":
		if size == 0 {
			size = 3
		}
		return Chain(size), nil
	case "cycle":
		if size == 0 {
			size = 2
		}
		if size < 2 {
			return nil, fmt.Errorf("models: cycle needs size >= 2, got %d", size)
		}
		return Cycle(size), nil
	case "isolated":
		return Isolated(), nil
	case "mutex":
		return Mutex(), nil
	case "philosophers":
		if size == 0 {
			size = 5
		}
		if size < 2 {
			return nil, fmt.Errorf("models: philosophers needs size >= 2, got %d", size)
		}
		return Philosophers(size), nil
	}
	return nil, fmt.Errorf("models: unknown model %q", name)
}

// Names lists the models Named accepts, for usage texts.
func Names() []string {
	return []string{"chain", "cycle", "isolated", "mutex", "philosophers"}
}
