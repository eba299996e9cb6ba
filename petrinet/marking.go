package petrinet

import (
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"
)

// MaxPlaces is the widest net the fixed-width marking representation
// supports. Nets beyond this need a wider backing type; only this file
// would change.
const MaxPlaces = 256

// Marking is the token assignment of a 1-safe net: bit i is set exactly
// when place i holds a token. Marking is a comparable value type, so a
// marking can key a visited-set map directly and equality is bitwise
// equality. The zero value is the empty marking.
type Marking struct {
	bits uint256.Int
}

// MarkingOf returns a marking with the given bit indices set.
func MarkingOf(indices ...int) Marking {
	var m Marking
	for _, i := range indices {
		m = m.Set(i)
	}
	return m
}

// Bit reports whether bit i is set. Panics if i is outside [0, MaxPlaces).
func (m Marking) Bit(i int) bool {
	checkWidth(i)
	return m.bits[i/64]>>(uint(i)%64)&1 == 1
}

// Set returns a copy of m with bit i set. Panics if i is outside
// [0, MaxPlaces).
func (m Marking) Set(i int) Marking {
	checkWidth(i)
	m.bits[i/64] |= 1 << (uint(i) % 64)
	return m
}

// Clear returns a copy of m with bit i cleared. Panics if i is outside
// [0, MaxPlaces).
func (m Marking) Clear(i int) Marking {
	checkWidth(i)
	m.bits[i/64] &^= 1 << (uint(i) % 64)
	return m
}

// ContainsAll reports whether every bit set in sub is also set in m.
func (m Marking) ContainsAll(sub Marking) bool {
	var and uint256.Int
	and.And(&m.bits, &sub.bits)
	return and.Eq(&sub.bits)
}

// Intersects reports whether m and o share any set bit.
func (m Marking) Intersects(o Marking) bool {
	var and uint256.Int
	and.And(&m.bits, &o.bits)
	return !and.IsZero()
}

// Union returns the bitwise or of m and o.
func (m Marking) Union(o Marking) Marking {
	var out uint256.Int
	out.Or(&m.bits, &o.bits)
	return Marking{bits: out}
}

// Minus returns m with every bit set in o cleared.
func (m Marking) Minus(o Marking) Marking {
	var not, out uint256.Int
	not.Not(&o.bits)
	out.And(&m.bits, &not)
	return Marking{bits: out}
}

// IsZero reports whether no bit is set.
func (m Marking) IsZero() bool {
	return m.bits.IsZero()
}

// Count returns the number of set bits, i.e. the number of held places.
func (m Marking) Count() int {
	c := 0
	for _, w := range m.bits {
		c += bits.OnesCount64(w)
	}
	return c
}

// Equal reports bitwise equality. Markings are comparable, so == is
// equivalent; Equal exists for symmetry with Cmp.
func (m Marking) Equal(o Marking) bool {
	return m.bits.Eq(&o.bits)
}

// Cmp compares two markings as unsigned integers and returns -1, 0 or 1.
// Used to order result listings deterministically.
func (m Marking) Cmp(o Marking) int {
	return m.bits.Cmp(&o.bits)
}

func checkWidth(i int) {
	if i < 0 || i >= MaxPlaces {
		panic(fmt.Sprintf("petrinet: bit index %d out of range [0, %d)", i, MaxPlaces))
	}
}
