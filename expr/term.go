package expr

// similar to gnark frontend/internal/expr/term, but a term is a monomial of up
// to MaxDegree variables

import (
	"sort"

	"github.com/consensys/gnark/constraint"
)

// MaxDegree bounds the degree of any monomial, selectors included.
const MaxDegree = 6

type Term struct {
	// variable ids sorted in descending order; 0 marks an unused slot.
	// if all ids are 0, the term is a constant
	VIDs  [MaxDegree]int
	Coeff constraint.Element
}

// NewTerm returns coeff * v0 * v1 * ... and panics above MaxDegree
func NewTerm(coeff constraint.Element, vids ...int) Term {
	t := Term{Coeff: coeff}
	n := 0
	for _, v := range vids {
		if v == 0 {
			continue
		}
		if n == MaxDegree {
			panic("monomial degree exceeds MaxDegree")
		}
		t.VIDs[n] = v
		n++
	}
	ids := t.VIDs[:n]
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return t
}

func (t *Term) SetCoeff(c constraint.Element) {
	t.Coeff = c
}

func (t Term) HashCode() uint64 {
	x := t.Coeff[0] ^ t.Coeff[1] ^ t.Coeff[2] ^ t.Coeff[3] ^ t.Coeff[4] ^ t.Coeff[5]
	for i, v := range t.VIDs {
		x ^= uint64(v) * (998244353 + uint64(i)*1000000007)
	}
	return x
}

func (t Term) Degree() int {
	d := 0
	for _, v := range t.VIDs {
		if v != 0 {
			d++
		}
	}
	return d
}

// Vars returns the non-empty variable ids of the term.
func (t Term) Vars() []int {
	return t.VIDs[:t.Degree()]
}

func (t Term) sameMonomial(o Term) bool {
	return t.VIDs == o.VIDs
}

func (t Term) lessMonomial(o Term) bool {
	for i := 0; i < MaxDegree; i++ {
		if t.VIDs[i] != o.VIDs[i] {
			return t.VIDs[i] < o.VIDs[i]
		}
	}
	return false
}
