// Package expr holds polynomial expressions over circuit queries, implemented
// based on gnark `frontend/internal/expr` but with monomials of higher degree.
package expr

import (
	"sort"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/utils"
)

// Expression is a sum of terms. Variable id 0 is reserved for the constant one.
type Expression []Term

// NewConstantExpression returns c
func NewConstantExpression(c constraint.Element) Expression {
	if c.IsZero() {
		return Expression{}
	}
	return Expression{NewTerm(c)}
}

// NewLinearExpression returns c * v
func NewLinearExpression(v int, c constraint.Element) Expression {
	return Expression{NewTerm(c, v)}
}

// NewQuadraticExpression returns c * v0 * v1
func NewQuadraticExpression(v0, v1 int, c constraint.Element) Expression {
	return Expression{NewTerm(c, v0, v1)}
}

func (e Expression) Clone() Expression {
	res := make(Expression, len(e))
	copy(res, e)
	return res
}

// Len return the length of the Variable (implements Sort interface)
func (e Expression) Len() int {
	return len(e)
}

// Equal returns true if both SORTED expressions are the same
func (e Expression) Equal(o Expression) bool {
	if len(e) != len(o) {
		return false
	}
	for i := 0; i < len(e); i++ {
		if e[i] != o[i] {
			return false
		}
	}
	return true
}

// EqualI is similar to Equal, but o is utils.Hashable. Then it can be saved in a utils.Map
func (e Expression) EqualI(o utils.Hashable) bool {
	return e.Equal(o.(Expression))
}

// Swap swaps terms in the Variable (implements Sort interface)
func (e Expression) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

// Less orders terms by their monomial (implements Sort interface)
func (e Expression) Less(i, j int) bool {
	return e[i].lessMonomial(e[j])
}

// HashCode returns a fast-to-compute but NOT collision resistant hash code identifier for the expression
//
// requires sorted
func (e Expression) HashCode() uint64 {
	h := uint64(17)
	for _, val := range e {
		h = h*23 + val.HashCode()
	}
	return h
}

// Degree returns the degree of the polynomial
func (e Expression) Degree() int {
	res := 0
	for _, val := range e {
		if deg := val.Degree(); deg > res {
			res = deg
		}
	}
	return res
}

func (e Expression) IsConstant() bool {
	for _, term := range e {
		if term.Degree() != 0 {
			return false
		}
	}
	return true
}

// IsZero reports whether the normalized expression has no terms.
func (e Expression) IsZero() bool {
	return len(e) == 0
}

// Vars returns the distinct variable ids used by e in ascending order.
func (e Expression) Vars() []int {
	seen := map[int]bool{}
	var res []int
	for _, term := range e {
		for _, v := range term.Vars() {
			if !seen[v] {
				seen[v] = true
				res = append(res, v)
			}
		}
	}
	sort.Ints(res)
	return res
}
