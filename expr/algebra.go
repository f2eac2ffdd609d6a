package expr

import (
	"sort"

	"github.com/consensys/gnark/constraint"
)

// Normalize sorts the terms, merges equal monomials and drops zero coefficients.
func Normalize(f constraint.Field, e Expression) Expression {
	res := e.Clone()
	sort.Sort(res)
	out := res[:0]
	for _, t := range res {
		if len(out) > 0 && out[len(out)-1].sameMonomial(t) {
			out[len(out)-1].Coeff = f.Add(out[len(out)-1].Coeff, t.Coeff)
			continue
		}
		out = append(out, t)
	}
	nz := out[:0]
	for _, t := range out {
		if !t.Coeff.IsZero() {
			nz = append(nz, t)
		}
	}
	return nz
}

func Add(f constraint.Field, es ...Expression) Expression {
	var res Expression
	for _, e := range es {
		res = append(res, e...)
	}
	return Normalize(f, res)
}

func Neg(f constraint.Field, e Expression) Expression {
	res := e.Clone()
	for i := range res {
		res[i].Coeff = f.Neg(res[i].Coeff)
	}
	return res
}

func Sub(f constraint.Field, a, b Expression) Expression {
	return Add(f, a, Neg(f, b))
}

// Scale returns c * e
func Scale(f constraint.Field, e Expression, c constraint.Element) Expression {
	res := make(Expression, 0, len(e))
	for _, t := range e {
		t.Coeff = f.Mul(t.Coeff, c)
		res = append(res, t)
	}
	return Normalize(f, res)
}

// Mul returns the product of the expressions and panics if a monomial exceeds MaxDegree.
func Mul(f constraint.Field, es ...Expression) Expression {
	res := NewConstantExpression(f.One())
	for _, e := range es {
		next := make(Expression, 0, len(res)*len(e))
		for _, x := range res {
			for _, y := range e {
				vids := make([]int, 0, MaxDegree*2)
				vids = append(vids, x.Vars()...)
				vids = append(vids, y.Vars()...)
				next = append(next, NewTerm(f.Mul(x.Coeff, y.Coeff), vids...))
			}
		}
		res = Normalize(f, next)
	}
	return res
}

// Eval evaluates e with the given assignment of variable ids.
func Eval(f constraint.Field, e Expression, value func(vid int) constraint.Element) constraint.Element {
	var res constraint.Element
	for _, t := range e {
		v := t.Coeff
		for _, id := range t.Vars() {
			v = f.Mul(v, value(id))
		}
		res = f.Add(res, v)
	}
	return res
}
