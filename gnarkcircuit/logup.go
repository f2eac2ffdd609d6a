package gnarkcircuit

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"

	"github.com/PolyhedraZK/rwasm-zkcircuit/utils"
)

func init() {
	solver.RegisterHint(lookupCountHint)
}

type rationalNumber struct {
	Numerator   frontend.Variable
	Denominator frontend.Variable
}

func (r *rationalNumber) Add(api frontend.API, other *rationalNumber) rationalNumber {
	return rationalNumber{
		Numerator:   api.Add(api.Mul(r.Numerator, other.Denominator), api.Mul(other.Numerator, r.Denominator)),
		Denominator: api.Mul(r.Denominator, other.Denominator),
	}
}

// sumRationalNumbers sums rs along a binary tree, padded with 0/1 to a
// power of two.
func sumRationalNumbers(api frontend.API, rs []rationalNumber) rationalNumber {
	if len(rs) == 0 {
		return rationalNumber{Numerator: 0, Denominator: 1}
	}
	cur := make([]rationalNumber, utils.NextPowerOfTwo(len(rs)))
	copy(cur, rs)
	for i := len(rs); i < len(cur); i++ {
		cur[i] = rationalNumber{Numerator: 0, Denominator: 1}
	}
	for n := len(cur) / 2; n > 0; n /= 2 {
		for i := 0; i < n; i++ {
			cur[i] = cur[2*i].Add(api, &cur[2*i+1])
		}
	}
	return cur[0]
}

// lookupCountHint counts how often each table tuple is queried. Inputs are
// the arity, the table size, the table tuples and then the query tuples.
func lookupCountHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	arity := int(inputs[0].Int64())
	size := int(inputs[1].Int64())
	if arity <= 0 || len(outputs) != size || (len(inputs)-2)%arity != 0 {
		return fmt.Errorf("lookup count hint: bad shape")
	}
	key := func(t []*big.Int) string {
		var sb strings.Builder
		for _, v := range t {
			sb.WriteString(v.Text(16))
			sb.WriteByte(',')
		}
		return sb.String()
	}
	body := inputs[2:]
	counts := make(map[string]int64)
	for i := size * arity; i < len(body); i += arity {
		counts[key(body[i:i+arity])]++
	}
	for i := range outputs {
		k := key(body[i*arity : (i+1)*arity])
		outputs[i] = big.NewInt(counts[k])
		// duplicated table rows take the count once
		delete(counts, k)
	}
	return nil
}

// logUp checks that every query tuple is a row of table:
//
//	sum_q 1/(alpha - q(beta)) = sum_t m_t/(alpha - t(beta))
//
// with tuples folded by powers of beta and m_t counted by a hint.
type logUp struct {
	arity   int
	table   [][]frontend.Variable
	queries [][]frontend.Variable
}

func (l *logUp) query(tuple []frontend.Variable) {
	l.queries = append(l.queries, tuple)
}

func (l *logUp) counts(api frontend.API) ([]frontend.Variable, error) {
	if len(l.table) == 0 {
		return nil, nil
	}
	in := []frontend.Variable{l.arity, len(l.table)}
	for _, t := range l.table {
		in = append(in, t...)
	}
	for _, q := range l.queries {
		in = append(in, q...)
	}
	return api.Compiler().NewHint(lookupCountHint, len(l.table), in...)
}

func fold(api frontend.API, tuple []frontend.Variable, beta frontend.Variable) frontend.Variable {
	var res frontend.Variable = 0
	for i := len(tuple) - 1; i >= 0; i-- {
		res = api.Add(api.Mul(res, beta), tuple[i])
	}
	return res
}

func (l *logUp) check(api frontend.API, counts []frontend.Variable, alpha, beta frontend.Variable) {
	if len(l.queries) == 0 {
		return
	}
	qs := make([]rationalNumber, len(l.queries))
	for i, q := range l.queries {
		qs[i] = rationalNumber{Numerator: 1, Denominator: api.Sub(alpha, fold(api, q, beta))}
	}
	ts := make([]rationalNumber, len(l.table))
	for i, t := range l.table {
		ts[i] = rationalNumber{Numerator: counts[i], Denominator: api.Sub(alpha, fold(api, t, beta))}
	}
	lhs := sumRationalNumbers(api, qs)
	rhs := sumRationalNumbers(api, ts)
	api.AssertIsEqual(api.Mul(lhs.Numerator, rhs.Denominator), api.Mul(rhs.Numerator, lhs.Denominator))
}
