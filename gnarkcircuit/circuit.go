// Package gnarkcircuit expresses the execution circuit as a gnark circuit so
// a witness can be solved and proved with gnark's backends. Gates become
// equality assertions on every row, range lookups go through gnark's range
// checker, byte lookups are recomputed from bits and the table, global and
// stack lookups are checked with a LogUp argument.
package gnarkcircuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/rangecheck"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/circuit"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
)

type Circuit struct {
	Advice   [][]frontend.Variable
	Instance [][]frontend.Variable `gnark:",public"`
	// Rows of the dynamic tables, the all-zero row first.
	TableOps  [][]frontend.Variable
	GlobalOps [][]frontend.Variable
	StackOps  [][]frontend.Variable

	cs    *builder.ConstraintSystem
	rows  int
	fixed [][]*big.Int
}

func alloc(n, m int) [][]frontend.Variable {
	res := make([][]frontend.Variable, n)
	for i := range res {
		res[i] = make([]frontend.Variable, m)
	}
	return res
}

func toBigInts(cs *builder.ConstraintSystem, cols [][]constraint.Element) [][]*big.Int {
	res := make([][]*big.Int, len(cols))
	for i, col := range cols {
		res[i] = make([]*big.Int, len(col))
		for j, v := range col {
			res[i][j] = cs.Field.ToBigInt(v)
		}
	}
	return res
}

// New returns the circuit shape for c with room for the dynamic table rows
// of session.
func New(c *circuit.Circuit, session *tables.Session) *Circuit {
	shape := c.CS.Shape()
	rows := c.Rows()
	return &Circuit{
		Advice:    alloc(shape.Advice, rows),
		Instance:  alloc(shape.Instance, rows),
		TableOps:  alloc(len(session.Rows(tables.TableOps))+1, tables.TableOps.Arity()),
		GlobalOps: alloc(len(session.Rows(tables.GlobalOps))+1, tables.GlobalOps.Arity()),
		StackOps:  alloc(len(session.Rows(tables.StackOps))+1, tables.StackOps.Arity()),
		cs:        c.CS,
		rows:      rows,
		fixed:     toBigInts(c.CS, c.FixedColumns()),
	}
}

// Assign returns the assignment of asg for the shape New(c, asg.Session).
func Assign(c *circuit.Circuit, asg *circuit.Assignment) (*Circuit, error) {
	res := New(c, asg.Session)
	w := asg.Witness
	if w.Rows != res.rows {
		return nil, fmt.Errorf("witness has %d rows, circuit has %d", w.Rows, res.rows)
	}
	fill := func(dst [][]frontend.Variable, src [][]constraint.Element) error {
		if len(dst) != len(src) {
			return fmt.Errorf("witness has %d columns, circuit has %d", len(src), len(dst))
		}
		for i, col := range toBigInts(c.CS, src) {
			for j, v := range col {
				dst[i][j] = v
			}
		}
		return nil
	}
	if err := fill(res.Advice, w.Advice); err != nil {
		return nil, err
	}
	if err := fill(res.Instance, w.Instance); err != nil {
		return nil, err
	}
	for _, id := range tables.DynamicIDs() {
		dst := res.table(id)
		for j := range dst[0] {
			dst[0][j] = 0
		}
		for i, row := range asg.Session.Rows(id) {
			for j := range dst[i+1] {
				dst[i+1][j] = row[j]
			}
		}
	}
	return res, nil
}

// table returns the rows of dynamic table id.
func (c *Circuit) table(id tables.ID) [][]frontend.Variable {
	switch id {
	case tables.TableOps:
		return c.TableOps
	case tables.GlobalOps:
		return c.GlobalOps
	case tables.StackOps:
		return c.StackOps
	}
	panic(fmt.Sprintf("%s is not a dynamic table", id))
}

func (c *Circuit) query(q builder.Query, r int) frontend.Variable {
	r += q.Rotation
	if r < 0 || r >= c.rows {
		return 0
	}
	switch q.Column.Kind {
	case layout.Advice:
		return c.Advice[q.Column.Index][r]
	case layout.Fixed:
		return c.fixed[q.Column.Index][r]
	}
	return c.Instance[q.Column.Index][r]
}

func (c *Circuit) eval(api frontend.API, e expr.Expression, r int) frontend.Variable {
	var res frontend.Variable = 0
	for _, t := range e {
		var v frontend.Variable = c.cs.Field.ToBigInt(t.Coeff)
		for _, id := range t.Vars() {
			v = api.Mul(v, c.query(c.cs.QueryOf(id), r))
		}
		res = api.Add(res, v)
	}
	return res
}

func (c *Circuit) Define(api frontend.API) error {
	if c.cs == nil {
		return fmt.Errorf("circuit not built with New")
	}
	for _, g := range c.cs.Gates {
		for r := 0; r < c.rows; r++ {
			api.AssertIsEqual(c.eval(api, g.Poly, r), 0)
		}
	}

	rc := rangecheck.New(api)
	dynamic := make(map[tables.ID]*logUp)
	for _, id := range tables.DynamicIDs() {
		dynamic[id] = &logUp{arity: id.Arity(), table: c.table(id)}
	}
	for _, l := range c.cs.Lookups {
		for r := 0; r < c.rows; r++ {
			tuple := make([]frontend.Variable, len(l.Inputs))
			for i, e := range l.Inputs {
				tuple[i] = c.eval(api, e, r)
			}
			switch l.Table {
			case tables.Range8, tables.Range16:
				rc.Check(tuple[0], tables.RangeBits(l.Table))
			case tables.ByteOps:
				checkByteOp(api, tuple)
			default:
				dynamic[l.Table].query(tuple)
			}
		}
	}

	// Challenges are hashed from everything the lookups depend on.
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	var counts [][]frontend.Variable
	for _, id := range tables.DynamicIDs() {
		m, err := dynamic[id].counts(api)
		if err != nil {
			return err
		}
		counts = append(counts, m)
		for _, t := range dynamic[id].table {
			h.Write(t...)
		}
		h.Write(m...)
	}
	for _, col := range c.Advice {
		h.Write(col...)
	}
	for _, col := range c.Instance {
		h.Write(col...)
	}
	beta := h.Sum()
	h.Write(beta)
	alpha := h.Sum()

	for i, id := range tables.DynamicIDs() {
		dynamic[id].check(api, counts[i], alpha, beta)
	}
	return nil
}

var byteOpCodes = []tables.ByteOp{tables.ByteAnd, tables.ByteOr, tables.ByteXor, tables.BytePopcnt, tables.ByteMsb}

// checkByteOp asserts (op, a, b, c) is a ByteOps row or all zero.
func checkByteOp(api frontend.API, tuple []frontend.Variable) {
	op, a, b, c := tuple[0], tuple[1], tuple[2], tuple[3]
	aBits := api.ToBinary(a, 8)
	bBits := api.ToBinary(b, 8)

	isNone := api.IsZero(op)
	api.AssertIsEqual(api.Mul(isNone, a), 0)
	api.AssertIsEqual(api.Mul(isNone, b), 0)
	api.AssertIsEqual(api.Mul(isNone, c), 0)

	sum := isNone
	var want frontend.Variable = 0
	for _, code := range byteOpCodes {
		is := api.IsZero(api.Sub(op, uint64(code)))
		sum = api.Add(sum, is)
		var res frontend.Variable = 0
		switch code {
		case tables.BytePopcnt:
			for i := 0; i < 8; i++ {
				res = api.Add(res, aBits[i])
			}
		case tables.ByteMsb:
			res = aBits[7]
		default:
			for i := 7; i >= 0; i-- {
				var bit frontend.Variable
				switch code {
				case tables.ByteAnd:
					bit = api.And(aBits[i], bBits[i])
				case tables.ByteOr:
					bit = api.Or(aBits[i], bBits[i])
				case tables.ByteXor:
					bit = api.Xor(aBits[i], bBits[i])
				}
				res = api.Add(api.Mul(res, 2), bit)
			}
		}
		if code.Unary() {
			api.AssertIsEqual(api.Mul(is, b), 0)
		}
		want = api.Add(want, api.Mul(is, res))
	}
	api.AssertIsEqual(sum, 1)
	api.AssertIsEqual(c, want)
}
