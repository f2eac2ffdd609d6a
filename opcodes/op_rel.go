package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

type relKind uint8

const (
	relEq relKind = iota
	relNe
	relLt
	relGt
	relLe
	relGe
)

type relOp struct {
	kind   relKind
	signed bool
	is64   bool
}

var relOps = map[instruction.Opcode]relOp{
	instruction.I32Eq:  {relEq, false, false},
	instruction.I32Ne:  {relNe, false, false},
	instruction.I32LtS: {relLt, true, false},
	instruction.I32LtU: {relLt, false, false},
	instruction.I32GtS: {relGt, true, false},
	instruction.I32GtU: {relGt, false, false},
	instruction.I32LeS: {relLe, true, false},
	instruction.I32LeU: {relLe, false, false},
	instruction.I32GeS: {relGe, true, false},
	instruction.I32GeU: {relGe, false, false},
	instruction.I64Eq:  {relEq, false, true},
	instruction.I64Ne:  {relNe, false, true},
	instruction.I64LtS: {relLt, true, true},
	instruction.I64LtU: {relLt, false, true},
	instruction.I64GtS: {relGt, true, true},
	instruction.I64GtU: {relGt, false, true},
	instruction.I64LeS: {relLe, true, true},
	instruction.I64LeU: {relLe, false, true},
	instruction.I64GeS: {relGe, true, true},
	instruction.I64GeU: {relGe, false, true},
}

// RelGadget compares a and b (b on top) and pushes 0 or 1. Signed operands
// are biased by flipping their sign bit, read from the ByteOps table; then
//
//	a' - b' + lt*2^64 = diff,  diff < 2^64
//
// decides a' < b', and a zero test on a - b decides equality.
type RelGadget struct {
	flags  builder.OpcodeFlags
	a      builder.Bytes
	b      builder.Bytes
	diff   builder.Bytes
	msbA   builder.Cell
	msbB   builder.Cell
	lt     builder.Cell
	res    builder.Cell
	isZero builder.IsZero
}

func ConfigureRel(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &RelGadget{
		flags: cb.RequireOpcodes(execstate.Opcodes(execstate.Rel)...),
		a:     cb.QueryU64(),
		b:     cb.QueryU64(),
		diff:  cb.QueryU64(),
		msbA:  cb.QueryCell(),
		msbB:  cb.QueryCell(),
		lt:    cb.QueryBool(),
		res:   cb.QueryCell(),
	}
	a, b := g.a.Expr(), g.b.Expr()
	g.isZero = cb.IsZero(cs.Sub(a, b))

	var ops32, ops64, signed []instruction.Opcode
	byKind := map[relKind][]instruction.Opcode{}
	for _, op := range g.flags.Opcodes {
		r := relOps[op]
		if r.is64 {
			ops64 = append(ops64, op)
		} else {
			ops32 = append(ops32, op)
		}
		if r.signed {
			signed = append(signed, op)
		}
		byKind[r.kind] = append(byKind[r.kind], op)
	}
	is32, is64 := g.flags.Any(ops32...), g.flags.Any(ops64...)
	isSigned := g.flags.Any(signed...)

	cb.Condition(is32, func() {
		requireU32(cb, g.a, g.b)
	})

	// half = 2^31 or 2^63; x' = x + (1 - 2*msb)*half when signed
	half := cs.Add(cs.Mul(is32, pow2(cb, 31)), cs.Mul(is64, pow2(cb, 63)))
	bias := func(x expr.Expression, msb builder.Cell) expr.Expression {
		flip := cs.Sub(cs.One(), cs.Scale(msb.Expr(), 2))
		return cs.Add(x, cs.Mul(isSigned, flip, half))
	}
	top := func(x builder.Bytes) expr.Expression {
		return cs.Add(cs.Mul(is32, x.Byte(3)), cs.Mul(is64, x.Byte(7)))
	}
	cb.Condition(isSigned, func() {
		cb.ByteOp(tables.ByteMsb, top(g.a), cs.Const(0), g.msbA.Expr())
		cb.ByteOp(tables.ByteMsb, top(g.b), cs.Const(0), g.msbB.Expr())
	})
	cb.ConstrainEqual("compare",
		cs.Add(bias(a, g.msbA), cs.Mul(g.lt.Expr(), pow2(cb, 64))),
		cs.Add(g.diff.Expr(), bias(b, g.msbB)))

	lt, eq := g.lt.Expr(), g.isZero.Expr()
	one := cs.One()
	value := map[relKind]expr.Expression{
		relEq: eq,
		relNe: cs.Sub(one, eq),
		relLt: lt,
		relGt: cs.Sub(one, cs.Add(lt, eq)),
		relLe: cs.Add(lt, eq),
		relGe: cs.Sub(one, lt),
	}
	var res []expr.Expression
	for k := relEq; k <= relGe; k++ {
		res = append(res, cs.Mul(g.flags.Any(byKind[k]...), value[k]))
	}
	cb.ConstrainEqual("res", g.res.Expr(), cs.Add(res...))

	cb.StackPop(b)
	cb.StackPop(a)
	cb.StackPush(g.res.Expr())
	return g
}

func (*RelGadget) Name() string {
	return "WASM_REL"
}

func (*RelGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Rel
}

func (g *RelGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	r, ok := relOps[step.Opcode()]
	if !ok {
		return IllegalOpcode(step, g.ExecutionState())
	}
	var vb, va trace.Value
	if err := curr(step, &vb, &va); err != nil {
		return err
	}
	res, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	a, b := uint64(va), uint64(vb)
	half := uint64(1) << 63
	topShift := uint(56)
	if !r.is64 {
		half = 1 << 31
		topShift = 24
	}
	msbA, msbB := uint64(0), uint64(0)
	biasedA, biasedB := a, b
	if r.signed {
		msbA = (a >> topShift & 0xff) >> 7
		msbB = (b >> topShift & 0xff) >> 7
		biasedA, biasedB = a^half, b^half
	}

	row := newRow(region, step)
	row.u64(g.msbA, msbA)
	row.u64(g.msbB, msbB)
	row.flag(g.lt, biasedA < biasedB)
	row.value(g.res, res)
	if err := row.commit(region, offset); err != nil {
		return err
	}
	for _, w := range []struct {
		bytes builder.Bytes
		v     uint64
	}{
		{g.a, a}, {g.b, b}, {g.diff, biasedA - biasedB},
	} {
		if err := w.bytes.Assign(region, offset, w.v); err != nil {
			return err
		}
	}
	if err := g.isZero.Assign(region, offset, region.Field().Sub(region.Field().FromInterface(a), region.Field().FromInterface(b))); err != nil {
		return err
	}
	_, err = g.flags.Assign(region, offset, step.Opcode())
	return err
}
