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

// signExtend describes a sign extension from bits to width.
type signExtend struct {
	bits  uint
	width uint
}

var signExtends = map[instruction.Opcode]signExtend{
	instruction.I32Extend8S:   {8, 32},
	instruction.I32Extend16S:  {16, 32},
	instruction.I64Extend8S:   {8, 64},
	instruction.I64Extend16S:  {16, 64},
	instruction.I64Extend32S:  {32, 64},
	instruction.I64ExtendI32S: {32, 64},
}

// ConversionGadget wraps and extends integers. A sign extension from k bits
// keeps the low k bits and fills the rest with the sign bit:
//
//	res = a mod 2^k + msb * (2^width - 2^k)
type ConversionGadget struct {
	flags builder.OpcodeFlags
	a     builder.Bytes
	msb   builder.Cell
	res   builder.Cell
}

func ConfigureConversion(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &ConversionGadget{
		flags: cb.RequireOpcodes(execstate.Opcodes(execstate.Conversion)...),
		a:     cb.QueryU64(),
		msb:   cb.QueryCell(),
		res:   cb.QueryCell(),
	}
	f := g.flags

	cb.Condition(f.Any(instruction.I64ExtendI32S, instruction.I64ExtendI32U, instruction.I32Extend8S, instruction.I32Extend16S), func() {
		requireU32(cb, g.a)
	})
	cb.Condition(f.Flag(instruction.I32WrapI64), func() {
		cb.ConstrainEqual("wrap", g.res.Expr(), g.a.Range(0, 4))
	})
	cb.Condition(f.Flag(instruction.I64ExtendI32U), func() {
		cb.ConstrainEqual("extend_u", g.res.Expr(), g.a.Expr())
	})

	var extends, tops []expr.Expression
	for _, op := range f.Opcodes {
		se, ok := signExtends[op]
		if !ok {
			continue
		}
		flag := f.Flag(op)
		extends = append(extends, flag)
		tops = append(tops, cs.Mul(flag, g.a.Byte(int(se.bits/8)-1)))
		fill := cs.Sub(pow2(cb, se.width), pow2(cb, se.bits))
		cb.Condition(flag, func() {
			cb.ConstrainEqual("extend_s", g.res.Expr(), cs.Add(g.a.Range(0, int(se.bits/8)), cs.Mul(g.msb.Expr(), fill)))
		})
	}
	cb.Condition(cs.Add(extends...), func() {
		cb.ByteOp(tables.ByteMsb, cs.Add(tops...), cs.Const(0), g.msb.Expr())
	})

	cb.StackPop(g.a.Expr())
	cb.StackPush(g.res.Expr())
	return g
}

func (*ConversionGadget) Name() string {
	return "WASM_CONVERSION"
}

func (*ConversionGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Conversion
}

func (g *ConversionGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if !accepts(g.ExecutionState(), step) {
		return IllegalOpcode(step, g.ExecutionState())
	}
	a, err := step.CurrNthStackValue(0)
	if err != nil {
		return err
	}
	res, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	msb := uint64(0)
	if se, ok := signExtends[step.Opcode()]; ok {
		msb = uint64(a) >> (se.bits - 1) & 1
	}
	r := newRow(region, step)
	r.u64(g.msb, msb)
	r.value(g.res, res)
	if err := r.commit(region, offset); err != nil {
		return err
	}
	if err := g.a.Assign(region, offset, uint64(a)); err != nil {
		return err
	}
	_, err = g.flags.Assign(region, offset, step.Opcode())
	return err
}
