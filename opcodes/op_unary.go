package opcodes

import (
	"math/bits"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// UnaryGadget handles eqz and popcnt. Popcnt sums the per-byte counts
// looked up in the ByteOps table.
type UnaryGadget struct {
	flags  builder.OpcodeFlags
	a      builder.Bytes
	counts []builder.Cell
	res    builder.Cell
	isZero builder.IsZero
}

func ConfigureUnary(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &UnaryGadget{
		flags:  cb.RequireOpcodes(execstate.Opcodes(execstate.Unary)...),
		a:      cb.QueryU64(),
		counts: cb.QueryCells(8),
		res:    cb.QueryCell(),
	}
	f := g.flags
	g.isZero = cb.IsZero(g.a.Expr())

	cb.Condition(f.Any(instruction.I32Eqz, instruction.I32Popcnt), func() {
		requireU32(cb, g.a)
	})
	cb.Condition(f.Any(instruction.I32Eqz, instruction.I64Eqz), func() {
		cb.ConstrainEqual("eqz", g.res.Expr(), g.isZero.Expr())
	})
	cb.Condition(f.Any(instruction.I32Popcnt, instruction.I64Popcnt), func() {
		sum := make([]expr.Expression, 8)
		for i, c := range g.counts {
			cb.ByteOp(tables.BytePopcnt, g.a.Byte(i), cs.Const(0), c.Expr())
			sum[i] = c.Expr()
		}
		cb.ConstrainEqual("popcnt", g.res.Expr(), cs.Add(sum...))
	})

	cb.StackPop(g.a.Expr())
	cb.StackPush(g.res.Expr())
	return g
}

func (*UnaryGadget) Name() string {
	return "WASM_UNARY"
}

func (*UnaryGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Unary
}

func (g *UnaryGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
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
	r := newRow(region, step)
	r.value(g.res, res)
	for i, c := range g.counts {
		r.u64(c, uint64(bits.OnesCount8(uint8(uint64(a)>>(8*i)))))
	}
	if err := r.commit(region, offset); err != nil {
		return err
	}
	if err := g.a.Assign(region, offset, uint64(a)); err != nil {
		return err
	}
	if err := g.isZero.Assign(region, offset, region.Field().FromInterface(uint64(a))); err != nil {
		return err
	}
	_, err = g.flags.Assign(region, offset, step.Opcode())
	return err
}
