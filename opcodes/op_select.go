package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// SelectGadget pops cond, val2 and val1 and pushes val1 when cond is
// nonzero, val2 otherwise.
type SelectGadget struct {
	cond   builder.Cell
	val1   builder.Cell
	val2   builder.Cell
	res    builder.Cell
	isZero builder.IsZero
}

func ConfigureSelect(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &SelectGadget{
		cond: cb.QueryCell(),
		val1: cb.QueryCell(),
		val2: cb.QueryCell(),
		res:  cb.QueryCell(),
	}
	g.isZero = cb.IsZero(g.cond.Expr())
	cb.RequireOpcode(instruction.Select)

	// res = val1 + isZero(cond) * (val2 - val1)
	cb.ConstrainEqual("res", g.res.Expr(), cs.Add(g.val1.Expr(), cs.Mul(g.isZero.Expr(), cs.Sub(g.val2.Expr(), g.val1.Expr()))))
	cb.StackPop(g.cond.Expr())
	cb.StackPop(g.val2.Expr())
	cb.StackPop(g.val1.Expr())
	cb.StackPush(g.res.Expr())
	return g
}

func (*SelectGadget) Name() string {
	return "WASM_SELECT"
}

func (*SelectGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Select
}

func (g *SelectGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step.Opcode() != instruction.Select {
		return IllegalOpcode(step, g.ExecutionState())
	}
	var cond, val2, val1 trace.Value
	if err := curr(step, &cond, &val2, &val1); err != nil {
		return err
	}
	res, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	r := newRow(region, step)
	r.value(g.cond, cond)
	r.value(g.val1, val1)
	r.value(g.val2, val2)
	r.value(g.res, res)
	condElem := r.values[0]
	if err := r.commit(region, offset); err != nil {
		return err
	}
	return g.isZero.Assign(region, offset, condElem)
}
