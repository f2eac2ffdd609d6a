package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// GlobalGadget reads or writes a global through the GlobalOps table.
type GlobalGadget struct {
	flags builder.OpcodeFlags
	value builder.Cell
}

func ConfigureGlobal(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &GlobalGadget{
		flags: cb.RequireOpcodes(instruction.GlobalGet, instruction.GlobalSet),
		value: cb.QueryCell(),
	}
	get := g.flags.Flag(instruction.GlobalGet)
	set := g.flags.Flag(instruction.GlobalSet)
	index := cb.Common().Imm.Expr()
	v := g.value.Expr()

	cb.StackRewrite(cs.Sub(get, set))
	cb.Condition(get, func() {
		cb.ConstrainEqual("get_push", cb.StackNext(0), v)
		cb.PreserveFrame(0, 1)
		cb.GlobalGet(index, v)
	})
	cb.Condition(set, func() {
		cb.ConstrainEqual("set_pop", cb.StackCurr(0), v)
		cb.PreserveFrame(1, 0)
		cb.RequireStackDepth(cs.One())
		cb.GlobalSet(index, v)
	})
	return g
}

func (*GlobalGadget) Name() string {
	return "WASM_GLOBAL"
}

func (*GlobalGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Global
}

func (g *GlobalGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	var value trace.Value
	var err error
	switch step.Opcode() {
	case instruction.GlobalGet:
		value, err = step.NextNthStackValue(0)
	case instruction.GlobalSet:
		value, err = step.CurrNthStackValue(0)
	default:
		return IllegalOpcode(step, g.ExecutionState())
	}
	if err != nil {
		return err
	}
	r := newRow(region, step)
	r.value(g.value, value)
	if err := r.commit(region, offset); err != nil {
		return err
	}
	_, err = g.flags.Assign(region, offset, step.Opcode())
	return err
}
