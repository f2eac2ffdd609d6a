package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// ConstGadget pushes the immediate: a constant's raw bits or a function
// reference.
type ConstGadget struct {
	flags builder.OpcodeFlags
	value builder.Cell
}

func ConfigureConst(cb *builder.OpConstraintBuilder) ExecutionGadget {
	g := &ConstGadget{
		flags: cb.RequireOpcodes(execstate.Opcodes(execstate.Const)...),
		value: cb.QueryCell(),
	}
	cb.ConstrainEqual("value", g.value.Expr(), cb.Common().Imm.Expr())
	cb.StackPush(g.value.Expr())
	return g
}

func (*ConstGadget) Name() string {
	return "WASM_CONST"
}

func (*ConstGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Const
}

func (g *ConstGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if !accepts(g.ExecutionState(), step) {
		return IllegalOpcode(step, g.ExecutionState())
	}
	value, err := step.NextNthStackValue(0)
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
