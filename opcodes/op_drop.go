package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

type DropGadget struct {
	value builder.Cell
}

func ConfigureDrop(cb *builder.OpConstraintBuilder) ExecutionGadget {
	g := &DropGadget{value: cb.QueryCell()}
	cb.RequireOpcode(instruction.Drop)
	cb.StackPop(g.value.Expr())
	return g
}

func (*DropGadget) Name() string {
	return "WASM_DROP"
}

func (*DropGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Drop
}

func (g *DropGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step.Opcode() != instruction.Drop {
		return IllegalOpcode(step, g.ExecutionState())
	}
	value, err := step.CurrNthStackValue(0)
	if err != nil {
		return err
	}
	r := newRow(region, step)
	r.value(g.value, value)
	return r.commit(region, offset)
}
