package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// PaddingGadget fills the rows after the last step. Such rows keep pc, sp
// and the stack window of the row before them.
type PaddingGadget struct{}

func ConfigurePadding(cb *builder.OpConstraintBuilder) ExecutionGadget {
	common := cb.Common()
	cb.ConstrainZero("opcode", common.Opcode.Expr())
	cb.ConstrainZero("imm", common.Imm.Expr())
	cb.NextPc(common.Pc.Expr())
	return &PaddingGadget{}
}

func (*PaddingGadget) Name() string {
	return "PADDING"
}

func (*PaddingGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Padding
}

// AssignExecStep has nothing to write; a padding row carries no step.
func (g *PaddingGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step != nil {
		return IllegalOpcode(step, g.ExecutionState())
	}
	return nil
}
