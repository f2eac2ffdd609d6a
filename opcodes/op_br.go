package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// BrGadget moves pc by the signed immediate: always for Br, and for
// BrIfEqz/BrIfNez depending on the popped condition. A branch not taken
// falls through to pc + 1.
type BrGadget struct {
	flags  builder.OpcodeFlags
	cond   builder.Cell
	isZero builder.IsZero
}

func ConfigureBr(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	g := &BrGadget{
		flags: cb.RequireOpcodes(instruction.Br, instruction.BrIfEqz, instruction.BrIfNez),
		cond:  cb.QueryCell(),
	}
	g.isZero = cb.IsZero(g.cond.Expr())
	br := g.flags.Flag(instruction.Br)
	eqz := g.flags.Flag(instruction.BrIfEqz)
	nez := g.flags.Flag(instruction.BrIfNez)
	conditional := cs.Add(eqz, nez)

	cb.StackRewrite(cs.Scale(conditional, -1))
	cb.Condition(br, func() {
		cb.PreserveFrame(0, 0)
	})
	cb.Condition(conditional, func() {
		cb.ConstrainEqual("cond", g.cond.Expr(), cb.StackCurr(0))
		cb.PreserveFrame(1, 0)
		cb.RequireStackDepth(cs.One())
	})

	// pc' = pc + 1 + taken * (offset - 1)
	isZero := g.isZero.Expr()
	taken := cs.Add(br, cs.Mul(eqz, isZero), cs.Mul(nez, cs.Sub(cs.One(), isZero)))
	common := cb.Common()
	cb.NextPc(cs.Add(common.Pc.Expr(), cs.One(), cs.Mul(taken, cs.Sub(common.Imm.Expr(), cs.One()))))
	return g
}

func (*BrGadget) Name() string {
	return "WASM_BR"
}

func (*BrGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Br
}

func (g *BrGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	var cond trace.Value
	switch step.Opcode() {
	case instruction.Br:
	case instruction.BrIfEqz, instruction.BrIfNez:
		var err error
		if cond, err = step.CurrNthStackValue(0); err != nil {
			return err
		}
	default:
		return IllegalOpcode(step, g.ExecutionState())
	}
	r := newRow(region, step)
	r.value(g.cond, cond)
	condElem := r.values[0]
	if err := r.commit(region, offset); err != nil {
		return err
	}
	if err := g.isZero.Assign(region, offset, condElem); err != nil {
		return err
	}
	_, err := g.flags.Assign(region, offset, step.Opcode())
	return err
}

// NextPc is the pc after step as the circuit computes it.
func NextPc(step *trace.Step) uint64 {
	taken := false
	switch step.Opcode() {
	case instruction.Br:
		taken = true
	case instruction.BrIfEqz, instruction.BrIfNez:
		cond, err := step.CurrNthStackValue(0)
		if err != nil {
			return step.Pc + 1
		}
		taken = (cond == 0) == (step.Opcode() == instruction.BrIfEqz)
	}
	if taken {
		return uint64(int64(step.Pc) + step.Instr.BranchOffset())
	}
	return step.Pc + 1
}
