package opcodes

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// LocalGadget handles locals, which rwasm keeps on the operand stack and
// addresses by depth (1 is the top). LocalGet pushes a copy of the value at
// depth d, LocalSet pops a value and stores it at depth d of the remaining
// stack, LocalTee stores the top at depth d without popping it. The slot
// read or written must lie inside the current stack window, so LocalSet
// takes depths up to w-1.
type LocalGadget struct {
	flags  builder.OpcodeFlags
	depth  []builder.Cell
	value  builder.Cell
	window int
}

func ConfigureLocal(cb *builder.OpConstraintBuilder) ExecutionGadget {
	cs := cb.CS()
	w := cb.Common().Window()
	g := &LocalGadget{
		flags:  cb.RequireOpcodes(instruction.LocalGet, instruction.LocalSet, instruction.LocalTee),
		value:  cb.QueryCell(),
		window: w,
	}
	get := g.flags.Flag(instruction.LocalGet)
	set := g.flags.Flag(instruction.LocalSet)
	tee := g.flags.Flag(instruction.LocalTee)

	// one-hot depth: depth[j] is set for depth j+1
	var sum, weighted, picked []expr.Expression
	for j := 0; j < w; j++ {
		c := cb.QueryBool()
		g.depth = append(g.depth, c)
		sum = append(sum, c.Expr())
		weighted = append(weighted, cs.Scale(c.Expr(), j+1))
		picked = append(picked, cs.Mul(c.Expr(), cb.StackCurr(j)))
	}
	cb.ConstrainEqual("depth_one_hot", cs.Add(sum...), cs.One())
	cb.ConstrainEqual("depth", cb.Common().Imm.Expr(), cs.Add(weighted...))

	cb.StackRewrite(cs.Sub(get, set))
	imm := cb.Common().Imm.Expr()
	v := g.value.Expr()

	cb.Condition(get, func() {
		cb.ConstrainEqual("get_value", v, cs.Add(picked...))
		cb.ConstrainEqual("get_push", cb.StackNext(0), v)
		cb.PreserveFrame(0, 1)
		cb.RequireStackDepth(imm)
	})
	cb.Condition(set, func() {
		cb.ConstrainEqual("set_value", v, cb.StackCurr(0))
		for j := 0; j < w-1; j++ {
			below := cb.StackCurr(j + 1)
			cb.ConstrainEqual(fmt.Sprintf("set[%d]", j), cb.StackNext(j), cs.Add(below, cs.Mul(g.depth[j].Expr(), cs.Sub(v, below))))
		}
		cb.ConstrainZero("set_in_window", g.depth[w-1].Expr())
		cb.StackEnter(1, 0)
		cb.RequireStackDepth(cs.Add(imm, cs.One()))
	})
	cb.Condition(tee, func() {
		cb.ConstrainEqual("tee_value", v, cb.StackCurr(0))
		for j := 0; j < w; j++ {
			old := cb.StackCurr(j)
			cb.ConstrainEqual(fmt.Sprintf("tee[%d]", j), cb.StackNext(j), cs.Add(old, cs.Mul(g.depth[j].Expr(), cs.Sub(v, old))))
		}
		cb.RequireStackDepth(imm)
	})
	return g
}

func (*LocalGadget) Name() string {
	return "WASM_LOCAL"
}

func (*LocalGadget) ExecutionState() execstate.ExecutionState {
	return execstate.Local
}

func (g *LocalGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if !accepts(g.ExecutionState(), step) {
		return IllegalOpcode(step, g.ExecutionState())
	}
	d := step.Instr.Imm
	if d == 0 || d > uint64(g.window) {
		return step.Errorf(trace.ErrStackUnderflow, "local depth %d outside a window of %d", d, g.window)
	}
	var value trace.Value
	var err error
	switch step.Opcode() {
	case instruction.LocalGet:
		value, err = step.CurrNthStackValue(int(d) - 1)
	case instruction.LocalSet:
		if d == uint64(g.window) {
			return step.Errorf(trace.ErrStackUnderflow, "local.set depth %d outside a window of %d", d, g.window)
		}
		if step.Curr.Depth < d+1 {
			return step.Errorf(trace.ErrStackUnderflow, "local depth %d below a stack of %d", d, step.Curr.Depth)
		}
		value, err = step.CurrNthStackValue(0)
	case instruction.LocalTee:
		if _, err = step.CurrNthStackValue(int(d) - 1); err != nil {
			return err
		}
		value, err = step.CurrNthStackValue(0)
	}
	if err != nil {
		return err
	}

	r := newRow(region, step)
	r.value(g.value, value)
	for j, c := range g.depth {
		r.flag(c, uint64(j+1) == d)
	}
	if err := r.commit(region, offset); err != nil {
		return err
	}
	_, err = g.flags.Assign(region, offset, step.Opcode())
	return err
}
