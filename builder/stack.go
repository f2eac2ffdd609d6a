package builder

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
)

func (cb *OpConstraintBuilder) window(i int) {
	if i < 0 || i >= cb.common.Window() {
		panic(fmt.Sprintf("%s: stack slot %d outside a window of %d", cb.state, i, cb.common.Window()))
	}
}

// StackCurr is the value i slots below the top before the step.
func (cb *OpConstraintBuilder) StackCurr(i int) expr.Expression {
	cb.window(i)
	return cb.common.StackCurr[i].Expr()
}

// StackNext is the value i slots below the top after the step.
func (cb *OpConstraintBuilder) StackNext(i int) expr.Expression {
	cb.window(i)
	return cb.common.StackNext[i].Expr()
}

func (cb *OpConstraintBuilder) checkShape() {
	if cb.rewrite {
		panic(fmt.Sprintf("%s: StackPop/StackPush after StackRewrite", cb.state))
	}
	if len(cb.conditions) != 0 {
		panic(fmt.Sprintf("%s: StackPop/StackPush inside Condition", cb.state))
	}
}

// StackPop ties e to the next operand popped off the stack.
func (cb *OpConstraintBuilder) StackPop(e expr.Expression) {
	cb.checkShape()
	cb.ConstrainEqual(fmt.Sprintf("stack_pop[%d]", cb.pops), e, cb.StackCurr(cb.pops))
	cb.pops++
}

// StackPush ties e to the next result pushed, the first push ending on top.
func (cb *OpConstraintBuilder) StackPush(e expr.Expression) {
	cb.checkShape()
	cb.ConstrainEqual(fmt.Sprintf("stack_push[%d]", cb.pushes), e, cb.StackNext(cb.pushes))
	cb.pushes++
}

// StackRewrite hands the whole window to the gadget: no frame is preserved
// automatically and sp' = sp + delta. Use it for opcodes whose stack effect
// depends on the opcode or an immediate.
func (cb *OpConstraintBuilder) StackRewrite(delta expr.Expression) {
	cb.checkOpen()
	if cb.pops != 0 || cb.pushes != 0 {
		panic(fmt.Sprintf("%s: StackRewrite after StackPop/StackPush", cb.state))
	}
	cb.rewrite = true
	cb.delta = delta
}

// PreserveFrame records that the stack below the first pops values is
// unchanged, shifted under pushes new values. Slots the current window does
// not cover are looked up with StackEnter.
func (cb *OpConstraintBuilder) PreserveFrame(pops, pushes int) {
	w := cb.common.Window()
	for k := 0; pops+k < w && pushes+k < w; k++ {
		cb.ConstrainEqual(fmt.Sprintf("frame[%d]", k), cb.StackNext(pushes+k), cb.StackCurr(pops+k))
	}
	cb.StackEnter(pops, pushes)
}

// StackEnter looks up the values a step popping more than it pushes brings
// into view: next slot j >= w-(pops-pushes) holds the value at stack index
// sp'-1-j, below the current window, and must be the StackOps row of that
// index at this step.
func (cb *OpConstraintBuilder) StackEnter(pops, pushes int) {
	cs := cb.cs
	w := cb.common.Window()
	from := w - (pops - pushes)
	if from < 0 {
		panic(fmt.Sprintf("%s: %d pops and %d pushes overrun a window of %d", cb.state, pops, pushes, w))
	}
	for j := from; j < w; j++ {
		// tables.StackAddress(sp'-1-j, w) with sp' = sp+pushes-pops
		addr := cs.Add(cb.common.Sp.Expr(), cs.Const(pushes - pops - 1 - j + w))
		cb.Lookup(fmt.Sprintf("stack_enter[%d]", j), tables.StackOps, cb.common.Step.Expr(), addr, cb.StackNext(j))
	}
}

// RequireStackDepth records sp >= n through sp - n being a 16-bit value.
func (cb *OpConstraintBuilder) RequireStackDepth(n expr.Expression) {
	cb.RangeCheck("stack_depth", cb.cs.Sub(cb.common.Sp.Expr(), n), tables.Range16)
}
