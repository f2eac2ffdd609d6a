package builder

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/utils"
)

// OpConstraintBuilder collects the constraints of one execution gadget.
// Everything recorded here holds only on rows where the gadget's selector
// is one: Finalize multiplies gates and lookup inputs by the selector.
//
// Misuse (an out-of-window stack slot, a degree above expr.MaxDegree, a
// gadget without opcodes) is a programming error and panics.
type OpConstraintBuilder struct {
	cs       *ConstraintSystem
	common   *Common
	pool     *CellPool
	state    execstate.ExecutionState
	selector expr.Expression

	nbCells     int
	conditions  []expr.Expression
	constraints []Gate
	lookups     []Lookup
	booleans    utils.Map

	opcodes []instruction.Opcode
	pops    int
	pushes  int
	rewrite bool
	delta   expr.Expression
	nextPc  expr.Expression

	finalized bool
}

// Summary is what the assembler needs from a configured gadget.
type Summary struct {
	State   execstate.ExecutionState
	Opcodes []instruction.Opcode
	// StackDelta is sp' - sp on the gadget's rows.
	StackDelta expr.Expression
	// NextPc is pc' on the gadget's rows.
	NextPc expr.Expression
	Pops   int
	Pushes int
	Cells  int
}

func NewOpConstraintBuilder(cs *ConstraintSystem, common *Common, pool *CellPool, state execstate.ExecutionState, selector expr.Expression) *OpConstraintBuilder {
	return &OpConstraintBuilder{
		cs:       cs,
		common:   common,
		pool:     pool,
		state:    state,
		selector: selector,
		booleans: make(utils.Map),
	}
}

func (cb *OpConstraintBuilder) CS() *ConstraintSystem {
	return cb.cs
}

func (cb *OpConstraintBuilder) Common() *Common {
	return cb.common
}

func (cb *OpConstraintBuilder) State() execstate.ExecutionState {
	return cb.state
}

func (cb *OpConstraintBuilder) checkOpen() {
	if cb.finalized {
		panic(fmt.Sprintf("%s: builder used after Finalize", cb.state))
	}
}

// QueryCell returns the gadget's next cell.
func (cb *OpConstraintBuilder) QueryCell() Cell {
	cb.checkOpen()
	c := cb.pool.Cell(cb.nbCells)
	cb.nbCells++
	return c
}

func (cb *OpConstraintBuilder) QueryCells(n int) []Cell {
	res := make([]Cell, n)
	for i := range res {
		res[i] = cb.QueryCell()
	}
	return res
}

// QueryBool returns a cell constrained to 0 or 1.
func (cb *OpConstraintBuilder) QueryBool() Cell {
	c := cb.QueryCell()
	cb.RequireBool("bool", c.Expr())
	return c
}

// condition is the product of the enclosing conditions.
func (cb *OpConstraintBuilder) condition() expr.Expression {
	return cb.cs.Mul(cb.conditions...)
}

// Condition records the constraints and lookups of fn only where cond is one.
func (cb *OpConstraintBuilder) Condition(cond expr.Expression, fn func()) {
	cb.conditions = append(cb.conditions, cond)
	defer func() {
		cb.conditions = cb.conditions[:len(cb.conditions)-1]
	}()
	fn()
}

// Constrain records e = 0.
func (cb *OpConstraintBuilder) Constrain(name string, e expr.Expression) {
	cb.checkOpen()
	cb.constraints = append(cb.constraints, Gate{Name: name, Poly: cb.cs.Mul(cb.condition(), e)})
}

func (cb *OpConstraintBuilder) ConstrainZero(name string, e expr.Expression) {
	cb.Constrain(name, e)
}

func (cb *OpConstraintBuilder) ConstrainEqual(name string, a, b expr.Expression) {
	cb.Constrain(name, cb.cs.Sub(a, b))
}

// RequireBool records e * (1 - e) = 0. Unconditional requirements on the
// same expression are recorded once.
func (cb *OpConstraintBuilder) RequireBool(name string, e expr.Expression) {
	if len(cb.conditions) == 0 {
		if _, ok := cb.booleans.Find(e); ok {
			return
		}
		cb.booleans.Set(e, true)
	}
	cb.Constrain(name, cb.cs.Mul(e, cb.cs.Sub(cb.cs.One(), e)))
}

// Lookup records that inputs form a row of table id.
func (cb *OpConstraintBuilder) Lookup(name string, id tables.ID, inputs ...expr.Expression) {
	cb.checkOpen()
	cond := cb.condition()
	in := make([]expr.Expression, len(inputs))
	for i, e := range inputs {
		in[i] = cb.cs.Mul(cond, e)
	}
	cb.lookups = append(cb.lookups, Lookup{Name: name, Table: id, Inputs: in})
}

// RangeCheck looks e up in a range table.
func (cb *OpConstraintBuilder) RangeCheck(name string, e expr.Expression, id tables.ID) {
	if id != tables.Range8 && id != tables.Range16 {
		panic(fmt.Sprintf("%s is not a range table", id))
	}
	cb.Lookup(name, id, e)
}

// ByteOp requires c = op(a, b) on bytes.
func (cb *OpConstraintBuilder) ByteOp(op tables.ByteOp, a, b, c expr.Expression) {
	cb.Lookup("byte_op", tables.ByteOps, cb.cs.Const(uint64(op)), a, b, c)
}

// NextPc overrides pc' = pc + 1.
func (cb *OpConstraintBuilder) NextPc(e expr.Expression) {
	cb.checkOpen()
	if cb.nextPc != nil {
		panic(fmt.Sprintf("%s: next pc set twice", cb.state))
	}
	cb.nextPc = e
}

// Finalize emits the gadget's gates and lookups into the constraint system.
func (cb *OpConstraintBuilder) Finalize() Summary {
	cb.checkOpen()
	if len(cb.conditions) != 0 {
		panic(fmt.Sprintf("%s: Finalize inside Condition", cb.state))
	}
	if len(cb.opcodes) == 0 && cb.state != execstate.Padding {
		panic(fmt.Sprintf("%s: no opcode required", cb.state))
	}
	if !cb.rewrite {
		cb.PreserveFrame(cb.pops, cb.pushes)
		if cb.pops > 0 {
			cb.RequireStackDepth(cb.cs.Const(cb.pops))
		}
		cb.delta = cb.cs.Const(cb.pushes - cb.pops)
	}
	if cb.nextPc == nil {
		cb.nextPc = cb.cs.Add(cb.common.Pc.Expr(), cb.cs.One())
	}
	cb.finalized = true

	prefix := cb.state.String() + "/"
	for _, g := range cb.constraints {
		cb.cs.AddGate(prefix+g.Name, cb.cs.Mul(cb.selector, g.Poly))
	}
	for _, l := range cb.lookups {
		in := make([]expr.Expression, len(l.Inputs))
		for i, e := range l.Inputs {
			in[i] = cb.cs.Mul(cb.selector, e)
		}
		cb.cs.AddLookup(prefix+l.Name, l.Table, in)
	}
	return Summary{
		State:      cb.state,
		Opcodes:    cb.opcodes,
		StackDelta: cb.delta,
		NextPc:     cb.nextPc,
		Pops:       cb.pops,
		Pushes:     cb.pushes,
		Cells:      cb.nbCells,
	}
}
