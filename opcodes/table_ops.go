package opcodes

import (
	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// TableGrowGadget pops the fill value and the number of slots to add and
// pushes the old size, or tables.GrowFailed when the table would pass its
// maximum. The fill value is on top and the count below it. This is the rwasm
// operand order, the reverse of WebAssembly's table.grow, and the recorder
// and Session follow it too.
type TableGrowGadget struct {
	tableIndex builder.Cell
	initVal    builder.Cell
	growVal    builder.Cell
	resVal     builder.Cell
}

func ConfigureTableGrow(cb *builder.OpConstraintBuilder) ExecutionGadget {
	g := &TableGrowGadget{
		tableIndex: cb.QueryCell(),
		initVal:    cb.QueryCell(),
		growVal:    cb.QueryCell(),
		resVal:     cb.QueryCell(),
	}
	cb.RequireOpcode(instruction.TableGrow)
	cb.ConstrainEqual("table_index", g.tableIndex.Expr(), cb.Common().Imm.Expr())
	cb.TableGrow(g.tableIndex.Expr(), g.initVal.Expr(), g.growVal.Expr(), g.resVal.Expr())
	cb.StackPop(g.initVal.Expr())
	cb.StackPop(g.growVal.Expr())
	cb.StackPush(g.resVal.Expr())
	return g
}

func (*TableGrowGadget) Name() string {
	return "WASM_TABLE_GROW"
}

func (*TableGrowGadget) ExecutionState() execstate.ExecutionState {
	return execstate.TableGrow
}

func (g *TableGrowGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step.Opcode() != instruction.TableGrow {
		return IllegalOpcode(step, g.ExecutionState())
	}
	var initVal, growVal trace.Value
	if err := curr(step, &initVal, &growVal); err != nil {
		return err
	}
	resVal, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	r := newRow(region, step)
	r.u64(g.tableIndex, step.Instr.Imm)
	r.value(g.initVal, initVal)
	r.value(g.growVal, growVal)
	r.value(g.resVal, resVal)
	return r.commit(region, offset)
}

type TableSizeGadget struct {
	tableIndex builder.Cell
	resVal     builder.Cell
}

func ConfigureTableSize(cb *builder.OpConstraintBuilder) ExecutionGadget {
	g := &TableSizeGadget{
		tableIndex: cb.QueryCell(),
		resVal:     cb.QueryCell(),
	}
	cb.RequireOpcode(instruction.TableSize)
	cb.ConstrainEqual("table_index", g.tableIndex.Expr(), cb.Common().Imm.Expr())
	cb.TableSize(g.tableIndex.Expr(), g.resVal.Expr())
	cb.StackPush(g.resVal.Expr())
	return g
}

func (*TableSizeGadget) Name() string {
	return "WASM_TABLE_SIZE"
}

func (*TableSizeGadget) ExecutionState() execstate.ExecutionState {
	return execstate.TableSize
}

func (g *TableSizeGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step.Opcode() != instruction.TableSize {
		return IllegalOpcode(step, g.ExecutionState())
	}
	resVal, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	r := newRow(region, step)
	r.u64(g.tableIndex, step.Instr.Imm)
	r.value(g.resVal, resVal)
	return r.commit(region, offset)
}

// TableGetGadget pops an element index and pushes the element.
type TableGetGadget struct {
	tableIndex builder.Cell
	elemIndex  builder.Cell
	resVal     builder.Cell
}

func ConfigureTableGet(cb *builder.OpConstraintBuilder) ExecutionGadget {
	g := &TableGetGadget{
		tableIndex: cb.QueryCell(),
		elemIndex:  cb.QueryCell(),
		resVal:     cb.QueryCell(),
	}
	cb.RequireOpcode(instruction.TableGet)
	cb.ConstrainEqual("table_index", g.tableIndex.Expr(), cb.Common().Imm.Expr())
	cb.TableGet(g.tableIndex.Expr(), g.elemIndex.Expr(), g.resVal.Expr())
	cb.StackPop(g.elemIndex.Expr())
	cb.StackPush(g.resVal.Expr())
	return g
}

func (*TableGetGadget) Name() string {
	return "WASM_TABLE_GET"
}

func (*TableGetGadget) ExecutionState() execstate.ExecutionState {
	return execstate.TableGet
}

func (g *TableGetGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step.Opcode() != instruction.TableGet {
		return IllegalOpcode(step, g.ExecutionState())
	}
	elemIndex, err := step.CurrNthStackValue(0)
	if err != nil {
		return err
	}
	resVal, err := step.NextNthStackValue(0)
	if err != nil {
		return err
	}
	r := newRow(region, step)
	r.u64(g.tableIndex, step.Instr.Imm)
	r.value(g.elemIndex, elemIndex)
	r.value(g.resVal, resVal)
	return r.commit(region, offset)
}

// TableSetGadget pops a value and an element index and stores the value.
type TableSetGadget struct {
	tableIndex builder.Cell
	value      builder.Cell
	elemIndex  builder.Cell
}

func ConfigureTableSet(cb *builder.OpConstraintBuilder) ExecutionGadget {
	g := &TableSetGadget{
		tableIndex: cb.QueryCell(),
		value:      cb.QueryCell(),
		elemIndex:  cb.QueryCell(),
	}
	cb.RequireOpcode(instruction.TableSet)
	cb.ConstrainEqual("table_index", g.tableIndex.Expr(), cb.Common().Imm.Expr())
	cb.TableSet(g.tableIndex.Expr(), g.elemIndex.Expr(), g.value.Expr())
	cb.StackPop(g.value.Expr())
	cb.StackPop(g.elemIndex.Expr())
	return g
}

func (*TableSetGadget) Name() string {
	return "WASM_TABLE_SET"
}

func (*TableSetGadget) ExecutionState() execstate.ExecutionState {
	return execstate.TableSet
}

func (g *TableSetGadget) AssignExecStep(region *layout.Region, offset int, step *trace.Step) error {
	if step.Opcode() != instruction.TableSet {
		return IllegalOpcode(step, g.ExecutionState())
	}
	var value, elemIndex trace.Value
	if err := curr(step, &value, &elemIndex); err != nil {
		return err
	}
	r := newRow(region, step)
	r.u64(g.tableIndex, step.Instr.Imm)
	r.value(g.value, value)
	r.value(g.elemIndex, elemIndex)
	return r.commit(region, offset)
}
