package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
)

func newTestBuilder(state execstate.ExecutionState) (*ConstraintSystem, *Common, *OpConstraintBuilder) {
	cs := NewConstraintSystem(field.Default())
	common := NewCommon(cs, 4)
	sel := cs.NewCell("q_" + state.String())
	cb := NewOpConstraintBuilder(cs, common, NewCellPool(cs), state, sel.Expr())
	return cs, common, cb
}

func TestQueriesAreInterned(t *testing.T) {
	cs := NewConstraintSystem(field.Default())
	c := cs.NewCell("a")
	require.True(t, c.Expr().Equal(c.Expr()))
	require.False(t, c.Expr().Equal(c.Next()))
	require.Equal(t, 2, cs.NbQueries())
	q := cs.QueryOf(c.Next()[0].Vars()[0])
	require.Equal(t, 1, q.Rotation)
	require.Equal(t, c.Column, q.Column)
}

func TestGateDedup(t *testing.T) {
	cs := NewConstraintSystem(field.Default())
	a := cs.NewCell("a")
	cs.AddGate("g1", cs.Sub(a.Expr(), cs.Const(3)))
	cs.AddGate("g2", cs.Add(cs.Const(-3), a.Expr()))
	cs.AddGate("zero", cs.Sub(a.Expr(), a.Expr()))
	require.Len(t, cs.Gates, 1)
	require.Panics(t, func() { cs.AddGate("const", cs.Const(1)) })
	require.Panics(t, func() { cs.AddLookup("short", tables.TableOps, []expr.Expression{a.Expr()}) })
}

func TestStackBalance(t *testing.T) {
	cs, common, cb := newTestBuilder(execstate.TableGrow)
	cells := cb.QueryCells(4)
	cb.RequireOpcode(instruction.TableGrow)
	cb.TableGrow(cells[0].Expr(), cells[1].Expr(), cells[2].Expr(), cells[3].Expr())
	cb.StackPop(cells[1].Expr())
	cb.StackPop(cells[2].Expr())
	cb.StackPush(cells[3].Expr())
	s := cb.Finalize()

	require.Equal(t, 2, s.Pops)
	require.Equal(t, 1, s.Pushes)
	require.True(t, s.StackDelta.Equal(cs.Const(-1)))
	require.True(t, s.NextPc.Equal(cs.Add(common.Pc.Expr(), cs.One())))
	require.Equal(t, 4, s.Cells)
	require.Equal(t, []instruction.Opcode{instruction.TableGrow}, s.Opcodes)

	// opcode, two pops, one push and frame[0..1] for a window of 4
	require.Len(t, cs.Gates, 6)
	names := map[tables.ID]int{}
	for _, l := range cs.Lookups {
		names[l.Table]++
		if l.Table == tables.StackOps {
			// the one value entering below the frame
			require.Equal(t, execstate.TableGrow.String()+"/stack_enter[3]", l.Name)
			require.Len(t, l.Inputs, tables.StackOps.Arity())
		}
	}
	require.Equal(t, map[tables.ID]int{tables.TableOps: 1, tables.Range16: 1, tables.StackOps: 1}, names)
	require.LessOrEqual(t, cs.Degree(), expr.MaxDegree)
}

func TestOpcodeFlags(t *testing.T) {
	f := field.Default()
	_, _, cb := newTestBuilder(execstate.Local)
	flags := cb.RequireOpcodes(instruction.LocalGet, instruction.LocalSet, instruction.LocalTee)
	require.Len(t, flags.Cells, 3)

	region := layout.NewRegion(f, layout.Shape{Advice: 20}, 1)
	ok, err := flags.Assign(region, 0, instruction.I32Add)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, region.RowAssigned(0))

	ok, err = flags.Assign(region, 0, instruction.LocalSet)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, f.One(), region.Value(flags.Cells[1].Column, 0))
	v := region.Value(flags.Cells[0].Column, 0)
	require.True(t, v.IsZero())
	require.NotPanics(t, func() { flags.Any(instruction.LocalSet, instruction.LocalTee) })
	require.Panics(t, func() { flags.Flag(instruction.I32Add) })
}

func TestConfigurationMisuse(t *testing.T) {
	_, _, cb := newTestBuilder(execstate.Drop)
	require.Panics(t, func() { cb.Finalize() }, "no opcode")

	_, _, cb = newTestBuilder(execstate.Drop)
	require.Panics(t, func() { cb.RequireOpcode(instruction.I32Add) }, "opcode of another state")

	_, _, cb = newTestBuilder(execstate.Drop)
	require.Panics(t, func() { cb.StackCurr(4) }, "outside window")

	_, _, cb = newTestBuilder(execstate.Drop)
	c := cb.QueryCell()
	require.Panics(t, func() {
		for i := 0; i < 5; i++ {
			cb.StackPop(c.Expr())
		}
	})

	_, _, cb = newTestBuilder(execstate.Drop)
	cb.StackPop(cb.QueryCell().Expr())
	require.Panics(t, func() { cb.StackRewrite(expr.Expression{}) })

	_, _, cb = newTestBuilder(execstate.Drop)
	require.Panics(t, func() { cb.StackEnter(5, 0) }, "more pops than the window")

	_, _, cb = newTestBuilder(execstate.Bin)
	x := cb.QueryCell().Expr()
	require.Panics(t, func() {
		cb.Constrain("deg", cb.CS().Mul(x, x, x, x, x, x))
		cb.RequireOpcode(instruction.I32Add)
		cb.Finalize()
	})

	_, _, cb = newTestBuilder(execstate.Drop)
	cb.RequireOpcode(instruction.Drop)
	cb.Finalize()
	require.Panics(t, func() { cb.QueryCell() })
}

func TestConditionScalesConstraints(t *testing.T) {
	cs, _, cb := newTestBuilder(execstate.Padding)
	a, b := cb.QueryCell(), cb.QueryCell()
	cb.Condition(a.Expr(), func() {
		cb.ConstrainZero("b", b.Expr())
		cb.RangeCheck("b", b.Expr(), tables.Range8)
	})
	cb.NextPc(cb.Common().Pc.Expr())
	cb.Finalize()

	found := false
	for _, g := range cs.Gates {
		if g.Name == "PADDING/b" {
			found = true
			require.Equal(t, 3, g.Poly.Degree())
		}
	}
	require.True(t, found)
	require.Equal(t, 3, cs.Lookups[0].Inputs[0].Degree())
	require.Panics(t, func() { cb.RangeCheck("x", a.Expr(), tables.ByteOps) })
}

func TestBytesAndIsZero(t *testing.T) {
	f := field.Default()
	cs, _, cb := newTestBuilder(execstate.Unary)
	v := cb.QueryU32()
	z := cb.IsZero(v.Expr())
	require.Len(t, v.Cells, 4)

	region := layout.NewRegion(f, cs.Shape(), 1)
	require.NoError(t, v.Assign(region, 0, 0x01020304))
	require.Equal(t, f.FromInterface(4), region.Value(v.Cells[0].Column, 0))
	require.Equal(t, f.FromInterface(1), region.Value(v.Cells[3].Column, 0))
	require.NoError(t, z.Assign(region, 0, f.FromInterface(0x01020304)))
	inv := region.Value(z.inv.Column, 0)
	require.Equal(t, f.One(), f.Mul(inv, f.FromInterface(0x01020304)))
}
