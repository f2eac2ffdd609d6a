package opcodes_test

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/checker"
	"github.com/PolyhedraZK/rwasm-zkcircuit/circuit"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/opcodes"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/test"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

func newAssert(t *testing.T) *test.Assert {
	return test.NewAssert(t, circuit.WithDegree(7), circuit.WithLogger(zerolog.Nop()))
}

func TestGadgetsCoverStates(t *testing.T) {
	gadgets := opcodes.Gadgets()
	require.Len(t, gadgets, len(execstate.All()))
	for _, op := range execstate.Supported() {
		s, ok := execstate.Of(op)
		require.True(t, ok)
		require.Contains(t, gadgets, s, op.String())
	}
}

func TestIllegalOpcode(t *testing.T) {
	c := newAssert(t).Circuit()
	region := layout.NewRegion(c.Field, c.CS.Shape(), c.Rows())
	window := trace.Window{Depth: 3, Top: []trace.Value{1, 2, 3}}
	for _, s := range execstate.All() {
		g := c.Gadget(s)
		for _, op := range execstate.Supported() {
			if owner, _ := execstate.Of(op); owner == s {
				continue
			}
			step := &trace.Step{Instr: instruction.New(op, 1), Curr: window, Next: window}
			err := g.AssignExecStep(region, 0, step)
			require.ErrorIs(t, err, trace.ErrIllegalOpcode, "%s given %s", s, op)
			var gerr *trace.GadgetError
			require.ErrorAs(t, err, &gerr)
			require.Equal(t, s.String(), gerr.State)
		}
	}
	require.False(t, region.RowAssigned(0))
}

func TestUnderflowLeavesRowUntouched(t *testing.T) {
	c := newAssert(t).Circuit()
	region := layout.NewRegion(c.Field, c.CS.Shape(), c.Rows())
	one := trace.Window{Depth: 1, Top: []trace.Value{7}}
	for _, op := range []instruction.Opcode{
		instruction.I32Add, instruction.I64LtS, instruction.Select, instruction.TableGrow,
		instruction.TableSet, instruction.LocalSet,
	} {
		s, _ := execstate.Of(op)
		imm := uint64(0)
		if op == instruction.LocalSet {
			imm = 1
		}
		step := &trace.Step{Instr: instruction.New(op, imm), Curr: one, Next: trace.Window{Depth: 1, Top: []trace.Value{0}}}
		err := c.Gadget(s).AssignExecStep(region, 0, step)
		require.ErrorIs(t, err, trace.ErrStackUnderflow, op.String())
		require.False(t, region.RowAssigned(0), op.String())
	}
}

func TestNextPc(t *testing.T) {
	step := func(op instruction.Opcode, imm uint64, top ...trace.Value) *trace.Step {
		return &trace.Step{Pc: 10, Instr: instruction.New(op, imm), Curr: trace.Window{Depth: uint64(len(top)), Top: top}}
	}
	minus3 := uint64(0xFFFFFFFFFFFFFFFD)
	require.Equal(t, uint64(7), opcodes.NextPc(step(instruction.Br, minus3)))
	require.Equal(t, uint64(14), opcodes.NextPc(step(instruction.BrIfEqz, 4, 0)))
	require.Equal(t, uint64(11), opcodes.NextPc(step(instruction.BrIfEqz, 4, 1)))
	require.Equal(t, uint64(14), opcodes.NextPc(step(instruction.BrIfNez, 4, 9)))
	require.Equal(t, uint64(11), opcodes.NextPc(step(instruction.BrIfNez, 4, 0)))
	require.Equal(t, uint64(11), opcodes.NextPc(step(instruction.I32Add, 0, 1, 2)))
}

var operands32 = [][2]trace.Value{
	{0, 0}, {1, 2}, {0xFFFFFFFF, 1}, {0x80000000, 0x7FFFFFFF}, {0x12345678, 0x12345678}, {5, 0xFFFFFFFB},
}

var operands64 = [][2]trace.Value{
	{0, 0}, {1, 2}, {0xFFFFFFFFFFFFFFFF, 1}, {1 << 63, 1<<63 - 1}, {0xDEADBEEFCAFEBABE, 0xDEADBEEFCAFEBABE},
	{0x100000000, 0xFFFFFFFF},
}

func TestBinaryAndRelational(t *testing.T) {
	a := newAssert(t)
	for _, s := range []execstate.ExecutionState{execstate.Bin, execstate.Rel} {
		for _, op := range execstate.Opcodes(s) {
			operands := operands32
			if op.Is64() {
				operands = operands64
			}
			t.Run(op.String(), func(t *testing.T) {
				tr := a.Record(func(r *test.Recorder) {
					for _, ab := range operands {
						r.Exec(instruction.I64Const, uint64(ab[0])).
							Exec(instruction.I64Const, uint64(ab[1])).
							Exec(op, 0).
							Exec(instruction.Drop, 0)
					}
				})
				a.TraceSucceeded(tr)
			})
		}
	}
}

func TestUnaryAndConversion(t *testing.T) {
	a := newAssert(t)
	values32 := []trace.Value{0, 1, 0x7F, 0x80, 0xFF, 0x8000, 0x7FFF_FFFF, 0x8000_0000, 0xFFFF_FFFF}
	values64 := append([]trace.Value{0x1_0000_0000, 0xFFFF_FFFF_FFFF_FFFF, 1 << 63}, values32...)
	narrow := map[instruction.Opcode]bool{
		instruction.I32Eqz: true, instruction.I32Popcnt: true, instruction.I64ExtendI32S: true,
		instruction.I64ExtendI32U: true, instruction.I32Extend8S: true, instruction.I32Extend16S: true,
	}
	for _, s := range []execstate.ExecutionState{execstate.Unary, execstate.Conversion} {
		for _, op := range execstate.Opcodes(s) {
			values := values64
			if narrow[op] {
				values = values32
			}
			t.Run(op.String(), func(t *testing.T) {
				tr := a.Record(func(r *test.Recorder) {
					for _, v := range values {
						r.Exec(instruction.I64Const, uint64(v)).Exec(op, 0).Exec(instruction.Drop, 0)
					}
				})
				a.TraceSucceeded(tr)
			})
		}
	}
}

func TestLocals(t *testing.T) {
	a := newAssert(t)
	w := a.Circuit().StackWindow
	for d := 1; d <= w; d++ {
		for _, op := range execstate.Opcodes(execstate.Local) {
			t.Run(fmt.Sprintf("%s/%d", op, d), func(t *testing.T) {
				tr := a.Record(func(r *test.Recorder) {
					for i := 0; i <= w+1; i++ {
						r.Push(trace.Value(100 + i))
					}
					r.Exec(instruction.I32Const, 7).Exec(op, uint64(d)).Exec(instruction.Drop, 0)
				})
				if op == instruction.LocalSet && d == w {
					// the target is the first slot below the window
					require.ErrorIs(t, a.TraceFailed(tr), trace.ErrLookupMiss)
					c := a.Circuit()
					region := layout.NewRegion(c.Field, c.CS.Shape(), c.Rows())
					err := c.Gadget(execstate.Local).AssignExecStep(region, 1, &tr.Steps[1])
					require.ErrorIs(t, err, trace.ErrStackUnderflow)
					require.False(t, region.RowAssigned(1))
					return
				}
				a.TraceSucceeded(tr)
			})
		}
	}
}

func TestTamperedLocalGet(t *testing.T) {
	a := newAssert(t)
	tr := a.Record(func(r *test.Recorder) {
		r.Push(1, 2, 3).Exec(instruction.LocalGet, 3)
	})
	tr.Steps[0].Next.Top[0] = 2
	require.Error(t, a.TraceFailed(tr))
}

func TestSelectBothWays(t *testing.T) {
	a := newAssert(t)
	tr := a.Record(func(r *test.Recorder) {
		r.Push(10, 20, 0).Exec(instruction.Select, 0)
		r.Exec(instruction.I32Const, 30).Exec(instruction.I32Const, 5).Exec(instruction.Select, 0)
		require.Equal(t, []trace.Value{20}, r.Stack())
	})
	a.TraceSucceeded(tr)

	tr.Steps[0].Next.Top[0] = 10
	tr.Steps[1].Curr.Top[0] = 10
	require.Error(t, a.TraceFailed(tr))
}

func TestTableGrowBeyondMax(t *testing.T) {
	a := newAssert(t)
	record := func() *trace.Trace {
		return a.Record(func(r *test.Recorder) {
			ti := r.Table(2, 1)
			r.Exec(instruction.I32Const, 2).Exec(instruction.I32Const, 0).Exec(instruction.TableGrow, uint64(ti))
			require.Equal(t, []trace.Value{trace.Value(tables.GrowFailed)}, r.Stack())
		})
	}
	a.TraceSucceeded(record())

	tr := record()
	tr.Steps[2].Next.Top[0] = 1
	_, err := a.Circuit().Assign(tr)
	require.ErrorIs(t, err, trace.ErrLookupMiss)

	// A witness claiming the grow succeeded is not a TableOps row.
	c := a.Circuit()
	failed, err := field.FromU64(c.Field, uint64(tables.GrowFailed))
	require.NoError(t, err)
	one, err := field.FromU64(c.Field, 1)
	require.NoError(t, err)
	err = a.TamperFailed(record(), func(asg *circuit.Assignment) {
		// the result cell and the pushed slot hold the sentinel
		for _, col := range c.CS.Advice {
			if asg.Witness.Value(col, 2) == failed {
				asg.Witness.Set(col, 2, one)
			}
		}
		asg.Witness.Set(c.Common.StackCurr[0].Column, 3, one)
	})
	_, lookups := checker.Failures(err)
	found := false
	for _, l := range lookups {
		if l.Lookup == execstate.TableGrow.String()+"/table_grow" {
			require.Equal(t, 2, l.Row)
			require.Equal(t, tables.TableOps, l.Table)
			found = true
		}
	}
	require.True(t, found, "table_grow lookup accepted a non-sentinel result")
	require.ErrorIs(t, err, trace.ErrLookupMiss)
}

func TestConstValues(t *testing.T) {
	a := newAssert(t)
	tr := a.Record(func(r *test.Recorder) {
		for _, op := range execstate.Opcodes(execstate.Const) {
			r.Exec(op, 0xFFFF_FFFF).Exec(op, 0)
		}
		r.Exec(instruction.I64Const, 0xFFFF_FFFF_FFFF_FFFF)
	})
	a.TraceSucceeded(tr)

	tr.Steps[0].Next.Top[0] = 1
	tr.Steps[1].Curr.Top[0] = 1
	tr.Steps[1].Next.Top[1] = 1
	tr.Steps[2].Curr.Top[1] = 1
	require.Error(t, a.TraceFailed(tr))
}
