package tables

import (
	"testing"

	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

func elems(f field.Field, vs ...uint64) []constraint.Element {
	res := make([]constraint.Element, len(vs))
	for i, v := range vs {
		res[i] = f.FromInterface(v)
	}
	return res
}

func TestFixedTables(t *testing.T) {
	f := field.Default()
	r8, r16, bops := Fixed(Range8), Fixed(Range16), Fixed(ByteOps)

	require.True(t, r8.Contains(f, elems(f, 255)))
	require.False(t, r8.Contains(f, elems(f, 256)))
	require.True(t, r16.Contains(f, elems(f, 65535)))
	require.False(t, r16.Contains(f, elems(f, 65536)))
	require.False(t, r16.Contains(f, []constraint.Element{f.Neg(f.One())}))

	cases := []struct {
		tuple []uint64
		ok    bool
	}{
		{[]uint64{uint64(ByteAnd), 0xf0, 0x3c, 0x30}, true},
		{[]uint64{uint64(ByteOr), 0xf0, 0x3c, 0xfc}, true},
		{[]uint64{uint64(ByteXor), 0xf0, 0x3c, 0xcc}, true},
		{[]uint64{uint64(BytePopcnt), 0xf1, 0, 5}, true},
		{[]uint64{uint64(BytePopcnt), 0xf1, 1, 5}, false},
		{[]uint64{uint64(ByteMsb), 0x80, 0, 1}, true},
		{[]uint64{uint64(ByteMsb), 0x7f, 0, 1}, false},
		{[]uint64{uint64(ByteAnd), 0x100, 0, 0}, false},
		{[]uint64{9, 1, 1, 1}, false},
		{[]uint64{0, 0, 0, 0}, true},
	}
	for _, c := range cases {
		require.Equal(t, c.ok, bops.Contains(f, elems(f, c.tuple...)), "%v", c.tuple)
	}
	for _, id := range DynamicIDs() {
		require.Nil(t, Fixed(id))
		require.True(t, id.Dynamic())
	}
}

func growTrace(max uint32, claimed trace.Value) *trace.Trace {
	return &trace.Trace{
		Tables: []trace.Table{{Elements: []trace.Value{0}, Max: max}},
		Steps: []trace.Step{{
			Instr: instruction.New(instruction.TableGrow, 0),
			Curr:  trace.Window{Depth: 2, Top: []trace.Value{2, 2}},
			Next:  trace.Window{Depth: 1, Top: []trace.Value{claimed}},
		}},
	}
}

func TestSessionTableGrow(t *testing.T) {
	f := field.Default()

	tr := growTrace(10, 1)
	s := NewSession(tr, 6)
	require.NoError(t, s.Run(tr.Steps))
	require.Equal(t, uint64(3), s.TableSize(0))
	require.Equal(t, []Row{{TagGrow, 0, 0, 2, 2, 1}}, s.Rows(TableOps))

	ops := s.Table(TableOps)
	require.True(t, ops.Contains(f, elems(f, TagGrow, 0, 0, 2, 2, 1)))
	require.False(t, ops.Contains(f, elems(f, TagGrow, 0, 0, 2, 2, 2)))
	require.False(t, ops.Contains(f, elems(f, TagGrow, 1, 0, 2, 2, 1)))
	require.True(t, ops.Contains(f, elems(f, 0, 0, 0, 0, 0, 0)))
	require.False(t, ops.Contains(f, elems(f, TagGrow, 0, 0)))
}

func TestSessionTableGrowBeyondMax(t *testing.T) {
	f := field.Default()

	tr := growTrace(2, GrowFailed)
	s := NewSession(tr, 6)
	require.NoError(t, s.Run(tr.Steps))
	require.Equal(t, uint64(1), s.TableSize(0))
	ops := s.Table(TableOps)
	require.True(t, ops.Contains(f, elems(f, TagGrow, 0, 0, 2, 2, uint64(GrowFailed))))
	require.False(t, ops.Contains(f, elems(f, TagGrow, 0, 0, 2, 2, 1)))

	tr = growTrace(2, 1)
	require.ErrorIs(t, NewSession(tr, 6).Run(tr.Steps), trace.ErrLookupMiss)
}

func TestSessionGlobalsAndElements(t *testing.T) {
	tr := &trace.Trace{
		Globals: []trace.Value{5},
		Tables:  []trace.Table{{Elements: []trace.Value{0, 0}, Max: 4}},
		Steps: []trace.Step{
			{
				Instr: instruction.New(instruction.GlobalSet, 0),
				Curr:  trace.Window{Depth: 1, Top: []trace.Value{9}},
				Next:  trace.Window{Depth: 0},
			},
			{
				Instr: instruction.New(instruction.GlobalGet, 0),
				Curr:  trace.Window{Depth: 0},
				Next:  trace.Window{Depth: 1, Top: []trace.Value{9}},
			},
			{
				Instr: instruction.New(instruction.TableSet, 0),
				Curr:  trace.Window{Depth: 3, Top: []trace.Value{7, 1, 9}},
				Next:  trace.Window{Depth: 1, Top: []trace.Value{9}},
			},
			{
				Instr: instruction.New(instruction.TableGet, 0),
				Curr:  trace.Window{Depth: 2, Top: []trace.Value{1, 9}},
				Next:  trace.Window{Depth: 2, Top: []trace.Value{7, 9}},
			},
			{
				Instr: instruction.New(instruction.TableSize, 0),
				Curr:  trace.Window{Depth: 2, Top: []trace.Value{7, 9}},
				Next:  trace.Window{Depth: 3, Top: []trace.Value{2, 7, 9}},
			},
		},
	}
	s := NewSession(tr, 6)
	require.NoError(t, s.Run(tr.Steps))
	require.Equal(t, trace.Value(9), s.Global(0))
	require.Equal(t, []Row{{TagGlobalSet, 0, 0, 9}, {TagGlobalGet, 1, 0, 9}}, s.Rows(GlobalOps))
	require.Equal(t, []Row{{TagSet, 2, 0, 1, 7, 0}, {TagGet, 3, 0, 1, 0, 7}, {TagSize, 4, 0, 0, 0, 2}}, s.Rows(TableOps))

	bad := *tr
	bad.Steps = append([]trace.Step(nil), tr.Steps...)
	bad.Steps[1].Next.Top = []trace.Value{5}
	require.ErrorIs(t, NewSession(&bad, 6).Run(bad.Steps), trace.ErrLookupMiss)

	bad.Steps = []trace.Step{{
		Instr: instruction.New(instruction.TableGet, 3),
		Curr:  trace.Window{Depth: 1, Top: []trace.Value{0}},
		Next:  trace.Window{Depth: 1, Top: []trace.Value{0}},
	}}
	require.ErrorIs(t, NewSession(&bad, 6).Run(bad.Steps), trace.ErrLookupMiss)

	bad.Steps = []trace.Step{{
		Instr: instruction.New(instruction.GlobalSet, 0),
		Curr:  trace.Window{Depth: 0},
	}}
	require.ErrorIs(t, NewSession(&bad, 6).Run(bad.Steps), trace.ErrStackUnderflow)
}

func TestSessionLargeGrow(t *testing.T) {
	const delta = 1 << 31
	tr := &trace.Trace{
		Tables: []trace.Table{{Elements: []trace.Value{4}, Max: 0xFFFFFFFF}},
		Steps: []trace.Step{
			{
				Instr: instruction.New(instruction.TableGrow, 0),
				Curr:  trace.Window{Depth: 2, Top: []trace.Value{9, delta}},
				Next:  trace.Window{Depth: 1, Top: []trace.Value{1}},
			},
			{
				Instr: instruction.New(instruction.TableGrow, 0),
				Curr:  trace.Window{Depth: 2, Top: []trace.Value{3, delta}},
				Next:  trace.Window{Depth: 1, Top: []trace.Value{GrowFailed}},
			},
			{
				Instr: instruction.New(instruction.TableSet, 0),
				Curr:  trace.Window{Depth: 2, Top: []trace.Value{5, 1 << 30}},
				Next:  trace.Window{Depth: 0},
			},
			{
				Instr: instruction.New(instruction.TableGet, 0),
				Curr:  trace.Window{Depth: 1, Top: []trace.Value{delta}},
				Next:  trace.Window{Depth: 1, Top: []trace.Value{9}},
			},
		},
	}
	s := NewSession(tr, 6)
	require.NoError(t, s.Run(tr.Steps))
	require.Equal(t, uint64(delta+1), s.TableSize(0))

	for _, c := range []struct {
		i uint64
		v trace.Value
	}{{0, 4}, {1, 9}, {1 << 30, 5}, {1<<30 + 1, 9}, {delta, 9}} {
		v, ok := s.TableElement(0, c.i)
		require.True(t, ok, "index %d", c.i)
		require.Equal(t, c.v, v, "index %d", c.i)
	}
	_, ok := s.TableElement(0, delta+1)
	require.False(t, ok)
}

func TestElements(t *testing.T) {
	e := NewElements(trace.Table{Elements: []trace.Value{1, 2}, Max: 10})
	require.Equal(t, trace.Value(2), e.Grow(7, 3))
	require.Equal(t, trace.Value(5), e.Grow(8, 0))
	require.Equal(t, trace.Value(5), e.Grow(8, 2))
	require.Equal(t, GrowFailed, e.Grow(9, 4))
	require.Equal(t, uint64(7), e.Len())
	require.True(t, e.Set(3, 0))
	require.False(t, e.Set(7, 0))

	var got []trace.Value
	for i := uint64(0); i < e.Len(); i++ {
		v, ok := e.Get(i)
		require.True(t, ok)
		got = append(got, v)
	}
	require.Equal(t, []trace.Value{1, 2, 7, 0, 7, 8, 8}, got)
}

// pops runs Drop steps over an initial stack of n values 1..n with
// windows of w slots.
func pops(n, drops, w int) *trace.Trace {
	tr := &trace.Trace{}
	for i := 1; i <= n; i++ {
		tr.Stack = append(tr.Stack, trace.Value(i))
	}
	window := func(depth int) trace.Window {
		win := trace.Window{Depth: uint64(depth)}
		for j := 0; j < w && j < depth; j++ {
			win.Top = append(win.Top, tr.Stack[depth-1-j])
		}
		return win
	}
	for k := 0; k < drops; k++ {
		tr.Steps = append(tr.Steps, trace.Step{
			Pc:    uint64(k),
			Instr: instruction.New(instruction.Drop, 0),
			Curr:  window(n - k),
			Next:  window(n - k - 1),
		})
	}
	return tr
}

func TestSessionStackEntries(t *testing.T) {
	f := field.Default()

	tr := pops(8, 3, 6)
	s := NewSession(tr, 6)
	require.NoError(t, s.Run(tr.Steps))
	// each drop brings one value into slot 5
	require.Equal(t, []Row{
		{0, StackAddress(1, 6), 2},
		{1, StackAddress(0, 6), 1},
		{2, StackAddress(-1, 6), 0},
	}, s.Rows(StackOps))

	ops := s.Table(StackOps)
	require.True(t, ops.Contains(f, elems(f, 0, StackAddress(1, 6), 2)))
	require.False(t, ops.Contains(f, elems(f, 0, StackAddress(1, 6), 3)))
	require.False(t, ops.Contains(f, elems(f, 1, StackAddress(1, 6), 2)))
	require.True(t, ops.Contains(f, elems(f, 0, 0, 0)))
}

func TestSessionForgedStackEntry(t *testing.T) {
	tr := pops(7, 2, 6)
	tr.Steps[0].Next.Top[5] = 999
	tr.Steps[1].Curr.Top[5] = 999
	tr.Steps[1].Next.Top[4] = 999
	require.ErrorIs(t, NewSession(tr, 6).Run(tr.Steps), trace.ErrLookupMiss)

	// the window carries deeper values, unchecked past w slots
	tr = pops(9, 1, 8)
	tr.Steps[0].Next.Top[7] = 999
	require.NoError(t, NewSession(tr, 6).Run(tr.Steps))
	require.ErrorIs(t, NewSession(tr, 8).Run(tr.Steps), trace.ErrLookupMiss)

	tr = pops(7, 1, 6)
	tr.Stack = nil
	require.ErrorIs(t, NewSession(tr, 6).Run(tr.Steps), trace.ErrStackUnderflow)
}
