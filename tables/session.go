package tables

import (
	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// Tags in the first slot of TableOps rows (tag, step, table, x, y, z).
const (
	// (TagGrow, step, table, init, delta, result)
	TagGrow uint64 = iota + 1
	// (TagSize, step, table, 0, 0, size)
	TagSize
	// (TagGet, step, table, index, 0, value)
	TagGet
	// (TagSet, step, table, index, value, 0)
	TagSet
)

// Tags in the first slot of GlobalOps rows (tag, step, global, value).
const (
	TagGlobalGet uint64 = iota + 1
	TagGlobalSet
)

// GrowFailed is what table.grow pushes when the table would exceed its max.
const GrowFailed trace.Value = 0xFFFFFFFF

// Row is a table tuple padded with zeros to MaxArity.
type Row [MaxArity]uint64

// Session is the table, global and stack state of one witness generation.
// It replays a trace in step order and records every table and global
// access as a row of TableOps or GlobalOps, and every stack value a step
// brings into its window from below as a row of StackOps. A Session is
// owned by one caller and is not safe for concurrent Run.
type Session struct {
	window  int
	tables  []*Elements
	globals []trace.Value
	stack   []trace.Value // bottom first
	rows    [numTables][]Row
	index   [numTables]map[Row]int
}

// NewSession starts from the state before the first step of tr, for stack
// windows of w slots.
func NewSession(tr *trace.Trace, w int) *Session {
	s := &Session{
		window:  w,
		tables:  make([]*Elements, len(tr.Tables)),
		globals: append([]trace.Value(nil), tr.Globals...),
		stack:   append([]trace.Value(nil), tr.Stack...),
	}
	for i, t := range tr.Tables {
		s.tables[i] = NewElements(t)
	}
	for _, id := range DynamicIDs() {
		s.index[id] = make(map[Row]int)
	}
	return s
}

// Run replays steps in order. Step i is recorded with step counter i. It
// fails with trace.ErrLookupMiss when a step claims a result the state does
// not produce, or touches a table or global that does not exist.
func (s *Session) Run(steps []trace.Step) error {
	for i := range steps {
		if err := s.apply(uint64(i), &steps[i]); err != nil {
			return err
		}
		if err := s.replayStack(uint64(i), &steps[i]); err != nil {
			return err
		}
	}
	return nil
}

// StackAddress is the key of a stack value in StackOps: its index from the
// bottom of the stack shifted by the window width, so that the zero slots
// a window shows below the bottom have addresses too.
func StackAddress(index int64, w int) uint64 {
	return uint64(index + int64(w))
}

// replayStack checks the values the step brings into its window from below
// against the replayed stack, records them, and takes the window after the
// step into the stack. Values inside both windows are left to the gadgets.
func (s *Session) replayStack(i uint64, step *trace.Step) error {
	w := s.window
	sp, next := int64(step.Curr.Depth), int64(step.Next.Depth)
	from := int64(w) + next - sp
	if from < 0 {
		from = 0
	}
	for j := from; j < int64(w); j++ {
		idx := next - 1 - j
		v, _ := step.Next.Nth(int(j))
		if idx >= 0 {
			if idx >= int64(len(s.stack)) {
				return step.Errorf(trace.ErrStackUnderflow, "stack slot %d at index %d above a stack of %d", j, idx, len(s.stack))
			}
			if want := s.stack[idx]; v != want {
				return step.Errorf(trace.ErrLookupMiss, "stack index %d holds %d, window slot %d claims %d", idx, want, j, v)
			}
		}
		s.record(StackOps, Row{i, StackAddress(idx, w), uint64(v)})
	}

	if next <= int64(len(s.stack)) {
		s.stack = s.stack[:next]
	} else {
		s.stack = append(s.stack, make([]trace.Value, next-int64(len(s.stack)))...)
	}
	for j := int64(0); j < int64(w) && j < int64(len(step.Next.Top)) && j < next; j++ {
		s.stack[next-1-j] = step.Next.Top[j]
	}
	return nil
}

func (s *Session) table(step *trace.Step) (*Elements, error) {
	ti := step.Instr.Imm
	if ti >= uint64(len(s.tables)) {
		return nil, step.Errorf(trace.ErrLookupMiss, "table %d does not exist", ti)
	}
	return s.tables[ti], nil
}

func (s *Session) apply(i uint64, step *trace.Step) error {
	imm := step.Instr.Imm
	switch step.Opcode() {
	case instruction.TableGrow:
		t, err := s.table(step)
		if err != nil {
			return err
		}
		init, err := step.CurrNthStackValue(0)
		if err != nil {
			return err
		}
		delta, err := step.CurrNthStackValue(1)
		if err != nil {
			return err
		}
		claimed, err := step.NextNthStackValue(0)
		if err != nil {
			return err
		}
		res := t.Grow(init, delta)
		if claimed != res {
			return step.Errorf(trace.ErrLookupMiss, "table.grow result %d, table state gives %d", claimed, res)
		}
		s.record(TableOps, Row{TagGrow, i, imm, uint64(init), uint64(delta), uint64(res)})
	case instruction.TableSize:
		t, err := s.table(step)
		if err != nil {
			return err
		}
		claimed, err := step.NextNthStackValue(0)
		if err != nil {
			return err
		}
		size := trace.Value(t.Len())
		if claimed != size {
			return step.Errorf(trace.ErrLookupMiss, "table.size result %d, table state gives %d", claimed, size)
		}
		s.record(TableOps, Row{TagSize, i, imm, 0, 0, uint64(size)})
	case instruction.TableGet:
		t, err := s.table(step)
		if err != nil {
			return err
		}
		idx, err := step.CurrNthStackValue(0)
		if err != nil {
			return err
		}
		claimed, err := step.NextNthStackValue(0)
		if err != nil {
			return err
		}
		v, ok := t.Get(uint64(idx))
		if !ok {
			return step.Errorf(trace.ErrLookupMiss, "table.get index %d out of %d", idx, t.Len())
		}
		if claimed != v {
			return step.Errorf(trace.ErrLookupMiss, "table.get result %d, table state gives %d", claimed, v)
		}
		s.record(TableOps, Row{TagGet, i, imm, uint64(idx), 0, uint64(claimed)})
	case instruction.TableSet:
		t, err := s.table(step)
		if err != nil {
			return err
		}
		val, err := step.CurrNthStackValue(0)
		if err != nil {
			return err
		}
		idx, err := step.CurrNthStackValue(1)
		if err != nil {
			return err
		}
		if !t.Set(uint64(idx), val) {
			return step.Errorf(trace.ErrLookupMiss, "table.set index %d out of %d", idx, t.Len())
		}
		s.record(TableOps, Row{TagSet, i, imm, uint64(idx), uint64(val), 0})
	case instruction.GlobalGet:
		if imm >= uint64(len(s.globals)) {
			return step.Errorf(trace.ErrLookupMiss, "global %d does not exist", imm)
		}
		claimed, err := step.NextNthStackValue(0)
		if err != nil {
			return err
		}
		if claimed != s.globals[imm] {
			return step.Errorf(trace.ErrLookupMiss, "global.get result %d, global state gives %d", claimed, s.globals[imm])
		}
		s.record(GlobalOps, Row{TagGlobalGet, i, imm, uint64(claimed)})
	case instruction.GlobalSet:
		if imm >= uint64(len(s.globals)) {
			return step.Errorf(trace.ErrLookupMiss, "global %d does not exist", imm)
		}
		val, err := step.CurrNthStackValue(0)
		if err != nil {
			return err
		}
		s.globals[imm] = val
		s.record(GlobalOps, Row{TagGlobalSet, i, imm, uint64(val)})
	}
	return nil
}

func (s *Session) record(id ID, r Row) {
	if _, ok := s.index[id][r]; !ok {
		s.index[id][r] = len(s.rows[id])
		s.rows[id] = append(s.rows[id], r)
	}
}

// Rows returns the recorded rows of a dynamic table in step order.
func (s *Session) Rows(id ID) []Row {
	return s.rows[id]
}

// Global returns the current value of global g.
func (s *Session) Global(g int) trace.Value {
	return s.globals[g]
}

// TableSize returns the current size of table t.
func (s *Session) TableSize(t int) uint64 {
	return s.tables[t].Len()
}

// TableElement returns element i of table t.
func (s *Session) TableElement(t int, i uint64) (trace.Value, bool) {
	return s.tables[t].Get(i)
}

// Table returns the table with the given id, backed by this session for
// dynamic tables.
func (s *Session) Table(id ID) Table {
	if t := Fixed(id); t != nil {
		return t
	}
	return sessionTable{s: s, id: id}
}

type sessionTable struct {
	s  *Session
	id ID
}

func (t sessionTable) ID() ID {
	return t.id
}

func (t sessionTable) Contains(f field.Field, tuple []constraint.Element) bool {
	if len(tuple) != t.id.Arity() {
		return false
	}
	if allZero(tuple) {
		return true
	}
	v, ok := toU64s(f, tuple)
	if !ok {
		return false
	}
	var r Row
	copy(r[:], v)
	_, found := t.s.index[t.id][r]
	return found
}
