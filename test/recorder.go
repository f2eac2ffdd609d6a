package test

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// Recorder executes rwasm instructions on a small in-memory machine and
// records the trace the circuit expects, with windows of w slots.
type Recorder struct {
	w       int
	pc      uint64
	stack   []trace.Value // bottom first
	globals []trace.Value
	tables  []*tables.Elements
	tr      trace.Trace
	started bool
	err     error
}

func NewRecorder(w int) *Recorder {
	return &Recorder{w: w}
}

// Push seeds the stack before the first step.
func (r *Recorder) Push(vs ...trace.Value) *Recorder {
	if r.started {
		r.fail(errors.New("push after the first step"))
		return r
	}
	r.stack = append(r.stack, vs...)
	r.tr.Stack = append(r.tr.Stack, vs...)
	return r
}

// Global declares a global with its initial value and returns its index.
func (r *Recorder) Global(v trace.Value) int {
	r.globals = append(r.globals, v)
	r.tr.Globals = append(r.tr.Globals, v)
	return len(r.globals) - 1
}

// Table declares a table with its initial elements and returns its index.
func (r *Recorder) Table(max uint32, elements ...trace.Value) int {
	t := trace.Table{Elements: append([]trace.Value(nil), elements...), Max: max}
	r.tables = append(r.tables, tables.NewElements(t))
	r.tr.Tables = append(r.tr.Tables, t)
	return len(r.tables) - 1
}

// Roots sets the state roots carried as public inputs.
func (r *Recorder) Roots(before, after [32]byte) *Recorder {
	r.tr.StateRootBefore, r.tr.StateRootAfter = before, after
	return r
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Recorder) window() trace.Window {
	n := len(r.stack)
	if n > r.w {
		n = r.w
	}
	top := make([]trace.Value, n)
	for i := range top {
		top[i] = r.stack[len(r.stack)-1-i]
	}
	return trace.Window{Depth: uint64(len(r.stack)), Top: top}
}

func (r *Recorder) pop() trace.Value {
	if len(r.stack) == 0 {
		panic(trace.ErrStackUnderflow)
	}
	v := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return v
}

func (r *Recorder) push(v trace.Value) {
	r.stack = append(r.stack, v)
}

// Exec runs one instruction and records its step. The first failure sticks
// and is returned by Trace.
func (r *Recorder) Exec(op instruction.Opcode, imm uint64) *Recorder {
	if r.err != nil {
		return r
	}
	r.started = true
	step := trace.Step{Pc: r.pc, Instr: instruction.New(op, imm), Curr: r.window()}
	saved := append([]trace.Value(nil), r.stack...)
	nextPc, err := r.run(step.Instr)
	if err != nil {
		r.stack = saved
		r.fail(fmt.Errorf("pc %d %s: %w", r.pc, step.Instr, err))
		return r
	}
	step.Next = r.window()
	r.tr.Steps = append(r.tr.Steps, step)
	r.pc = nextPc
	return r
}

// Trap records a step that did not complete.
func (r *Recorder) Trap(op instruction.Opcode, imm uint64, exitCode int32) *Recorder {
	w := r.window()
	r.tr.Steps = append(r.tr.Steps, trace.Step{Pc: r.pc, Instr: instruction.New(op, imm), Curr: w, Next: w, ExitCode: exitCode})
	return r
}

// Trace returns the recorded trace.
func (r *Recorder) Trace() (*trace.Trace, error) {
	if r.err != nil {
		return nil, r.err
	}
	tr := r.tr
	tr.Steps = append([]trace.Step(nil), r.tr.Steps...)
	return &tr, nil
}

// Stack returns the current stack, top first.
func (r *Recorder) Stack() []trace.Value {
	res := make([]trace.Value, len(r.stack))
	for i := range res {
		res[i] = r.stack[len(r.stack)-1-i]
	}
	return res
}

func (r *Recorder) run(in instruction.Instruction) (pc uint64, err error) {
	defer func() {
		if e := recover(); e != nil {
			if e != trace.ErrStackUnderflow {
				panic(e)
			}
			err = trace.ErrStackUnderflow
		}
	}()
	pc = r.pc + 1
	imm := in.Imm
	switch op := in.Opcode; op {
	case instruction.I32Const, instruction.I64Const, instruction.F32Const, instruction.F64Const, instruction.RefFunc:
		r.push(trace.Value(imm))
	case instruction.Drop:
		r.pop()
	case instruction.Select:
		cond, v2, v1 := r.pop(), r.pop(), r.pop()
		if cond != 0 {
			r.push(v1)
		} else {
			r.push(v2)
		}
	case instruction.LocalGet:
		if imm == 0 || imm > uint64(len(r.stack)) {
			return 0, trace.ErrStackUnderflow
		}
		r.push(r.stack[len(r.stack)-int(imm)])
	case instruction.LocalSet:
		v := r.pop()
		if imm == 0 || imm > uint64(len(r.stack)) {
			return 0, trace.ErrStackUnderflow
		}
		r.stack[len(r.stack)-int(imm)] = v
	case instruction.LocalTee:
		if imm == 0 || imm > uint64(len(r.stack)) {
			return 0, trace.ErrStackUnderflow
		}
		r.stack[len(r.stack)-int(imm)] = r.stack[len(r.stack)-1]
	case instruction.GlobalGet:
		if imm >= uint64(len(r.globals)) {
			return 0, fmt.Errorf("global %d does not exist", imm)
		}
		r.push(r.globals[imm])
	case instruction.GlobalSet:
		if imm >= uint64(len(r.globals)) {
			return 0, fmt.Errorf("global %d does not exist", imm)
		}
		r.globals[imm] = r.pop()
	case instruction.TableGrow, instruction.TableSize, instruction.TableGet, instruction.TableSet:
		if imm >= uint64(len(r.tables)) {
			return 0, fmt.Errorf("table %d does not exist", imm)
		}
		if err := r.tableOp(op, r.tables[imm]); err != nil {
			return 0, err
		}
	case instruction.Br:
		pc = uint64(int64(r.pc) + in.BranchOffset())
	case instruction.BrIfEqz, instruction.BrIfNez:
		cond := r.pop()
		if (cond == 0) == (op == instruction.BrIfEqz) {
			pc = uint64(int64(r.pc) + in.BranchOffset())
		}
	case instruction.I32Eqz, instruction.I64Eqz:
		r.push(boolValue(r.pop() == 0))
	case instruction.I32Popcnt, instruction.I64Popcnt:
		r.push(trace.Value(bits.OnesCount64(uint64(r.pop()))))
	default:
		if f, ok := binary[op]; ok {
			b, a := r.pop(), r.pop()
			r.push(trace.Value(f(uint64(a), uint64(b))))
			return pc, nil
		}
		if f, ok := unary[op]; ok {
			r.push(trace.Value(f(uint64(r.pop()))))
			return pc, nil
		}
		return 0, fmt.Errorf("%w: %s", trace.ErrIllegalOpcode, op)
	}
	return pc, nil
}

// tableOp pops the operands in the order the circuit reads them: the value
// on top, the index or count below it.
func (r *Recorder) tableOp(op instruction.Opcode, t *tables.Elements) error {
	switch op {
	case instruction.TableGrow:
		init, delta := r.pop(), r.pop()
		r.push(t.Grow(init, delta))
	case instruction.TableSize:
		r.push(trace.Value(t.Len()))
	case instruction.TableGet:
		idx := r.pop()
		v, ok := t.Get(uint64(idx))
		if !ok {
			return fmt.Errorf("table.get index %d out of %d", idx, t.Len())
		}
		r.push(v)
	case instruction.TableSet:
		val, idx := r.pop(), r.pop()
		if !t.Set(uint64(idx), val) {
			return fmt.Errorf("table.set index %d out of %d", idx, t.Len())
		}
	}
	return nil
}

func boolValue(b bool) trace.Value {
	if b {
		return 1
	}
	return 0
}

func b2u(b bool) uint64 {
	return uint64(boolValue(b))
}

const mask32 = 1<<32 - 1

var binary = map[instruction.Opcode]func(a, b uint64) uint64{
	instruction.I32Add: func(a, b uint64) uint64 { return (a + b) & mask32 },
	instruction.I32Sub: func(a, b uint64) uint64 { return (a - b) & mask32 },
	instruction.I32Mul: func(a, b uint64) uint64 { return (a * b) & mask32 },
	instruction.I32And: func(a, b uint64) uint64 { return a & b },
	instruction.I32Or:  func(a, b uint64) uint64 { return a | b },
	instruction.I32Xor: func(a, b uint64) uint64 { return a ^ b },
	instruction.I64Add: func(a, b uint64) uint64 { return a + b },
	instruction.I64Sub: func(a, b uint64) uint64 { return a - b },
	instruction.I64Mul: func(a, b uint64) uint64 { return a * b },
	instruction.I64And: func(a, b uint64) uint64 { return a & b },
	instruction.I64Or:  func(a, b uint64) uint64 { return a | b },
	instruction.I64Xor: func(a, b uint64) uint64 { return a ^ b },

	instruction.I32Eq:  func(a, b uint64) uint64 { return b2u(a == b) },
	instruction.I32Ne:  func(a, b uint64) uint64 { return b2u(a != b) },
	instruction.I32LtS: func(a, b uint64) uint64 { return b2u(int32(a) < int32(b)) },
	instruction.I32LtU: func(a, b uint64) uint64 { return b2u(uint32(a) < uint32(b)) },
	instruction.I32GtS: func(a, b uint64) uint64 { return b2u(int32(a) > int32(b)) },
	instruction.I32GtU: func(a, b uint64) uint64 { return b2u(uint32(a) > uint32(b)) },
	instruction.I32LeS: func(a, b uint64) uint64 { return b2u(int32(a) <= int32(b)) },
	instruction.I32LeU: func(a, b uint64) uint64 { return b2u(uint32(a) <= uint32(b)) },
	instruction.I32GeS: func(a, b uint64) uint64 { return b2u(int32(a) >= int32(b)) },
	instruction.I32GeU: func(a, b uint64) uint64 { return b2u(uint32(a) >= uint32(b)) },
	instruction.I64Eq:  func(a, b uint64) uint64 { return b2u(a == b) },
	instruction.I64Ne:  func(a, b uint64) uint64 { return b2u(a != b) },
	instruction.I64LtS: func(a, b uint64) uint64 { return b2u(int64(a) < int64(b)) },
	instruction.I64LtU: func(a, b uint64) uint64 { return b2u(a < b) },
	instruction.I64GtS: func(a, b uint64) uint64 { return b2u(int64(a) > int64(b)) },
	instruction.I64GtU: func(a, b uint64) uint64 { return b2u(a > b) },
	instruction.I64LeS: func(a, b uint64) uint64 { return b2u(int64(a) <= int64(b)) },
	instruction.I64LeU: func(a, b uint64) uint64 { return b2u(a <= b) },
	instruction.I64GeS: func(a, b uint64) uint64 { return b2u(int64(a) >= int64(b)) },
	instruction.I64GeU: func(a, b uint64) uint64 { return b2u(a >= b) },
}

var unary = map[instruction.Opcode]func(a uint64) uint64{
	instruction.I32WrapI64:    func(a uint64) uint64 { return a & mask32 },
	instruction.I64ExtendI32S: func(a uint64) uint64 { return uint64(int64(int32(a))) },
	instruction.I64ExtendI32U: func(a uint64) uint64 { return a & mask32 },
	instruction.I32Extend8S:   func(a uint64) uint64 { return uint64(uint32(int32(int8(a)))) },
	instruction.I32Extend16S:  func(a uint64) uint64 { return uint64(uint32(int32(int16(a)))) },
	instruction.I64Extend8S:   func(a uint64) uint64 { return uint64(int64(int8(a))) },
	instruction.I64Extend16S:  func(a uint64) uint64 { return uint64(int64(int16(a))) },
	instruction.I64Extend32S:  func(a uint64) uint64 { return uint64(int64(int32(a))) },
}
