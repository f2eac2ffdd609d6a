package trace

import (
	"fmt"
)

// Table is the initial state of one rwasm table.
type Table struct {
	Elements []Value `cbor:"1,keyasint"`
	Max      uint32  `cbor:"2,keyasint"`
}

func (t Table) Size() uint32 {
	return uint32(len(t.Elements))
}

// Trace is a whole recorded run. Globals, Tables and Stack hold the state
// before the first step; the roots are supplied by the external state store.
type Trace struct {
	Steps           []Step   `cbor:"1,keyasint"`
	Globals         []Value  `cbor:"2,keyasint"`
	Tables          []Table  `cbor:"3,keyasint"`
	StateRootBefore [32]byte `cbor:"4,keyasint"`
	StateRootAfter  [32]byte `cbor:"5,keyasint"`
	// Stack is the whole operand stack, bottom first.
	Stack []Value `cbor:"6,keyasint,omitempty"`
}

// Validate checks the shape of the trace for a stack window of w slots:
// each window carries min(depth, w) values at least, consecutive steps agree
// on the stack between them and the first step starts from Stack.
func (t *Trace) Validate(w int) error {
	if len(t.Steps) > 0 {
		first := &t.Steps[0].Curr
		if first.Depth != uint64(len(t.Stack)) {
			return fmt.Errorf("step 0: depth %d, initial stack holds %d values", first.Depth, len(t.Stack))
		}
		for j := 0; j < w && j < len(first.Top); j++ {
			if first.Top[j] != t.Stack[len(t.Stack)-1-j] {
				return fmt.Errorf("step 0: stack slot %d differs from the initial stack", j)
			}
		}
	}
	for i := range t.Steps {
		s := &t.Steps[i]
		if !s.Instr.Opcode.Valid() {
			return fmt.Errorf("step %d: %w", i, s.Errorf(ErrIllegalOpcode, "unknown opcode"))
		}
		for _, win := range []Window{s.Curr, s.Next} {
			if uint64(len(win.Top)) > win.Depth {
				return fmt.Errorf("step %d: window holds %d values at depth %d", i, len(win.Top), win.Depth)
			}
			if want := minU64(win.Depth, uint64(w)); uint64(len(win.Top)) < want {
				return fmt.Errorf("step %d: window holds %d values, want %d", i, len(win.Top), want)
			}
		}
		if i == 0 {
			continue
		}
		prev := &t.Steps[i-1]
		if prev.Next.Depth != s.Curr.Depth {
			return fmt.Errorf("step %d: depth %d does not follow %d", i, s.Curr.Depth, prev.Next.Depth)
		}
		for j := 0; j < w && j < len(s.Curr.Top) && j < len(prev.Next.Top); j++ {
			if prev.Next.Top[j] != s.Curr.Top[j] {
				return fmt.Errorf("step %d: stack slot %d changed between steps", i, j)
			}
		}
	}
	return nil
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
