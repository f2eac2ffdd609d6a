// Package trace is the recorded execution consumed by the circuit: one Step
// per executed instruction with windowed views of the operand stack.
package trace

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
)

// Value is an untyped rwasm stack value as raw bits. An i32 occupies the low
// 32 bits with the high bits zero.
type Value uint64

// Window is a view of the operand stack. Top holds the topmost values, top
// first, and is at most Depth long.
type Window struct {
	Depth uint64  `cbor:"1,keyasint"`
	Top   []Value `cbor:"2,keyasint"`
}

// Nth returns the value n slots below the top.
func (w Window) Nth(n int) (Value, bool) {
	if n < 0 || n >= len(w.Top) || uint64(n) >= w.Depth {
		return 0, false
	}
	return w.Top[n], true
}

// Step is one executed instruction with the stack before (Curr) and after
// (Next) it. ExitCode is 0 unless the instruction trapped.
type Step struct {
	Pc       uint64                  `cbor:"1,keyasint"`
	Instr    instruction.Instruction `cbor:"2,keyasint"`
	Curr     Window                  `cbor:"3,keyasint"`
	Next     Window                  `cbor:"4,keyasint"`
	ExitCode int32                   `cbor:"5,keyasint,omitempty"`
}

func (s *Step) Opcode() instruction.Opcode {
	return s.Instr.Opcode
}

func (s *Step) Trapped() bool {
	return s.ExitCode != 0
}

// CurrNthStackValue reads the value n slots below the top before the step.
func (s *Step) CurrNthStackValue(n int) (Value, error) {
	v, ok := s.Curr.Nth(n)
	if !ok {
		return 0, s.Errorf(ErrStackUnderflow, "current window has %d of %d values, want index %d", len(s.Curr.Top), s.Curr.Depth, n)
	}
	return v, nil
}

// NextNthStackValue reads the value n slots below the top after the step.
func (s *Step) NextNthStackValue(n int) (Value, error) {
	v, ok := s.Next.Nth(n)
	if !ok {
		return 0, s.Errorf(ErrStackUnderflow, "next window has %d of %d values, want index %d", len(s.Next.Top), s.Next.Depth, n)
	}
	return v, nil
}

func (s *Step) String() string {
	return fmt.Sprintf("pc=%d %s sp=%d->%d", s.Pc, s.Instr, s.Curr.Depth, s.Next.Depth)
}
