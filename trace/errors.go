package trace

import (
	"errors"
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
)

var (
	// ErrIllegalOpcode means a gadget was handed a step it does not accept.
	ErrIllegalOpcode = errors.New("illegal opcode at gadget")
	// ErrStackUnderflow means a window holds fewer operands than requested.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrValueDecode is field.ErrValueDecode.
	ErrValueDecode = field.ErrValueDecode
	// ErrLookupMiss means a side-effect lookup has no matching table row.
	ErrLookupMiss = errors.New("lookup miss")
)

// GadgetError reports a witness generation failure for one step.
type GadgetError struct {
	Kind   error
	Opcode instruction.Opcode
	State  string
	Pc     uint64
	Detail string
}

func (e *GadgetError) Error() string {
	msg := fmt.Sprintf("%s: opcode %s at pc %d", e.Kind, e.Opcode, e.Pc)
	if e.State != "" {
		msg += " in " + e.State
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *GadgetError) Unwrap() error {
	return e.Kind
}

// Errorf builds a GadgetError of the given kind for s.
func (s *Step) Errorf(kind error, format string, args ...interface{}) *GadgetError {
	return &GadgetError{
		Kind:   kind,
		Opcode: s.Instr.Opcode,
		Pc:     s.Pc,
		Detail: fmt.Sprintf(format, args...),
	}
}
