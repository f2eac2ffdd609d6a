package builder

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
)

func (cb *OpConstraintBuilder) declareOpcodes(ops []instruction.Opcode) {
	if len(cb.opcodes) != 0 {
		panic(fmt.Sprintf("%s: opcodes declared twice", cb.state))
	}
	for _, op := range ops {
		if s, ok := execstate.Of(op); !ok || s != cb.state {
			panic(fmt.Sprintf("%s: opcode %s belongs to %s", cb.state, op, s))
		}
	}
	cb.opcodes = append([]instruction.Opcode(nil), ops...)
}

// RequireOpcode constrains the row's opcode to op.
func (cb *OpConstraintBuilder) RequireOpcode(op instruction.Opcode) {
	cb.declareOpcodes([]instruction.Opcode{op})
	cb.ConstrainEqual("opcode", cb.common.Opcode.Expr(), cb.cs.Const(uint64(op)))
}

// OpcodeFlags are boolean cells, one per accepted opcode, exactly one of
// which is set.
type OpcodeFlags struct {
	Cells   []Cell
	Opcodes []instruction.Opcode
	cs      *ConstraintSystem
}

// RequireOpcodes constrains the row's opcode to one of ops and returns the
// flags selecting which.
func (cb *OpConstraintBuilder) RequireOpcodes(ops ...instruction.Opcode) OpcodeFlags {
	if len(ops) == 1 {
		panic(fmt.Sprintf("%s: use RequireOpcode for a single opcode", cb.state))
	}
	cb.declareOpcodes(ops)
	flags := OpcodeFlags{Opcodes: cb.opcodes, cs: cb.cs}
	var sum, opcode []expr.Expression
	for _, op := range ops {
		c := cb.QueryBool()
		flags.Cells = append(flags.Cells, c)
		sum = append(sum, c.Expr())
		opcode = append(opcode, cb.cs.Scale(c.Expr(), uint64(op)))
	}
	cb.ConstrainEqual("opcode_flags", cb.cs.Add(sum...), cb.cs.One())
	cb.ConstrainEqual("opcode", cb.common.Opcode.Expr(), cb.cs.Add(opcode...))
	return flags
}

// Flag is the flag of op.
func (f OpcodeFlags) Flag(op instruction.Opcode) expr.Expression {
	for i, o := range f.Opcodes {
		if o == op {
			return f.Cells[i].Expr()
		}
	}
	panic(fmt.Sprintf("opcode %s not among the flags", op))
}

// Any is the sum of the flags of ops, one when the row's opcode is among them.
func (f OpcodeFlags) Any(ops ...instruction.Opcode) expr.Expression {
	res := make([]expr.Expression, len(ops))
	for i, op := range ops {
		res[i] = f.Flag(op)
	}
	return f.cs.Add(res...)
}

// Assign sets the flag of op and clears the others. It reports false when op
// is not accepted, without writing anything.
func (f OpcodeFlags) Assign(region *layout.Region, offset int, op instruction.Opcode) (bool, error) {
	found := false
	for _, o := range f.Opcodes {
		found = found || o == op
	}
	if !found {
		return false, nil
	}
	for i, o := range f.Opcodes {
		if err := f.Cells[i].AssignBool(region, offset, o == op); err != nil {
			return true, err
		}
	}
	return true, nil
}
