package instruction

import "fmt"

// Instruction is an opcode with its raw immediate. The immediate is the
// local depth, global index, table index, constant bits or, for branches,
// the two's complement pc offset.
type Instruction struct {
	Opcode Opcode `cbor:"1,keyasint"`
	Imm    uint64 `cbor:"2,keyasint,omitempty"`
}

func New(op Opcode, imm uint64) Instruction {
	return Instruction{Opcode: op, Imm: imm}
}

// BranchOffset returns the immediate as a signed pc offset.
func (i Instruction) BranchOffset() int64 {
	return int64(i.Imm)
}

func (i Instruction) String() string {
	switch i.Opcode {
	case Br, BrIfEqz, BrIfNez:
		return fmt.Sprintf("%s(%d)", i.Opcode, i.BranchOffset())
	case Drop, Select, Return, Unreachable:
		return i.Opcode.String()
	}
	if i.Imm == 0 && !hasImmediate(i.Opcode) {
		return i.Opcode.String()
	}
	return fmt.Sprintf("%s(%d)", i.Opcode, i.Imm)
}

func hasImmediate(op Opcode) bool {
	switch op {
	case Call, LocalGet, LocalSet, LocalTee, GlobalGet, GlobalSet,
		TableSize, TableGrow, TableGet, TableSet, I32Load, I32Store,
		I32Const, I64Const, F32Const, F64Const, RefFunc:
		return true
	}
	return false
}
