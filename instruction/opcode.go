// Package instruction is the rwasm opcode vocabulary as it appears in a trace.
package instruction

import "fmt"

type Opcode uint16

// Opcode 0 is never executed; padding rows carry it.
const (
	Unreachable Opcode = iota + 1
	Return
	Call
	Br
	BrIfEqz
	BrIfNez

	Drop
	Select

	LocalGet
	LocalSet
	LocalTee
	GlobalGet
	GlobalSet

	TableSize
	TableGrow
	TableGet
	TableSet

	I32Load
	I32Store

	I32Const
	I64Const
	F32Const
	F64Const
	RefFunc

	I32Eqz
	I32Eq
	I32Ne
	I32LtS
	I32LtU
	I32GtS
	I32GtU
	I32LeS
	I32LeU
	I32GeS
	I32GeU

	I64Eqz
	I64Eq
	I64Ne
	I64LtS
	I64LtU
	I64GtS
	I64GtU
	I64LeS
	I64LeU
	I64GeS
	I64GeU

	I32Popcnt
	I32Add
	I32Sub
	I32Mul
	I32DivS
	I32And
	I32Or
	I32Xor

	I64Popcnt
	I64Add
	I64Sub
	I64Mul
	I64And
	I64Or
	I64Xor

	F32Add

	I32WrapI64
	I64ExtendI32S
	I64ExtendI32U
	I32Extend8S
	I32Extend16S
	I64Extend8S
	I64Extend16S
	I64Extend32S

	numOpcodes
)

var names = [...]string{
	Unreachable:   "Unreachable",
	Return:        "Return",
	Call:          "Call",
	Br:            "Br",
	BrIfEqz:       "BrIfEqz",
	BrIfNez:       "BrIfNez",
	Drop:          "Drop",
	Select:        "Select",
	LocalGet:      "LocalGet",
	LocalSet:      "LocalSet",
	LocalTee:      "LocalTee",
	GlobalGet:     "GlobalGet",
	GlobalSet:     "GlobalSet",
	TableSize:     "TableSize",
	TableGrow:     "TableGrow",
	TableGet:      "TableGet",
	TableSet:      "TableSet",
	I32Load:       "I32Load",
	I32Store:      "I32Store",
	I32Const:      "I32Const",
	I64Const:      "I64Const",
	F32Const:      "F32Const",
	F64Const:      "F64Const",
	RefFunc:       "RefFunc",
	I32Eqz:        "I32Eqz",
	I32Eq:         "I32Eq",
	I32Ne:         "I32Ne",
	I32LtS:        "I32LtS",
	I32LtU:        "I32LtU",
	I32GtS:        "I32GtS",
	I32GtU:        "I32GtU",
	I32LeS:        "I32LeS",
	I32LeU:        "I32LeU",
	I32GeS:        "I32GeS",
	I32GeU:        "I32GeU",
	I64Eqz:        "I64Eqz",
	I64Eq:         "I64Eq",
	I64Ne:         "I64Ne",
	I64LtS:        "I64LtS",
	I64LtU:        "I64LtU",
	I64GtS:        "I64GtS",
	I64GtU:        "I64GtU",
	I64LeS:        "I64LeS",
	I64LeU:        "I64LeU",
	I64GeS:        "I64GeS",
	I64GeU:        "I64GeU",
	I32Popcnt:     "I32Popcnt",
	I32Add:        "I32Add",
	I32Sub:        "I32Sub",
	I32Mul:        "I32Mul",
	I32DivS:       "I32DivS",
	I32And:        "I32And",
	I32Or:         "I32Or",
	I32Xor:        "I32Xor",
	I64Popcnt:     "I64Popcnt",
	I64Add:        "I64Add",
	I64Sub:        "I64Sub",
	I64Mul:        "I64Mul",
	I64And:        "I64And",
	I64Or:         "I64Or",
	I64Xor:        "I64Xor",
	F32Add:        "F32Add",
	I32WrapI64:    "I32WrapI64",
	I64ExtendI32S: "I64ExtendI32S",
	I64ExtendI32U: "I64ExtendI32U",
	I32Extend8S:   "I32Extend8S",
	I32Extend16S:  "I32Extend16S",
	I64Extend8S:   "I64Extend8S",
	I64Extend16S:  "I64Extend16S",
	I64Extend32S:  "I64Extend32S",
}

func (op Opcode) Valid() bool {
	return op > 0 && op < numOpcodes
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	return names[op]
}

// All returns every opcode of the vocabulary in numeric order.
func All() []Opcode {
	res := make([]Opcode, 0, numOpcodes-1)
	for op := Opcode(1); op < numOpcodes; op++ {
		res = append(res, op)
	}
	return res
}

// Is64 reports whether a numeric opcode works on 64-bit operands.
func (op Opcode) Is64() bool {
	switch op {
	case I64Const, F64Const,
		I64Eqz, I64Eq, I64Ne, I64LtS, I64LtU, I64GtS, I64GtU, I64LeS, I64LeU, I64GeS, I64GeU,
		I64Popcnt, I64Add, I64Sub, I64Mul, I64And, I64Or, I64Xor,
		I64ExtendI32S, I64ExtendI32U, I64Extend8S, I64Extend16S, I64Extend32S:
		return true
	}
	return false
}
