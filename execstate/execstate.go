// Package execstate classifies opcodes into the execution states that own
// trace rows. Every supported opcode belongs to exactly one state.
package execstate

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
)

type ExecutionState uint8

const (
	Padding ExecutionState = iota
	Const
	Drop
	Select
	Local
	Global
	Bin
	Rel
	Unary
	Conversion
	Br
	TableGrow
	TableSize
	TableGet
	TableSet

	numStates
)

var stateNames = [...]string{
	Padding:    "PADDING",
	Const:      "WASM_CONST",
	Drop:       "WASM_DROP",
	Select:     "WASM_SELECT",
	Local:      "WASM_LOCAL",
	Global:     "WASM_GLOBAL",
	Bin:        "WASM_BIN",
	Rel:        "WASM_REL",
	Unary:      "WASM_UNARY",
	Conversion: "WASM_CONVERSION",
	Br:         "WASM_BR",
	TableGrow:  "WASM_TABLE_GROW",
	TableSize:  "WASM_TABLE_SIZE",
	TableGet:   "WASM_TABLE_GET",
	TableSet:   "WASM_TABLE_SET",
}

func (s ExecutionState) String() string {
	if s >= numStates {
		return fmt.Sprintf("ExecutionState(%d)", uint8(s))
	}
	return stateNames[s]
}

// All returns the states in selector order.
func All() []ExecutionState {
	res := make([]ExecutionState, numStates)
	for i := range res {
		res[i] = ExecutionState(i)
	}
	return res
}

var stateOpcodes = [numStates][]instruction.Opcode{
	Padding: nil,
	Const:   {instruction.I32Const, instruction.I64Const, instruction.F32Const, instruction.F64Const, instruction.RefFunc},
	Drop:    {instruction.Drop},
	Select:  {instruction.Select},
	Local:   {instruction.LocalGet, instruction.LocalSet, instruction.LocalTee},
	Global:  {instruction.GlobalGet, instruction.GlobalSet},
	Bin: {
		instruction.I32Add, instruction.I32Sub, instruction.I32Mul, instruction.I32And, instruction.I32Or, instruction.I32Xor,
		instruction.I64Add, instruction.I64Sub, instruction.I64Mul, instruction.I64And, instruction.I64Or, instruction.I64Xor,
	},
	Rel: {
		instruction.I32Eq, instruction.I32Ne, instruction.I32LtS, instruction.I32LtU, instruction.I32GtS,
		instruction.I32GtU, instruction.I32LeS, instruction.I32LeU, instruction.I32GeS, instruction.I32GeU,
		instruction.I64Eq, instruction.I64Ne, instruction.I64LtS, instruction.I64LtU, instruction.I64GtS,
		instruction.I64GtU, instruction.I64LeS, instruction.I64LeU, instruction.I64GeS, instruction.I64GeU,
	},
	Unary: {instruction.I32Eqz, instruction.I64Eqz, instruction.I32Popcnt, instruction.I64Popcnt},
	Conversion: {
		instruction.I32WrapI64, instruction.I64ExtendI32S, instruction.I64ExtendI32U, instruction.I32Extend8S,
		instruction.I32Extend16S, instruction.I64Extend8S, instruction.I64Extend16S, instruction.I64Extend32S,
	},
	Br:        {instruction.Br, instruction.BrIfEqz, instruction.BrIfNez},
	TableGrow: {instruction.TableGrow},
	TableSize: {instruction.TableSize},
	TableGet:  {instruction.TableGet},
	TableSet:  {instruction.TableSet},
}

var opcodeState = func() map[instruction.Opcode]ExecutionState {
	m := make(map[instruction.Opcode]ExecutionState)
	for s, ops := range stateOpcodes {
		for _, op := range ops {
			if prev, ok := m[op]; ok {
				panic(fmt.Sprintf("opcode %s in both %s and %s", op, prev, ExecutionState(s)))
			}
			m[op] = ExecutionState(s)
		}
	}
	return m
}()

// Of returns the state owning op, false for opcodes the circuit does not support.
func Of(op instruction.Opcode) (ExecutionState, bool) {
	s, ok := opcodeState[op]
	return s, ok
}

// Opcodes returns the opcodes accepted by s. The result must not be modified.
func Opcodes(s ExecutionState) []instruction.Opcode {
	if s >= numStates {
		return nil
	}
	return stateOpcodes[s]
}

// Supported lists every opcode some state accepts.
func Supported() []instruction.Opcode {
	var res []instruction.Opcode
	for _, op := range instruction.All() {
		if _, ok := opcodeState[op]; ok {
			res = append(res, op)
		}
	}
	return res
}
