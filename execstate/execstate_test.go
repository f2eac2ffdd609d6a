package execstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
)

func TestClassifierIsInverseOfOpcodes(t *testing.T) {
	total := 0
	for _, s := range All() {
		for _, op := range Opcodes(s) {
			got, ok := Of(op)
			require.True(t, ok, op.String())
			require.Equal(t, s, got, op.String())
			total++
		}
	}
	require.Equal(t, total, len(Supported()))
	require.Empty(t, Opcodes(Padding))
}

func TestUnsupportedOpcodes(t *testing.T) {
	for _, op := range []instruction.Opcode{instruction.Unreachable, instruction.Call, instruction.I32Load, instruction.F32Add, 0} {
		_, ok := Of(op)
		require.False(t, ok, op.String())
	}
}

func TestStateNames(t *testing.T) {
	require.Equal(t, "WASM_TABLE_GROW", TableGrow.String())
	require.Equal(t, "ExecutionState(200)", ExecutionState(200).String())
	require.Nil(t, Opcodes(ExecutionState(200)))
}
