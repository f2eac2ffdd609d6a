package instruction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcodeNames(t *testing.T) {
	seen := map[string]Opcode{}
	for _, op := range All() {
		name := op.String()
		require.NotEmpty(t, name, "opcode %d has no name", uint16(op))
		prev, dup := seen[name]
		require.False(t, dup, "%s shared by %d and %d", name, prev, op)
		seen[name] = op
	}
	require.Equal(t, "Opcode(0)", Opcode(0).String())
	require.False(t, numOpcodes.Valid())
}

func TestInstructionString(t *testing.T) {
	cases := []struct {
		instr Instruction
		want  string
	}{
		{New(I32Const, 7), "I32Const(7)"},
		{New(I32Const, 0), "I32Const(0)"},
		{New(Drop, 0), "Drop"},
		{New(I32Add, 0), "I32Add"},
		{New(Br, uint64(0xFFFFFFFFFFFFFFFD)), "Br(-3)"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.instr.String())
	}
}
