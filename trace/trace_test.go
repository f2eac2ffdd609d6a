package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
)

func sampleTrace() *Trace {
	return &Trace{
		Steps: []Step{
			{
				Pc:    0,
				Instr: instruction.New(instruction.I32Const, 2),
				Curr:  Window{Depth: 1, Top: []Value{7}},
				Next:  Window{Depth: 2, Top: []Value{2, 7}},
			},
			{
				Pc:    1,
				Instr: instruction.New(instruction.TableGrow, 0),
				Curr:  Window{Depth: 2, Top: []Value{2, 7}},
				Next:  Window{Depth: 1, Top: []Value{3}},
			},
		},
		Stack:           []Value{7},
		Globals:         []Value{1, 0xFFFFFFFFFFFFFFFF},
		Tables:          []Table{{Elements: []Value{0, 0, 0}, Max: 10}},
		StateRootBefore: [32]byte{1, 2, 3},
		StateRootAfter:  [32]byte{31: 9},
	}
}

func TestStackWindowReads(t *testing.T) {
	tr := sampleTrace()
	step := &tr.Steps[1]

	v, err := step.CurrNthStackValue(0)
	require.NoError(t, err)
	require.Equal(t, Value(2), v)
	v, err = step.CurrNthStackValue(1)
	require.NoError(t, err)
	require.Equal(t, Value(7), v)
	v, err = step.NextNthStackValue(0)
	require.NoError(t, err)
	require.Equal(t, Value(3), v)

	_, err = step.CurrNthStackValue(2)
	require.ErrorIs(t, err, ErrStackUnderflow)
	var gerr *GadgetError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, instruction.TableGrow, gerr.Opcode)
	require.Equal(t, uint64(1), gerr.Pc)

	_, err = step.NextNthStackValue(1)
	require.ErrorIs(t, err, ErrStackUnderflow)
	_, err = step.NextNthStackValue(-1)
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleTrace().Validate(6))
	require.NoError(t, sampleTrace().Validate(1))

	tr := sampleTrace()
	tr.Steps[1].Curr.Top = tr.Steps[1].Curr.Top[:1]
	require.Error(t, tr.Validate(6))
	require.NoError(t, tr.Validate(1))

	tr = sampleTrace()
	tr.Steps[1].Curr.Depth = 3
	require.Error(t, tr.Validate(6))

	tr = sampleTrace()
	tr.Steps[1].Curr.Top[1] = 8
	require.Error(t, tr.Validate(6))

	tr = sampleTrace()
	tr.Stack = []Value{8}
	require.Error(t, tr.Validate(6))
	tr.Stack = nil
	require.Error(t, tr.Validate(6))
	tr.Steps = nil
	require.NoError(t, tr.Validate(6))

	tr = sampleTrace()
	tr.Steps[0].Instr.Opcode = 0
	require.ErrorIs(t, tr.Validate(6), ErrIllegalOpcode)
}

func TestCodecRoundTrip(t *testing.T) {
	tr := sampleTrace()
	b, err := Encode(tr)
	require.NoError(t, err)

	again, err := Encode(tr)
	require.NoError(t, err)
	require.Equal(t, b, again, "encoding must be deterministic")

	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, tr, got)

	_, err = Decode(b[:len(b)/2])
	require.Error(t, err)
}

func TestValueDecodeIsFieldSentinel(t *testing.T) {
	err := &GadgetError{Kind: ErrValueDecode, Opcode: instruction.I64Const}
	require.ErrorIs(t, err, ErrValueDecode)
	require.Contains(t, err.Error(), "I64Const")
}
