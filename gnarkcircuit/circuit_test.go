package gnarkcircuit_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	gnarktest "github.com/consensys/gnark/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/circuit"
	"github.com/PolyhedraZK/rwasm-zkcircuit/gnarkcircuit"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/test"
)

func assigned(t *testing.T) (*circuit.Circuit, *circuit.Assignment) {
	c, err := circuit.Configure(circuit.WithDegree(4), circuit.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	r := test.NewRecorder(c.StackWindow)
	g := r.Global(3)
	ti := r.Table(4, 100)
	r.Exec(instruction.GlobalGet, uint64(g)).
		Exec(instruction.I32Const, 0xF0).
		Exec(instruction.I32Xor, 0).
		Exec(instruction.I32Const, 1).
		Exec(instruction.I32Const, 7).
		Exec(instruction.TableGrow, uint64(ti)).
		Exec(instruction.TableGet, uint64(ti)).
		Exec(instruction.I32LtU, 0).
		Exec(instruction.BrIfNez, 2)
	tr, err := r.Trace()
	require.NoError(t, err)
	asg, err := c.Assign(tr)
	require.NoError(t, err)
	return c, asg
}

func TestSolved(t *testing.T) {
	c, asg := assigned(t)
	assignment, err := gnarkcircuit.Assign(c, asg)
	require.NoError(t, err)
	require.NoError(t, gnarktest.IsSolved(gnarkcircuit.New(c, asg.Session), assignment, ecc.BN254.ScalarField()))
}

func TestTamperedAdvice(t *testing.T) {
	c, asg := assigned(t)
	assignment, err := gnarkcircuit.Assign(c, asg)
	require.NoError(t, err)
	// result of the xor
	assignment.Advice[c.Common.StackNext[0].Column.Index][2] = 0xF4
	assignment.Advice[c.Common.StackCurr[0].Column.Index][3] = 0xF4
	require.Error(t, gnarktest.IsSolved(gnarkcircuit.New(c, asg.Session), assignment, ecc.BN254.ScalarField()))
}

func TestTamperedTableRow(t *testing.T) {
	c, asg := assigned(t)
	assignment, err := gnarkcircuit.Assign(c, asg)
	require.NoError(t, err)
	last := assignment.TableOps[len(assignment.TableOps)-1]
	last[len(last)-1] = frontend.Variable(12345)
	require.Error(t, gnarktest.IsSolved(gnarkcircuit.New(c, asg.Session), assignment, ecc.BN254.ScalarField()))
}

func TestTamperedStackRow(t *testing.T) {
	c, asg := assigned(t)
	require.NotEmpty(t, asg.Session.Rows(tables.StackOps))
	assignment, err := gnarkcircuit.Assign(c, asg)
	require.NoError(t, err)
	require.Len(t, assignment.StackOps, len(asg.Session.Rows(tables.StackOps))+1)
	last := assignment.StackOps[len(assignment.StackOps)-1]
	last[len(last)-1] = frontend.Variable(999)
	require.Error(t, gnarktest.IsSolved(gnarkcircuit.New(c, asg.Session), assignment, ecc.BN254.ScalarField()))
}

func TestCompile(t *testing.T) {
	c, asg := assigned(t)
	ccs, err := gnarkcircuit.Compile(c, asg.Session)
	require.NoError(t, err)
	require.Positive(t, ccs.GetNbConstraints())

	assignment, err := gnarkcircuit.Assign(c, asg)
	require.NoError(t, err)
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	require.NoError(t, err)
	require.NoError(t, ccs.IsSolved(w))
}
