// Package test records rwasm traces and checks them against the execution
// circuit.
package test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/checker"
	"github.com/PolyhedraZK/rwasm-zkcircuit/circuit"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

type Assert struct {
	t *testing.T
	c *circuit.Circuit
}

// NewAssert configures a circuit with opts for the assertions of t.
func NewAssert(t *testing.T, opts ...circuit.Option) *Assert {
	t.Helper()
	c, err := circuit.Configure(opts...)
	require.NoError(t, err)
	return &Assert{t: t, c: c}
}

func (a *Assert) Circuit() *circuit.Circuit {
	return a.c
}

// TraceSucceeded assigns tr and checks every gate and lookup.
func (a *Assert) TraceSucceeded(tr *trace.Trace) *circuit.Assignment {
	a.t.Helper()
	asg, err := a.c.Assign(tr)
	require.NoError(a.t, err, "assign")
	require.NoError(a.t, checker.Verify(a.c.CS, asg.Witness, asg.Session), "verify")
	return asg
}

// TraceFailed expects tr to be rejected, at assignment or by the checker.
func (a *Assert) TraceFailed(tr *trace.Trace) error {
	a.t.Helper()
	asg, err := a.c.Assign(tr)
	if err != nil {
		return err
	}
	err = checker.Verify(a.c.CS, asg.Witness, asg.Session)
	require.Error(a.t, err, "trace should not satisfy the circuit")
	return err
}

// TamperFailed assigns tr, applies tamper to the witness and expects the
// checker to reject the result.
func (a *Assert) TamperFailed(tr *trace.Trace, tamper func(asg *circuit.Assignment)) error {
	a.t.Helper()
	asg := a.TraceSucceeded(tr)
	asg.Witness = asg.Witness.Clone()
	tamper(asg)
	err := checker.Verify(a.c.CS, asg.Witness, asg.Session)
	require.Error(a.t, err, "tampered witness should not satisfy the circuit")
	return err
}

// Record runs fn on a fresh recorder sized for the circuit and returns the
// trace.
func (a *Assert) Record(fn func(r *Recorder)) *trace.Trace {
	a.t.Helper()
	r := NewRecorder(a.c.StackWindow)
	fn(r)
	tr, err := r.Trace()
	require.NoError(a.t, err, "record")
	return tr
}
