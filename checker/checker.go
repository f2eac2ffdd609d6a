// Package checker evaluates a constraint system over a witness without a
// proving backend: every gate must vanish and every lookup tuple must be a
// table row, on every row of the grid.
package checker

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

// ErrConstraintUnsatisfied means a gate does not vanish on some row.
var ErrConstraintUnsatisfied = errors.New("constraint unsatisfied")

// ConstraintFailure is the first row a gate fails on.
type ConstraintFailure struct {
	Gate string
	Row  int
}

func (e *ConstraintFailure) Error() string {
	return fmt.Sprintf("%v: gate %s at row %d", ErrConstraintUnsatisfied, e.Gate, e.Row)
}

func (e *ConstraintFailure) Unwrap() error {
	return ErrConstraintUnsatisfied
}

// LookupFailure is the first row a lookup misses its table on.
type LookupFailure struct {
	Lookup string
	Table  tables.ID
	Row    int
	Tuple  []constraint.Element
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("%v: %s into %s at row %d", trace.ErrLookupMiss, e.Lookup, e.Table, e.Row)
}

func (e *LookupFailure) Unwrap() error {
	return trace.ErrLookupMiss
}

// Verify checks w against cs. Dynamic tables are read from session. It
// reports the first failing row of every failing gate and lookup.
func Verify(cs *builder.ConstraintSystem, w *layout.Witness, session *tables.Session) error {
	if w.Rows == 0 {
		return errors.New("empty witness")
	}
	if shape := cs.Shape(); len(w.Advice) != shape.Advice || len(w.Fixed) != shape.Fixed || len(w.Instance) != shape.Instance {
		return fmt.Errorf("witness has %d/%d/%d columns, system has %d/%d/%d",
			len(w.Advice), len(w.Fixed), len(w.Instance), shape.Advice, shape.Fixed, shape.Instance)
	}
	var errs []error
	for _, g := range cs.Gates {
		for r := 0; r < w.Rows; r++ {
			if v := eval(cs, w, g.Poly, r); !v.IsZero() {
				errs = append(errs, &ConstraintFailure{Gate: g.Name, Row: r})
				break
			}
		}
	}
	for _, l := range cs.Lookups {
		var table tables.Table
		if session != nil {
			table = session.Table(l.Table)
		} else {
			table = tables.Fixed(l.Table)
		}
		if table == nil {
			errs = append(errs, fmt.Errorf("lookup %s: no rows for %s", l.Name, l.Table))
			continue
		}
		tuple := make([]constraint.Element, len(l.Inputs))
		for r := 0; r < w.Rows; r++ {
			for i, e := range l.Inputs {
				tuple[i] = eval(cs, w, e, r)
			}
			if !table.Contains(cs.Field, tuple) {
				errs = append(errs, &LookupFailure{
					Lookup: l.Name,
					Table:  l.Table,
					Row:    r,
					Tuple:  append([]constraint.Element(nil), tuple...),
				})
				break
			}
		}
	}
	return errors.Join(errs...)
}

// eval evaluates e at row r; queries past either end of the grid read zero.
func eval(cs *builder.ConstraintSystem, w *layout.Witness, e expr.Expression, r int) constraint.Element {
	return expr.Eval(cs.Field, e, func(vid int) constraint.Element {
		q := cs.QueryOf(vid)
		return w.Value(q.Column, r+q.Rotation)
	})
}

// Failures splits an error returned by Verify into its gate and lookup
// failures.
func Failures(err error) (gates []*ConstraintFailure, lookups []*LookupFailure) {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		if err == nil {
			return nil, nil
		}
		joined = joinedErr{err}
	}
	for _, e := range joined.Unwrap() {
		var g *ConstraintFailure
		var l *LookupFailure
		switch {
		case errors.As(e, &g):
			gates = append(gates, g)
		case errors.As(e, &l):
			lookups = append(lookups, l)
		}
	}
	return gates, lookups
}

type joinedErr struct{ err error }

func (j joinedErr) Unwrap() []error { return []error{j.err} }
