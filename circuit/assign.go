package circuit

import (
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark/constraint"
	"golang.org/x/sync/errgroup"

	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/instruction"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/opcodes"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

var (
	// ErrTrappedStep means the trace holds a step that did not complete.
	ErrTrappedStep = errors.New("trapped step")
	// ErrTraceTooLong means the trace does not fit the grid; one row is kept
	// for the state after the last step.
	ErrTraceTooLong = errors.New("trace too long")
)

// Assignment is the result of witness generation.
type Assignment struct {
	Witness *layout.Witness
	// Session holds the table, global and stack rows the lookups were
	// checked against.
	Session *tables.Session
}

// Assign generates the witness for tr. Side effects are replayed in step
// order first; rows are then filled in parallel. Any failure aborts the
// whole assignment.
func (c *Circuit) Assign(tr *trace.Trace) (*Assignment, error) {
	start := time.Now()
	rows := c.Rows()
	if len(tr.Steps) >= rows {
		return nil, fmt.Errorf("%w: %d steps, %d rows", ErrTraceTooLong, len(tr.Steps), rows)
	}
	states := make([]execstate.ExecutionState, len(tr.Steps))
	for i := range tr.Steps {
		step := &tr.Steps[i]
		if step.Trapped() {
			return nil, fmt.Errorf("step %d: %w with exit code %d", i, ErrTrappedStep, step.ExitCode)
		}
		s, ok := execstate.Of(step.Opcode())
		if !ok {
			return nil, fmt.Errorf("step %d: %w", i, step.Errorf(trace.ErrIllegalOpcode, "no execution state"))
		}
		states[i] = s
	}
	if err := tr.Validate(c.StackWindow); err != nil {
		return nil, err
	}

	session := tables.NewSession(tr, c.StackWindow)
	if err := session.Run(tr.Steps); err != nil {
		return nil, err
	}

	region := layout.NewRegion(c.Field, c.CS.Shape(), rows)
	if err := c.assignFixed(region); err != nil {
		return nil, err
	}
	if err := c.assignRoots(region, tr); err != nil {
		return nil, err
	}

	pad := c.paddingRow(tr)
	var g errgroup.Group
	g.SetLimit(c.Parallelism)
	chunk := (rows + c.Parallelism - 1) / c.Parallelism
	for from := 0; from < rows; from += chunk {
		from, to := from, from+chunk
		if to > rows {
			to = rows
		}
		g.Go(func() error {
			for offset := from; offset < to; offset++ {
				var err error
				if offset < len(tr.Steps) {
					err = c.assignStep(region, offset, &tr.Steps[offset], states[offset])
				} else {
					err = c.assignCommon(region, offset, uint64(len(tr.Steps)), pad, execstate.Padding)
				}
				if err != nil {
					return fmt.Errorf("row %d: %w", offset, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.Logger.Info().
		Int("nbSteps", len(tr.Steps)).
		Int("nbRows", rows).
		Int("nbTableOps", len(session.Rows(tables.TableOps))).
		Int("nbGlobalOps", len(session.Rows(tables.GlobalOps))).
		Int("nbStackOps", len(session.Rows(tables.StackOps))).
		Dur("took", time.Since(start)).
		Msg("assigned execution witness")
	return &Assignment{Witness: region.Witness(), Session: session}, nil
}

// FixedColumns returns the values of the fixed columns, which depend on the
// grid size only.
func (c *Circuit) FixedColumns() [][]constraint.Element {
	f := c.Field
	rows := c.Rows()
	res := make([][]constraint.Element, len(c.CS.Fixed))
	for i := range res {
		res[i] = make([]constraint.Element, rows)
	}
	for offset := 0; offset < rows; offset++ {
		res[c.QFirst.Index][offset] = field.FromBool(f, offset == 0)
		res[c.QTransition.Index][offset] = field.FromBool(f, offset+1 < rows)
	}
	return res
}

func (c *Circuit) assignFixed(region *layout.Region) error {
	for i, col := range c.FixedColumns() {
		for offset, v := range col {
			if err := region.Assign(c.CS.Fixed[i], offset, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// PublicInputs packs the state roots as they appear in the instance column.
func (c *Circuit) PublicInputs(tr *trace.Trace) ([]constraint.Element, error) {
	before, err := c.Packing.PackBytes(c.Field, tr.StateRootBefore)
	if err != nil {
		return nil, err
	}
	after, err := c.Packing.PackBytes(c.Field, tr.StateRootAfter)
	if err != nil {
		return nil, err
	}
	return append(before, after...), nil
}

func (c *Circuit) assignRoots(region *layout.Region, tr *trace.Trace) error {
	public, err := c.PublicInputs(tr)
	if err != nil {
		return err
	}
	for offset := 0; offset < region.Rows(); offset++ {
		var v constraint.Element
		if offset < len(public) {
			v = public[offset]
		}
		if err := region.Assign(c.Roots, offset, v); err != nil {
			return err
		}
	}
	return nil
}

// paddingRow is the state padding rows repeat: the stack after the last
// step and the pc it continues at.
func (c *Circuit) paddingRow(tr *trace.Trace) *trace.Step {
	pad := &trace.Step{Pc: 0}
	if n := len(tr.Steps); n > 0 {
		last := &tr.Steps[n-1]
		pad.Pc = opcodes.NextPc(last)
		pad.Curr = last.Next
		pad.Next = last.Next
	}
	return pad
}

func (c *Circuit) assignStep(region *layout.Region, offset int, step *trace.Step, s execstate.ExecutionState) error {
	if err := c.assignCommon(region, offset, uint64(offset), step, s); err != nil {
		return err
	}
	if err := c.gadgets[s].AssignExecStep(region, offset, step); err != nil {
		var gerr *trace.GadgetError
		if errors.As(err, &gerr) && gerr.State == "" {
			gerr.State = s.String()
		}
		return err
	}
	return nil
}

// encodeImm encodes an immediate as the gadgets read it: branch offsets are
// signed, everything else is an unsigned 64-bit value.
func encodeImm(f field.Field, instr instruction.Instruction) (constraint.Element, error) {
	switch instr.Opcode {
	case instruction.Br, instruction.BrIfEqz, instruction.BrIfNez:
		return field.FromSigned(f, instr.BranchOffset())
	}
	return field.FromU64(f, instr.Imm)
}

// assignCommon writes the shared columns and selectors of a row. Padding
// rows all carry the step count of the trace and a zero opcode.
func (c *Circuit) assignCommon(region *layout.Region, offset int, stepIdx uint64, step *trace.Step, s execstate.ExecutionState) error {
	f := c.Field
	var (
		opcode uint64
		imm    constraint.Element
		err    error
	)
	if s != execstate.Padding {
		opcode = uint64(step.Opcode())
		if imm, err = encodeImm(f, step.Instr); err != nil {
			return step.Errorf(trace.ErrValueDecode, "immediate: %v", err)
		}
	}
	values := []struct {
		col layout.Column
		v   uint64
	}{
		{c.Common.Step.Column, stepIdx},
		{c.Common.Pc.Column, step.Pc},
		{c.Common.Sp.Column, step.Curr.Depth},
		{c.Common.Opcode.Column, opcode},
	}
	for _, x := range values {
		e, err := field.FromU64(f, x.v)
		if err != nil {
			return err
		}
		if err := region.Assign(x.col, offset, e); err != nil {
			return err
		}
	}
	if err := region.Assign(c.Common.Imm.Column, offset, imm); err != nil {
		return err
	}
	for i := 0; i < c.StackWindow; i++ {
		cur, _ := step.Curr.Nth(i)
		next, _ := step.Next.Nth(i)
		if err := c.Common.StackCurr[i].AssignU64(region, offset, uint64(cur)); err != nil {
			return step.Errorf(trace.ErrValueDecode, "stack slot %d: %v", i, err)
		}
		if err := c.Common.StackNext[i].AssignU64(region, offset, uint64(next)); err != nil {
			return step.Errorf(trace.ErrValueDecode, "stack slot %d: %v", i, err)
		}
	}
	for i, sel := range c.Selectors {
		if err := sel.AssignBool(region, offset, execstate.ExecutionState(i) == s); err != nil {
			return err
		}
	}
	if s == execstate.Padding {
		return c.gadgets[s].AssignExecStep(region, offset, nil)
	}
	return nil
}
