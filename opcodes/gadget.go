// Package opcodes holds one execution gadget per execution state. A gadget
// declares its constraints once through a builder.OpConstraintBuilder and
// then fills its cells for every row whose step it owns.
package opcodes

import (
	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/trace"
)

type ExecutionGadget interface {
	Name() string
	ExecutionState() execstate.ExecutionState
	// AssignExecStep fills the gadget's cells at offset from step. It reads
	// and encodes everything before writing, so a returned
	// *trace.GadgetError leaves the row untouched.
	AssignExecStep(region *layout.Region, offset int, step *trace.Step) error
}

type Configure func(cb *builder.OpConstraintBuilder) ExecutionGadget

// Gadgets returns the configure function of every execution state.
func Gadgets() map[execstate.ExecutionState]Configure {
	return map[execstate.ExecutionState]Configure{
		execstate.Padding:    ConfigurePadding,
		execstate.Const:      ConfigureConst,
		execstate.Drop:       ConfigureDrop,
		execstate.Select:     ConfigureSelect,
		execstate.Local:      ConfigureLocal,
		execstate.Global:     ConfigureGlobal,
		execstate.Bin:        ConfigureBin,
		execstate.Rel:        ConfigureRel,
		execstate.Unary:      ConfigureUnary,
		execstate.Conversion: ConfigureConversion,
		execstate.Br:         ConfigureBr,
		execstate.TableGrow:  ConfigureTableGrow,
		execstate.TableSize:  ConfigureTableSize,
		execstate.TableGet:   ConfigureTableGet,
		execstate.TableSet:   ConfigureTableSet,
	}
}

// IllegalOpcode is returned when a gadget is handed a step of an opcode it
// does not accept.
func IllegalOpcode(step *trace.Step, state execstate.ExecutionState) error {
	return &trace.GadgetError{
		Kind:   trace.ErrIllegalOpcode,
		Opcode: step.Opcode(),
		State:  state.String(),
		Pc:     step.Pc,
	}
}

func accepts(state execstate.ExecutionState, step *trace.Step) bool {
	s, ok := execstate.Of(step.Opcode())
	return ok && s == state
}

func encode(f field.Field, step *trace.Step, v trace.Value) (constraint.Element, error) {
	e, err := field.FromU64(f, uint64(v))
	if err != nil {
		return e, step.Errorf(trace.ErrValueDecode, "%v", err)
	}
	return e, nil
}

// row buffers the writes of one step until every read has succeeded.
type row struct {
	f      field.Field
	step   *trace.Step
	cells  []builder.Cell
	values []constraint.Element
	err    error
}

func newRow(region *layout.Region, step *trace.Step) *row {
	return &row{f: region.Field(), step: step}
}

func (r *row) set(c builder.Cell, v constraint.Element) {
	r.cells = append(r.cells, c)
	r.values = append(r.values, v)
}

// value buffers a stack value, recording the first encoding error.
func (r *row) value(c builder.Cell, v trace.Value) {
	e, err := encode(r.f, r.step, v)
	if err != nil && r.err == nil {
		r.err = err
	}
	r.set(c, e)
}

func (r *row) u64(c builder.Cell, v uint64) {
	r.value(c, trace.Value(v))
}

func (r *row) flag(c builder.Cell, b bool) {
	r.set(c, field.FromBool(r.f, b))
}

func (r *row) commit(region *layout.Region, offset int) error {
	if r.err != nil {
		return r.err
	}
	for i, c := range r.cells {
		if err := c.Assign(region, offset, r.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// curr reads the current window into vs, stopping at the first failure.
func curr(step *trace.Step, vs ...*trace.Value) error {
	for i, v := range vs {
		x, err := step.CurrNthStackValue(i)
		if err != nil {
			return err
		}
		*v = x
	}
	return nil
}
