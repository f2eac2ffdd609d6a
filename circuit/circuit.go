// Package circuit assembles the execution circuit: it lays out the common
// columns and one selector per execution state, configures every gadget
// and ties consecutive rows together. Assign turns a trace into a witness.
package circuit

import (
	"fmt"

	"github.com/PolyhedraZK/rwasm-zkcircuit/builder"
	"github.com/PolyhedraZK/rwasm-zkcircuit/execstate"
	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/opcodes"
)

type Circuit struct {
	Config
	CS     *builder.ConstraintSystem
	Common *builder.Common
	// Selectors[s] is one on the rows owned by state s.
	Selectors   []builder.Cell
	QFirst      layout.Column
	QTransition layout.Column
	// Roots holds the packed state roots before and after the trace.
	Roots layout.Column

	gadgets   []opcodes.ExecutionGadget
	summaries []builder.Summary
}

// Configure builds the constraint system. It does not look at any trace.
func Configure(opts ...Option) (*Circuit, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	cs := builder.NewConstraintSystem(cfg.Field)
	c := &Circuit{
		Config: cfg,
		CS:     cs,
		Common: builder.NewCommon(cs, cfg.StackWindow),
	}
	states := execstate.All()
	for _, s := range states {
		c.Selectors = append(c.Selectors, cs.NewCell("q_"+s.String()))
	}
	c.QFirst = cs.NewColumn(layout.Fixed, "q_first")
	c.QTransition = cs.NewColumn(layout.Fixed, "q_transition")
	c.Roots = cs.NewColumn(layout.Instance, "state_roots")

	pool := builder.NewCellPool(cs)
	configures := opcodes.Gadgets()
	for _, s := range states {
		configure, ok := configures[s]
		if !ok {
			panic(fmt.Sprintf("no gadget for %s", s))
		}
		cb := builder.NewOpConstraintBuilder(cs, c.Common, pool, s, c.Selectors[s].Expr())
		g := configure(cb)
		if g.ExecutionState() != s {
			panic(fmt.Sprintf("gadget %s configured for %s", g.Name(), s))
		}
		c.gadgets = append(c.gadgets, g)
		c.summaries = append(c.summaries, cb.Finalize())
	}
	c.configureTransitions()

	stats := cs.GetStats()
	cfg.Logger.Info().
		Int("nbAdvice", stats.NbAdvice).
		Int("nbFixed", stats.NbFixed).
		Int("nbInstance", stats.NbInstance).
		Int("nbGates", stats.NbGates).
		Int("nbLookups", stats.NbLookups).
		Int("degree", stats.Degree).
		Int("nbCells", pool.Len()).
		Msg("configured execution circuit")
	return c, nil
}

func (c *Circuit) configureTransitions() {
	cs := c.CS
	one := cs.One()
	qFirst := cs.Query(c.QFirst, 0)
	qT := cs.Query(c.QTransition, 0)
	step := c.Common.Step
	pad := c.Selectors[execstate.Padding]

	var sum []expr.Expression
	for i, s := range c.Selectors {
		sum = append(sum, s.Expr())
		cs.AddGate(fmt.Sprintf("selector_bool[%d]", i), cs.Mul(s.Expr(), cs.Sub(one, s.Expr())))
	}
	cs.AddGate("selector_one_hot", cs.Sub(cs.Add(sum...), one))

	cs.AddGate("first_step", cs.Mul(qFirst, step.Expr()))
	stepDelta := cs.Sub(step.Next(), step.Expr())
	cs.AddGate("step_increment", cs.Mul(qT, cs.Sub(one, pad.Expr()), cs.Sub(stepDelta, one)))
	cs.AddGate("padding_step", cs.Mul(qT, pad.Expr(), stepDelta))
	cs.AddGate("padding_tail", cs.Mul(qT, pad.Expr(), cs.Sub(one, pad.Next())))

	sp, pc := c.Common.Sp, c.Common.Pc
	for _, s := range c.summaries {
		sel := c.Selectors[s.State].Expr()
		cs.AddGate(s.State.String()+"/sp_transition",
			cs.Mul(qT, sel, cs.Sub(sp.Next(), cs.Add(sp.Expr(), s.StackDelta))))
		cs.AddGate(s.State.String()+"/pc_transition",
			cs.Mul(qT, sel, cs.Sub(pc.Next(), s.NextPc)))
	}
	for i := range c.Common.StackNext {
		cs.AddGate(fmt.Sprintf("stack_transition[%d]", i),
			cs.Mul(qT, cs.Sub(c.Common.StackNext[i].Expr(), c.Common.StackCurr[i].Next())))
	}
}

// Gadget returns the gadget owning state s.
func (c *Circuit) Gadget(s execstate.ExecutionState) opcodes.ExecutionGadget {
	return c.gadgets[s]
}

// Summary returns the configuration summary of state s.
func (c *Circuit) Summary(s execstate.ExecutionState) builder.Summary {
	return c.summaries[s]
}
