package builder

import (
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
)

// Cell is an advice column seen from a gadget.
type Cell struct {
	Column layout.Column
	cs     *ConstraintSystem
}

// Expr is the cell at the current row.
func (c Cell) Expr() expr.Expression {
	return c.cs.Query(c.Column, 0)
}

// Next is the cell at the following row.
func (c Cell) Next() expr.Expression {
	return c.cs.Query(c.Column, 1)
}

func (c Cell) Rot(rotation int) expr.Expression {
	return c.cs.Query(c.Column, rotation)
}

func (c Cell) Assign(region *layout.Region, offset int, v constraint.Element) error {
	return region.Assign(c.Column, offset, v)
}

func (c Cell) AssignU64(region *layout.Region, offset int, v uint64) error {
	e, err := field.FromU64(region.Field(), v)
	if err != nil {
		return err
	}
	return region.Assign(c.Column, offset, e)
}

func (c Cell) AssignBool(region *layout.Region, offset int, b bool) error {
	return region.Assign(c.Column, offset, field.FromBool(region.Field(), b))
}

// Common are the columns shared by every row: counters, the decoded
// instruction and the stack windows before and after the step.
type Common struct {
	Step      Cell
	Pc        Cell
	Sp        Cell
	Opcode    Cell
	Imm       Cell
	StackCurr []Cell
	StackNext []Cell
}

// NewCommon allocates the common columns for a stack window of w slots.
func NewCommon(cs *ConstraintSystem, w int) *Common {
	if w < 3 {
		panic(fmt.Sprintf("stack window %d is smaller than the widest pop", w))
	}
	c := &Common{
		Step:   cs.NewCell("step"),
		Pc:     cs.NewCell("pc"),
		Sp:     cs.NewCell("sp"),
		Opcode: cs.NewCell("opcode"),
		Imm:    cs.NewCell("imm"),
	}
	for i := 0; i < w; i++ {
		c.StackCurr = append(c.StackCurr, cs.NewCell(fmt.Sprintf("stack_curr[%d]", i)))
	}
	for i := 0; i < w; i++ {
		c.StackNext = append(c.StackNext, cs.NewCell(fmt.Sprintf("stack_next[%d]", i)))
	}
	return c
}

func (c *Common) Window() int {
	return len(c.StackCurr)
}

// CellPool is the set of advice columns gadgets draw their cells from.
// Gadgets own disjoint rows, so the i-th cell of every gadget shares
// column i and the pool is as wide as the widest gadget.
type CellPool struct {
	cs      *ConstraintSystem
	columns []layout.Column
}

func NewCellPool(cs *ConstraintSystem) *CellPool {
	return &CellPool{cs: cs}
}

func (p *CellPool) Cell(i int) Cell {
	for len(p.columns) <= i {
		p.columns = append(p.columns, p.cs.NewColumn(layout.Advice, fmt.Sprintf("cell[%d]", len(p.columns))))
	}
	return Cell{Column: p.columns[i], cs: p.cs}
}

func (p *CellPool) Len() int {
	return len(p.columns)
}
