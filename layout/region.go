package layout

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
)

var (
	ErrCellReassigned = errors.New("cell assigned twice")
	ErrOutOfRegion    = errors.New("cell outside the region")
)

// Region is a write-once grid of field elements, stored column by column.
// Concurrent Assign calls are safe as long as they touch distinct rows.
type Region struct {
	field    field.Field
	rows     int
	values   [numKinds][][]constraint.Element
	assigned [numKinds][][]bool
}

func NewRegion(f field.Field, shape Shape, rows int) *Region {
	r := &Region{field: f, rows: rows}
	for k := ColumnKind(0); k < numKinds; k++ {
		n := shape.count(k)
		r.values[k] = make([][]constraint.Element, n)
		r.assigned[k] = make([][]bool, n)
		for i := 0; i < n; i++ {
			r.values[k][i] = make([]constraint.Element, rows)
			r.assigned[k][i] = make([]bool, rows)
		}
	}
	return r
}

func (r *Region) Field() field.Field {
	return r.field
}

func (r *Region) Rows() int {
	return r.rows
}

func (r *Region) check(col Column, offset int) error {
	if col.Kind >= numKinds || col.Index < 0 || col.Index >= len(r.values[col.Kind]) || offset < 0 || offset >= r.rows {
		return fmt.Errorf("%w: %s row %d", ErrOutOfRegion, col, offset)
	}
	return nil
}

// Assign writes v at (col, offset). Every cell can be written once.
func (r *Region) Assign(col Column, offset int, v constraint.Element) error {
	if err := r.check(col, offset); err != nil {
		return err
	}
	if r.assigned[col.Kind][col.Index][offset] {
		return fmt.Errorf("%w: %s row %d", ErrCellReassigned, col, offset)
	}
	r.values[col.Kind][col.Index][offset] = v
	r.assigned[col.Kind][col.Index][offset] = true
	return nil
}

// Value reads a cell; unassigned cells read as zero, as do rows outside the grid.
func (r *Region) Value(col Column, offset int) constraint.Element {
	if r.check(col, offset) != nil {
		return constraint.Element{}
	}
	return r.values[col.Kind][col.Index][offset]
}

func (r *Region) IsAssigned(col Column, offset int) bool {
	if r.check(col, offset) != nil {
		return false
	}
	return r.assigned[col.Kind][col.Index][offset]
}

// RowAssigned reports whether any advice cell of the row was written.
func (r *Region) RowAssigned(offset int) bool {
	for _, col := range r.assigned[Advice] {
		if offset >= 0 && offset < len(col) && col[offset] {
			return true
		}
	}
	return false
}

// Witness returns the grid. The region must not be written afterwards.
func (r *Region) Witness() *Witness {
	return &Witness{
		Field:    r.field,
		Rows:     r.rows,
		Advice:   r.values[Advice],
		Fixed:    r.values[Fixed],
		Instance: r.values[Instance],
	}
}
