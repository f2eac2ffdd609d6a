package builder

import (
	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/expr"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/layout"
	"github.com/PolyhedraZK/rwasm-zkcircuit/tables"
)

// Bytes is a little-endian byte decomposition, each byte range checked.
type Bytes struct {
	Cells []Cell
	cs    *ConstraintSystem
}

func (cb *OpConstraintBuilder) QueryBytes(n int) Bytes {
	b := Bytes{Cells: cb.QueryCells(n), cs: cb.cs}
	for _, c := range b.Cells {
		cb.RangeCheck("byte", c.Expr(), tables.Range8)
	}
	return b
}

func (cb *OpConstraintBuilder) QueryU32() Bytes {
	return cb.QueryBytes(4)
}

func (cb *OpConstraintBuilder) QueryU64() Bytes {
	return cb.QueryBytes(8)
}

// Expr is the value the bytes compose.
func (b Bytes) Expr() expr.Expression {
	return b.Range(0, len(b.Cells))
}

// Range composes bytes [from, to) into a value, byte from being the least
// significant.
func (b Bytes) Range(from, to int) expr.Expression {
	terms := make([]expr.Expression, 0, to-from)
	for i := from; i < to; i++ {
		terms = append(terms, b.cs.Scale(b.Cells[i].Expr(), uint64(1)<<(8*(i-from))))
	}
	return b.cs.Add(terms...)
}

func (b Bytes) Byte(i int) expr.Expression {
	return b.Cells[i].Expr()
}

func (b Bytes) Assign(region *layout.Region, offset int, v uint64) error {
	for i, c := range b.Cells {
		if err := region.Assign(c.Column, offset, field.FromU8(region.Field(), uint8(v>>(8*i)))); err != nil {
			return err
		}
	}
	return nil
}

// IsZero is one exactly when value is zero, witnessed by value's inverse.
type IsZero struct {
	value expr.Expression
	inv   Cell
	cs    *ConstraintSystem
}

func (cb *OpConstraintBuilder) IsZero(value expr.Expression) IsZero {
	z := IsZero{value: value, inv: cb.QueryCell(), cs: cb.cs}
	cb.Constrain("is_zero", cb.cs.Mul(value, z.Expr()))
	return z
}

func (z IsZero) Expr() expr.Expression {
	return z.cs.Sub(z.cs.One(), z.cs.Mul(z.value, z.inv.Expr()))
}

// Assign writes the inverse of value, or zero.
func (z IsZero) Assign(region *layout.Region, offset int, value constraint.Element) error {
	f := region.Field()
	inv, ok := f.Inverse(value)
	if !ok {
		inv = constraint.Element{}
	}
	return z.inv.Assign(region, offset, inv)
}
