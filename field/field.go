// Package field wraps the prime fields circuit cells live in and fixes how
// trace data (bytes, 32/64-bit integers and 256-bit words) is encoded into them.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field/bn254"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field/m31"
)

type Field interface {
	constraint.Field
	Field() *big.Int
	FieldBitLen() int
	SerializedLen() int
}

func GetFieldFromOrder(x *big.Int) Field {
	f, err := FromOrder(x)
	if err != nil {
		panic(err)
	}
	return f
}

// FromOrder returns the engine for the field of order x.
func FromOrder(x *big.Int) (Field, error) {
	if x.Cmp(bn254.ScalarField) == 0 {
		return &bn254.Field{}, nil
	}
	if x.Cmp(m31.ScalarField) == 0 {
		return &m31.Field{}, nil
	}
	return nil, fmt.Errorf("unknown field %v", x)
}

// Default is the field the execution circuit is configured over unless told otherwise.
func Default() Field {
	return &bn254.Field{}
}
