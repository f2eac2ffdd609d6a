// Package m31 is the Mersenne-31 field. The execution circuit rejects it as
// too small; it serves the encoding and word packing of small fields.
package m31

import (
	"math/big"
	"strconv"

	"github.com/consensys/gnark/constraint"

	"github.com/PolyhedraZK/rwasm-zkcircuit/utils"
)

// P is 2^31 - 1.
const P = 1<<31 - 1

var ScalarField = big.NewInt(P)

// Field keeps an element reduced in limb 0, the other limbs zero.
type Field struct{}

func elem(x uint64) constraint.Element {
	return constraint.Element{x}
}

// reduce maps any x < 2^62 into [0, P) using 2^31 = 1 mod P.
func reduce(x uint64) uint64 {
	x = x>>31 + x&P
	x = x>>31 + x&P
	if x == P {
		return 0
	}
	return x
}

func pow(x, e uint64) uint64 {
	res := uint64(1)
	for ; e > 0; e >>= 1 {
		if e&1 == 1 {
			res = reduce(res * x)
		}
		x = reduce(x * x)
	}
	return res
}

func (*Field) FromInterface(i interface{}) constraint.Element {
	b := utils.FromInterface(i)
	return elem(b.Mod(&b, ScalarField).Uint64())
}

func (*Field) ToBigInt(c constraint.Element) *big.Int {
	return new(big.Int).SetUint64(c[0])
}

func (*Field) Mul(a, b constraint.Element) constraint.Element {
	return elem(reduce(a[0] * b[0]))
}

func (*Field) Add(a, b constraint.Element) constraint.Element {
	return elem(reduce(a[0] + b[0]))
}

func (*Field) Sub(a, b constraint.Element) constraint.Element {
	return elem(reduce(a[0] + P - b[0]))
}

func (*Field) Neg(a constraint.Element) constraint.Element {
	return elem(reduce(P - a[0]))
}

// Inverse is a^(P-2); zero has none.
func (*Field) Inverse(a constraint.Element) (constraint.Element, bool) {
	if a[0] == 0 {
		return a, false
	}
	return elem(pow(a[0], P-2)), true
}

func (*Field) IsOne(a constraint.Element) bool {
	return a[0] == 1
}

func (*Field) One() constraint.Element {
	return elem(1)
}

func (*Field) String(a constraint.Element) string {
	return strconv.FormatUint(a[0], 10)
}

func (*Field) Uint64(a constraint.Element) (uint64, bool) {
	return a[0], true
}

func (*Field) Field() *big.Int {
	return ScalarField
}

func (*Field) FieldBitLen() int {
	return 31
}

func (*Field) SerializedLen() int {
	return 4
}
