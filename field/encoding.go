package field

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/consensys/gnark/constraint"
)

// ErrValueDecode is returned when a value cannot round-trip through the
// fixed-width encoding a cell assumes.
var ErrValueDecode = errors.New("value decode failure")

func fits(f Field, v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(f.Field()) < 0
}

// FromU64 zero-extends v into a field element.
func FromU64(f Field, v uint64) (constraint.Element, error) {
	if f.FieldBitLen() <= 64 && !fits(f, new(big.Int).SetUint64(v)) {
		return constraint.Element{}, fmt.Errorf("%w: %d does not fit a %d-bit field", ErrValueDecode, v, f.FieldBitLen())
	}
	return f.FromInterface(v), nil
}

func FromU32(f Field, v uint32) (constraint.Element, error) {
	return FromU64(f, uint64(v))
}

func FromU8(f Field, v uint8) constraint.Element {
	return f.FromInterface(uint64(v))
}

func FromBool(f Field, b bool) constraint.Element {
	if b {
		return f.One()
	}
	return constraint.Element{}
}

// FromI32 encodes the 32-bit two's complement pattern of v, zero-extended.
func FromI32(f Field, v int32) (constraint.Element, error) {
	return FromU64(f, uint64(uint32(v)))
}

// FromI64 encodes the 64-bit two's complement pattern of v.
func FromI64(f Field, v int64) (constraint.Element, error) {
	return FromU64(f, uint64(v))
}

// FromSigned maps v to v mod p, so negative numbers become p-|v|.
func FromSigned(f Field, v int64) (constraint.Element, error) {
	abs := new(big.Int).Abs(big.NewInt(v))
	if !fits(f, abs) {
		return constraint.Element{}, fmt.Errorf("%w: |%d| does not fit a %d-bit field", ErrValueDecode, v, f.FieldBitLen())
	}
	return f.FromInterface(v), nil
}

func ToU64(f Field, e constraint.Element) (uint64, error) {
	v, ok := f.Uint64(e)
	if !ok {
		return 0, fmt.Errorf("%w: %s is wider than 64 bits", ErrValueDecode, f.String(e))
	}
	return v, nil
}

func ToU32(f Field, e constraint.Element) (uint32, error) {
	v, err := ToU64(f, e)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d is wider than 32 bits", ErrValueDecode, v)
	}
	return uint32(v), nil
}

func ToU8(f Field, e constraint.Element) (uint8, error) {
	v, err := ToU64(f, e)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %d is wider than 8 bits", ErrValueDecode, v)
	}
	return uint8(v), nil
}

// ToSigned inverts FromSigned.
func ToSigned(f Field, e constraint.Element) (int64, error) {
	v := f.ToBigInt(e)
	if v.IsInt64() {
		return v.Int64(), nil
	}
	neg := new(big.Int).Sub(f.Field(), v)
	if neg.IsInt64() {
		return -neg.Int64(), nil
	}
	return 0, fmt.Errorf("%w: %s is not a signed 64-bit value", ErrValueDecode, v.String())
}
