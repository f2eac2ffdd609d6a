package field

import (
	"fmt"

	"github.com/consensys/gnark/constraint"
	"github.com/holiman/uint256"
)

// PackingV1 is the first word packing convention: little-endian limbs, limb
// width the largest power of two up to 128 bits that is strictly narrower than
// the field.
const PackingV1 uint8 = 1

// WordPacking splits 256-bit words across field elements.
type WordPacking struct {
	Version  uint8
	LimbBits uint
}

// NewWordPacking returns the PackingV1 convention for f.
func NewWordPacking(f Field) WordPacking {
	bits := uint(1)
	for bits*2 <= 128 && int(bits*2) < f.FieldBitLen() {
		bits *= 2
	}
	return WordPacking{Version: PackingV1, LimbBits: bits}
}

// Limbs is the number of field elements one word occupies.
func (p WordPacking) Limbs() int {
	return int((256 + p.LimbBits - 1) / p.LimbBits)
}

func (p WordPacking) validate(f Field) error {
	if p.Version != PackingV1 {
		return fmt.Errorf("unsupported word packing version %d", p.Version)
	}
	if p.LimbBits == 0 || int(p.LimbBits) >= f.FieldBitLen() {
		return fmt.Errorf("limb width %d does not fit a %d-bit field", p.LimbBits, f.FieldBitLen())
	}
	return nil
}

func (p WordPacking) mask() *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), p.LimbBits)
	return m.SubUint64(m, 1)
}

// Pack splits w into Limbs() elements, least significant limb first.
func (p WordPacking) Pack(f Field, w *uint256.Int) ([]constraint.Element, error) {
	if err := p.validate(f); err != nil {
		return nil, err
	}
	mask := p.mask()
	res := make([]constraint.Element, p.Limbs())
	cur := new(uint256.Int).Set(w)
	for i := range res {
		limb := new(uint256.Int).And(cur, mask)
		res[i] = f.FromInterface(limb.ToBig())
		cur.Rsh(cur, p.LimbBits)
	}
	return res, nil
}

// PackBytes packs a big-endian 32-byte word, e.g. a state root.
func (p WordPacking) PackBytes(f Field, b [32]byte) ([]constraint.Element, error) {
	return p.Pack(f, new(uint256.Int).SetBytes32(b[:]))
}

// Unpack inverts Pack and rejects limbs wider than LimbBits.
func (p WordPacking) Unpack(f Field, limbs []constraint.Element) (*uint256.Int, error) {
	if err := p.validate(f); err != nil {
		return nil, err
	}
	if len(limbs) != p.Limbs() {
		return nil, fmt.Errorf("%w: expected %d limbs, got %d", ErrValueDecode, p.Limbs(), len(limbs))
	}
	res := new(uint256.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		v := f.ToBigInt(limbs[i])
		if v.BitLen() > int(p.LimbBits) {
			return nil, fmt.Errorf("%w: limb %d has %d bits", ErrValueDecode, i, v.BitLen())
		}
		limb, _ := uint256.FromBig(v)
		res.Lsh(res, p.LimbBits)
		res.Or(res, limb)
	}
	return res, nil
}
