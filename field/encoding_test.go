package field

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/consensys/gnark/constraint"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field/bn254"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field/m31"
)

func TestIntegerRoundTrip(t *testing.T) {
	f := &bn254.Field{}
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 256; i++ {
		b := uint8(i)
		got, err := ToU8(f, FromU8(f, b))
		require.NoError(t, err)
		require.Equal(t, b, got)
	}

	u32s := []uint32{0, 1, math.MaxUint32, 1 << 31}
	for i := 0; i < 100; i++ {
		u32s = append(u32s, rnd.Uint32())
	}
	for _, v := range u32s {
		e, err := FromU32(f, v)
		require.NoError(t, err)
		got, err := ToU32(f, e)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	u64s := []uint64{0, 1, math.MaxUint64, 1 << 63}
	for i := 0; i < 100; i++ {
		u64s = append(u64s, rnd.Uint64())
	}
	for _, v := range u64s {
		e, err := FromU64(f, v)
		require.NoError(t, err)
		got, err := ToU64(f, e)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestSignedEncoding(t *testing.T) {
	f := &bn254.Field{}

	e, err := FromI32(f, -1)
	require.NoError(t, err)
	v, err := ToU64(f, e)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint32), v)

	e, err = FromI64(f, -1)
	require.NoError(t, err)
	v, err = ToU64(f, e)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	for _, x := range []int64{0, 1, -1, -42, math.MaxInt64, math.MinInt64 + 1} {
		e, err := FromSigned(f, x)
		require.NoError(t, err)
		got, err := ToSigned(f, e)
		require.NoError(t, err)
		require.Equal(t, x, got)
	}
	minusOne, _ := FromSigned(f, -1)
	require.Equal(t, f.Neg(f.One()), minusOne)
}

func TestOutOfRangeEncoding(t *testing.T) {
	small := &m31.Field{}

	_, err := FromU64(small, math.MaxUint64)
	require.ErrorIs(t, err, ErrValueDecode)
	_, err = FromU32(small, m31.P)
	require.ErrorIs(t, err, ErrValueDecode)
	e, err := FromU32(small, m31.P-1)
	require.NoError(t, err)
	got, err := ToU32(small, e)
	require.NoError(t, err)
	require.Equal(t, uint32(m31.P-1), got)

	f := &bn254.Field{}
	wide := f.FromInterface(new(big.Int).Lsh(big.NewInt(1), 64))
	_, err = ToU64(f, wide)
	require.ErrorIs(t, err, ErrValueDecode)

	e, _ = FromU64(f, 1<<40)
	_, err = ToU32(f, e)
	require.ErrorIs(t, err, ErrValueDecode)
	_, err = ToU8(f, f.FromInterface(256))
	require.ErrorIs(t, err, ErrValueDecode)
}

func TestWordPacking(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	words := []*uint256.Int{
		uint256.NewInt(0),
		uint256.NewInt(1),
		new(uint256.Int).SetAllOne(),
	}
	for i := 0; i < 32; i++ {
		var b [32]byte
		rnd.Read(b[:])
		words = append(words, new(uint256.Int).SetBytes32(b[:]))
	}

	for _, f := range []Field{&bn254.Field{}, &m31.Field{}} {
		p := NewWordPacking(f)
		require.Equal(t, PackingV1, p.Version)
		for _, w := range words {
			limbs, err := p.Pack(f, w)
			require.NoError(t, err)
			require.Len(t, limbs, p.Limbs())
			got, err := p.Unpack(f, limbs)
			require.NoError(t, err)
			require.True(t, got.Eq(w), "word %s", w.Hex())
		}
	}

	require.Equal(t, WordPacking{Version: PackingV1, LimbBits: 128}, NewWordPacking(&bn254.Field{}))
	require.Equal(t, WordPacking{Version: PackingV1, LimbBits: 16}, NewWordPacking(&m31.Field{}))
}

func TestWordPackingLimbLayout(t *testing.T) {
	f := &bn254.Field{}
	p := NewWordPacking(f)
	var root [32]byte
	root[31] = 0x01 // least significant byte
	root[15] = 0x02 // lowest byte of the high limb
	limbs, err := p.PackBytes(f, root)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), f.ToBigInt(limbs[0]))
	require.Equal(t, big.NewInt(2), f.ToBigInt(limbs[1]))
}

func TestWordUnpackRejectsMalformed(t *testing.T) {
	f := &bn254.Field{}
	p := NewWordPacking(f)

	_, err := p.Unpack(f, []constraint.Element{{}})
	require.ErrorIs(t, err, ErrValueDecode)

	tooWide := f.FromInterface(new(big.Int).Lsh(big.NewInt(1), 128))
	_, err = p.Unpack(f, []constraint.Element{tooWide, {}})
	require.ErrorIs(t, err, ErrValueDecode)

	_, err = WordPacking{Version: 2, LimbBits: 128}.Pack(f, uint256.NewInt(1))
	require.Error(t, err)
}
