package m31

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArithmeticAgainstBigInt(t *testing.T) {
	f := &Field{}
	rnd := rand.New(rand.NewSource(31))
	edge := []uint64{0, 1, 2, P - 1, P - 2, 1 << 30}
	sample := func(i int) uint64 {
		if i < len(edge) {
			return edge[i]
		}
		return uint64(rnd.Int63n(P))
	}
	check := func(want *big.Int, got uint64, msg string) {
		want.Mod(want, ScalarField)
		require.Equal(t, want.Uint64(), got, msg)
	}
	for i := 0; i < 200; i++ {
		x, y := sample(i), sample(len(edge)-1-i%len(edge))
		a, b := f.FromInterface(x), f.FromInterface(y)
		bx, by := new(big.Int).SetUint64(x), new(big.Int).SetUint64(y)

		check(new(big.Int).Add(bx, by), f.Add(a, b)[0], "add")
		check(new(big.Int).Sub(bx, by), f.Sub(a, b)[0], "sub")
		check(new(big.Int).Mul(bx, by), f.Mul(a, b)[0], "mul")
		check(new(big.Int).Neg(bx), f.Neg(a)[0], "neg")

		inv, ok := f.Inverse(a)
		require.Equal(t, x != 0, ok)
		if ok {
			require.True(t, f.IsOne(f.Mul(a, inv)), "inverse of %d", x)
		}
	}
	require.Equal(t, uint64(3), f.FromInterface(P+3)[0])
	require.Equal(t, uint64(P-1), f.FromInterface(-1)[0])
}
