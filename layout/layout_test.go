package layout

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
	"github.com/PolyhedraZK/rwasm-zkcircuit/field/m31"
)

func TestRegionWriteOnce(t *testing.T) {
	f := field.Default()
	r := NewRegion(f, Shape{Advice: 2, Fixed: 1, Instance: 1}, 4)
	a := Column{Kind: Advice, Index: 1}

	require.False(t, r.IsAssigned(a, 2))
	require.False(t, r.RowAssigned(2))
	require.NoError(t, r.Assign(a, 2, f.One()))
	require.True(t, r.IsAssigned(a, 2))
	require.True(t, r.RowAssigned(2))
	require.Equal(t, f.One(), r.Value(a, 2))

	require.ErrorIs(t, r.Assign(a, 2, f.One()), ErrCellReassigned)
	require.ErrorIs(t, r.Assign(a, 4, f.One()), ErrOutOfRegion)
	require.ErrorIs(t, r.Assign(Column{Kind: Fixed, Index: 1}, 0, f.One()), ErrOutOfRegion)
	outside := r.Value(a, -1)
	require.True(t, outside.IsZero())
}

func TestRegionParallelRows(t *testing.T) {
	f := field.Default()
	const rows = 64
	r := NewRegion(f, Shape{Advice: 3}, rows)
	var wg sync.WaitGroup
	for row := 0; row < rows; row++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			for c := 0; c < 3; c++ {
				assert.NoError(t, r.Assign(Column{Kind: Advice, Index: c}, row, f.FromInterface(row*3+c)))
			}
		}(row)
	}
	wg.Wait()
	w := r.Witness()
	for row := 0; row < rows; row++ {
		require.Equal(t, f.FromInterface(row*3+2), w.Advice[2][row])
	}
}

func TestWitnessSerialize(t *testing.T) {
	for _, f := range []field.Field{field.Default(), &m31.Field{}} {
		r := NewRegion(f, Shape{Advice: 2, Fixed: 1, Instance: 1}, 2)
		require.NoError(t, r.Assign(Column{Kind: Advice, Index: 0}, 1, f.Neg(f.One())))
		require.NoError(t, r.Assign(Column{Kind: Fixed, Index: 0}, 0, f.One()))
		require.NoError(t, r.Assign(Column{Kind: Instance, Index: 0}, 1, f.FromInterface(12345)))
		w := r.Witness()

		b := w.Serialize()
		got, err := DeserializeWitness(b)
		require.NoError(t, err)
		require.Equal(t, w.Rows, got.Rows)
		require.Equal(t, w.Advice, got.Advice)
		require.Equal(t, w.Fixed, got.Fixed)
		require.Equal(t, w.Instance, got.Instance)
		require.Equal(t, 0, w.Field.Field().Cmp(got.Field.Field()))

		_, err = DeserializeWitness(b[:len(b)-1])
		require.Error(t, err)
	}
}

func TestWitnessClone(t *testing.T) {
	f := field.Default()
	r := NewRegion(f, Shape{Advice: 1}, 1)
	w := r.Witness()
	c := w.Clone()
	c.Set(Column{Kind: Advice}, 0, f.One())
	orig := w.Value(Column{Kind: Advice}, 0)
	require.True(t, orig.IsZero())
	require.Equal(t, f.One(), c.Value(Column{Kind: Advice}, 0))
}
