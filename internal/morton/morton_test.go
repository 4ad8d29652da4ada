package morton

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog/table"
)

func newXYZ(t *testing.T, x, y, z []float32) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewColumn("x", x),
		table.NewColumn("y", y),
		table.NewColumn("z", z),
	)
	require.NoError(t, err)
	return tbl
}

func assertPermutation(t *testing.T, indices []uint32, n int) {
	t.Helper()
	require.Len(t, indices, n)
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	for i, v := range sorted {
		require.Equal(t, uint32(i), v)
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, uint32(0), Encode(0, 0, 0))
	assert.Equal(t, uint32(1), Encode(1, 0, 0))
	assert.Equal(t, uint32(2), Encode(0, 1, 0))
	assert.Equal(t, uint32(4), Encode(0, 0, 1))
	assert.Equal(t, uint32(7), Encode(1, 1, 1))
	assert.Equal(t, uint32(8), Encode(2, 0, 0))
	assert.Equal(t, uint32(1<<30-1), Encode(1023, 1023, 1023))
	// bits above the 10-bit grid are ignored
	assert.Equal(t, Encode(1, 2, 3), Encode(1024+1, 2048+2, 4096+3))
}

func TestIndicesPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 5000
	x, y, z := make([]float32, n), make([]float32, n), make([]float32, n)
	for i := range x {
		x[i] = rng.Float32()*100 - 50
		y[i] = rng.Float32() * 3
		z[i] = float32(rng.NormFloat64())
	}

	indices, err := Indices(newXYZ(t, x, y, z))
	require.NoError(t, err)
	assertPermutation(t, indices, n)
}

func TestIndicesGroupsClusters(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 400
	x, y, z := make([]float32, n), make([]float32, n), make([]float32, n)
	for i := range x {
		// interleave rows of two separated clusters
		off := float32(0)
		if i%2 == 1 {
			off = 1000
		}
		x[i] = off + rng.Float32()
		y[i] = off + rng.Float32()
		z[i] = off + rng.Float32()
	}

	indices, err := Indices(newXYZ(t, x, y, z))
	require.NoError(t, err)
	assertPermutation(t, indices, n)

	// the output switches cluster exactly once
	switches := 0
	for i := 1; i < n; i++ {
		if indices[i]%2 != indices[i-1]%2 {
			switches++
		}
	}
	assert.Equal(t, 1, switches)
}

func TestIndicesDegenerate(t *testing.T) {
	t.Run("Coincident", func(t *testing.T) {
		x := []float32{1, 1, 1, 1}
		indices, err := Indices(newXYZ(t, x, slices.Clone(x), slices.Clone(x)))
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1, 2, 3}, indices)
	})

	t.Run("NonFinite", func(t *testing.T) {
		inf := float32(math.Inf(1))
		indices, err := Indices(newXYZ(t,
			[]float32{3, inf, 1},
			[]float32{0, 0, 0},
			[]float32{0, 0, 0},
		))
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1, 2}, indices)
	})

	t.Run("Empty", func(t *testing.T) {
		indices, err := Indices(newXYZ(t, []float32{}, []float32{}, []float32{}))
		require.NoError(t, err)
		assert.Empty(t, indices)
	})
}

func TestIndicesRefinesTies(t *testing.T) {
	// one far outlier squeezes every other point into the same grid cell
	const n = 1000
	x, y, z := make([]float32, n+1), make([]float32, n+1), make([]float32, n+1)
	for i := 0; i < n; i++ {
		x[i] = float32(n - i)
	}
	x[n], y[n], z[n] = 1e9, 1e9, 1e9

	indices, err := Indices(newXYZ(t, x, y, z))
	require.NoError(t, err)
	assertPermutation(t, indices, n+1)

	// refinement sorts the dense run by x ascending
	for i := 1; i < n; i++ {
		assert.Less(t, x[indices[i-1]], x[indices[i]])
	}
	assert.Equal(t, uint32(n), indices[n])
}

func TestSortMissingColumn(t *testing.T) {
	tbl, err := table.New(table.NewColumn("x", []float32{1}), table.NewColumn("y", []float32{1}))
	require.NoError(t, err)

	_, err = Indices(tbl)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestSortNonFloat32Columns(t *testing.T) {
	tbl, err := table.New(
		table.NewColumn("x", []int16{5, 0, 10}),
		table.NewColumn("y", []float64{0, 0, 0}),
		table.NewColumn("z", []uint8{0, 0, 0}),
	)
	require.NoError(t, err)

	indices, err := Indices(tbl)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 0, 2}, indices)
}
