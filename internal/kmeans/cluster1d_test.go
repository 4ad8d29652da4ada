package kmeans

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog/table"
)

func TestCluster1D(t *testing.T) {
	rng := seeded(5)
	const n = 3000
	cols := make([]*table.Column, 3)
	for c, name := range []string{"scale_0", "scale_1", "scale_2"} {
		vals := make([]float32, n)
		for i := range vals {
			vals[i] = float32(rng.NormFloat64()*2 - 4 + float64(c))
		}
		cols[c] = table.NewColumn(name, vals)
	}
	src, err := table.New(cols...)
	require.NoError(t, err)

	cb, err := Cluster1D(context.Background(), src, Config{Iterations: 6, Rand: rng})
	require.NoError(t, err)

	require.Len(t, cb.Values, PaletteSize)
	for i := 1; i < len(cb.Values); i++ {
		assert.LessOrEqual(t, cb.Values[i-1], cb.Values[i])
	}

	assert.Equal(t, src.ColumnNames(), cb.Labels.ColumnNames())
	require.Equal(t, n, cb.Labels.NumRows())

	// labels decode to values near their source
	var sumErr, maxErr float64
	for c := 0; c < 3; c++ {
		labels, ok := cb.Labels.Column(c).Uint8s()
		require.True(t, ok)
		vals, _ := src.Column(c).Float32s()
		for i, l := range labels {
			e := math.Abs(float64(vals[i] - cb.Values[l]))
			sumErr += e
			maxErr = max(maxErr, e)
		}
	}
	assert.Less(t, sumErr/(3*n), 0.05)
	assert.Less(t, maxErr, 1.0)
}

func TestCluster1D_FewValues(t *testing.T) {
	src, err := table.New(
		table.NewColumn("a", []float32{3, 1}),
		table.NewColumn("b", []float32{2, -1}),
	)
	require.NoError(t, err)

	cb, err := Cluster1D(context.Background(), src, Config{})
	require.NoError(t, err)

	assert.Equal(t, []float32{-1, 1, 2, 3}, cb.Values)

	a, _ := cb.Labels.Column(0).Uint8s()
	b, _ := cb.Labels.Column(1).Uint8s()
	assert.Equal(t, []uint8{3, 1}, a)
	assert.Equal(t, []uint8{2, 0}, b)
}

func TestCluster1D_ExactValues(t *testing.T) {
	// fewer distinct values than palette entries are reproduced exactly
	vals := make([]float32, 1024)
	for i := range vals {
		vals[i] = float32(i % 16)
	}
	src, err := table.New(table.NewColumn("v", vals))
	require.NoError(t, err)

	cb, err := Cluster1D(context.Background(), src, Config{Iterations: 3, Rand: seeded(2)})
	require.NoError(t, err)

	labels, _ := cb.Labels.Column(0).Uint8s()
	for i, l := range labels {
		assert.Equal(t, vals[i], cb.Values[l])
	}
	for _, v := range cb.Values {
		assert.False(t, math.IsNaN(float64(v)))
	}
}
