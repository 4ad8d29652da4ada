package encode

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog/table"
)

func identity(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

func TestLogTransform(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 0.5, -123.25, 1e4} {
		tv := LogTransform(v)
		assert.Equal(t, math.Signbit(v), math.Signbit(tv))
		assert.InDelta(t, math.Log(1+math.Abs(v)), math.Abs(tv), 1e-12)
		assert.InDelta(t, v, InverseLogTransform(tv), 1e-9*max(1, math.Abs(v)))
	}
}

func TestQuantizeMean(t *testing.T) {
	assert.Equal(t, uint16(0), QuantizeMean(-1, -1, 1))
	assert.Equal(t, uint16(65535), QuantizeMean(1, -1, 1))
	assert.Equal(t, uint16(32767), QuantizeMean(0, -1, 1))
	assert.Equal(t, uint16(0), QuantizeMean(-5, -1, 1))
	assert.Equal(t, uint16(65535), QuantizeMean(5, -1, 1))
	// zero extent divides by one
	assert.Equal(t, uint16(0), QuantizeMean(2, 2, 2))
	assert.Equal(t, uint16(0), QuantizeMean(math.NaN(), 0, 1))
}

func TestEncodeMeansRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 500
	xs, ys, zs := make([]float32, n), make([]float32, n), make([]float32, n)
	for i := 0; i < n; i++ {
		xs[i] = float32(rng.NormFloat64() * 30)
		ys[i] = float32(rng.Float64()*10 - 2)
		zs[i] = 7
	}
	tbl, err := table.New(table.NewColumn("x", xs), table.NewColumn("y", ys), table.NewColumn("z", zs))
	require.NoError(t, err)

	// reverse order exercises the permutation
	indices := identity(n)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		indices[i], indices[j] = indices[j], indices[i]
	}
	l := NewLayout(indices)

	m, err := EncodeMeans(tbl, l)
	require.NoError(t, err)
	assert.Equal(t, LogTransform(7), m.Mins[2])
	assert.Equal(t, LogTransform(7), m.Maxs[2])

	for i, ri := range indices {
		lr, lg, lb, la := m.Lower.At(i)
		ur, ug, ub, ua := m.Upper.At(i)
		assert.Equal(t, uint8(0xff), la)
		assert.Equal(t, uint8(0xff), ua)

		for a, pair := range [][2]uint8{{lr, ur}, {lg, ug}, {lb, ub}} {
			src := [][]float32{xs, ys, zs}[a][ri]
			got := DecodeMean(pair[0], pair[1], m.Mins[a], m.Maxs[a])

			// error bound is one quantization step in log space
			step := (m.Maxs[a] - m.Mins[a]) / 65535
			assert.InDelta(t, LogTransform(float64(src)), LogTransform(got), step+1e-12, "axis %d row %d", a, ri)
		}
	}

	// padding pixels stay zero
	r, g, b, a := m.Lower.At(n)
	assert.Zero(t, uint32(r)+uint32(g)+uint32(b)+uint32(a))
}

func TestEncodeMeansMissingColumn(t *testing.T) {
	tbl, err := table.New(table.NewColumn("x", []float32{1}))
	require.NoError(t, err)

	_, err = EncodeMeans(tbl, NewLayout(identity(1)))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}
