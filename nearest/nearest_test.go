package nearest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bruteForce(points, centroids []float32, dim int, distance func(a, b []float32) float32) []uint32 {
	n, k := len(points)/dim, len(centroids)/dim
	labels := make([]uint32, n)
	for i := 0; i < n; i++ {
		best := float32(0)
		for j := 0; j < k; j++ {
			d := distance(points[i*dim:(i+1)*dim], centroids[j*dim:(j+1)*dim])
			if j == 0 || d < best {
				best = d
				labels[i] = uint32(j)
			}
		}
	}
	return labels
}

func randomFloats(rng *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = rng.Float32()*20 - 10
	}
	return out
}

func TestCPUAssign(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name string
		n, k int
		dim  int
		opts []Option
	}{
		{"single column", 1000, 256, 1, nil},
		{"three columns", 777, 300, 3, []Option{WithWorkers(3)}},
		{"small batches", 1000, 17, 2, []Option{WithBatchSize(64), WithWorkers(4)}},
		{"one worker", 50, 5, 45, []Option{WithWorkers(1)}},
		{"more workers than rows", 3, 2, 3, []Option{WithWorkers(16)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := randomFloats(rng, tt.n*tt.dim)
			centroids := randomFloats(rng, tt.k*tt.dim)
			labels := make([]uint32, tt.n)

			s := NewCPU(tt.opts...)
			require.NoError(t, s.Assign(context.Background(), points, centroids, tt.dim, labels))
			assert.Equal(t, bruteForce(points, centroids, tt.dim, s.distance), labels)
		})
	}
}

func TestCPUAssignTiesPickLowestIndex(t *testing.T) {
	points := []float32{0, 0}
	centroids := []float32{1, 0, -1, 0, 0, 1}
	labels := make([]uint32, 1)

	require.NoError(t, NewCPU().Assign(context.Background(), points, centroids, 2, labels))
	assert.Equal(t, uint32(0), labels[0])
}

func TestCPUAssignHalfPrecision(t *testing.T) {
	points := []float32{0.1, 5.2, 9.9, -3}
	centroids := []float32{0, 5, 10, -3.0001}
	labels := make([]uint32, 4)

	s := NewCPU(WithHalfPrecision(true))
	assert.True(t, s.HalfPrecision())
	require.NoError(t, s.Assign(context.Background(), points, centroids, 1, labels))
	assert.Equal(t, []uint32{0, 1, 2, 3}, labels)

	// source buffers are left untouched
	assert.Equal(t, []float32{0.1, 5.2, 9.9, -3}, points)
	assert.Equal(t, []float32{0, 5, 10, -3.0001}, centroids)
}

func TestCPUAssignShapeErrors(t *testing.T) {
	s := NewCPU()
	ctx := context.Background()

	assert.ErrorIs(t, s.Assign(ctx, []float32{1}, []float32{1}, 0, make([]uint32, 1)), ErrShape)
	assert.ErrorIs(t, s.Assign(ctx, []float32{1, 2, 3}, []float32{1, 2}, 2, make([]uint32, 2)), ErrShape)
	assert.ErrorIs(t, s.Assign(ctx, []float32{1, 2}, nil, 1, make([]uint32, 2)), ErrShape)
	assert.ErrorIs(t, s.Assign(ctx, []float32{1, 2}, []float32{1}, 1, make([]uint32, 1)), ErrShape)

	// an empty batch is a no-op
	assert.NoError(t, s.Assign(ctx, nil, nil, 3, nil))
}

func TestCPUAssignCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCPU().Assign(ctx, []float32{1, 2}, []float32{1}, 1, make([]uint32, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectCapabilities(t *testing.T) {
	caps := DetectCapabilities()
	assert.NotEmpty(t, caps.Arch)
	assert.Contains(t, caps.String(), caps.Arch)
	assert.GreaterOrEqual(t, caps.Best(), Generic)
}

func TestNewCPUSelectsKernel(t *testing.T) {
	s := NewCPU()
	assert.Equal(t, DetectCapabilities().Best(), s.ISA())

	assert.Equal(t, Generic, NewCPU(WithISA(Generic)).ISA())
	assert.Equal(t, AVX2, NewCPU(WithISA(AVX2)).ISA())
}

func TestKernelsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	// integer coordinates keep every partial sum exact, so both kernels
	// must produce identical distances and labels
	intFloats := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(rng.Intn(21) - 10)
		}
		return out
	}

	for _, dim := range []int{1, 3, 8, 13, 45} {
		a, b := intFloats(dim), intFloats(dim)
		assert.Equal(t, SquaredL2(a, b), squaredL2Unrolled(a, b), "dim %d", dim)

		points := intFloats(500 * dim)
		centroids := intFloats(64 * dim)

		scalar := make([]uint32, 500)
		unrolled := make([]uint32, 500)
		require.NoError(t, NewCPU(WithISA(Generic)).Assign(context.Background(), points, centroids, dim, scalar))
		require.NoError(t, NewCPU(WithISA(AVX512)).Assign(context.Background(), points, centroids, dim, unrolled))
		assert.Equal(t, scalar, unrolled, "dim %d", dim)
	}
}
