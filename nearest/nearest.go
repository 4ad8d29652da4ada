package nearest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sog/internal/f16"
)

const (
	// DefaultBatchSize is the number of rows dispatched per batch
	// (1024 workgroups of 64 rows).
	DefaultBatchSize = 1024 * 64

	// ChunkSize is the number of centroids scanned together.
	ChunkSize = 128
)

// ErrShape is returned when buffer lengths do not agree with the dimension.
var ErrShape = errors.New("nearest: invalid buffer shape")

// Searcher labels each point with the index of its nearest centroid.
//
// points holds n rows and centroids k rows, both row-major with dim columns.
// labels must have room for n entries. Implementations must not retain the
// buffers after Assign returns.
type Searcher interface {
	Assign(ctx context.Context, points, centroids []float32, dim int, labels []uint32) error
}

// Option configures a CPU searcher.
type Option func(*CPU)

// WithWorkers sets the number of goroutines used per batch.
// Values below 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *CPU) {
		c.workers = n
	}
}

// WithBatchSize sets the number of rows per batch.
func WithBatchSize(n int) Option {
	return func(c *CPU) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithISA forces the distance kernel for the given instruction set instead
// of the one picked from DetectCapabilities.
func WithISA(isa ISA) Option {
	return func(c *CPU) {
		c.isa = isa
		c.isaSet = true
	}
}

// WithHalfPrecision rounds points and centroids through binary16 before
// comparing them.
func WithHalfPrecision(enabled bool) Option {
	return func(c *CPU) {
		c.half = enabled
	}
}

// CPU is a multi-goroutine brute-force Searcher.
type CPU struct {
	workers   int
	batchSize int
	half      bool
	isa       ISA
	isaSet    bool
	distance  func(a, b []float32) float32
}

var _ Searcher = (*CPU)(nil)

// NewCPU creates a CPU searcher.
func NewCPU(optFns ...Option) *CPU {
	c := &CPU{
		batchSize: DefaultBatchSize,
	}
	for _, fn := range optFns {
		fn(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	if !c.isaSet {
		c.isa = DetectCapabilities().Best()
	}
	c.distance = kernelFor(c.isa)
	return c
}

// kernelFor returns the distance kernel used for isa.
func kernelFor(isa ISA) func(a, b []float32) float32 {
	switch isa {
	case NEON, SVE2, AVX2, AVX512:
		return squaredL2Unrolled
	default:
		return SquaredL2
	}
}

// Workers returns the number of goroutines used per batch.
func (c *CPU) Workers() int { return c.workers }

// ISA returns the instruction set the distance kernel was selected for.
func (c *CPU) ISA() ISA { return c.isa }

// HalfPrecision reports whether binary16 scratch is enabled.
func (c *CPU) HalfPrecision() bool { return c.half }

// Assign implements Searcher.
func (c *CPU) Assign(ctx context.Context, points, centroids []float32, dim int, labels []uint32) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dim %d", ErrShape, dim)
	}
	if len(points)%dim != 0 || len(centroids)%dim != 0 {
		return fmt.Errorf("%w: buffers not a multiple of dim %d", ErrShape, dim)
	}
	n, k := len(points)/dim, len(centroids)/dim
	if k == 0 && n > 0 {
		return fmt.Errorf("%w: no centroids", ErrShape)
	}
	if len(labels) < n {
		return fmt.Errorf("%w: %d labels for %d points", ErrShape, len(labels), n)
	}

	// the whole centroid set lives in scratch for the duration of the job
	scratch := centroids
	if c.half {
		scratch = make([]float32, len(centroids))
		f16.RoundSlice(scratch, centroids)
	}

	var batch []float32
	if c.half {
		batch = make([]float32, min(n, c.batchSize)*dim)
	}

	for start := 0; start < n; start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+c.batchSize, n)
		rows := points[start*dim : end*dim]
		if c.half {
			f16.RoundSlice(batch, rows)
			rows = batch[:len(rows)]
		}

		if err := c.assignBatch(ctx, rows, scratch, dim, labels[start:end]); err != nil {
			return err
		}
	}

	return nil
}

// assignBatch splits one batch across workers and waits for all of them.
func (c *CPU) assignBatch(ctx context.Context, rows, centroids []float32, dim int, labels []uint32) error {
	n := len(rows) / dim
	if n == 0 {
		return nil
	}
	per := (n + c.workers - 1) / c.workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for lo := 0; lo < n; lo += per {
		hi := min(lo+per, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scan(rows[lo*dim:hi*dim], centroids, dim, labels[lo:hi], c.distance)
			return nil
		})
	}

	return g.Wait()
}

// scan labels rows against centroids one chunk at a time.
func scan(rows, centroids []float32, dim int, labels []uint32, distance func(a, b []float32) float32) {
	n, k := len(rows)/dim, len(centroids)/dim

	best := make([]float32, n)
	for i := range best {
		best[i] = math.MaxFloat32
		labels[i] = 0
	}

	for c0 := 0; c0 < k; c0 += ChunkSize {
		c1 := min(c0+ChunkSize, k)
		chunk := centroids[c0*dim : c1*dim]

		for i := 0; i < n; i++ {
			row := rows[i*dim : (i+1)*dim]
			bestDist, bestIdx := best[i], labels[i]
			for j := 0; j < c1-c0; j++ {
				d := distance(row, chunk[j*dim:(j+1)*dim])
				if d < bestDist {
					bestDist = d
					bestIdx = uint32(c0 + j)
				}
			}
			best[i], labels[i] = bestDist, bestIdx
		}
	}
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// squaredL2Unrolled is SquaredL2 with eight independent accumulators, which
// the compiler keeps in vector-width registers on wide SIMD targets.
func squaredL2Unrolled(a, b []float32) float32 {
	n := len(a)
	b = b[:n]

	var s0, s1, s2, s3, s4, s5, s6, s7 float32
	i := 0
	for ; i+8 <= n; i += 8 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		d4 := a[i+4] - b[i+4]
		d5 := a[i+5] - b[i+5]
		d6 := a[i+6] - b[i+6]
		d7 := a[i+7] - b[i+7]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
		s4 += d4 * d4
		s5 += d5 * d5
		s6 += d6 * d6
		s7 += d7 * d7
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		s0 += d * d
	}

	return (s0 + s1) + (s2 + s3) + (s4 + s5) + (s6 + s7)
}
