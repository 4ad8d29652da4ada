package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/hupe1980/sog/nearest"
	"github.com/hupe1980/sog/resource"
	"github.com/hupe1980/sog/table"
)

// DefaultIterations is the number of Lloyd steps used when none is configured.
const DefaultIterations = 10

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("kmeans: k must be positive")

// Rand is the random source used for seeding and reseeding.
type Rand interface {
	Intn(n int) int
}

// Config controls a clustering call.
type Config struct {
	// Iterations is the exact number of Lloyd steps. Values below 1 run a
	// single step.
	Iterations int

	// Searcher assigns rows to centroids. Defaults to nearest.NewCPU().
	Searcher nearest.Searcher

	// Resources serializes compute jobs and accounts scratch memory.
	// May be nil.
	Resources *resource.Controller

	// Rand seeds initial centroids and reseeds empty clusters.
	// Defaults to a time-seeded source.
	Rand Rand

	// Progress, if set, is called after every Lloyd step.
	Progress func(step, total int)
}

func (c Config) withDefaults() Config {
	if c.Iterations < 1 {
		c.Iterations = 1
	}
	if c.Searcher == nil {
		c.Searcher = nearest.NewCPU()
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Result is the outcome of Run.
type Result struct {
	// Centroids has k rows and the column names of the input.
	Centroids *table.Table

	// Labels maps every input row to a centroid row.
	Labels []uint32
}

// Run clusters the rows of points into k groups.
//
// If points has fewer than k rows, clustering is skipped: the centroids are
// a copy of points and every row is labelled with its own index.
func Run(ctx context.Context, points *table.Table, k int, cfg Config) (*Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}

	n := points.NumRows()
	if n < k {
		labels := make([]uint32, n)
		for i := range labels {
			labels[i] = uint32(i)
		}
		return &Result{Centroids: points.Clone(), Labels: labels}, nil
	}

	cfg = cfg.withDefaults()
	rc := cfg.Resources
	dim := points.NumColumns()

	if rc != nil {
		if err := rc.AcquireCompute(ctx); err != nil {
			return nil, err
		}
		defer rc.ReleaseCompute()
	}

	scratch := scratchBytes(n, k, dim)
	if err := rc.AcquireMemory(scratch); err != nil {
		return nil, fmt.Errorf("kmeans: %d rows x %d columns, k=%d: %w", n, dim, k, err)
	}
	defer rc.ReleaseMemory(scratch)

	data := points.Interleave(nil)
	centroids := make([]float32, k*dim)
	if dim == 1 {
		seedQuantiles(data, centroids)
	} else {
		for i, ri := range pickIndices(cfg.Rand, n, k) {
			copy(centroids[i*dim:(i+1)*dim], data[ri*dim:(ri+1)*dim])
		}
	}

	labels := make([]uint32, n)
	sums := make([]float64, k*dim)
	counts := make([]int, k)

	for step := 1; step <= cfg.Iterations; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := cfg.Searcher.Assign(ctx, data, centroids, dim, labels); err != nil {
			return nil, err
		}

		update(data, dim, labels, centroids, sums, counts, cfg.Rand)

		if cfg.Progress != nil {
			cfg.Progress(step, cfg.Iterations)
		}
	}

	return &Result{Centroids: unpack(points.ColumnNames(), centroids, k), Labels: labels}, nil
}

// update moves every centroid to the mean of its rows. A centroid without
// rows is reseeded from a random row.
func update(data []float32, dim int, labels []uint32, centroids []float32, sums []float64, counts []int, rng Rand) {
	clear(sums)
	clear(counts)

	for i, l := range labels {
		row := data[i*dim : (i+1)*dim]
		acc := sums[int(l)*dim : (int(l)+1)*dim]
		for d, v := range row {
			acc[d] += float64(v)
		}
		counts[l]++
	}

	n := len(labels)
	for j, c := range counts {
		dst := centroids[j*dim : (j+1)*dim]
		if c == 0 {
			ri := rng.Intn(n)
			copy(dst, data[ri*dim:(ri+1)*dim])
			continue
		}
		for d := range dst {
			dst[d] = float32(sums[j*dim+d] / float64(c))
		}
	}
}

// seedQuantiles places centroid i at the centre of the i-th of k equal
// quantile ranges of the sorted values.
func seedQuantiles(values, centroids []float32) {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n, k := len(sorted), len(centroids)
	for i := range centroids {
		idx := (2*i + 1) * n / (2 * k)
		centroids[i] = sorted[min(idx, n-1)]
	}
}

// pickIndices selects m distinct indices from [0,n) with Floyd's algorithm.
func pickIndices(rng Rand, n, m int) []int {
	chosen := make(map[int]struct{}, m)
	out := make([]int, 0, m)
	for j := n - m; j < n; j++ {
		t := rng.Intn(j + 1)
		if _, ok := chosen[t]; ok {
			t = j
		}
		chosen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func unpack(names []string, centroids []float32, k int) *table.Table {
	dim := len(names)
	cols := make([]*table.Column, dim)
	for d, name := range names {
		vals := make([]float32, k)
		for j := range vals {
			vals[j] = centroids[j*dim+d]
		}
		cols[d] = table.NewColumn(name, vals)
	}
	t, _ := table.New(cols...)
	return t
}

// scratchBytes estimates the working set of one clustering call.
func scratchBytes(n, k, dim int) int64 {
	points := int64(n) * int64(dim) * 4
	centroids := int64(k) * int64(dim) * 4
	labels := int64(n) * 4
	sums := int64(k) * int64(dim) * 8
	counts := int64(k) * 8
	return points + centroids + labels + sums + counts
}
