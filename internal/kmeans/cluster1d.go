package kmeans

import (
	"context"
	"slices"

	"github.com/hupe1980/sog/table"
)

// PaletteSize is the number of entries in a Cluster1D codebook.
const PaletteSize = 256

// Codebook is the outcome of Cluster1D.
type Codebook struct {
	// Values is sorted ascending. It has PaletteSize entries unless the
	// input held fewer values.
	Values []float32

	// Labels has one uint8 column per input column, with the input names.
	Labels *table.Table
}

// Cluster1D quantizes every value of t against one shared scalar codebook.
//
// The columns are concatenated into a single column, clustered into
// PaletteSize centroids, and the codebook is sorted ascending with labels
// remapped to match.
func Cluster1D(ctx context.Context, t *table.Table, cfg Config) (*Codebook, error) {
	rows, cols := t.NumRows(), t.NumColumns()

	stacked := make([]float32, 0, rows*cols)
	for _, c := range t.Columns() {
		if f32, ok := c.Float32s(); ok {
			stacked = append(stacked, f32...)
			continue
		}
		for i := 0; i < rows; i++ {
			stacked = append(stacked, float32(c.Data.At(i)))
		}
	}

	src, err := table.New(table.NewColumn("data", stacked))
	if err != nil {
		return nil, err
	}

	res, err := Run(ctx, src, PaletteSize, cfg)
	if err != nil {
		return nil, err
	}

	values := centroidValues(res.Centroids.Column(0))

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case values[a] < values[b]:
			return -1
		case values[a] > values[b]:
			return 1
		}
		return 0
	})

	sorted := make([]float32, len(values))
	inv := make([]uint8, len(values))
	for i, o := range order {
		sorted[i] = values[o]
		inv[o] = uint8(i)
	}

	labelCols := make([]*table.Column, cols)
	for c, name := range t.ColumnNames() {
		dst := make([]uint8, rows)
		for i, l := range res.Labels[c*rows : (c+1)*rows] {
			dst[i] = inv[l]
		}
		labelCols[c] = table.NewColumn(name, dst)
	}

	labels, err := table.New(labelCols...)
	if err != nil {
		return nil, err
	}

	return &Codebook{Values: sorted, Labels: labels}, nil
}

func centroidValues(c *table.Column) []float32 {
	if f32, ok := c.Float32s(); ok {
		return f32
	}
	f64 := c.Float64s()
	out := make([]float32, len(f64))
	for i, v := range f64 {
		out[i] = float32(v)
	}
	return out
}
