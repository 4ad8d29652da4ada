// Package synth generates synthetic splat tables.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/sog/table"
)

// UnitQuaternion draws a uniformly distributed unit quaternion (w, x, y, z)
// with Shoemake's method.
func UnitQuaternion(rng *rand.Rand) [4]float64 {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	s1, s2 := math.Sqrt(1-u1), math.Sqrt(u1)
	return [4]float64{
		s2 * math.Cos(2*math.Pi*u3),
		s1 * math.Sin(2*math.Pi*u2),
		s1 * math.Cos(2*math.Pi*u2),
		s2 * math.Sin(2*math.Pi*u3),
	}
}

// Options shapes a synthetic splat table.
type Options struct {
	// SHBands adds f_rest columns for 0..3 bands.
	SHBands int

	// Clusters is the number of Gaussian blobs positions are drawn from.
	// Values below 1 draw a single blob.
	Clusters int

	// Spread is the standard deviation of each blob. Default 1.
	Spread float64

	// Extent is the range blob centers are drawn from. Default 100.
	Extent float64
}

var shCoefficients = [4]int{0, 3, 8, 15}

// Splats draws a float32 table with every column a SOG export reads:
// x, y, z, scale_0..2, rot_0..3, f_dc_0..2, opacity and f_rest_* for the
// requested bands.
func Splats(rng *rand.Rand, n int, opts Options) *table.Table {
	if opts.Clusters < 1 {
		opts.Clusters = 1
	}
	if opts.Spread <= 0 {
		opts.Spread = 1
	}
	if opts.Extent <= 0 {
		opts.Extent = 100
	}
	bands := max(0, min(opts.SHBands, 3))

	centers := make([][3]float64, opts.Clusters)
	for i := range centers {
		for a := range centers[i] {
			centers[i][a] = (rng.Float64()*2 - 1) * opts.Extent
		}
	}

	names := []string{
		"x", "y", "z",
		"scale_0", "scale_1", "scale_2",
		"rot_0", "rot_1", "rot_2", "rot_3",
		"f_dc_0", "f_dc_1", "f_dc_2",
		"opacity",
	}
	for i := 0; i < 3*shCoefficients[bands]; i++ {
		names = append(names, fmt.Sprintf("f_rest_%d", i))
	}

	data := make([][]float32, len(names))
	for i := range data {
		data[i] = make([]float32, n)
	}

	for i := 0; i < n; i++ {
		c := centers[rng.Intn(len(centers))]
		for a := 0; a < 3; a++ {
			data[a][i] = float32(c[a] + opts.Spread*rng.NormFloat64())
		}
		for a := 3; a < 6; a++ {
			data[a][i] = float32(-4 + rng.NormFloat64())
		}
		q := UnitQuaternion(rng)
		for a := 0; a < 4; a++ {
			data[6+a][i] = float32(q[a])
		}
		for a := 10; a < 13; a++ {
			data[a][i] = float32(0.5 * rng.NormFloat64())
		}
		data[13][i] = float32(2 * rng.NormFloat64())
		for a := 14; a < len(names); a++ {
			data[a][i] = float32(0.1 * rng.NormFloat64())
		}
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = table.NewColumn(name, data[i])
	}
	tbl, err := table.New(cols...)
	if err != nil {
		panic(err)
	}
	return tbl
}
