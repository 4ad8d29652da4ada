package encode

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/sog/internal/kmeans"
	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/table"
)

// MaxSHBands is the highest supported spherical-harmonic band.
const MaxSHBands = 3

// maxSHCoefficients is the number of f_rest columns at MaxSHBands.
const maxSHCoefficients = 45

// coeffsPerBand maps a band count to coefficients per color channel.
var coeffsPerBand = [MaxSHBands + 1]int{0, 3, 8, 15}

// SHCoefficients returns the number of coefficients per color channel for
// the given band count.
func SHCoefficients(bands int) int {
	if bands < 0 || bands > MaxSHBands {
		return 0
	}
	return coeffsPerBand[bands]
}

// SHColumnName returns the name of the i-th f_rest column.
func SHColumnName(i int) string {
	return fmt.Sprintf("f_rest_%d", i)
}

// DetectSHBands returns the number of bands whose f_rest columns are all
// present in t. Columns are expected to be contiguous from f_rest_0.
func DetectSHBands(t interface{ HasColumn(string) bool }) int {
	first := -1
	for i := 0; i < maxSHCoefficients; i++ {
		if !t.HasColumn(SHColumnName(i)) {
			first = i
			break
		}
	}
	switch first {
	case 9:
		return 1
	case 24:
		return 2
	case -1:
		return 3
	default:
		return 0
	}
}

// SHColumns returns the f_rest columns holding the first bands of a source
// that stores srcBands. Names are ordered red coefficients first, then
// green, then blue.
func SHColumns(srcBands, bands int) []string {
	src, dst := SHCoefficients(srcBands), SHCoefficients(bands)
	if dst > src {
		dst = src
	}
	names := make([]string, 0, dst*3)
	for c := 0; c < 3; c++ {
		for j := 0; j < dst; j++ {
			names = append(names, SHColumnName(c*src+j))
		}
	}
	return names
}

// SHPaletteSize returns the stage-one palette size for n rows:
// min(64, 2^floor(log2(n/1024))) * 1024.
func SHPaletteSize(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Min(64, math.Exp2(math.Floor(math.Log2(float64(n)/1024)))) * 1024)
}

// SH holds the encoded spherical harmonics.
type SH struct {
	// Centroids renders the stage-one palette through the stage-two codebook.
	Centroids *plane.Plane

	// Labels holds each row's 16-bit palette index.
	Labels *plane.Plane

	// Count is the stage-one palette size.
	Count int

	// Bands is the number of encoded bands.
	Bands int

	// Codebook is the stage-two scalar codebook.
	Codebook []float32
}

// EncodeSH quantizes the named f_rest columns in two stages. names must be
// ordered as returned by SHColumns.
func EncodeSH(ctx context.Context, t *table.Table, l Layout, bands int, names []string, cfg kmeans.Config) (*SH, error) {
	coeffs := SHCoefficients(bands)
	if coeffs == 0 || len(names) != coeffs*3 {
		return nil, fmt.Errorf("encode: %d sh columns for %d bands", len(names), bands)
	}
	if err := l.check(); err != nil {
		return nil, err
	}

	src, err := t.Gather(l.Indices, names...)
	if err != nil {
		return nil, err
	}

	count := SHPaletteSize(len(l.Indices))
	stage1, err := kmeans.Run(ctx, src, count, cfg)
	if err != nil {
		return nil, err
	}

	stage2, err := kmeans.Cluster1D(ctx, stage1.Centroids, cfg)
	if err != nil {
		return nil, err
	}

	k := stage1.Centroids.NumRows()
	centroids := plane.New(64*coeffs, (k+63)/64)
	labelCols := make([][]uint8, len(names))
	for c := range labelCols {
		labelCols[c], _ = stage2.Labels.Column(c).Uint8s()
	}
	for i := 0; i < k; i++ {
		for j := 0; j < coeffs; j++ {
			centroids.Set(i*coeffs+j, labelCols[j][i], labelCols[coeffs+j][i], labelCols[2*coeffs+j][i], 0xff)
		}
	}

	labels := l.plane()
	for i, label := range stage1.Labels {
		labels.Set(i, uint8(label), uint8(label>>8), 0, 0xff)
	}

	return &SH{
		Centroids: centroids,
		Labels:    labels,
		Count:     count,
		Bands:     bands,
		Codebook:  stage2.Values,
	}, nil
}
