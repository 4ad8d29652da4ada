package encode

import (
	"context"
	"math"

	"github.com/hupe1980/sog/internal/kmeans"
	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/table"
)

// Palette is a plane of codebook labels plus the codebook.
type Palette struct {
	Plane    *plane.Plane
	Codebook []float32
}

// EncodeScales quantizes scale_0..2 against one shared 256-entry codebook.
func EncodeScales(ctx context.Context, t *table.Table, l Layout, cfg kmeans.Config) (*Palette, error) {
	cb, err := cluster(ctx, t, l, ScaleColumns, cfg)
	if err != nil {
		return nil, err
	}

	r, g, b := labelColumns(cb.Labels)
	p := l.plane()
	for i := range l.Indices {
		p.Set(i, r[i], g[i], b[i], 0xff)
	}
	return &Palette{Plane: p, Codebook: cb.Values}, nil
}

// EncodeColors quantizes f_dc_0..2 against one shared 256-entry codebook
// and stores sigmoid(opacity) in alpha.
func EncodeColors(ctx context.Context, t *table.Table, l Layout, cfg kmeans.Config) (*Palette, error) {
	opacity, ok := t.ColumnByName(OpacityColumn)
	if !ok {
		_, err := columns(t, []string{OpacityColumn})
		return nil, err
	}

	cb, err := cluster(ctx, t, l, ColorColumns, cfg)
	if err != nil {
		return nil, err
	}

	r, g, b := labelColumns(cb.Labels)
	p := l.plane()
	for i, ri := range l.Indices {
		p.Set(i, r[i], g[i], b[i], Opacity8(opacity.Data.At(int(ri))))
	}
	return &Palette{Plane: p, Codebook: cb.Values}, nil
}

// Opacity8 maps a logit opacity to a byte, truncating.
func Opacity8(v float64) uint8 {
	a := Sigmoid(v) * 255
	if !(a > 0) {
		return 0
	}
	return uint8(min(255, a))
}

// Sigmoid is the logistic function.
func Sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func cluster(ctx context.Context, t *table.Table, l Layout, names []string, cfg kmeans.Config) (*kmeans.Codebook, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	src, err := t.Gather(l.Indices, names...)
	if err != nil {
		return nil, err
	}
	return kmeans.Cluster1D(ctx, src, cfg)
}

func labelColumns(t *table.Table) (r, g, b []uint8) {
	r, _ = t.Column(0).Uint8s()
	g, _ = t.Column(1).Uint8s()
	b, _ = t.Column(2).Uint8s()
	return r, g, b
}
