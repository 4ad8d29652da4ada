// Package morton orders rows along a Z-order curve so that spatially
// nearby points end up adjacent.
package morton

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/sog/table"
)

const (
	// gridMax is the largest quantized coordinate on the 10-bit grid.
	gridMax = 1023

	// maxRun is the longest run of equal codes left unrefined.
	maxRun = 256
)

// ErrMissingColumn is returned when the table lacks an x, y or z column.
var ErrMissingColumn = errors.New("morton: missing coordinate column")

// Indices returns the identity permutation of t's rows sorted in Morton order.
func Indices(t *table.Table) ([]uint32, error) {
	indices := make([]uint32, t.NumRows())
	for i := range indices {
		indices[i] = uint32(i)
	}
	if err := Sort(t, indices); err != nil {
		return nil, err
	}
	return indices, nil
}

// Sort reorders indices in place by Morton code of the referenced rows.
func Sort(t *table.Table, indices []uint32) error {
	var axes [3][]float32
	for i, name := range []string{"x", "y", "z"} {
		c, ok := t.ColumnByName(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		if f32, ok := c.Float32s(); ok {
			axes[i] = f32
			continue
		}
		f64 := c.Float64s()
		f32 := make([]float32, len(f64))
		for j, v := range f64 {
			f32[j] = float32(v)
		}
		axes[i] = f32
	}

	s := &sorter{x: axes[0], y: axes[1], z: axes[2]}
	s.sort(indices)
	return nil
}

type sorter struct {
	x, y, z []float32
}

func (s *sorter) sort(indices []uint32) {
	if len(indices) == 0 {
		return
	}

	r0 := indices[0]
	minX, maxX := s.x[r0], s.x[r0]
	minY, maxY := s.y[r0], s.y[r0]
	minZ, maxZ := s.z[r0], s.z[r0]
	for _, ri := range indices[1:] {
		x, y, z := s.x[ri], s.y[ri], s.z[ri]
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
		minZ, maxZ = min(minZ, z), max(maxZ, z)
	}

	lenX := float64(maxX) - float64(minX)
	lenY := float64(maxY) - float64(minY)
	lenZ := float64(maxZ) - float64(minZ)

	if !finite(lenX) || !finite(lenY) || !finite(lenZ) {
		return
	}

	// all points coincide
	if lenX == 0 && lenY == 0 && lenZ == 0 {
		return
	}

	mulX, mulY, mulZ := multiplier(lenX), multiplier(lenY), multiplier(lenZ)

	n := len(indices)
	codes := make([]uint32, n)
	for i, ri := range indices {
		ix := quantize(float64(s.x[ri])-float64(minX), mulX)
		iy := quantize(float64(s.y[ri])-float64(minY), mulY)
		iz := quantize(float64(s.z[ri])-float64(minZ), mulZ)
		codes[i] = Encode(ix, iy, iz)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case codes[a] < codes[b]:
			return -1
		case codes[a] > codes[b]:
			return 1
		}
		return 0
	})

	tmp := slices.Clone(indices)
	for i, o := range order {
		indices[i] = tmp[o]
	}

	// refine long runs of equal codes
	for start := 0; start < n; {
		end := start + 1
		for end < n && codes[order[end]] == codes[order[start]] {
			end++
		}
		if end-start > maxRun {
			s.sort(indices[start:end])
		}
		start = end
	}
}

func multiplier(extent float64) float64 {
	if extent == 0 {
		return 0
	}
	return 1024 / extent
}

func quantize(offset, mul float64) uint32 {
	v := offset * mul
	if !(v > 0) {
		return 0
	}
	return uint32(min(gridMax, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Encode interleaves three 10-bit coordinates into a 30-bit Morton code.
func Encode(x, y, z uint32) uint32 {
	return part1by2(z)<<2 + part1by2(y)<<1 + part1by2(x)
}

// part1by2 spreads the low 10 bits of v so that two zero bits separate each.
func part1by2(v uint32) uint32 {
	v &= 0x000003ff
	v = (v ^ (v << 16)) & 0xff0000ff
	v = (v ^ (v << 8)) & 0x0300f00f
	v = (v ^ (v << 4)) & 0x030c30c3
	v = (v ^ (v << 2)) & 0x09249249
	return v
}
