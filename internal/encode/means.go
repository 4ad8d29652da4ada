package encode

import (
	"math"

	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/table"
)

// Means holds the encoded positions.
type Means struct {
	// Lower and Upper carry the low and high bytes of the 16-bit values.
	Lower, Upper *plane.Plane

	// Mins and Maxs are the per-axis bounds in log space.
	Mins, Maxs [3]float64
}

// LogTransform returns sign(v)*ln(1+|v|).
func LogTransform(v float64) float64 {
	if v < 0 {
		return -math.Log1p(-v)
	}
	return math.Log1p(v)
}

// InverseLogTransform undoes LogTransform.
func InverseLogTransform(t float64) float64 {
	if t < 0 {
		return -math.Expm1(-t)
	}
	return math.Expm1(t)
}

// EncodeMeans quantizes x, y and z to 16 bits in log space.
func EncodeMeans(t *table.Table, l Layout) (*Means, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	cols, err := columns(t, MeanColumns)
	if err != nil {
		return nil, err
	}

	m := &Means{Lower: l.plane(), Upper: l.plane()}
	for a := range m.Mins {
		m.Mins[a], m.Maxs[a] = math.Inf(1), math.Inf(-1)
	}

	for _, ri := range l.Indices {
		for a, c := range cols {
			v := LogTransform(c.Data.At(int(ri)))
			m.Mins[a] = min(m.Mins[a], v)
			m.Maxs[a] = max(m.Maxs[a], v)
		}
	}

	var q [3]uint16
	for i, ri := range l.Indices {
		for a, c := range cols {
			q[a] = QuantizeMean(LogTransform(c.Data.At(int(ri))), m.Mins[a], m.Maxs[a])
		}
		m.Lower.Set(i, uint8(q[0]), uint8(q[1]), uint8(q[2]), 0xff)
		m.Upper.Set(i, uint8(q[0]>>8), uint8(q[1]>>8), uint8(q[2]>>8), 0xff)
	}

	return m, nil
}

// QuantizeMean maps a log-space value in [lo,hi] to 16 bits, truncating.
func QuantizeMean(v, lo, hi float64) uint16 {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	q := 65535 * (v - lo) / span
	if !(q > 0) {
		return 0
	}
	if q >= 65535 {
		return 65535
	}
	return uint16(q)
}

// DecodeMean reconstructs a coordinate from its plane bytes and bounds.
func DecodeMean(lower, upper uint8, lo, hi float64) float64 {
	q := float64(uint16(upper)<<8 | uint16(lower))
	return InverseLogTransform(lo + q/65535*(hi-lo))
}
