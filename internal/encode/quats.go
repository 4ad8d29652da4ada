package encode

import (
	"math"

	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/table"
)

// QuatTagBase is added to the index of the omitted component to form the
// alpha byte of a quaternion pixel.
const QuatTagBase = 252

var kept = [4][3]int{
	{1, 2, 3},
	{0, 2, 3},
	{0, 1, 3},
	{0, 1, 2},
}

// EncodeQuats packs rot_0..3 with the smallest-three layout.
func EncodeQuats(t *table.Table, l Layout) (*plane.Plane, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	cols, err := columns(t, QuatColumns)
	if err != nil {
		return nil, err
	}

	p := l.plane()
	var q [4]float64
	for i, ri := range l.Indices {
		for c, col := range cols {
			q[c] = col.Data.At(int(ri))
		}
		a, b, c, tag := PackQuat(q)
		p.Set(i, a, b, c, tag)
	}
	return p, nil
}

// PackQuat encodes a rotation as three bytes plus a tag byte.
//
// The quaternion is normalized and flipped so its largest component is
// positive. That component is dropped; the other three are scaled by √2
// into [-1,1] and stored as unorm8. A zero or non-finite quaternion encodes
// as the identity.
func PackQuat(q [4]float64) (a, b, c, tag uint8) {
	l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		q = [4]float64{1, 0, 0, 0}
		l = 1
	}
	for i := range q {
		q[i] /= l
	}

	largest := 0
	for i := 1; i < 4; i++ {
		if math.Abs(q[i]) > math.Abs(q[largest]) {
			largest = i
		}
	}

	sign := math.Sqrt2
	if q[largest] < 0 {
		sign = -math.Sqrt2
	}

	idx := kept[largest]
	return unorm8(q[idx[0]] * sign), unorm8(q[idx[1]] * sign), unorm8(q[idx[2]] * sign), QuatTagBase + uint8(largest)
}

// UnpackQuat reverses PackQuat. The result is unit length with a
// non-negative largest component.
func UnpackQuat(a, b, c, tag uint8) [4]float64 {
	largest := int(tag - QuatTagBase)
	if largest < 0 || largest > 3 {
		return [4]float64{1, 0, 0, 0}
	}

	var q [4]float64
	sum := 0.0
	for k, v := range [3]uint8{a, b, c} {
		x := (float64(v)/255*2 - 1) / math.Sqrt2
		q[kept[largest][k]] = x
		sum += x * x
	}
	q[largest] = math.Sqrt(max(0, 1-sum))
	return q
}

func unorm8(v float64) uint8 {
	return uint8(math.Round(min(255, max(0, 255*(v*0.5+0.5)))))
}
