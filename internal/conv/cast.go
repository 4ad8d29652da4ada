package conv

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// Integer is the set of integer types Checked converts between.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Checked converts v to D. It fails with ErrOverflow when the value changes.
func Checked[D, S Integer](v S) (D, error) {
	d := D(v)
	if S(d) != v || (v < 0) != (d < 0) {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, v, d)
	}
	return d, nil
}

// Rows converts a row count to the uint32 index space of permutations and
// label arrays.
func Rows(n int) (uint32, error) {
	return Checked[uint32](n)
}
