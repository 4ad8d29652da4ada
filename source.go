package sog

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/sog/table"
)

// Source is one input of an export. *table.Table implements it.
type Source interface {
	NumRows() int
	HasColumn(name string) bool
	ColumnByName(name string) (*table.Column, bool)
}

var _ Source = (*table.Table)(nil)

// Filter reports whether row of sources[source] is exported.
// A nil Filter selects every row.
type Filter func(source, row int) bool

// All selects every row.
func All() Filter {
	return func(int, int) bool { return true }
}

// Bitmaps selects the rows set in bitmaps[source]. Sources without a
// bitmap (index out of range or nil) contribute no rows.
func Bitmaps(bitmaps []*roaring.Bitmap) Filter {
	return func(source, row int) bool {
		if source >= len(bitmaps) || bitmaps[source] == nil {
			return false
		}
		return bitmaps[source].Contains(uint32(row))
	}
}

// Masks selects the rows whose bit is set in masks[source]. Sources without
// a mask contribute no rows.
func Masks(masks []*bitset.BitSet) Filter {
	return func(source, row int) bool {
		if source >= len(masks) || masks[source] == nil {
			return false
		}
		return masks[source].Test(uint(row))
	}
}

// Not inverts f.
func Not(f Filter) Filter {
	if f == nil {
		f = All()
	}
	return func(source, row int) bool { return !f(source, row) }
}
