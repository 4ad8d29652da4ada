package encode

import (
	"fmt"

	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/table"
)

// Column names consumed by the codecs.
var (
	MeanColumns     = []string{"x", "y", "z"}
	QuatColumns     = []string{"rot_0", "rot_1", "rot_2", "rot_3"}
	ScaleColumns    = []string{"scale_0", "scale_1", "scale_2"}
	ColorColumns    = []string{"f_dc_0", "f_dc_1", "f_dc_2"}
	OpacityColumn   = "opacity"
	RequiredColumns = concat(MeanColumns, ScaleColumns, ColorColumns, []string{OpacityColumn}, QuatColumns)
)

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Layout places the rows of a table on a plane.
type Layout struct {
	// Indices lists source rows in plane order.
	Indices []uint32

	// Width and Height are the plane dimensions.
	Width, Height int
}

// NewLayout creates a layout for indices using plane.Dimensions.
func NewLayout(indices []uint32) Layout {
	w, h := plane.Dimensions(len(indices))
	return Layout{Indices: indices, Width: w, Height: h}
}

func (l Layout) plane() *plane.Plane {
	return plane.New(l.Width, l.Height)
}

func (l Layout) check() error {
	if len(l.Indices) > l.Width*l.Height {
		return fmt.Errorf("encode: %d rows do not fit a %dx%d plane", len(l.Indices), l.Width, l.Height)
	}
	return nil
}

// columns looks up names in t.
func columns(t *table.Table, names []string) ([]*table.Column, error) {
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		c, ok := t.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", table.ErrUnknownColumn, name)
		}
		cols[i] = c
	}
	return cols, nil
}
