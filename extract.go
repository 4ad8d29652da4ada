package sog

import (
	"fmt"

	"github.com/hupe1980/sog/internal/conv"
	"github.com/hupe1980/sog/internal/encode"
	"github.com/hupe1980/sog/table"
)

// extract copies the selected rows of all sources into one float32 table.
//
// The table holds the required attribute columns plus the f_rest columns of
// the exported bands, laid out as SHColumns(bands, bands). The band count is
// the smallest one found among the sources that contribute rows, capped at
// maxBands.
func extract(sources []Source, filter Filter, maxBands int) (*table.Table, int, error) {
	if len(sources) == 0 {
		return nil, 0, ErrNoSources
	}
	if filter == nil {
		filter = All()
	}

	selected := make([][]uint32, len(sources))
	total := 0
	bands := maxBands
	for si, src := range sources {
		for _, name := range encode.RequiredColumns {
			if !src.HasColumn(name) {
				return nil, 0, &MissingColumnError{Source: si, Column: name}
			}
		}

		if _, err := conv.Rows(src.NumRows()); err != nil {
			return nil, 0, fmt.Errorf("sog: source %d: %w", si, err)
		}

		var rows []uint32
		for r := 0; r < src.NumRows(); r++ {
			if filter(si, r) {
				rows = append(rows, uint32(r))
			}
		}
		if len(rows) == 0 {
			continue
		}
		selected[si] = rows
		total += len(rows)
		bands = min(bands, encode.DetectSHBands(src))
	}

	if total == 0 {
		return nil, 0, ErrNothingToExport
	}
	if _, err := conv.Rows(total); err != nil {
		return nil, 0, fmt.Errorf("sog: selected rows: %w", err)
	}

	names := append(append([]string(nil), encode.RequiredColumns...), encode.SHColumns(bands, bands)...)
	dst := make([][]float32, len(names))
	for i := range dst {
		dst[i] = make([]float32, total)
	}

	offset := 0
	for si, src := range sources {
		rows := selected[si]
		if len(rows) == 0 {
			continue
		}

		srcNames := append(append([]string(nil), encode.RequiredColumns...), encode.SHColumns(encode.DetectSHBands(src), bands)...)
		for c, name := range srcNames {
			col, ok := src.ColumnByName(name)
			if !ok {
				return nil, 0, &MissingColumnError{Source: si, Column: name}
			}
			gather(dst[c][offset:offset+len(rows)], col, rows)
		}
		offset += len(rows)
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = table.NewColumn(name, dst[i])
	}
	tbl, err := table.New(cols...)
	if err != nil {
		return nil, 0, err
	}
	return tbl, bands, nil
}

func gather(dst []float32, col *table.Column, rows []uint32) {
	if f32, ok := col.Float32s(); ok {
		for i, r := range rows {
			dst[i] = f32[r]
		}
		return
	}
	for i, r := range rows {
		dst[i] = float32(col.Data.At(int(r)))
	}
}
