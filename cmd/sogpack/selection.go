package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/sog"
)

// parseSelection builds per-source row bitmaps from expr.
//
// expr is a ';' separated list of SOURCE:RANGES groups where RANGES is a ','
// separated list of rows or inclusive row ranges, e.g. "0:0-99,150;1:7".
// Sources without a group keep all of their rows.
func parseSelection(expr string, sources []sog.Source) ([]*roaring.Bitmap, error) {
	bitmaps := make([]*roaring.Bitmap, len(sources))

	for _, group := range strings.Split(expr, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		srcStr, ranges, ok := strings.Cut(group, ":")
		if !ok {
			return nil, fmt.Errorf("select group %q: missing source index", group)
		}
		src, err := strconv.Atoi(strings.TrimSpace(srcStr))
		if err != nil || src < 0 || src >= len(sources) {
			return nil, fmt.Errorf("select group %q: invalid source index", group)
		}
		if bitmaps[src] == nil {
			bitmaps[src] = roaring.New()
		}
		if err := addRanges(bitmaps[src], ranges, sources[src].NumRows()); err != nil {
			return nil, fmt.Errorf("select group %q: %w", group, err)
		}
	}

	for i, bm := range bitmaps {
		if bm == nil {
			bm = roaring.New()
			bm.AddRange(0, uint64(sources[i].NumRows())) //nolint:gosec
			bitmaps[i] = bm
		}
	}
	return bitmaps, nil
}

func addRanges(bm *roaring.Bitmap, ranges string, rows int) error {
	for _, part := range strings.Split(ranges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		loStr, hiStr, isRange := strings.Cut(part, "-")
		lo, err := strconv.ParseUint(loStr, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid row %q", part)
		}
		hi := lo
		if isRange {
			if hi, err = strconv.ParseUint(hiStr, 10, 32); err != nil || hi < lo {
				return fmt.Errorf("invalid range %q", part)
			}
		}
		if hi >= uint64(rows) { //nolint:gosec
			return fmt.Errorf("row %d out of range (source has %d rows)", hi, rows)
		}
		bm.AddRange(lo, hi+1)
	}
	return nil
}
