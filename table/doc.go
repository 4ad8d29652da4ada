// Package table provides the in-memory columnar container passed between
// the stages of a SOG export.
//
// A Table is an ordered list of named columns that all share one row count.
// Each column wraps a typed numeric buffer:
//
//	x := table.NewColumn("x", []float32{0, 1, 2})
//	y := table.NewColumn("y", []float32{0, 1, 2})
//	t, err := table.New(x, y)
//
// Rows are addressed by index. GetRow and SetRow move values through a Row
// map so that stages do not depend on one another's internal layouts.
package table
