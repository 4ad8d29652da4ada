package table

import (
	"errors"
	"fmt"
)

var (
	// ErrNoColumns is returned when a table is constructed without columns.
	ErrNoColumns = errors.New("table: at least one column is required")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("table: duplicate column name")

	// ErrUnknownColumn is returned when a named column does not exist.
	ErrUnknownColumn = errors.New("table: unknown column")

	// ErrNilColumn is returned when a column or its data is nil.
	ErrNilColumn = errors.New("table: nil column")

	// ErrIndexOutOfRange is returned when a gather index exceeds the row count.
	ErrIndexOutOfRange = errors.New("table: row index out of range")
)

// RowCountError reports a column whose length differs from the table's row count.
type RowCountError struct {
	Column   string
	Expected int
	Actual   int
}

func (e *RowCountError) Error() string {
	return fmt.Sprintf("table: column %q has inconsistent number of rows: expected %d, got %d", e.Column, e.Expected, e.Actual)
}

// Row holds one row's values keyed by column name.
type Row map[string]float64

// Table is an ordered list of equal-length columns.
type Table struct {
	columns []*Column
}

// New creates a table from columns. All columns must have the same length.
func New(columns ...*Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	for i, c := range columns {
		if c == nil || c.Data == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilColumn, i)
		}
	}

	seen := make(map[string]struct{}, len(columns))
	n := columns[0].Len()
	for _, c := range columns {
		if c.Len() != n {
			return nil, &RowCountError{Column: c.Name, Expected: n, Actual: c.Len()}
		}
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	return &Table{columns: append([]*Column(nil), columns...)}, nil
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int {
	return t.columns[0].Len()
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Columns returns the table's columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column {
	return t.columns
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the i-th column.
func (t *Table) Column(i int) *Column {
	return t.columns[i]
}

// ColumnByName returns the column with the given name.
func (t *Table) ColumnByName(name string) (*Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnByName(name)
	return ok
}

// AddColumn appends a column. Its length must match the row count.
func (t *Table) AddColumn(c *Column) error {
	if c == nil || c.Data == nil {
		return ErrNilColumn
	}
	if c.Len() != t.NumRows() {
		return &RowCountError{Column: c.Name, Expected: t.NumRows(), Actual: c.Len()}
	}
	if t.HasColumn(c.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
	}
	t.columns = append(t.columns, c)
	return nil
}

// GetRow reads row index into row. If columns is empty, all columns are read.
// A nil row is allocated.
func (t *Table) GetRow(index int, row Row, columns ...*Column) Row {
	if row == nil {
		row = make(Row, len(t.columns))
	}
	if len(columns) == 0 {
		columns = t.columns
	}
	for _, c := range columns {
		row[c.Name] = c.Data.At(index)
	}
	return row
}

// SetRow writes the values of row present in columns (all columns if empty)
// at index. Names missing from row are left untouched.
func (t *Table) SetRow(index int, row Row, columns ...*Column) {
	if len(columns) == 0 {
		columns = t.columns
	}
	for _, c := range columns {
		if v, ok := row[c.Name]; ok {
			c.Data.Set(index, v)
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	return &Table{columns: cols}
}

// Select returns the named columns. The returned table shares buffers with t.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Gather builds a float32 table holding the named columns with rows taken
// in the order given by indices.
func (t *Table) Gather(indices []uint32, names ...string) (*Table, error) {
	n := uint32(t.NumRows())
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		src, ok := t.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		dst := make([]float32, len(indices))
		f32, isF32 := src.Float32s()
		for i, ri := range indices {
			if ri >= n {
				return nil, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, ri, n)
			}
			if isF32 {
				dst[i] = f32[ri]
			} else {
				dst[i] = float32(src.Data.At(int(ri)))
			}
		}
		cols = append(cols, NewColumn(name, dst))
	}
	return New(cols...)
}

// Interleave copies the float32 view of every column into a row-major
// buffer of NumRows*NumColumns values.
func (t *Table) Interleave(dst []float32) []float32 {
	rows, dim := t.NumRows(), len(t.columns)
	if cap(dst) < rows*dim {
		dst = make([]float32, rows*dim)
	}
	dst = dst[:rows*dim]
	for c, col := range t.columns {
		if f32, ok := col.Float32s(); ok {
			for r, v := range f32 {
				dst[r*dim+c] = v
			}
			continue
		}
		for r := 0; r < rows; r++ {
			dst[r*dim+c] = float32(col.Data.At(r))
		}
	}
	return dst
}
