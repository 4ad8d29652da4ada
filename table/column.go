package table

import (
	"fmt"
	"slices"
)

// Number is the set of element types a column buffer may hold.
type Number interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | float32 | float64
}

// Kind identifies the element type of a column buffer.
type Kind uint8

const (
	KindInt8 Kind = iota + 1
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindFloat32
	KindFloat64
)

func (k Kind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindUint8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Size returns the element width in bytes.
func (k Kind) Size() int {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindFloat64:
		return 8
	default:
		return 0
	}
}

// Data is a fixed-length numeric buffer.
//
// At and Set convert through float64, which represents every supported
// element type exactly. Set truncates toward zero for integer kinds.
type Data interface {
	Kind() Kind
	Len() int
	At(i int) float64
	Set(i int, v float64)
	Clone() Data
}

// Buffer is the Data implementation for a slice of T.
type Buffer[T Number] []T

var (
	_ Data = Buffer[float32](nil)
	_ Data = Buffer[uint8](nil)
)

// Kind implements Data.
func (b Buffer[T]) Kind() Kind { return kindOf[T]() }

// Len implements Data.
func (b Buffer[T]) Len() int { return len(b) }

// At implements Data.
func (b Buffer[T]) At(i int) float64 { return float64(b[i]) }

// Set implements Data.
func (b Buffer[T]) Set(i int, v float64) { b[i] = T(v) }

// Clone implements Data.
func (b Buffer[T]) Clone() Data { return slices.Clone(b) }

func kindOf[T Number]() Kind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return KindInt8
	case uint8:
		return KindUint8
	case int16:
		return KindInt16
	case uint16:
		return KindUint16
	case int32:
		return KindInt32
	case uint32:
		return KindUint32
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	}
	panic("unreachable")
}

// NewData allocates a zeroed buffer of the given kind and length.
func NewData(kind Kind, n int) (Data, error) {
	switch kind {
	case KindInt8:
		return make(Buffer[int8], n), nil
	case KindUint8:
		return make(Buffer[uint8], n), nil
	case KindInt16:
		return make(Buffer[int16], n), nil
	case KindUint16:
		return make(Buffer[uint16], n), nil
	case KindInt32:
		return make(Buffer[int32], n), nil
	case KindUint32:
		return make(Buffer[uint32], n), nil
	case KindFloat32:
		return make(Buffer[float32], n), nil
	case KindFloat64:
		return make(Buffer[float64], n), nil
	default:
		return nil, fmt.Errorf("table: unsupported column kind %s", kind)
	}
}

// Column is a named numeric buffer.
type Column struct {
	Name string
	Data Data
}

// NewColumn creates a column backed by data. The slice is not copied.
func NewColumn[T Number](name string, data []T) *Column {
	return &Column{Name: name, Data: Buffer[T](data)}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c == nil || c.Data == nil {
		return 0
	}
	return c.Data.Len()
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	return &Column{Name: c.Name, Data: c.Data.Clone()}
}

// Float32s returns the underlying slice when the column holds float32 values.
func (c *Column) Float32s() ([]float32, bool) {
	b, ok := c.Data.(Buffer[float32])
	return b, ok
}

// Uint8s returns the underlying slice when the column holds uint8 values.
func (c *Column) Uint8s() ([]uint8, bool) {
	b, ok := c.Data.(Buffer[uint8])
	return b, ok
}

// Float64s copies the column into a new float64 slice.
func (c *Column) Float64s() []float64 {
	n := c.Data.Len()
	out := make([]float64, n)
	if f32, ok := c.Float32s(); ok {
		for i, v := range f32 {
			out[i] = float64(v)
		}
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = c.Data.At(i)
	}
	return out
}
