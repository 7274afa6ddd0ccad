package table

import "fmt"

// DType is the declared type of a column.
type DType string

const (
	DTypeInt      DType = "int"
	DTypeFloat    DType = "float"
	DTypeString   DType = "string"
	DTypeDatetime DType = "datetime"
	DTypeBool     DType = "bool"
	DTypeObject   DType = "object"
)

// ParseDType maps a dtype name to a DType.
func ParseDType(s string) (DType, error) {
	switch DType(s) {
	case DTypeInt, DTypeFloat, DTypeString, DTypeDatetime, DTypeBool, DTypeObject:
		return DType(s), nil
	}
	return "", fmt.Errorf("unknown dtype %q", s)
}

// Accepts reports whether a cell of type vt may be stored under the dtype.
// Missing cells are accepted by every dtype.
func (d DType) Accepts(v Value) bool {
	if v.IsMissing() {
		return true
	}
	switch d {
	case DTypeInt:
		return v.IsIntegral()
	case DTypeFloat:
		return v.IsNumeric()
	case DTypeString:
		return v.IsString()
	case DTypeDatetime:
		return v.IsTimestamp()
	case DTypeBool:
		return v.IsBoolean()
	case DTypeObject:
		return true
	}
	return false
}

// Column is an immutable named sequence of cells.
type Column struct {
	name   string
	dtype  DType
	values []Value
}

// NewColumn copies values into a new column. Cells that the dtype cannot
// hold are rejected.
func NewColumn(name string, dtype DType, values []Value) (*Column, error) {
	if _, err := ParseDType(string(dtype)); err != nil {
		return nil, err
	}
	for i, v := range values {
		if !dtype.Accepts(v) {
			return nil, fmt.Errorf("column %s: row %d holds %s value %s, not allowed in %s column", name, i, v.Type(), v, dtype)
		}
	}
	cp := make([]Value, len(values))
	copy(cp, values)
	return &Column{name: name, dtype: dtype, values: cp}, nil
}

// MustColumn is NewColumn that panics; meant for literals in tests and examples.
func MustColumn(name string, dtype DType, values ...Value) *Column {
	c, err := NewColumn(name, dtype, values)
	if err != nil {
		panic(err)
	}
	return c
}

// Floats builds a float column, treating NaN as missing.
func Floats(name string, xs ...float64) *Column {
	values := make([]Value, len(xs))
	for i, x := range xs {
		values[i] = Num(x)
	}
	return &Column{name: name, dtype: DTypeFloat, values: values}
}

// Strings builds a string column from literals.
func Strings(name string, xs ...string) *Column {
	values := make([]Value, len(xs))
	for i, x := range xs {
		values[i] = Str(x)
	}
	return &Column{name: name, dtype: DTypeString, values: values}
}

func (c *Column) Name() string { return c.name }
func (c *Column) DType() DType { return c.dtype }
func (c *Column) Len() int     { return len(c.values) }

// At returns the cell at position i.
func (c *Column) At(i int) Value { return c.values[i] }

// Values returns a copy of the cells.
func (c *Column) Values() []Value {
	cp := make([]Value, len(c.values))
	copy(cp, c.values)
	return cp
}

// MissingCount counts missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Present returns the non-missing cells in row order.
func (c *Column) Present() []Value {
	out := make([]Value, 0, len(c.values))
	for _, v := range c.values {
		if !v.IsMissing() {
			out = append(out, v)
		}
	}
	return out
}

// NumericPresent returns the non-missing numeric payloads with their row positions.
func (c *Column) NumericPresent() (xs []float64, positions []int) {
	for i, v := range c.values {
		if v.IsNumeric() {
			xs = append(xs, v.num)
			positions = append(positions, i)
		}
	}
	return xs, positions
}

// WithValues returns a column with the same name holding values. An int
// column that receives a non-integral number is promoted to float.
func (c *Column) WithValues(values []Value) (*Column, error) {
	dtype := c.dtype
	if dtype == DTypeInt {
		for _, v := range values {
			if v.IsNumeric() && !v.IsIntegral() {
				dtype = DTypeFloat
				break
			}
		}
	}
	return NewColumn(c.name, dtype, values)
}

// Renamed returns a copy of the column under a new name.
func (c *Column) Renamed(name string) *Column {
	return &Column{name: name, dtype: c.dtype, values: c.values}
}
