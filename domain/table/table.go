// Package table holds the in-memory, column-oriented data structure the
// cleaning core consumes. Tables and columns are immutable: every operation
// that changes data returns a new Table and shares the untouched columns.
package table

import (
	"fmt"

	"gomend/domain/core"
)

// RowID is the stable identifier of a row. Row ids survive row removal.
type RowID int64

// Table is an ordered set of equally long, uniquely named columns.
type Table struct {
	columns []*Column
	index   []RowID
	byName  map[string]int
}

// New builds a table with a positional index 0..n-1.
func New(columns ...*Column) (*Table, error) {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	index := make([]RowID, n)
	for i := range index {
		index[i] = RowID(i)
	}
	return NewWithIndex(index, columns...)
}

// MustNew is New that panics; meant for literals in tests and examples.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NewWithIndex builds a table with explicit row ids.
func NewWithIndex(index []RowID, columns ...*Column) (*Table, error) {
	seen := make(map[RowID]struct{}, len(index))
	for _, id := range index {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", core.ErrDuplicateRowID, id)
		}
		seen[id] = struct{}{}
	}

	byName := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := byName[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateColumn, c.Name())
		}
		if c.Len() != len(index) {
			return nil, fmt.Errorf("%w: %s has %d cells, table has %d rows", core.ErrShapeMismatch, c.Name(), c.Len(), len(index))
		}
		byName[c.Name()] = i
	}

	idx := make([]RowID, len(index))
	copy(idx, index)
	cols := make([]*Column, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: idx, byName: byName}, nil
}

func (t *Table) NumRows() int    { return len(t.index) }
func (t *Table) NumColumns() int { return len(t.columns) }

// Index returns a copy of the row ids in row order.
func (t *Table) Index() []RowID {
	cp := make([]RowID, len(t.index))
	copy(cp, t.index)
	return cp
}

// RowIDAt returns the id of the row at position i.
func (t *Table) RowIDAt(i int) RowID { return t.index[i] }

// Position returns the row position of id.
func (t *Table) Position(id RowID) (int, bool) {
	for i, r := range t.index {
		if r == id {
			return i, true
		}
	}
	return -1, false
}

// ColumnNames lists the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	cp := make([]*Column, len(t.columns))
	copy(cp, t.columns)
	return cp
}

// Column returns the column at position i.
func (t *Table) Column(i int) *Column { return t.columns[i] }

// Lookup resolves ref to a column position. A parsed numeric ref matches a
// column of that name before it is read as a position.
func (t *Table) Lookup(ref ColumnRef) (int, bool) {
	if !ref.byIndex {
		if i, ok := t.byName[ref.name]; ok || !ref.fallback {
			return i, ok
		}
	}
	if ref.index < 0 || ref.index >= len(t.columns) {
		return -1, false
	}
	return ref.index, true
}

// Clone returns a new table sharing the immutable columns.
func (t *Table) Clone() *Table {
	out, _ := NewWithIndex(t.index, t.columns...)
	return out
}

// WithColumn returns a table where the column at position i is replaced.
func (t *Table) WithColumn(i int, col *Column) (*Table, error) {
	cols := t.Columns()
	cols[i] = col
	return NewWithIndex(t.index, cols...)
}

// DropColumn returns a table without the column at position i.
func (t *Table) DropColumn(i int) *Table {
	cols := make([]*Column, 0, len(t.columns)-1)
	cols = append(cols, t.columns[:i]...)
	cols = append(cols, t.columns[i+1:]...)
	out, _ := NewWithIndex(t.index, cols...)
	return out
}

// FilterRows keeps the rows for which keep returns true, in order.
func (t *Table) FilterRows(keep func(pos int) bool) *Table {
	positions := make([]int, 0, len(t.index))
	for i := range t.index {
		if keep(i) {
			positions = append(positions, i)
		}
	}

	index := make([]RowID, len(positions))
	for i, p := range positions {
		index[i] = t.index[p]
	}
	cols := make([]*Column, len(t.columns))
	for ci, c := range t.columns {
		values := make([]Value, len(positions))
		for i, p := range positions {
			values[i] = c.values[p]
		}
		cols[ci] = &Column{name: c.name, dtype: c.dtype, values: values}
	}
	out, _ := NewWithIndex(index, cols...)
	return out
}

// SetMissing returns a table where the cells of column i at the given rows
// are replaced by the missing sentinel. Unknown row ids are ignored.
func (t *Table) SetMissing(i int, rows RowSet) (*Table, error) {
	values := t.columns[i].Values()
	for pos, id := range t.index {
		if rows.Contains(id) {
			values[pos] = Missing()
		}
	}
	col, err := t.columns[i].WithValues(values)
	if err != nil {
		return nil, err
	}
	return t.WithColumn(i, col)
}

// Map returns a table with fn applied to every cell.
func (t *Table) Map(fn func(Value) Value) (*Table, error) {
	cols := make([]*Column, len(t.columns))
	for ci, c := range t.columns {
		values := make([]Value, len(c.values))
		for i, v := range c.values {
			values[i] = fn(v)
		}
		col, err := c.WithValues(values)
		if err != nil {
			return nil, err
		}
		cols[ci] = col
	}
	return NewWithIndex(t.index, cols...)
}
