package api

import (
	"fmt"
	"time"

	"gomend/domain/table"
	"gomend/internal/errors"
)

// TablePayload is the JSON form of a table. Index is optional; when absent
// rows are numbered from zero.
type TablePayload struct {
	Index   []int64         `json:"index,omitempty"`
	Columns []ColumnPayload `json:"columns"`
}

// ColumnPayload carries one column. null encodes a missing cell and
// datetime cells travel as RFC 3339 strings.
type ColumnPayload struct {
	Name   string        `json:"name"`
	DType  string        `json:"dtype"`
	Values []interface{} `json:"values"`
}

// ToTable decodes the payload.
func (p TablePayload) ToTable() (*table.Table, error) {
	cols := make([]*table.Column, len(p.Columns))
	for i, cp := range p.Columns {
		dtype, err := table.ParseDType(cp.DType)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("column %s: %v", cp.Name, err))
		}
		values := make([]table.Value, len(cp.Values))
		for j, raw := range cp.Values {
			v, err := decodeValue(raw, dtype)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("column %s row %d: %v", cp.Name, j, err))
			}
			values[j] = v
		}
		col, err := table.NewColumn(cp.Name, dtype, values)
		if err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
		cols[i] = col
	}

	var t *table.Table
	var err error
	if p.Index != nil {
		index := make([]table.RowID, len(p.Index))
		for i, id := range p.Index {
			index[i] = table.RowID(id)
		}
		t, err = table.NewWithIndex(index, cols...)
	} else {
		t, err = table.New(cols...)
	}
	if err != nil {
		return nil, errors.Wrap(err, "invalid table")
	}
	return t, nil
}

// FromTable encodes t.
func FromTable(t *table.Table) TablePayload {
	p := TablePayload{Index: make([]int64, t.NumRows())}
	for i, id := range t.Index() {
		p.Index[i] = int64(id)
	}
	for _, c := range t.Columns() {
		cp := ColumnPayload{Name: c.Name(), DType: string(c.DType()), Values: make([]interface{}, c.Len())}
		for i := 0; i < c.Len(); i++ {
			cp.Values[i] = encodeValue(c.At(i))
		}
		p.Columns = append(p.Columns, cp)
	}
	return p
}

func decodeValue(raw interface{}, dtype table.DType) (table.Value, error) {
	switch v := raw.(type) {
	case nil:
		return table.Missing(), nil
	case float64:
		return table.Num(v), nil
	case bool:
		return table.Bool(v), nil
	case string:
		if dtype == table.DTypeDatetime {
			ts, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return table.Value{}, err
			}
			return table.Time(ts), nil
		}
		return table.Str(v), nil
	}
	return table.Value{}, fmt.Errorf("unsupported cell %v", raw)
}

func encodeValue(v table.Value) interface{} {
	if v.IsTimestamp() {
		return v.Timestamp().Format(time.RFC3339Nano)
	}
	return v.Interface()
}
