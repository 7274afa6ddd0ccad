// Package oracle classifies columns and enforces the column preconditions
// shared by every repair, detection and transform entry point.
package oracle

import (
	"gomend/domain/core"
	"gomend/domain/table"
)

// Kind is the semantic type of a column.
type Kind string

const (
	KindNumeric  Kind = "numeric"
	KindText     Kind = "text"
	KindDatetime Kind = "datetime"
	KindOther    Kind = "other"
)

// Classify inspects the declared dtype, falling back to the element types of
// object columns. An object column is classified only when all of its
// present cells share one storage type.
func Classify(c *table.Column) Kind {
	switch c.DType() {
	case table.DTypeInt, table.DTypeFloat:
		return KindNumeric
	case table.DTypeString:
		return KindText
	case table.DTypeDatetime:
		return KindDatetime
	case table.DTypeBool:
		return KindOther
	}

	var seen table.ValueType
	for _, v := range c.Present() {
		if seen == "" {
			seen = v.Type()
			continue
		}
		if v.Type() != seen {
			return KindOther
		}
	}
	return KindOf(seen)
}

// KindOf maps a cell storage type to the semantic kind it belongs to.
func KindOf(vt table.ValueType) Kind {
	switch vt {
	case table.ValueTypeNumeric:
		return KindNumeric
	case table.ValueTypeString:
		return KindText
	case table.ValueTypeTimestamp:
		return KindDatetime
	}
	return KindOther
}

// Resolved is a column reference that passed validation.
type Resolved struct {
	Pos    int
	Column *table.Column
}

// Name returns the resolved column name.
func (r Resolved) Name() string { return r.Column.Name() }

// Validate resolves ref against the table schema.
func Validate(t *table.Table, ref table.ColumnRef) (Resolved, error) {
	pos, ok := t.Lookup(ref)
	if !ok {
		return Resolved{}, core.NewColumnNotFoundError(ref.String())
	}
	return Resolved{Pos: pos, Column: t.Column(pos)}, nil
}

// RequireNumeric resolves ref and requires an integer or floating column.
func RequireNumeric(t *table.Table, ref table.ColumnRef) (Resolved, error) {
	r, err := Validate(t, ref)
	if err != nil {
		return Resolved{}, err
	}
	if Classify(r.Column) != KindNumeric {
		return Resolved{}, core.NewNotNumericError(r.Name(), string(r.Column.DType()))
	}
	return r, nil
}

// RequireNumericAll validates every ref with RequireNumeric.
func RequireNumericAll(t *table.Table, refs []table.ColumnRef) ([]Resolved, error) {
	if len(refs) == 0 {
		return nil, core.NewInsufficientDataError("column selection", "no columns given")
	}
	out := make([]Resolved, 0, len(refs))
	for _, ref := range refs {
		r, err := RequireNumeric(t, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// RequireRows fails with ErrEmptyDataset when t has no rows.
func RequireRows(t *table.Table) error {
	if t.NumRows() == 0 {
		return core.ErrEmptyDataset
	}
	return nil
}
