package oracle

import (
	"testing"
	"time"

	"gomend/domain/core"
	"gomend/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	when := table.Time(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		col  *table.Column
		want Kind
	}{
		{"float", table.Floats("f", 1.5, 2), KindNumeric},
		{"int", table.MustColumn("i", table.DTypeInt, table.Int(1)), KindNumeric},
		{"string", table.Strings("s", "a"), KindText},
		{"datetime", table.MustColumn("d", table.DTypeDatetime, when), KindDatetime},
		{"bool", table.MustColumn("b", table.DTypeBool, table.Bool(true)), KindOther},
		{"object numbers", table.MustColumn("o", table.DTypeObject, table.Num(1), table.Missing(), table.Num(2)), KindNumeric},
		{"object mixed", table.MustColumn("o", table.DTypeObject, table.Num(1), table.Str("x")), KindOther},
		{"object empty", table.MustColumn("o", table.DTypeObject, table.Missing()), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.col))
		})
	}
}

func TestValidate(t *testing.T) {
	tbl := table.MustNew(table.Floats("a", 1), table.Strings("b", "x"))

	r, err := Validate(tbl, table.Name("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Pos)
	assert.Equal(t, "b", r.Name())

	_, err = Validate(tbl, table.Name("missing"))
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	_, err = Validate(tbl, table.Index(5))
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestRequireNumeric(t *testing.T) {
	tbl := table.MustNew(table.Floats("a", 1), table.Strings("b", "x"))

	_, err := RequireNumeric(tbl, table.Name("a"))
	assert.NoError(t, err)

	_, err = RequireNumeric(tbl, table.Name("b"))
	assert.ErrorIs(t, err, core.ErrNotNumeric)

	_, err = RequireNumeric(tbl, table.Name("c"))
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	_, err = RequireNumericAll(tbl, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestRequireRows(t *testing.T) {
	empty := table.MustNew(table.Floats("a"))
	assert.ErrorIs(t, RequireRows(empty), core.ErrEmptyDataset)
	assert.NoError(t, RequireRows(table.MustNew(table.Floats("a", 1))))
}
