package postgres

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomend/adapters/coercer"
	"gomend/domain/table"
)

func TestBuildTable(t *testing.T) {
	day := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	data := [][]interface{}{
		{int64(1), []byte("10.5"), "Oslo", day, true, int64(1)},
		{int64(2), nil, "Rome", nil, false, "x"},
		{nil, []byte("7"), nil, day, nil, nil},
	}
	names := []string{"id", "amount", "city", "at", "ok", "mixed"}

	tbl, err := buildTable(coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()), names, data)
	require.NoError(t, err)
	assert.Equal(t, names, tbl.ColumnNames())

	want := []table.DType{table.DTypeInt, table.DTypeFloat, table.DTypeString, table.DTypeDatetime, table.DTypeBool, table.DTypeObject}
	for i, c := range tbl.Columns() {
		assert.Equal(t, want[i], c.DType(), c.Name())
	}
	assert.True(t, tbl.Column(0).At(2).IsMissing())
	assert.Equal(t, 10.5, tbl.Column(1).At(0).Float())
	assert.Equal(t, 1, tbl.Column(3).MissingCount())
}

func TestBuildTableRaggedRow(t *testing.T) {
	_, err := buildTable(coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()), []string{"a", "b"}, [][]interface{}{{int64(1)}})
	assert.Error(t, err)
}

func TestCreateStatement(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("id", table.DTypeInt, table.Int(1)),
		table.Floats("price", 2),
		table.Strings("my col", "a"),
	)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "clean" ("id" BIGINT, "price" DOUBLE PRECISION, "my col" TEXT)`,
		createStatement("clean", tbl))
}

func TestRowArgs(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("id", table.DTypeInt, table.Int(4)),
		table.Floats("price", nanValue()),
		table.MustColumn("o", table.DTypeObject, table.Bool(true)),
	)
	assert.Equal(t, []interface{}{int64(4), nil, "true"}, rowArgs(tbl, 0))
}

func nanValue() float64 { return math.NaN() }
