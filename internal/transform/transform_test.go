package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomend/domain/core"
	"gomend/domain/table"
)

func TestLogTransformSoftFailure(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", -1, 0, 1, math.E))

	out, err := LogTransform(tbl, table.Name("x"))
	require.NoError(t, err)

	col := out.Column(0)
	assert.True(t, col.At(0).IsMissing())
	assert.True(t, col.At(1).IsMissing())
	assert.InDelta(t, 0, col.At(2).Float(), 1e-12)
	assert.InDelta(t, 1, col.At(3).Float(), 1e-12)

	// input untouched
	assert.Equal(t, -1.0, tbl.Column(0).At(0).Float())
}

func TestSquareTransform(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", -4, 0, 9, math.NaN()))

	out, err := SquareTransform(tbl, table.Name("x"))
	require.NoError(t, err)

	col := out.Column(0)
	assert.True(t, col.At(0).IsMissing())
	assert.Equal(t, 0.0, col.At(1).Float())
	assert.Equal(t, 3.0, col.At(2).Float())
	assert.True(t, col.At(3).IsMissing())
}

func TestApplyCounts(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", -1, 1, 2, math.NaN()))
	res, err := Apply(tbl, table.Index(0), Log)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Transformed)
	assert.Equal(t, 1, res.Dropped)
}

func TestIntColumnIsPromoted(t *testing.T) {
	col := table.MustColumn("n", table.DTypeInt, table.Int(2), table.Int(4))
	out, err := SquareTransform(table.MustNew(col), table.Name("n"))
	require.NoError(t, err)
	assert.Equal(t, table.DTypeFloat, out.Column(0).DType())
}

func TestTransformPreconditions(t *testing.T) {
	tbl := table.MustNew(table.Strings("s", "a"))

	_, err := LogTransform(tbl, table.Name("s"))
	assert.ErrorIs(t, err, core.ErrNotNumeric)

	_, err = SquareTransform(tbl, table.Name("missing"))
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestParse(t *testing.T) {
	f, err := Parse("LOG")
	require.NoError(t, err)
	assert.Equal(t, KindLog, f.Kind)

	f, err = Parse("square")
	require.NoError(t, err)
	assert.Equal(t, KindSqrt, f.Kind)

	_, err = Parse("exp")
	assert.Error(t, err)
}
