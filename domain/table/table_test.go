package table

import (
	"math"
	"testing"
	"time"

	"gomend/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(Floats("a", 1, 2), Floats("a", 3, 4))
	assert.ErrorIs(t, err, core.ErrDuplicateColumn)

	_, err = New(Floats("a", 1, 2), Floats("b", 3))
	assert.ErrorIs(t, err, core.ErrShapeMismatch)

	_, err = NewWithIndex([]RowID{1, 1}, Floats("a", 1, 2))
	assert.ErrorIs(t, err, core.ErrDuplicateRowID)
}

func TestNewColumnRejectsForeignCells(t *testing.T) {
	_, err := NewColumn("n", DTypeInt, []Value{Int(1), Num(1.5)})
	assert.Error(t, err)

	_, err = NewColumn("s", DTypeString, []Value{Str("a"), Num(1)})
	assert.Error(t, err)

	c, err := NewColumn("o", DTypeObject, []Value{Str("a"), Num(1), Missing()})
	require.NoError(t, err)
	assert.Equal(t, 1, c.MissingCount())
}

func TestNaNIsMissing(t *testing.T) {
	c := Floats("x", 1, math.NaN(), 3)
	assert.True(t, c.At(1).IsMissing())
	assert.Equal(t, 1, c.MissingCount())
}

func TestLookup(t *testing.T) {
	tbl := MustNew(Floats("a", 1), Strings("b", "x"))

	i, ok := tbl.Lookup(Name("b"))
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = tbl.Lookup(Index(0))
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = tbl.Lookup(Index(2))
	assert.False(t, ok)
	_, ok = tbl.Lookup(Name("zzz"))
	assert.False(t, ok)
}

func TestParseRef(t *testing.T) {
	assert.Equal(t, Name("age"), ParseRef("age"))
	assert.Equal(t, Name("-1"), ParseRef("-1"))
	assert.Equal(t, "3", ParseRef("3").String())
}

func TestParseRefResolvesNameBeforePosition(t *testing.T) {
	headerless := MustNew(Floats("1", 10, 20), Floats("0", 1, 2), Strings("2019", "a", "b"))

	tests := []struct {
		name   string
		ref    string
		want   int
		wantOK bool
	}{
		{"digit name wins over position", "0", 1, true},
		{"other digit name", "1", 0, true},
		{"year-like name", "2019", 2, true},
		{"no such name falls back to position", "2", 2, true},
		{"out of range", "7", -1, false},
		{"plain name", "nope", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, ok := headerless.Lookup(ParseRef(tt.ref))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, i)
			}
		})
	}
}

func TestFilterRowsKeepsRowIDs(t *testing.T) {
	tbl := MustNew(Floats("a", 10, 20, 30, 40))
	out := tbl.FilterRows(func(pos int) bool { return pos%2 == 1 })

	assert.Equal(t, []RowID{1, 3}, out.Index())
	assert.Equal(t, 20.0, out.Column(0).At(0).Float())
	assert.Equal(t, 4, tbl.NumRows(), "source table must be untouched")
}

func TestSetMissingPromotesNothingAndCopies(t *testing.T) {
	col := MustColumn("n", DTypeInt, Int(1), Int(2), Int(3))
	tbl := MustNew(col)

	out, err := tbl.SetMissing(0, NewRowSet(1))
	require.NoError(t, err)

	assert.True(t, out.Column(0).At(1).IsMissing())
	assert.False(t, tbl.Column(0).At(1).IsMissing())
	assert.Equal(t, DTypeInt, out.Column(0).DType())
}

func TestWithValuesPromotesIntToFloat(t *testing.T) {
	col := MustColumn("n", DTypeInt, Int(1), Missing())
	out, err := col.WithValues([]Value{Int(1), Num(2.5)})
	require.NoError(t, err)
	assert.Equal(t, DTypeFloat, out.DType())
}

func TestDropColumn(t *testing.T) {
	tbl := MustNew(Floats("a", 1), Floats("b", 2), Floats("c", 3))
	out := tbl.DropColumn(1)
	assert.Equal(t, []string{"a", "c"}, out.ColumnNames())
	_, ok := out.Lookup(Name("b"))
	assert.False(t, ok)
}

func TestValueOrderingAndEquality(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Time(t0).Equal(Time(t0.In(time.FixedZone("x", 3600)))))
	assert.True(t, Time(t0).Less(Time(t0.Add(time.Second))))
	assert.True(t, Bool(false).Less(Bool(true)))
	assert.True(t, Str("a").Less(Str("b")))
	assert.False(t, Num(1).Equal(Str("1")))
	assert.True(t, Missing().Equal(Value{}))
	assert.NotEqual(t, Num(1).Key(), Str("1").Key())
	assert.Equal(t, Num(0).Key(), Num(math.Copysign(0, -1)).Key())
}

func TestRowSetIDsSorted(t *testing.T) {
	s := NewRowSet(5, 1, 3)
	assert.Equal(t, []RowID{1, 3, 5}, s.IDs())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(2))
}
