package excel

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomend/adapters/coercer"
	"gomend/domain/table"
	"gomend/internal/errors"
)

const sampleCSV = `id,price,city,joined,active
1,10.5,Oslo,2024-01-01,yes
2,NA,Rome,2024-01-02,no
3,12,,?,yes
4,900,Oslo,2024-01-04
`

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestReadCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/in.csv", sampleCSV)

	r, err := NewDataReader(fs, "/data/in.csv")
	require.NoError(t, err)
	tbl, err := r.ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "price", "city", "joined", "active"}, tbl.ColumnNames())
	assert.Equal(t, 4, tbl.NumRows())

	dtypes := make([]table.DType, 0, tbl.NumColumns())
	for _, c := range tbl.Columns() {
		dtypes = append(dtypes, c.DType())
	}
	assert.Equal(t, []table.DType{table.DTypeInt, table.DTypeFloat, table.DTypeString, table.DTypeDatetime, table.DTypeBool}, dtypes)

	assert.True(t, tbl.Column(1).At(1).IsMissing())
	assert.True(t, tbl.Column(2).At(2).IsMissing())
	assert.True(t, tbl.Column(3).At(2).IsMissing())
	assert.True(t, tbl.Column(4).At(3).IsMissing(), "short rows are padded")
	assert.Equal(t, "Oslo", tbl.Column(2).At(0).Text())
}

func TestReadCSVCustomTokens(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "in.csv", "x\n1\n-\n3\n")

	cfg := coercer.DefaultCoercionConfig()
	cfg.MissingTokens = []string{"-"}
	r, err := NewDataReader(fs, "in.csv", WithCoercion(cfg))
	require.NoError(t, err)
	tbl, err := r.ReadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Column(0).MissingCount())
}

func TestReadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := NewDataReader(fs, "in.parquet")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	r, err := NewDataReader(fs, "absent.csv")
	require.NoError(t, err)
	_, err = r.ReadTable(context.Background())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	writeFile(t, fs, "empty.csv", "")
	r, err = NewDataReader(fs, "empty.csv")
	require.NoError(t, err)
	_, err = r.ReadTable(context.Background())
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	writeFile(t, fs, "dup.csv", "a,a\n1,2\n")
	r, err = NewDataReader(fs, "dup.csv")
	require.NoError(t, err)
	_, err = r.ReadTable(context.Background())
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	tbl := table.MustNew(
		table.Floats("x", 1, 2.5, nan()),
		table.Strings("s", "a", "b,c", "d"),
	)

	w, err := NewDataWriter(fs, "out.csv")
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(tbl))

	got, err := afero.ReadFile(fs, "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "x,s\n1,a\n2.5,\"b,c\"\n,d\n", string(got))
}

func TestXLSXRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(
		table.Floats("x", 1.5, nan(), 3),
		table.Strings("s", "a", "b", "c"),
		table.MustColumn("d", table.DTypeDatetime, table.Time(day), table.Missing(), table.Time(day.Add(24*time.Hour))),
	)

	w, err := NewDataWriter(fs, "book.xlsx")
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(tbl))

	r, err := NewDataReader(fs, "book.xlsx")
	require.NoError(t, err)
	got, err := r.ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "s", "d"}, got.ColumnNames())
	assert.Equal(t, 3, got.NumRows())
	assert.Equal(t, 1.5, got.Column(0).At(0).Float())
	assert.True(t, got.Column(0).At(1).IsMissing())
	assert.Equal(t, table.DTypeDatetime, got.Column(2).DType())
	assert.True(t, got.Column(2).At(0).Timestamp().Equal(day))
}

func nan() float64 { return math.NaN() }
