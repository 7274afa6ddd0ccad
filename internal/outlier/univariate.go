package outlier

import (
	"math"

	"github.com/montanaflynn/stats"

	"gomend/domain/table"
	"gomend/internal/oracle"
)

// IQR flags rows strictly outside [Q1 - k*IQR, Q3 + k*IQR].
func (s *Suite) IQR(t *table.Table, ref table.ColumnRef, k float64) (table.RowSet, error) {
	col, err := oracle.RequireNumeric(t, ref)
	if err != nil {
		return nil, err
	}
	out := table.NewRowSet()
	xs, positions := col.Column.NumericPresent()
	if len(xs) == 0 {
		return out, nil
	}

	q1 := Quantile(xs, 0.25)
	q3 := Quantile(xs, 0.75)
	iqr := q3 - q1
	lower, upper := q1-k*iqr, q3+k*iqr
	for i, x := range xs {
		if x < lower || x > upper {
			out.Add(t.RowIDAt(positions[i]))
		}
	}
	s.log.Debug("iqr %s: q1=%g q3=%g bounds=[%g, %g] flagged=%d", col.Name(), q1, q3, lower, upper, out.Len())
	return out, nil
}

// ZScore flags rows where |x - mean| / std exceeds threshold, with the
// population standard deviation. A constant column flags nothing.
func (s *Suite) ZScore(t *table.Table, ref table.ColumnRef, threshold float64) (table.RowSet, error) {
	col, err := oracle.RequireNumeric(t, ref)
	if err != nil {
		return nil, err
	}
	out := table.NewRowSet()
	xs, positions := col.Column.NumericPresent()
	if len(xs) == 0 {
		return out, nil
	}

	mean, err := stats.Mean(xs)
	if err != nil {
		return out, nil
	}
	std, err := stats.StandardDeviationPopulation(xs)
	if err != nil || std == 0 || math.IsNaN(std) {
		return out, nil
	}
	for i, x := range xs {
		if math.Abs((x-mean)/std) > threshold {
			out.Add(t.RowIDAt(positions[i]))
		}
	}
	s.log.Debug("zscore %s: mean=%g std=%g flagged=%d", col.Name(), mean, std, out.Len())
	return out, nil
}

// Frequency flags rows whose value's relative frequency among present cells
// is below threshold.
func (s *Suite) Frequency(t *table.Table, ref table.ColumnRef, threshold float64) (table.RowSet, error) {
	col, err := oracle.RequireNumeric(t, ref)
	if err != nil {
		return nil, err
	}
	out := table.NewRowSet()
	present := col.Column.Present()
	if len(present) == 0 {
		return out, nil
	}

	counts := make(map[string]int, len(present))
	for _, v := range present {
		counts[v.Key()]++
	}
	total := float64(len(present))
	for pos := 0; pos < col.Column.Len(); pos++ {
		v := col.Column.At(pos)
		if v.IsMissing() {
			continue
		}
		if float64(counts[v.Key()])/total < threshold {
			out.Add(t.RowIDAt(pos))
		}
	}
	s.log.Debug("frequency %s: distinct=%d flagged=%d", col.Name(), len(counts), out.Len())
	return out, nil
}
