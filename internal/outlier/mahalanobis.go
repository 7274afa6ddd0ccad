package outlier

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/oracle"
)

// mahalanobisLevel is the chi-square quantile the distance is compared with.
const mahalanobisLevel = 0.99

// Mahalanobis flags rows whose distance from the column means, under the
// sample covariance, exceeds the 0.99 chi-square quantile with one degree of
// freedom per column. A singular covariance fails with ErrInsufficientData.
func (s *Suite) Mahalanobis(t *table.Table, refs []table.ColumnRef) (table.RowSet, error) {
	cols, err := oracle.RequireNumericAll(t, refs)
	if err != nil {
		return nil, err
	}
	rows, ids := matrix(t, cols)
	n, p := len(rows), len(cols)
	if n < 2 {
		return nil, core.NewInsufficientDataError("mahalanobis", "at least two complete rows are required")
	}

	x := denseRows(rows, p)
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)
	var chol mat.Cholesky
	if ok := chol.Factorize(&cov); !ok {
		return nil, core.NewInsufficientDataError("mahalanobis", "covariance matrix is singular")
	}

	mean := columnMeans(x)
	mu := mat.NewVecDense(p, mean)
	cut := distuv.ChiSquared{K: float64(p)}.Quantile(mahalanobisLevel)

	out := table.NewRowSet()
	for i, row := range rows {
		d := stat.Mahalanobis(mat.NewVecDense(p, row), mu, &chol)
		if d > cut && !math.IsNaN(d) {
			out.Add(ids[i])
		}
	}
	s.log.Debug("mahalanobis: rows=%d dims=%d cut=%g flagged=%d", n, p, cut, out.Len())
	return out, nil
}

func denseRows(rows [][]float64, p int) *mat.Dense {
	data := make([]float64, 0, len(rows)*p)
	for _, r := range rows {
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), p, data)
}

func columnMeans(x *mat.Dense) []float64 {
	_, p := x.Dims()
	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	return out
}
