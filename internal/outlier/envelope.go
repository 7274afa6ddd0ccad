package outlier

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/oracle"
)

const (
	mcdStarts     = 20
	mcdMaxSteps   = 30
	mcdReweightAt = 0.975
)

// gaussianFit is a location and scatter estimate with its factorization.
type gaussianFit struct {
	loc  []float64
	cov  *mat.SymDense
	chol *mat.Cholesky
}

func (g *gaussianFit) sqDist(row []float64) float64 {
	if g.chol == nil {
		return math.Inf(1)
	}
	p := len(row)
	d := stat.Mahalanobis(mat.NewVecDense(p, row), mat.NewVecDense(p, g.loc), g.chol)
	return d * d
}

func (g *gaussianFit) logDet() float64 {
	if g.chol == nil {
		return math.Inf(1)
	}
	return g.chol.LogDet()
}

// EllipticEnvelope fits a robust Gaussian with the minimum covariance
// determinant estimator and flags the contamination share of rows farthest
// from it.
func (s *Suite) EllipticEnvelope(t *table.Table, refs []table.ColumnRef, contamination float64) (table.RowSet, error) {
	cols, err := oracle.RequireNumericAll(t, refs)
	if err != nil {
		return nil, err
	}
	rows, ids := matrix(t, cols)
	n, p := len(rows), len(cols)
	if n < p+2 {
		return nil, core.NewInsufficientDataError("elliptic envelope", "too few complete rows for the number of columns")
	}

	rng := s.rng.Stream(string(MethodEllipticEnvelope), s.defaults.Seed)
	fit, err := fitMCD(rows, rng)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, n)
	for i, row := range rows {
		scores[i] = fit.sqDist(row)
	}
	out := flagAbove(scores, ids, contamination)
	s.log.Debug("elliptic envelope: rows=%d dims=%d flagged=%d", n, p, out.Len())
	return out, nil
}

// fitMCD searches h-subsets with concentration steps, keeps the one with the
// smallest covariance determinant, then applies the consistency correction
// and one reweighting step.
func fitMCD(rows [][]float64, rng *rand.Rand) (*gaussianFit, error) {
	n, p := len(rows), len(rows[0])
	h := (n + p + 1) / 2

	var best *gaussianFit
	for start := 0; start < mcdStarts; start++ {
		subset := rng.Perm(n)[:h]
		fit := estimate(rows, subset)
		for step := 0; step < mcdMaxSteps; step++ {
			next := estimate(rows, nearest(rows, fit, h))
			if next.logDet() >= fit.logDet() {
				break
			}
			fit = next
		}
		if best == nil || fit.logDet() < best.logDet() {
			best = fit
		}
		if h == n {
			break
		}
	}

	// consistency correction
	dists := make([]float64, n)
	for i, row := range rows {
		dists[i] = best.sqDist(row)
	}
	chi := distuv.ChiSquared{K: float64(p)}
	correction := Quantile(dists, 0.5) / chi.Quantile(0.5)
	if best.chol != nil && correction > 0 && !math.IsInf(correction, 0) {
		scaled := mat.NewSymDense(p, nil)
		scaled.ScaleSym(correction, best.cov)
		best = factorized(best.loc, scaled)
	}

	// reweighting
	cut := chi.Quantile(mcdReweightAt)
	var keep []int
	for i, row := range rows {
		if best.sqDist(row) < cut {
			keep = append(keep, i)
		}
	}
	if len(keep) > p {
		best = estimate(rows, keep)
	}
	if best.chol == nil {
		return nil, core.NewInsufficientDataError("elliptic envelope", "covariance matrix is singular")
	}
	return best, nil
}

// nearest returns the h rows with the smallest squared distance under fit.
func nearest(rows [][]float64, fit *gaussianFit, h int) []int {
	order := make([]int, len(rows))
	dists := make([]float64, len(rows))
	for i, row := range rows {
		order[i] = i
		dists[i] = fit.sqDist(row)
	}
	sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })
	return order[:h]
}

// estimate returns the maximum likelihood mean and covariance of the subset.
// A covariance that does not factorize gets a small ridge.
func estimate(rows [][]float64, subset []int) *gaussianFit {
	p := len(rows[0])
	picked := make([][]float64, len(subset))
	for i, idx := range subset {
		picked[i] = rows[idx]
	}
	x := denseRows(picked, p)
	loc := columnMeans(x)

	cov := mat.NewSymDense(p, nil)
	stat.CovarianceMatrix(cov, x, nil)
	if m := len(subset); m > 1 {
		cov.ScaleSym(float64(m-1)/float64(m), cov)
	}
	return factorized(loc, cov)
}

func factorized(loc []float64, cov *mat.SymDense) *gaussianFit {
	var chol mat.Cholesky
	if chol.Factorize(cov) {
		return &gaussianFit{loc: loc, cov: cov, chol: &chol}
	}

	p := len(loc)
	ridge := 1e-10
	for j := 0; j < p; j++ {
		ridge = math.Max(ridge, 1e-10*cov.At(j, j))
	}
	reg := mat.NewSymDense(p, nil)
	reg.CopySym(cov)
	for j := 0; j < p; j++ {
		reg.SetSym(j, j, reg.At(j, j)+ridge)
	}
	if !chol.Factorize(reg) {
		return &gaussianFit{loc: loc, cov: cov, chol: nil}
	}
	return &gaussianFit{loc: loc, cov: reg, chol: &chol}
}
