package outlier

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/oracle"
)

// NormalityResult is the outcome of a one-sample Kolmogorov-Smirnov test
// against a normal distribution with the sample mean and deviation.
type NormalityResult struct {
	N         int     `json:"n" yaml:"n"`
	Statistic float64 `json:"statistic" yaml:"statistic"`
	PValue    float64 `json:"p_value" yaml:"p_value"`
}

// TestNormality runs the Kolmogorov-Smirnov test over xs.
func TestNormality(xs []float64) (NormalityResult, error) {
	n := len(xs)
	if n < 2 {
		return NormalityResult{N: n}, core.NewInsufficientDataError("normality test", "at least two values are required")
	}
	mean, _ := stats.Mean(xs)
	std, _ := stats.StandardDeviationSample(xs)
	if std == 0 || math.IsNaN(std) {
		return NormalityResult{N: n}, core.NewInsufficientDataError("normality test", "values are constant")
	}

	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	ref := distuv.Normal{Mu: mean, Sigma: std}

	var d float64
	fn := float64(n)
	for i, x := range sorted {
		cdf := ref.CDF(x)
		d = math.Max(d, math.Max(float64(i+1)/fn-cdf, cdf-float64(i)/fn))
	}

	sqrtN := math.Sqrt(fn)
	p := kolmogorovQ((sqrtN + 0.12 + 0.11/sqrtN) * d)
	return NormalityResult{N: n, Statistic: d, PValue: p}, nil
}

// kolmogorovQ is the survival function of the Kolmogorov distribution.
func kolmogorovQ(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	if lambda < 1.18 {
		var sum float64
		for j := 1; j <= 8; j++ {
			k := float64(2*j - 1)
			sum += math.Exp(-k * k * math.Pi * math.Pi / (8 * lambda * lambda))
		}
		return clamp01(1 - math.Sqrt(2*math.Pi)/lambda*sum)
	}
	var sum float64
	sign := 1.0
	for j := 1; j <= 100; j++ {
		term := math.Exp(-2 * float64(j*j) * lambda * lambda)
		sum += sign * term
		if term < 1e-16 {
			break
		}
		sign = -sign
	}
	return clamp01(2 * sum)
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

// ChooseMethod picks ZScore when the present values of the column look
// normal at the configured alpha and IQR otherwise. Columns the test cannot
// run on get IQR.
//
// The p-value is the asymptotic Kolmogorov series with Stephens' small-sample
// correction, not an exact small-n distribution, so a column whose p-value
// sits near alpha may resolve differently than an exact KS test would. The
// choice is best effort.
func (s *Suite) ChooseMethod(t *table.Table, ref table.ColumnRef) (Method, NormalityResult, error) {
	col, err := oracle.RequireNumeric(t, ref)
	if err != nil {
		return "", NormalityResult{}, err
	}
	xs, _ := col.Column.NumericPresent()
	res, err := TestNormality(xs)
	if err != nil {
		s.log.Debug("auto %s: %v, using iqr", col.Name(), err)
		return MethodIQR, res, nil
	}

	alpha := s.defaults.NormalityAlpha
	if alpha == 0 {
		alpha = 0.05
	}
	method := MethodIQR
	if res.PValue > alpha {
		method = MethodZScore
	}
	s.log.Info("auto %s: ks=%.4f p=%.4f, using %s", col.Name(), res.Statistic, res.PValue, method)
	return method, res, nil
}
