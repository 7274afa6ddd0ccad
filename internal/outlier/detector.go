// Package outlier detects anomalous rows of numeric columns. Each detector
// returns the set of row ids it considers anomalous; missing cells are never
// flagged.
package outlier

import (
	"strings"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal"
	"gomend/internal/config"
	"gomend/internal/oracle"
	"gomend/ports"
)

// Method names a detection algorithm.
type Method string

const (
	MethodIQR              Method = "iqr"
	MethodZScore           Method = "zscore"
	MethodFrequency        Method = "frequency"
	MethodIsolationForest  Method = "isolation_forest"
	MethodEllipticEnvelope Method = "elliptic_envelope"
	MethodMahalanobis      Method = "mahalanobis"
	MethodDBSCAN           Method = "dbscan"
	MethodLOF              Method = "lof"
	MethodAuto             Method = "auto"
)

// Methods lists every method in declaration order.
func Methods() []Method {
	return []Method{
		MethodIQR, MethodZScore, MethodFrequency, MethodIsolationForest,
		MethodEllipticEnvelope, MethodMahalanobis, MethodDBSCAN, MethodLOF, MethodAuto,
	}
}

// ParseMethod accepts a method name, case-insensitive, with '-' or '_'.
func ParseMethod(s string) (Method, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch norm {
	case "z_score":
		return MethodZScore, nil
	case "iforest":
		return MethodIsolationForest, nil
	}
	for _, m := range Methods() {
		if string(m) == norm {
			return m, nil
		}
	}
	return "", core.NewInvalidDetectorError(s)
}

// Multivariate reports whether the method fits over several columns at once.
func (m Method) Multivariate() bool {
	switch m {
	case MethodIsolationForest, MethodEllipticEnvelope, MethodMahalanobis, MethodDBSCAN, MethodLOF:
		return true
	}
	return false
}

// Detector is a method plus its parameters. Zero parameters are replaced by
// the suite defaults when the detector runs.
type Detector struct {
	Method        Method  `json:"method" yaml:"method"`
	Threshold     float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Contamination float64 `json:"contamination,omitempty" yaml:"contamination,omitempty"`
	Eps           float64 `json:"eps,omitempty" yaml:"eps,omitempty"`
	MinSamples    int     `json:"min_samples,omitempty" yaml:"min_samples,omitempty"`
	NNeighbors    int     `json:"n_neighbors,omitempty" yaml:"n_neighbors,omitempty"`
}

func IQR(k float64) Detector {
	return Detector{Method: MethodIQR, Threshold: k}
}

func ZScore(threshold float64) Detector {
	return Detector{Method: MethodZScore, Threshold: threshold}
}

func Frequency(threshold float64) Detector {
	return Detector{Method: MethodFrequency, Threshold: threshold}
}

func IsolationForest(contamination float64) Detector {
	return Detector{Method: MethodIsolationForest, Contamination: contamination}
}

func EllipticEnvelope(contamination float64) Detector {
	return Detector{Method: MethodEllipticEnvelope, Contamination: contamination}
}

func Mahalanobis() Detector {
	return Detector{Method: MethodMahalanobis}
}

func DBSCAN(eps float64, minSamples int) Detector {
	return Detector{Method: MethodDBSCAN, Eps: eps, MinSamples: minSamples}
}

func LOF(nNeighbors int, contamination float64) Detector {
	return Detector{Method: MethodLOF, NNeighbors: nNeighbors, Contamination: contamination}
}

// Auto picks IQR or ZScore per column from a normality test.
func Auto() Detector {
	return Detector{Method: MethodAuto}
}

// Suite runs detectors with shared defaults.
type Suite struct {
	log      *internal.Logger
	defaults config.OutlierConfig
	rng      ports.RNG
}

// NewSuite creates a suite. Zero detector parameters fall back to defaults.
func NewSuite(logger *internal.Logger, defaults config.OutlierConfig) *Suite {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Suite{log: logger, defaults: defaults, rng: ports.SeededRNG{}}
}

// WithRNG replaces the random source of the model detectors.
func (s *Suite) WithRNG(rng ports.RNG) *Suite {
	s.rng = rng
	return s
}

// Defaults returns the configured parameters.
func (s *Suite) Defaults() config.OutlierConfig { return s.defaults }

func (s *Suite) withDefaults(d Detector) Detector {
	switch d.Method {
	case MethodIQR:
		d.Threshold = orFloat(d.Threshold, s.defaults.IQRThreshold)
	case MethodZScore:
		d.Threshold = orFloat(d.Threshold, s.defaults.ZScoreThreshold)
	case MethodFrequency:
		d.Threshold = orFloat(d.Threshold, s.defaults.FrequencyThreshold)
	}
	d.Contamination = orFloat(d.Contamination, s.defaults.Contamination)
	d.Eps = orFloat(d.Eps, s.defaults.DBSCANEps)
	if d.MinSamples == 0 {
		d.MinSamples = s.defaults.DBSCANMinSamples
	}
	if d.NNeighbors == 0 {
		d.NNeighbors = s.defaults.LOFNeighbors
	}
	return d
}

func orFloat(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

// Detect dispatches d over refs. Univariate methods use only the first ref;
// Auto resolves to IQR or ZScore through ChooseMethod.
func (s *Suite) Detect(t *table.Table, refs []table.ColumnRef, d Detector) (table.RowSet, error) {
	if len(refs) == 0 {
		return nil, core.NewInsufficientDataError(string(d.Method), "no columns given")
	}
	d = s.withDefaults(d)

	switch d.Method {
	case MethodIQR:
		return s.IQR(t, refs[0], d.Threshold)
	case MethodZScore:
		return s.ZScore(t, refs[0], d.Threshold)
	case MethodFrequency:
		return s.Frequency(t, refs[0], d.Threshold)
	case MethodIsolationForest:
		return s.IsolationForest(t, refs, d.Contamination)
	case MethodEllipticEnvelope:
		return s.EllipticEnvelope(t, refs, d.Contamination)
	case MethodMahalanobis:
		return s.Mahalanobis(t, refs)
	case MethodDBSCAN:
		return s.DBSCAN(t, refs, d.Eps, d.MinSamples)
	case MethodLOF:
		return s.LOF(t, refs, d.NNeighbors, d.Contamination)
	case MethodAuto:
		chosen, _, err := s.ChooseMethod(t, refs[0])
		if err != nil {
			return nil, err
		}
		return s.Detect(t, refs[:1], Detector{Method: chosen})
	}
	return nil, core.NewInvalidDetectorError(string(d.Method))
}

// matrix collects the rows of the resolved columns that have no missing
// cell, as a row-major slice plus the matching row ids.
func matrix(t *table.Table, cols []oracle.Resolved) ([][]float64, []table.RowID) {
	var rows [][]float64
	var ids []table.RowID
	for pos := 0; pos < t.NumRows(); pos++ {
		row := make([]float64, len(cols))
		complete := true
		for j, c := range cols {
			v := c.Column.At(pos)
			if !v.IsNumeric() {
				complete = false
				break
			}
			row[j] = v.Float()
		}
		if complete {
			rows = append(rows, row)
			ids = append(ids, t.RowIDAt(pos))
		}
	}
	return rows, ids
}

// flagAbove returns the ids whose score is strictly above the
// (1-contamination) quantile of all scores.
func flagAbove(scores []float64, ids []table.RowID, contamination float64) table.RowSet {
	out := table.NewRowSet()
	if len(scores) == 0 {
		return out
	}
	cut := Quantile(scores, 1-contamination)
	for i, sc := range scores {
		if sc > cut {
			out.Add(ids[i])
		}
	}
	return out
}
