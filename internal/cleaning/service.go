// Package cleaning composes outlier detection with missing-value repair:
// flagged cells are masked as missing and then filled by a repair strategy.
package cleaning

import (
	"strings"

	"gomend/domain/table"
	"gomend/internal"
	"gomend/internal/missing"
	"gomend/internal/oracle"
	"gomend/internal/outlier"
	"gomend/internal/transform"
)

// previewLimit caps how many flagged values are logged.
const previewLimit = 5

// Service handles outliers in a single column.
type Service struct {
	log    *internal.Logger
	engine *missing.Engine
	suite  *outlier.Suite
}

// NewService wires an engine and a detector suite.
func NewService(logger *internal.Logger, engine *missing.Engine, suite *outlier.Suite) *Service {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Service{log: logger, engine: engine, suite: suite}
}

// Request describes one outlier repair.
type Request struct {
	Column   table.ColumnRef
	Detector outlier.Detector
	Strategy missing.Strategy
	Constant table.Value
}

// Outcome is the repaired table plus what the detector flagged.
type Outcome struct {
	Table   *table.Table     `json:"-" yaml:"-"`
	Column  string           `json:"column" yaml:"column"`
	Method  outlier.Method   `json:"method" yaml:"method"`
	Flagged []table.RowID    `json:"flagged" yaml:"flagged"`
	Values  []interface{}    `json:"values" yaml:"values"`
	Repair  missing.Strategy `json:"repair" yaml:"repair"`
}

// HandleOutliers detects outliers in ref with d, masks them and repairs the
// column with strategy. Zero detector and strategy values mean IQR and Mean.
func (s *Service) HandleOutliers(t *table.Table, ref table.ColumnRef, d outlier.Detector, strategy missing.Strategy, constant table.Value) (*table.Table, error) {
	out, err := s.Handle(t, Request{Column: ref, Detector: d, Strategy: strategy, Constant: constant})
	if err != nil {
		return nil, err
	}
	return out.Table, nil
}

// Handle is HandleOutliers that also reports the flagged rows.
func (s *Service) Handle(t *table.Table, req Request) (*Outcome, error) {
	col, err := oracle.RequireNumeric(t, req.Column)
	if err != nil {
		return nil, err
	}
	d := req.Detector
	if d.Method == "" {
		d.Method = outlier.MethodIQR
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = missing.StrategyMean
	}

	if d.Method == outlier.MethodAuto {
		chosen, _, err := s.suite.ChooseMethod(t, req.Column)
		if err != nil {
			return nil, err
		}
		d = outlier.Detector{Method: chosen}
	}

	flagged, err := s.suite.Detect(t, []table.ColumnRef{req.Column}, d)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{
		Column:  col.Name(),
		Method:  d.Method,
		Flagged: flagged.IDs(),
		Repair:  strategy,
	}
	for _, id := range outcome.Flagged {
		pos, _ := t.Position(id)
		outcome.Values = append(outcome.Values, col.Column.At(pos).Interface())
	}
	s.logFlagged(col.Name(), d.Method, t, col, outcome.Flagged)

	masked, err := t.SetMissing(col.Pos, flagged)
	if err != nil {
		return nil, err
	}
	repaired, err := s.engine.Repair(masked, req.Column, strategy, req.Constant)
	if err != nil {
		return nil, err
	}
	outcome.Table = repaired
	return outcome, nil
}

func (s *Service) logFlagged(name string, method outlier.Method, t *table.Table, col oracle.Resolved, ids []table.RowID) {
	if len(ids) == 0 {
		s.log.Info("%s: no outliers found with %s", name, method)
		return
	}
	preview := ids
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	vals := make([]string, 0, len(preview))
	for _, id := range preview {
		pos, _ := t.Position(id)
		vals = append(vals, col.Column.At(pos).String())
	}
	s.log.Info("%s: %d outliers found with %s, first values: %s", name, len(ids), method, strings.Join(vals, ", "))
}

// LogTransform delegates to transform.LogTransform.
func (s *Service) LogTransform(t *table.Table, ref table.ColumnRef) (*table.Table, error) {
	return transform.LogTransform(t, ref)
}

// SquareTransform delegates to transform.SquareTransform.
func (s *Service) SquareTransform(t *table.Table, ref table.ColumnRef) (*table.Table, error) {
	return transform.SquareTransform(t, ref)
}
