package api

import (
	"fmt"
	"net/http"

	"gomend/domain/table"
	"gomend/internal/cleaning"
	"gomend/internal/errors"
	"gomend/internal/missing"
	"gomend/internal/oracle"
	"gomend/internal/outlier"
	"gomend/internal/transform"
)

// MissingReportRequest asks for per-column missingness.
type MissingReportRequest struct {
	Table          TablePayload  `json:"table"`
	TreatAsMissing []interface{} `json:"treat_as_missing,omitempty"`
}

// RepairRequest repairs one column.
type RepairRequest struct {
	Table    TablePayload `json:"table"`
	Column   string       `json:"column"`
	Strategy string       `json:"strategy"`
	Constant interface{}  `json:"constant,omitempty"`
}

// DetectRequest runs a detector over one or more columns.
type DetectRequest struct {
	Table    TablePayload     `json:"table"`
	Columns  []string         `json:"columns"`
	Detector outlier.Detector `json:"detector"`
}

// DetectResponse lists the flagged rows.
type DetectResponse struct {
	Method outlier.Method `json:"method"`
	Rows   []table.RowID  `json:"rows"`
}

// HandleRequest masks and repairs outliers in one column.
type HandleRequest struct {
	Table    TablePayload     `json:"table"`
	Column   string           `json:"column"`
	Detector outlier.Detector `json:"detector"`
	Strategy string           `json:"strategy,omitempty"`
	Constant interface{}      `json:"constant,omitempty"`
}

// HandleResponse is the repaired table plus what was flagged.
type HandleResponse struct {
	*cleaning.Outcome
	Table TablePayload `json:"table"`
}

// TransformRequest applies log or sqrt to one column.
type TransformRequest struct {
	Table     TablePayload `json:"table"`
	Column    string       `json:"column"`
	Transform string       `json:"transform"`
}

// TransformResponse is the transformed table.
type TransformResponse struct {
	Table       TablePayload `json:"table"`
	Transformed int          `json:"transformed"`
	Dropped     int          `json:"dropped"`
}

// TableRequest carries only a table.
type TableRequest struct {
	Table TablePayload `json:"table"`
}

// TableResponse carries only a table.
type TableResponse struct {
	Table TablePayload `json:"table"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMissingReport(w http.ResponseWriter, r *http.Request) {
	var req MissingReportRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	tokens := make([]table.Value, 0, len(req.TreatAsMissing))
	for _, raw := range req.TreatAsMissing {
		v, err := decodeValue(raw, table.DTypeObject)
		if err != nil {
			s.writeError(w, errors.InvalidInput(err.Error()))
			return
		}
		tokens = append(tokens, v)
	}

	report, err := s.engine.ComputeMissingRatios(t, tokens)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req RepairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	strategy, err := s.strategyOrDefault(req.Strategy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ref := table.ParseRef(req.Column)
	constant, err := constantFor(t, ref, req.Constant)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out, err := s.engine.Repair(t, ref, strategy, constant)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TableResponse{Table: FromTable(out)})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.normalizeDetector(req.Detector)
	if err != nil {
		s.writeError(w, err)
		return
	}
	refs := make([]table.ColumnRef, len(req.Columns))
	for i, c := range req.Columns {
		refs[i] = table.ParseRef(c)
	}

	method := d.Method
	if method == outlier.MethodAuto && len(refs) > 0 {
		if method, _, err = s.suite.ChooseMethod(t, refs[0]); err != nil {
			s.writeError(w, err)
			return
		}
		d = outlier.Detector{Method: method}
	}
	rows, err := s.suite.Detect(t, refs, d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{Method: method, Rows: rows.IDs()})
}

func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	var req HandleRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.normalizeDetector(req.Detector)
	if err != nil {
		s.writeError(w, err)
		return
	}
	strategy, err := s.strategyOrDefault(req.Strategy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ref := table.ParseRef(req.Column)
	constant, err := constantFor(t, ref, req.Constant)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out, err := s.cleaner.Handle(t, cleaning.Request{Column: ref, Detector: d, Strategy: strategy, Constant: constant})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HandleResponse{Outcome: out, Table: FromTable(out.Table)})
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	f, err := transform.Parse(req.Transform)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := transform.Apply(t, table.ParseRef(req.Column), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransformResponse{Table: FromTable(res.Table), Transformed: res.Transformed, Dropped: res.Dropped})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sum, err := s.planner.Summarize(r.Context(), t)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	plan, err := s.planner.Plan(t)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// normalizeDetector accepts method aliases in the request body. An empty
// method is cleaning.default_detector.
func (s *Server) normalizeDetector(d outlier.Detector) (outlier.Detector, error) {
	name := string(d.Method)
	if name == "" {
		name = s.cfg.Cleaning.DefaultDetector
	}
	m, err := outlier.ParseMethod(name)
	if err != nil {
		return d, err
	}
	d.Method = m
	return d, nil
}

// strategyOrDefault parses a strategy name, using cleaning.default_strategy
// when it is empty.
func (s *Server) strategyOrDefault(name string) (missing.Strategy, error) {
	if name == "" {
		name = s.cfg.Cleaning.DefaultStrategy
	}
	return missing.ParseStrategy(name)
}

// constantFor decodes a repair constant. Strings aimed at a datetime column
// are parsed as RFC 3339 timestamps.
func constantFor(t *table.Table, ref table.ColumnRef, raw interface{}) (table.Value, error) {
	if raw == nil {
		return table.Missing(), nil
	}
	dtype := table.DTypeObject
	if col, err := oracle.Validate(t, ref); err == nil && oracle.Classify(col.Column) == oracle.KindDatetime {
		dtype = table.DTypeDatetime
	}
	v, err := decodeValue(raw, dtype)
	if err != nil {
		return table.Value{}, errors.InvalidInput(fmt.Sprintf("constant: %v", err))
	}
	return v, nil
}

