package missing

import (
	"gomend/domain/table"
	"gomend/internal/oracle"
)

// Status is the severity tier of a column's missingness.
type Status string

const (
	StatusCritical   Status = "Critical"
	StatusAcceptable Status = "Acceptable"
	StatusGood       Status = "Good"
)

// Tier boundaries; both ends of the acceptable band are inclusive.
const (
	AcceptableFloor   = 0.05
	AcceptableCeiling = 0.20
)

// StatusFor maps a missing ratio to its tier.
func StatusFor(ratio float64) Status {
	switch {
	case ratio > AcceptableCeiling:
		return StatusCritical
	case ratio >= AcceptableFloor:
		return StatusAcceptable
	default:
		return StatusGood
	}
}

// ColumnMissingness is one row of a missingness report.
type ColumnMissingness struct {
	Column       string      `json:"column" yaml:"column"`
	DType        table.DType `json:"dtype" yaml:"dtype"`
	Kind         oracle.Kind `json:"kind" yaml:"kind"`
	MissingCount int         `json:"missing_count" yaml:"missing_count"`
	Ratio        float64     `json:"ratio" yaml:"ratio"`
	Status       Status      `json:"status" yaml:"status"`
}

// Report holds per-column missingness in schema order.
type Report struct {
	Rows         int                 `json:"rows" yaml:"rows"`
	TotalMissing int                 `json:"total_missing" yaml:"total_missing"`
	Columns      []ColumnMissingness `json:"columns" yaml:"columns"`
}

// Ratios returns the column -> ratio mapping.
func (r *Report) Ratios() map[string]float64 {
	out := make(map[string]float64, len(r.Columns))
	for _, c := range r.Columns {
		out[c.Column] = c.Ratio
	}
	return out
}

// Get returns the entry for a column name.
func (r *Report) Get(column string) (ColumnMissingness, bool) {
	for _, c := range r.Columns {
		if c.Column == column {
			return c, true
		}
	}
	return ColumnMissingness{}, false
}

// TokensAsMissing turns raw placeholder strings into string cells for use as
// the treat-as-missing set.
func TokensAsMissing(tokens []string) []table.Value {
	out := make([]table.Value, len(tokens))
	for i, tok := range tokens {
		out[i] = table.Str(tok)
	}
	return out
}
