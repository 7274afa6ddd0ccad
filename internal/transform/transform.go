// Package transform applies element-wise numeric transforms to a column.
// Cells outside a transform's domain become missing instead of failing.
package transform

import (
	"math"
	"strings"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/oracle"
)

// Kind names a transform.
type Kind string

const (
	KindLog  Kind = "log"
	KindSqrt Kind = "sqrt"
)

// Func is a transform over the present numeric cells of a column.
type Func struct {
	Kind   Kind
	Domain func(float64) bool
	Apply  func(float64) float64
}

var (
	// Log is the natural logarithm, defined for x > 0.
	Log = Func{Kind: KindLog, Domain: func(x float64) bool { return x > 0 }, Apply: math.Log}
	// Sqrt is the square root, defined for x >= 0.
	Sqrt = Func{Kind: KindSqrt, Domain: func(x float64) bool { return x >= 0 }, Apply: math.Sqrt}
)

// Parse resolves a transform name. "square" is accepted for Sqrt.
func Parse(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "log", "ln":
		return Log, nil
	case "sqrt", "square", "square_root":
		return Sqrt, nil
	}
	return Func{}, core.NewInvalidStrategyError(name)
}

// Result is the transformed table plus how many cells left the domain.
type Result struct {
	Table       *table.Table
	Transformed int
	Dropped     int
}

// Apply runs f over the numeric column ref. Missing cells stay missing.
func Apply(t *table.Table, ref table.ColumnRef, f Func) (Result, error) {
	col, err := oracle.RequireNumeric(t, ref)
	if err != nil {
		return Result{}, err
	}

	values := col.Column.Values()
	var res Result
	for i, v := range values {
		if v.IsMissing() {
			continue
		}
		x := v.Float()
		if !f.Domain(x) {
			values[i] = table.Missing()
			res.Dropped++
			continue
		}
		values[i] = table.Num(f.Apply(x))
		res.Transformed++
	}

	next, err := col.Column.WithValues(values)
	if err != nil {
		return Result{}, err
	}
	res.Table, err = t.WithColumn(col.Pos, next)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// LogTransform replaces x with ln(x) where x > 0 and with missing elsewhere.
func LogTransform(t *table.Table, ref table.ColumnRef) (*table.Table, error) {
	res, err := Apply(t, ref, Log)
	return res.Table, err
}

// SquareTransform replaces x with sqrt(x) where x >= 0 and with missing
// elsewhere.
func SquareTransform(t *table.Table, ref table.ColumnRef) (*table.Table, error) {
	res, err := Apply(t, ref, Sqrt)
	return res.Table, err
}
