// Package missing measures missingness and repairs missing cells of a single
// column with one of eight strategies. Every repair returns a new table.
package missing

import (
	"sort"

	"github.com/montanaflynn/stats"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal"
	"gomend/internal/oracle"
)

// Engine computes missingness reports and applies repair strategies.
type Engine struct {
	log *internal.Logger
}

// NewEngine creates an engine logging through logger.
func NewEngine(logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Engine{log: logger}
}

// ComputeMissingRatios substitutes every cell equal to one of treatAsMissing
// with the missing sentinel and reports missing/rows per column. The input
// table is not modified.
func (e *Engine) ComputeMissingRatios(t *table.Table, treatAsMissing []table.Value) (*Report, error) {
	if err := oracle.RequireRows(t); err != nil {
		return nil, err
	}

	if len(treatAsMissing) > 0 {
		mapped, err := t.Map(func(v table.Value) table.Value {
			for _, tok := range treatAsMissing {
				if v.Equal(tok) {
					return table.Missing()
				}
			}
			return v
		})
		if err != nil {
			return nil, err
		}
		t = mapped
	}

	rows := t.NumRows()
	report := &Report{Rows: rows, Columns: make([]ColumnMissingness, 0, t.NumColumns())}
	for _, c := range t.Columns() {
		n := c.MissingCount()
		ratio := float64(n) / float64(rows)
		report.TotalMissing += n
		report.Columns = append(report.Columns, ColumnMissingness{
			Column:       c.Name(),
			DType:        c.DType(),
			Kind:         oracle.Classify(c),
			MissingCount: n,
			Ratio:        ratio,
			Status:       StatusFor(ratio),
		})
	}
	return report, nil
}

// Repair applies strategy to the column ref resolves to. constant is only
// read by StrategyConstant.
func (e *Engine) Repair(t *table.Table, ref table.ColumnRef, strategy Strategy, constant table.Value) (*table.Table, error) {
	col, err := oracle.Validate(t, ref)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case StrategyMode:
		return e.fillMode(t, col)
	case StrategyMean:
		return e.fillStatistic(t, ref, "mean", stats.Mean)
	case StrategyMedian:
		return e.fillStatistic(t, ref, "median", stats.Median)
	case StrategyConstant:
		return e.fillConstant(t, col, constant)
	case StrategyRemoveRow:
		out := t.FilterRows(func(pos int) bool { return !col.Column.At(pos).IsMissing() })
		e.log.Debug("removed %d rows missing %s", t.NumRows()-out.NumRows(), col.Name())
		return out, nil
	case StrategyRemoveColumn:
		e.log.Debug("removed column %s", col.Name())
		return t.DropColumn(col.Pos), nil
	case StrategyForwardFill:
		return e.propagate(t, col, true)
	case StrategyBackwardFill:
		return e.propagate(t, col, false)
	}
	return nil, core.NewInvalidStrategyError(string(strategy))
}

// Mode returns the most frequent present value of c. Ties go to the
// smallest value in natural order.
func Mode(c *table.Column) (table.Value, bool) {
	present := c.Present()
	if len(present) == 0 {
		return table.Missing(), false
	}

	counts := make(map[string]int, len(present))
	first := make(map[string]table.Value, len(present))
	for _, v := range present {
		k := v.Key()
		if _, ok := first[k]; !ok {
			first[k] = v
		}
		counts[k]++
	}

	candidates := make([]table.Value, 0, len(first))
	best := 0
	for k, n := range counts {
		switch {
		case n > best:
			best = n
			candidates = append(candidates[:0], first[k])
		case n == best:
			candidates = append(candidates, first[k])
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
	return candidates[0], true
}

func (e *Engine) fillMode(t *table.Table, col oracle.Resolved) (*table.Table, error) {
	mode, ok := Mode(col.Column)
	if !ok {
		return nil, core.NewNoModeError(col.Name())
	}
	return e.fill(t, col, mode)
}

func (e *Engine) fillStatistic(t *table.Table, ref table.ColumnRef, name string, fn func(stats.Float64Data) (float64, error)) (*table.Table, error) {
	col, err := oracle.RequireNumeric(t, ref)
	if err != nil {
		return nil, err
	}
	xs, _ := col.Column.NumericPresent()
	if len(xs) == 0 {
		// nothing to average: the column stays as it is
		e.log.Debug("%s: no present values, %s fill skipped", col.Name(), name)
		return t.Clone(), nil
	}
	value, err := fn(xs)
	if err != nil {
		return nil, core.NewInsufficientDataError(name, err.Error())
	}
	return e.fill(t, col, table.Num(value))
}

func (e *Engine) fillConstant(t *table.Table, col oracle.Resolved, constant table.Value) (*table.Table, error) {
	kind := oracle.Classify(col.Column)
	if constant.IsMissing() || kind == oracle.KindOther || oracle.KindOf(constant.Type()) != kind {
		return nil, core.NewUnsupportedConstantError(col.Name(), string(kind), string(constant.Type()))
	}
	return e.fill(t, col, constant)
}

func (e *Engine) fill(t *table.Table, col oracle.Resolved, value table.Value) (*table.Table, error) {
	values := col.Column.Values()
	filled := 0
	for i, v := range values {
		if v.IsMissing() {
			values[i] = value
			filled++
		}
	}
	if filled == 0 {
		return t.Clone(), nil
	}
	out, err := col.Column.WithValues(values)
	if err != nil {
		return nil, err
	}
	e.log.Debug("filled %d missing cells in %s with %s", filled, col.Name(), value)
	return t.WithColumn(col.Pos, out)
}

func (e *Engine) propagate(t *table.Table, col oracle.Resolved, forward bool) (*table.Table, error) {
	values := col.Column.Values()
	last := table.Missing()
	step := func(i int) {
		if values[i].IsMissing() {
			values[i] = last
			return
		}
		last = values[i]
	}
	if forward {
		for i := 0; i < len(values); i++ {
			step(i)
		}
	} else {
		for i := len(values) - 1; i >= 0; i-- {
			step(i)
		}
	}

	out, err := col.Column.WithValues(values)
	if err != nil {
		return nil, err
	}
	return t.WithColumn(col.Pos, out)
}
