// Package planner summarizes a table and proposes a missing-value repair per
// column.
package planner

import (
	"context"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"gomend/domain/table"
	"gomend/internal"
	"gomend/internal/missing"
	"gomend/internal/oracle"
)

// ColumnSummary describes one column. Numeric statistics are nil for
// non-numeric columns and for columns without present values.
type ColumnSummary struct {
	Column  string      `json:"column" yaml:"column"`
	DType   table.DType `json:"dtype" yaml:"dtype"`
	Kind    oracle.Kind `json:"kind" yaml:"kind"`
	Count   int         `json:"count" yaml:"count"`
	Missing int         `json:"missing" yaml:"missing"`
	Min     *float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64    `json:"max,omitempty" yaml:"max,omitempty"`
	Mean    *float64    `json:"mean,omitempty" yaml:"mean,omitempty"`
	Median  *float64    `json:"median,omitempty" yaml:"median,omitempty"`
	Mode    interface{} `json:"mode" yaml:"mode"`
}

// Summary covers every column in table order.
type Summary struct {
	Rows    int             `json:"rows" yaml:"rows"`
	Columns []ColumnSummary `json:"columns" yaml:"columns"`
}

// Step is the suggested repair of one column.
type Step struct {
	Column   string           `json:"column" yaml:"column"`
	Kind     oracle.Kind      `json:"kind" yaml:"kind"`
	Missing  int              `json:"missing" yaml:"missing"`
	Strategy missing.Strategy `json:"strategy" yaml:"strategy"`
}

// Plan lists repairs in column order.
type Plan struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Planner builds and applies plans.
type Planner struct {
	log    *internal.Logger
	engine *missing.Engine
}

// New creates a planner backed by engine.
func New(logger *internal.Logger, engine *missing.Engine) *Planner {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Planner{log: logger, engine: engine}
}

// Summarize computes column summaries concurrently. Columns are immutable,
// so each worker reads its own column without locking.
func (p *Planner) Summarize(ctx context.Context, t *table.Table) (*Summary, error) {
	cols := t.Columns()
	out := make([]ColumnSummary, len(cols))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range cols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = summarizeColumn(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Debug("summarized %d columns over %d rows", len(cols), t.NumRows())
	return &Summary{Rows: t.NumRows(), Columns: out}, nil
}

func summarizeColumn(c *table.Column) ColumnSummary {
	s := ColumnSummary{
		Column:  c.Name(),
		DType:   c.DType(),
		Kind:    oracle.Classify(c),
		Missing: c.MissingCount(),
	}
	s.Count = c.Len() - s.Missing
	if mode, ok := missing.Mode(c); ok {
		s.Mode = mode.Interface()
	}
	if s.Kind != oracle.KindNumeric {
		return s
	}

	xs, _ := c.NumericPresent()
	if len(xs) == 0 {
		return s
	}
	s.Min = stat(stats.Min, xs)
	s.Max = stat(stats.Max, xs)
	s.Mean = stat(stats.Mean, xs)
	s.Median = stat(stats.Median, xs)
	return s
}

func stat(fn func(stats.Float64Data) (float64, error), xs []float64) *float64 {
	v, err := fn(xs)
	if err != nil {
		return nil
	}
	return &v
}

// Suggest maps a column kind to its default repair.
func Suggest(kind oracle.Kind) missing.Strategy {
	switch kind {
	case oracle.KindNumeric:
		return missing.StrategyMean
	case oracle.KindDatetime:
		return missing.StrategyForwardFill
	}
	return missing.StrategyMode
}

// Plan proposes a repair for every column with at least one missing cell.
func (p *Planner) Plan(t *table.Table) (*Plan, error) {
	if err := oracle.RequireRows(t); err != nil {
		return nil, err
	}
	plan := &Plan{}
	for _, c := range t.Columns() {
		n := c.MissingCount()
		if n == 0 {
			continue
		}
		kind := oracle.Classify(c)
		plan.Steps = append(plan.Steps, Step{Column: c.Name(), Kind: kind, Missing: n, Strategy: Suggest(kind)})
	}
	return plan, nil
}

// Apply runs every step in order through the missing-value engine.
func (p *Planner) Apply(t *table.Table, plan *Plan) (*table.Table, error) {
	out := t.Clone()
	for _, step := range plan.Steps {
		next, err := p.engine.Repair(out, table.Name(step.Column), step.Strategy, table.Missing())
		if err != nil {
			return nil, err
		}
		p.log.Info("%s: %s repaired %d missing cells", step.Column, step.Strategy, step.Missing)
		out = next
	}
	return out, nil
}
