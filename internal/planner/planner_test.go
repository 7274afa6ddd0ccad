package planner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/missing"
	"gomend/internal/oracle"
)

func sample() *table.Table {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return table.MustNew(
		table.Floats("price", 10, math.NaN(), 30, 40),
		table.MustColumn("city", table.DTypeString, table.Str("Oslo"), table.Str("Rome"), table.Missing(), table.Str("Oslo")),
		table.MustColumn("seen", table.DTypeDatetime, table.Time(day), table.Missing(), table.Time(day.Add(48*time.Hour)), table.Missing()),
		table.MustColumn("ok", table.DTypeBool, table.Bool(true), table.Bool(true), table.Bool(false), table.Bool(true)),
	)
}

func newPlanner() *Planner {
	return New(nil, missing.NewEngine(nil))
}

func TestSummarize(t *testing.T) {
	sum, err := newPlanner().Summarize(context.Background(), sample())
	require.NoError(t, err)
	require.Len(t, sum.Columns, 4)
	assert.Equal(t, 4, sum.Rows)

	price := sum.Columns[0]
	assert.Equal(t, oracle.KindNumeric, price.Kind)
	assert.Equal(t, 3, price.Count)
	assert.Equal(t, 1, price.Missing)
	require.NotNil(t, price.Min)
	assert.Equal(t, 10.0, *price.Min)
	assert.Equal(t, 40.0, *price.Max)
	assert.Equal(t, 30.0, *price.Median)
	assert.InDelta(t, 26.6667, *price.Mean, 1e-4)

	city := sum.Columns[1]
	assert.Equal(t, oracle.KindText, city.Kind)
	assert.Nil(t, city.Mean)
	assert.Equal(t, "Oslo", city.Mode)

	assert.Equal(t, true, sum.Columns[3].Mode)
}

func TestSummarizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPlanner().Summarize(ctx, sample())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarizeAllMissingHasNoMode(t *testing.T) {
	tbl := table.MustNew(table.Floats("x", math.NaN(), math.NaN()))
	sum, err := newPlanner().Summarize(context.Background(), tbl)
	require.NoError(t, err)
	assert.Nil(t, sum.Columns[0].Mode)
	assert.Nil(t, sum.Columns[0].Min)
}

func TestPlan(t *testing.T) {
	plan, err := newPlanner().Plan(sample())
	require.NoError(t, err)

	assert.Equal(t, []Step{
		{Column: "price", Kind: oracle.KindNumeric, Missing: 1, Strategy: missing.StrategyMean},
		{Column: "city", Kind: oracle.KindText, Missing: 1, Strategy: missing.StrategyMode},
		{Column: "seen", Kind: oracle.KindDatetime, Missing: 2, Strategy: missing.StrategyForwardFill},
	}, plan.Steps)
}

func TestPlanEmpty(t *testing.T) {
	_, err := newPlanner().Plan(table.MustNew())
	assert.ErrorIs(t, err, core.ErrEmptyDataset)
}

func TestApply(t *testing.T) {
	p := newPlanner()
	tbl := sample()
	plan, err := p.Plan(tbl)
	require.NoError(t, err)

	out, err := p.Apply(tbl, plan)
	require.NoError(t, err)

	report, err := missing.NewEngine(nil).ComputeMissingRatios(out, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalMissing)
	assert.Equal(t, "Oslo", out.Column(1).At(2).Text())
	assert.Equal(t, out.Column(2).At(0), out.Column(2).At(1))

	// input untouched
	assert.True(t, tbl.Column(0).At(1).IsMissing())
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, missing.StrategyMean, Suggest(oracle.KindNumeric))
	assert.Equal(t, missing.StrategyMode, Suggest(oracle.KindText))
	assert.Equal(t, missing.StrategyForwardFill, Suggest(oracle.KindDatetime))
	assert.Equal(t, missing.StrategyMode, Suggest(oracle.KindOther))
}
