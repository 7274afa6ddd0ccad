package missing

import (
	"strings"

	"gomend/domain/core"
)

// Strategy selects how missing cells of a column are repaired.
type Strategy string

const (
	StrategyMode         Strategy = "mode"
	StrategyMean         Strategy = "mean"
	StrategyMedian       Strategy = "median"
	StrategyConstant     Strategy = "constant"
	StrategyRemoveRow    Strategy = "remove_row"
	StrategyRemoveColumn Strategy = "remove_column"
	StrategyForwardFill  Strategy = "forward_fill"
	StrategyBackwardFill Strategy = "backward_fill"
)

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyMode, StrategyMean, StrategyMedian, StrategyConstant,
		StrategyRemoveRow, StrategyRemoveColumn, StrategyForwardFill, StrategyBackwardFill,
	}
}

var strategyAliases = map[string]Strategy{
	"ffill":       StrategyForwardFill,
	"forward":     StrategyForwardFill,
	"bfill":       StrategyBackwardFill,
	"backward":    StrategyBackwardFill,
	"drop_row":    StrategyRemoveRow,
	"drop_column": StrategyRemoveColumn,
}

// ParseStrategy accepts a strategy name (case-insensitive, '-' or '_')
// or one of the short aliases ffill/bfill/drop_row/drop_column.
func ParseStrategy(s string) (Strategy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if alias, ok := strategyAliases[norm]; ok {
		return alias, nil
	}
	for _, st := range Strategies() {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", core.NewInvalidStrategyError(s)
}
