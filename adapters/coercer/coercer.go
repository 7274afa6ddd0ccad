// Package coercer turns raw text cells from files and drivers into typed
// table values.
package coercer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gomend/domain/table"
)

// TypeCoercer infers column dtypes and parses cells deterministically
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]struct{}
}

// CoercionConfig defines the inference thresholds and missing tokens
type CoercionConfig struct {
	NumericThreshold   float64  `json:"numeric_threshold"`   // share of present cells that must parse as numbers
	BooleanThreshold   float64  `json:"boolean_threshold"`   // share of present cells that must parse as booleans
	TimestampThreshold float64  `json:"timestamp_threshold"` // share of present cells that must parse as timestamps
	MissingTokens      []string `json:"missing_tokens"`      // cells read as missing, compared after trimming
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8,
		BooleanThreshold:   0.9,
		TimestampThreshold: 0.8,
		MissingTokens:      []string{"", "NA", "N/A", "null", "?"},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]struct{}, len(config.MissingTokens)+1)
	missing[""] = struct{}{}
	for _, tok := range config.MissingTokens {
		missing[strings.TrimSpace(tok)] = struct{}{}
	}
	return &TypeCoercer{config: config, missing: missing}
}

// IsMissing reports whether raw is one of the missing tokens.
func (c *TypeCoercer) IsMissing(raw string) bool {
	_, ok := c.missing[strings.TrimSpace(raw)]
	return ok
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount     int     `json:"total_count"`
	ValidCount     int     `json:"valid_count"`
	NumericCount   int     `json:"numeric_count"`
	IntegralCount  int     `json:"integral_count"`
	BooleanCount   int     `json:"boolean_count"`
	TimestampCount int     `json:"timestamp_count"`
	NumericRatio   float64 `json:"numeric_ratio"`
	BooleanRatio   float64 `json:"boolean_ratio"`
	TimestampRatio float64 `json:"timestamp_ratio"`
}

// AnalyzeTypeDistribution counts how many present cells parse as each type
func (c *TypeCoercer) AnalyzeTypeDistribution(raw []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(raw)}
	for _, s := range raw {
		if c.IsMissing(s) {
			continue
		}
		analysis.ValidCount++
		if x, ok := parseNumeric(s); ok {
			analysis.NumericCount++
			if x == math.Trunc(x) {
				analysis.IntegralCount++
			}
		}
		if _, ok := parseBoolean(s); ok {
			analysis.BooleanCount++
		}
		if _, ok := parseTimestamp(s); ok {
			analysis.TimestampCount++
		}
	}
	if analysis.ValidCount > 0 {
		valid := float64(analysis.ValidCount)
		analysis.NumericRatio = float64(analysis.NumericCount) / valid
		analysis.BooleanRatio = float64(analysis.BooleanCount) / valid
		analysis.TimestampRatio = float64(analysis.TimestampCount) / valid
	}
	return analysis
}

// InferDType chooses the dtype for a column of raw cells. A column with no
// present cell is float, like an all-NA column read by pandas.
func (c *TypeCoercer) InferDType(raw []string) table.DType {
	a := c.AnalyzeTypeDistribution(raw)
	if a.ValidCount == 0 {
		return table.DTypeFloat
	}

	// Check thresholds in order of preference (most restrictive first)
	switch {
	case a.NumericRatio >= c.config.NumericThreshold:
		if a.IntegralCount == a.NumericCount && a.NumericCount == a.ValidCount {
			return table.DTypeInt
		}
		return table.DTypeFloat
	case a.BooleanRatio >= c.config.BooleanThreshold:
		return table.DTypeBool
	case a.TimestampRatio >= c.config.TimestampThreshold:
		return table.DTypeDatetime
	}
	return table.DTypeString
}

// Coerce parses raw as a cell of dtype. Missing tokens and cells that do not
// parse become missing.
func (c *TypeCoercer) Coerce(raw string, dtype table.DType) table.Value {
	if c.IsMissing(raw) {
		return table.Missing()
	}
	switch dtype {
	case table.DTypeInt, table.DTypeFloat:
		if x, ok := parseNumeric(raw); ok {
			return table.Num(x)
		}
		return table.Missing()
	case table.DTypeBool:
		if b, ok := parseBoolean(raw); ok {
			return table.Bool(b)
		}
		return table.Missing()
	case table.DTypeDatetime:
		if t, ok := parseTimestamp(raw); ok {
			return table.Time(t)
		}
		return table.Missing()
	case table.DTypeObject:
		return c.CoerceValue(raw)
	}
	return table.Str(strings.TrimSpace(raw))
}

// CoerceColumn infers the dtype of raw and builds the column.
func (c *TypeCoercer) CoerceColumn(name string, raw []string) (*table.Column, error) {
	dtype := c.InferDType(raw)
	values := make([]table.Value, len(raw))
	for i, s := range raw {
		values[i] = c.Coerce(s, dtype)
	}
	return table.NewColumn(name, dtype, values)
}

// CoerceValue converts a value of unknown type, trying numeric, boolean and
// timestamp in that order before falling back to text.
func (c *TypeCoercer) CoerceValue(raw interface{}) table.Value {
	switch v := raw.(type) {
	case nil:
		return table.Missing()
	case table.Value:
		return v
	case float64:
		return table.Num(v)
	case float32:
		return table.Num(float64(v))
	case int:
		return table.Int(int64(v))
	case int32:
		return table.Int(int64(v))
	case int64:
		return table.Int(v)
	case bool:
		return table.Bool(v)
	case time.Time:
		return table.Time(v)
	case []byte:
		return c.CoerceValue(string(v))
	case string:
		if c.IsMissing(v) {
			return table.Missing()
		}
		if x, ok := parseNumeric(v); ok {
			return table.Num(x)
		}
		if b, ok := parseBoolean(v); ok {
			return table.Bool(b)
		}
		if t, ok := parseTimestamp(v); ok {
			return table.Time(t)
		}
		return table.Str(strings.TrimSpace(v))
	}
	return table.Missing()
}

// parseNumeric attempts to parse as numeric with strict rules
// Handles parentheses for negatives, European decimals and currency symbols
func parseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		// 1.234,56 or 1 234,56 when the last comma carries at most three digits
		afterComma := cleanVal[strings.LastIndex(cleanVal, ",")+1:]
		if len(afterComma) <= 3 && strings.IndexFunc(afterComma, notDigit) < 0 {
			cleanVal = strings.NewReplacer(".", "", " ", "", ",", ".").Replace(cleanVal)
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		}
	case hasComma:
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

func notDigit(r rune) bool { return r < '0' || r > '9' }

// parseBoolean accepts common boolean spellings
func parseBoolean(strVal string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(strVal)) {
	case "true", "yes", "y", "on", "t":
		return true, true
	case "false", "no", "n", "off", "f":
		return false, true
	}
	return false, false
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// parseTimestamp tries the supported layouts in order
func parseTimestamp(strVal string) (time.Time, bool) {
	s := strings.TrimSpace(strVal)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
