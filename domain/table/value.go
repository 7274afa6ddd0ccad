package table

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ValueType defines the storage type for a cell
type ValueType string

const (
	ValueTypeMissing   ValueType = "missing"
	ValueTypeNumeric   ValueType = "numeric"
	ValueTypeString    ValueType = "string"
	ValueTypeBoolean   ValueType = "boolean"
	ValueTypeTimestamp ValueType = "timestamp"
)

// Value is a single typed cell. The zero Value is missing.
type Value struct {
	typ  ValueType
	num  float64
	str  string
	b    bool
	when time.Time
}

// Missing returns the missing sentinel.
func Missing() Value {
	return Value{typ: ValueTypeMissing}
}

// Num creates a numeric value. NaN is stored as missing.
func Num(n float64) Value {
	if math.IsNaN(n) {
		return Missing()
	}
	return Value{typ: ValueTypeNumeric, num: n}
}

// Int creates a numeric value from an integer.
func Int(n int64) Value {
	return Value{typ: ValueTypeNumeric, num: float64(n)}
}

// Str creates a string value. The empty string is a real value, not missing.
func Str(s string) Value {
	return Value{typ: ValueTypeString, str: s}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	return Value{typ: ValueTypeBoolean, b: b}
}

// Time creates a timestamp value. Monotonic clock readings are stripped so
// values compare by instant.
func Time(t time.Time) Value {
	return Value{typ: ValueTypeTimestamp, when: t.Round(0)}
}

// Type returns the storage type.
func (v Value) Type() ValueType {
	if v.typ == "" {
		return ValueTypeMissing
	}
	return v.typ
}

func (v Value) IsMissing() bool   { return v.Type() == ValueTypeMissing }
func (v Value) IsNumeric() bool   { return v.typ == ValueTypeNumeric }
func (v Value) IsString() bool    { return v.typ == ValueTypeString }
func (v Value) IsBoolean() bool   { return v.typ == ValueTypeBoolean }
func (v Value) IsTimestamp() bool { return v.typ == ValueTypeTimestamp }

// Float returns the numeric payload, or NaN when v is not numeric.
func (v Value) Float() float64 {
	if v.typ != ValueTypeNumeric {
		return math.NaN()
	}
	return v.num
}

// Text returns the string payload, or "" when v is not a string.
func (v Value) Text() string {
	return v.str
}

// Boolean returns the boolean payload.
func (v Value) Boolean() bool {
	return v.b
}

// Timestamp returns the timestamp payload.
func (v Value) Timestamp() time.Time {
	return v.when
}

// IsIntegral reports whether v is numeric with no fractional part.
func (v Value) IsIntegral() bool {
	return v.typ == ValueTypeNumeric && !math.IsInf(v.num, 0) && v.num == math.Trunc(v.num)
}

// Equal compares type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type() != o.Type() {
		return false
	}
	switch v.Type() {
	case ValueTypeMissing:
		return true
	case ValueTypeNumeric:
		return v.num == o.num
	case ValueTypeString:
		return v.str == o.str
	case ValueTypeBoolean:
		return v.b == o.b
	case ValueTypeTimestamp:
		return v.when.Equal(o.when)
	}
	return false
}

// Less orders two values of the same type. Values of different types order
// by type name so sorting a mixed slice is still deterministic.
func (v Value) Less(o Value) bool {
	if v.Type() != o.Type() {
		return v.Type() < o.Type()
	}
	switch v.Type() {
	case ValueTypeNumeric:
		return v.num < o.num
	case ValueTypeString:
		return v.str < o.str
	case ValueTypeBoolean:
		return !v.b && o.b
	case ValueTypeTimestamp:
		return v.when.Before(o.when)
	}
	return false
}

// Key is a comparable identity usable as a map key.
func (v Value) Key() string {
	switch v.Type() {
	case ValueTypeNumeric:
		if v.num == 0 {
			// -0 and 0 are one value
			return "n:0"
		}
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case ValueTypeString:
		return "s:" + v.str
	case ValueTypeBoolean:
		return "b:" + strconv.FormatBool(v.b)
	case ValueTypeTimestamp:
		return "t:" + strconv.FormatInt(v.when.UnixNano(), 10)
	}
	return "m:"
}

// Interface returns the payload as a plain Go value (nil when missing).
func (v Value) Interface() interface{} {
	switch v.Type() {
	case ValueTypeNumeric:
		return v.num
	case ValueTypeString:
		return v.str
	case ValueTypeBoolean:
		return v.b
	case ValueTypeTimestamp:
		return v.when
	}
	return nil
}

// String returns the string representation of the value
func (v Value) String() string {
	switch v.Type() {
	case ValueTypeNumeric:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case ValueTypeString:
		return v.str
	case ValueTypeBoolean:
		return strconv.FormatBool(v.b)
	case ValueTypeTimestamp:
		return v.when.Format(time.RFC3339)
	case ValueTypeMissing:
		return "<missing>"
	}
	return fmt.Sprintf("<%s>", v.typ)
}
