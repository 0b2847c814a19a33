package gctoo

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
)

// String names the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	}
	return "missing"
}

// Value is one metadata cell. The zero Value is missing.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// String, Int, Float and Missing build metadata values.
func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Missing() Value        { return Value{} }

// Kind reports which of the constructors built v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports a value read from a null token.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Text returns the payload of a string value and "" otherwise.
func (v Value) Text() string { return v.s }

// Int64 returns the payload of an int value, truncating floats.
func (v Value) Int64() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float64 widens ints and returns NaN for strings and missing values.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	}
	return math.NaN()
}

// String formats the value the way it is written to disk. Floats always
// carry a decimal point or exponent so they decode as floats again.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	}
	return ""
}

// formatFloat always shows a decimal point so floats read back as floats.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Equal reports whether v and o have the same kind and payload. NaN
// equals NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	}
	return true
}

// matches compares numbers by value across int and float kinds.
func (v Value) matches(o Value) bool {
	if v.Equal(o) {
		return true
	}
	numeric := func(k Kind) bool { return k == KindInt || k == KindFloat }
	return numeric(v.kind) && numeric(o.kind) && v.Float64() == o.Float64()
}

// NullSentinel is the on-disk spelling of a missing metadata value.
const NullSentinel = "-666"

// NullDirection selects how NormalizeNull rewrites sentinel values.
type NullDirection uint8

const (
	// ToMissing turns every sentinel spelling into a missing value.
	ToMissing NullDirection = iota
	// ToSentinel turns missing values and every sentinel spelling into
	// String("-666").
	ToSentinel
)

// IsNull reports whether v is -666, "-666" or -666.0.
func IsNull(v Value) bool {
	switch v.kind {
	case KindString:
		return v.s == NullSentinel
	case KindInt:
		return v.i == -666
	case KindFloat:
		return v.f == -666
	}
	return false
}

// NormalizeNull applies the sentinel convention to one value.
func NormalizeNull(v Value, dir NullDirection) Value {
	switch dir {
	case ToMissing:
		if IsNull(v) {
			return Missing()
		}
	case ToSentinel:
		if v.IsMissing() || IsNull(v) {
			return String(NullSentinel)
		}
	}
	return v
}
