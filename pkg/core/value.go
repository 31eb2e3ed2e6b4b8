package core

import (
	"fmt"
	"strconv"
)

// Kind identifies the scalar type of a Value.
type Kind int

// Kind constants for the three scalar types a parameter may hold.
const (
	KindInt Kind = iota
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged scalar: integer, floating-point, or text.
// Formatting is driven by the tag, not by reflection.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// IntValue creates an integer Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue creates a floating-point Value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// TextValue creates a text Value.
func TextValue(s string) Value { return Value{kind: KindText, s: s} }

// ValueOf converts a decoded configuration scalar into a Value.
// Supported types: int, int64, float64, bool, string.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case int:
		return IntValue(int64(val)), nil
	case int64:
		return IntValue(val), nil
	case float64:
		return FloatValue(val), nil
	case bool:
		return TextValue(strconv.FormatBool(val)), nil
	case string:
		return TextValue(val), nil
	case Value:
		return val, nil
	default:
		return Value{}, fmt.Errorf("unsupported scalar type %T", v)
	}
}

// Kind returns the scalar tag.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer payload. Valid only for KindInt.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the floating-point payload, widening integers.
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Text returns the text payload. Valid only for KindText.
func (v Value) Text() string { return v.s }

// String renders the value with generic formatting, used when no
// format spec applies.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// MarshalJSON renders the underlying scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	default:
		return []byte(strconv.Quote(v.s)), nil
	}
}

// MarshalYAML renders the underlying scalar.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	default:
		return v.s, nil
	}
}

// Format renders the value through a printf-style format spec.
func (v Value) Format(spec string) string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf(spec, v.i)
	case KindFloat:
		return fmt.Sprintf(spec, v.f)
	default:
		return fmt.Sprintf(spec, v.s)
	}
}
