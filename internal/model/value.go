package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the scalar types a custom field value can hold.
type ValueKind int

const (
	// KindNull is the zero Value.
	KindNull ValueKind = iota
	// KindText is a string value.
	KindText
	// KindNumber is a float64 value.
	KindNumber
	// KindBool is a boolean value.
	KindBool
)

// Value is a tagged scalar stored in a transaction's custom data. The zero
// Value is null.
type Value struct {
	text string
	num  float64
	kind ValueKind
	b    bool
}

// Text creates a string Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number creates a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool creates a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null creates a null Value.
func Null() Value { return Value{} }

// Kind returns the value's discriminant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string payload, or "" for non-text values.
func (v Value) Text() string { return v.text }

// Number returns the numeric payload, or 0 for non-number values.
func (v Value) Number() float64 { return v.num }

// Bool returns the boolean payload, or false for non-bool values.
func (v Value) Bool() bool { return v.b }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.text == o.text && v.num == o.num && v.b == o.b
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON encodes the value as its plain JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a tagged Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case string:
		*v = Text(x)
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	default:
		return fmt.Errorf("custom data value must be a scalar, got %T", raw)
	}
	return nil
}
