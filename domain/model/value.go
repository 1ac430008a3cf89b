package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// KindMissing is an empty or not-applicable cell
	KindMissing ValueKind = iota
	// KindText is a textual answer
	KindText
	// KindNumber is a numeric answer
	KindNumber
)

// String returns the kind name
func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single table cell: text, number or missing.
//
// Equality rules:
//   - a missing value is never equal to anything, including another missing value
//   - numbers are equal when their float64 values are equal, so 1 and 1.0 agree
//   - text is equal when the strings are byte-identical
//   - text and numbers are never equal, even when they print the same
//
// The zero Value is missing.
type Value struct {
	kind   ValueKind
	text   string
	number float64
}

// MissingValue returns the missing value.
func MissingValue() Value {
	return Value{}
}

// TextValue returns a text value.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// NumberValue returns a numeric value. NaN is treated as missing.
func NumberValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	if f == 0 {
		f = 0 // fold -0
	}
	return Value{kind: KindNumber, number: f}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsMissing reports whether the value is missing.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// String returns the display form of the value. Missing values print empty.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal reports whether v and other count as the same answer.
func (v Value) Equal(other Value) bool {
	if v.kind == KindMissing || other.kind == KindMissing || v.kind != other.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.number == other.number
	}
	return v.text == other.text
}

// Key returns a string identity such that two non-missing values are Equal
// exactly when their keys are equal. It is used to bucket groups and answers.
func (v Value) Key() string {
	switch v.kind {
	case KindText:
		return "t:" + v.text
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.number, 'g', -1, 64)
	default:
		return "m:"
	}
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		if math.IsInf(v.number, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.number)
	default:
		return []byte("null"), nil
	}
}
