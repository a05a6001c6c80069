package records

import (
	"github.com/vkngwrapper/rmlog/rmutils"
)

// NullToken is the token the driver log writes for a null pointer
const NullToken = "(nil)"

// ValueKind describes how a parameter token was written in the log
type ValueKind uint8

const (
	// ValueMissing marks a parameter absent from the log line
	ValueMissing ValueKind = iota
	ValueHex
	ValueDecimal
	ValueNull
	// ValueInvalid marks a token that is neither a hex literal, a decimal literal nor the null token
	ValueInvalid
	// ValueNegative marks a decimal literal with a leading minus sign, such as numaNode=-1
	ValueNegative
)

var valueKindNames = map[ValueKind]string{
	ValueMissing:  "Missing",
	ValueHex:      "Hex",
	ValueDecimal:  "Decimal",
	ValueNull:     "Null",
	ValueInvalid:  "Invalid",
	ValueNegative: "Negative",
}

func (k ValueKind) String() string {
	return valueKindNames[k]
}

// Value is a single parameter token. It keeps the text exactly as logged so that re-rendering
// never loses precision, along with the decoded number when the token is numeric.
type Value struct {
	text string
	num  uint64
	kind ValueKind
}

// ParseValue classifies a raw token. It never fails: tokens that cannot be decoded become
// ValueInvalid values that still render as their original text.
func ParseValue(text string) Value {
	if text == NullToken {
		return Value{text: text, kind: ValueNull}
	}

	if len(text) > 1 && text[0] == '-' {
		signed, err := rmutils.ParseSignedDecimal(text)
		if err != nil {
			return Value{text: text, kind: ValueInvalid}
		}
		if signed < 0 {
			return Value{text: text, num: uint64(signed), kind: ValueNegative}
		}
		return Value{text: text, kind: ValueDecimal}
	}

	num, err := rmutils.ParseNumber(text)
	if err != nil {
		return Value{text: text, kind: ValueInvalid}
	}

	kind := ValueDecimal
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		kind = ValueHex
	}
	return Value{text: text, num: num, kind: kind}
}

// Default returns a value standing in for a parameter absent from the log line. It renders as
// def and decodes as def would.
func Default(def string) Value {
	v := ParseValue(def)
	v.kind = ValueMissing
	return v
}

// HexValue builds a value from a number, rendered in the log's hex style
func HexValue(v uint64) Value {
	return Value{text: rmutils.Hex(v), num: v, kind: ValueHex}
}

func (v Value) Kind() ValueKind { return v.kind }

// Uint64 returns the decoded number. Null, invalid and missing-null values decode as zero and
// negative values decode as their two's complement bit pattern.
func (v Value) Uint64() uint64 { return v.num }

// Int64 returns the decoded number as a signed value
func (v Value) Int64() int64 { return int64(v.num) }

func (v Value) Negative() bool { return v.kind == ValueNegative }

// Valid returns true if the value decodes to a number (null pointers are not numbers)
func (v Value) Valid() bool {
	switch v.kind {
	case ValueHex, ValueDecimal, ValueNegative:
		return true
	case ValueMissing:
		return v.text != NullToken
	}
	return false
}

func (v Value) IsNull() bool {
	return v.kind == ValueNull || (v.kind == ValueMissing && v.text == NullToken)
}

// IsZero returns true if the value is numerically zero or null
func (v Value) IsZero() bool {
	return v.IsNull() || (v.Valid() && v.num == 0)
}

// String returns the token exactly as it appeared in the log
func (v Value) String() string {
	return v.text
}

// Handle reinterprets the value as a driver handle. Null, invalid and negative tokens map to NoHandle.
func (v Value) Handle() Handle {
	if !v.Valid() || v.Negative() {
		return NoHandle
	}
	return Handle(v.num)
}
