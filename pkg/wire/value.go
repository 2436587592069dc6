package wire

import (
	"errors"
	"fmt"
	"time"
)

// ValueKind identifies the tagged union discriminant of a Value.
type ValueKind uint8

const (
	KindBool ValueKind = iota
	KindInt
	KindUint
	KindTime
	KindString
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the ZCL attribute value types ZCLIP
// carries on the wire: bool, signed int64, unsigned uint64, a UTC
// timestamp, or a string. Exactly one of the Bool/Int/Uint/Time/Str
// fields is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	Bool bool
	Int  int64
	Uint uint64
	Time time.Time
	Str  string
}

// ErrMalformedValue is returned when a CBOR item cannot be interpreted as
// a ZCL value object (anything other than bool/int/uint/text/epoch-date).
var ErrMalformedValue = errors.New("wire: malformed value")

// BoolValue constructs a bool-kind Value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// IntValue constructs a signed-int-kind Value.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// UintValue constructs an unsigned-int-kind Value.
func UintValue(v uint64) Value { return Value{Kind: KindUint, Uint: v} }

// TimeValue constructs a UTC-timestamp-kind Value.
func TimeValue(v time.Time) Value { return Value{Kind: KindTime, Time: v.UTC()} }

// StringValue constructs a string-kind Value.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// Equal reports whether two values are of the same kind and carry the
// same payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindUint:
		return v.Uint == o.Uint
	case KindTime:
		return v.Time.Equal(o.Time)
	case KindString:
		return v.Str == o.Str
	default:
		return false
	}
}

// IsAnalog reports whether the value's kind accepts the threshold fields
// of a report attribute configuration (int, uint, time — never bool or
// string).
func (v Value) IsAnalog() bool {
	switch v.Kind {
	case KindInt, KindUint, KindTime:
		return true
	default:
		return false
	}
}

// valueFromAny maps the CBOR-on-the-wire shape of a Value back to a
// Value: bool/int64/uint64 decode to their native CBOR major types, text
// decodes to a string, and a timestamp decodes through cbor.Unmarshal's
// native time.Time support (tag 1, epoch seconds) given the package's
// DecMode/EncMode in codec.go.
//
// Go's `any` cannot be tagged with a kind discriminant on decode, so
// valueFromAny works directly against the already-decoded `any`
// fxamacker/cbor produces for an untyped destination, mirroring how the
// original decoder switches on the underlying CBOR major type.
func valueFromAny(item any) (Value, error) {
	switch v := item.(type) {
	case bool:
		return BoolValue(v), nil
	case int64:
		return IntValue(v), nil
	case uint64:
		return UintValue(v), nil
	case int:
		if v < 0 {
			return IntValue(int64(v)), nil
		}
		return UintValue(uint64(v)), nil
	case string:
		return StringValue(v), nil
	case time.Time:
		return TimeValue(v), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported CBOR type %T", ErrMalformedValue, item)
	}
}

// MarshalValue encodes a Value to its CBOR item representation, suitable
// for embedding as a map value (e.g. `{aid: value}`).
func MarshalValue(v Value) (any, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindUint:
		return v.Uint, nil
	case KindString:
		return v.Str, nil
	case KindTime:
		return v.Time, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %v", ErrMalformedValue, v.Kind)
	}
}

// DecodeValueItem decodes a raw CBOR-decoded `any` (as produced by
// Unmarshal into an `any` destination) into a Value. It fails on any
// CBOR type other than bool, integer, text string, or epoch-date —
// matching the ZCL value object grammar exactly.
func DecodeValueItem(item any) (Value, error) {
	return valueFromAny(item)
}
