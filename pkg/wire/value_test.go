package wire

import (
	"testing"
	"time"
)

func TestDecodeValueItem_Kinds(t *testing.T) {
	tests := []struct {
		name string
		item any
		want Value
	}{
		{"bool", true, BoolValue(true)},
		{"int64", int64(-7), IntValue(-7)},
		{"uint64", uint64(42), UintValue(42)},
		{"string", "hi", StringValue("hi")},
		{"time", time.Unix(1000, 0).UTC(), TimeValue(time.Unix(1000, 0).UTC())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValueItem(tt.item)
			if err != nil {
				t.Fatalf("DecodeValueItem() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("DecodeValueItem() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeValueItem_SmallIntSplitsOnSign(t *testing.T) {
	pos, err := DecodeValueItem(int(5))
	if err != nil {
		t.Fatalf("DecodeValueItem(5) error = %v", err)
	}
	if pos.Kind != KindUint || pos.Uint != 5 {
		t.Errorf("DecodeValueItem(5) = %+v, want KindUint 5", pos)
	}

	neg, err := DecodeValueItem(int(-5))
	if err != nil {
		t.Fatalf("DecodeValueItem(-5) error = %v", err)
	}
	if neg.Kind != KindInt || neg.Int != -5 {
		t.Errorf("DecodeValueItem(-5) = %+v, want KindInt -5", neg)
	}
}

func TestDecodeValueItem_UnsupportedType(t *testing.T) {
	_, err := DecodeValueItem([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("DecodeValueItem() error = nil, want error for unsupported type")
	}
}

func TestMarshalValue_UnknownKind(t *testing.T) {
	_, err := MarshalValue(Value{Kind: ValueKind(99)})
	if err == nil {
		t.Fatal("MarshalValue() error = nil, want error for unknown kind")
	}
}

func TestValue_IsAnalog(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{BoolValue(true), false},
		{StringValue("x"), false},
		{IntValue(1), true},
		{UintValue(1), true},
		{TimeValue(time.Now().UTC()), true},
	}
	for _, tt := range tests {
		if got := tt.v.IsAnalog(); got != tt.want {
			t.Errorf("%v.IsAnalog() = %v, want %v", tt.v.Kind, got, tt.want)
		}
	}
}
