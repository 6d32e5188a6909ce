package value_test

import (
	"testing"

	"github.com/lookbusy1344/tamvm/internal/value"
)

func TestIntRoundTrip(t *testing.T) {
	v := value.Int32(-7)
	got, err := v.AsInt()
	if err != nil {
		t.Fatalf("AsInt: %v", err)
	}
	if got != -7 {
		t.Errorf("expected -7, got %d", got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	v := value.Float32(3.5)
	got, err := v.AsFloat()
	if err != nil {
		t.Fatalf("AsFloat: %v", err)
	}
	if got != 3.5 {
		t.Errorf("expected 3.5, got %v", got)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	tests := []bool{true, false}
	for _, want := range tests {
		v := value.BoolVal(want)
		got, err := v.AsBool()
		if err != nil {
			t.Fatalf("AsBool: %v", err)
		}
		if got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestUnknownIsWildcard(t *testing.T) {
	v := value.Value{Tag: value.Unknown, Payload: 42}
	if _, err := v.AsInt(); err != nil {
		t.Errorf("unknown should satisfy AsInt: %v", err)
	}
	if _, err := v.AsFloat(); err != nil {
		t.Errorf("unknown should satisfy AsFloat: %v", err)
	}
	if _, err := v.AsAddr(); err != nil {
		t.Errorf("unknown should satisfy AsAddr: %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	v := value.BoolVal(true)
	if _, err := v.AsFloat(); err == nil {
		t.Error("expected type mismatch reading a bool as float")
	}
}

func TestIntLikeTagsReadAsInt(t *testing.T) {
	for _, v := range []value.Value{
		value.Int32(5),
		value.BoolVal(true),
		value.StringIDVal(3),
		value.CodeAddrVal(0x100),
		value.StackAddrVal(0x200),
	} {
		if _, err := v.AsInt(); err != nil {
			t.Errorf("tag %s should read as int: %v", v.Tag, err)
		}
	}
}

func TestZeroProducesTypedZero(t *testing.T) {
	z := value.Zero(value.Float)
	f, err := z.AsFloat()
	if err != nil {
		t.Fatalf("AsFloat on zero: %v", err)
	}
	if f != 0 {
		t.Errorf("expected 0, got %v", f)
	}
}
