package value

import (
	"math"
	"testing"
)

func TestPromotionLadder(t *testing.T) {
	tests := []struct {
		a, b Kind
		want Kind
	}{
		{KindI8, KindI8, KindI8},
		{KindI8, KindU8, KindU8},
		{KindU8, KindI32, KindI32},
		{KindI32, KindU32, KindU32},
		{KindU32, KindI64, KindI64},
		{KindI64, KindU64, KindU64},
		{KindU64, KindF32, KindF32},
		{KindF32, KindF64, KindF64},
		{KindI16, KindF64, KindF64},
	}
	for _, tt := range tests {
		_, _, kind, err := Promote(Int(tt.a, 1), Int(tt.b, 1))
		if err != nil {
			t.Fatalf("%s + %s: %s", tt.a, tt.b, err.Message())
		}
		if kind != tt.want {
			t.Errorf("%s + %s promoted to %s, want %s", tt.a, tt.b, kind, tt.want)
		}
	}
}

func TestPromoteKeepsNumericValue(t *testing.T) {
	a, b, kind, err := Promote(Int(KindU8, 200), I32(5))
	if err != nil {
		t.Fatal(err.Message())
	}
	if kind != KindI32 {
		t.Fatalf("promoted kind = %s, want i32", kind)
	}
	if a.Int != 200 || b.Int != 5 {
		t.Errorf("promoted values = %d, %d; want 200, 5", a.Int, b.Int)
	}
}

func TestPromoteRejectsNonNumeric(t *testing.T) {
	if _, _, _, err := Promote(Bool(true), I32(1)); err == nil || err.Kind != TypeError {
		t.Errorf("promoting a bool must be a TypeError")
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		target  Kind
		want    int64
		errKind ErrKind // "" means success expected
	}{
		{"i32 fits i8", I32(100), KindI8, 100, ""},
		{"i32 overflows i8", I32(200), KindI8, 0, RangeError},
		{"negative to u8", I32(-1), KindU8, 0, RangeError},
		{"u8 max", I32(255), KindU8, 255, ""},
		{"negative to u64", I64(-5), KindU64, 0, RangeError},
		{"float whole to i32", F64(42.0), KindI32, 42, ""},
		{"float fractional to i32", F64(42.5), KindI32, 0, RangeError},
		{"float overflow i16", F64(70000), KindI16, 0, RangeError},
		{"bool to i32", Bool(true), KindI32, 0, TypeError},
	}
	for _, tt := range tests {
		got, err := Convert(tt.v, tt.target)
		if tt.errKind != "" {
			if err == nil || err.Kind != tt.errKind {
				t.Errorf("%s: expected %s, got %v", tt.name, tt.errKind, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %s", tt.name, err.Message())
			continue
		}
		if got.Kind != tt.target || got.Int != tt.want {
			t.Errorf("%s: got %s(%d), want %s(%d)", tt.name, got.Kind, got.Int, tt.target, tt.want)
		}
	}
}

func TestConvertFloatAtWordBoundaries(t *testing.T) {
	// 2^63 and 2^64 are exactly representable as f64 but sit one past the
	// integer ranges; MaxInt64 rounds up to 2^63, so these used to slip
	// through an inclusive bounds check into an implementation-defined Go
	// conversion.
	twoTo63 := math.Ldexp(1, 63)
	twoTo64 := math.Ldexp(1, 64)

	if _, err := Convert(F64(twoTo63), KindI64); err == nil || err.Kind != RangeError {
		t.Errorf("i64(2^63) must be a RangeError")
	} else {
		err.Release()
	}
	if _, err := Convert(F64(twoTo64), KindU64); err == nil || err.Kind != RangeError {
		t.Errorf("u64(2^64) must be a RangeError")
	} else {
		err.Release()
	}

	// -2^63 is exactly MinInt64 and converts
	got, err := Convert(F64(-twoTo63), KindI64)
	if err != nil {
		t.Fatalf("i64(-2^63): %s", err.Message())
	}
	if got.Int != math.MinInt64 {
		t.Errorf("i64(-2^63) = %d, want MinInt64", got.Int)
	}

	// the largest f64 below 2^63 still converts
	under := math.Nextafter(twoTo63, 0)
	got, err = Convert(F64(under), KindI64)
	if err != nil {
		t.Fatalf("i64 just under 2^63: %s", err.Message())
	}
	if float64(got.Int) != under {
		t.Errorf("i64 just under 2^63 = %d, want %v", got.Int, under)
	}

	underU := math.Nextafter(twoTo64, 0)
	got, err = Convert(F64(underU), KindU64)
	if err != nil {
		t.Fatalf("u64 just under 2^64: %s", err.Message())
	}
	if float64(got.AsUint()) != underU {
		t.Errorf("u64 just under 2^64 = %d, want %v", got.AsUint(), underU)
	}
}

func TestConvertU64RoundTrip(t *testing.T) {
	big := Value{Kind: KindU64, Int: -1} // max u64 bit pattern
	if _, err := Convert(big, KindI64); err == nil || err.Kind != RangeError {
		t.Errorf("u64 max to i64 must be a RangeError")
	}
	if got, err := Convert(big, KindF64); err != nil || got.Float <= 0 {
		t.Errorf("u64 max to f64 must use the unsigned interpretation, got %v %v", got.Float, err)
	}
}

func TestWrapIntMachineSemantics(t *testing.T) {
	if v := Int(KindU8, 300); v.Int != 44 {
		t.Errorf("u8 wrap of 300 = %d, want 44", v.Int)
	}
	if v := Int(KindI8, 200); v.Int != -56 {
		t.Errorf("i8 wrap of 200 = %d, want -56", v.Int)
	}
}
