package value

import "math"

// Promotion ladder: i8 < u8 < i16 < u16 < i32 < u32 < i64 < u64 < f32 < f64.
// Floats and larger sizes dominate, so u8 + i32 promotes to i32 and any
// float operand promotes the whole expression to float.
var numericRank = map[Kind]int{
	KindI8:  0,
	KindU8:  1,
	KindI16: 2,
	KindU16: 3,
	KindI32: 4,
	KindU32: 5,
	KindI64: 6,
	KindU64: 7,
	KindF32: 8,
	KindF64: 9,
}

func IsNumeric(v Value) bool {
	_, ok := numericRank[v.Kind]
	return ok
}

func IsIntegerKind(k Kind) bool {
	r, ok := numericRank[k]
	return ok && r < numericRank[KindF32]
}

func IsFloatKind(k Kind) bool {
	return k == KindF32 || k == KindF64
}

func isUnsigned(k Kind) bool {
	switch k {
	case KindU8, KindU16, KindU32, KindU64:
		return true
	}
	return false
}

var kindsByName = map[string]Kind{
	"null": KindNull, "bool": KindBool, "rune": KindRune,
	"i8": KindI8, "u8": KindU8, "i16": KindI16, "u16": KindU16,
	"i32": KindI32, "u32": KindU32, "i64": KindI64, "u64": KindU64,
	"f32": KindF32, "f64": KindF64,
	"string": KindString, "buffer": KindBuffer, "array": KindArray,
	"object": KindObject, "function": KindFunction,
	"task": KindTask, "channel": KindChannel,
}

func KindFromName(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// wrapInt truncates n to the kind's width with machine wraparound semantics.
func wrapInt(kind Kind, n int64) int64 {
	switch kind {
	case KindI8:
		return int64(int8(n))
	case KindU8:
		return int64(uint8(n))
	case KindI16:
		return int64(int16(n))
	case KindU16:
		return int64(uint16(n))
	case KindI32:
		return int64(int32(n))
	case KindU32:
		return int64(uint32(n))
	}
	return n
}

// asFloat reads a numeric value as f64, keeping the unsigned interpretation
// for u64 payloads.
func asFloat(v Value) float64 {
	if IsFloatKind(v.Kind) {
		return v.Float
	}
	if v.Kind == KindU64 {
		return float64(v.AsUint())
	}
	return float64(v.Int)
}

// Promote converts both operands to their common kind per the ladder.
func Promote(a, b Value) (Value, Value, Kind, *RuntimeError) {
	ra, ok := numericRank[a.Kind]
	if !ok {
		return Value{}, Value{}, KindNull, Errorf(TypeError, "operand is not numeric: %s", a.Kind)
	}
	rb, ok := numericRank[b.Kind]
	if !ok {
		return Value{}, Value{}, KindNull, Errorf(TypeError, "operand is not numeric: %s", b.Kind)
	}
	kind := a.Kind
	if rb > ra {
		kind = b.Kind
	}
	return promoteTo(a, kind), promoteTo(b, kind), kind, nil
}

// promoteTo widens v to kind; the target always has rank >= v's rank so only
// int-to-int widening and int-to-float conversion occur here.
func promoteTo(v Value, kind Kind) Value {
	if v.Kind == kind {
		return v
	}
	if IsFloatKind(kind) {
		return Float(kind, asFloat(v))
	}
	return Int(kind, v.Int)
}

// Convert applies a range-checked conversion to a declared numeric kind, as
// used at typed let/parameter/return boundaries and by the call-style
// conversion natives. Out-of-range values fail with RangeError, non-numeric
// sources with TypeError.
func Convert(v Value, target Kind) (Value, *RuntimeError) {
	if !IsNumeric(v) {
		return Value{}, Errorf(TypeError, "cannot convert %s to %s", v.Kind, target)
	}
	if IsFloatKind(target) {
		return Float(target, asFloat(v)), nil
	}

	if IsFloatKind(v.Kind) {
		f := v.Float
		lo, hi := floatRange(target)
		if f != math.Trunc(f) || f < lo || f >= hi {
			return Value{}, Errorf(RangeError, "value %v out of range for %s", f, target)
		}
		if target == KindU64 {
			return Value{Kind: KindU64, Int: int64(uint64(f))}, nil
		}
		return Int(target, int64(f)), nil
	}

	if v.Kind == KindU64 {
		u := v.AsUint()
		if target == KindU64 {
			return v, nil
		}
		if u > uintMax(target) {
			return Value{}, Errorf(RangeError, "value %d out of range for %s", u, target)
		}
		return Int(target, int64(u)), nil
	}

	n := v.Int
	switch target {
	case KindU64:
		if n < 0 {
			return Value{}, Errorf(RangeError, "value %d out of range for u64", n)
		}
		return Value{Kind: KindU64, Int: n}, nil
	case KindI64:
		return Value{Kind: KindI64, Int: n}, nil
	}
	lo, hi := intBounds(target)
	if n < lo || n > hi {
		return Value{}, Errorf(RangeError, "value %d out of range for %s", n, target)
	}
	return Int(target, n), nil
}

func intBounds(k Kind) (int64, int64) {
	switch k {
	case KindI8:
		return math.MinInt8, math.MaxInt8
	case KindU8:
		return 0, math.MaxUint8
	case KindI16:
		return math.MinInt16, math.MaxInt16
	case KindU16:
		return 0, math.MaxUint16
	case KindI32:
		return math.MinInt32, math.MaxInt32
	case KindU32:
		return 0, math.MaxUint32
	}
	return math.MinInt64, math.MaxInt64
}

func uintMax(k Kind) uint64 {
	switch k {
	case KindU8:
		return math.MaxUint8
	case KindU16:
		return math.MaxUint16
	case KindU32:
		return math.MaxUint32
	case KindU64:
		return math.MaxUint64
	case KindI8:
		return math.MaxInt8
	case KindI16:
		return math.MaxInt16
	case KindI32:
		return math.MaxInt32
	}
	return math.MaxInt64
}

// floatRange is the half-open [lo, hi) window of target values expressible
// in f64. MaxInt64 and MaxUint64 round up to 2^63 and 2^64 as f64, so an
// inclusive upper bound would wave through values one past the integer
// range; the exclusive bound keeps exactly the convertible set.
func floatRange(k Kind) (float64, float64) {
	switch k {
	case KindI64:
		return math.MinInt64, math.Ldexp(1, 63)
	case KindU64:
		return 0, math.Ldexp(1, 64)
	}
	lo, hi := intBounds(k)
	return float64(lo), float64(hi) + 1
}
