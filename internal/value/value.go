package value

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// Kind discriminates the closed set of runtime value variants. Inline kinds
// carry their datum in the Value struct itself; heap kinds carry a pointer to
// a refcounted object.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindRune
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
	KindString
	KindBuffer
	KindArray
	KindObject
	KindFunction
	KindTask
	KindChannel
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindRune:     "rune",
	KindI8:       "i8",
	KindU8:       "u8",
	KindI16:      "i16",
	KindU16:      "u16",
	KindI32:      "i32",
	KindU32:      "u32",
	KindI64:      "i64",
	KindU64:      "u64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindString:   "string",
	KindBuffer:   "buffer",
	KindArray:    "array",
	KindObject:   "object",
	KindFunction: "function",
	KindTask:     "task",
	KindChannel:  "channel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is the tagged union for every runtime datum. Int carries integer,
// bool and rune payloads (u64 as its bit pattern); Float carries f32/f64;
// Ref is non-nil exactly for heap kinds.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Ref   heapObject
}

type refHeader struct {
	refs atomic.Int32
}

func (h *refHeader) header() *refHeader { return h }

type heapObject interface {
	header() *refHeader
	destroy()
}

// liveHeapObjects tracks every refcounted object (environments included) from
// construction to destruction. Programs that complete cleanly drain it to
// zero, which the leak tests rely on.
var liveHeapObjects atomic.Int64

func LiveHeapObjects() int64 { return liveHeapObjects.Load() }

func track(h *refHeader) {
	h.refs.Store(1)
	liveHeapObjects.Add(1)
}

// Retain hands back v with one more attributable reference. No-op for inline
// kinds. Retaining an already-destroyed object is a fatal runtime fault.
func Retain(v Value) Value {
	if v.Ref == nil {
		return v
	}
	if v.Ref.header().refs.Add(1) <= 1 {
		panic(fmt.Sprintf("fatal: retain after free on %s", v.Kind))
	}
	return v
}

// Release drops one reference; at zero the variant's destructor runs,
// recursively releasing contained values. Releasing below zero is a fatal
// runtime fault, never a catchable exception.
func Release(v Value) {
	if v.Ref == nil {
		return
	}
	n := v.Ref.header().refs.Add(-1)
	if n == 0 {
		v.Ref.destroy()
		liveHeapObjects.Add(-1)
		return
	}
	if n < 0 {
		panic(fmt.Sprintf("fatal: refcount underflow on %s", v.Kind))
	}
}

func Null() Value { return Value{Kind: KindNull} }

func Bool(b bool) Value {
	v := Value{Kind: KindBool}
	if b {
		v.Int = 1
	}
	return v
}

func Rune(r rune) Value { return Value{Kind: KindRune, Int: int64(r)} }

// Int builds an integer value of the given kind, truncating n to the kind's
// width the way machine arithmetic would.
func Int(kind Kind, n int64) Value {
	return Value{Kind: kind, Int: wrapInt(kind, n)}
}

func Float(kind Kind, f float64) Value {
	if kind == KindF32 {
		f = float64(float32(f))
	}
	return Value{Kind: kind, Float: f}
}

func I32(n int64) Value { return Int(KindI32, n) }
func I64(n int64) Value { return Int(KindI64, n) }
func F64(f float64) Value { return Float(KindF64, f) }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) AsBool() bool { return v.Int != 0 }

// AsUint reinterprets the integer payload as unsigned; meaningful for u64.
func (v Value) AsUint() uint64 { return uint64(v.Int) }

// Truthy reports the value's boolean interpretation: null, false and numeric
// zero are falsy, everything else truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Int != 0
	case KindF32, KindF64:
		return v.Float != 0
	case KindRune, KindI8, KindU8, KindI16, KindU16, KindI32, KindU32, KindI64, KindU64:
		return v.Int != 0
	default:
		return true
	}
}

// Equals compares by value for inline kinds and strings, promoting mixed
// numerics to their common kind first; other heap kinds compare by identity.
func Equals(a, b Value) bool {
	if IsNumeric(a) && IsNumeric(b) {
		pa, pb, kind, err := Promote(a, b)
		if err != nil {
			return false
		}
		if kind == KindF32 || kind == KindF64 {
			return pa.Float == pb.Float
		}
		return pa.Int == pb.Int
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool, KindRune:
		return a.Int == b.Int
	case KindString:
		return a.StringRef().Text() == b.StringRef().Text()
	default:
		return a.Ref == b.Ref
	}
}

// Typed accessors for heap payloads. Callers check Kind first; a mismatched
// access is a programming error and panics via the type assertion.

func (v Value) StringRef() *String     { return v.Ref.(*String) }
func (v Value) BufferRef() *Buffer     { return v.Ref.(*Buffer) }
func (v Value) ArrayRef() *Array       { return v.Ref.(*Array) }
func (v Value) ObjectRef() *Object     { return v.Ref.(*Object) }
func (v Value) FunctionRef() *Function { return v.Ref.(*Function) }
func (v Value) TaskRef() *Task         { return v.Ref.(*Task) }
func (v Value) ChannelRef() *Channel   { return v.Ref.(*Channel) }

// Inspect renders the value for diagnostics and print output.
func (v Value) Inspect() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Int != 0 {
			return "true"
		}
		return "false"
	case KindRune:
		return string(rune(v.Int))
	case KindI8, KindI16, KindI32, KindI64:
		return strconv.FormatInt(v.Int, 10)
	case KindU8, KindU16, KindU32, KindU64:
		return strconv.FormatUint(v.AsUint(), 10)
	case KindF32:
		return strconv.FormatFloat(v.Float, 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.StringRef().Text()
	case KindBuffer:
		return fmt.Sprintf("<buffer len=%d>", v.BufferRef().Len())
	case KindArray:
		return v.ArrayRef().inspect()
	case KindObject:
		return v.ObjectRef().inspect()
	case KindFunction:
		fn := v.FunctionRef()
		if fn.Native != nil {
			return fmt.Sprintf("<native fn %s>", fn.Native.Name)
		}
		if fn.Name != "" {
			return fmt.Sprintf("<fn %s>", fn.Name)
		}
		return "<fn>"
	case KindTask:
		return fmt.Sprintf("<task %d>", v.TaskRef().ID)
	case KindChannel:
		return fmt.Sprintf("<channel cap=%d>", v.ChannelRef().Capacity())
	}
	return fmt.Sprintf("<%s>", v.Kind)
}
