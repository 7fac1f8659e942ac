package interp

import (
	"fmt"

	"hemlock/internal/value"
)

// builtinNatives is the core native surface bound into every root
// environment. Standard-library modules and foreign bindings extend it
// through Options.Natives.
func (in *Interp) builtinNatives() []*value.Native {
	natives := []*value.Native{
		in.printNative("print", ""),
		in.printNative("println", "\n"),
		lenNative(),
		typeofNative(),
		bufferNative(),
		in.exitNative(),
		in.panicNative(),
		in.spawnNative(),
		in.joinNative(),
		in.detachNative(),
		in.channelNative(),
	}
	return append(natives, conversionNatives()...)
}

func (in *Interp) printNative(name, suffix string) *value.Native {
	return &value.Native{
		Name: name,
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			in.outMu.Lock()
			defer in.outMu.Unlock()
			for i, a := range args {
				if i > 0 {
					in.out.WriteString(" ")
				}
				in.out.WriteString(a.Inspect())
			}
			in.out.WriteString(suffix)
			return value.Null(), nil
		},
	}
}

func lenNative() *value.Native {
	return &value.Native{
		Name: "len",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 {
				return value.Value{}, value.Errorf(value.TypeError, "len takes 1 argument, got %d", len(args))
			}
			switch args[0].Kind {
			case value.KindString:
				return value.I32(int64(args[0].StringRef().Len())), nil
			case value.KindArray:
				return value.I32(int64(args[0].ArrayRef().Len())), nil
			case value.KindObject:
				return value.I32(int64(args[0].ObjectRef().Len())), nil
			case value.KindBuffer:
				return value.I32(int64(args[0].BufferRef().Len())), nil
			}
			return value.Value{}, value.Errorf(value.TypeError, "len not defined for %s", args[0].Kind)
		},
	}
}

// typeofNative reports the kind name, or the stamped duck type name for
// validated objects.
func typeofNative() *value.Native {
	return &value.Native{
		Name: "typeof",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 {
				return value.Value{}, value.Errorf(value.TypeError, "typeof takes 1 argument, got %d", len(args))
			}
			if args[0].Kind == value.KindObject {
				if name := args[0].ObjectRef().TypeName(); name != "" {
					return value.NewString(name), nil
				}
			}
			return value.NewString(args[0].Kind.String()), nil
		},
	}
}

func bufferNative() *value.Native {
	return &value.Native{
		Name: "buffer",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 || !value.IsIntegerKind(args[0].Kind) {
				return value.Value{}, value.Errorf(value.TypeError, "buffer needs an integer length")
			}
			n := args[0].Int
			if n < 0 {
				return value.Value{}, value.Errorf(value.RangeError, "buffer length must be >= 0, got %d", n)
			}
			return value.NewBuffer(int(n)), nil
		},
	}
}

func (in *Interp) exitNative() *value.Native {
	return &value.Native{
		Name: "exit",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			code := 0
			if len(args) > 0 {
				if !value.IsIntegerKind(args[0].Kind) {
					return value.Value{}, value.Errorf(value.TypeError, "exit needs an integer code")
				}
				code = int(args[0].Int)
			}
			in.exitFn(code)
			return value.Null(), nil
		},
	}
}

// panicNative terminates the process with status 1. It never surfaces as an
// exception signal and no catch clause can observe it.
func (in *Interp) panicNative() *value.Native {
	return &value.Native{
		Name: "panic",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			msg := ""
			if len(args) > 0 {
				msg = args[0].Inspect()
			}
			fmt.Fprintf(in.errOut, "panic: %s\n", msg)
			in.exitFn(1)
			return value.Null(), nil
		},
	}
}

// conversionNatives exposes the range-checked numeric conversions in call
// form: i32(x), u8(x) and so on.
func conversionNatives() []*value.Native {
	kinds := []value.Kind{
		value.KindI8, value.KindU8, value.KindI16, value.KindU16,
		value.KindI32, value.KindU32, value.KindI64, value.KindU64,
		value.KindF32, value.KindF64,
	}
	natives := make([]*value.Native, 0, len(kinds))
	for _, kind := range kinds {
		target := kind
		natives = append(natives, &value.Native{
			Name: target.String(),
			Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
				if len(args) != 1 {
					return value.Value{}, value.Errorf(value.TypeError, "%s takes 1 argument, got %d", target, len(args))
				}
				return value.Convert(args[0], target)
			},
		})
	}
	return natives
}
