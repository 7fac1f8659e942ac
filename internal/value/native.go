package value

// CallContext is the evaluator surface exposed across the native-call
// boundary. Natives that call back into the language (spawn, higher-order
// helpers) go through ApplyFunction; handle-based bindings allocate IDs from
// NextHandleID; ProcArgs carries the process argument list handed to startup.
type CallContext interface {
	ApplyFunction(fn Value, args []Value) (Value, *RuntimeError)
	NextHandleID() int64
	ProcArgs() []string
}

// NativeFn receives evaluated argument values (borrowed; the evaluator
// releases them) and returns either an owned result or a runtime error that
// surfaces exactly like a language-level throw.
type NativeFn func(ctx CallContext, args ...Value) (Value, *RuntimeError)

type Native struct {
	Name string
	Fn   NativeFn
}
