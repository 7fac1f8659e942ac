package interp

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"hemlock/internal/ast"
	"hemlock/internal/value"
)

// Interp is one evaluation runtime. It owns the native registry, the duck
// type registry, output buffering and task accounting; per-call state lives
// on the Go stack, so independently spawned tasks evaluate truly in
// parallel against the same Interp.
type Interp struct {
	natives []*value.Native
	types   *typeRegistry
	nextID  atomic.Int64
	args    []string

	out    *bufio.Writer
	outMu  sync.Mutex
	errOut io.Writer

	taskSem chan struct{}

	// exitFn is swapped out by tests; the default flushes and leaves the
	// process.
	exitFn func(code int)
}

type Options struct {
	Args     []string
	Out      io.Writer
	ErrOut   io.Writer
	MaxTasks int // 0 means unlimited
	// Natives are bound into the root environment beside the built-in set.
	Natives []*value.Native
}

func New(opts Options) *Interp {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	in := &Interp{
		out:    bufio.NewWriter(out),
		errOut: errOut,
		args:   opts.Args,
	}
	if opts.MaxTasks > 0 {
		in.taskSem = make(chan struct{}, opts.MaxTasks)
	}
	in.types = newTypeRegistry()
	in.natives = append(in.builtinNatives(), opts.Natives...)
	in.exitFn = func(code int) {
		in.Flush()
		os.Exit(code)
	}
	return in
}

// NewRootEnvironment builds the root frame: every native bound as a const
// function value plus the read-only process argument array. The caller owns
// the returned frame and releases it after Run.
func (in *Interp) NewRootEnvironment() *value.Environment {
	env := value.NewEnvironment()
	for _, n := range in.natives {
		fn := value.NewNativeFunction(n)
		env.Define(n.Name, fn, false)
		value.Release(fn)
	}
	argVals := make([]value.Value, len(in.args))
	for i, a := range in.args {
		argVals[i] = value.NewString(a)
	}
	argsArr := value.NewArray(argVals)
	env.Define("args", argsArr, false)
	value.Release(argsArr)
	return env
}

// Run walks the program statements against env. A top-level exception comes
// back as the runtime error for the process boundary to report; output is
// flushed on every path.
func (in *Interp) Run(prog *ast.Program, env *value.Environment) *value.RuntimeError {
	defer in.Flush()
	for _, stmt := range prog.Statements {
		sig := in.evalStmt(stmt, env)
		switch sig.Kind {
		case SigNormal:
		case SigException:
			return value.Thrown(sig.Val)
		default:
			// return/break/continue at top level end the program quietly
			releaseSignal(sig)
			return nil
		}
	}
	return nil
}

func (in *Interp) Flush() {
	in.outMu.Lock()
	defer in.outMu.Unlock()
	if err := in.out.Flush(); err != nil {
		slog.Warn("flush failed", slog.Any("error", err))
	}
}

// NextHandleID allocates process-unique IDs for tasks and native handles.
func (in *Interp) NextHandleID() int64 {
	return in.nextID.Add(1)
}

func (in *Interp) ProcArgs() []string {
	return in.args
}

// ApplyFunction is the native-boundary entry: args are borrowed, the result
// is owned by the caller. Closures run against a fresh call frame on their
// captured environment chain; `self` stays unbound on this path.
func (in *Interp) ApplyFunction(fn value.Value, args []value.Value) (value.Value, *value.RuntimeError) {
	return in.applyFunction(fn, args, value.Null(), false)
}

func (in *Interp) applyFunction(fnVal value.Value, args []value.Value, self value.Value, bindSelf bool) (value.Value, *value.RuntimeError) {
	if fnVal.Kind != value.KindFunction {
		return value.Value{}, value.Errorf(value.TypeError, "not a function: %s", fnVal.Kind)
	}
	fn := fnVal.FunctionRef()

	if fn.Native != nil {
		return fn.Native.Fn(in, args...)
	}

	if len(args) != len(fn.Params) {
		return value.Value{}, value.Errorf(value.TypeError,
			"wrong number of arguments to %s: got %d, want %d", fn.Name, len(args), len(fn.Params))
	}

	callEnv := value.NewEnclosed(fn.Env)
	for i, p := range fn.Params {
		arg := args[i]
		if p.TypeName != "" {
			converted, err := in.convertDeclared(arg, p.TypeName, callEnv)
			if err != nil {
				callEnv.Release()
				return value.Value{}, err
			}
			callEnv.Define(p.Name, converted, true)
			value.Release(converted)
			continue
		}
		callEnv.Define(p.Name, arg, true)
	}
	if bindSelf {
		callEnv.Define("self", self, false)
	}

	sig := in.runStatements(fn.Body.Statements, callEnv)
	callEnv.Release()

	switch sig.Kind {
	case SigReturn:
		result := sig.Val
		if fn.ReturnType != "" {
			converted, err := in.convertDeclared(result, fn.ReturnType, fn.Env)
			value.Release(result)
			if err != nil {
				return value.Value{}, err
			}
			return converted, nil
		}
		return result, nil
	case SigException:
		return value.Value{}, value.Thrown(sig.Val)
	case SigBreak, SigContinue:
		releaseSignal(sig)
		return value.Value{}, value.Errorf(value.TypeError, "break or continue outside loop")
	}
	return value.Null(), nil
}
