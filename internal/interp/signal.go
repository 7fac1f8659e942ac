package interp

import "hemlock/internal/value"

// SignalKind is the statement-execution outcome that propagates up the walk.
type SignalKind uint8

const (
	SigNormal SignalKind = iota
	SigReturn
	SigBreak
	SigContinue
	SigException
)

// Signal carries the control outcome of a statement. Return and Exception
// own one reference to Val; the other kinds carry no payload.
type Signal struct {
	Kind SignalKind
	Val  value.Value
}

func normalSignal() Signal { return Signal{Kind: SigNormal} }

func returnSignal(v value.Value) Signal { return Signal{Kind: SigReturn, Val: v} }

func throwSignal(v value.Value) Signal { return Signal{Kind: SigException, Val: v} }

// signalFromError lifts a runtime error into an exception signal, moving the
// payload reference across.
func signalFromError(err *value.RuntimeError) Signal {
	return Signal{Kind: SigException, Val: err.Payload}
}

// releaseSignal drops a signal's payload reference when the signal is
// absorbed instead of propagated.
func releaseSignal(sig Signal) {
	if sig.Kind == SigReturn || sig.Kind == SigException {
		value.Release(sig.Val)
	}
}
