package value

import "fmt"

// ErrKind names the catchable error taxonomy. Every kind surfaces through the
// exception control signal with a descriptive payload value; fatal faults
// (panic, refcount underflow) never appear here.
type ErrKind string

const (
	NameError             ErrKind = "NameError"
	TypeError             ErrKind = "TypeError"
	RangeError            ErrKind = "RangeError"
	ImmutableError        ErrKind = "ImmutableError"
	ConcurrencyUsageError ErrKind = "ConcurrencyUsageError"
	UserException         ErrKind = "UserException"
)

// RuntimeError carries a raised payload through Go return paths until the
// evaluator turns it into an exception signal. The error owns one reference
// to its payload.
type RuntimeError struct {
	Kind    ErrKind
	Payload Value
}

// Errorf builds a runtime error whose payload is the conventional
// "Kind: detail" string.
func Errorf(kind ErrKind, format string, a ...any) *RuntimeError {
	msg := fmt.Sprintf(format, a...)
	return &RuntimeError{Kind: kind, Payload: NewString(string(kind) + ": " + msg)}
}

// Thrown wraps a user `throw` payload, taking ownership of the reference.
func Thrown(payload Value) *RuntimeError {
	return &RuntimeError{Kind: UserException, Payload: payload}
}

func (e *RuntimeError) Message() string {
	return e.Payload.Inspect()
}

// Release drops the error's payload reference, for paths that absorb an
// error instead of surfacing it.
func (e *RuntimeError) Release() {
	Release(e.Payload)
	e.Payload = Null()
}
