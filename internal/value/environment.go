package value

import (
	"fmt"
	"sync"
)

// Binding is one name slot in a frame. The frame owns one reference to the
// bound value for as long as the binding exists.
type Binding struct {
	Val     Value
	Mutable bool
}

// Environment is a lexical scope frame. Frames are refcounted like any other
// heap object: a child frame retains its parent, and every closure retains
// its defining frame at creation time, so write-through mutation of captured
// variables keeps working after the defining block exits. The RWMutex guards
// the binding map because sibling tasks can share a captured frame.
type Environment struct {
	refHeader
	mu       sync.RWMutex
	bindings map[string]*Binding
	parent   *Environment
}

func NewEnvironment() *Environment {
	env := &Environment{bindings: map[string]*Binding{}}
	track(&env.refHeader)
	return env
}

// NewEnclosed creates a child frame, retaining the parent.
func NewEnclosed(parent *Environment) *Environment {
	env := &Environment{bindings: map[string]*Binding{}, parent: parent.Retain()}
	track(&env.refHeader)
	return env
}

func (e *Environment) Parent() *Environment { return e.parent }

func (e *Environment) Retain() *Environment {
	if e.refs.Add(1) <= 1 {
		panic("fatal: retain after free on environment")
	}
	return e
}

// Release drops one hold on the frame; at zero every binding is released and
// the parent hold is dropped.
func (e *Environment) Release() {
	n := e.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("fatal: refcount underflow on environment")
	}
	for _, b := range e.bindings {
		Release(b.Val)
	}
	e.bindings = nil
	liveHeapObjects.Add(-1)
	if e.parent != nil {
		e.parent.Release()
		e.parent = nil
	}
}

// Clear drops every binding while keeping the frame alive. There is no cycle
// collector, so a function bound at top level keeps the root frame pinned
// through its captured-environment reference; the process boundary clears the
// root frame before the final Release to break exactly those cycles.
func (e *Environment) Clear() {
	e.mu.Lock()
	bindings := e.bindings
	e.bindings = map[string]*Binding{}
	e.mu.Unlock()
	for _, b := range bindings {
		Release(b.Val)
	}
}

// Define binds name in this frame, retaining v. Redefining a name in the
// same frame overwrites it, releasing the old value.
func (e *Environment) Define(name string, v Value, mutable bool) {
	e.mu.Lock()
	old, existed := e.bindings[name]
	e.bindings[name] = &Binding{Val: Retain(v), Mutable: mutable}
	e.mu.Unlock()
	if existed {
		Release(old.Val)
	}
}

// Get resolves name frame-to-root and returns a retained copy.
func (e *Environment) Get(name string) (Value, *RuntimeError) {
	for env := e; env != nil; env = env.parent {
		env.mu.RLock()
		b, ok := env.bindings[name]
		if ok {
			v := Retain(b.Val)
			env.mu.RUnlock()
			return v, nil
		}
		env.mu.RUnlock()
	}
	return Value{}, Errorf(NameError, "identifier not found: %s", name)
}

// Set assigns to the nearest defining frame, releasing the old value and
// retaining the new one. There are no implicit globals: an undefined name is
// a NameError, a const binding an ImmutableError.
func (e *Environment) Set(name string, v Value) *RuntimeError {
	for env := e; env != nil; env = env.parent {
		env.mu.Lock()
		b, ok := env.bindings[name]
		if !ok {
			env.mu.Unlock()
			continue
		}
		if !b.Mutable {
			env.mu.Unlock()
			return Errorf(ImmutableError, "cannot assign to constant %s", name)
		}
		old := b.Val
		b.Val = Retain(v)
		env.mu.Unlock()
		Release(old)
		return nil
	}
	return Errorf(NameError, "identifier not found: %s", name)
}

func (e *Environment) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fmt.Sprintf("<env bindings=%d parent=%t>", len(e.bindings), e.parent != nil)
}
