package value

import (
	"strings"
	"sync"

	"hemlock/internal/ast"
)

// String is a mutable UTF-8 byte buffer. Concatenation builds fresh strings,
// so in practice the bytes are written once; no lock is needed beyond the
// refcount itself.
type String struct {
	refHeader
	bytes []byte
}

func NewString(s string) Value {
	str := &String{bytes: []byte(s)}
	track(&str.refHeader)
	return Value{Kind: KindString, Ref: str}
}

func NewStringBytes(b []byte) Value {
	str := &String{bytes: b}
	track(&str.refHeader)
	return Value{Kind: KindString, Ref: str}
}

func (s *String) Text() string { return string(s.bytes) }
func (s *String) Len() int     { return len(s.bytes) }

func (s *String) destroy() { s.bytes = nil }

// Buffer is the raw-memory value: fixed length, manually freed. Checked
// accessors fail with RangeError on a bad or freed index; Peek/Poke stay
// unchecked on purpose and fault fatally when misused.
type Buffer struct {
	refHeader
	mu    sync.Mutex
	data  []byte
	freed bool
}

func NewBuffer(n int) Value {
	buf := &Buffer{data: make([]byte, n)}
	track(&buf.refHeader)
	return Value{Kind: KindBuffer, Ref: buf}
}

// NewBufferBytes copies b into a fresh buffer.
func NewBufferBytes(b []byte) Value {
	buf := &Buffer{data: append([]byte(nil), b...)}
	track(&buf.refHeader)
	return Value{Kind: KindBuffer, Ref: buf}
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Free releases the backing storage ahead of the refcount. Freeing twice is
// a fatal fault, matching the manual-memory contract.
func (b *Buffer) Free() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		panic("fatal: double free of buffer")
	}
	b.freed = true
	b.data = nil
}

func (b *Buffer) Get(i int) (byte, *RuntimeError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed || i < 0 || i >= len(b.data) {
		return 0, Errorf(RangeError, "buffer index %d out of range", i)
	}
	return b.data[i], nil
}

func (b *Buffer) Set(i int, v byte) *RuntimeError {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed || i < 0 || i >= len(b.data) {
		return Errorf(RangeError, "buffer index %d out of range", i)
	}
	b.data[i] = v
	return nil
}

// Peek and Poke skip the bounds check entirely.
func (b *Buffer) Peek(i int) byte    { return b.data[i] }
func (b *Buffer) Poke(i int, v byte) { b.data[i] = v }

func (b *Buffer) destroy() {
	b.data = nil
	b.freed = true
}

// Array is an ordered growable sequence. Every stored element holds one
// reference; mutation releases the old occupant and retains the new one.
type Array struct {
	refHeader
	mu    sync.Mutex
	elems []Value
}

// NewArray takes ownership of the references already held by elems.
func NewArray(elems []Value) Value {
	arr := &Array{elems: elems}
	track(&arr.refHeader)
	return Value{Kind: KindArray, Ref: arr}
}

func (a *Array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.elems)
}

// Get returns a retained copy of the element, or false when out of range.
func (a *Array) Get(i int) (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.elems) {
		return Null(), false
	}
	return Retain(a.elems[i]), true
}

func (a *Array) Set(i int, v Value) bool {
	a.mu.Lock()
	if i < 0 || i >= len(a.elems) {
		a.mu.Unlock()
		return false
	}
	old := a.elems[i]
	a.elems[i] = Retain(v)
	a.mu.Unlock()
	Release(old)
	return true
}

func (a *Array) Push(v Value) {
	a.mu.Lock()
	a.elems = append(a.elems, Retain(v))
	a.mu.Unlock()
}

// Pop removes the last element and transfers its reference to the caller.
func (a *Array) Pop() (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.elems) == 0 {
		return Null(), false
	}
	v := a.elems[len(a.elems)-1]
	a.elems = a.elems[:len(a.elems)-1]
	return v, true
}

// Shift removes the first element and transfers its reference to the caller.
func (a *Array) Shift() (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.elems) == 0 {
		return Null(), false
	}
	v := a.elems[0]
	a.elems = append(a.elems[:0], a.elems[1:]...)
	return v, true
}

func (a *Array) Unshift(v Value) {
	a.mu.Lock()
	a.elems = append([]Value{Retain(v)}, a.elems...)
	a.mu.Unlock()
}

func (a *Array) Insert(i int, v Value) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i > len(a.elems) {
		return false
	}
	a.elems = append(a.elems, Null())
	copy(a.elems[i+1:], a.elems[i:])
	a.elems[i] = Retain(v)
	return true
}

// Remove deletes the element at i and transfers its reference to the caller.
func (a *Array) Remove(i int) (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.elems) {
		return Null(), false
	}
	v := a.elems[i]
	a.elems = append(a.elems[:i], a.elems[i+1:]...)
	return v, true
}

// ShallowCopy shares the inner values with bumped refcounts.
func (a *Array) ShallowCopy() Value {
	return NewArray(a.snapshot())
}

// First and Last return a retained copy of the boundary element, or null on
// an empty array.
func (a *Array) First() Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.elems) == 0 {
		return Null()
	}
	return Retain(a.elems[0])
}

func (a *Array) Last() Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.elems) == 0 {
		return Null()
	}
	return Retain(a.elems[len(a.elems)-1])
}

// IndexOf reports the position of the first element equal to v, or -1.
func (a *Array) IndexOf(v Value) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.elems {
		if Equals(e, v) {
			return i
		}
	}
	return -1
}

// Slice copies [start, end) into a new array, retaining each element; false
// means the bounds are invalid.
func (a *Array) Slice(start, end int) (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if start < 0 || start > len(a.elems) || end < start || end > len(a.elems) {
		return Null(), false
	}
	elems := make([]Value, end-start)
	for i, e := range a.elems[start:end] {
		elems[i] = Retain(e)
	}
	return NewArray(elems), true
}

// Concat builds a new array from retained copies of both operands' elements.
func (a *Array) Concat(other *Array) Value {
	first := a.snapshot()
	second := other.snapshot()
	return NewArray(append(first, second...))
}

// Reverse flips the element order in place.
func (a *Array) Reverse() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, j := 0, len(a.elems)-1; i < j; i, j = i+1, j-1 {
		a.elems[i], a.elems[j] = a.elems[j], a.elems[i]
	}
}

// Clear drops every element, releasing each held reference.
func (a *Array) Clear() {
	a.mu.Lock()
	old := a.elems
	a.elems = nil
	a.mu.Unlock()
	for _, e := range old {
		Release(e)
	}
}

// Join renders each element with Inspect and joins the parts with sep.
func (a *Array) Join(sep string) string {
	a.mu.Lock()
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.Inspect()
	}
	a.mu.Unlock()
	return strings.Join(parts, sep)
}

func (a *Array) snapshot() []Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	elems := make([]Value, len(a.elems))
	for i, e := range a.elems {
		elems[i] = Retain(e)
	}
	return elems
}

func (a *Array) inspect() string {
	a.mu.Lock()
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.Inspect()
	}
	a.mu.Unlock()
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) destroy() {
	for _, e := range a.elems {
		Release(e)
	}
	a.elems = nil
}

// Field is one ordered (name, value) pair of an object.
type Field struct {
	Name string
	Val  Value
}

// Object keeps fields in declaration order and optionally carries the duck
// type name stamped by typed assignment.
type Object struct {
	refHeader
	mu       sync.Mutex
	fields   []Field
	typeName string
}

// NewObject takes ownership of the references already held by fields.
func NewObject(fields []Field) Value {
	obj := &Object{fields: fields}
	track(&obj.refHeader)
	return Value{Kind: KindObject, Ref: obj}
}

func (o *Object) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fields)
}

func (o *Object) TypeName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.typeName
}

func (o *Object) SetTypeName(name string) {
	o.mu.Lock()
	o.typeName = name
	o.mu.Unlock()
}

// Get returns a retained copy of the named field's value.
func (o *Object) Get(name string) (Value, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range o.fields {
		if f.Name == name {
			return Retain(f.Val), true
		}
	}
	return Null(), false
}

func (o *Object) Has(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range o.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Set replaces an existing field (releasing the old value) or appends a new
// one, retaining v either way.
func (o *Object) Set(name string, v Value) {
	o.mu.Lock()
	for i, f := range o.fields {
		if f.Name == name {
			old := f.Val
			o.fields[i].Val = Retain(v)
			o.mu.Unlock()
			Release(old)
			return
		}
	}
	o.fields = append(o.fields, Field{Name: name, Val: Retain(v)})
	o.mu.Unlock()
}

// FieldNames returns the names in declaration order.
func (o *Object) FieldNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, len(o.fields))
	for i, f := range o.fields {
		names[i] = f.Name
	}
	return names
}

// ShallowCopy shares field values with bumped refcounts; the type name is
// not carried over, validation stamps it again if wanted.
func (o *Object) ShallowCopy() Value {
	o.mu.Lock()
	fields := make([]Field, len(o.fields))
	for i, f := range o.fields {
		fields[i] = Field{Name: f.Name, Val: Retain(f.Val)}
	}
	o.mu.Unlock()
	return NewObject(fields)
}

func (o *Object) inspect() string {
	o.mu.Lock()
	parts := make([]string, len(o.fields))
	for i, f := range o.fields {
		parts[i] = f.Name + ": " + f.Val.Inspect()
	}
	o.mu.Unlock()
	return "{" + strings.Join(parts, ", ") + "}"
}

func (o *Object) destroy() {
	for _, f := range o.fields {
		Release(f.Val)
	}
	o.fields = nil
}

// Function is a closure or a registered native. Closures share their defining
// environment, captured and retained at creation time.
type Function struct {
	refHeader
	Name       string
	Params     []ast.Param
	ReturnType string
	Body       *ast.BlockStatement
	Env        *Environment
	Native     *Native
}

// NewFunction retains env for the closure's lifetime.
func NewFunction(name string, params []ast.Param, returnType string, body *ast.BlockStatement, env *Environment) Value {
	fn := &Function{Name: name, Params: params, ReturnType: returnType, Body: body, Env: env.Retain()}
	track(&fn.refHeader)
	return Value{Kind: KindFunction, Ref: fn}
}

func NewNativeFunction(n *Native) Value {
	fn := &Function{Name: n.Name, Native: n}
	track(&fn.refHeader)
	return Value{Kind: KindFunction, Ref: fn}
}

func (f *Function) destroy() {
	if f.Env != nil {
		f.Env.Release()
		f.Env = nil
	}
}
