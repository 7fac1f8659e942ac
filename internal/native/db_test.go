package native

import (
	"testing"

	"hemlock/internal/value"
)

// stubContext satisfies the native-call boundary without an evaluator.
type stubContext struct {
	nextID int64
}

func (c *stubContext) ApplyFunction(fn value.Value, args []value.Value) (value.Value, *value.RuntimeError) {
	return value.Null(), nil
}

func (c *stubContext) NextHandleID() int64 {
	c.nextID++
	return c.nextID
}

func (c *stubContext) ProcArgs() []string { return nil }

func nativeByName(t *testing.T, natives []*value.Native, name string) *value.Native {
	t.Helper()
	for _, n := range natives {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("native %s not registered", name)
	return nil
}

func mustCall(t *testing.T, n *value.Native, ctx value.CallContext, args ...value.Value) value.Value {
	t.Helper()
	v, err := n.Fn(ctx, args...)
	for _, a := range args {
		value.Release(a)
	}
	if err != nil {
		msg := err.Message()
		err.Release()
		t.Fatalf("%s: %s", n.Name, msg)
	}
	return v
}

func TestSQLiteRoundTrip(t *testing.T) {
	before := value.LiveHeapObjects()
	ctx := &stubContext{}
	natives := DBNatives()
	open := nativeByName(t, natives, "dbOpen")
	exec := nativeByName(t, natives, "dbExec")
	query := nativeByName(t, natives, "dbQuery")
	closeDB := nativeByName(t, natives, "dbClose")

	handle := mustCall(t, open, ctx, value.NewString("sqlite3"), value.NewString(":memory:"))
	if handle.Kind != value.KindI64 {
		t.Fatalf("dbOpen returned %s, want i64 handle", handle.Kind)
	}

	mustCall(t, exec, ctx, handle, value.NewString("CREATE TABLE people (name TEXT, age INTEGER)"))

	affected := mustCall(t, exec, ctx, handle,
		value.NewString("INSERT INTO people (name, age) VALUES (?, ?)"),
		value.NewString("Ada"), value.I64(36))
	if affected.Int != 1 {
		t.Errorf("rows affected = %d, want 1", affected.Int)
	}
	mustCall(t, exec, ctx, handle,
		value.NewString("INSERT INTO people (name, age) VALUES (?, ?)"),
		value.NewString("Grace"), value.I64(46))

	rowsVal := mustCall(t, query, ctx, handle,
		value.NewString("SELECT name, age FROM people ORDER BY age"))
	rows := rowsVal.ArrayRef()
	if rows.Len() != 2 {
		t.Fatalf("got %d rows, want 2", rows.Len())
	}
	first, _ := rows.Get(0)
	name, ok := first.ObjectRef().Get("name")
	if !ok || name.Kind != value.KindString || name.StringRef().Text() != "Ada" {
		t.Errorf("row 0 name = %s, want Ada", name.Inspect())
	}
	age, ok := first.ObjectRef().Get("age")
	if !ok || age.Kind != value.KindI64 || age.Int != 36 {
		t.Errorf("row 0 age = %s, want i64 36", age.Inspect())
	}
	value.Release(name)
	value.Release(age)
	value.Release(first)
	value.Release(rowsVal)

	mustCall(t, closeDB, ctx, handle)

	// the handle is dead after close
	stale := value.NewString("SELECT 1")
	if _, err := query.Fn(ctx, handle, stale); err == nil || err.Kind != value.NameError {
		t.Errorf("query on a closed handle must be a NameError")
	} else {
		err.Release()
	}
	value.Release(stale)

	if got := value.LiveHeapObjects() - before; got != 0 {
		t.Errorf("leaked %d heap objects", got)
	}
}

func TestQueryParameterKinds(t *testing.T) {
	ctx := &stubContext{}
	natives := DBNatives()
	open := nativeByName(t, natives, "dbOpen")
	exec := nativeByName(t, natives, "dbExec")
	query := nativeByName(t, natives, "dbQuery")

	handle := mustCall(t, open, ctx, value.NewString("sqlite3"), value.NewString(":memory:"))
	mustCall(t, exec, ctx, handle, value.NewString("CREATE TABLE t (b INTEGER, f REAL, s TEXT, n TEXT)"))
	mustCall(t, exec, ctx, handle,
		value.NewString("INSERT INTO t VALUES (?, ?, ?, ?)"),
		value.Bool(true), value.F64(2.5), value.NewString("txt"), value.Null())

	rowsVal := mustCall(t, query, ctx, handle, value.NewString("SELECT b, f, s, n FROM t"))
	rows := rowsVal.ArrayRef()
	if rows.Len() != 1 {
		t.Fatalf("got %d rows, want 1", rows.Len())
	}
	row, _ := rows.Get(0)
	f, _ := row.ObjectRef().Get("f")
	if f.Kind != value.KindF64 || f.Float != 2.5 {
		t.Errorf("f = %s, want f64 2.5", f.Inspect())
	}
	n, _ := row.ObjectRef().Get("n")
	if !n.IsNull() {
		t.Errorf("n = %s, want null", n.Inspect())
	}
	value.Release(f)
	value.Release(n)
	value.Release(row)
	value.Release(rowsVal)

	// arrays cannot be bound as parameters
	bad := value.NewArray(nil)
	q := value.NewString("SELECT ?")
	if _, err := query.Fn(ctx, handle, q, bad); err == nil || err.Kind != value.TypeError {
		t.Errorf("binding an array parameter must be a TypeError")
	} else {
		err.Release()
	}
	value.Release(bad)
	value.Release(q)
}
