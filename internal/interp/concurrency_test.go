package interp

import (
	"sort"
	"strings"
	"testing"

	"hemlock/internal/ast"
)

func factorialFn() ast.Expr {
	return fnLit([]string{"n"}, block(
		ifS(infix("<=", ident("n"), num(1)), block(ret(num(1))), nil),
		ret(infix("*", ident("n"), callN("fact", infix("-", ident("n"), num(1))))),
	))
}

func TestSpawnJoinReturnsResults(t *testing.T) {
	out := mustRun(t, prog(
		letS("fact", factorialFn()),
		letS("t5", callN("spawn", ident("fact"), num(5))),
		letS("t6", callN("spawn", ident("fact"), num(6))),
		exprS(callN("println", method(ident("t6"), "join"))),
		exprS(callN("println", method(ident("t5"), "join"))),
	))
	if out != "720\n120\n" {
		t.Errorf("output = %q, want 720 then 120", out)
	}
}

func TestJoinRaisesTaskException(t *testing.T) {
	out := mustRun(t, prog(
		letS("angry", fnLit(nil, block(throwS(str("boom"))))),
		letS("t", callN("spawn", ident("angry"))),
		try(
			block(exprS(method(ident("t"), "join"))),
			"e",
			block(exprS(callN("println", str("caught:"), ident("e")))),
			nil,
		),
	))
	if out != "caught: boom\n" {
		t.Errorf("output = %q, want the task's payload re-raised at join", out)
	}
}

func TestDoubleJoinIsUsageError(t *testing.T) {
	out := mustRun(t, prog(
		letS("t", callN("spawn", fnLit(nil, block(ret(num(1)))))),
		exprS(method(ident("t"), "join")),
		try(
			block(exprS(method(ident("t"), "join"))),
			"e",
			block(exprS(callN("println", ident("e")))),
			nil,
		),
	))
	if !strings.HasPrefix(out, "ConcurrencyUsageError:") {
		t.Errorf("output = %q, want a ConcurrencyUsageError payload", out)
	}
}

func TestJoinAfterDetachIsUsageError(t *testing.T) {
	out := mustRun(t, prog(
		letS("t", callN("spawn", fnLit(nil, block(ret(num(1)))))),
		exprS(method(ident("t"), "detach")),
		try(
			block(exprS(method(ident("t"), "join"))),
			"e",
			block(exprS(callN("println", ident("e")))),
			nil,
		),
	))
	if !strings.HasPrefix(out, "ConcurrencyUsageError:") {
		t.Errorf("output = %q, want a ConcurrencyUsageError payload", out)
	}
}

func TestSpawnNonFunctionIsTypeError(t *testing.T) {
	out := mustRun(t, prog(
		try(
			block(exprS(callN("spawn", num(3)))),
			"e",
			block(exprS(callN("println", ident("e")))),
			nil,
		),
	))
	if !strings.HasPrefix(out, "TypeError:") {
		t.Errorf("output = %q, want a TypeError payload", out)
	}
}

func TestChannelRendezvous(t *testing.T) {
	// producer task feeds the channel, consumer drains until the null
	// sentinel after close
	out := mustRun(t, prog(
		letS("ch", callN("channel", num(4))),
		letS("producer", fnLit([]string{"c"}, block(
			letS("i", num(1)),
			while(infix("<=", ident("i"), num(100)), block(
				exprS(method(ident("c"), "send", ident("i"))),
				exprS(assign(ident("i"), infix("+", ident("i"), num(1)))),
			)),
			exprS(method(ident("c"), "close")),
		))),
		letS("t", callN("spawn", ident("producer"), ident("ch"))),
		letS("sum", num(0)),
		letS("v", method(ident("ch"), "recv")),
		while(infix("!=", ident("v"), null()), block(
			exprS(assign(ident("sum"), infix("+", ident("sum"), ident("v")))),
			exprS(assign(ident("v"), method(ident("ch"), "recv"))),
		)),
		exprS(method(ident("t"), "join")),
		exprS(callN("println", ident("sum"))),
	))
	if out != "5050\n" {
		t.Errorf("sum = %q, want 5050", out)
	}
}

func TestSendOnClosedChannelIsCatchable(t *testing.T) {
	out := mustRun(t, prog(
		letS("ch", callN("channel", num(1))),
		exprS(method(ident("ch"), "close")),
		try(
			block(exprS(method(ident("ch"), "send", num(1)))),
			"e",
			block(exprS(callN("println", ident("e")))),
			nil,
		),
	))
	if !strings.HasPrefix(out, "ConcurrencyUsageError:") {
		t.Errorf("output = %q, want a ConcurrencyUsageError payload", out)
	}
}

func TestChannelCapacityMustBePositive(t *testing.T) {
	out := mustRun(t, prog(
		try(
			block(exprS(callN("channel", num(0)))),
			"e",
			block(exprS(callN("println", ident("e")))),
			nil,
		),
	))
	if !strings.HasPrefix(out, "RangeError:") {
		t.Errorf("output = %q, want a RangeError payload", out)
	}
}

func TestTaskLimitIsEnforced(t *testing.T) {
	in, out := func() (*Interp, *strings.Builder) {
		var sb strings.Builder
		return New(Options{Out: &sb, ErrOut: &strings.Builder{}, MaxTasks: 1}), &sb
	}()
	env := in.NewRootEnvironment()
	defer func() {
		env.Clear()
		env.Release()
	}()

	// first task blocks on an empty channel so the slot stays taken
	err := in.Run(prog(
		letS("ch", callN("channel", num(1))),
		letS("blocker", fnLit([]string{"c"}, block(ret(method(ident("c"), "recv"))))),
		letS("t", callN("spawn", ident("blocker"), ident("ch"))),
		try(
			block(exprS(callN("spawn", fnLit(nil, block(ret(num(0))))))),
			"e",
			block(exprS(callN("println", ident("e")))),
			nil,
		),
		exprS(method(ident("ch"), "close")),
		exprS(method(ident("t"), "join")),
	), env)
	if err != nil {
		msg := err.Message()
		err.Release()
		t.Fatalf("uncaught error: %s", msg)
	}
	if !strings.HasPrefix(out.String(), "ConcurrencyUsageError:") {
		t.Errorf("output = %q, want the second spawn rejected", out.String())
	}
}

func TestManyTasksInterleave(t *testing.T) {
	// order of completion is unconstrained; the joined results are not
	out := mustRun(t, prog(
		letS("square", fnLit([]string{"n"}, block(ret(infix("*", ident("n"), ident("n")))))),
		letS("tasks", arr()),
		letS("i", num(1)),
		while(infix("<=", ident("i"), num(8)), block(
			exprS(method(ident("tasks"), "push", callN("spawn", ident("square"), ident("i")))),
			exprS(assign(ident("i"), infix("+", ident("i"), num(1)))),
		)),
		&ast.ForInStatement{Name: "t", Iterable: ident("tasks"), Body: block(
			exprS(callN("println", method(ident("t"), "join"))),
		)},
	))
	got := strings.Fields(out)
	want := []string{"1", "4", "9", "16", "25", "36", "49", "64"}
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("joined results = %v, want the eight squares", got)
	}
}

func TestExitNativeStopsWithCode(t *testing.T) {
	in, out := newTestInterp()
	code := -1
	exited := false
	in.exitFn = func(c int) {
		code = c
		exited = true
		// unwind like os.Exit would
		panic("test exit")
	}
	env := in.NewRootEnvironment()
	defer func() {
		env.Clear()
		env.Release()
	}()

	func() {
		defer func() { _ = recover() }()
		in.Run(prog(
			exprS(callN("println", str("before"))),
			exprS(callN("exit", num(3))),
			exprS(callN("println", str("after"))),
		), env)
	}()

	if !exited || code != 3 {
		t.Fatalf("exit(3) did not reach the exit hook: exited=%v code=%d", exited, code)
	}
	if !strings.Contains(out.String(), "before") || strings.Contains(out.String(), "after") {
		t.Errorf("output = %q, want execution stopped at exit", out.String())
	}
}
