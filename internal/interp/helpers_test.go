package interp

import (
	"bytes"
	"testing"

	"hemlock/internal/ast"
	"hemlock/internal/value"
)

// AST builders. Tests assemble programs the way the external parser would
// hand them over.

func prog(stmts ...ast.Stmt) *ast.Program { return &ast.Program{Statements: stmts} }

func letS(name string, v ast.Expr) ast.Stmt { return &ast.LetStatement{Name: name, Value: v} }

func letTyped(name, typeName string, v ast.Expr) ast.Stmt {
	return &ast.LetStatement{Name: name, TypeName: typeName, Value: v}
}

func constS(name string, v ast.Expr) ast.Stmt {
	return &ast.LetStatement{Name: name, Const: true, Value: v}
}

func exprS(e ast.Expr) ast.Stmt { return &ast.ExpressionStatement{Expression: e} }

func ret(e ast.Expr) ast.Stmt { return &ast.ReturnStatement{Value: e} }

func block(stmts ...ast.Stmt) *ast.BlockStatement { return &ast.BlockStatement{Statements: stmts} }

func ifS(cond ast.Expr, then *ast.BlockStatement, els ast.Stmt) ast.Stmt {
	return &ast.IfStatement{Cond: cond, Then: then, Else: els}
}

func while(cond ast.Expr, body *ast.BlockStatement) ast.Stmt {
	return &ast.WhileStatement{Cond: cond, Body: body}
}

func ident(name string) ast.Expr { return &ast.Identifier{Name: name} }

func num(n int64) ast.Expr { return &ast.IntegerLiteral{Value: n} }

func typedNum(typeName string, n int64) ast.Expr {
	return &ast.IntegerLiteral{Value: n, TypeName: typeName}
}

func flt(f float64) ast.Expr { return &ast.FloatLiteral{Value: f} }

func str(s string) ast.Expr { return &ast.StringLiteral{Value: s} }

func boolean(b bool) ast.Expr { return &ast.BooleanLiteral{Value: b} }

func null() ast.Expr { return &ast.NullLiteral{} }

func arr(elems ...ast.Expr) ast.Expr { return &ast.ArrayLiteral{Elements: elems} }

func objField(name string, v ast.Expr) ast.ObjectField {
	return ast.ObjectField{Name: name, Value: v}
}

func objLit(fields ...ast.ObjectField) ast.Expr { return &ast.ObjectLiteral{Fields: fields} }

func fnLit(params []string, body *ast.BlockStatement) ast.Expr {
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Name: p}
	}
	return &ast.FunctionLiteral{Params: ps, Body: body}
}

func call(callee ast.Expr, args ...ast.Expr) ast.Expr {
	return &ast.CallExpression{Callee: callee, Arguments: args}
}

func callN(name string, args ...ast.Expr) ast.Expr { return call(ident(name), args...) }

func method(recv ast.Expr, name string, args ...ast.Expr) ast.Expr {
	return call(&ast.MemberExpression{Object: recv, Name: name}, args...)
}

func member(recv ast.Expr, name string) ast.Expr {
	return &ast.MemberExpression{Object: recv, Name: name}
}

func index(left, idx ast.Expr) ast.Expr { return &ast.IndexExpression{Left: left, Index: idx} }

func infix(op string, l, r ast.Expr) ast.Expr {
	return &ast.InfixExpression{Operator: op, Left: l, Right: r}
}

func prefix(op string, r ast.Expr) ast.Expr {
	return &ast.PrefixExpression{Operator: op, Right: r}
}

func assign(target, v ast.Expr) ast.Expr {
	return &ast.AssignExpression{Target: target, Value: v}
}

func throwS(e ast.Expr) ast.Stmt { return &ast.ThrowStatement{Value: e} }

func try(body *ast.BlockStatement, catchName string, catch, finally *ast.BlockStatement) ast.Stmt {
	return &ast.TryStatement{Body: body, CatchName: catchName, Catch: catch, Finally: finally}
}

func switchS(subject ast.Expr, cases ...*ast.SwitchCase) ast.Stmt {
	return &ast.SwitchStatement{Subject: subject, Cases: cases}
}

func caseV(v ast.Expr, body ...ast.Stmt) *ast.SwitchCase {
	return &ast.SwitchCase{Value: v, Body: body}
}

func caseD(body ...ast.Stmt) *ast.SwitchCase {
	return &ast.SwitchCase{Default: true, Body: body}
}

// Runtime helpers.

func newTestInterp(args ...string) (*Interp, *bytes.Buffer) {
	var out bytes.Buffer
	in := New(Options{Args: args, Out: &out, ErrOut: &bytes.Buffer{}})
	return in, &out
}

// runProgram executes p in a throwaway interpreter and returns the printed
// output, the uncaught error (nil normally) and the number of heap objects
// still live after full teardown.
func runProgram(t *testing.T, p *ast.Program) (string, *value.RuntimeError, int64) {
	t.Helper()
	before := value.LiveHeapObjects()
	in, out := newTestInterp()
	env := in.NewRootEnvironment()
	err := in.Run(p, env)
	env.Clear()
	env.Release()
	return out.String(), err, value.LiveHeapObjects() - before
}

// mustRun fails the test on an uncaught error or any leaked heap object.
func mustRun(t *testing.T, p *ast.Program) string {
	t.Helper()
	out, err, leaked := runProgram(t, p)
	if err != nil {
		msg := err.Message()
		err.Release()
		t.Fatalf("uncaught error: %s", msg)
	}
	if leaked != 0 {
		t.Fatalf("leaked %d heap objects", leaked)
	}
	return out
}

// evalInRoot evaluates one expression against a fresh root environment and
// hands the owned result to fn before teardown.
func evalInRoot(t *testing.T, e ast.Expr, fn func(v value.Value)) {
	t.Helper()
	in, _ := newTestInterp()
	env := in.NewRootEnvironment()
	v, err := in.evalExpr(e, env)
	if err != nil {
		msg := err.Message()
		err.Release()
		env.Release()
		t.Fatalf("eval error: %s", msg)
	}
	fn(v)
	value.Release(v)
	env.Clear()
	env.Release()
}
