package interp

import (
	"hemlock/internal/ast"
	"hemlock/internal/value"
)

func (in *Interp) evalExpr(node ast.Expr, env *value.Environment) (value.Value, *value.RuntimeError) {
	switch n := node.(type) {
	case *ast.Identifier:
		return env.Get(n.Name)
	case *ast.NullLiteral:
		return value.Null(), nil
	case *ast.BooleanLiteral:
		return value.Bool(n.Value), nil
	case *ast.IntegerLiteral:
		kind := value.KindI32
		if n.TypeName != "" {
			k, ok := value.KindFromName(n.TypeName)
			if !ok {
				return value.Value{}, value.Errorf(value.TypeError, "unknown numeric type %s", n.TypeName)
			}
			kind = k
		}
		return value.Int(kind, n.Value), nil
	case *ast.FloatLiteral:
		kind := value.KindF64
		if n.TypeName == "f32" {
			kind = value.KindF32
		}
		return value.Float(kind, n.Value), nil
	case *ast.StringLiteral:
		return value.NewString(n.Value), nil
	case *ast.RuneLiteral:
		return value.Rune(n.Value), nil
	case *ast.ArrayLiteral:
		elems, err := in.evalArgs(n.Elements, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewArray(elems), nil
	case *ast.ObjectLiteral:
		fields := make([]value.Field, 0, len(n.Fields))
		for _, f := range n.Fields {
			fv, err := in.evalExpr(f.Value, env)
			if err != nil {
				for _, done := range fields {
					value.Release(done.Val)
				}
				return value.Value{}, err
			}
			fields = append(fields, value.Field{Name: f.Name, Val: fv})
		}
		return value.NewObject(fields), nil
	case *ast.FunctionLiteral:
		return value.NewFunction(n.Name, n.Params, n.ReturnType, n.Body, env), nil
	case *ast.PrefixExpression:
		return in.evalPrefix(n, env)
	case *ast.InfixExpression:
		return in.evalInfix(n, env)
	case *ast.AssignExpression:
		return in.evalAssign(n, env)
	case *ast.IndexExpression:
		return in.evalIndex(n, env)
	case *ast.MemberExpression:
		return in.evalMember(n, env)
	case *ast.CallExpression:
		return in.evalCall(n, env)
	}
	return value.Value{}, value.Errorf(value.TypeError, "unknown expression node %T", node)
}

// evalArgs evaluates a list left to right, handing ownership of every
// element to the caller; on error the partial results are released here.
func (in *Interp) evalArgs(exprs []ast.Expr, env *value.Environment) ([]value.Value, *value.RuntimeError) {
	vals := make([]value.Value, 0, len(exprs))
	for _, e := range exprs {
		v, err := in.evalExpr(e, env)
		if err != nil {
			releaseAll(vals)
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func releaseAll(vals []value.Value) {
	for _, v := range vals {
		value.Release(v)
	}
}

func (in *Interp) evalPrefix(n *ast.PrefixExpression, env *value.Environment) (value.Value, *value.RuntimeError) {
	right, err := in.evalExpr(n.Right, env)
	if err != nil {
		return value.Value{}, err
	}
	defer value.Release(right)

	switch n.Operator {
	case "!":
		return value.Bool(!right.Truthy()), nil
	case "-":
		if !value.IsNumeric(right) {
			return value.Value{}, value.Errorf(value.TypeError, "cannot negate %s", right.Kind)
		}
		if value.IsFloatKind(right.Kind) {
			return value.Float(right.Kind, -right.Float), nil
		}
		return value.Int(right.Kind, -right.Int), nil
	case "~":
		if !value.IsIntegerKind(right.Kind) {
			return value.Value{}, value.Errorf(value.TypeError, "bitwise not needs an integer, got %s", right.Kind)
		}
		return value.Int(right.Kind, ^right.Int), nil
	}
	return value.Value{}, value.Errorf(value.TypeError, "unknown prefix operator %s", n.Operator)
}

func (in *Interp) evalInfix(n *ast.InfixExpression, env *value.Environment) (value.Value, *value.RuntimeError) {
	// short-circuit forms never evaluate the right side eagerly
	switch n.Operator {
	case "&&":
		left, err := in.evalExpr(n.Left, env)
		if err != nil {
			return value.Value{}, err
		}
		truthy := left.Truthy()
		value.Release(left)
		if !truthy {
			return value.Bool(false), nil
		}
		right, err := in.evalExpr(n.Right, env)
		if err != nil {
			return value.Value{}, err
		}
		result := right.Truthy()
		value.Release(right)
		return value.Bool(result), nil
	case "||":
		left, err := in.evalExpr(n.Left, env)
		if err != nil {
			return value.Value{}, err
		}
		truthy := left.Truthy()
		value.Release(left)
		if truthy {
			return value.Bool(true), nil
		}
		right, err := in.evalExpr(n.Right, env)
		if err != nil {
			return value.Value{}, err
		}
		result := right.Truthy()
		value.Release(right)
		return value.Bool(result), nil
	}

	left, err := in.evalExpr(n.Left, env)
	if err != nil {
		return value.Value{}, err
	}
	right, err := in.evalExpr(n.Right, env)
	if err != nil {
		value.Release(left)
		return value.Value{}, err
	}
	defer value.Release(left)
	defer value.Release(right)

	switch n.Operator {
	case "==":
		return value.Bool(value.Equals(left, right)), nil
	case "!=":
		return value.Bool(!value.Equals(left, right)), nil
	}

	if left.Kind == value.KindString && right.Kind == value.KindString {
		switch n.Operator {
		case "+":
			return value.NewString(left.StringRef().Text() + right.StringRef().Text()), nil
		case "<", "<=", ">", ">=":
			return compareStrings(n.Operator, left.StringRef().Text(), right.StringRef().Text()), nil
		}
		return value.Value{}, value.Errorf(value.TypeError, "unknown string operator %s", n.Operator)
	}

	return numericBinary(n.Operator, left, right)
}

func compareStrings(op, a, b string) value.Value {
	switch op {
	case "<":
		return value.Bool(a < b)
	case "<=":
		return value.Bool(a <= b)
	case ">":
		return value.Bool(a > b)
	}
	return value.Bool(a >= b)
}

// numericBinary promotes both operands to their common kind and applies the
// operator with that kind's machine semantics: wraparound for ints, unsigned
// arithmetic for u64, IEEE for floats.
func numericBinary(op string, l, r value.Value) (value.Value, *value.RuntimeError) {
	a, b, kind, err := value.Promote(l, r)
	if err != nil {
		return value.Value{}, err
	}

	if value.IsFloatKind(kind) {
		switch op {
		case "+":
			return value.Float(kind, a.Float+b.Float), nil
		case "-":
			return value.Float(kind, a.Float-b.Float), nil
		case "*":
			return value.Float(kind, a.Float*b.Float), nil
		case "/":
			return value.Float(kind, a.Float/b.Float), nil
		case "<":
			return value.Bool(a.Float < b.Float), nil
		case "<=":
			return value.Bool(a.Float <= b.Float), nil
		case ">":
			return value.Bool(a.Float > b.Float), nil
		case ">=":
			return value.Bool(a.Float >= b.Float), nil
		}
		return value.Value{}, value.Errorf(value.TypeError, "operator %s not defined for %s", op, kind)
	}

	if kind == value.KindU64 {
		ua, ub := a.AsUint(), b.AsUint()
		switch op {
		case "+":
			return value.Value{Kind: kind, Int: int64(ua + ub)}, nil
		case "-":
			return value.Value{Kind: kind, Int: int64(ua - ub)}, nil
		case "*":
			return value.Value{Kind: kind, Int: int64(ua * ub)}, nil
		case "/":
			if ub == 0 {
				return value.Value{}, value.Errorf(value.RangeError, "division by zero")
			}
			return value.Value{Kind: kind, Int: int64(ua / ub)}, nil
		case "%":
			if ub == 0 {
				return value.Value{}, value.Errorf(value.RangeError, "division by zero")
			}
			return value.Value{Kind: kind, Int: int64(ua % ub)}, nil
		case "&":
			return value.Value{Kind: kind, Int: int64(ua & ub)}, nil
		case "|":
			return value.Value{Kind: kind, Int: int64(ua | ub)}, nil
		case "^":
			return value.Value{Kind: kind, Int: int64(ua ^ ub)}, nil
		case "<<", ">>":
			return shiftValue(op, kind, a, b)
		case "<":
			return value.Bool(ua < ub), nil
		case "<=":
			return value.Bool(ua <= ub), nil
		case ">":
			return value.Bool(ua > ub), nil
		case ">=":
			return value.Bool(ua >= ub), nil
		}
		return value.Value{}, value.Errorf(value.TypeError, "operator %s not defined for %s", op, kind)
	}

	switch op {
	case "+":
		return value.Int(kind, a.Int+b.Int), nil
	case "-":
		return value.Int(kind, a.Int-b.Int), nil
	case "*":
		return value.Int(kind, a.Int*b.Int), nil
	case "/":
		if b.Int == 0 {
			return value.Value{}, value.Errorf(value.RangeError, "division by zero")
		}
		return value.Int(kind, a.Int/b.Int), nil
	case "%":
		if b.Int == 0 {
			return value.Value{}, value.Errorf(value.RangeError, "division by zero")
		}
		return value.Int(kind, a.Int%b.Int), nil
	case "&":
		return value.Int(kind, a.Int&b.Int), nil
	case "|":
		return value.Int(kind, a.Int|b.Int), nil
	case "^":
		return value.Int(kind, a.Int^b.Int), nil
	case "<<", ">>":
		return shiftValue(op, kind, a, b)
	case "<":
		return value.Bool(a.Int < b.Int), nil
	case "<=":
		return value.Bool(a.Int <= b.Int), nil
	case ">":
		return value.Bool(a.Int > b.Int), nil
	case ">=":
		return value.Bool(a.Int >= b.Int), nil
	}
	return value.Value{}, value.Errorf(value.TypeError, "operator %s not defined for %s", op, kind)
}

func shiftValue(op string, kind value.Kind, a, b value.Value) (value.Value, *value.RuntimeError) {
	count := b.Int
	if kind == value.KindU64 {
		count = int64(b.AsUint())
	}
	if count < 0 || count > 63 {
		return value.Value{}, value.Errorf(value.RangeError, "shift count %d out of range", count)
	}
	if op == "<<" {
		if kind == value.KindU64 {
			return value.Value{Kind: kind, Int: int64(a.AsUint() << uint(count))}, nil
		}
		return value.Int(kind, a.Int<<uint(count)), nil
	}
	if kind == value.KindU64 {
		return value.Value{Kind: kind, Int: int64(a.AsUint() >> uint(count))}, nil
	}
	return value.Int(kind, a.Int>>uint(count)), nil
}

// evalAssign stores through the target and hands back exactly one reference
// to the assigned value: the evaluation temporary. Every store path retains
// on its own.
func (in *Interp) evalAssign(n *ast.AssignExpression, env *value.Environment) (value.Value, *value.RuntimeError) {
	v, err := in.evalExpr(n.Value, env)
	if err != nil {
		return value.Value{}, err
	}

	switch target := n.Target.(type) {
	case *ast.Identifier:
		if err := env.Set(target.Name, v); err != nil {
			value.Release(v)
			return value.Value{}, err
		}
		return v, nil

	case *ast.IndexExpression:
		container, err := in.evalExpr(target.Left, env)
		if err != nil {
			value.Release(v)
			return value.Value{}, err
		}
		idx, err := in.evalExpr(target.Index, env)
		if err != nil {
			value.Release(container)
			value.Release(v)
			return value.Value{}, err
		}
		storeErr := in.storeIndexed(container, idx, v)
		value.Release(idx)
		value.Release(container)
		if storeErr != nil {
			value.Release(v)
			return value.Value{}, storeErr
		}
		return v, nil

	case *ast.MemberExpression:
		recv, err := in.evalExpr(target.Object, env)
		if err != nil {
			value.Release(v)
			return value.Value{}, err
		}
		if recv.Kind != value.KindObject {
			value.Release(recv)
			value.Release(v)
			return value.Value{}, value.Errorf(value.TypeError, "cannot set field on %s", recv.Kind)
		}
		recv.ObjectRef().Set(target.Name, v)
		value.Release(recv)
		return v, nil
	}

	value.Release(v)
	return value.Value{}, value.Errorf(value.TypeError, "invalid assignment target %T", n.Target)
}

func (in *Interp) storeIndexed(container, idx, v value.Value) *value.RuntimeError {
	switch container.Kind {
	case value.KindArray:
		if !value.IsIntegerKind(idx.Kind) {
			return value.Errorf(value.TypeError, "array index must be an integer, got %s", idx.Kind)
		}
		if !container.ArrayRef().Set(int(idx.Int), v) {
			return value.Errorf(value.RangeError, "array index %d out of range", idx.Int)
		}
		return nil
	case value.KindBuffer:
		if !value.IsIntegerKind(idx.Kind) {
			return value.Errorf(value.TypeError, "buffer index must be an integer, got %s", idx.Kind)
		}
		byteVal, convErr := value.Convert(v, value.KindU8)
		if convErr != nil {
			return convErr
		}
		return container.BufferRef().Set(int(idx.Int), byte(byteVal.Int))
	case value.KindObject:
		if idx.Kind != value.KindString {
			return value.Errorf(value.TypeError, "object index must be a string, got %s", idx.Kind)
		}
		container.ObjectRef().Set(idx.StringRef().Text(), v)
		return nil
	}
	return value.Errorf(value.TypeError, "cannot index into %s", container.Kind)
}

func (in *Interp) evalIndex(n *ast.IndexExpression, env *value.Environment) (value.Value, *value.RuntimeError) {
	container, err := in.evalExpr(n.Left, env)
	if err != nil {
		return value.Value{}, err
	}
	defer value.Release(container)
	idx, err := in.evalExpr(n.Index, env)
	if err != nil {
		return value.Value{}, err
	}
	defer value.Release(idx)

	switch container.Kind {
	case value.KindArray:
		if !value.IsIntegerKind(idx.Kind) {
			return value.Value{}, value.Errorf(value.TypeError, "array index must be an integer, got %s", idx.Kind)
		}
		// safe accessor: out-of-range reads yield the null sentinel
		v, ok := container.ArrayRef().Get(int(idx.Int))
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	case value.KindString:
		if !value.IsIntegerKind(idx.Kind) {
			return value.Value{}, value.Errorf(value.TypeError, "string index must be an integer, got %s", idx.Kind)
		}
		runes := []rune(container.StringRef().Text())
		i := int(idx.Int)
		if i < 0 || i >= len(runes) {
			return value.Null(), nil
		}
		return value.Rune(runes[i]), nil
	case value.KindBuffer:
		if !value.IsIntegerKind(idx.Kind) {
			return value.Value{}, value.Errorf(value.TypeError, "buffer index must be an integer, got %s", idx.Kind)
		}
		b, getErr := container.BufferRef().Get(int(idx.Int))
		if getErr != nil {
			return value.Value{}, getErr
		}
		return value.Int(value.KindU8, int64(b)), nil
	case value.KindObject:
		if idx.Kind != value.KindString {
			return value.Value{}, value.Errorf(value.TypeError, "object index must be a string, got %s", idx.Kind)
		}
		name := idx.StringRef().Text()
		v, ok := container.ObjectRef().Get(name)
		if !ok {
			return value.Value{}, value.Errorf(value.NameError, "undefined field %s", name)
		}
		return v, nil
	}
	return value.Value{}, value.Errorf(value.TypeError, "cannot index into %s", container.Kind)
}

func (in *Interp) evalMember(n *ast.MemberExpression, env *value.Environment) (value.Value, *value.RuntimeError) {
	recv, err := in.evalExpr(n.Object, env)
	if err != nil {
		return value.Value{}, err
	}
	defer value.Release(recv)

	if recv.Kind != value.KindObject {
		return value.Value{}, value.Errorf(value.TypeError, "no field access on %s", recv.Kind)
	}
	v, ok := recv.ObjectRef().Get(n.Name)
	if !ok {
		return value.Value{}, value.Errorf(value.NameError, "undefined field %s", n.Name)
	}
	return v, nil
}

func (in *Interp) evalCall(n *ast.CallExpression, env *value.Environment) (value.Value, *value.RuntimeError) {
	if member, ok := n.Callee.(*ast.MemberExpression); ok {
		return in.evalMethodCall(member, n.Arguments, env)
	}

	fn, err := in.evalExpr(n.Callee, env)
	if err != nil {
		return value.Value{}, err
	}
	args, err := in.evalArgs(n.Arguments, env)
	if err != nil {
		value.Release(fn)
		return value.Value{}, err
	}
	result, err := in.applyFunction(fn, args, value.Null(), false)
	releaseAll(args)
	value.Release(fn)
	return result, err
}

// evalMethodCall handles property-access call targets: built-in methods on
// the heap kinds, and object fields holding functions, which get the
// receiver bound as `self`.
func (in *Interp) evalMethodCall(member *ast.MemberExpression, argExprs []ast.Expr, env *value.Environment) (value.Value, *value.RuntimeError) {
	recv, err := in.evalExpr(member.Object, env)
	if err != nil {
		return value.Value{}, err
	}
	args, err := in.evalArgs(argExprs, env)
	if err != nil {
		value.Release(recv)
		return value.Value{}, err
	}
	defer func() {
		releaseAll(args)
		value.Release(recv)
	}()

	if recv.Kind == value.KindObject {
		fn, ok := recv.ObjectRef().Get(member.Name)
		if ok {
			if fn.Kind != value.KindFunction {
				value.Release(fn)
				return value.Value{}, value.Errorf(value.TypeError, "field %s is not callable", member.Name)
			}
			result, callErr := in.applyFunction(fn, args, recv, true)
			value.Release(fn)
			return result, callErr
		}
	}

	if result, err, handled := in.callBuiltinMethod(recv, member.Name, args); handled {
		return result, err
	}
	return value.Value{}, value.Errorf(value.NameError, "undefined method %s on %s", member.Name, recv.Kind)
}
