package ast

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DecodeProgram decodes the machine-centric JSON form emitted by the parser
// tool-chain: every node is an object carrying a "type" discriminator plus
// camelCase fields. The result is the immutable tree the evaluator walks.
func DecodeProgram(data []byte) (*Program, error) {
	var root rawNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	kind, err := root.kind()
	if err != nil {
		return nil, err
	}
	if kind != "Program" {
		return nil, fmt.Errorf("decode program: root node is %q, want Program", kind)
	}
	stmts, err := root.stmts("statements")
	if err != nil {
		return nil, err
	}
	return &Program{Statements: stmts}, nil
}

type rawNode map[string]json.RawMessage

func (r rawNode) kind() (string, error) {
	raw, ok := r["type"]
	if !ok {
		return "", fmt.Errorf("ast node missing type discriminator")
	}
	var kind string
	if err := json.Unmarshal(raw, &kind); err != nil {
		return "", fmt.Errorf("ast node type: %w", err)
	}
	return kind, nil
}

func (r rawNode) str(key string) (string, error) {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

func (r rawNode) boolean(key string) (bool, error) {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("field %q: %w", key, err)
	}
	return b, nil
}

func (r rawNode) stmt(key string) (Stmt, error) {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	return decodeStmt(raw)
}

func (r rawNode) expr(key string) (Expr, error) {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	return decodeExpr(raw)
}

func (r rawNode) stmts(key string) ([]Stmt, error) {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	stmts := make([]Stmt, len(items))
	for i, item := range items {
		s, err := decodeStmt(item)
		if err != nil {
			return nil, err
		}
		stmts[i] = s
	}
	return stmts, nil
}

func (r rawNode) exprs(key string) ([]Expr, error) {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	exprs := make([]Expr, len(items))
	for i, item := range items {
		e, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

func (r rawNode) block(key string) (*BlockStatement, error) {
	s, err := r.stmt(key)
	if err != nil || s == nil {
		return nil, err
	}
	block, ok := s.(*BlockStatement)
	if !ok {
		return nil, fmt.Errorf("field %q: expected BlockStatement", key)
	}
	return block, nil
}

func decodeStmt(raw json.RawMessage) (Stmt, error) {
	var r rawNode
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode statement: %w", err)
	}
	kind, err := r.kind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case "LetStatement":
		name, err := r.str("name")
		if err != nil {
			return nil, err
		}
		typeName, err := r.str("typeName")
		if err != nil {
			return nil, err
		}
		isConst, err := r.boolean("const")
		if err != nil {
			return nil, err
		}
		value, err := r.expr("value")
		if err != nil {
			return nil, err
		}
		return &LetStatement{Name: name, TypeName: typeName, Const: isConst, Value: value}, nil

	case "ExpressionStatement":
		expr, err := r.expr("expression")
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{Expression: expr}, nil

	case "ReturnStatement":
		value, err := r.expr("returnValue")
		if err != nil {
			return nil, err
		}
		return &ReturnStatement{Value: value}, nil

	case "BreakStatement":
		return &BreakStatement{}, nil

	case "ContinueStatement":
		return &ContinueStatement{}, nil

	case "BlockStatement":
		stmts, err := r.stmts("statements")
		if err != nil {
			return nil, err
		}
		return &BlockStatement{Statements: stmts}, nil

	case "IfStatement":
		cond, err := r.expr("condition")
		if err != nil {
			return nil, err
		}
		then, err := r.block("consequence")
		if err != nil {
			return nil, err
		}
		alt, err := r.stmt("alternative")
		if err != nil {
			return nil, err
		}
		return &IfStatement{Cond: cond, Then: then, Else: alt}, nil

	case "WhileStatement":
		cond, err := r.expr("condition")
		if err != nil {
			return nil, err
		}
		body, err := r.block("body")
		if err != nil {
			return nil, err
		}
		return &WhileStatement{Cond: cond, Body: body}, nil

	case "ForStatement":
		init, err := r.stmt("init")
		if err != nil {
			return nil, err
		}
		cond, err := r.expr("condition")
		if err != nil {
			return nil, err
		}
		update, err := r.stmt("update")
		if err != nil {
			return nil, err
		}
		body, err := r.block("body")
		if err != nil {
			return nil, err
		}
		return &ForStatement{Init: init, Cond: cond, Update: update, Body: body}, nil

	case "ForInStatement":
		name, err := r.str("name")
		if err != nil {
			return nil, err
		}
		iterable, err := r.expr("iterable")
		if err != nil {
			return nil, err
		}
		body, err := r.block("body")
		if err != nil {
			return nil, err
		}
		return &ForInStatement{Name: name, Iterable: iterable, Body: body}, nil

	case "SwitchStatement":
		subject, err := r.expr("subject")
		if err != nil {
			return nil, err
		}
		rawCases, ok := r["cases"]
		if !ok {
			return &SwitchStatement{Subject: subject}, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(rawCases, &items); err != nil {
			return nil, fmt.Errorf("switch cases: %w", err)
		}
		cases := make([]*SwitchCase, len(items))
		for i, item := range items {
			var cr rawNode
			if err := json.Unmarshal(item, &cr); err != nil {
				return nil, fmt.Errorf("switch case: %w", err)
			}
			value, err := cr.expr("value")
			if err != nil {
				return nil, err
			}
			isDefault, err := cr.boolean("default")
			if err != nil {
				return nil, err
			}
			body, err := cr.stmts("body")
			if err != nil {
				return nil, err
			}
			cases[i] = &SwitchCase{Value: value, Default: isDefault, Body: body}
		}
		return &SwitchStatement{Subject: subject, Cases: cases}, nil

	case "TryStatement":
		body, err := r.block("body")
		if err != nil {
			return nil, err
		}
		catchName, err := r.str("catchName")
		if err != nil {
			return nil, err
		}
		catch, err := r.block("catch")
		if err != nil {
			return nil, err
		}
		finally, err := r.block("finally")
		if err != nil {
			return nil, err
		}
		return &TryStatement{Body: body, CatchName: catchName, Catch: catch, Finally: finally}, nil

	case "ThrowStatement":
		value, err := r.expr("value")
		if err != nil {
			return nil, err
		}
		return &ThrowStatement{Value: value}, nil

	case "TypeDeclaration":
		name, err := r.str("name")
		if err != nil {
			return nil, err
		}
		rawFields, ok := r["fields"]
		if !ok {
			return &TypeDeclaration{Name: name}, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(rawFields, &items); err != nil {
			return nil, fmt.Errorf("type fields: %w", err)
		}
		fields := make([]TypeField, len(items))
		for i, item := range items {
			var fr rawNode
			if err := json.Unmarshal(item, &fr); err != nil {
				return nil, fmt.Errorf("type field: %w", err)
			}
			fieldName, err := fr.str("name")
			if err != nil {
				return nil, err
			}
			typeName, err := fr.str("typeName")
			if err != nil {
				return nil, err
			}
			optional, err := fr.boolean("optional")
			if err != nil {
				return nil, err
			}
			def, err := fr.expr("default")
			if err != nil {
				return nil, err
			}
			fields[i] = TypeField{Name: fieldName, TypeName: typeName, Optional: optional, Default: def}
		}
		return &TypeDeclaration{Name: name, Fields: fields}, nil
	}

	return nil, fmt.Errorf("unknown statement node %q", kind)
}

func decodeExpr(raw json.RawMessage) (Expr, error) {
	var r rawNode
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	kind, err := r.kind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case "Identifier":
		name, err := r.str("name")
		if err != nil {
			return nil, err
		}
		return &Identifier{Name: name}, nil

	case "NullLiteral":
		return &NullLiteral{}, nil

	case "BooleanLiteral":
		value, err := r.boolean("value")
		if err != nil {
			return nil, err
		}
		return &BooleanLiteral{Value: value}, nil

	case "IntegerLiteral":
		value, err := decodeInt(r["value"])
		if err != nil {
			return nil, err
		}
		typeName, err := r.str("typeName")
		if err != nil {
			return nil, err
		}
		return &IntegerLiteral{Value: value, TypeName: typeName}, nil

	case "FloatLiteral":
		var value float64
		if raw, ok := r["value"]; ok {
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, fmt.Errorf("float literal: %w", err)
			}
		}
		typeName, err := r.str("typeName")
		if err != nil {
			return nil, err
		}
		return &FloatLiteral{Value: value, TypeName: typeName}, nil

	case "StringLiteral":
		value, err := r.str("value")
		if err != nil {
			return nil, err
		}
		return &StringLiteral{Value: value}, nil

	case "RuneLiteral":
		value, err := r.str("value")
		if err != nil {
			return nil, err
		}
		runes := []rune(value)
		if len(runes) != 1 {
			return nil, fmt.Errorf("rune literal %q must hold exactly one rune", value)
		}
		return &RuneLiteral{Value: runes[0]}, nil

	case "ArrayLiteral":
		elements, err := r.exprs("elements")
		if err != nil {
			return nil, err
		}
		return &ArrayLiteral{Elements: elements}, nil

	case "ObjectLiteral":
		rawFields, ok := r["fields"]
		if !ok {
			return &ObjectLiteral{}, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(rawFields, &items); err != nil {
			return nil, fmt.Errorf("object fields: %w", err)
		}
		fields := make([]ObjectField, len(items))
		for i, item := range items {
			var fr rawNode
			if err := json.Unmarshal(item, &fr); err != nil {
				return nil, fmt.Errorf("object field: %w", err)
			}
			name, err := fr.str("name")
			if err != nil {
				return nil, err
			}
			value, err := fr.expr("value")
			if err != nil {
				return nil, err
			}
			fields[i] = ObjectField{Name: name, Value: value}
		}
		return &ObjectLiteral{Fields: fields}, nil

	case "FunctionLiteral":
		name, err := r.str("name")
		if err != nil {
			return nil, err
		}
		returnType, err := r.str("returnType")
		if err != nil {
			return nil, err
		}
		body, err := r.block("body")
		if err != nil {
			return nil, err
		}
		var params []Param
		if rawParams, ok := r["params"]; ok && string(rawParams) != "null" {
			var items []json.RawMessage
			if err := json.Unmarshal(rawParams, &items); err != nil {
				return nil, fmt.Errorf("function params: %w", err)
			}
			params = make([]Param, len(items))
			for i, item := range items {
				var pr rawNode
				if err := json.Unmarshal(item, &pr); err != nil {
					return nil, fmt.Errorf("function param: %w", err)
				}
				pname, err := pr.str("name")
				if err != nil {
					return nil, err
				}
				ptype, err := pr.str("typeName")
				if err != nil {
					return nil, err
				}
				params[i] = Param{Name: pname, TypeName: ptype}
			}
		}
		return &FunctionLiteral{Name: name, Params: params, ReturnType: returnType, Body: body}, nil

	case "PrefixExpression":
		op, err := r.str("operator")
		if err != nil {
			return nil, err
		}
		right, err := r.expr("right")
		if err != nil {
			return nil, err
		}
		return &PrefixExpression{Operator: op, Right: right}, nil

	case "InfixExpression":
		op, err := r.str("operator")
		if err != nil {
			return nil, err
		}
		left, err := r.expr("left")
		if err != nil {
			return nil, err
		}
		right, err := r.expr("right")
		if err != nil {
			return nil, err
		}
		return &InfixExpression{Operator: op, Left: left, Right: right}, nil

	case "AssignExpression":
		target, err := r.expr("target")
		if err != nil {
			return nil, err
		}
		value, err := r.expr("value")
		if err != nil {
			return nil, err
		}
		return &AssignExpression{Target: target, Value: value}, nil

	case "IndexExpression":
		left, err := r.expr("left")
		if err != nil {
			return nil, err
		}
		index, err := r.expr("index")
		if err != nil {
			return nil, err
		}
		return &IndexExpression{Left: left, Index: index}, nil

	case "MemberExpression":
		object, err := r.expr("object")
		if err != nil {
			return nil, err
		}
		name, err := r.str("name")
		if err != nil {
			return nil, err
		}
		return &MemberExpression{Object: object, Name: name}, nil

	case "CallExpression":
		callee, err := r.expr("callee")
		if err != nil {
			return nil, err
		}
		args, err := r.exprs("arguments")
		if err != nil {
			return nil, err
		}
		return &CallExpression{Callee: callee, Arguments: args}, nil
	}

	return nil, fmt.Errorf("unknown expression node %q", kind)
}

// decodeInt accepts a JSON number or a decimal string; u64 literals above
// MaxInt64 arrive as strings and keep their bit pattern.
func decodeInt(raw json.RawMessage) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("integer literal: %w", err)
		}
		num = json.Number(s)
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	u, err := strconv.ParseUint(num.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer literal %q out of range", num.String())
	}
	return int64(u), nil
}
