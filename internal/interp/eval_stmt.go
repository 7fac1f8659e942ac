package interp

import (
	"hemlock/internal/ast"
	"hemlock/internal/value"
)

func (in *Interp) evalStmt(node ast.Stmt, env *value.Environment) Signal {
	switch n := node.(type) {
	case *ast.LetStatement:
		return in.evalLet(n, env)
	case *ast.ExpressionStatement:
		v, err := in.evalExpr(n.Expression, env)
		if err != nil {
			return signalFromError(err)
		}
		// nothing claims a bare expression result
		value.Release(v)
		return normalSignal()
	case *ast.ReturnStatement:
		if n.Value == nil {
			return returnSignal(value.Null())
		}
		v, err := in.evalExpr(n.Value, env)
		if err != nil {
			return signalFromError(err)
		}
		return returnSignal(v)
	case *ast.BreakStatement:
		return Signal{Kind: SigBreak}
	case *ast.ContinueStatement:
		return Signal{Kind: SigContinue}
	case *ast.BlockStatement:
		return in.evalBlock(n, env)
	case *ast.IfStatement:
		return in.evalIf(n, env)
	case *ast.WhileStatement:
		return in.evalWhile(n, env)
	case *ast.ForStatement:
		return in.evalFor(n, env)
	case *ast.ForInStatement:
		return in.evalForIn(n, env)
	case *ast.SwitchStatement:
		return in.evalSwitch(n, env)
	case *ast.TryStatement:
		return in.evalTry(n, env)
	case *ast.ThrowStatement:
		v, err := in.evalExpr(n.Value, env)
		if err != nil {
			return signalFromError(err)
		}
		return throwSignal(v)
	case *ast.TypeDeclaration:
		if err := in.types.define(n); err != nil {
			return signalFromError(err)
		}
		return normalSignal()
	}
	return signalFromError(value.Errorf(value.TypeError, "unknown statement node %T", node))
}

func (in *Interp) evalLet(n *ast.LetStatement, env *value.Environment) Signal {
	var v value.Value
	if n.Value == nil {
		v = value.Null()
	} else {
		var err *value.RuntimeError
		v, err = in.evalExpr(n.Value, env)
		if err != nil {
			return signalFromError(err)
		}
	}

	if n.TypeName != "" {
		converted, err := in.convertDeclared(v, n.TypeName, env)
		value.Release(v)
		if err != nil {
			return signalFromError(err)
		}
		v = converted
	}

	env.Define(n.Name, v, !n.Const)
	// the frame holds its own reference now; drop the evaluation temporary
	value.Release(v)
	return normalSignal()
}

// evalBlock runs the statements in a fresh child frame, destroyed on exit.
func (in *Interp) evalBlock(block *ast.BlockStatement, env *value.Environment) Signal {
	child := value.NewEnclosed(env)
	sig := in.runStatements(block.Statements, child)
	child.Release()
	return sig
}

func (in *Interp) runStatements(stmts []ast.Stmt, env *value.Environment) Signal {
	for _, stmt := range stmts {
		sig := in.evalStmt(stmt, env)
		if sig.Kind != SigNormal {
			return sig
		}
	}
	return normalSignal()
}

func (in *Interp) evalIf(n *ast.IfStatement, env *value.Environment) Signal {
	cond, err := in.evalExpr(n.Cond, env)
	if err != nil {
		return signalFromError(err)
	}
	truthy := cond.Truthy()
	value.Release(cond)

	if truthy {
		return in.evalBlock(n.Then, env)
	}
	if n.Else != nil {
		return in.evalStmt(n.Else, env)
	}
	return normalSignal()
}

func (in *Interp) evalWhile(n *ast.WhileStatement, env *value.Environment) Signal {
	for {
		cond, err := in.evalExpr(n.Cond, env)
		if err != nil {
			return signalFromError(err)
		}
		truthy := cond.Truthy()
		value.Release(cond)
		if !truthy {
			return normalSignal()
		}

		sig := in.evalBlock(n.Body, env)
		switch sig.Kind {
		case SigNormal, SigContinue:
		case SigBreak:
			return normalSignal()
		default:
			return sig
		}
	}
}

// evalFor runs a C-style for: the init statement gets one fresh scope for
// the whole loop, the body a fresh child scope per iteration, and condition
// and update re-evaluate every time around.
func (in *Interp) evalFor(n *ast.ForStatement, env *value.Environment) Signal {
	loopEnv := value.NewEnclosed(env)
	defer loopEnv.Release()

	if n.Init != nil {
		if sig := in.evalStmt(n.Init, loopEnv); sig.Kind != SigNormal {
			return sig
		}
	}
	for {
		if n.Cond != nil {
			cond, err := in.evalExpr(n.Cond, loopEnv)
			if err != nil {
				return signalFromError(err)
			}
			truthy := cond.Truthy()
			value.Release(cond)
			if !truthy {
				return normalSignal()
			}
		}

		sig := in.evalBlock(n.Body, loopEnv)
		switch sig.Kind {
		case SigNormal, SigContinue:
		case SigBreak:
			return normalSignal()
		default:
			return sig
		}

		if n.Update != nil {
			if sig := in.evalStmt(n.Update, loopEnv); sig.Kind != SigNormal {
				return sig
			}
		}
	}
}

func (in *Interp) evalForIn(n *ast.ForInStatement, env *value.Environment) Signal {
	iterable, err := in.evalExpr(n.Iterable, env)
	if err != nil {
		return signalFromError(err)
	}
	defer value.Release(iterable)

	if iterable.Kind != value.KindArray {
		return signalFromError(value.Errorf(value.TypeError, "cannot iterate over %s", iterable.Kind))
	}
	arr := iterable.ArrayRef()

	for i := 0; ; i++ {
		elem, ok := arr.Get(i)
		if !ok {
			return normalSignal()
		}
		iterEnv := value.NewEnclosed(env)
		iterEnv.Define(n.Name, elem, true)
		value.Release(elem)

		sig := in.runStatements(n.Body.Statements, iterEnv)
		iterEnv.Release()
		switch sig.Kind {
		case SigNormal, SigContinue:
		case SigBreak:
			return normalSignal()
		default:
			return sig
		}
	}
}

// evalSwitch dispatches on value equality, then falls through case bodies
// C-style until a break or another control signal. The default case may sit
// anywhere in the list.
func (in *Interp) evalSwitch(n *ast.SwitchStatement, env *value.Environment) Signal {
	subject, err := in.evalExpr(n.Subject, env)
	if err != nil {
		return signalFromError(err)
	}

	start := -1
	defaultIdx := -1
	for i, c := range n.Cases {
		if c.Default {
			defaultIdx = i
			continue
		}
		cv, err := in.evalExpr(c.Value, env)
		if err != nil {
			value.Release(subject)
			return signalFromError(err)
		}
		match := value.Equals(subject, cv)
		value.Release(cv)
		if match {
			start = i
			break
		}
	}
	value.Release(subject)
	if start == -1 {
		start = defaultIdx
	}
	if start == -1 {
		return normalSignal()
	}

	switchEnv := value.NewEnclosed(env)
	defer switchEnv.Release()
	for i := start; i < len(n.Cases); i++ {
		sig := in.runStatements(n.Cases[i].Body, switchEnv)
		switch sig.Kind {
		case SigNormal:
		case SigBreak:
			return normalSignal()
		default:
			return sig
		}
	}
	return normalSignal()
}

// evalTry implements the finally-override contract: whatever signal the
// try/catch phase produced, a non-normal signal out of finally replaces it,
// pending returns and unresolved exceptions included.
func (in *Interp) evalTry(n *ast.TryStatement, env *value.Environment) Signal {
	sig := in.evalBlock(n.Body, env)

	if sig.Kind == SigException && n.Catch != nil {
		catchEnv := value.NewEnclosed(env)
		catchEnv.Define(n.CatchName, sig.Val, true)
		releaseSignal(sig)
		sig = in.runStatements(n.Catch.Statements, catchEnv)
		catchEnv.Release()
	}

	if n.Finally != nil {
		fsig := in.evalBlock(n.Finally, env)
		if fsig.Kind != SigNormal {
			releaseSignal(sig)
			sig = fsig
		}
	}
	return sig
}
