package ast

// Nodes are read-only input to the evaluator. The external parser produces
// them through the JSON hand-off in decode.go; nothing in the runtime mutates
// a node after decoding.

type Node interface {
	node()
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

type Program struct {
	Statements []Stmt
}

type LetStatement struct {
	Name     string
	TypeName string // declared type, "" when untyped
	Const    bool
	Value    Expr
}

type ExpressionStatement struct {
	Expression Expr
}

type ReturnStatement struct {
	Value Expr // nil for a bare return
}

type BreakStatement struct{}

type ContinueStatement struct{}

type BlockStatement struct {
	Statements []Stmt
}

type IfStatement struct {
	Cond Expr
	Then *BlockStatement
	Else Stmt // *IfStatement for else-if chains, *BlockStatement otherwise, nil when absent
}

type WhileStatement struct {
	Cond Expr
	Body *BlockStatement
}

type ForStatement struct {
	Init   Stmt // nil when absent
	Cond   Expr // nil means always true
	Update Stmt // nil when absent
	Body   *BlockStatement
}

type ForInStatement struct {
	Name     string
	Iterable Expr
	Body     *BlockStatement
}

type SwitchCase struct {
	Value   Expr // nil marks the default case
	Default bool
	Body    []Stmt
}

type SwitchStatement struct {
	Subject Expr
	Cases   []*SwitchCase
}

type TryStatement struct {
	Body      *BlockStatement
	CatchName string
	Catch     *BlockStatement // nil when no catch clause
	Finally   *BlockStatement // nil when no finally clause
}

type ThrowStatement struct {
	Value Expr
}

type TypeField struct {
	Name     string
	TypeName string
	Optional bool
	Default  Expr // nil unless the field declares a default
}

// TypeDeclaration registers a duck type: `define Person { name: string, ... }`.
type TypeDeclaration struct {
	Name   string
	Fields []TypeField
}

type Identifier struct {
	Name string
}

type NullLiteral struct{}

type BooleanLiteral struct {
	Value bool
}

type IntegerLiteral struct {
	Value    int64 // u64 literals carry their bit pattern
	TypeName string
}

type FloatLiteral struct {
	Value    float64
	TypeName string
}

type StringLiteral struct {
	Value string
}

type RuneLiteral struct {
	Value rune
}

type ArrayLiteral struct {
	Elements []Expr
}

type ObjectField struct {
	Name  string
	Value Expr
}

type ObjectLiteral struct {
	Fields []ObjectField
}

type Param struct {
	Name     string
	TypeName string
}

type FunctionLiteral struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       *BlockStatement
}

type PrefixExpression struct {
	Operator string
	Right    Expr
}

type InfixExpression struct {
	Operator string
	Left     Expr
	Right    Expr
}

// AssignExpression covers identifier, index and member targets. It is an
// expression: its result carries exactly one reference.
type AssignExpression struct {
	Target Expr
	Value  Expr
}

type IndexExpression struct {
	Left  Expr
	Index Expr
}

type MemberExpression struct {
	Object Expr
	Name   string
}

type CallExpression struct {
	Callee    Expr
	Arguments []Expr
}

func (*Program) node() {}

func (*LetStatement) node()        {}
func (*ExpressionStatement) node() {}
func (*ReturnStatement) node()     {}
func (*BreakStatement) node()      {}
func (*ContinueStatement) node()   {}
func (*BlockStatement) node()      {}
func (*IfStatement) node()         {}
func (*WhileStatement) node()      {}
func (*ForStatement) node()        {}
func (*ForInStatement) node()      {}
func (*SwitchStatement) node()     {}
func (*TryStatement) node()        {}
func (*ThrowStatement) node()      {}
func (*TypeDeclaration) node()     {}

func (*LetStatement) stmtNode()        {}
func (*ExpressionStatement) stmtNode() {}
func (*ReturnStatement) stmtNode()     {}
func (*BreakStatement) stmtNode()      {}
func (*ContinueStatement) stmtNode()   {}
func (*BlockStatement) stmtNode()      {}
func (*IfStatement) stmtNode()         {}
func (*WhileStatement) stmtNode()      {}
func (*ForStatement) stmtNode()        {}
func (*ForInStatement) stmtNode()      {}
func (*SwitchStatement) stmtNode()     {}
func (*TryStatement) stmtNode()        {}
func (*ThrowStatement) stmtNode()      {}
func (*TypeDeclaration) stmtNode()     {}

func (*Identifier) node()       {}
func (*NullLiteral) node()      {}
func (*BooleanLiteral) node()   {}
func (*IntegerLiteral) node()   {}
func (*FloatLiteral) node()     {}
func (*StringLiteral) node()    {}
func (*RuneLiteral) node()      {}
func (*ArrayLiteral) node()     {}
func (*ObjectLiteral) node()    {}
func (*FunctionLiteral) node()  {}
func (*PrefixExpression) node() {}
func (*InfixExpression) node()  {}
func (*AssignExpression) node() {}
func (*IndexExpression) node()  {}
func (*MemberExpression) node() {}
func (*CallExpression) node()   {}

func (*Identifier) exprNode()       {}
func (*NullLiteral) exprNode()      {}
func (*BooleanLiteral) exprNode()   {}
func (*IntegerLiteral) exprNode()   {}
func (*FloatLiteral) exprNode()     {}
func (*StringLiteral) exprNode()    {}
func (*RuneLiteral) exprNode()      {}
func (*ArrayLiteral) exprNode()     {}
func (*ObjectLiteral) exprNode()    {}
func (*FunctionLiteral) exprNode()  {}
func (*PrefixExpression) exprNode() {}
func (*InfixExpression) exprNode()  {}
func (*AssignExpression) exprNode() {}
func (*IndexExpression) exprNode()  {}
func (*MemberExpression) exprNode() {}
func (*CallExpression) exprNode()   {}
