// Package ast defines the compiler's abstract syntax tree. Per spec.md §3,
// a Node is a single tagged variant rather than one Go type per node kind:
// that is the data model the spec is explicit about, and it is what lets
// the type resolver (a post-order walk switching on Kind) and the code
// generator (a switch-on-Kind stack-machine emitter, mirroring codegen.c's
// `switch (node->kind)`) both pattern-match a node without a visitor
// indirection. informatter-nilan's separate-struct-per-node Visitor
// pattern (ast/interfaces.go, ast/expressions.go, ast/statements.go) does
// not transfer here for that reason — see DESIGN.md.
package ast

import (
	"github.com/Hee-San/he3-c-compiler/ctype"
	"github.com/Hee-San/he3-c-compiler/symtab"
	"github.com/Hee-San/he3-c-compiler/token"
)

// Kind discriminates the Node variant.
type Kind int

const (
	Num      Kind = iota // integer literal
	VarRef               // reference to a local or global variable
	Null                 // empty statement (an uninitialized declaration)
	Return               // return lhs
	Addr                 // &lhs
	Deref                // *lhs
	ExprStmt             // lhs as a statement, result discarded
	Sizeof               // sizeof lhs, constant-folded away by the resolver
	Add
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
	Assign
	If
	While
	For
	Block    // body is a statement sequence
	StmtExpr // GCC ({ ... }) statement expression; body's last stmt is the value
	FunCall  // FuncName(args...)
)

func (k Kind) String() string {
	names := [...]string{
		"Num", "Var", "Null", "Return", "Addr", "Deref", "ExprStmt", "Sizeof",
		"Add", "Sub", "Mul", "Div", "Eq", "Ne", "Lt", "Le",
		"Assign", "If", "While", "For", "Block", "StmtExpr", "FunCall",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// Node is one AST node. Only the fields relevant to Kind are populated;
// the rest are the zero value. Ty is nil until the type resolver runs, and
// stays nil for the statement kinds, which never need one (Block, If,
// While, For, Return, Null, ExprStmt).
type Node struct {
	Kind Kind
	Tok  token.Token
	Ty   *ctype.Type

	Lhs, Rhs *Node

	Val int64            // Num
	Var *symtab.Variable // VarRef

	Cond, Then, Els *Node // If
	Init, Inc       *Node // For (Then/Cond reused for body/condition)

	Body []*Node // Block, StmtExpr: statement sequence

	FuncName string  // FunCall
	Args     []*Node // FunCall
}

// NewNum builds a Num leaf.
func NewNum(tok token.Token, val int64) *Node {
	return &Node{Kind: Num, Tok: tok, Val: val}
}

// NewVar builds a reference to an already-bound variable.
func NewVar(tok token.Token, v *symtab.Variable) *Node {
	return &Node{Kind: VarRef, Tok: tok, Var: v}
}

// NewUnary builds a single-child node (Return, Addr, Deref, ExprStmt,
// Sizeof).
func NewUnary(kind Kind, tok token.Token, lhs *Node) *Node {
	return &Node{Kind: kind, Tok: tok, Lhs: lhs}
}

// NewBinary builds a two-child node (arithmetic, comparison, Assign).
func NewBinary(kind Kind, tok token.Token, lhs, rhs *Node) *Node {
	return &Node{Kind: kind, Tok: tok, Lhs: lhs, Rhs: rhs}
}

// Function is one parsed function: its parameters (also present in
// Locals, at the front, per spec.md §3's invariant that a function's
// local list contains every variable its parameters and declarations
// introduce), its body, and (after the layout pass) its frame size.
type Function struct {
	Name      string
	Params    []*symtab.Variable
	Body      []*Node
	Locals    []*symtab.Variable
	StackSize int // multiple of 16, assigned by the layout pass
}

// Program is the parsed translation unit: every function and every global
// (including anonymous string-literal globals), in declaration order.
type Program struct {
	Funcs   []*Function
	Globals []*symtab.Variable
}
