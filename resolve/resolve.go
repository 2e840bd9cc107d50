// Package resolve is the type resolver: a post-order walk over the parsed
// AST that attaches a *ctype.Type to every expression node and applies
// spec.md §4.5's pointer-arithmetic canonicalization rules. Grounded on
// type.c's add_type/visit (original_source), generalized to Go by having
// each expression-resolving method return the node that should replace it
// in its parent, rather than mutating nodes in place — the Sizeof → Num
// constant fold needs exactly this shape (a fresh node, re-pointed into the
// parent) per spec.md §9.
package resolve

import (
	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/ctype"
	"github.com/Hee-San/he3-c-compiler/diag"
)

// Resolver walks one translation unit, reporting diagnostics against src.
type Resolver struct {
	src *diag.Source
}

// New returns a Resolver reporting diagnostics against src.
func New(src *diag.Source) *Resolver {
	return &Resolver{src: src}
}

func (r *Resolver) errAt(n *ast.Node, format string, args ...any) *diag.Error {
	return diag.At(r.src, n.Tok.Pos, format, args...)
}

// Program resolves every function body in prog. Global variable types are
// already complete from parsing (declarations carry an explicit basetype),
// so only expressions need a resolving pass.
func (r *Resolver) Program(prog *ast.Program) error {
	for _, fn := range prog.Funcs {
		for i, stmt := range fn.Body {
			resolved, err := r.stmt(stmt)
			if err != nil {
				return err
			}
			fn.Body[i] = resolved
		}
	}
	return nil
}

// stmt resolves a statement node, returning the node that should replace it
// in its parent (statements are never constant-folded, so in practice this
// is always the same pointer, mirroring the expr/Sizeof split below).
func (r *Resolver) stmt(n *ast.Node) (*ast.Node, error) {
	switch n.Kind {
	case ast.Null:
		return n, nil

	case ast.Return, ast.ExprStmt:
		e, err := r.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		n.Lhs = e
		return n, nil

	case ast.If:
		cond, err := r.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		n.Cond = cond
		then, err := r.stmt(n.Then)
		if err != nil {
			return nil, err
		}
		n.Then = then
		if n.Els != nil {
			els, err := r.stmt(n.Els)
			if err != nil {
				return nil, err
			}
			n.Els = els
		}
		return n, nil

	case ast.While:
		cond, err := r.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		n.Cond = cond
		then, err := r.stmt(n.Then)
		if err != nil {
			return nil, err
		}
		n.Then = then
		return n, nil

	case ast.For:
		if n.Init != nil {
			init, err := r.stmt(n.Init)
			if err != nil {
				return nil, err
			}
			n.Init = init
		}
		if n.Cond != nil {
			cond, err := r.expr(n.Cond)
			if err != nil {
				return nil, err
			}
			n.Cond = cond
		}
		if n.Inc != nil {
			inc, err := r.stmt(n.Inc)
			if err != nil {
				return nil, err
			}
			n.Inc = inc
		}
		then, err := r.stmt(n.Then)
		if err != nil {
			return nil, err
		}
		n.Then = then
		return n, nil

	case ast.Block:
		for i, child := range n.Body {
			resolved, err := r.stmt(child)
			if err != nil {
				return nil, err
			}
			n.Body[i] = resolved
		}
		return n, nil

	default:
		return nil, r.errAt(n, "internal: %s is not a statement", n.Kind)
	}
}

// expr resolves an expression node and returns the node that should take
// its place in the parent — identical to n for every kind except Sizeof,
// which constant-folds to a fresh Num leaf.
func (r *Resolver) expr(n *ast.Node) (*ast.Node, error) {
	switch n.Kind {
	case ast.Num:
		n.Ty = ctype.NewInt()
		return n, nil

	case ast.VarRef:
		n.Ty = n.Var.Ty
		return n, nil

	case ast.Assign:
		lhs, err := r.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := r.expr(n.Rhs)
		if err != nil {
			return nil, err
		}
		n.Lhs, n.Rhs = lhs, rhs
		n.Ty = lhs.Ty
		return n, nil

	case ast.Addr:
		lhs, err := r.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		n.Lhs = lhs
		if lhs.Ty.Kind == ctype.Array {
			n.Ty = ctype.NewPtr(lhs.Ty.Base)
		} else {
			n.Ty = ctype.NewPtr(lhs.Ty)
		}
		return n, nil

	case ast.Deref:
		lhs, err := r.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		n.Lhs = lhs
		if !lhs.Ty.IsPointerLike() {
			return nil, r.errAt(n, "invalid pointer dereference")
		}
		n.Ty = lhs.Ty.Base
		return n, nil

	case ast.Sizeof:
		lhs, err := r.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		folded := ast.NewNum(n.Tok, int64(lhs.Ty.SizeOf()))
		folded.Ty = ctype.NewInt()
		return folded, nil

	case ast.Add:
		return r.add(n)

	case ast.Sub:
		return r.sub(n)

	case ast.Mul, ast.Div:
		return r.arith(n)

	case ast.Eq, ast.Ne, ast.Lt, ast.Le:
		lhs, err := r.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := r.expr(n.Rhs)
		if err != nil {
			return nil, err
		}
		n.Lhs, n.Rhs = lhs, rhs
		n.Ty = ctype.NewInt()
		return n, nil

	case ast.StmtExpr:
		for i, child := range n.Body {
			resolved, err := r.stmt(child)
			if err != nil {
				return nil, err
			}
			n.Body[i] = resolved
		}
		n.Ty = n.Body[len(n.Body)-1].Lhs.Ty
		return n, nil

	case ast.FunCall:
		for i, a := range n.Args {
			resolved, err := r.expr(a)
			if err != nil {
				return nil, err
			}
			n.Args[i] = resolved
		}
		n.Ty = ctype.NewInt()
		return n, nil

	default:
		return nil, r.errAt(n, "internal: %s is not an expression", n.Kind)
	}
}

// arith resolves a plain arithmetic node (* or /), which spec.md §4.5 never
// allows on pointer operands.
func (r *Resolver) arith(n *ast.Node) (*ast.Node, error) {
	lhs, err := r.expr(n.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := r.expr(n.Rhs)
	if err != nil {
		return nil, err
	}
	if lhs.Ty.IsPointerLike() || rhs.Ty.IsPointerLike() {
		return nil, r.errAt(n, "invalid operands")
	}
	n.Lhs, n.Rhs = lhs, rhs
	n.Ty = ctype.NewInt()
	return n, nil
}

// add resolves "+", canonicalizing "int + ptr" to "ptr + int" (spec.md
// §4.5) so the code generator only ever scales its right operand.
func (r *Resolver) add(n *ast.Node) (*ast.Node, error) {
	lhs, err := r.expr(n.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := r.expr(n.Rhs)
	if err != nil {
		return nil, err
	}
	if !lhs.Ty.IsPointerLike() && rhs.Ty.IsPointerLike() {
		lhs, rhs = rhs, lhs
	}
	if lhs.Ty.IsPointerLike() && rhs.Ty.IsPointerLike() {
		return nil, r.errAt(n, "invalid operands")
	}
	n.Lhs, n.Rhs = lhs, rhs
	if lhs.Ty.IsPointerLike() {
		n.Ty = ctype.NewPtr(lhs.Ty.Base)
	} else {
		n.Ty = ctype.NewInt()
	}
	return n, nil
}

// sub resolves "-": fatal whenever rhs is pointer-like (no ptr-ptr
// subtraction, no int-ptr), ptr-int yields a pointer, int-int yields an Int.
func (r *Resolver) sub(n *ast.Node) (*ast.Node, error) {
	lhs, err := r.expr(n.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := r.expr(n.Rhs)
	if err != nil {
		return nil, err
	}
	n.Lhs, n.Rhs = lhs, rhs

	if rhs.Ty.IsPointerLike() {
		return nil, r.errAt(n, "invalid operands")
	}
	if lhs.Ty.IsPointerLike() {
		n.Ty = ctype.NewPtr(lhs.Ty.Base)
	} else {
		n.Ty = ctype.NewInt()
	}
	return n, nil
}
