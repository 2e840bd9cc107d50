// Package codegen lowers a resolved *ast.Program directly to AArch64
// assembly text (GNU assembler dialect, AAPCS64), with no intermediate
// representation: one switch over Kind per expression, one over statement
// kinds for control flow, a stack-machine discipline for combining
// subexpressions, and a single prologue/epilogue pair per function.
// Grounded on codegen.c (original_source) and, for the instruction-emission
// style (one method per opcode, writing straight to an io.Writer),
// compiler/code.go (informatter-nilan).
package codegen

import (
	"fmt"
	"io"

	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/ctype"
	"github.com/Hee-San/he3-c-compiler/diag"
	"github.com/Hee-San/he3-c-compiler/symtab"
)

const maxArgs = 8

// argRegs64/argRegs32 are the AAPCS64 integer argument registers, widest
// and 32-bit forms, indexed by argument position.
var argRegs64 = [maxArgs]string{"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7"}
var argRegs32 = [maxArgs]string{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7"}

// errWriter collects the first write error so every emission call can stay
// a plain, unchecked-looking statement; Program() surfaces it at the end.
// Wrapping every Fprintf's error check individually would bury the
// instruction sequence this package exists to make readable, and nothing
// in the example pack is a dependency whose whole job is "buffer writes,
// remember the first error" — there's no third-party concern to wire here.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Generator emits assembly for one translation unit.
type Generator struct {
	out      *errWriter
	src      *diag.Source
	labelSeq int
	curFunc  string
	depth    Depth
}

// New returns a Generator writing to w, reporting internal diagnostics
// against src.
func New(w io.Writer, src *diag.Source) *Generator {
	return &Generator{out: &errWriter{w: w}, src: src}
}

func (g *Generator) errAt(n *ast.Node, format string, args ...any) *diag.Error {
	return diag.At(g.src, n.Tok.Pos, format, args...)
}

func (g *Generator) newLabel() int {
	g.labelSeq++
	return g.labelSeq
}

// StackDepth reports the net push/pop imbalance tracked while generating
// the current or most recently generated function — tests use it to assert
// every expression leaves the hardware stack exactly as it found it.
func (g *Generator) StackDepth() int { return g.depth.Net() }

func (g *Generator) push() {
	g.out.printf("\tstr x0, [sp, -16]!\n")
	g.depth.Push()
}

func (g *Generator) pop(reg string) {
	g.out.printf("\tldr %s, [sp], 16\n", reg)
	g.depth.Pop()
}

// Program emits .data for every global (string-literal contents verbatim,
// zero-filled storage otherwise) followed by .text for every function.
func (g *Generator) Program(prog *ast.Program) error {
	g.out.printf(".data\n")
	for _, v := range prog.Globals {
		g.emitGlobal(v)
	}

	g.out.printf(".text\n")
	for _, fn := range prog.Funcs {
		if err := g.function(fn); err != nil {
			return err
		}
	}
	return g.out.err
}

func (g *Generator) emitGlobal(v *symtab.Variable) {
	g.out.printf(".globl .L.%s\n", v.Name)
	g.out.printf(".L.%s:\n", v.Name)
	if v.Data == nil {
		g.out.printf("\t.zero %d\n", v.Ty.SizeOf())
		return
	}
	for _, b := range v.Data {
		g.out.printf("\t.byte %d\n", b)
	}
}

// function emits one function's prologue, parameter spill, body, and
// epilogue.
func (g *Generator) function(fn *ast.Function) error {
	if len(fn.Params) > maxArgs {
		return diag.Errorf("function %s has too many parameters (max %d)", fn.Name, maxArgs)
	}

	g.curFunc = fn.Name
	g.depth = Depth{}

	g.out.printf(".globl %s\n", fn.Name)
	g.out.printf("%s:\n", fn.Name)
	g.out.printf("\tstp x29, x30, [sp, -16]!\n")
	g.out.printf("\tmov x29, sp\n")
	if fn.StackSize > 0 {
		g.out.printf("\tsub sp, sp, #%d\n", fn.StackSize)
	}

	for i, p := range fn.Params {
		if p.Ty.Kind == ctype.Char {
			g.out.printf("\tstrb %s, [x29, #-%d]\n", argRegs32[i], p.Offset)
		} else {
			g.out.printf("\tstr %s, [x29, #-%d]\n", argRegs64[i], p.Offset)
		}
	}

	for _, stmt := range fn.Body {
		if err := g.stmt(stmt); err != nil {
			return err
		}
	}

	g.out.printf(".L.return.%s:\n", fn.Name)
	g.out.printf("\tmov sp, x29\n")
	g.out.printf("\tldp x29, x30, [sp], 16\n")
	g.out.printf("\tret\n")
	return g.out.err
}

// genAddr computes an lvalue's address into x0.
func (g *Generator) genAddr(n *ast.Node) error {
	switch n.Kind {
	case ast.VarRef:
		if n.Var.IsLocal {
			g.out.printf("\tsub x0, x29, #%d\n", n.Var.Offset)
		} else {
			g.out.printf("\tadrp x0, .L.%s\n", n.Var.Name)
			g.out.printf("\tadd x0, x0, :lo12:.L.%s\n", n.Var.Name)
		}
		return nil
	case ast.Deref:
		return g.expr(n.Lhs)
	default:
		return g.errAt(n, "lvalue required")
	}
}

// load reads ty-sized value from the address currently in x0, replacing x0
// with the loaded value. Arrays never load: using an array decays to its
// own address, which is already what genAddr produced.
func (g *Generator) load(ty *ctype.Type) {
	if ty.Kind == ctype.Array {
		return
	}
	if ty.Kind == ctype.Char {
		g.out.printf("\tldrsb x0, [x0]\n")
		return
	}
	g.out.printf("\tldr x0, [x0]\n")
}

// store writes x0 to the address just below it on the stack (pushed by the
// caller before evaluating the right-hand side), leaving the stored value
// in x0.
func (g *Generator) store(ty *ctype.Type) {
	g.pop("x1")
	if ty.Kind == ctype.Char {
		g.out.printf("\tstrb w0, [x1]\n")
	} else {
		g.out.printf("\tstr x0, [x1]\n")
	}
}

// expr emits code that leaves n's value in x0.
func (g *Generator) expr(n *ast.Node) error {
	switch n.Kind {
	case ast.Num:
		g.out.printf("\tmov x0, #%d\n", n.Val)
		return nil

	case ast.VarRef:
		if err := g.genAddr(n); err != nil {
			return err
		}
		g.load(n.Ty)
		return nil

	case ast.Addr:
		return g.genAddr(n.Lhs)

	case ast.Deref:
		if err := g.expr(n.Lhs); err != nil {
			return err
		}
		g.load(n.Ty)
		return nil

	case ast.Assign:
		if err := g.genAddr(n.Lhs); err != nil {
			return err
		}
		g.push()
		if err := g.expr(n.Rhs); err != nil {
			return err
		}
		g.store(n.Ty)
		return nil

	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Eq, ast.Ne, ast.Lt, ast.Le:
		return g.binary(n)

	case ast.FunCall:
		return g.call(n)

	case ast.StmtExpr:
		for i, child := range n.Body {
			if i == len(n.Body)-1 {
				return g.expr(child.Lhs) // last statement is always ExprStmt
			}
			if err := g.stmt(child); err != nil {
				return err
			}
		}
		return nil

	default:
		return g.errAt(n, "internal: %s cannot be generated as an expression", n.Kind)
	}
}

// binary evaluates both operands (left first, pushed, then right), pops the
// left back into x1, and combines them — scaling pointer arithmetic by the
// pointee's size where the resolver's canonicalization left a pointer type
// on the node.
func (g *Generator) binary(n *ast.Node) error {
	if err := g.expr(n.Lhs); err != nil {
		return err
	}
	g.push()
	if err := g.expr(n.Rhs); err != nil {
		return err
	}
	g.pop("x1") // x1 = lhs, x0 = rhs

	switch n.Kind {
	case ast.Add:
		if n.Lhs.Ty.IsPointerLike() {
			g.scale(n.Lhs.Ty.Base.SizeOf())
		}
		g.out.printf("\tadd x0, x1, x0\n")
	case ast.Sub:
		// The resolver rejects any Sub whose rhs is pointer-like, so the
		// only pointer-arithmetic case left here is ptr - int.
		if n.Lhs.Ty.IsPointerLike() {
			g.scale(n.Lhs.Ty.Base.SizeOf())
		}
		g.out.printf("\tsub x0, x1, x0\n")
	case ast.Mul:
		g.out.printf("\tmul x0, x1, x0\n")
	case ast.Div:
		g.out.printf("\tsdiv x0, x1, x0\n")
	case ast.Eq:
		g.out.printf("\tcmp x1, x0\n\tcset x0, eq\n")
	case ast.Ne:
		g.out.printf("\tcmp x1, x0\n\tcset x0, ne\n")
	case ast.Lt:
		g.out.printf("\tcmp x1, x0\n\tcset x0, lt\n")
	case ast.Le:
		g.out.printf("\tcmp x1, x0\n\tcset x0, le\n")
	default:
		return g.errAt(n, "internal: %s is not a binary operator", n.Kind)
	}
	return nil
}

// scale multiplies x0 by size (pointer arithmetic scaling). size is the
// pointee's full byte size: 1 or 8 for scalars, larger for an element of a
// nested array; the multiply form handles any size without requiring it to
// be a power of two.
func (g *Generator) scale(size int) {
	if size == 1 {
		return
	}
	g.out.printf("\tmov x2, #%d\n\tmul x0, x0, x2\n", size)
}

// call evaluates every argument, pushing each result so later arguments
// don't clobber earlier ones still living in x0, then pops them back into
// the argument registers in reverse order before branching.
func (g *Generator) call(n *ast.Node) error {
	// n.Args is already bounded to maxArgs by the parser; codegen only
	// needs to know the register layout stops there.
	for _, a := range n.Args {
		if err := g.expr(a); err != nil {
			return err
		}
		g.push()
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		g.pop(argRegs64[i])
	}
	g.out.printf("\tbl %s\n", n.FuncName)
	return nil
}

// stmt emits a statement, whose value (if any) is always discarded.
func (g *Generator) stmt(n *ast.Node) error {
	switch n.Kind {
	case ast.Null:
		return nil

	case ast.ExprStmt:
		return g.expr(n.Lhs)

	case ast.Return:
		if err := g.expr(n.Lhs); err != nil {
			return err
		}
		g.out.printf("\tb .L.return.%s\n", g.curFunc)
		return nil

	case ast.Block:
		for _, child := range n.Body {
			if err := g.stmt(child); err != nil {
				return err
			}
		}
		return nil

	case ast.If:
		return g.ifStmt(n)

	case ast.While:
		return g.whileStmt(n)

	case ast.For:
		return g.forStmt(n)

	default:
		return g.errAt(n, "internal: %s is not a statement", n.Kind)
	}
}

func (g *Generator) ifStmt(n *ast.Node) error {
	label := g.newLabel()
	if err := g.expr(n.Cond); err != nil {
		return err
	}
	g.out.printf("\tcmp x0, #0\n")
	if n.Els == nil {
		g.out.printf("\tb.eq .L.if.end.%d\n", label)
		if err := g.stmt(n.Then); err != nil {
			return err
		}
		g.out.printf(".L.if.end.%d:\n", label)
		return nil
	}
	g.out.printf("\tb.eq .L.if.else.%d\n", label)
	if err := g.stmt(n.Then); err != nil {
		return err
	}
	g.out.printf("\tb .L.if.end.%d\n", label)
	g.out.printf(".L.if.else.%d:\n", label)
	if err := g.stmt(n.Els); err != nil {
		return err
	}
	g.out.printf(".L.if.end.%d:\n", label)
	return nil
}

func (g *Generator) whileStmt(n *ast.Node) error {
	label := g.newLabel()
	g.out.printf(".L.while.begin.%d:\n", label)
	if err := g.expr(n.Cond); err != nil {
		return err
	}
	g.out.printf("\tcmp x0, #0\n\tb.eq .L.while.end.%d\n", label)
	if err := g.stmt(n.Then); err != nil {
		return err
	}
	g.out.printf("\tb .L.while.begin.%d\n", label)
	g.out.printf(".L.while.end.%d:\n", label)
	return nil
}

func (g *Generator) forStmt(n *ast.Node) error {
	label := g.newLabel()
	if n.Init != nil {
		if err := g.stmt(n.Init); err != nil {
			return err
		}
	}
	g.out.printf(".L.for.begin.%d:\n", label)
	if n.Cond != nil {
		if err := g.expr(n.Cond); err != nil {
			return err
		}
		g.out.printf("\tcmp x0, #0\n\tb.eq .L.for.end.%d\n", label)
	}
	if err := g.stmt(n.Then); err != nil {
		return err
	}
	if n.Inc != nil {
		if err := g.stmt(n.Inc); err != nil {
			return err
		}
	}
	g.out.printf("\tb .L.for.begin.%d\n", label)
	g.out.printf(".L.for.end.%d:\n", label)
	return nil
}
