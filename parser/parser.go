// Package parser implements the recursive-descent parser: tokens in,
// a *ast.Program out. Grounded on parser/parser.go's peek/previous/advance/
// checkType/isMatch/consume helper shape (informatter-nilan), generalized to
// spec.md §4.4's C-subset grammar and to parse.c's exact disambiguation and
// desugaring rules (original_source) where spec.md is silent on detail.
//
// Unlike informatter-nilan's Parser, which collects a []error across the
// whole token stream before the caller decides whether to proceed, this
// parser returns on the first error: spec.md §7 requires every error to be
// fatal with no partial output, so collecting further errors a caller can
// never act on would only be extra bookkeeping.
package parser

import (
	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/ctype"
	"github.com/Hee-San/he3-c-compiler/diag"
	"github.com/Hee-San/he3-c-compiler/symtab"
	"github.com/Hee-San/he3-c-compiler/token"
)

const maxArgs = 8

// Parser holds the token stream, the read position, and the symbol table
// being built as declarations are seen.
type Parser struct {
	toks  []token.Token
	pos   int
	src   *diag.Source
	Table *symtab.Table
}

// New returns a Parser over toks, reporting diagnostics against src.
func New(src *diag.Source, toks []token.Token) *Parser {
	return &Parser{toks: toks, src: src, Table: symtab.New()}
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) peekIs(offset int, text string) bool {
	i := p.pos + offset
	if i >= len(p.toks) {
		return false
	}
	return p.toks[i].Is(text)
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.Eof }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if !p.atEOF() {
		p.pos++
	}
	return t
}

func (p *Parser) match(text string) bool {
	if p.cur().Is(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(text string) (token.Token, error) {
	if !p.cur().Is(text) {
		return token.Token{}, p.errAt(p.cur(), "'%s' expected", text)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (token.Token, error) {
	if p.cur().Kind != token.Identifier {
		return token.Token{}, p.errAt(p.cur(), "identifier required")
	}
	return p.advance(), nil
}

func (p *Parser) errAt(tok token.Token, format string, args ...any) *diag.Error {
	return diag.At(p.src, tok.Pos, format, args...)
}

// Parse consumes the whole token stream and returns the assembled program,
// or the first fatal error encountered.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.atEOF() {
		if p.startsFunction() {
			fn, err := p.function()
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
		} else {
			if err := p.globalVar(); err != nil {
				return nil, err
			}
		}
	}
	prog.Globals = p.Table.Globals
	return prog, nil
}

// startsFunction performs the non-destructive lookahead spec.md §4.4
// requires at top level: basetype ident "(" means a function follows;
// basetype ident (anything else) means a global variable does. The token
// position is always restored before returning.
func (p *Parser) startsFunction() bool {
	mark := p.pos
	defer func() { p.pos = mark }()

	if _, err := p.basetype(); err != nil {
		return false
	}
	if p.cur().Kind != token.Identifier {
		return false
	}
	p.advance()
	return p.cur().Is("(")
}

// basetype = ("int" | "char") "*"*
func (p *Parser) basetype() (*ctype.Type, error) {
	var ty *ctype.Type
	switch {
	case p.match("int"):
		ty = ctype.NewInt()
	case p.match("char"):
		ty = ctype.NewChar()
	default:
		return nil, p.errAt(p.cur(), "type name required")
	}
	for p.match("*") {
		ty = ctype.NewPtr(ty)
	}
	return ty, nil
}

// typeSuffix = ("[" num "]")*. Brackets are read outermost-first but
// wrapped innermost-first: "int a[3][4]" must describe an array of 3
// arrays of 4 ints, so the size at this bracket has to wrap whatever the
// remaining brackets build, not the other way around.
func (p *Parser) typeSuffix(base *ctype.Type) (*ctype.Type, error) {
	if !p.cur().Is("[") {
		return base, nil
	}
	p.advance()
	numTok := p.cur()
	if numTok.Kind != token.Number {
		return nil, p.errAt(numTok, "number required")
	}
	p.advance()
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	rest, err := p.typeSuffix(base)
	if err != nil {
		return nil, err
	}
	return ctype.NewArray(rest, int(numTok.IntVal)), nil
}

func (p *Parser) isBaseTypeStart() bool {
	return p.cur().Is("int") || p.cur().Is("char")
}

// globalVar = basetype ident type-suffix ";"
func (p *Parser) globalVar() error {
	ty, err := p.basetype()
	if err != nil {
		return err
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	ty, err = p.typeSuffix(ty)
	if err != nil {
		return err
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}
	p.Table.PushVar(nameTok.Text, ty, false)
	return nil
}

// function = basetype ident "(" params? ")" "{" stmt* "}"
//
// The return type is parsed (it must be present, and must be a valid
// basetype) but otherwise unused: spec.md's subset never checks a
// function's declared return type against its actual `return` values,
// matching parse.c's own behavior of discarding it after the grammar
// check.
func (p *Parser) function() (*ast.Function, error) {
	if _, err := p.basetype(); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	p.Table.ResetFunction()
	mark := p.Table.PushScope()
	defer p.Table.PopScope(mark)

	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	body, err := p.blockBody()
	if err != nil {
		return nil, err
	}

	return &ast.Function{
		Name:   nameTok.Text,
		Params: params,
		Body:   body,
		Locals: append([]*symtab.Variable{}, p.Table.Locals...),
	}, nil
}

// params = param ("," param)*
// param  = basetype ident type-suffix
func (p *Parser) params() ([]*symtab.Variable, error) {
	var params []*symtab.Variable
	if p.cur().Is(")") {
		return params, nil
	}
	for {
		ty, err := p.basetype()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		ty, err = p.typeSuffix(ty)
		if err != nil {
			return nil, err
		}
		params = append(params, p.Table.PushVar(nameTok.Text, ty, true))
		if !p.match(",") {
			break
		}
	}
	return params, nil
}

// blockBody parses statements up to and including the closing "}".
func (p *Parser) blockBody() ([]*ast.Node, error) {
	var stmts []*ast.Node
	for !p.cur().Is("}") {
		if p.atEOF() {
			return nil, p.errAt(p.cur(), "'%s' expected", "}")
		}
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance()
	return stmts, nil
}

// stmt = "return" expr ";"
//      | "if" "(" expr ")" stmt ("else" stmt)?
//      | "while" "(" expr ")" stmt
//      | "for" "(" expr? ";" expr? ";" expr? ")" stmt
//      | "{" stmt* "}"
//      | declaration
//      | expr ";"
func (p *Parser) stmt() (*ast.Node, error) {
	switch {
	case p.cur().Is("return"):
		tok := p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.Return, tok, e), nil

	case p.cur().Is("if"):
		tok := p.advance()
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		then, err := p.stmt()
		if err != nil {
			return nil, err
		}
		node := &ast.Node{Kind: ast.If, Tok: tok, Cond: cond, Then: then}
		if p.match("else") {
			els, err := p.stmt()
			if err != nil {
				return nil, err
			}
			node.Els = els
		}
		return node, nil

	case p.cur().Is("while"):
		tok := p.advance()
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		then, err := p.stmt()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.While, Tok: tok, Cond: cond, Then: then}, nil

	case p.cur().Is("for"):
		return p.forStmt()

	case p.cur().Is("{"):
		tok := p.advance()
		mark := p.Table.PushScope()
		body, err := p.blockBody()
		p.Table.PopScope(mark)
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.Block, Tok: tok, Body: body}, nil

	case p.isBaseTypeStart():
		return p.declaration()

	default:
		tok := p.cur()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.ExprStmt, tok, e), nil
	}
}

func (p *Parser) forStmt() (*ast.Node, error) {
	tok := p.advance()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	node := &ast.Node{Kind: ast.For, Tok: tok}

	if !p.cur().Is(";") {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		node.Init = ast.NewUnary(ast.ExprStmt, tok, e)
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}

	if !p.cur().Is(";") {
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		node.Cond = cond
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}

	if !p.cur().Is(")") {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		node.Inc = ast.NewUnary(ast.ExprStmt, tok, e)
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}

	then, err := p.stmt()
	if err != nil {
		return nil, err
	}
	node.Then = then
	return node, nil
}

// declaration = basetype ident type-suffix ("=" expr)? ";"
//
// An initialized declaration desugars to the variable plus an ExprStmt
// wrapping Assign(Var, rhs), per spec.md §9; an uninitialized one produces
// a Null node, since the declaration itself has no runtime effect once the
// layout pass has reserved its stack slot.
func (p *Parser) declaration() (*ast.Node, error) {
	tok := p.cur()
	ty, err := p.basetype()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	ty, err = p.typeSuffix(ty)
	if err != nil {
		return nil, err
	}
	v := p.Table.PushVar(nameTok.Text, ty, true)

	if p.match("=") {
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		assign := ast.NewBinary(ast.Assign, tok, ast.NewVar(nameTok, v), rhs)
		return ast.NewUnary(ast.ExprStmt, tok, assign), nil
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.Null, Tok: tok}, nil
}

// expr = assign
func (p *Parser) expr() (*ast.Node, error) { return p.assign() }

// assign = equality ("=" assign)?
func (p *Parser) assign() (*ast.Node, error) {
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	if p.cur().Is("=") {
		tok := p.advance()
		rhs, err := p.assign()
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(ast.Assign, tok, lhs, rhs), nil
	}
	return lhs, nil
}

// equality = relational (("==" | "!=") relational)*
func (p *Parser) equality() (*ast.Node, error) {
	lhs, err := p.relational()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.Kind
		switch {
		case p.cur().Is("=="):
			kind = ast.Eq
		case p.cur().Is("!="):
			kind = ast.Ne
		default:
			return lhs, nil
		}
		tok := p.advance()
		rhs, err := p.relational()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(kind, tok, lhs, rhs)
	}
}

// relational = add (("<" | "<=" | ">" | ">=") add)*
//
// ">" and ">=" are normalized by swapping operands into "<" and "<=": the
// resolver and codegen only ever need to implement the latter two.
func (p *Parser) relational() (*ast.Node, error) {
	lhs, err := p.add()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur().Is("<"):
			tok := p.advance()
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			lhs = ast.NewBinary(ast.Lt, tok, lhs, rhs)
		case p.cur().Is("<="):
			tok := p.advance()
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			lhs = ast.NewBinary(ast.Le, tok, lhs, rhs)
		case p.cur().Is(">"):
			tok := p.advance()
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			lhs = ast.NewBinary(ast.Lt, tok, rhs, lhs)
		case p.cur().Is(">="):
			tok := p.advance()
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			lhs = ast.NewBinary(ast.Le, tok, rhs, lhs)
		default:
			return lhs, nil
		}
	}
}

// add = mul (("+" | "-") mul)*
func (p *Parser) add() (*ast.Node, error) {
	lhs, err := p.mul()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.Kind
		switch {
		case p.cur().Is("+"):
			kind = ast.Add
		case p.cur().Is("-"):
			kind = ast.Sub
		default:
			return lhs, nil
		}
		tok := p.advance()
		rhs, err := p.mul()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(kind, tok, lhs, rhs)
	}
}

// mul = unary (("*" | "/") unary)*
func (p *Parser) mul() (*ast.Node, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.Kind
		switch {
		case p.cur().Is("*"):
			kind = ast.Mul
		case p.cur().Is("/"):
			kind = ast.Div
		default:
			return lhs, nil
		}
		tok := p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(kind, tok, lhs, rhs)
	}
}

// unary = "+" unary | "-" unary | "*" unary | "&" unary | postfix
//
// The AST has no dedicated unary-plus or unary-minus node (spec.md §3 lists
// only Addr/Deref as the unary kinds): "+x" parses to x unchanged, and
// "-x" desugars to Sub(Num(0), x), exactly as the source compiler's
// codegen.c treats them.
func (p *Parser) unary() (*ast.Node, error) {
	switch {
	case p.cur().Is("+"):
		p.advance()
		return p.unary()
	case p.cur().Is("-"):
		tok := p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(ast.Sub, tok, ast.NewNum(tok, 0), rhs), nil
	case p.cur().Is("*"):
		tok := p.advance()
		lhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.Deref, tok, lhs), nil
	case p.cur().Is("&"):
		tok := p.advance()
		lhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.Addr, tok, lhs), nil
	default:
		return p.postfix()
	}
}

// postfix = primary ("[" expr "]")*
//
// "a[i]" is sugar for "*(a + i)": postfix folds each bracket into a Deref
// of an Add, so the resolver's pointer-arithmetic rules handle indexing
// for free.
func (p *Parser) postfix() (*ast.Node, error) {
	node, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.cur().Is("[") {
		tok := p.advance()
		idx, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		node = ast.NewUnary(ast.Deref, tok, ast.NewBinary(ast.Add, tok, node, idx))
	}
	return node, nil
}

// primary = "(" "{" stmt+ "}" ")"
//         | "(" expr ")"
//         | "sizeof" unary
//         | ident ("(" args? ")")?
//         | str
//         | num
func (p *Parser) primary() (*ast.Node, error) {
	tok := p.cur()

	switch {
	case tok.Is("(") && p.peekIs(1, "{"):
		p.advance()
		p.advance()
		mark := p.Table.PushScope()
		body, err := p.blockBody()
		p.Table.PopScope(mark)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 || body[len(body)-1].Kind != ast.ExprStmt {
			return nil, p.errAt(tok, "statement expression must end in an expression statement")
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.StmtExpr, Tok: tok, Body: body}, nil

	case tok.Is("("):
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return e, nil

	case tok.Is("sizeof"):
		p.advance()
		lhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.Sizeof, tok, lhs), nil

	case tok.Kind == token.Number:
		p.advance()
		return ast.NewNum(tok, tok.IntVal), nil

	case tok.Kind == token.String:
		p.advance()
		v := p.Table.PushStringLiteral(tok.StrVal)
		return ast.NewVar(tok, v), nil

	case tok.Kind == token.Identifier:
		p.advance()
		if p.cur().Is("(") {
			p.advance()
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			if len(args) > maxArgs {
				return nil, p.errAt(tok, "too many arguments (max %d)", maxArgs)
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return &ast.Node{Kind: ast.FunCall, Tok: tok, FuncName: tok.Text, Args: args}, nil
		}
		v, ok := p.Table.Find(tok.Text)
		if !ok {
			return nil, p.errAt(tok, "undefined variable")
		}
		return ast.NewVar(tok, v), nil

	default:
		return nil, p.errAt(tok, "expression required")
	}
}

// args = assign ("," assign)*
func (p *Parser) args() ([]*ast.Node, error) {
	var args []*ast.Node
	if p.cur().Is(")") {
		return args, nil
	}
	for {
		a, err := p.assign()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.match(",") {
			break
		}
	}
	return args, nil
}
