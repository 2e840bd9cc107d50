// Package symtab tracks local and global variables and the lexical scope
// chain during parsing. Grounded on interpreter/environment.go's
// name->binding map (informatter-nilan) and parse.c's VarList/scope
// discipline (original_source), generalized to spec.md §4.3's three-table
// model: local_vars, global_vars and scope_vars.
package symtab

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/Hee-San/he3-c-compiler/ctype"
)

// Variable is a single local or global binding. Offset is meaningless for
// globals (always 0) until the layout pass fills it in for locals.
type Variable struct {
	Name    string
	Ty      *ctype.Type
	IsLocal bool
	Offset  int    // from x29, locals only; assigned by the layout pass
	Data    []byte // string-literal contents, globals only; nil otherwise
}

// Table is the parser's variable-binding context. Unlike the source
// compiler's module-level globals, it is an explicit object threaded
// through the parser (spec.md §9's recommendation).
type Table struct {
	// Locals holds every local variable introduced in the function
	// currently being parsed, in declaration order. Never rewound; the
	// layout pass walks it in this same order to assign stack offsets.
	Locals []*Variable

	// Globals holds every global variable and every anonymous
	// string-literal global ever introduced, in declaration order. Never
	// rewound.
	Globals []*Variable

	// scopeVars is the stack of variables visible at the current parse
	// position. PushScope/PopScope bracket a lexical scope by
	// remembering and restoring its length; shadowing falls out of
	// searching from the most recently pushed entry backward.
	scopeVars []*Variable

	labelSeq int
}

// New returns an empty Table ready to parse one function's locals plus the
// program's globals.
func New() *Table {
	return &Table{}
}

// ResetFunction clears Locals and the scope chain so the table can be
// reused for the next function; Globals persists across the whole program.
func (t *Table) ResetFunction() {
	t.Locals = nil
	t.scopeVars = nil
}

// PushScope opens a new lexical scope, returning a mark to pass to
// PopScope.
func (t *Table) PushScope() int {
	return len(t.scopeVars)
}

// PopScope closes the scope opened at mark, discarding any bindings
// introduced since then. Declarations made inside the scope remain in
// Locals/Globals — only their visibility is undone.
func (t *Table) PopScope(mark int) {
	t.scopeVars = t.scopeVars[:mark]
}

// PushVar declares a new variable of the given name/type. Locals are also
// pushed onto the current lexical scope, so they stop being visible once
// ResetFunction or a PopScope undoes that scope; globals are never placed
// in scopeVars; they live in Globals for the whole program and Find falls
// back to them once the scope chain comes up empty, which is exactly how
// they stay visible across every function despite ResetFunction clearing
// scopeVars between functions.
func (t *Table) PushVar(name string, ty *ctype.Type, isLocal bool) *Variable {
	v := &Variable{Name: name, Ty: ty, IsLocal: isLocal}
	if isLocal {
		t.Locals = append(t.Locals, v)
		t.scopeVars = append(t.scopeVars, v)
	} else {
		t.Globals = append(t.Globals, v)
	}
	return v
}

// PushStringLiteral synthesizes an anonymous global for a string literal's
// decoded bytes: name "data.<N>" (N monotonically increasing), type
// char[len(decoded)], contents decoded. It is not placed in any scope —
// string literals are referenced directly by the AST node that produced
// them, never looked up by name.
func (t *Table) PushStringLiteral(decoded []byte) *Variable {
	name := fmt.Sprintf("data.%d", t.labelSeq)
	t.labelSeq++
	v := &Variable{
		Name: name,
		Ty:   ctype.NewArray(ctype.NewChar(), len(decoded)),
		Data: decoded,
	}
	t.Globals = append(t.Globals, v)
	return v
}

// Find searches the currently visible scope chain for name, most-recently
// declared first (so an inner declaration shadows an outer one), falling
// back to the global table if no local or parameter matches.
func (t *Table) Find(name string) (*Variable, bool) {
	for i := len(t.scopeVars) - 1; i >= 0; i-- {
		if t.scopeVars[i].Name == name {
			return t.scopeVars[i], true
		}
	}
	for i := len(t.Globals) - 1; i >= 0; i-- {
		if t.Globals[i].Name == name {
			return t.Globals[i], true
		}
	}
	return nil, false
}

// LocalNames returns the names of every local ever declared in the current
// function, in declaration order — used by diagnostics and tests that want
// a cheap summary without walking *Variable pointers.
func (t *Table) LocalNames() []string {
	return lo.Map(t.Locals, func(v *Variable, _ int) string { return v.Name })
}
