// Package layout assigns stack-frame offsets to every local variable and
// the resulting frame size to every function. Spec.md treats this pass as
// external to the core lexer/parser/resolver/codegen budget, but it is
// still a required, independently testable step of a working compiler:
// without it the code generator would have nowhere to put a local.
// Grounded on main.c's offset-assignment loop (original_source).
package layout

import (
	"github.com/samber/lo"

	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/symtab"
)

// frameAlign is the AAPCS64 stack-alignment requirement: every function's
// frame size must be a multiple of 16 bytes.
const frameAlign = 16

// Assign walks every function in prog, giving each local variable an
// Offset (bytes below the frame pointer x29, so a local's address is
// "x29 - Offset") in declaration order, and setting the function's
// StackSize to the total rounded up to a 16-byte multiple.
func Assign(prog *ast.Program) {
	for _, fn := range prog.Funcs {
		total := lo.Reduce(fn.Locals, func(offset int, v *symtab.Variable, _ int) int {
			offset += v.Ty.SizeOf()
			v.Offset = offset
			return offset
		}, 0)
		fn.StackSize = alignTo(total, frameAlign)
	}
}

func alignTo(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
