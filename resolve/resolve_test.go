package resolve

import (
	"testing"

	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/ctype"
	"github.com/Hee-San/he3-c-compiler/diag"
	"github.com/Hee-San/he3-c-compiler/lexer"
	"github.com/Hee-San/he3-c-compiler/parser"
)

func resolveSource(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	s := diag.NewSource("test.c", []byte(src))
	toks, err := lexer.New(s).Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	prog, err := parser.New(s, toks).Parse()
	if err != nil {
		t.Fatalf("Parse() raised an error: %v", err)
	}
	return prog, New(s).Program(prog)
}

func mustResolve(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := resolveSource(t, src)
	if err != nil {
		t.Fatalf("Program(%q) raised an error: %v", src, err)
	}
	return prog
}

func TestNumAndVarTypes(t *testing.T) {
	prog := mustResolve(t, "int main() { int x; return x; }\n")
	ret := prog.Funcs[0].Body[1]
	if ret.Lhs.Ty.Kind != ctype.Int {
		t.Errorf("return expr type = %v, want Int", ret.Lhs.Ty.Kind)
	}
}

func TestSizeofFoldsToNum(t *testing.T) {
	prog := mustResolve(t, "int main() { return sizeof(1); }\n")
	ret := prog.Funcs[0].Body[0]
	if ret.Lhs.Kind != ast.Num || ret.Lhs.Val != 8 {
		t.Fatalf("sizeof(int) = %v(%d), want Num(8)", ret.Lhs.Kind, ret.Lhs.Val)
	}
}

func TestSizeofCharFoldsToOne(t *testing.T) {
	prog := mustResolve(t, "int main() { char c; return sizeof(c); }\n")
	ret := prog.Funcs[0].Body[1]
	if ret.Lhs.Kind != ast.Num || ret.Lhs.Val != 1 {
		t.Fatalf("sizeof(char) = %v(%d), want Num(1)", ret.Lhs.Kind, ret.Lhs.Val)
	}
}

func TestPointerArithmeticCanonicalization(t *testing.T) {
	// "1 + p" should canonicalize to ptr + int, with pointer type surviving.
	prog := mustResolve(t, "int main() { int *p; return 1 + p; }\n")
	ret := prog.Funcs[0].Body[1]
	add := ret.Lhs
	if add.Ty.Kind != ctype.Ptr {
		t.Fatalf("(1 + p) type = %v, want Ptr", add.Ty.Kind)
	}
	if add.Lhs.Kind != ast.VarRef {
		t.Errorf("after canonicalization, Lhs should be the pointer operand, got %v", add.Lhs.Kind)
	}
}

func TestPointerMinusPointerIsInvalid(t *testing.T) {
	_, err := resolveSource(t, "int main() { int *p; int *q; return p - q; }\n")
	if err == nil {
		t.Fatal("expected an error for pointer - pointer")
	}
}

func TestIntMinusPointerIsInvalid(t *testing.T) {
	_, err := resolveSource(t, "int main() { int *p; return 1 - p; }\n")
	if err == nil {
		t.Fatal("expected an error for int - pointer")
	}
}

func TestPointerPlusPointerIsInvalid(t *testing.T) {
	_, err := resolveSource(t, "int main() { int *p; int *q; return p + q; }\n")
	if err == nil {
		t.Fatal("expected an error for pointer + pointer")
	}
}

func TestMulWithPointerIsInvalid(t *testing.T) {
	_, err := resolveSource(t, "int main() { int *p; return p * 2; }\n")
	if err == nil {
		t.Fatal("expected an error for pointer * int")
	}
}

func TestArrayDecaysToElementPointerInArithmetic(t *testing.T) {
	prog := mustResolve(t, "int main() { int a[3]; return *(a+1); }\n")
	ret := prog.Funcs[0].Body[1]
	deref := ret.Lhs
	if deref.Ty.Kind != ctype.Int {
		t.Errorf("*(a+1) type = %v, want Int", deref.Ty.Kind)
	}
	add := deref.Lhs
	if add.Ty.Kind != ctype.Ptr {
		t.Fatalf("(a+1) type = %v, want Ptr", add.Ty.Kind)
	}
}

func TestDerefOfNonPointerIsInvalid(t *testing.T) {
	_, err := resolveSource(t, "int main() { int x; return *x; }\n")
	if err == nil {
		t.Fatal("expected an error for dereferencing a non-pointer")
	}
}

func TestFunCallIsAlwaysInt(t *testing.T) {
	prog := mustResolve(t, "int f() { return 1; } int main() { return f(); }\n")
	ret := prog.Funcs[1].Body[0]
	if ret.Lhs.Ty.Kind != ctype.Int {
		t.Errorf("call result type = %v, want Int", ret.Lhs.Ty.Kind)
	}
}

func TestStmtExprTypeIsLastExpression(t *testing.T) {
	prog := mustResolve(t, "int main() { char c; return ({ c; }); }\n")
	ret := prog.Funcs[0].Body[1]
	if ret.Lhs.Ty.Kind != ctype.Char {
		t.Errorf("stmt expr type = %v, want Char (the last expression's type)", ret.Lhs.Ty.Kind)
	}
}
