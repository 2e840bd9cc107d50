package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/diag"
	"github.com/Hee-San/he3-c-compiler/layout"
	"github.com/Hee-San/he3-c-compiler/lexer"
	"github.com/Hee-San/he3-c-compiler/parser"
	"github.com/Hee-San/he3-c-compiler/resolve"
)

func compile(t *testing.T, src string) (*ast.Program, string) {
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
	if err := resolve.New(s).Program(prog); err != nil {
		t.Fatalf("Program() raised an error: %v", err)
	}
	layout.Assign(prog)

	var buf bytes.Buffer
	if err := New(&buf, s).Program(prog); err != nil {
		t.Fatalf("codegen Program() raised an error: %v", err)
	}
	return prog, buf.String()
}

func TestEmptyFunctionStackNeutral(t *testing.T) {
	var buf bytes.Buffer
	prog, _ := compile(t, "int main() { return 0; }\n")
	s := diag.NewSource("test.c", nil)
	g := New(&buf, s)
	for _, fn := range prog.Funcs {
		if err := g.function(fn); err != nil {
			t.Fatalf("function() raised an error: %v", err)
		}
		if g.StackDepth() != 0 {
			t.Errorf("%s: net stack depth = %d, want 0", fn.Name, g.StackDepth())
		}
	}
}

func TestArithmeticStackNeutral(t *testing.T) {
	var buf bytes.Buffer
	prog, _ := compile(t, "int main() { return 1+2*3-4/2+(5-6); }\n")
	s := diag.NewSource("test.c", nil)
	g := New(&buf, s)
	for _, fn := range prog.Funcs {
		if err := g.function(fn); err != nil {
			t.Fatalf("function() raised an error: %v", err)
		}
		if g.StackDepth() != 0 {
			t.Errorf("net stack depth = %d, want 0", g.StackDepth())
		}
	}
}

func TestFunctionCallStackNeutral(t *testing.T) {
	var buf bytes.Buffer
	prog, _ := compile(t, "int add(int a, int b) { return a+b; } int main() { return add(1,2)+add(3,4); }\n")
	s := diag.NewSource("test.c", nil)
	g := New(&buf, s)
	for _, fn := range prog.Funcs {
		if err := g.function(fn); err != nil {
			t.Fatalf("function() raised an error: %v", err)
		}
		if g.StackDepth() != 0 {
			t.Errorf("%s: net stack depth = %d, want 0", fn.Name, g.StackDepth())
		}
	}
}

func TestFrameSizeIsMultipleOf16(t *testing.T) {
	prog, _ := compile(t, "int main() { char a; char b; char c; return 0; }\n")
	if prog.Funcs[0].StackSize%16 != 0 {
		t.Errorf("StackSize = %d, not a multiple of 16", prog.Funcs[0].StackSize)
	}
}

func TestLabelsAreUniqueAcrossIfStatements(t *testing.T) {
	_, asm := compile(t, `
		int main() {
			int x;
			if (x) { x = 1; } else { x = 2; }
			if (x) { x = 3; } else { x = 4; }
			return x;
		}
	`)
	if strings.Count(asm, ".L.if.else.1:") != 1 {
		t.Errorf("label .L.if.else.1 should appear exactly once, got %d", strings.Count(asm, ".L.if.else.1:"))
	}
	if strings.Count(asm, ".L.if.else.2:") != 1 {
		t.Errorf("label .L.if.else.2 should appear exactly once, got %d", strings.Count(asm, ".L.if.else.2:"))
	}
}

func TestDeterministicOutput(t *testing.T) {
	src := "int main() { int i; int sum; sum = 0; for (i=0; i<10; i=i+1) { sum = sum + i; } return sum; }\n"
	_, asm1 := compile(t, src)
	_, asm2 := compile(t, src)
	if asm1 != asm2 {
		t.Errorf("codegen is not deterministic across identical runs")
	}
}

func TestStringLiteralEmittedAsData(t *testing.T) {
	_, asm := compile(t, `int main() { return *"hi"; }`+"\n")
	if !strings.Contains(asm, ".data\n") {
		t.Error("expected a .data section")
	}
	if !strings.Contains(asm, "\t.byte 104\n") { // 'h'
		t.Error("expected the string literal's bytes to be emitted")
	}
}

func TestGlobalWithoutInitializerIsZeroFilled(t *testing.T) {
	_, asm := compile(t, "int g; int main() { return g; }\n")
	if !strings.Contains(asm, ".globl .L.g\n.L.g:\n\t.zero 8\n") {
		t.Errorf("expected g to be zero-filled, got:\n%s", asm)
	}
}

func TestPointerArithmeticScalesBySize(t *testing.T) {
	_, asm := compile(t, "int main() { int a[3]; int *p; p = a; return *(p+1); }\n")
	if !strings.Contains(asm, "mov x2, #8") {
		t.Error("expected pointer-to-int arithmetic to scale the offset by 8")
	}
}

// referencePrograms mirrors the six canonical end-to-end programs: each one
// assembled, linked and actually run on AArch64 would exit with the given
// status. Without that hardware this only checks each compiles cleanly to
// non-empty output with every function frame-aligned — actual exit-code
// verification belongs to a driver that can assemble and execute the output.
func referencePrograms() []struct {
	src      string
	wantExit int
} {
	return []struct {
		src      string
		wantExit int
	}{
		{"int main() { return 0; }\n", 0},
		{"int main() { int a=1; int b=2; return a+b*3; }\n", 7},
		{"int main() { int i; int s=0; for(i=1;i<=10;i=i+1) s=s+i; return s; }\n", 55},
		{"int main() { int a[3]; a[0]=1; a[1]=2; a[2]=4; return a[0]+a[1]+a[2]; }\n", 7},
		{"int add(int x, int y) { return x+y; } int main() { return add(3, 4); }\n", 7},
		{"int main() { char s[4]; s[0]=97; s[1]=98; s[2]=99; s[3]=0; return s[2]; }\n", 99},
	}
}

func TestReferenceProgramsCompileCleanly(t *testing.T) {
	for i, tc := range referencePrograms() {
		prog, asm := compile(t, tc.src)
		if asm == "" {
			t.Errorf("case %d: empty output", i)
		}
		for _, fn := range prog.Funcs {
			if fn.StackSize%16 != 0 {
				t.Errorf("case %d, func %s: StackSize %d not 16-aligned", i, fn.Name, fn.StackSize)
			}
		}
	}
}

