package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hee-San/he3-c-compiler/ast"
	"github.com/Hee-San/he3-c-compiler/codegen"
	"github.com/Hee-San/he3-c-compiler/diag"
	"github.com/Hee-San/he3-c-compiler/layout"
	"github.com/Hee-San/he3-c-compiler/lexer"
	"github.com/Hee-San/he3-c-compiler/parser"
	"github.com/Hee-San/he3-c-compiler/resolve"
	"github.com/Hee-San/he3-c-compiler/token"
)

var (
	outputPath string
	verbose    bool
	dumpTokens bool
	dumpAST    bool
)

var command = &cobra.Command{
	Use:  "he3cc source.c [-o output.s]",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	command.Flags().StringVarP(&outputPath, "output", "o", "", "write assembly to this file instead of stdout")
	command.Flags().BoolVarP(&verbose, "verbose", "v", false, "log phase transitions to stderr")
	command.Flags().BoolVar(&dumpTokens, "dump-tokens", false, "write the lexed token stream to <source>.tokens")
	command.Flags().BoolVar(&dumpAST, "dump-ast", false, "write a textual AST dump to <source>.ast")
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string) error {
	sink := diag.NewSink(os.Stderr)
	logger := newLogger(verbose)

	buf, err := os.ReadFile(path)
	if err != nil {
		sink.Fatal(diag.Errorf("%v", err))
	}
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		buf = append(buf, '\n')
	}
	src := diag.NewSource(path, buf)

	toks, err := lexer.New(src).Scan()
	if err != nil {
		sink.Fatal(err)
	}
	logger.Debug("lexed", "tokens", len(toks))
	if dumpTokens {
		if err := dumpTokensFile(path, toks); err != nil {
			sink.Fatal(diag.Errorf("%v", err))
		}
	}

	p := parser.New(src, toks)
	prog, err := p.Parse()
	if err != nil {
		sink.Fatal(err)
	}
	logger.Debug("parsed", "functions", len(prog.Funcs), "globals", len(prog.Globals))
	if dumpAST {
		if err := dumpASTFile(path, prog); err != nil {
			sink.Fatal(diag.Errorf("%v", err))
		}
	}

	if err := resolve.New(src).Program(prog); err != nil {
		sink.Fatal(err)
	}
	logger.Debug("resolved types")

	layout.Assign(prog)
	for _, fn := range prog.Funcs {
		logger.Debug("laid out frame", "function", fn.Name, "bytes", fn.StackSize)
	}

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		sink.Fatal(diag.Errorf("%v", err))
	}
	defer closeOut()

	if err := codegen.New(out, src).Program(prog); err != nil {
		sink.Fatal(err)
	}
	logger.Debug("emitted assembly", "output", outputDisplay(outputPath))
	return nil
}

// newLogger returns a slog.Logger writing debug-level phase-transition
// messages to stderr when -v is set; otherwise the logger is Info-level and
// drops those debug messages.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func outputDisplay(path string) string {
	if path == "" {
		return "<stdout>"
	}
	return path
}

func dumpTokensFile(sourcePath string, toks []token.Token) error {
	var buf bytes.Buffer
	for _, tok := range toks {
		fmt.Fprintln(&buf, tok.String())
	}
	return os.WriteFile(sourcePath+".tokens", buf.Bytes(), 0o644)
}

func dumpASTFile(sourcePath string, prog *ast.Program) error {
	var buf bytes.Buffer
	for _, fn := range prog.Funcs {
		fmt.Fprintf(&buf, "func %s\n", fn.Name)
		for _, stmt := range fn.Body {
			dumpNode(&buf, stmt, 1)
		}
	}
	return os.WriteFile(sourcePath+".ast", buf.Bytes(), 0o644)
}

func dumpNode(w io.Writer, n *ast.Node, depth int) {
	if n == nil {
		return
	}
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "\t")
	}
	fmt.Fprintf(w, "%s\n", n.Kind)
	dumpNode(w, n.Lhs, depth+1)
	dumpNode(w, n.Rhs, depth+1)
	dumpNode(w, n.Cond, depth+1)
	dumpNode(w, n.Then, depth+1)
	dumpNode(w, n.Els, depth+1)
	for _, child := range n.Body {
		dumpNode(w, child, depth+1)
	}
}
