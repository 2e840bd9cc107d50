package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Hee-San/he3-c-compiler/diag"
	"github.com/Hee-San/he3-c-compiler/lexer"
	"github.com/Hee-San/he3-c-compiler/parser"
)

// replCmd is a development aid, not part of the compile path: it lexes and
// parses one line at a time and dumps the result, for poking at the
// grammar interactively instead of round-tripping through a .c file.
// Grounded on cmd_repl.go's prompt-loop shape (informatter-nilan), ported
// from its bufio.Scanner to chzyer/readline for real line editing and
// history.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "interactively lex and parse single lines for debugging",
	RunE: func(cmd *cobra.Command, args []string) error {
		repl(os.Stdin, os.Stdout)
		return nil
	},
}

func init() {
	command.AddCommand(replCmd)
}

func repl(in io.Reader, out io.Writer) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: ">>> ",
		Stdin:  io.NopCloser(in),
		Stdout: out,
	})
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	defer rl.Close()

	fmt.Fprintln(out, "he3cc debug shell — one statement per line, Ctrl-D to exit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		if line == "" {
			continue
		}
		replLine(out, line)
	}
}

// replLine wraps the entered line in a throwaway function, since the
// grammar only accepts statements inside one — a bare "1+1;" at top level
// would otherwise have to go through the function-vs-global disambiguation
// a one-line debug shell has no use for.
func replLine(out io.Writer, line string) {
	src := diag.NewSource("<repl>", []byte("int main() { "+line+" }\n"))

	toks, err := lexer.New(src).Scan()
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	for _, tok := range toks {
		fmt.Fprintln(out, tok.String())
	}

	prog, err := parser.New(src, toks).Parse()
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	for _, stmt := range prog.Funcs[0].Body {
		dumpNode(out, stmt, 0)
	}
}
