// Package token defines the lexical token representation shared by the
// lexer and parser.
package token

import "fmt"

// Kind classifies a Token.
type Kind int

const (
	// Reserved covers both punctuation ("+", "{", ...) and keywords
	// ("return", "if", ...); the lexeme itself disambiguates the two.
	Reserved Kind = iota
	Identifier
	Number
	String
	Eof
)

func (k Kind) String() string {
	switch k {
	case Reserved:
		return "Reserved"
	case Identifier:
		return "Identifier"
	case Number:
		return "Number"
	case String:
		return "String"
	case Eof:
		return "Eof"
	default:
		return "Unknown"
	}
}

// Keywords are the reserved words recognized by the lexer. A Reserved token
// whose Text is not in this set is punctuation.
var Keywords = map[string]bool{
	"return": true,
	"if":     true,
	"else":   true,
	"while":  true,
	"for":    true,
	"int":    true,
	"char":   true,
	"sizeof": true,
}

// Token is a single lexical token. Pos/Line/Col locate it in the source
// buffer for diagnostics; Text is the exact matched lexeme (reserved words
// and punctuation alike).
type Token struct {
	Kind Kind
	Text string
	Pos  int // byte offset into the source buffer
	Line int // 1-based
	Col  int // 1-based, byte column within Line

	IntVal int64 // valid when Kind == Number

	// StrVal holds the decoded bytes of a String token, including the
	// trailing NUL the spec requires every decoded string literal to carry.
	StrVal []byte
}

// Is reports whether the token is a Reserved token with the given lexeme
// (used for punctuation and keyword matching alike).
func (t Token) Is(text string) bool {
	return t.Kind == Reserved && t.Text == text
}

func (t Token) String() string {
	switch t.Kind {
	case Number:
		return fmt.Sprintf("Number(%d)", t.IntVal)
	case String:
		return fmt.Sprintf("String(%q)", t.StrVal)
	case Eof:
		return "Eof"
	default:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	}
}
