package lexer

import (
	"fmt"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF Kind = iota
	Equals
	OpenBrace
	CloseBrace
	Ident
	Quoted
	Int
	Float
	Bool
	Date
)

var kindNames = [...]string{
	EOF:        "end of input",
	Equals:     "'='",
	OpenBrace:  "'{'",
	CloseBrace: "'}'",
	Ident:      "identifier",
	Quoted:     "quoted string",
	Int:        "integer",
	Float:      "float",
	Bool:       "boolean",
	Date:       "date",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexeme. Text holds the source spelling; for Quoted it is the unescaped contents.
// Only the typed field matching Kind is populated.
type Token struct {
	Kind   Kind
	Text   string
	Offset int

	Int   int64
	Float float64
	Bool  bool
	Date  gamedate.Date
}

// IsScalar reports whether the token can stand as a value or key on its own.
func (t Token) IsScalar() bool {
	switch t.Kind {
	case Ident, Quoted, Int, Float, Bool, Date:
		return true
	}
	return false
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return t.Kind.String()
	case Quoted:
		return fmt.Sprintf("%q", t.Text)
	default:
		return t.Text
	}
}
