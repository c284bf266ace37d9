package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
)

// ErrTokenize is the sentinel wrapped by every *Error.
var ErrTokenize = errors.New("tokenize error")

// Error reports input that matches no token rule.
type Error struct {
	Offset int
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tokenize error at line %d, column %d (offset %d): %s", e.Line, e.Column, e.Offset, e.Msg)
}

func (e *Error) Unwrap() error { return ErrTokenize }

// Position converts a byte offset into a 1-based line and rune column.
func Position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	line, col = 1, 1
	for _, r := range src[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// Lexer scans the scripting format forward with one token of lookahead.
type Lexer struct {
	src string
	pos int

	peeked  bool
	peekTok Token
	peekErr error
}

// New creates a lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Source returns the text being scanned.
func (l *Lexer) Source() string { return l.src }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if !l.peeked {
		l.peekTok, l.peekErr = l.scan()
		l.peeked = true
	}
	return l.peekTok, l.peekErr
}

// Next consumes and returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	if l.peeked {
		l.peeked = false
		return l.peekTok, l.peekErr
	}
	return l.scan()
}

// Tokenize scans the whole input. The trailing EOF token is not included.
func Tokenize(src string) ([]Token, error) {
	l := New(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) errorf(offset int, format string, args ...any) *Error {
	line, col := Position(l.src, offset)
	return &Error{Offset: offset, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.pos++
		case c == '#':
			nl := strings.IndexByte(l.src[l.pos:], '\n')
			if nl < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += nl + 1
			}
		default:
			return
		}
	}
}

func (l *Lexer) scan() (Token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if start >= len(l.src) {
		return Token{Kind: EOF, Offset: start}, nil
	}

	switch l.src[start] {
	case '=':
		l.pos++
		return Token{Kind: Equals, Text: "=", Offset: start}, nil
	case '{':
		l.pos++
		return Token{Kind: OpenBrace, Text: "{", Offset: start}, nil
	case '}':
		l.pos++
		return Token{Kind: CloseBrace, Text: "}", Offset: start}, nil
	case '"':
		return l.scanQuoted()
	}

	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isWordRune(r) {
			break
		}
		l.pos += size
	}
	if l.pos == start {
		r, _ := utf8.DecodeRuneInString(l.src[start:])
		return Token{}, l.errorf(start, "unexpected character %q", r)
	}
	return classify(l.src[start:l.pos], start), nil
}

func (l *Lexer) scanQuoted() (Token, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return Token{Kind: Quoted, Text: sb.String(), Offset: start}, nil
		case '\\':
			if l.pos+1 < len(l.src) {
				next := l.src[l.pos+1]
				if next == '"' || next == '\\' {
					sb.WriteByte(next)
					l.pos += 2
					continue
				}
			}
			sb.WriteByte(c)
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, l.errorf(start, "unterminated quoted string")
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.' || r == '-' || r == '+' || r == ':' || r == '@' || r == '\'':
		return true
	case r >= utf8.RuneSelf:
		return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
	}
	return false
}

func classify(word string, offset int) Token {
	tok := Token{Kind: Ident, Text: word, Offset: offset}

	switch word {
	case "yes":
		tok.Kind, tok.Bool = Bool, true
		return tok
	case "no":
		tok.Kind, tok.Bool = Bool, false
		return tok
	}

	if strings.Count(word, ".") == 2 {
		if d, err := gamedate.Parse(word); err == nil {
			tok.Kind, tok.Date = Date, d
		}
		return tok
	}

	isFloat, ok := numericShape(word)
	if !ok {
		return tok
	}
	if isFloat {
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			tok.Kind, tok.Float = Float, f
		}
		return tok
	}
	if n, err := strconv.ParseInt(word, 10, 64); err == nil {
		tok.Kind, tok.Int = Int, n
	}
	return tok
}

// numericShape matches [+-]?(digits[.digits]|.digits)([eE][+-]?digits)?.
func numericShape(s string) (isFloat, ok bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := countDigits(s[i:])
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		isFloat = true
		i++
		fracDigits = countDigits(s[i:])
		i += fracDigits
	}
	if intDigits == 0 && fracDigits == 0 {
		return false, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		isFloat = true
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := countDigits(s[i:])
		if exp == 0 {
			return false, false
		}
		i += exp
	}
	return isFloat, i == len(s)
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
