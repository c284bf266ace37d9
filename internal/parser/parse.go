package parser

import (
	"github.com/2kai2kai2/cartographer/internal/lexer"
)

// MaxDepth bounds block nesting so hostile input fails cleanly instead of exhausting the stack.
const MaxDepth = 1024

// Parse reads a whole document into its implicit top-level object.
// Tokenizer failures are returned as *lexer.Error; structural failures as *Error.
// No partial tree is returned on failure.
func Parse(text string) (*Object, error) {
	p := &treeParser{lex: lexer.New(text)}
	root := &Object{}
	if err := p.entries(root, nil, lexer.Token{}, 0); err != nil {
		return nil, err
	}
	return root, nil
}

type treeParser struct {
	lex *lexer.Lexer
}

func (p *treeParser) fail(kind ErrorKind, tok lexer.Token) *Error {
	line, col := lexer.Position(p.lex.Source(), tok.Offset)
	return &Error{Kind: kind, Offset: tok.Offset, Line: line, Column: col, Token: tok.String()}
}

// entries fills obj with key = value pairs until the closing brace (or EOF at top level).
// open is nil at top level; otherwise it is the '{' that started the block. If firstKey
// is a scalar it has already been consumed by the caller. Inside a block, bare values
// mixed in with the pairs are kept in order under the empty key.
func (p *treeParser) entries(obj *Object, open *lexer.Token, firstKey lexer.Token, depth int) error {
	key := firstKey
	for {
		if !key.IsScalar() {
			tok, err := p.lex.Next()
			if err != nil {
				return err
			}
			switch {
			case tok.Kind == lexer.EOF:
				if open != nil {
					return p.fail(UnterminatedBlock, *open)
				}
				return nil
			case tok.Kind == lexer.CloseBrace:
				if open == nil {
					return p.fail(UnexpectedToken, tok)
				}
				return nil
			case tok.Kind == lexer.OpenBrace && open != nil:
				inner, err := p.block(tok, depth+1)
				if err != nil {
					return err
				}
				obj.Add("", inner)
				continue
			case !tok.IsScalar():
				return p.fail(UnexpectedToken, tok)
			}
			key = tok
		}

		next, err := p.lex.Peek()
		if err != nil {
			return err
		}
		switch {
		case next.Kind == lexer.Equals:
			p.lex.Next()
		case next.Kind == lexer.OpenBrace:
			// "key { ... }" with the '=' omitted.
		case next.Kind == lexer.EOF && open != nil:
			return p.fail(UnterminatedBlock, *open)
		case open != nil && (next.IsScalar() || next.Kind == lexer.CloseBrace):
			obj.Add("", scalar(key))
			key = lexer.Token{}
			continue
		default:
			return p.fail(UnexpectedToken, next)
		}

		value, err := p.value(depth)
		if err != nil {
			return err
		}
		obj.Add(key.Text, value)
		key = lexer.Token{}
	}
}

// value parses what follows '=' (or a key whose '=' was omitted).
func (p *treeParser) value(depth int) (Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == lexer.OpenBrace:
		return p.block(tok, depth+1)
	case tok.IsScalar():
		if isColorModel(tok) {
			next, err := p.lex.Peek()
			if err != nil {
				return nil, err
			}
			if next.Kind == lexer.OpenBrace {
				return p.color(tok, depth+1)
			}
		}
		return scalar(tok), nil
	default:
		return nil, p.fail(UnexpectedToken, tok)
	}
}

// block parses the body after '{'. The first element decides the shape:
// "{}" is an empty object, "k = ..." or "k { ..." an object, anything else an array.
func (p *treeParser) block(open lexer.Token, depth int) (Node, error) {
	if depth > MaxDepth {
		return nil, p.fail(TooDeep, open)
	}

	first, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch {
	case first.Kind == lexer.CloseBrace:
		return &Object{}, nil
	case first.Kind == lexer.EOF:
		return nil, p.fail(UnterminatedBlock, open)
	case first.Kind == lexer.OpenBrace:
		inner, err := p.block(first, depth+1)
		if err != nil {
			return nil, err
		}
		return p.array(open, Array{inner}, depth)
	case !first.IsScalar():
		return nil, p.fail(UnexpectedToken, first)
	}

	next, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if next.Kind == lexer.Equals || (next.Kind == lexer.OpenBrace && !isColorModel(first)) {
		obj := &Object{}
		if err := p.entries(obj, &open, first, depth); err != nil {
			return nil, err
		}
		return obj, nil
	}

	var head Node
	if isColorModel(first) && next.Kind == lexer.OpenBrace {
		if head, err = p.color(first, depth+1); err != nil {
			return nil, err
		}
	} else {
		head = scalar(first)
	}
	return p.array(open, Array{head}, depth)
}

// array continues a block already known to hold bare values.
func (p *treeParser) array(open lexer.Token, items Array, depth int) (Node, error) {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == lexer.CloseBrace:
			return items, nil
		case tok.Kind == lexer.EOF:
			return nil, p.fail(UnterminatedBlock, open)
		case tok.Kind == lexer.OpenBrace:
			inner, err := p.block(tok, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, inner)
		case tok.IsScalar():
			next, err := p.lex.Peek()
			if err != nil {
				return nil, err
			}
			switch {
			case next.Kind == lexer.OpenBrace && isColorModel(tok):
				c, err := p.color(tok, depth+1)
				if err != nil {
					return nil, err
				}
				items = append(items, c)
			case next.Kind == lexer.Equals || next.Kind == lexer.OpenBrace:
				return p.mixed(open, items, tok, depth)
			default:
				items = append(items, scalar(tok))
			}
		default:
			return nil, p.fail(UnexpectedToken, tok)
		}
	}
}

// mixed turns a block that started with bare values into an object once the first
// key = value pair shows up. Earlier values stay in front under the empty key.
func (p *treeParser) mixed(open lexer.Token, items Array, key lexer.Token, depth int) (Node, error) {
	obj := &Object{Entries: make([]Entry, 0, len(items)+1)}
	for _, n := range items {
		obj.Add("", n)
	}
	if err := p.entries(obj, &open, key, depth); err != nil {
		return nil, err
	}
	return obj, nil
}

// color parses "rgb { r g b [a] }" after the model keyword.
func (p *treeParser) color(model lexer.Token, depth int) (Node, error) {
	open, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if depth > MaxDepth {
		return nil, p.fail(TooDeep, open)
	}
	var comps []float64
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case lexer.Int:
			comps = append(comps, float64(tok.Int))
		case lexer.Float:
			comps = append(comps, tok.Float)
		case lexer.CloseBrace:
			if len(comps) != 3 && len(comps) != 4 {
				return nil, p.fail(UnexpectedToken, tok)
			}
			c := Color{Model: model.Text, R: comps[0], G: comps[1], B: comps[2]}
			if len(comps) == 4 {
				c.A, c.HasAlpha = comps[3], true
			}
			return c, nil
		case lexer.EOF:
			return nil, p.fail(UnterminatedBlock, open)
		default:
			return nil, p.fail(UnexpectedToken, tok)
		}
	}
}

func isColorModel(tok lexer.Token) bool {
	return tok.Kind == lexer.Ident && (tok.Text == "rgb" || tok.Text == "hsv")
}

func scalar(tok lexer.Token) Node {
	switch tok.Kind {
	case lexer.Int:
		return Int(tok.Int)
	case lexer.Float:
		return Float(tok.Float)
	case lexer.Bool:
		return Bool(tok.Bool)
	case lexer.Date:
		return Date{tok.Date}
	default:
		return String(tok.Text)
	}
}
