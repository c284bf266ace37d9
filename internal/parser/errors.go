package parser

import (
	"errors"
	"fmt"
)

var (
	ErrUnterminatedBlock = errors.New("unterminated block")
	ErrUnexpectedToken   = errors.New("unexpected token")
	ErrTooDeep           = errors.New("nesting too deep")
)

// ErrorKind classifies a structural parse failure.
type ErrorKind int

const (
	UnterminatedBlock ErrorKind = iota + 1
	UnexpectedToken
	TooDeep
)

func (k ErrorKind) sentinel() error {
	switch k {
	case UnterminatedBlock:
		return ErrUnterminatedBlock
	case UnexpectedToken:
		return ErrUnexpectedToken
	default:
		return ErrTooDeep
	}
}

// Error is a structural parse failure. Offset points at the unmatched '{' for
// UnterminatedBlock and at the offending token otherwise.
type Error struct {
	Kind   ErrorKind
	Offset int
	Line   int
	Column int
	Token  string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("parse error at line %d, column %d (offset %d): %v", e.Line, e.Column, e.Offset, e.Kind.sentinel())
	if e.Token != "" {
		msg += fmt.Sprintf(" near %s", e.Token)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind.sentinel() }
