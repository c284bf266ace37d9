package savegame

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFormat        = errors.New("unknown save format")
	ErrMissingRequiredField = errors.New("missing required field")
)

// SchemaErrorKind classifies a mapping failure.
type SchemaErrorKind int

const (
	UnknownFormat SchemaErrorKind = iota + 1
	MissingRequiredField
)

// SchemaError reports a save whose family cannot be identified or that lacks a mandatory field.
type SchemaError struct {
	Kind   SchemaErrorKind
	Field  string
	Detail string
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case MissingRequiredField:
		return fmt.Sprintf("schema error: %v %q", ErrMissingRequiredField, e.Field)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("schema error: %v: %s", ErrUnknownFormat, e.Detail)
		}
		return fmt.Sprintf("schema error: %v", ErrUnknownFormat)
	}
}

func (e *SchemaError) Unwrap() error {
	if e.Kind == MissingRequiredField {
		return ErrMissingRequiredField
	}
	return ErrUnknownFormat
}

func missing(field string) error {
	return &SchemaError{Kind: MissingRequiredField, Field: field}
}
