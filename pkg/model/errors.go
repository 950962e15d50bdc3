package model

import (
	"errors"
	"fmt"
)

// ErrInvalidArgs is returned when the command line does not have the expected shape.
var ErrInvalidArgs = errors.New("invalid number of arguments")

// InputError describes a problem with the process list on a specific line.
type InputError struct {
	Source  string
	Line    int
	Field   string
	Message string
}

func (e *InputError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// NewInputError creates an InputError for the given line and field.
func NewInputError(source string, line int, field, msg string) *InputError {
	return &InputError{Source: source, Line: line, Field: field, Message: msg}
}

// InvalidTransitionError is returned when a state transition is invalid.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
