package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a slice definition error with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// OpError is the panic value raised when an op cannot be applied to the
// current state, e.g. "add" on a string. The engine reports it as a
// reducer panic.
type OpError struct {
	Slice   string
	Op      OpKind
	Field   string
	Message string
}

func (e *OpError) Error() string {
	field := e.Field
	if field == "" {
		field = "<state>"
	}
	return fmt.Sprintf("slice %s: %s %s: %s", e.Slice, e.Op, field, e.Message)
}

// PayloadError reports a payload that does not fit the declared kind.
type PayloadError struct {
	ActionType string
	Want       PayloadKind
	Got        any
}

func (e *PayloadError) Error() string {
	if e.Want == PayloadNone {
		return fmt.Sprintf("action %q takes no payload, got %T", e.ActionType, e.Got)
	}
	return fmt.Sprintf("action %q: payload must be %s, got %T", e.ActionType, e.Want, e.Got)
}
