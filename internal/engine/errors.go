package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised by the engine while dispatching, running
// its queue or replaying a journal.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the affected session.
	Session string

	// ActionType is the type of the action being processed, if any.
	ActionType string

	// Seq is the journal position involved, if any.
	Seq int64

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeHandlerPanic indicates the reducer panicked. State is unchanged.
	ErrCodeHandlerPanic RuntimeErrorCode = "HANDLER_PANIC"

	// ErrCodeEngineStopped indicates the engine no longer accepts actions.
	ErrCodeEngineStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodeJournalWrite indicates the journal entry could not be written.
	// State is unchanged.
	ErrCodeJournalWrite RuntimeErrorCode = "JOURNAL_WRITE"

	// ErrCodeNonDeterministic indicates replay diverged from the journal.
	ErrCodeNonDeterministic RuntimeErrorCode = "NON_DETERMINISTIC"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.ActionType != "" && e.Seq != 0:
		msg += fmt.Sprintf(" (session=%s, action=%s, seq=%d)", e.Session, e.ActionType, e.Seq)
	case e.ActionType != "":
		msg += fmt.Sprintf(" (session=%s, action=%s)", e.Session, e.ActionType)
	case e.Session != "":
		msg += fmt.Sprintf(" (session=%s)", e.Session)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsPanicError reports whether err is a recovered reducer panic.
func IsPanicError(err error) bool { return hasCode(err, ErrCodeHandlerPanic) }

// IsStoppedError reports whether err came from a stopped engine.
func IsStoppedError(err error) bool { return hasCode(err, ErrCodeEngineStopped) }

// IsJournalError reports whether err is a failed journal write.
func IsJournalError(err error) bool { return hasCode(err, ErrCodeJournalWrite) }

// IsNonDeterministicError reports whether err is a replay divergence.
func IsNonDeterministicError(err error) bool { return hasCode(err, ErrCodeNonDeterministic) }

// NewPanicError wraps a recovered panic value.
func NewPanicError(session, actionType string, recovered any) *RuntimeError {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}
	return &RuntimeError{
		Code:       ErrCodeHandlerPanic,
		Message:    "reducer panicked",
		Session:    session,
		ActionType: actionType,
		Err:        err,
	}
}

// NewStoppedError reports an action refused by a stopped engine.
func NewStoppedError(session, actionType string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeEngineStopped,
		Message:    "engine stopped",
		Session:    session,
		ActionType: actionType,
	}
}

// NewJournalError wraps a journal failure at seq.
func NewJournalError(session, actionType string, seq int64, err error) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeJournalWrite,
		Message:    "journal write failed",
		Session:    session,
		ActionType: actionType,
		Seq:        seq,
		Err:        err,
	}
}

// NewNonDeterministicError reports a replay divergence at seq.
func NewNonDeterministicError(session, actionType string, seq int64, message string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeNonDeterministic,
		Message:    message,
		Session:    session,
		ActionType: actionType,
		Seq:        seq,
	}
}
