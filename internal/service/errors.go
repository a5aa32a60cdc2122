// Package service implements the study workflows: enrollment, action
// requests, outcome uploads and the ledger read paths.  Every failure a
// client can cause is reported as an *Error carrying a stable numeric code.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindReferential Kind = "referential"
	KindInternal    Kind = "internal"
)

// Error is returned by every workflow.  Code is stable and part of the
// client contract; Message is safe to show to clients.  Err holds the
// underlying cause for internal errors and is never exposed.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(code int, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflict(code int, err error, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func missing(code int, err error, format string, args ...any) *Error {
	return &Error{Kind: KindReferential, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func internal(code int, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: "internal error, please try again", Err: err}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
