// Package errs defines the coded domain errors returned by the simulation core.
//
// Every rejected operation returns an *Error carrying a Code (the category) and a
// Reason (the specific cause). Callers branch with errors.Is against either the
// category sentinels in this package or the reason sentinels exported by the
// domain packages.
package errs

import "errors"

// Code is the error category.
type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeInvalidOperation      Code = "INVALID_OPERATION"
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCES"
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Category
	Reason  string // Machine-readable cause, e.g. "staff_not_found"
	Message string // Human-readable message
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Reason != "" {
		return e.Reason
	}
	return string(e.Code)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code, and by reason when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Category sentinels.
var (
	ErrNotFound              = &Error{Code: CodeNotFound}
	ErrInvalidOperation      = &Error{Code: CodeInvalidOperation}
	ErrInsufficientResources = &Error{Code: CodeInsufficientResources}
)

// Reason builds a reason sentinel for use with errors.Is.
func Reason(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// New creates an error for a reason sentinel with a specific message.
func New(sentinel *Error, message string) *Error {
	return &Error{
		Code:    sentinel.Code,
		Reason:  sentinel.Reason,
		Message: message,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
